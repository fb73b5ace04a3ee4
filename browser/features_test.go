package browser

import (
	"strings"
	"testing"
)

const homepageHTML = `
<html lang="en-US"><head>
<title>Widget Co — Home</title>
<meta name="description" content="Widgets for every occasion.">
</head><body>
<nav><a href="/shop">Shop</a><a href="/cart">Cart</a></nav>
<h1>Widgets for everyone</h1>
<a class="hero-cta" href="/collections/all">Shop now</a>
<img src="/hero.jpg"><img src="/grid.jpg">
<form role="search"><input type="search" name="q"></form>
<footer><a href="/pages/contact">Contact</a></footer>
</body></html>`

func TestExtractFeatures_Homepage(t *testing.T) {
	f, err := ExtractFeatures(homepageHTML, "Widgets for everyone Shop now Contact")
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}

	if f.H1Count != 1 || f.H1Text != "Widgets for everyone" {
		t.Errorf("h1 = (%d, %q)", f.H1Count, f.H1Text)
	}
	if !f.HasPrimaryCTA {
		t.Error("hero CTA not detected")
	}
	if !f.HasNav || !f.HasFooter || !f.HasSearchBox || !f.HasCartLink {
		t.Errorf("structural flags wrong: %+v", f)
	}
	if f.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2", f.ImageCount)
	}
	if f.MetaTitle != "Widget Co — Home" || f.Lang != "en-us" {
		t.Errorf("meta = (%q, %q)", f.MetaTitle, f.Lang)
	}
	if f.VisibleChars == 0 {
		t.Error("VisibleChars = 0")
	}
}

func TestExtractFeatures_NoCTA(t *testing.T) {
	html := `<html><body><h1>About us</h1><p>We make things.</p></body></html>`
	f, err := ExtractFeatures(html, "About us We make things.")
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}
	if f.HasPrimaryCTA {
		t.Errorf("CTA detected on content page: %v", f.CTALabels)
	}
	if f.HasNav || f.HasCartLink {
		t.Errorf("structural flags wrong: %+v", f)
	}
}

func TestCollectCTALabels_Dedup(t *testing.T) {
	html := `<html><body>
	<a href="/a">Shop now</a>
	<a href="/b">Shop Now</a>
	<button>Buy now</button>
	</body></html>`
	f, err := ExtractFeatures(html, "")
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}
	if len(f.CTALabels) != 2 {
		t.Errorf("CTALabels = %v, want 2 distinct labels", f.CTALabels)
	}
}

func TestGzipBytes_RoundTripChecksum(t *testing.T) {
	payload := strings.Repeat("<div>row</div>", 200)
	compressed, err := gzipBytes([]byte(payload))
	if err != nil {
		t.Fatalf("gzipBytes: %v", err)
	}
	if len(compressed) == 0 || len(compressed) >= len(payload) {
		t.Errorf("compressed %d bytes from %d, expected smaller non-empty output", len(compressed), len(payload))
	}
}

func TestTextFromHTML(t *testing.T) {
	html := `<html><head><title>t</title><style>.a{color:red}</style></head>
	<body><script>var x = "hidden";</script><h1>Widgets</h1>
	<p>for   everyone</p><noscript>enable js</noscript></body></html>`
	got := TextFromHTML(html)
	want := "Widgets for everyone"
	if got != want {
		t.Errorf("TextFromHTML = %q, want %q", got, want)
	}
}

func TestIsTransientExtraction(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context destroyed", errString("Execution context was destroyed"), true},
		{"target closed", errString("target closed"), true},
		{"selector miss", errString("cannot find element"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientExtraction(tt.err); got != tt.want {
				t.Errorf("IsTransientExtraction = %v, want %v", got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
