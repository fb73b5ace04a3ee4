package pdp

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

const storefrontHTML = `
<html><body>
<nav><a href="/pages/about">About</a><a href="/products/nav-linked">Nav product</a></nav>
<main>
  <div class="product-card">
    <a href="/items/widget-blue"><img src="/img/widget.jpg"><h3 class="product-title">Blue Widget</h3></a>
    <span class="price">$19.99</span>
  </div>
  <div class="product-card">
    <a href="/items/widget-red"><img src="/img/red.jpg"><h3 class="product-title">Red Widget</h3></a>
    <span class="price">$24.99</span>
  </div>
  <div class="teaser">
    <a href="/products/pattern-only">Lonely link</a>
  </div>
  <a href="/blog/how-to">Blog post</a>
  <a href="https://partner.example.net/products/external">Partner product</a>
  <a href="/cart">Cart</a>
</main>
<footer><a href="/products/footer-linked">Footer product</a></footer>
</body></html>`

func TestExtractCandidates_TwoPasses(t *testing.T) {
	e := NewExtractor(10)
	got, err := e.ExtractCandidates(storefrontHTML, "https://x.com/")
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}

	want := []string{
		// Pass 1: product cards (2-of-4 signals: price, title, image).
		"https://x.com/items/widget-blue",
		"https://x.com/items/widget-red",
		// Pass 2: pattern match outside nav/footer.
		"https://x.com/products/pattern-only",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].URL != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i].URL, want[i])
		}
	}
}

func TestExtractCandidates_NavAndFooterExcludedFromPatternPass(t *testing.T) {
	e := NewExtractor(10)
	got, err := e.ExtractCandidates(storefrontHTML, "https://x.com/")
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}
	for _, c := range got {
		if c.URL == "https://x.com/products/nav-linked" || c.URL == "https://x.com/products/footer-linked" {
			t.Errorf("nav/footer link leaked into candidates: %s", c.URL)
		}
	}
}

func TestExtractCandidates_CapStopsExtraction(t *testing.T) {
	e := NewExtractor(1)
	got, err := e.ExtractCandidates(storefrontHTML, "https://x.com/")
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("cap 1 returned %d candidates", len(got))
	}
	if got[0].URL != "https://x.com/items/widget-blue" {
		t.Errorf("capped extraction kept %q, want first pass-1 candidate", got[0].URL)
	}
}

func TestExtractCandidates_WeakContainerNeedsPattern(t *testing.T) {
	// A container with only one signal (title, no price/image/cart) must
	// not have its links trusted by the context pass.
	html := `<html><body><main>
	  <div class="product-card"><a href="/lookbook/spring"><h3>Spring look</h3></a></div>
	</main></body></html>`

	e := NewExtractor(10)
	got, err := e.ExtractCandidates(html, "https://x.com/")
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("weak container produced candidates: %v", got)
	}
}

func TestPdpPathPattern(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/product/blue-widget", true},
		{"/products/blue-widget", true},
		{"/p/12345", true},
		{"/item/widget", true},
		{"/items/widget", true},
		{"/shop/widget", true},
		{"/collections/sale/products/widget", true},
		{"/blog/how-to", false},
		{"/pages/about", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := pdpPathPattern.MatchString(tt.path); got != tt.want {
			t.Errorf("pdpPathPattern(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
