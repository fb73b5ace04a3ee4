package pdp

import (
	"testing"

	"github.com/shoplens/shoplens/models"
)

func TestPdpSignalsValid(t *testing.T) {
	tests := []struct {
		name    string
		signals models.PdpSignals
		want    bool
	}{
		{
			"schema substitutes for add-to-cart",
			models.PdpSignals{HasPrice: true, HasTitleAndImage: true, HasAddToCart: false, HasProductSchema: true},
			true,
		},
		{
			"missing title+image fails despite everything else",
			models.PdpSignals{HasPrice: true, HasTitleAndImage: false, HasAddToCart: true, HasProductSchema: true},
			false,
		},
		{
			"add-to-cart substitutes for schema",
			models.PdpSignals{HasPrice: true, HasTitleAndImage: true, HasAddToCart: true, HasProductSchema: false},
			true,
		},
		{
			"missing price fails",
			models.PdpSignals{HasPrice: false, HasTitleAndImage: true, HasAddToCart: true, HasProductSchema: true},
			false,
		},
		{
			"neither cart nor schema fails",
			models.PdpSignals{HasPrice: true, HasTitleAndImage: true},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signals.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

const pdpHTML = `
<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"Blue Widget"}</script>
</head><body>
<h1 class="product__title">Blue Widget</h1>
<img src="/img/widget.jpg">
<span class="price">$19.99</span>
<button name="add">Add to cart</button>
</body></html>`

func TestValidate_FullProductPage(t *testing.T) {
	v := NewValidator()
	signals := v.Validate(pdpHTML, "Blue Widget $19.99 Add to cart")
	if !signals.HasPrice || !signals.HasAddToCart || !signals.HasProductSchema || !signals.HasTitleAndImage {
		t.Errorf("full PDP produced weak signals: %+v", signals)
	}
	if !signals.Valid() {
		t.Error("full PDP did not validate")
	}
}

func TestValidate_PriceSelectorFallback(t *testing.T) {
	html := `<html><body><h1>Widget</h1><img src="a.jpg"><div class="product-price">19.99</div></body></html>`
	v := NewValidator()
	signals := v.Validate(html, "Widget") // no currency marker in visible text
	if !signals.HasPrice {
		t.Error("price selector fallback missed .product-price")
	}
}

func TestValidate_AddToCartByButtonText(t *testing.T) {
	html := `<html><body><h1>Widget</h1><button class="cta">Add to Bag</button></body></html>`
	v := NewValidator()
	if signals := v.Validate(html, ""); !signals.HasAddToCart {
		t.Error("button text 'Add to Bag' not recognized as add-to-cart")
	}
}

func TestValidate_CategoryPageDoesNotValidate(t *testing.T) {
	html := `<html><body>
	<h1>All Widgets</h1>
	<ul><li><a href="/products/a"><img src="a.jpg">Widget A</a> $10</li></ul>
	</body></html>`
	v := NewValidator()
	signals := v.Validate(html, "All Widgets Widget A $10")
	// Price and title+image are present, but without an add-to-cart
	// control or product schema this must not validate.
	if signals.Valid() {
		t.Errorf("category page validated: %+v", signals)
	}
}

func TestJSONLDHasProduct(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"plain product", `{"@type":"Product"}`, true},
		{"array form", `[{"@type":"BreadcrumbList"},{"@type":"Product"}]`, true},
		{"type list", `{"@type":["Thing","Product"]}`, true},
		{"graph", `{"@graph":[{"@type":"Product"}]}`, true},
		{"other type", `{"@type":"Organization"}`, false},
		{"malformed", `{"@type":`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jsonLDHasProduct([]byte(tt.raw)); got != tt.want {
				t.Errorf("jsonLDHasProduct = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceTextPattern(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"$19.99", true},
		{"€ 24,50", true},
		{"19,99 €", true},
		{"USD 49", true},
		{"£5", true},
		{"free shipping", false},
		{"SKU 12345", false},
	}
	for _, tt := range tests {
		if got := priceTextPattern.MatchString(tt.text); got != tt.want {
			t.Errorf("priceTextPattern(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
