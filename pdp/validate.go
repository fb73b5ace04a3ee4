package pdp

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/shoplens/shoplens/models"
)

// priceTextPattern matches currency-prefixed, currency-suffixed, or
// currency-coded numerics in visible text ("$19.99", "19,99 €", "USD 49").
var priceTextPattern = regexp.MustCompile(
	`(?i)([$€£¥₹]\s?\d{1,6}([.,]\d{1,2})?)|(\d{1,6}([.,]\d{1,2})?\s?[$€£¥₹])|(\b(USD|EUR|GBP|CAD|AUD|NZD|JPY|CHF|SEK|NOK|DKK|PLN)\s?\d{1,6}([.,]\d{1,2})?)`)

// priceSelector is the CSS fallback when no price-like text is visible
// (price rendered via CSS content, currency split across nodes).
const priceSelector = `[class*="price"], [class*="Price"], [data-price], [itemprop="price"], .money`

// addToCartTexts are button labels that identify an add-to-cart control.
var addToCartTexts = []string{
	"add to cart", "add to bag", "add to basket", "buy now", "buy it now",
	"add to trolley", "purchase", "pre-order", "preorder",
}

// addToCartSelector finds add-to-cart controls by attribute and class.
const addToCartSelector = `button[name="add"], [data-add-to-cart], [data-action="add-to-cart"], form[action*="/cart/add"] [type="submit"], [class*="add-to-cart"], [class*="addtocart"], [class*="add_to_cart"], [class*="AddToCart"], #AddToCart`

// productTitleSelector locates the product title when no h1 is present.
const productTitleSelector = `h1, [class*="product-title"], [class*="product__title"], [class*="productName"], [itemprop="name"]`

// Validation runs once per candidate, so the selectors are compiled up
// front instead of per document.
var (
	priceMatcher     = cascadia.MustCompile(priceSelector)
	addToCartMatcher = cascadia.MustCompile(addToCartSelector)
	titleMatcher     = cascadia.MustCompile(productTitleSelector)
	imageMatcher     = cascadia.MustCompile(`img, picture source`)
	microdataMatcher = cascadia.MustCompile(`[itemtype*="schema.org/Product"]`)
	jsonLDMatcher    = cascadia.MustCompile(`script[type="application/ld+json"]`)
	buttonMatcher    = cascadia.MustCompile(`button, [role="button"], input[type="submit"], a[class*="btn"], a[class*="button"]`)
)

// Validator computes the PDP validation signals for a candidate page.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate computes the four signals from the candidate page's serialized
// DOM and visible text. The caller applies models.PdpSignals.Valid.
func (v *Validator) Validate(rawHTML, visibleText string) models.PdpSignals {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return models.PdpSignals{}
	}
	return models.PdpSignals{
		HasPrice:         hasPrice(doc, visibleText),
		HasAddToCart:     hasAddToCart(doc),
		HasProductSchema: hasProductSchema(doc),
		HasTitleAndImage: hasTitleAndImage(doc),
	}
}

// hasPrice checks visible text first, then falls back to price-like
// selectors with non-empty text.
func hasPrice(doc *goquery.Document, visibleText string) bool {
	if priceTextPattern.MatchString(visibleText) {
		return true
	}
	found := false
	doc.FindMatcher(priceMatcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "" {
			found = true
			return false
		}
		return true
	})
	return found
}

// hasAddToCart matches controls by selector, then by button text.
func hasAddToCart(doc *goquery.Document) bool {
	if doc.FindMatcher(addToCartMatcher).Length() > 0 {
		return true
	}
	found := false
	doc.FindMatcher(buttonMatcher).
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.TrimSpace(s.Text()))
			if text == "" {
				if val, ok := s.Attr("value"); ok {
					text = strings.ToLower(strings.TrimSpace(val))
				}
			}
			for _, label := range addToCartTexts {
				if strings.Contains(text, label) {
					found = true
					return false
				}
			}
			return true
		})
	return found
}

// hasTitleAndImage requires a product-title-like element and at least one
// image.
func hasTitleAndImage(doc *goquery.Document) bool {
	if doc.FindMatcher(titleMatcher).Length() == 0 {
		return false
	}
	return doc.FindMatcher(imageMatcher).Length() > 0
}

// hasProductSchema detects a Product-typed structured-data block: JSON-LD
// with @type Product, or microdata itemtype.
func hasProductSchema(doc *goquery.Document) bool {
	if doc.FindMatcher(microdataMatcher).Length() > 0 {
		return true
	}
	found := false
	doc.FindMatcher(jsonLDMatcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if jsonLDHasProduct([]byte(s.Text())) {
			found = true
			return false
		}
		return true
	})
	return found
}

// jsonLDHasProduct walks a JSON-LD document (object, array, or @graph) for
// an @type of "Product". Malformed JSON is treated as no signal.
func jsonLDHasProduct(raw []byte) bool {
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return false
	}
	return nodeHasProductType(node)
}

func nodeHasProductType(node any) bool {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if nodeHasProductType(item) {
				return true
			}
		}
	case map[string]any:
		switch t := v["@type"].(type) {
		case string:
			if strings.EqualFold(t, "Product") {
				return true
			}
		case []any:
			for _, entry := range t {
				if s, ok := entry.(string); ok && strings.EqualFold(s, "Product") {
					return true
				}
			}
		}
		if graph, ok := v["@graph"]; ok {
			return nodeHasProductType(graph)
		}
	}
	return false
}
