package pdp

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shoplens/shoplens/models"
)

// productContainerSelector matches elements that look like product cards.
// Anchors inside these are accepted without URL-pattern matching, provided
// the container shows enough product signals.
const productContainerSelector = `[class*="product"], [class*="Product"], [data-product], [data-product-id], [data-product-handle], [itemtype*="schema.org/Product"]`

// pdpPathPattern matches URL paths that conventionally point at a single
// product: /product/, /products/, /p/, /item/, /items/, /shop/, and the
// Shopify /collections/<handle>/products/<handle> form.
var pdpPathPattern = regexp.MustCompile(`(?i)(^|/)(products?|p|items?|shop)/[^/]+|/collections/[^/]+/products/[^/]+`)

// containerTitleSelector finds a title-ish element inside a product card.
const containerTitleSelector = `h1, h2, h3, h4, [class*="title"], [class*="name"], [class*="Title"], [class*="Name"]`

// containerCartSelector finds an add-to-cart control inside a product card.
const containerCartSelector = `button[name="add"], [class*="add-to-cart"], [class*="addtocart"], [class*="add_to_cart"], [data-add-to-cart], form[action*="/cart/add"]`

// Extractor pulls same-site product-link candidates out of a page's
// serialized DOM.
type Extractor struct {
	cap int
}

// NewExtractor creates an Extractor capped at cap candidates.
func NewExtractor(cap int) *Extractor {
	if cap <= 0 {
		cap = 20
	}
	return &Extractor{cap: cap}
}

// ExtractCandidates runs the two discovery passes over rawHTML and returns
// normalized candidate URLs, de-duplicated, in encounter order: the
// context pass (product-like containers) first, then the pattern pass
// (PDP-like URL paths outside nav/footer).
func (e *Extractor) ExtractCandidates(rawHTML, baseURL string) ([]models.PdpCandidate, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []models.PdpCandidate
	add := func(href string) bool {
		normalized := normalizeCandidate(href, base)
		if normalized == "" {
			return false
		}
		if _, dup := seen[normalized]; dup {
			return false
		}
		seen[normalized] = struct{}{}
		out = append(out, models.PdpCandidate{URL: normalized})
		return len(out) >= e.cap
	}

	// Pass 1: anchors inside product-like containers. The container must
	// exhibit at least 2 of 4 signals (price, title, image, cart control)
	// before its links are trusted without URL-pattern matching.
	full := false
	doc.Find(productContainerSelector).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		if containerSignalCount(container) < 2 {
			return true
		}
		container.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if add(href) {
				full = true
			}
			return !full
		})
		return !full
	})
	if full {
		return out, nil
	}

	// Pass 2: remaining anchors outside nav/footer whose path looks like
	// a product URL.
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.ParentsFiltered("nav, footer, header").Length() > 0 {
			return true
		}
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		if !pdpPathPattern.MatchString(base.ResolveReference(ref).Path) {
			return true
		}
		if add(href) {
			full = true
		}
		return !full
	})

	return out, nil
}

// containerSignalCount counts the product signals a container exhibits:
// price text, a title element, an image, and an add-to-cart control.
func containerSignalCount(container *goquery.Selection) int {
	count := 0
	if priceTextPattern.MatchString(container.Text()) {
		count++
	}
	if container.Find(containerTitleSelector).Length() > 0 {
		count++
	}
	if container.Find("img, picture, [style*='background-image']").Length() > 0 {
		count++
	}
	if container.Find(containerCartSelector).Length() > 0 {
		count++
	}
	return count
}
