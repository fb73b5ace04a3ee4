package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageFeatures summarizes the structural signals extracted from a
// captured DOM. Confidence scoring and audit checks run on this struct
// instead of re-parsing HTML.
type PageFeatures struct {
	H1Count       int      `json:"h1Count"`
	H1Text        string   `json:"h1Text,omitempty"`
	HasPrimaryCTA bool     `json:"hasPrimaryCta"`
	CTALabels     []string `json:"ctaLabels,omitempty"`
	LinkCount     int      `json:"linkCount"`
	ImageCount    int      `json:"imageCount"`
	FormCount     int      `json:"formCount"`
	ButtonCount   int      `json:"buttonCount"`
	HasNav        bool     `json:"hasNav"`
	HasFooter     bool     `json:"hasFooter"`
	HasSearchBox  bool     `json:"hasSearchBox"`
	HasCartLink   bool     `json:"hasCartLink"`
	MetaTitle     string   `json:"metaTitle,omitempty"`
	MetaDesc      string   `json:"metaDescription,omitempty"`
	Lang          string   `json:"lang,omitempty"`
	VisibleChars  int      `json:"visibleChars"`
}

// ctaKeywords are label fragments that mark a conversion-oriented control.
var ctaKeywords = []string{
	"shop now", "shop all", "buy now", "add to cart", "add to bag",
	"order now", "get started", "subscribe", "sign up", "view products",
	"browse", "explore", "discover",
}

var cartLinkSelector = `a[href*="/cart"], a[href*="/basket"], a[href*="/bag"], [class*="cart-icon"], [data-cart-toggle]`

// ExtractFeatures parses rawHTML and computes the structural features.
// visibleText is the rendered body text, which is more reliable than the
// serialized DOM for character counting.
func ExtractFeatures(rawHTML, visibleText string) (PageFeatures, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return PageFeatures{}, err
	}

	f := PageFeatures{
		LinkCount:    doc.Find("a[href]").Length(),
		ImageCount:   doc.Find("img").Length(),
		FormCount:    doc.Find("form").Length(),
		ButtonCount:  doc.Find(`button, input[type="submit"], [role="button"]`).Length(),
		HasNav:       doc.Find(`nav, [role="navigation"]`).Length() > 0,
		HasFooter:    doc.Find("footer").Length() > 0,
		HasSearchBox: doc.Find(`input[type="search"], form[role="search"], [class*="search-input"]`).Length() > 0,
		HasCartLink:  doc.Find(cartLinkSelector).Length() > 0,
		VisibleChars: len(strings.TrimSpace(visibleText)),
	}

	h1s := doc.Find("h1")
	f.H1Count = h1s.Length()
	if f.H1Count > 0 {
		f.H1Text = strings.TrimSpace(h1s.First().Text())
	}

	f.MetaTitle = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		f.MetaDesc = strings.TrimSpace(desc)
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok {
		f.Lang = strings.ToLower(strings.TrimSpace(lang))
	}

	f.CTALabels = collectCTALabels(doc)
	f.HasPrimaryCTA = len(f.CTALabels) > 0

	return f, nil
}

// collectCTALabels scans buttons and prominent links for conversion
// labels, deduplicated and capped.
func collectCTALabels(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var labels []string

	doc.Find(`a, button, input[type="submit"], [role="button"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := strings.TrimSpace(sel.Text())
		if label == "" {
			if v, ok := sel.Attr("value"); ok {
				label = strings.TrimSpace(v)
			}
		}
		if label == "" || len(label) > 60 {
			return true
		}
		lower := strings.ToLower(label)
		for _, kw := range ctaKeywords {
			if strings.Contains(lower, kw) {
				if !seen[lower] {
					seen[lower] = true
					labels = append(labels, label)
				}
				break
			}
		}
		return len(labels) < 10
	})
	return labels
}
