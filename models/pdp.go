package models

// PdpCandidate is a normalized, same-site product link awaiting validation.
// It is a pure value, never mutated after extraction.
type PdpCandidate struct {
	URL string
}

// PdpSignals holds the four validation signals computed fresh per
// candidate page.
type PdpSignals struct {
	HasPrice         bool
	HasAddToCart     bool
	HasProductSchema bool
	HasTitleAndImage bool
}

// Valid reports whether the signals identify a real product detail page:
// price and title+image are mandatory, and either an add-to-cart control
// or product structured data must be present.
func (s PdpSignals) Valid() bool {
	return s.HasPrice && s.HasTitleAndImage && (s.HasAddToCart || s.HasProductSchema)
}

// Reasons lists the missing signals, for the candidate-check log.
func (s PdpSignals) Reasons() []string {
	var reasons []string
	if !s.HasPrice {
		reasons = append(reasons, "missing_price")
	}
	if !s.HasTitleAndImage {
		reasons = append(reasons, "missing_title_or_image")
	}
	if !s.HasAddToCart && !s.HasProductSchema {
		reasons = append(reasons, "missing_add_to_cart_and_schema")
	}
	return reasons
}
