package audit

import (
	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

// Thresholds for the low-confidence rules.
const (
	// minVisibleChars is the floor under which a page's rendered text is
	// too thin to audit.
	minVisibleChars = 200

	// minScreenshotBytes catches blank captures: a real full-page PNG of
	// a storefront never compresses this small.
	minScreenshotBytes = 4096
)

// Reason strings recorded on flagged pages.
const (
	ReasonMissingH1        = "missing_h1"
	ReasonMissingCTA       = "missing_primary_cta"
	ReasonThinText         = "thin_visible_text"
	ReasonScreenshotFailed = "screenshot_failed"
	ReasonScreenshotBlank  = "screenshot_blank"
	ReasonMissingPrice     = "missing_price"
	ReasonMissingAddToCart = "missing_add_to_cart"
)

// EvaluateHomepage applies the homepage low-confidence rules to a
// capture. Every failing rule contributes one reason; a page with any
// reason is flagged.
func EvaluateHomepage(ev *browser.Evidence) models.LowConfidenceAssessment {
	var reasons []string
	if ev.Features.H1Count == 0 {
		reasons = append(reasons, ReasonMissingH1)
	}
	if !ev.Features.HasPrimaryCTA {
		reasons = append(reasons, ReasonMissingCTA)
	}
	if ev.Features.VisibleChars < minVisibleChars {
		reasons = append(reasons, ReasonThinText)
	}
	switch {
	case len(ev.Screenshot) == 0:
		reasons = append(reasons, ReasonScreenshotFailed)
	case len(ev.Screenshot) < minScreenshotBytes:
		reasons = append(reasons, ReasonScreenshotBlank)
	}
	return models.LowConfidenceAssessment{Flagged: len(reasons) > 0, Reasons: reasons}
}

// EvaluatePdp applies the homepage rules plus the product-page rules:
// a PDP capture without a price or an add-to-cart control is flagged
// even when it validated at discovery time, because the signals may
// have decayed between validation and capture.
func EvaluatePdp(ev *browser.Evidence, signals models.PdpSignals) models.LowConfidenceAssessment {
	assessment := EvaluateHomepage(ev)
	if !signals.HasPrice {
		assessment.Reasons = append(assessment.Reasons, ReasonMissingPrice)
	}
	if !signals.HasAddToCart {
		assessment.Reasons = append(assessment.Reasons, ReasonMissingAddToCart)
	}
	assessment.Flagged = len(assessment.Reasons) > 0
	return assessment
}

// SessionFlagged rolls page assessments up to the session level: the
// session is low-confidence iff any captured page carries at least one
// reason.
func SessionFlagged(pages []models.PageResult) bool {
	for _, p := range pages {
		if len(p.Confidence.Reasons) > 0 {
			return true
		}
	}
	return false
}
