package audit

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

func goodEvidence() *browser.Evidence {
	return &browser.Evidence{
		Screenshot: bytes.Repeat([]byte{1}, minScreenshotBytes),
		Features: browser.PageFeatures{
			H1Count:       1,
			HasPrimaryCTA: true,
			VisibleChars:  minVisibleChars,
		},
	}
}

func TestEvaluateHomepage(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*browser.Evidence)
		reasons []string
	}{
		{"clean capture", func(*browser.Evidence) {}, nil},
		{"missing h1", func(ev *browser.Evidence) { ev.Features.H1Count = 0 }, []string{ReasonMissingH1}},
		{"missing cta", func(ev *browser.Evidence) { ev.Features.HasPrimaryCTA = false }, []string{ReasonMissingCTA}},
		{"thin text", func(ev *browser.Evidence) { ev.Features.VisibleChars = minVisibleChars - 1 }, []string{ReasonThinText}},
		{"screenshot failed", func(ev *browser.Evidence) { ev.Screenshot = nil }, []string{ReasonScreenshotFailed}},
		{"screenshot blank", func(ev *browser.Evidence) { ev.Screenshot = []byte{1, 2, 3} }, []string{ReasonScreenshotBlank}},
		{
			"multiple reasons accumulate",
			func(ev *browser.Evidence) {
				ev.Features.H1Count = 0
				ev.Screenshot = nil
			},
			[]string{ReasonMissingH1, ReasonScreenshotFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := goodEvidence()
			tt.mutate(ev)
			got := EvaluateHomepage(ev)
			if !reflect.DeepEqual(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
			if got.Flagged != (len(tt.reasons) > 0) {
				t.Errorf("Flagged = %v with reasons %v", got.Flagged, got.Reasons)
			}
		})
	}
}

func TestEvaluatePdp_AddsProductRules(t *testing.T) {
	ev := goodEvidence()
	got := EvaluatePdp(ev, models.PdpSignals{HasPrice: false, HasAddToCart: false})
	want := []string{ReasonMissingPrice, ReasonMissingAddToCart}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, want)
	}
	if !got.Flagged {
		t.Error("PDP with missing price not flagged")
	}

	clean := EvaluatePdp(ev, models.PdpSignals{HasPrice: true, HasAddToCart: true})
	if clean.Flagged || clean.Reasons != nil {
		t.Errorf("clean PDP flagged: %v", clean.Reasons)
	}
}
