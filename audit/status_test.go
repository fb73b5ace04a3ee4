package audit

import (
	"testing"

	"github.com/shoplens/shoplens/models"
)

func page(pt models.PageType, vp models.Viewport, success bool, summary string) models.PageResult {
	return models.PageResult{
		Target:     models.CrawlTarget{URL: "https://x.com/", PageType: pt, Viewport: vp, Domain: "x.com"},
		Navigation: models.NavigationOutcome{Success: success, Summary: summary},
	}
}

func TestReduce(t *testing.T) {
	homeOK := page(models.PageHomepage, models.ViewportDesktop, true, "")
	homeMobOK := page(models.PageHomepage, models.ViewportMobile, true, "")
	homeFail := page(models.PageHomepage, models.ViewportDesktop, false, models.SummaryNavigationTimeout)
	homeMobFail := page(models.PageHomepage, models.ViewportMobile, false, models.SummaryBlockedStatus)
	pdpOK := page(models.PagePdp, models.ViewportDesktop, true, "")
	pdpMobOK := page(models.PagePdp, models.ViewportMobile, true, "")
	pdpMobFail := page(models.PagePdp, models.ViewportMobile, false, models.SummaryBotBlock)

	tests := []struct {
		name     string
		pages    []models.PageResult
		pdpFound bool
		status   models.SessionStatus
		summary  string
	}{
		{
			"all four succeed",
			[]models.PageResult{homeOK, homeMobOK, pdpOK, pdpMobOK}, true,
			models.SessionCompleted, "",
		},
		{
			"homepage ok, no pdp found",
			[]models.PageResult{homeOK, homeMobOK}, false,
			models.SessionPartial, models.SummaryPdpNotFound,
		},
		{
			"everything failed",
			[]models.PageResult{homeFail, homeMobFail}, false,
			models.SessionFailed, models.SummaryAllViewportsFailed,
		},
		{
			"one pdp viewport failed",
			[]models.PageResult{homeOK, homeMobOK, pdpOK, pdpMobFail}, true,
			models.SessionPartial, models.SummaryBotBlock,
		},
		{
			"one homepage viewport failed but pdp complete",
			[]models.PageResult{homeOK, homeMobFail, pdpOK, pdpMobOK}, true,
			models.SessionPartial, models.SummaryBlockedStatus,
		},
		{
			"homepage failed everywhere, no pdp",
			[]models.PageResult{homeFail, homeMobFail}, false,
			models.SessionFailed, models.SummaryAllViewportsFailed,
		},
		{
			"no pages at all",
			nil, false,
			models.SessionFailed, models.SummaryCrawlFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Reduce(tt.pages, tt.pdpFound)
			if out.Status != tt.status || out.Summary != tt.summary {
				t.Errorf("Reduce = (%v, %q), want (%v, %q)", out.Status, out.Summary, tt.status, tt.summary)
			}
		})
	}
}

func TestReduce_CartAndCheckoutDoNotMoveStatus(t *testing.T) {
	pages := []models.PageResult{
		page(models.PageHomepage, models.ViewportDesktop, true, ""),
		page(models.PageHomepage, models.ViewportMobile, true, ""),
		page(models.PagePdp, models.ViewportDesktop, true, ""),
		page(models.PagePdp, models.ViewportMobile, true, ""),
		page(models.PageCart, models.ViewportDesktop, false, models.SummaryCrawlFailed),
	}
	if out := Reduce(pages, true); out.Status != models.SessionCompleted {
		t.Errorf("cart failure moved status: %+v", out)
	}
}

func TestSessionFlagged(t *testing.T) {
	clean := models.PageResult{Confidence: models.LowConfidenceAssessment{}}
	flagged := models.PageResult{Confidence: models.LowConfidenceAssessment{
		Flagged: true, Reasons: []string{ReasonMissingH1},
	}}

	if SessionFlagged([]models.PageResult{clean, clean}) {
		t.Error("clean pages flagged the session")
	}
	if !SessionFlagged([]models.PageResult{clean, flagged}) {
		t.Error("flagged page did not flag the session")
	}
	if SessionFlagged(nil) {
		t.Error("empty session flagged")
	}
}
