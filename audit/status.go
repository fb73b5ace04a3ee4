package audit

import "github.com/shoplens/shoplens/models"

// Reduce computes the session outcome from the targeted page loads.
// In scope are the homepage loads (both viewports) and, when a PDP was
// identified, its loads; cart and checkout captures never move the
// status. Rules:
//
//   - completed: every in-scope load succeeded and a PDP was found.
//   - failed: no in-scope load succeeded, or no PDP was found and the
//     homepage itself failed on every viewport.
//   - partial: everything else. No PDP behind a working homepage
//     reports "PDP not found"; otherwise the summary comes from the
//     first failed load.
func Reduce(pages []models.PageResult, pdpFound bool) models.SessionOutcome {
	var inScope []models.PageResult
	for _, p := range pages {
		switch p.Target.PageType {
		case models.PageHomepage:
			inScope = append(inScope, p)
		case models.PagePdp:
			if pdpFound {
				inScope = append(inScope, p)
			}
		}
	}
	if len(inScope) == 0 {
		return models.SessionOutcome{Status: models.SessionFailed, Summary: models.SummaryCrawlFailed}
	}

	successes := 0
	homepageOK := false
	firstFailure := ""
	for _, p := range inScope {
		if p.Navigation.Success {
			successes++
			if p.Target.PageType == models.PageHomepage {
				homepageOK = true
			}
		} else if firstFailure == "" {
			firstFailure = p.Navigation.Summary
		}
	}

	switch {
	case successes == len(inScope) && pdpFound:
		return models.SessionOutcome{Status: models.SessionCompleted}
	case successes == 0:
		return models.SessionOutcome{Status: models.SessionFailed, Summary: models.SummaryAllViewportsFailed}
	case !pdpFound && !homepageOK:
		return models.SessionOutcome{Status: models.SessionFailed, Summary: models.SummaryAllViewportsFailed}
	case !pdpFound:
		return models.SessionOutcome{Status: models.SessionPartial, Summary: models.SummaryPdpNotFound}
	default:
		return models.SessionOutcome{Status: models.SessionPartial, Summary: firstFailure}
	}
}
