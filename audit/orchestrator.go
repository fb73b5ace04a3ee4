package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/checkout"
	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/crawler"
	"github.com/shoplens/shoplens/lock"
	"github.com/shoplens/shoplens/models"
	"github.com/shoplens/shoplens/pdp"
	"github.com/shoplens/shoplens/popup"
)

// SessionProvider opens isolated browser sessions. The browser package's
// Provider satisfies it; tests inject fakes.
type SessionProvider interface {
	NewSession(ctx context.Context, viewport models.Viewport, preScripts []string) (browser.Page, error)
}

// viewports is the fixed crawl order: desktop first because PDP
// discovery and the checkout flow both run on the desktop session.
var viewports = []models.Viewport{models.ViewportDesktop, models.ViewportMobile}

// Orchestrator sequences one audit session end to end.
type Orchestrator struct {
	cfg       *config.Config
	provider  SessionProvider
	locker    *lock.Locker
	repo      Repository
	artifacts ArtifactWriter
	nav       *crawler.Navigator
	dismisser *popup.Dismisser
	extractor *pdp.Extractor
	validator *pdp.Validator
}

// New builds an Orchestrator.
func New(cfg *config.Config, provider SessionProvider, locker *lock.Locker, repo Repository, artifacts ArtifactWriter) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		provider:  provider,
		locker:    locker,
		repo:      repo,
		artifacts: artifacts,
		nav:       crawler.NewNavigator(cfg.Crawl),
		dismisser: popup.NewDismisser(cfg.Popup),
		extractor: pdp.NewExtractor(cfg.Pdp.CandidateCap),
		validator: pdp.NewValidator(),
	}
}

// RunSession audits one storefront: homepage on both viewports, PDP
// discovery and crawl, checkout flow, persistence, and the status
// rollup. A single page's failure never aborts the session; only a
// domain-lock timeout does, because crawling without the lock would
// break the per-domain serialization guarantee.
func (o *Orchestrator) RunSession(ctx context.Context, sessionID, rawURL string) error {
	target := models.NewCrawlTarget(rawURL, models.PageHomepage, models.ViewportDesktop)
	if target.Domain == "" {
		return models.NewCrawlError(models.ErrCodeInvalidInput, models.SummaryCrawlFailed,
			fmt.Errorf("cannot derive domain from %q", rawURL))
	}
	log := slog.With("session", sessionID, "domain", target.Domain)

	owner := uuid.NewString()
	if err := o.locker.Acquire(ctx, target.Domain, owner); err != nil {
		log.Error("domain lock not acquired, session aborted", "error", err)
		o.opLog(ctx, sessionID, "", "error", "lock_timeout", err.Error(), nil)
		_ = o.repo.UpdateSessionOutcome(ctx, sessionID,
			models.SessionOutcome{Status: models.SessionFailed, Summary: models.SummaryCrawlFailed}, false)
		return err
	}
	defer o.locker.Release(context.WithoutCancel(ctx), target.Domain, owner)
	if err := o.locker.Throttle(ctx, target.Domain); err != nil {
		log.Warn("throttle interrupted", "error", err)
	}

	firstVisit := true
	if prior, err := o.repo.HasPriorSessions(ctx, target.Domain); err == nil {
		firstVisit = !prior
	}
	storeHTML := firstVisit || o.cfg.Crawl.Debug || o.cfg.Crawl.EvidencePack
	log.Info("session started", "url", rawURL, "firstVisit", firstVisit, "storeHTML", storeHTML)

	// One session per viewport, held open across homepage and PDP.
	sessions := make(map[models.Viewport]browser.Page, len(viewports))
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	var results []models.PageResult
	var homepageHTML string

	for _, vp := range viewports {
		sess, err := o.provider.NewSession(ctx, vp, popup.PreConsentScripts())
		if err != nil {
			log.Error("session creation failed", "viewport", vp, "error", err)
			results = append(results, o.failedResult(ctx, sessionID, rawURL, models.PageHomepage, vp, models.SummaryCrawlFailed))
			continue
		}
		sessions[vp] = sess

		res, html := o.crawlPage(ctx, sessionID, sess, models.NewCrawlTarget(rawURL, models.PageHomepage, vp), storeHTML, nil)
		results = append(results, res)
		if vp == models.ViewportDesktop && res.Navigation.Success {
			homepageHTML = html
		}
	}

	pdpURL := ""
	var pdpSignals models.PdpSignals
	if homepageHTML != "" {
		pdpURL, pdpSignals = o.discoverPdp(ctx, sessionID, sessions[models.ViewportDesktop], homepageHTML, rawURL)
	}

	if pdpURL != "" {
		if err := o.repo.UpdateSessionPdpURL(ctx, sessionID, pdpURL); err != nil {
			log.Warn("pdp url persistence failed", "error", err)
		}

		for _, vp := range viewports {
			sess, ok := sessions[vp]
			if !ok {
				results = append(results, o.failedResult(ctx, sessionID, pdpURL, models.PagePdp, vp, models.SummaryCrawlFailed))
				continue
			}
			res, _ := o.crawlPage(ctx, sessionID, sess, models.NewCrawlTarget(pdpURL, models.PagePdp, vp), storeHTML, &pdpSignals)
			results = append(results, res)
		}

		if sess, ok := sessions[models.ViewportDesktop]; ok {
			o.runCheckout(ctx, sessionID, sess, pdpURL, storeHTML)
		}
	}

	outcome := Reduce(results, pdpURL != "")
	lowConfidence := SessionFlagged(results)
	if err := o.repo.UpdateSessionOutcome(ctx, sessionID, outcome, lowConfidence); err != nil {
		log.Error("session outcome persistence failed", "error", err)
	}
	// Count this session against the domain so the next one is no longer
	// a first visit.
	if err := o.repo.RecordSession(ctx, target.Domain); err != nil {
		log.Warn("session domain record failed", "error", err)
	}
	log.Info("session finished",
		"status", outcome.Status, "summary", outcome.Summary,
		"lowConfidence", lowConfidence, "pdpFound", pdpURL != "")
	return nil
}

// crawlPage runs the full per-page pipeline: navigate with retries,
// dismiss popups (pre-scroll and post-scroll passes), blocked-page
// fallback, capture, confidence evaluation, persistence. Returns the
// result and the captured HTML (empty on failure or when not retained
// in memory).
func (o *Orchestrator) crawlPage(ctx context.Context, sessionID string, sess browser.Page, target models.CrawlTarget, storeHTML bool, signals *models.PdpSignals) (models.PageResult, string) {
	start := time.Now()
	pageID, err := o.repo.CreatePage(ctx, PageRecord{
		SessionID: sessionID,
		PageType:  target.PageType,
		Viewport:  target.Viewport,
		URL:       target.URL,
		CrawledAt: start.UTC(),
	})
	if err != nil {
		slog.Warn("page record creation failed", "session", sessionID, "error", err)
	}

	nav := o.nav.Navigate(ctx, sess, target.URL)
	o.opLog(ctx, sessionID, pageID, "info", "navigation", "navigation finished", map[string]any{
		"url": target.URL, "viewport": target.Viewport, "status": nav.StatusCode,
		"success": nav.Success, "summary": nav.Summary, "mitigated": nav.BotBlockMitigated,
	})

	result := models.PageResult{
		Target:     target,
		Navigation: nav,
		CrawledAt:  start.UTC(),
	}
	if !nav.Success {
		result.DurationMs = time.Since(start).Milliseconds()
		o.updatePage(ctx, pageID, result)
		return result, ""
	}

	// Two dismissal passes with a scroll between them: lazy popups
	// trigger on scroll, and the scroll itself preloads lazy content for
	// the capture.
	events := o.dismisser.Run(sess)
	sess.ScrollThrough(ctx)
	events = append(events, o.dismisser.Run(sess)...)
	if o.dismisser.IsPageBlocked(sess) {
		events = append(events, o.dismisser.ScanBlocked(sess)...)
	}
	for _, e := range events {
		o.opLog(ctx, sessionID, pageID, "debug", "popup", string(e.Action), map[string]any{
			"selector": e.Selector, "result": e.Result, "attempt": e.Attempt,
		})
	}

	ev, err := browser.Capture(ctx, sess, storeHTML)
	if err != nil {
		o.opLog(ctx, sessionID, pageID, "error", "capture", err.Error(), nil)
		result.Navigation.Success = false
		result.Navigation.Summary = models.SummaryCrawlFailed
		result.DurationMs = time.Since(start).Milliseconds()
		o.updatePage(ctx, pageID, result)
		return result, ""
	}

	if target.PageType == models.PagePdp && signals != nil {
		result.Confidence = EvaluatePdp(ev, *signals)
	} else {
		result.Confidence = EvaluateHomepage(ev)
	}
	result.DurationMs = time.Since(start).Milliseconds()

	o.persistEvidence(ctx, sessionID, pageID, ev)
	o.updatePage(ctx, pageID, result)

	// Discovery reads the live DOM; the evidence bundle only keeps the
	// compressed copy.
	html, err := sess.HTML()
	if err != nil {
		html = ""
	}
	return result, html
}

// discoverPdp extracts candidates from the desktop homepage and
// validates them in order on the live desktop session. The first valid
// candidate wins; every check is op-logged with its signals.
func (o *Orchestrator) discoverPdp(ctx context.Context, sessionID string, sess browser.Page, homepageHTML, baseURL string) (string, models.PdpSignals) {
	candidates, err := o.extractor.ExtractCandidates(homepageHTML, baseURL)
	if err != nil {
		o.opLog(ctx, sessionID, "", "error", "pdp_discovery", err.Error(), nil)
		return "", models.PdpSignals{}
	}
	o.opLog(ctx, sessionID, "", "info", "pdp_discovery", "candidates extracted", map[string]any{
		"count": len(candidates),
	})
	if len(candidates) == 0 || sess == nil {
		return "", models.PdpSignals{}
	}

	checked := 0
	for _, cand := range candidates {
		if checked >= o.cfg.Pdp.MaxValidations {
			break
		}
		checked++

		nav := o.nav.Navigate(ctx, sess, cand.URL)
		if !nav.Success {
			o.opLog(ctx, sessionID, "", "debug", "pdp_check", "candidate load failed", map[string]any{
				"url": cand.URL, "summary": nav.Summary,
			})
			continue
		}
		o.dismisser.Run(sess)

		html, err := sess.HTML()
		if err != nil {
			continue
		}
		signals := o.validator.Validate(html, sess.VisibleText())
		o.opLog(ctx, sessionID, "", "debug", "pdp_check", "candidate validated", map[string]any{
			"url": cand.URL, "valid": signals.Valid(), "reasons": signals.Reasons(),
		})
		if signals.Valid() {
			return cand.URL, signals
		}
	}
	return "", models.PdpSignals{}
}

// runCheckout drives the purchase path on the desktop session, which
// discoverPdp left on a page of the same site. Cart and checkout
// evidence is captured through the flow hook; the step results land in
// the op-log and as page records.
func (o *Orchestrator) runCheckout(ctx context.Context, sessionID string, sess browser.Page, pdpURL string, storeHTML bool) {
	// The validation loop may have moved past the chosen PDP.
	if sess.CurrentURL() != pdpURL {
		if nav := o.nav.Navigate(ctx, sess, pdpURL); !nav.Success {
			o.opLog(ctx, sessionID, "", "warn", "checkout", "could not return to pdp", map[string]any{
				"url": pdpURL, "summary": nav.Summary,
			})
			return
		}
		o.dismisser.Run(sess)
	}

	hook := func(step models.PageType, page browser.Page) {
		res, _ := o.capturedStep(ctx, sessionID, page, step, storeHTML)
		o.opLog(ctx, sessionID, "", "info", "checkout_step", "step captured", map[string]any{
			"step": step, "flagged": res.Confidence.Flagged,
		})
	}
	flow := checkout.NewFlow(o.cfg.Checkout, o.nav, hook)
	result := flow.Run(ctx, sess)

	o.opLog(ctx, sessionID, "", "info", "checkout", "flow finished", map[string]any{
		"variants": result.VariantSelection,
		"addToCart": result.AddToCart,
		"cart": result.CartNavigation,
		"checkout": result.CheckoutNavigation,
		"blocker": result.Blocker,
		"reached": result.Reached(),
		"errors": result.Errors,
	})
}

// capturedStep records a cart/checkout page reached by the flow.
func (o *Orchestrator) capturedStep(ctx context.Context, sessionID string, sess browser.Page, pt models.PageType, storeHTML bool) (models.PageResult, error) {
	start := time.Now()
	target := models.NewCrawlTarget(sess.CurrentURL(), pt, sess.Viewport())
	pageID, err := o.repo.CreatePage(ctx, PageRecord{
		SessionID: sessionID,
		PageType:  pt,
		Viewport:  target.Viewport,
		URL:       target.URL,
		CrawledAt: start.UTC(),
	})
	if err != nil {
		return models.PageResult{}, err
	}

	result := models.PageResult{
		Target:     target,
		Navigation: models.NavigationOutcome{Success: true},
		CrawledAt:  start.UTC(),
	}
	ev, err := browser.Capture(ctx, sess, storeHTML)
	if err != nil {
		o.opLog(ctx, sessionID, pageID, "error", "capture", err.Error(), nil)
		result.Navigation.Success = false
		result.Navigation.Summary = models.SummaryCrawlFailed
	} else {
		result.Confidence = EvaluateHomepage(ev)
		o.persistEvidence(ctx, sessionID, pageID, ev)
	}
	result.DurationMs = time.Since(start).Milliseconds()
	o.updatePage(ctx, pageID, result)
	return result, err
}

// persistEvidence writes the artifact bundle and records each artifact.
// Individual artifact failures are logged and skipped.
func (o *Orchestrator) persistEvidence(ctx context.Context, sessionID, pageID string, ev *browser.Evidence) {
	write := func(kind ArtifactKind, data []byte) {
		if len(data) == 0 {
			return
		}
		ref, err := o.artifacts.Write(ctx, sessionID, pageID, kind, data)
		if err != nil {
			slog.Warn("artifact write failed", "session", sessionID, "page", pageID, "kind", kind, "error", err)
			return
		}
		if err := o.repo.CreateArtifact(ctx, ArtifactRecord{
			SessionID: sessionID,
			PageID:    pageID,
			Kind:      kind,
			URI:       ref.URI,
			Size:      ref.Size,
			Checksum:  ref.Checksum,
		}); err != nil {
			slog.Warn("artifact record failed", "session", sessionID, "page", pageID, "kind", kind, "error", err)
		}
	}

	write(ArtifactScreenshot, ev.Screenshot)
	write(ArtifactVisibleText, []byte(ev.VisibleText))
	write(ArtifactFeatures, ev.FeaturesJSON)
	write(ArtifactHTML, ev.HTMLGzip)
}

// updatePage writes the final page row; repository errors are logged,
// never propagated.
func (o *Orchestrator) updatePage(ctx context.Context, pageID string, result models.PageResult) {
	if pageID == "" {
		return
	}
	if err := o.repo.UpdatePage(ctx, pageID, PageUpdate{
		Success:    result.Navigation.Success,
		StatusCode: result.Navigation.StatusCode,
		Summary:    result.Navigation.Summary,
		Reasons:    result.Confidence.Reasons,
		DurationMs: result.DurationMs,
	}); err != nil {
		slog.Warn("page update failed", "page", pageID, "error", err)
	}
}

// failedResult records a page that never got a session, so the reducer
// and the repository still see it.
func (o *Orchestrator) failedResult(ctx context.Context, sessionID, url string, pt models.PageType, vp models.Viewport, summary string) models.PageResult {
	result := models.PageResult{
		Target:     models.NewCrawlTarget(url, pt, vp),
		Navigation: models.NavigationOutcome{Summary: summary},
		CrawledAt:  time.Now().UTC(),
	}
	pageID, err := o.repo.CreatePage(ctx, PageRecord{
		SessionID: sessionID,
		PageType:  pt,
		Viewport:  vp,
		URL:       url,
		Summary:   summary,
		CrawledAt: result.CrawledAt,
	})
	if err == nil {
		o.updatePage(ctx, pageID, result)
	}
	return result
}

// opLog mirrors an operational event to the repository log and slog.
func (o *Orchestrator) opLog(ctx context.Context, sessionID, pageID, level, eventType, message string, details map[string]any) {
	if err := o.repo.CreateLog(ctx, LogEntry{
		SessionID: sessionID,
		PageID:    pageID,
		Level:     level,
		EventType: eventType,
		Message:   message,
		Details:   details,
		At:        time.Now().UTC(),
	}); err != nil {
		slog.Debug("op-log write failed", "session", sessionID, "event", eventType, "error", err)
	}
}
