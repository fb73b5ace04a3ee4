// Package crawler drives page navigation: the retry state machine
// around each load, status classification, and the single bot-block
// reload mitigation.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// maxBackoffShift caps the exponential backoff at the third rung, so
// the ladder is base, 2×base, 4×base regardless of the attempt budget.
const maxBackoffShift = 2

// Navigator runs the per-page retry state machine. Safe for concurrent
// use; all state is per-call.
type Navigator struct {
	cfg config.CrawlConfig

	// Seams for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(cap time.Duration) time.Duration
}

// NewNavigator builds a Navigator with real timers.
func NewNavigator(cfg config.CrawlConfig) *Navigator {
	return &Navigator{
		cfg:   cfg,
		sleep: sleepCtx,
		jitter: func(cap time.Duration) time.Duration {
			if cap <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(cap)))
		},
	}
}

// Navigate loads url on page with retries and classification. The
// returned outcome always carries either Success or a user-safe Summary;
// raw error text stays in the log. The whole call, backoff sleeps
// included, is bounded by the hard wall-clock budget.
func (n *Navigator) Navigate(ctx context.Context, page browser.Page, url string) models.NavigationOutcome {
	budgetCtx, cancel := context.WithTimeout(ctx, n.cfg.HardBudget)
	defer cancel()

	var last models.NavigationOutcome
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		status, err := page.Load(budgetCtx, url)
		outcome, retryable := n.classify(status, err)

		slog.Info("navigation attempt",
			"url", url,
			"viewport", page.Viewport(),
			"attempt", attempt,
			"status", status,
			"success", outcome.Success,
			"summary", outcome.Summary,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		if err != nil {
			slog.Debug("navigation error detail", "url", url, "attempt", attempt, "error", err)
		}

		if outcome.Success {
			page.WaitSettled(budgetCtx)
			return n.checkBotBlock(budgetCtx, page, outcome)
		}

		last = outcome
		if !retryable || attempt == n.cfg.MaxAttempts {
			break
		}

		backoff := n.backoffFor(attempt)
		if err := n.sleep(budgetCtx, backoff); err != nil {
			// Hard budget exhausted mid-backoff.
			return models.NavigationOutcome{Summary: models.SummaryNavigationTimeout}
		}
	}
	return last
}

// classify maps a load result to an outcome plus whether it may be
// retried. Status 0 with no error (performance API unavailable) is
// treated as success.
func (n *Navigator) classify(status int, err error) (models.NavigationOutcome, bool) {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.NavigationOutcome{Summary: models.SummaryNavigationTimeout}, true
		}
		if errors.Is(err, context.Canceled) {
			return models.NavigationOutcome{Summary: models.SummaryNavigationTimeout}, false
		}
		// Transport-level failure (DNS, reset, TLS).
		return models.NavigationOutcome{Summary: models.SummaryCrawlFailed}, true
	}

	switch {
	case status == 429:
		return models.NavigationOutcome{StatusCode: status, Summary: models.SummaryRateLimited}, true
	case status == 403 || status == 503:
		return models.NavigationOutcome{StatusCode: status, Summary: models.SummaryBlockedStatus}, true
	case status >= 400:
		return models.NavigationOutcome{StatusCode: status, Summary: models.SummaryCrawlFailed}, false
	default:
		return models.NavigationOutcome{Success: true, StatusCode: status}, false
	}
}

// checkBotBlock scans the settled page for an anti-bot interstitial and
// runs the single cooldown+reload mitigation when one is found.
func (n *Navigator) checkBotBlock(ctx context.Context, page browser.Page, outcome models.NavigationOutcome) models.NavigationOutcome {
	if !IsBotBlocked(page.Title(), page.VisibleText()) {
		return outcome
	}

	slog.Warn("bot-block interstitial detected, reloading after cooldown",
		"url", page.CurrentURL(), "cooldown", n.cfg.BotBlockCooldown)
	if err := n.sleep(ctx, n.cfg.BotBlockCooldown); err != nil {
		return models.NavigationOutcome{StatusCode: outcome.StatusCode, Summary: models.SummaryBotBlock}
	}

	status, err := page.Reload(ctx)
	if err != nil {
		slog.Warn("bot-block reload failed", "url", page.CurrentURL(), "error", err)
		return models.NavigationOutcome{
			StatusCode:        outcome.StatusCode,
			Summary:           models.SummaryBotBlockReload,
			BotBlockMitigated: true,
		}
	}
	page.WaitSettled(ctx)

	if IsBotBlocked(page.Title(), page.VisibleText()) {
		return models.NavigationOutcome{
			StatusCode:        status,
			Summary:           models.SummaryBotBlock,
			BotBlockMitigated: true,
		}
	}
	return models.NavigationOutcome{
		Success:           true,
		StatusCode:        status,
		BotBlockMitigated: true,
	}
}

// backoffFor computes the sleep before the next attempt: exponential
// from the base, clamped at the third rung, plus bounded jitter.
func (n *Navigator) backoffFor(attempt int) time.Duration {
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return n.cfg.BackoffBase<<shift + n.jitter(n.cfg.JitterCap)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
