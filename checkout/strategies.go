// Package checkout automates the storefront purchase path on a product
// page: variant selection, add-to-cart, cart, and the checkout
// threshold. Nothing past the checkout landing is ever touched; no
// visitor data is entered anywhere.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/config"
)

// Strategy is one way to accomplish a step. Strategies run in order and
// the first success wins; later strategies are never tried.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, page browser.Page) error
}

// errNoStrategy marks a step where every strategy failed.
var errNoStrategy = errors.New("all strategies failed")

// Runner executes strategy lists with per-step timeouts.
type Runner struct {
	cfg config.CheckoutConfig
}

// NewRunner builds a Runner.
func NewRunner(cfg config.CheckoutConfig) *Runner {
	return &Runner{cfg: cfg}
}

// First runs strategies in order until one succeeds and returns its
// name. When all fail, the returned error wraps errNoStrategy and
// carries every per-strategy failure for the log.
func (r *Runner) First(ctx context.Context, page browser.Page, step string, strategies []Strategy) (string, error) {
	stepCtx, cancel := context.WithTimeout(ctx, r.cfg.StepTimeout)
	defer cancel()

	var failures []error
	for _, s := range strategies {
		if stepCtx.Err() != nil {
			failures = append(failures, stepCtx.Err())
			break
		}
		start := time.Now()
		err := s.Run(stepCtx, page)
		if err == nil {
			slog.Debug("strategy succeeded",
				"step", step, "strategy", s.Name, "elapsed", time.Since(start).Round(time.Millisecond))
			return s.Name, nil
		}
		slog.Debug("strategy failed", "step", step, "strategy", s.Name, "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", s.Name, err))
	}
	return "", fmt.Errorf("%s: %w: %w", step, errNoStrategy, errors.Join(failures...))
}
