package checkout

import (
	"context"
	"log/slog"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// StepHook is called after each step that leaves the page in a new
// meaningful state, so the caller can capture evidence. Hook failures
// are the caller's problem; the flow never sees them.
type StepHook func(step models.PageType, page browser.Page)

// Flow drives the full purchase path from a validated product page.
type Flow struct {
	runner *Runner
	nav    Navigator
	hook   StepHook
}

// NewFlow builds a Flow. hook may be nil.
func NewFlow(cfg config.CheckoutConfig, nav Navigator, hook StepHook) *Flow {
	if hook == nil {
		hook = func(models.PageType, browser.Page) {}
	}
	return &Flow{runner: NewRunner(cfg), nav: nav, hook: hook}
}

// Run executes the sequence on a page already sitting on a validated
// product page: variants → add-to-cart → cart → checkout. A failed or
// blocked step halts the flow; the steps after it stay skipped, and the
// partial result is always returned — a blocked checkout with a good
// cart capture is a useful audit, not an error.
func (f *Flow) Run(ctx context.Context, page browser.Page) *models.CheckoutFlowResult {
	result := models.NewCheckoutFlowResult()

	// A product page can be blocked outright (sold out, region gate)
	// before any interaction.
	if blocker, found := DetectBlocker(page.CurrentURL(), page.VisibleText()); found && blocker == models.BlockerOutOfStock {
		result.VariantSelection = models.StepBlocked
		result.Blocker = blocker
		slog.Info("checkout flow stopped before variant selection", "blocker", blocker)
		return result
	}

	status, errs := SelectVariants(page)
	result.VariantSelection = status
	for _, e := range errs {
		result.AddError(e)
	}
	if status != models.StepSuccess {
		slog.Warn("variant selection failed, halting flow", "errors", errs)
		return result
	}

	status, errs = f.runner.AddToCart(ctx, page)
	result.AddToCart = status
	for _, e := range errs {
		result.AddError(e)
	}
	if status != models.StepSuccess {
		slog.Warn("add-to-cart failed, halting flow", "errors", errs)
		return result
	}
	// The confirmed add-to-cart state (open drawer, toast, badge) is
	// evidence in its own right, before navigation replaces it.
	f.hook(models.PagePdp, page)

	status, errs = f.runner.ToCart(ctx, page, f.nav)
	result.CartNavigation = status
	for _, e := range errs {
		result.AddError(e)
	}
	if status != models.StepSuccess {
		slog.Warn("cart navigation failed, halting flow", "errors", errs)
		return result
	}
	f.hook(models.PageCart, page)

	status, blocker, errs := f.runner.ToCheckout(ctx, page, f.nav)
	result.CheckoutNavigation = status
	result.Blocker = blocker
	for _, e := range errs {
		result.AddError(e)
	}
	if status == models.StepSuccess {
		f.hook(models.PageCheckout, page)
	}

	slog.Info("checkout flow finished",
		"variants", result.VariantSelection,
		"addToCart", result.AddToCart,
		"cart", result.CartNavigation,
		"checkout", result.CheckoutNavigation,
		"blocker", result.Blocker,
		"reached", result.Reached(),
	)
	return result
}
