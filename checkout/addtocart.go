package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

// addToCartSelector matches the primary add-to-cart control across the
// common storefront platforms.
const addToCartSelector = `button[name="add"], button[type="submit"][class*="add"], ` +
	`[data-add-to-cart], [data-action="add-to-cart"], #AddToCart, .add-to-cart, ` +
	`.product-form__submit, button.single_add_to_cart_button, #add-to-cart-button`

// errNotConfirmed marks a click that landed but produced no cart signal.
var errNotConfirmed = errors.New("no add-to-cart confirmation")

// errInlineError marks a storefront-reported add failure.
var errInlineError = errors.New("storefront rejected the add")

// AddToCart clicks the add-to-cart control and waits for confirmation.
// Three click strategies run in order: a plain trusted click, an
// in-page JS click (for controls behind decorative wrappers), and a
// forced click that clears a stale disabled attribute first. Success
// requires a positive confirmation signal; an inline error banner is a
// hard failure regardless of any other signal.
func (r *Runner) AddToCart(ctx context.Context, page browser.Page) (models.CheckoutStepStatus, []string) {
	before := cartBadgeCount(page)

	strategies := []Strategy{
		{Name: "plain-click", Run: func(ctx context.Context, p browser.Page) error {
			return r.clickAndConfirm(ctx, p, before, func() error {
				return p.Click(addToCartSelector)
			})
		}},
		{Name: "js-click", Run: func(ctx context.Context, p browser.Page) error {
			return r.clickAndConfirm(ctx, p, before, func() error {
				res, err := p.Eval(jsClickAddToCartJS)
				if err != nil {
					return err
				}
				if !boolResult(res) {
					return errors.New("no add-to-cart control found")
				}
				return nil
			})
		}},
		{Name: "forced-click", Run: func(ctx context.Context, p browser.Page) error {
			return r.clickAndConfirm(ctx, p, before, func() error {
				res, err := p.Eval(forcedClickAddToCartJS)
				if err != nil {
					return err
				}
				if !boolResult(res) {
					return errors.New("no add-to-cart control found")
				}
				return nil
			})
		}},
	}

	name, err := r.First(ctx, page, "add-to-cart", strategies)
	if err != nil {
		return models.StepFailed, []string{err.Error()}
	}
	slog.Info("added to cart", "strategy", name, "url", page.CurrentURL())
	return models.StepSuccess, nil
}

// clickAndConfirm runs the click and polls for a confirmation signal
// within the configured window.
func (r *Runner) clickAndConfirm(ctx context.Context, page browser.Page, beforeBadge int, click func() error) error {
	if err := click(); err != nil {
		return err
	}

	deadline := time.Now().Add(r.cfg.ConfirmWait)
	for {
		if msg := inlineCartError(page); msg != "" {
			return fmt.Errorf("%w: %s", errInlineError, msg)
		}
		if confirmed(page, beforeBadge) {
			return nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return errNotConfirmed
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// confirmed checks the positive signals: navigation to a cart path, a
// cart badge increase, a visible cart drawer or added-toast, or a
// view-cart affordance that was not there before.
func confirmed(page browser.Page, beforeBadge int) bool {
	if isCartPath(page.CurrentURL()) {
		return true
	}
	if cartBadgeCount(page) > beforeBadge {
		return true
	}
	res, err := page.Eval(cartSignalJS)
	if err != nil {
		return false
	}
	return boolResult(res)
}

// cartBadgeCount reads the numeric cart badge, 0 when absent.
func cartBadgeCount(page browser.Page) int {
	res, err := page.Eval(cartBadgeJS)
	if err != nil {
		return 0
	}
	return intResult(res)
}

// inlineCartError returns the text of a visible add-to-cart error
// banner, empty when none.
func inlineCartError(page browser.Page) string {
	res, err := page.Eval(inlineErrorJS)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stringResult(res))
}

// isCartPath reports whether url's path is a cart page.
func isCartPath(url string) bool {
	lower := strings.ToLower(url)
	for _, p := range []string{"/cart", "/basket", "/bag"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

const jsClickAddToCartJS = `() => {
	const el = document.querySelector('` + addToCartSelector + `');
	if (!el) return false;
	el.click();
	return true;
}`

const forcedClickAddToCartJS = `() => {
	const el = document.querySelector('` + addToCartSelector + `');
	if (!el) return false;
	el.removeAttribute("disabled");
	el.removeAttribute("aria-disabled");
	el.click();
	if (el.form && typeof el.form.requestSubmit === "function") {
		try { el.form.requestSubmit(el); } catch(e) {}
	}
	return true;
}`

const cartBadgeJS = `() => {
	const sel = '[class*="cart-count"], [class*="cart__count"], [data-cart-count], ' +
		'.cart-item-count, [class*="cart-badge"], [id*="cart-count"]';
	for (const el of document.querySelectorAll(sel)) {
		const n = parseInt((el.innerText || el.getAttribute("data-cart-count") || "").replace(/\D/g, ""), 10);
		if (!isNaN(n)) return n;
	}
	return 0;
}`

const cartSignalJS = `() => {
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const s = getComputedStyle(el);
		return s.display !== "none" && s.visibility !== "hidden";
	};
	const drawers = document.querySelectorAll(
		'[class*="cart-drawer"], [class*="mini-cart"], [class*="cart-popup"], #CartDrawer, [data-cart-drawer]');
	for (const d of drawers) if (visible(d)) return true;
	const toasts = document.querySelectorAll('[class*="toast"], [class*="notification"], [role="status"], [role="alert"]');
	for (const t of toasts) {
		if (!visible(t)) continue;
		const txt = (t.innerText || "").toLowerCase();
		if (txt.includes("added to") || txt.includes("in your cart") || txt.includes("added")) return true;
	}
	for (const a of document.querySelectorAll("a, button")) {
		if (!visible(a)) continue;
		const txt = (a.innerText || "").trim().toLowerCase();
		if (txt === "view cart" || txt === "view bag" || txt === "go to cart") return true;
	}
	return false;
}`

const inlineErrorJS = `() => {
	const sel = '[class*="product-form__error"], [class*="cart-error"], [class*="error-message"], ' +
		'.errors, [role="alert"]';
	for (const el of document.querySelectorAll(sel)) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		const txt = (el.innerText || "").trim().toLowerCase();
		if (!txt) continue;
		if (txt.includes("can't add") || txt.includes("cannot add") || txt.includes("sold out") ||
			txt.includes("out of stock") || txt.includes("unavailable") || txt.includes("error")) {
			return el.innerText.trim();
		}
	}
	return "";
}`
