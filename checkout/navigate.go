package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

// cartPaths and checkoutPaths are the direct-URL fallbacks, tried in
// order when no semantic affordance works.
var cartPaths = []string{"/cart", "/basket", "/bag"}
var checkoutPaths = []string{"/checkout"}

// Navigator is the page-load dependency; the crawler's retry controller
// satisfies it.
type Navigator interface {
	Navigate(ctx context.Context, page browser.Page, url string) models.NavigationOutcome
}

// ToCart moves from the product page to the cart: first through a
// visible cart affordance (the path a real visitor takes), then by
// loading the conventional cart paths directly.
func (r *Runner) ToCart(ctx context.Context, page browser.Page, nav Navigator) (models.CheckoutStepStatus, []string) {
	var errs []string

	if err := r.clickThrough(ctx, page, cartAffordanceJS, isCartPath); err == nil {
		slog.Info("reached cart via affordance", "url", page.CurrentURL())
		return models.StepSuccess, nil
	} else {
		errs = append(errs, fmt.Sprintf("cart affordance: %v", err))
	}

	base, err := originOf(page.CurrentURL())
	if err != nil {
		return models.StepFailed, append(errs, err.Error())
	}
	for _, path := range cartPaths {
		out := nav.Navigate(ctx, page, base+path)
		if out.Success && onCartPage(page) {
			slog.Info("reached cart via direct path", "path", path)
			return models.StepSuccess, nil
		}
		errs = append(errs, fmt.Sprintf("direct %s: %s", path, summaryOr(out, "not a cart page")))
	}
	return models.StepFailed, errs
}

// ToCheckout moves from the cart to the checkout threshold. A detected
// blocker (login wall, region restriction, password gate, captcha)
// reports StepBlocked, not StepFailed. The flow stops at the checkout
// landing; nothing is ever typed into it.
func (r *Runner) ToCheckout(ctx context.Context, page browser.Page, nav Navigator) (models.CheckoutStepStatus, models.CheckoutBlocker, []string) {
	var errs []string

	if err := r.clickThrough(ctx, page, checkoutAffordanceJS, isCheckoutPath); err == nil {
		if blocker, found := DetectBlocker(page.CurrentURL(), page.VisibleText()); found {
			return models.StepBlocked, blocker, nil
		}
		slog.Info("reached checkout via affordance", "url", page.CurrentURL())
		return models.StepSuccess, "", nil
	} else {
		errs = append(errs, fmt.Sprintf("checkout affordance: %v", err))
	}

	base, err := originOf(page.CurrentURL())
	if err != nil {
		return models.StepFailed, "", append(errs, err.Error())
	}
	for _, path := range checkoutPaths {
		out := nav.Navigate(ctx, page, base+path)
		if blocker, found := DetectBlocker(page.CurrentURL(), page.VisibleText()); found {
			return models.StepBlocked, blocker, nil
		}
		if out.Success && onCheckoutPage(page) {
			slog.Info("reached checkout via direct path", "path", path)
			return models.StepSuccess, "", nil
		}
		errs = append(errs, fmt.Sprintf("direct %s: %s", path, summaryOr(out, "not a checkout page")))
	}
	return models.StepFailed, "", errs
}

// clickThrough clicks the best affordance the in-page scan finds and
// waits for the URL to move onto the expected path.
func (r *Runner) clickThrough(ctx context.Context, page browser.Page, scanJS string, onPath func(string) bool) error {
	res, err := page.Eval(scanJS)
	if err != nil {
		return err
	}
	if !boolResult(res) {
		return errors.New("no affordance found")
	}

	deadline := time.Now().Add(r.cfg.StepTimeout)
	for {
		if onPath(page.CurrentURL()) {
			page.WaitSettled(ctx)
			return nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return errors.New("affordance click did not navigate")
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// onCartPage verifies the loaded document is actually a cart: the path
// matches and the page shows line items or an order summary.
func onCartPage(page browser.Page) bool {
	if !isCartPath(page.CurrentURL()) {
		return false
	}
	res, err := page.Eval(cartPageMarkerJS)
	if err != nil {
		return false
	}
	return boolResult(res)
}

// onCheckoutPage verifies the checkout threshold: path plus a contact,
// shipping, or payment region.
func onCheckoutPage(page browser.Page) bool {
	if !isCheckoutPath(page.CurrentURL()) {
		return false
	}
	res, err := page.Eval(checkoutPageMarkerJS)
	if err != nil {
		return false
	}
	return boolResult(res)
}

func isCheckoutPath(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "/checkout") || strings.Contains(lower, "/checkouts/")
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot derive origin from %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func summaryOr(out models.NavigationOutcome, fallback string) string {
	if out.Summary != "" {
		return out.Summary
	}
	return fallback
}

const cartAffordanceJS = `() => {
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const s = getComputedStyle(el);
		return s.display !== "none" && s.visibility !== "hidden";
	};
	// Prefer explicit view-cart text, then cart-href links, then icons.
	for (const el of document.querySelectorAll("a, button")) {
		if (!visible(el)) continue;
		const txt = (el.innerText || "").trim().toLowerCase();
		if (txt === "view cart" || txt === "view bag" || txt === "go to cart" || txt === "view basket") {
			el.click();
			return true;
		}
	}
	for (const el of document.querySelectorAll('a[href*="/cart"], a[href*="/basket"], a[href*="/bag"]')) {
		if (visible(el)) { el.click(); return true; }
	}
	for (const el of document.querySelectorAll('[class*="cart-icon"], [data-cart-toggle], [aria-label*="cart" i]')) {
		if (visible(el)) { el.click(); return true; }
	}
	return false;
}`

const checkoutAffordanceJS = `() => {
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const s = getComputedStyle(el);
		return s.display !== "none" && s.visibility !== "hidden";
	};
	for (const el of document.querySelectorAll(
		'button[name="checkout"], [href*="/checkout"], [class*="checkout-button"], [data-checkout]')) {
		if (visible(el) && !el.disabled) { el.click(); return true; }
	}
	for (const el of document.querySelectorAll("a, button")) {
		if (!visible(el) || el.disabled) continue;
		const txt = (el.innerText || "").trim().toLowerCase();
		if (txt.startsWith("checkout") || txt.startsWith("check out") || txt.startsWith("proceed to checkout")) {
			el.click();
			return true;
		}
	}
	return false;
}`

const cartPageMarkerJS = `() => {
	if (document.querySelector(
		'[class*="cart-item"], [class*="cart__item"], [class*="line-item"], [class*="cart-line"], ' +
		'[class*="order-summary"], [class*="cart-total"], [class*="cart-empty"], [class*="empty-cart"]')) {
		return true;
	}
	const txt = (document.body ? document.body.innerText : "").toLowerCase();
	return txt.includes("your cart") || txt.includes("shopping cart") || txt.includes("subtotal");
}`

const checkoutPageMarkerJS = `() => {
	if (document.querySelector(
		'input[autocomplete="email"], input[autocomplete*="shipping"], input[name*="email"], ' +
		'[class*="payment"], [class*="shipping-address"], [data-step="contact_information"]')) {
		return true;
	}
	const txt = (document.body ? document.body.innerText : "").toLowerCase();
	return txt.includes("contact information") || txt.includes("shipping address") || txt.includes("payment method");
}`
