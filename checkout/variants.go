package checkout

import (
	"fmt"
	"log/slog"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

// variantReport is what the in-page selection script returns.
type variantReport struct {
	groups       int
	selected     int
	failedGroups []string
}

// SelectVariants picks one purchasable option per variant group on the
// product page: dropdowns get their first enabled non-placeholder
// option, radio and swatch groups get their first enabled, non-sold-out
// member clicked. A page with no variant groups is a success (simple
// product). A required group where nothing is selectable fails the
// step, because add-to-cart would silently add the wrong product or
// nothing at all.
func SelectVariants(page browser.Page) (models.CheckoutStepStatus, []string) {
	res, err := page.Eval(selectVariantsJS)
	if err != nil {
		return models.StepFailed, []string{fmt.Sprintf("variant scan: %v", err)}
	}

	report := variantReport{
		groups:       intResult(res.Get("groups")),
		selected:     intResult(res.Get("selected")),
		failedGroups: stringResults(res.Get("failedGroups")),
	}
	slog.Debug("variant selection",
		"groups", report.groups, "selected", report.selected, "failed", report.failedGroups)

	if len(report.failedGroups) > 0 {
		errs := make([]string, 0, len(report.failedGroups))
		for _, g := range report.failedGroups {
			errs = append(errs, fmt.Sprintf("variant group %q has no selectable option", g))
		}
		return models.StepFailed, errs
	}
	return models.StepSuccess, nil
}

// selectVariantsJS walks the product form's variant groups and selects
// one purchasable option in each. Options are skipped when disabled,
// marked sold out, or placeholder-like ("choose...", "select...").
const selectVariantsJS = `() => {
	const soldOut = (el) => {
		if (el.disabled || el.getAttribute("aria-disabled") === "true") return true;
		const cls = (el.className && typeof el.className === "string") ? el.className.toLowerCase() : "";
		const txt = (el.innerText || el.textContent || "").toLowerCase();
		return cls.includes("sold-out") || cls.includes("soldout") || cls.includes("unavailable") ||
			cls.includes("disabled") || txt.includes("sold out") || txt.includes("unavailable");
	};
	const placeholder = (opt) => {
		const t = (opt.textContent || "").trim().toLowerCase();
		return opt.value === "" || t.startsWith("choose") || t.startsWith("select") || t.startsWith("pick");
	};

	const scope = document.querySelector(
		'form[action*="/cart"], form[class*="product"], [class*="product-form"], [class*="product__info"], main'
	) || document;

	let groups = 0, selected = 0;
	const failedGroups = [];

	// Dropdown groups.
	for (const sel of scope.querySelectorAll("select")) {
		const name = (sel.name || sel.id || "select").toLowerCase();
		if (name.includes("quantity") || name.includes("qty")) continue;
		groups++;
		let done = false;
		for (const opt of sel.options) {
			if (opt.disabled || placeholder(opt) || soldOut(opt)) continue;
			sel.value = opt.value;
			sel.dispatchEvent(new Event("change", {bubbles: true}));
			done = true;
			break;
		}
		if (done) selected++; else failedGroups.push(sel.name || sel.id || "select");
	}

	// Radio groups (Shopify-style swatches render as radios with labels).
	const radios = scope.querySelectorAll('input[type="radio"]');
	const byName = {};
	for (const r of radios) {
		const n = r.name || "radio";
		(byName[n] = byName[n] || []).push(r);
	}
	for (const [name, group] of Object.entries(byName)) {
		groups++;
		let done = false;
		for (const r of group) {
			const label = r.id ? document.querySelector('label[for="' + CSS.escape(r.id) + '"]') : null;
			if (soldOut(r) || (label && soldOut(label))) continue;
			(label || r).click();
			r.checked = true;
			r.dispatchEvent(new Event("change", {bubbles: true}));
			done = true;
			break;
		}
		if (done) selected++; else failedGroups.push(name);
	}

	// Button swatches: groups of non-radio option buttons.
	for (const grp of scope.querySelectorAll('[class*="swatch"], [class*="variant-option"], [data-option-index]')) {
		const buttons = grp.querySelectorAll("button, [role='button']");
		if (buttons.length < 2) continue;
		groups++;
		let done = false;
		for (const b of buttons) {
			if (soldOut(b)) continue;
			b.click();
			done = true;
			break;
		}
		if (done) selected++; else failedGroups.push(grp.getAttribute("data-option-index") || "swatch");
	}

	return {groups, selected, failedGroups};
}`
