package popup

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// Dismisser clears overlays from a loaded page. One instance is safe
// for concurrent use; all state lives in the per-call pass.
type Dismisser struct {
	cfg config.PopupConfig
}

// NewDismisser builds a Dismisser.
func NewDismisser(cfg config.PopupConfig) *Dismisser {
	return &Dismisser{cfg: cfg}
}

// Run performs up to cfg.MaxRounds dismissal rounds against page. Each
// round: unlock scrolling, click at most one safe dismiss control,
// remove known vendor containers, remove covering high-z overlays no
// selector knows, and re-unlock. The loop stops early when a round
// changes nothing. Every action is recorded as a PopupEvent; failures
// are logged and never abort the pass.
func (d *Dismisser) Run(page browser.Page) []models.PopupEvent {
	var events []models.PopupEvent
	url := page.CurrentURL()

	for round := 1; round <= d.cfg.MaxRounds; round++ {
		acted := false

		if d.unlockScroll(page) {
			events = append(events, event(models.PopupActionUnlock, "html,body", models.PopupSuccess, round, url))
		}

		if label, selector, ok := d.clickSafeDismiss(page); ok {
			acted = true
			events = append(events, event(models.PopupActionClick, selector, models.PopupSuccess, round, url))
			slog.Debug("dismissed popup by click", "label", label, "selector", selector, "round", round)
			// Give the dialog's close animation a beat before rescanning.
			time.Sleep(300 * time.Millisecond)
		}

		if removed := d.removeVendorContainers(page); len(removed) > 0 {
			acted = true
			for _, sel := range removed {
				events = append(events, event(models.PopupActionRemove, sel, models.PopupSuccess, round, url))
			}
			slog.Debug("removed vendor containers", "selectors", removed, "round", round)
		}

		if removed := d.removeOverlayHeuristic(page); len(removed) > 0 {
			acted = true
			for _, sel := range removed {
				events = append(events, event(models.PopupActionRemove, sel, models.PopupSuccess, round, url))
			}
			slog.Debug("removed overlays by geometry", "selectors", removed, "round", round)
		}

		// Clicked handlers and removed containers both leave scroll locks
		// behind; always re-unlock before deciding whether to go again.
		d.unlockScroll(page)

		if !acted {
			break
		}
	}
	slog.Debug("popup pass complete", "url", url, "actions", describeEvents(events))
	return events
}

// unlockScroll clears overflow locks on the root elements, in the main
// document and in frames. Returns true when a lock was cleared.
func (d *Dismisser) unlockScroll(page browser.Page) bool {
	res, err := page.Eval(unlockScrollJS)
	page.EvalOnFrames(unlockScrollJS)
	if err != nil {
		slog.Debug("scroll unlock failed", "error", err)
		return false
	}
	return boolResult(res)
}

// clickSafeDismiss finds the single best safe dismiss control and
// clicks it in-page. Only labels passing the safe vocabulary (checked
// both in JS and re-checked here) are touched.
func (d *Dismisser) clickSafeDismiss(page browser.Page) (label, selector string, ok bool) {
	res, err := page.Eval(clickDismissJS())
	if err != nil {
		slog.Debug("dismiss click scan failed", "error", err)
		return "", "", false
	}
	if !boolResult(res.Get("clicked")) {
		return "", "", false
	}
	label = stringResult(res.Get("label"))
	selector = stringResult(res.Get("selector"))
	if !IsSafeDismissLabel(label) {
		// The in-page scan clicked something our vocabulary rejects;
		// record it so the evidence explains any state change.
		slog.Warn("in-page dismiss clicked an off-vocabulary label", "label", label)
	}
	return label, selector, true
}

// removeVendorContainers deletes known consent/popup roots from the DOM
// and reports which selectors matched.
func (d *Dismisser) removeVendorContainers(page browser.Page) []string {
	res, err := page.Eval(removeContainersJS())
	if err != nil {
		slog.Debug("vendor container removal failed", "error", err)
		return nil
	}
	removed := stringResults(res)
	page.EvalOnFrames(removeContainersJS())
	return removed
}

// removeOverlayHeuristic deletes overlays no vendor selector matches:
// fixed or sticky, above the z-index floor, covering at least the
// configured viewport fraction. This is what catches a generic
// newsletter modal that carries no safe-labeled close control.
func (d *Dismisser) removeOverlayHeuristic(page browser.Page) []string {
	js := removeOverlaysJS(d.cfg.OverlayCoverage, d.cfg.MinZIndex)
	res, err := page.Eval(js)
	if err != nil {
		slog.Debug("overlay geometry removal failed", "error", err)
		return nil
	}
	page.EvalOnFrames(js)
	return stringResults(res)
}

func event(action models.PopupAction, selector string, result models.PopupResult, attempt int, url string) models.PopupEvent {
	return models.PopupEvent{
		Selector:   selector,
		Action:     action,
		Result:     result,
		Attempt:    attempt,
		Timestamp:  time.Now().UTC(),
		CurrentURL: url,
	}
}

// unlockScrollJS clears overflow/position locks that vendors put on the
// root elements. Returns true when any lock was actually cleared.
const unlockScrollJS = `() => {
	let cleared = false;
	for (const el of [document.documentElement, document.body]) {
		if (!el) continue;
		const style = getComputedStyle(el);
		if (style.overflow === "hidden" || style.overflowY === "hidden" || style.position === "fixed") {
			el.style.setProperty("overflow", "auto", "important");
			el.style.setProperty("overflow-y", "auto", "important");
			if (style.position === "fixed") el.style.setProperty("position", "static", "important");
			cleared = true;
		}
		for (const cls of ["no-scroll", "noscroll", "overflow-hidden", "modal-open", "popup-open"]) {
			if (el.classList.contains(cls)) { el.classList.remove(cls); cleared = true; }
		}
	}
	return cleared;
}`

// clickDismissJS scans visible dialog-like regions for a control whose
// label is in the safe vocabulary (and free of risky fragments) and
// clicks the first match. Controls outside dialogs are ignored so a
// legitimate page button named "OK" is never touched.
func clickDismissJS() string {
	return fmt.Sprintf(`() => {
		const safe = %s;
		const risky = %s;
		const isSafe = (label) => {
			const t = label.trim().toLowerCase();
			if (!t || t.length > 40) return false;
			if (risky.some(r => t.includes(r))) return false;
			return safe.some(s => t.includes(s));
		};
		const visible = (el) => {
			const r = el.getBoundingClientRect();
			if (r.width === 0 || r.height === 0) return false;
			const s = getComputedStyle(el);
			return s.visibility !== "hidden" && s.display !== "none" && s.opacity !== "0";
		};
		const dialogSelector = '[role="dialog"], [role="alertdialog"], [aria-modal="true"], ' +
			'[class*="cookie"], [class*="consent"], [class*="popup"], [class*="modal"], ' +
			'[id*="cookie"], [id*="consent"], [id*="popup"], [id*="modal"]';
		for (const dialog of document.querySelectorAll(dialogSelector)) {
			if (!visible(dialog)) continue;
			const controls = dialog.querySelectorAll('button, a, [role="button"], input[type="button"]');
			for (const c of controls) {
				if (!visible(c)) continue;
				const label = c.innerText || c.value || c.getAttribute("aria-label") || "";
				if (isSafe(label)) {
					c.click();
					const sel = c.id ? "#" + c.id
						: c.className && typeof c.className === "string"
							? c.tagName.toLowerCase() + "." + c.className.trim().split(/\s+/)[0]
							: c.tagName.toLowerCase();
					return {clicked: true, label: label.trim(), selector: sel};
				}
			}
		}
		return {clicked: false};
	}`, jsStringArray(safeDismissKeywords), jsStringArray(riskyKeywords))
}

// removeContainersJS deletes known vendor roots and returns the
// selectors that matched.
func removeContainersJS() string {
	return fmt.Sprintf(`() => {
		const selectors = %s;
		const removed = [];
		for (const sel of selectors) {
			let matched = false;
			try {
				for (const el of document.querySelectorAll(sel)) { el.remove(); matched = true; }
			} catch(e) {}
			if (matched) removed.push(sel);
		}
		return removed;
	}`, jsStringArray(vendorContainerSelectors))
}

// removeOverlaysJS deletes qualifying overlay candidates outright and
// returns a selector sketch for each. Landmarks are never candidates,
// so a fixed site header survives; the coverage floor keeps small
// sticky bars alive too.
func removeOverlaysJS(coverage float64, minZ int) string {
	return fmt.Sprintf(`() => {
		const coverage = %f;
		const minZ = %d;
		const landmarks = `+landmarkExclusionJS+`;
		const vw = window.innerWidth, vh = window.innerHeight;

		const sketch = (el) => {
			if (el.id) return "#" + el.id;
			const cls = typeof el.className === "string" ? el.className.trim().split(/\s+/)[0] : "";
			return el.tagName.toLowerCase() + (cls ? "." + cls : "");
		};

		const stripped = [];
		for (const el of document.querySelectorAll("*")) {
			if (landmarks.includes(el.tagName)) continue;
			const s = getComputedStyle(el);
			if (s.position !== "fixed" && s.position !== "sticky") continue;
			if (s.display === "none" || s.visibility === "hidden") continue;
			const z = parseInt(s.zIndex, 10);
			if (isNaN(z) || z < minZ) continue;
			const r = el.getBoundingClientRect();
			if (r.width * r.height < vw * vh * coverage) continue;
			stripped.push(sketch(el));
			el.remove();
		}
		return stripped;
	}`, coverage, minZ)
}

// describeEvents renders a compact one-line summary for logging.
func describeEvents(events []models.PopupEvent) string {
	if len(events) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, string(e.Action)+":"+e.Selector)
	}
	return strings.Join(parts, ", ")
}
