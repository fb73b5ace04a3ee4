package popup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/models"
)

// ScanBlocked is the last-resort fallback for pages that are still
// covered after the dismissal rounds: any fixed or sticky element that
// covers at least the configured fraction of the viewport, sits above
// the z-index floor, and provably blocks the page (scroll locked, or an
// overlay element sits under the viewport center) gets hidden. Hidden,
// not removed: unknown overlays may carry handlers whose removal breaks
// the page, so visibility is the only property touched. Structural
// landmarks (html, body, header, nav, footer, main) are never
// candidates. The scan runs in the main document and in frames.
func (d *Dismisser) ScanBlocked(page browser.Page) []models.PopupEvent {
	js := blockedScanJS(d.cfg.OverlayCoverage, d.cfg.MinZIndex)
	url := page.CurrentURL()

	res, err := page.Eval(js)
	page.EvalOnFrames(js)
	if err != nil {
		slog.Debug("blocked-page scan failed", "error", err)
		return []models.PopupEvent{event(models.PopupActionBlockedScan, "", models.PopupFailure, 1, url)}
	}

	var events []models.PopupEvent
	for _, sel := range stringResults(res) {
		events = append(events, event(models.PopupActionHide, sel, models.PopupSuccess, 1, url))
	}
	if len(events) > 0 {
		slog.Info("blocked-page fallback hid overlays", "url", url, "count", len(events))
		d.unlockScroll(page)
		time.Sleep(200 * time.Millisecond)
	}
	return events
}

// IsPageBlocked reports whether the viewport center is still covered by
// a candidate overlay, used to decide whether the fallback must run.
func (d *Dismisser) IsPageBlocked(page browser.Page) bool {
	res, err := page.Eval(fmt.Sprintf(isBlockedJS, d.cfg.OverlayCoverage, d.cfg.MinZIndex))
	if err != nil {
		return false
	}
	return boolResult(res)
}

// landmark tags excluded from overlay candidacy.
const landmarkExclusionJS = `["HTML", "BODY", "HEADER", "NAV", "FOOTER", "MAIN"]`

// isBlockedJS checks for a covering overlay candidate combined with a
// blocked page: either scrolling is locked or the element under the
// viewport center is (inside) the overlay.
const isBlockedJS = `() => {
	const coverage = %f;
	const minZ = %d;
	const landmarks = ` + landmarkExclusionJS + `;
	const vw = window.innerWidth, vh = window.innerHeight;

	const scrollLocked = () => {
		for (const el of [document.documentElement, document.body]) {
			if (!el) continue;
			const s = getComputedStyle(el);
			if (s.overflow === "hidden" || s.overflowY === "hidden") return true;
		}
		return false;
	};

	const center = document.elementFromPoint(vw / 2, vh / 2);
	for (const el of document.querySelectorAll("*")) {
		if (landmarks.includes(el.tagName)) continue;
		const s = getComputedStyle(el);
		if (s.position !== "fixed" && s.position !== "sticky") continue;
		if (s.display === "none" || s.visibility === "hidden") continue;
		const z = parseInt(s.zIndex, 10);
		if (isNaN(z) || z < minZ) continue;
		const r = el.getBoundingClientRect();
		if (r.width * r.height < vw * vh * coverage) continue;
		if (scrollLocked() || (center && el.contains(center))) return true;
	}
	return false;
}`

// blockedScanJS hides every qualifying overlay candidate and returns a
// selector sketch for each, for the event log.
func blockedScanJS(coverage float64, minZ int) string {
	return fmt.Sprintf(`() => {
		const coverage = %f;
		const minZ = %d;
		const landmarks = `+landmarkExclusionJS+`;
		const vw = window.innerWidth, vh = window.innerHeight;

		const scrollLocked = () => {
			for (const el of [document.documentElement, document.body]) {
				if (!el) continue;
				const s = getComputedStyle(el);
				if (s.overflow === "hidden" || s.overflowY === "hidden") return true;
			}
			return false;
		};

		const sketch = (el) => {
			if (el.id) return "#" + el.id;
			const cls = typeof el.className === "string" ? el.className.trim().split(/\s+/)[0] : "";
			return el.tagName.toLowerCase() + (cls ? "." + cls : "");
		};

		const hidden = [];
		for (const el of document.querySelectorAll("*")) {
			if (landmarks.includes(el.tagName)) continue;
			const s = getComputedStyle(el);
			if (s.position !== "fixed" && s.position !== "sticky") continue;
			if (s.display === "none" || s.visibility === "hidden") continue;
			const z = parseInt(s.zIndex, 10);
			if (isNaN(z) || z < minZ) continue;
			const r = el.getBoundingClientRect();
			if (r.width * r.height < vw * vh * coverage) continue;
			const center = document.elementFromPoint(vw / 2, vh / 2);
			if (!scrollLocked() && !(center && el.contains(center))) continue;
			el.style.setProperty("visibility", "hidden", "important");
			el.style.setProperty("pointer-events", "none", "important");
			hidden.push(sketch(el));
		}
		return hidden;
	}`, coverage, minZ)
}
