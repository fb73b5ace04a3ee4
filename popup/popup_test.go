package popup

import (
	"context"
	"strings"
	"testing"

	"github.com/ysmood/gson"

	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

func TestIsSafeDismissLabel(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"Accept all", true},
		{"ACCEPT COOKIES", true},
		{"Got it!", true},
		{"No thanks", true},
		{"Reject All", true},
		{"×", true},
		{"Continue shopping", true},

		{"Subscribe", false},
		{"OK, subscribe me", false}, // risky fragment vetoes the safe one
		{"Sign up & save 10%", false},
		{"Accept and checkout", false},
		{"Add to cart", false},
		{"Save preferences", false},
		{"", false},
		{"Yes, I want to receive marketing emails and agree to the privacy policy", false}, // too long
	}
	for _, tt := range tests {
		if got := IsSafeDismissLabel(tt.label); got != tt.want {
			t.Errorf("IsSafeDismissLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestVendorScripts(t *testing.T) {
	if len(vendorScripts) < 10 {
		t.Fatalf("vendor coverage dropped to %d platforms", len(vendorScripts))
	}
	seen := make(map[string]bool)
	for _, v := range vendorScripts {
		if v.Name == "" || v.JS == "" {
			t.Errorf("vendor %q has empty script", v.Name)
		}
		if seen[v.Name] {
			t.Errorf("duplicate vendor %q", v.Name)
		}
		seen[v.Name] = true
		if !strings.HasPrefix(strings.TrimSpace(v.JS), "() =>") {
			t.Errorf("vendor %q script is not a function expression", v.Name)
		}
	}
	if got := len(PreConsentScripts()); got != len(vendorScripts) {
		t.Errorf("PreConsentScripts returned %d scripts, want %d", got, len(vendorScripts))
	}
}

// Pre-consent snippets go through EvalOnNewDocument, which evaluates
// plain script source: a bare function expression would never run, so
// every installed snippet must invoke itself.
func TestPreConsentScripts_SelfExecuting(t *testing.T) {
	for i, s := range PreConsentScripts() {
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "(() =>") || !strings.HasSuffix(trimmed, ")();") {
			t.Errorf("script %d (%s) is not self-executing: %.40q", i, vendorScripts[i].Name, trimmed)
		}
	}
}

func TestJSStringArray(t *testing.T) {
	got := jsStringArray([]string{"a", `b"c`})
	want := `["a","b\"c"]`
	if got != want {
		t.Errorf("jsStringArray = %s, want %s", got, want)
	}
}

// scriptedPage answers Eval calls by matching substrings of the script,
// consuming per-kind result queues.
type scriptedPage struct {
	clicks  []gson.JSON
	removes []gson.JSON
	strips  []gson.JSON
	unlocks []gson.JSON

	clickCalls, removeCalls, stripCalls, unlockCalls int
}

func take(queue []gson.JSON, calls *int) gson.JSON {
	i := *calls
	*calls++
	if i >= len(queue) {
		return gson.New(nil)
	}
	return queue[i]
}

func (p *scriptedPage) Eval(js string) (gson.JSON, error) {
	switch {
	case strings.Contains(js, "clicked"):
		return take(p.clicks, &p.clickCalls), nil
	case strings.Contains(js, "removed.push"):
		return take(p.removes, &p.removeCalls), nil
	case strings.Contains(js, "stripped.push"):
		return take(p.strips, &p.stripCalls), nil
	default:
		return take(p.unlocks, &p.unlockCalls), nil
	}
}

func (p *scriptedPage) Load(ctx context.Context, url string) (int, error) { return 200, nil }
func (p *scriptedPage) Reload(ctx context.Context) (int, error)           { return 200, nil }
func (p *scriptedPage) WaitSettled(ctx context.Context)                   {}
func (p *scriptedPage) EvalOnFrames(js string)                            {}
func (p *scriptedPage) Click(selector string) error                       { return nil }
func (p *scriptedPage) ScrollThrough(ctx context.Context)                 {}
func (p *scriptedPage) HTML() (string, error)                             { return "", nil }
func (p *scriptedPage) VisibleText() string                               { return "" }
func (p *scriptedPage) Title() string                                     { return "" }
func (p *scriptedPage) CurrentURL() string                                { return "https://x.com/" }
func (p *scriptedPage) Screenshot() ([]byte, error)                       { return nil, nil }
func (p *scriptedPage) Viewport() models.Viewport                         { return models.ViewportDesktop }
func (p *scriptedPage) Close()                                            {}

func testPopupConfig() config.PopupConfig {
	return config.PopupConfig{MaxRounds: 3, OverlayCoverage: 0.5, MinZIndex: 100}
}

func TestRun_ClickThenRemoveThenStops(t *testing.T) {
	page := &scriptedPage{
		clicks: []gson.JSON{
			gson.New(map[string]interface{}{"clicked": true, "label": "Accept all", "selector": "#accept"}),
			gson.New(map[string]interface{}{"clicked": false}),
		},
		removes: []gson.JSON{
			gson.New([]interface{}{"#onetrust-consent-sdk"}),
			gson.New([]interface{}{}),
		},
		unlocks: []gson.JSON{gson.New(true)},
	}

	events := NewDismisser(testPopupConfig()).Run(page)

	var clicks, removes, unlocks int
	for _, e := range events {
		switch e.Action {
		case models.PopupActionClick:
			clicks++
			if e.Selector != "#accept" || e.Attempt != 1 {
				t.Errorf("click event = %+v", e)
			}
		case models.PopupActionRemove:
			removes++
			if e.Selector != "#onetrust-consent-sdk" {
				t.Errorf("remove event = %+v", e)
			}
		case models.PopupActionUnlock:
			unlocks++
		}
	}
	if clicks != 1 || removes != 1 || unlocks != 1 {
		t.Errorf("events = %d clicks, %d removes, %d unlocks; want 1/1/1 (%v)", clicks, removes, unlocks, events)
	}

	// Round 2 found nothing, so no round 3 scans.
	if page.clickCalls != 2 {
		t.Errorf("clickCalls = %d, want 2", page.clickCalls)
	}
}

func TestRun_QuietPageProducesNoActionEvents(t *testing.T) {
	page := &scriptedPage{
		clicks:  []gson.JSON{gson.New(map[string]interface{}{"clicked": false})},
		removes: []gson.JSON{gson.New([]interface{}{})},
	}

	events := NewDismisser(testPopupConfig()).Run(page)
	for _, e := range events {
		if e.Action == models.PopupActionClick || e.Action == models.PopupActionRemove {
			t.Errorf("quiet page produced action event: %+v", e)
		}
	}
	if page.clickCalls != 1 {
		t.Errorf("clickCalls = %d, want 1", page.clickCalls)
	}
}

func TestRun_RoundsAreBounded(t *testing.T) {
	always := gson.New(map[string]interface{}{"clicked": true, "label": "Close", "selector": ".close"})
	page := &scriptedPage{
		clicks:  []gson.JSON{always, always, always, always, always},
		removes: []gson.JSON{gson.New([]interface{}{})},
	}

	NewDismisser(testPopupConfig()).Run(page)
	if page.clickCalls != 3 {
		t.Errorf("clickCalls = %d, want MaxRounds (3)", page.clickCalls)
	}
}

func TestRun_RemovesUnknownOverlayByGeometry(t *testing.T) {
	// A full-cover newsletter modal: not in the vendor table, no
	// safe-labeled control, but fixed, high-z, and covering.
	page := &scriptedPage{
		clicks:  []gson.JSON{gson.New(map[string]interface{}{"clicked": false})},
		removes: []gson.JSON{gson.New([]interface{}{})},
		strips:  []gson.JSON{gson.New([]interface{}{"div.newsletter-modal"})},
	}

	events := NewDismisser(testPopupConfig()).Run(page)

	var removes []string
	for _, e := range events {
		if e.Action == models.PopupActionRemove {
			removes = append(removes, e.Selector)
		}
	}
	if len(removes) != 1 || removes[0] != "div.newsletter-modal" {
		t.Errorf("remove events = %v, want [div.newsletter-modal]", removes)
	}
	// The removal counts as action, so a second round rescans and stops.
	if page.stripCalls != 2 {
		t.Errorf("stripCalls = %d, want 2", page.stripCalls)
	}
}

func TestScanBlocked_RecordsHiddenOverlays(t *testing.T) {
	page := &scriptedPage{
		// ScanBlocked's script contains "hidden.push", not "clicked" or
		// "removed.push", so it lands in the unlock/default queue.
		unlocks: []gson.JSON{gson.New([]interface{}{"#overlay", "div.interstitial"})},
	}

	events := NewDismisser(testPopupConfig()).ScanBlocked(page)
	if len(events) != 2 {
		t.Fatalf("events = %v, want 2 hide events", events)
	}
	for _, e := range events {
		if e.Action != models.PopupActionHide || e.Result != models.PopupSuccess {
			t.Errorf("event = %+v", e)
		}
	}
}

func TestDescribeEvents(t *testing.T) {
	if got := describeEvents(nil); got != "none" {
		t.Errorf("describeEvents(nil) = %q", got)
	}
	events := []models.PopupEvent{
		{Action: models.PopupActionClick, Selector: "#a"},
		{Action: models.PopupActionRemove, Selector: "#b"},
	}
	if got := describeEvents(events); got != "click:#a, remove:#b" {
		t.Errorf("describeEvents = %q", got)
	}
}
