package browser

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// Page is the surface the crawl engine consumes. *Session implements it
// against a live Rod page; tests implement it with fakes.
type Page interface {
	// Load navigates to url and returns the document's HTTP status, or an
	// error for timeouts and transport failures. Status 0 means unknown.
	Load(ctx context.Context, url string) (int, error)

	// Reload re-navigates the current document (bot-block mitigation).
	Reload(ctx context.Context) (int, error)

	// WaitSettled blocks until the load-settling windows elapse or the
	// soft timeout fires. It never returns an error.
	WaitSettled(ctx context.Context)

	// Eval runs a JS function expression in the main frame.
	Eval(js string) (gson.JSON, error)

	// EvalOnFrames runs a JS function expression in the main frame and
	// every reachable iframe, ignoring per-frame failures.
	EvalOnFrames(js string)

	// Click clicks the first element matching the CSS selector.
	Click(selector string) error

	// ScrollThrough steps down the page and back up, pausing for lazy
	// content.
	ScrollThrough(ctx context.Context)

	HTML() (string, error)
	VisibleText() string
	Title() string
	CurrentURL() string
	Screenshot() ([]byte, error)
	Viewport() models.Viewport
	Close()
}

// Session is one page in an isolated incognito context.
type Session struct {
	page     *rod.Page
	viewport models.Viewport
	crawl    config.CrawlConfig
	ctx      context.Context
}

var _ Page = (*Session)(nil)

// Load navigates with the configured per-attempt timeout and reads the
// final document status from the performance timeline, which avoids CDP
// Network event listeners that conflict with the Fetch domain.
func (s *Session) Load(ctx context.Context, url string) (int, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.crawl.NavTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return 0, err
	}
	if err := p.WaitLoad(); err != nil {
		return 0, err
	}
	return s.documentStatus(), nil
}

// Reload performs a plain reload of the current document.
func (s *Session) Reload(ctx context.Context) (int, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.crawl.NavTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Reload(); err != nil {
		return 0, err
	}
	if err := p.WaitLoad(); err != nil {
		return 0, err
	}
	return s.documentStatus(), nil
}

// documentStatus reads the HTTP status of the current navigation entry.
func (s *Session) documentStatus() int {
	res, err := s.page.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// WaitSettled enforces the load-settling windows: network idle, then DOM
// stability, both within the soft timeout, then the minimum post-load
// wait. A page that never settles proceeds with its current DOM rather
// than failing the crawl.
func (s *Session) WaitSettled(ctx context.Context) {
	settleCtx, cancel := context.WithTimeout(ctx, s.crawl.SettleTimeout)
	defer cancel()

	p := s.page.Context(settleCtx)
	p.WaitRequestIdle(s.crawl.NetworkIdleWindow, nil, nil, nil)()
	if err := p.WaitDOMStable(s.crawl.DOMStableWindow, 0.1); err != nil {
		// Soft timeout: capture what is there.
	}

	wait := s.crawl.MinPostLoadWait
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
}

// Eval runs a JS function expression in the main frame.
func (s *Session) Eval(js string) (gson.JSON, error) {
	res, err := s.page.Eval(js)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// EvalOnFrames runs js in the main frame and every reachable iframe,
// two levels deep. A failing frame is skipped; cross-origin frames that
// refuse evaluation never abort the page crawl.
func (s *Session) EvalOnFrames(js string) {
	_, _ = s.page.Eval(js)
	evalOnChildFrames(s.page, js, 2)
}

func evalOnChildFrames(p *rod.Page, js string, depth int) {
	if depth == 0 {
		return
	}
	frames, err := p.Elements("iframe")
	if err != nil {
		return
	}
	for _, el := range frames {
		frame, err := el.Frame()
		if err != nil {
			continue
		}
		_, _ = frame.Eval(js)
		evalOnChildFrames(frame, js, depth-1)
	}
}

// Click clicks the first element matching the selector.
func (s *Session) Click(selector string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ScrollThrough steps down up to four viewports with pauses so
// lazy-loaded content (and lazy popups) can trigger, then returns to the
// top for a stable capture position.
func (s *Session) ScrollThrough(ctx context.Context) {
	res, err := s.page.Eval(`() => window.innerHeight`)
	if err != nil {
		return
	}
	viewportHeight := float64(res.Value.Int())

	for i := 0; i < 4; i++ {
		if ctx.Err() != nil {
			return
		}
		if err := s.page.Mouse.Scroll(0, viewportHeight, 0); err != nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	_, _ = s.page.Eval(`() => window.scrollTo(0, 0)`)
	time.Sleep(200 * time.Millisecond)
}

// HTML returns the serialized DOM of the main frame.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// VisibleText returns the rendered text of the body, best-effort.
func (s *Session) VisibleText() string {
	return s.evalStringOrEmpty(`() => document.body ? document.body.innerText : ""`)
}

// Title returns the document title, best-effort.
func (s *Session) Title() string {
	return s.evalStringOrEmpty(`() => document.title`)
}

// CurrentURL returns the page's current location, best-effort.
func (s *Session) CurrentURL() string {
	return s.evalStringOrEmpty(`() => window.location.href`)
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot() ([]byte, error) {
	return s.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Viewport returns the session's device profile.
func (s *Session) Viewport() models.Viewport {
	return s.viewport
}

// Close tears down the page and its incognito context.
func (s *Session) Close() {
	_ = s.page.Close()
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors (useful for optional metadata).
func (s *Session) evalStringOrEmpty(js string) string {
	res, err := s.page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// IsTransientExtraction reports whether err is a transient extraction
// failure (context destroyed, target closed, navigation interrupted) that
// allows exactly one retry of the extraction.
func IsTransientExtraction(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context was destroyed") ||
		strings.Contains(msg, "execution context") ||
		strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "session closed") ||
		strings.Contains(msg, "navigation")
}
