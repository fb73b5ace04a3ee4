// Package browser wraps Rod with the session model the audit engine
// needs: one isolated browsing context per session, fixed device
// profiles, and evidence capture.
package browser

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// profile is the fixed emulation profile for a viewport.
type profile struct {
	width, height int
	scale         float64
	mobile        bool
	userAgent     string
}

var profiles = map[models.Viewport]profile{
	models.ViewportDesktop: {
		width: 1366, height: 900, scale: 1, mobile: false,
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	},
	models.ViewportMobile: {
		width: 390, height: 844, scale: 3, mobile: true,
		userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	},
}

// Provider manages the global browser lifecycle. It is safe for
// concurrent use; each session gets its own incognito context.
type Provider struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	crawl   config.CrawlConfig
}

// NewProvider launches a headless browser.
func NewProvider(browserCfg config.BrowserConfig, crawlCfg config.CrawlConfig) (*Provider, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserCrash, models.SummaryCrawlFailed, err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserCrash, models.SummaryCrawlFailed, err)
	}

	return &Provider{browser: browser, cfg: browserCfg, crawl: crawlCfg}, nil
}

// NewSession creates an isolated incognito context with the fixed device
// profile for viewport. preScripts are injected via EvalOnNewDocument so
// they run before any page script on every navigation (consent
// pre-acceptance, stealth).
func (p *Provider) NewSession(ctx context.Context, viewport models.Viewport, preScripts []string) (Page, error) {
	prof := profiles[viewport]

	incognito, err := p.browser.Incognito()
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserCrash, models.SummaryCrawlFailed, err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserCrash, models.SummaryCrawlFailed, err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             prof.width,
		Height:            prof.height,
		DeviceScaleFactor: prof.scale,
		Mobile:            prof.mobile,
	}); err != nil {
		_ = page.Close()
		return nil, models.NewCrawlError(models.ErrCodeBrowserCrash, models.SummaryCrawlFailed, err)
	}

	_ = (proto.NetworkSetUserAgentOverride{
		UserAgent:      prof.userAgent,
		AcceptLanguage: p.cfg.Locale,
	}).Call(page)
	_ = (proto.EmulationSetLocaleOverride{Locale: p.cfg.Locale}).Call(page)
	_ = (proto.EmulationSetTimezoneOverride{TimezoneID: p.cfg.Timezone}).Call(page)
	if prof.mobile {
		_ = touchEmulation().Call(page)
	}

	// Stealth first, then consent pre-acceptance; both must be installed
	// before the first navigation to take effect.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	for _, script := range preScripts {
		if _, err := page.EvalOnNewDocument(script); err != nil {
			slog.Warn("pre-consent script injection failed", "error", err)
		}
	}

	return &Session{
		page:     page,
		viewport: viewport,
		crawl:    p.crawl,
		ctx:      ctx,
	}, nil
}

// touchEmulation is the touch profile applied to mobile sessions.
// MaxTouchPoints is optional in the CDP schema, so the field is a
// pointer.
func touchEmulation() *proto.EmulationSetTouchEmulationEnabled {
	maxTouchPoints := 5
	return &proto.EmulationSetTouchEmulationEnabled{
		Enabled:        true,
		MaxTouchPoints: &maxTouchPoints,
	}
}

// Close kills the browser process. Call on graceful shutdown to prevent
// zombie Chrome processes.
func (p *Provider) Close() {
	slog.Info("browser provider shutting down")
	p.browser.MustClose()
}
