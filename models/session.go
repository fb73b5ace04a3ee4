package models

import (
	"net/url"
	"strings"
	"time"
)

// PageType identifies the step of the storefront journey a capture belongs to.
type PageType string

const (
	PageHomepage PageType = "homepage"
	PagePdp      PageType = "pdp"
	PageCart     PageType = "cart"
	PageCheckout PageType = "checkout"
)

// Viewport selects the emulated device profile for a crawl.
type Viewport string

const (
	ViewportDesktop Viewport = "desktop"
	ViewportMobile  Viewport = "mobile"
)

// CrawlTarget describes one page load. Immutable per navigation attempt.
type CrawlTarget struct {
	URL      string
	PageType PageType
	Viewport Viewport
	Domain   string
}

// NewCrawlTarget builds a target, deriving the domain from the URL host.
func NewCrawlTarget(rawURL string, pageType PageType, viewport Viewport) CrawlTarget {
	domain := ""
	if u, err := url.Parse(rawURL); err == nil {
		domain = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	return CrawlTarget{
		URL:      rawURL,
		PageType: pageType,
		Viewport: viewport,
		Domain:   domain,
	}
}

// NavigationOutcome is produced once per Navigate call and never retained
// beyond the caller.
type NavigationOutcome struct {
	Success           bool
	StatusCode        int    // final HTTP status of the document load, 0 if unknown
	Summary           string // user-safe summary, empty on success
	BotBlockMitigated bool   // true when the single reload mitigation ran
}

// SessionStatus is the aggregate outcome of a session's targeted page loads.
type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionPartial   SessionStatus = "partial"
	SessionFailed    SessionStatus = "failed"
)

// SessionOutcome combines the session status with an optional user-safe
// error summary.
type SessionOutcome struct {
	Status  SessionStatus
	Summary string
}

// LowConfidenceAssessment flags a captured page whose extracted signals are
// too weak to trust for audit scoring.
type LowConfidenceAssessment struct {
	Flagged bool
	Reasons []string
}

// PageResult records what the orchestrator learned about one target.
type PageResult struct {
	Target     CrawlTarget
	Navigation NavigationOutcome
	Confidence LowConfidenceAssessment
	CrawledAt  time.Time
	DurationMs int64
}
