package models

import "fmt"

// Error codes used across the crawl engine. Only the user-safe summary
// strings below ever reach persisted state; these codes drive control flow
// and the operational log.
const (
	ErrCodeNavigationTimeout   = "NAVIGATION_TIMEOUT"
	ErrCodeNetErr              = "NET_ERR"
	ErrCodeRetryableStatus     = "RETRYABLE_STATUS"
	ErrCodeNonRetryableStatus  = "NON_RETRYABLE_STATUS"
	ErrCodeBotBlock            = "BOT_BLOCK"
	ErrCodeBotBlockReload      = "BOT_BLOCK_RELOAD_FAILED"
	ErrCodeHardTimeout         = "HARD_TIMEOUT"
	ErrCodeExtractionTransient = "EXTRACTION_TRANSIENT"
	ErrCodeDomainLockTimeout   = "DOMAIN_LOCK_TIMEOUT"
	ErrCodeCheckoutBlocker     = "CHECKOUT_BLOCKER"
	ErrCodeBrowserCrash        = "BROWSER_CRASH"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// User-safe error summaries. This is the complete vocabulary allowed to
// cross into repository state and API-visible fields; raw error text stays
// in the operational log.
const (
	SummaryCrawlFailed        = "Crawl failed"
	SummaryNavigationTimeout  = "Navigation timeout"
	SummaryRateLimited        = "Rate limited (429)"
	SummaryBlockedStatus      = "Blocked (403/503)"
	SummaryBotBlock           = "Bot-block"
	SummaryBotBlockReload     = "Bot-block; reload failed"
	SummaryPdpNotFound        = "PDP not found"
	SummaryAllViewportsFailed = "All viewports failed"
)

// CrawlError is the internal error type carrying a code and the user-safe
// summary for that failure. It implements the error interface and supports
// error wrapping via Unwrap.
type CrawlError struct {
	Code    string
	Summary string
	Err     error // wrapped original error, never persisted
}

func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Summary, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Summary)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(code, summary string, err error) *CrawlError {
	return &CrawlError{Code: code, Summary: summary, Err: err}
}
