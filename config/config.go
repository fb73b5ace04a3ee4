package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Browser   BrowserConfig
	Crawl     CrawlConfig
	Popup     PopupConfig
	Pdp       PdpConfig
	Checkout  CheckoutConfig
	Lock      LockConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP intake server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// StorageConfig controls artifact persistence.
type StorageConfig struct {
	// ArtifactDir is the root directory for captured evidence.
	ArtifactDir string // default: "./artifacts"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the default proxy URL for all sessions.
	DefaultProxy string

	// Locale and Timezone are fixed per session for reproducible captures.
	Locale   string // default: "en-US"
	Timezone string // default: "UTC"
}

// CrawlConfig controls navigation, retry, and readiness behavior.
type CrawlConfig struct {
	// MaxAttempts is the retry budget per page load.
	MaxAttempts int // default: 3

	// NavTimeout is the deadline for a single page.Navigate.
	NavTimeout time.Duration // default: 30s

	// HardBudget is the wall-clock cap per page across all attempts,
	// including backoff sleeps.
	HardBudget time.Duration // default: 120s

	// BackoffBase is the base for attempt n: BackoffBase << (n-1),
	// clamped at the third rung.
	BackoffBase time.Duration // default: 1s

	// JitterCap bounds the uniform jitter added to each backoff.
	JitterCap time.Duration // default: 500ms

	// NetworkIdleWindow and DOMStableWindow are the load-settling windows.
	NetworkIdleWindow time.Duration // default: 500ms
	DOMStableWindow   time.Duration // default: 300ms

	// MinPostLoadWait always elapses after the load settles.
	MinPostLoadWait time.Duration // default: 1s

	// SettleTimeout is the soft cap on the whole settling phase.
	SettleTimeout time.Duration // default: 10s

	// BotBlockCooldown is the fixed wait before the single reload mitigation.
	BotBlockCooldown time.Duration // default: 8s

	// Debug enables verbose evidence retention and disables throttling.
	Debug bool // default: false

	// EvidencePack forces full-HTML retention for every captured page.
	EvidencePack bool // default: false
}

// PopupConfig controls the consent/popup dismissal policy.
type PopupConfig struct {
	// MaxRounds bounds the dismissal rounds per pass.
	MaxRounds int // default: 3

	// OverlayCoverage is the viewport fraction a fixed element must cover
	// to count as an overlay candidate for the blocked-page fallback.
	OverlayCoverage float64 // default: 0.5

	// MinZIndex is the stacking-order floor for overlay candidates.
	MinZIndex int // default: 100
}

// PdpConfig controls product-page discovery.
type PdpConfig struct {
	// CandidateCap is the maximum number of extracted candidate links.
	CandidateCap int // default: 20

	// MaxValidations bounds how many candidates are loaded and validated.
	MaxValidations int // default: 5
}

// CheckoutConfig controls the checkout flow automator.
type CheckoutConfig struct {
	// StepTimeout is the deadline for each automation step.
	StepTimeout time.Duration // default: 20s

	// ConfirmWait is how long add-to-cart confirmation signals may take
	// to appear after the click.
	ConfirmWait time.Duration // default: 5s
}

// LockConfig controls the distributed domain lock and throttle.
type LockConfig struct {
	// RedisAddr is the shared keyed store address. Empty selects the
	// in-memory store (single-process mode).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// LockTTL bounds how long a crashed session can hold a domain.
	LockTTL time.Duration // default: 10m

	// AcquireAttempts and AcquireBackoff shape the contention retry loop.
	AcquireAttempts int           // default: 5
	AcquireBackoff  time.Duration // default: 2s

	// MinCrawlDelay is the floor on inter-crawl spacing per domain.
	MinCrawlDelay time.Duration // default: 30s

	// ThrottleTTL bounds the per-domain last-access record.
	ThrottleTTL time.Duration // default: 1h

	// Disabled skips throttling (never the lock itself); set in debug mode.
	Disabled bool
}

// AuthConfig controls API key authentication on the intake endpoint.
type AuthConfig struct {
	Enabled bool // default: false
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting on the intake endpoint.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("SHOPLENS_HOST", "0.0.0.0"),
			Port: envIntOr("SHOPLENS_PORT", 8080),
			Mode: envOr("SHOPLENS_MODE", "release"),
		},
		Storage: StorageConfig{
			ArtifactDir: envOr("SHOPLENS_ARTIFACT_DIR", "./artifacts"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SHOPLENS_HEADLESS", true),
			NoSandbox:    envBoolOr("SHOPLENS_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SHOPLENS_BROWSER_BIN"),
			DefaultProxy: os.Getenv("SHOPLENS_PROXY"),
			Locale:       envOr("SHOPLENS_LOCALE", "en-US"),
			Timezone:     envOr("SHOPLENS_TIMEZONE", "UTC"),
		},
		Crawl: CrawlConfig{
			MaxAttempts:       envIntOr("SHOPLENS_MAX_ATTEMPTS", 3),
			NavTimeout:        envDurationOr("SHOPLENS_NAV_TIMEOUT", 30*time.Second),
			HardBudget:        envDurationOr("SHOPLENS_HARD_BUDGET", 120*time.Second),
			BackoffBase:       envDurationOr("SHOPLENS_BACKOFF_BASE", time.Second),
			JitterCap:         envDurationOr("SHOPLENS_BACKOFF_JITTER", 500*time.Millisecond),
			NetworkIdleWindow: envDurationOr("SHOPLENS_NETWORK_IDLE", 500*time.Millisecond),
			DOMStableWindow:   envDurationOr("SHOPLENS_DOM_STABLE", 300*time.Millisecond),
			MinPostLoadWait:   envDurationOr("SHOPLENS_MIN_POST_LOAD", time.Second),
			SettleTimeout:     envDurationOr("SHOPLENS_SETTLE_TIMEOUT", 10*time.Second),
			BotBlockCooldown:  envDurationOr("SHOPLENS_BOT_COOLDOWN", 8*time.Second),
			Debug:             envBoolOr("SHOPLENS_DEBUG", false),
			EvidencePack:      envBoolOr("SHOPLENS_EVIDENCE_PACK", false),
		},
		Popup: PopupConfig{
			MaxRounds:       envIntOr("SHOPLENS_POPUP_ROUNDS", 3),
			OverlayCoverage: envFloatOr("SHOPLENS_OVERLAY_COVERAGE", 0.5),
			MinZIndex:       envIntOr("SHOPLENS_OVERLAY_MIN_Z", 100),
		},
		Pdp: PdpConfig{
			CandidateCap:   envIntOr("SHOPLENS_PDP_CANDIDATE_CAP", 20),
			MaxValidations: envIntOr("SHOPLENS_PDP_MAX_VALIDATIONS", 5),
		},
		Checkout: CheckoutConfig{
			StepTimeout: envDurationOr("SHOPLENS_CHECKOUT_STEP_TIMEOUT", 20*time.Second),
			ConfirmWait: envDurationOr("SHOPLENS_CHECKOUT_CONFIRM_WAIT", 5*time.Second),
		},
		Lock: LockConfig{
			RedisAddr:       os.Getenv("SHOPLENS_REDIS_ADDR"),
			RedisPassword:   os.Getenv("SHOPLENS_REDIS_PASSWORD"),
			RedisDB:         envIntOr("SHOPLENS_REDIS_DB", 0),
			LockTTL:         envDurationOr("SHOPLENS_LOCK_TTL", 10*time.Minute),
			AcquireAttempts: envIntOr("SHOPLENS_LOCK_ATTEMPTS", 5),
			AcquireBackoff:  envDurationOr("SHOPLENS_LOCK_BACKOFF", 2*time.Second),
			MinCrawlDelay:   envDurationOr("SHOPLENS_MIN_CRAWL_DELAY", 30*time.Second),
			ThrottleTTL:     envDurationOr("SHOPLENS_THROTTLE_TTL", time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SHOPLENS_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SHOPLENS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SHOPLENS_RATE_RPS", 5.0),
			Burst:             envIntOr("SHOPLENS_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("SHOPLENS_LOG_LEVEL", "info"),
			Format: envOr("SHOPLENS_LOG_FORMAT", "json"),
		},
	}

	// Debug mode relaxes inter-crawl spacing but never the lock itself.
	if cfg.Crawl.Debug {
		cfg.Lock.Disabled = true
	}
	return cfg
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
