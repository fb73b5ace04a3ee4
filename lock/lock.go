package lock

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/models"
)

// Locker provides the domain lock and throttle contracts. At most one
// session may hold a domain's lock at a time; the throttle enforces a
// floor on inter-crawl spacing per domain.
type Locker struct {
	store KeyedStore
	cfg   config.LockConfig

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a Locker over the given store.
func New(store KeyedStore, cfg config.LockConfig) *Locker {
	return &Locker{
		store: store,
		cfg:   cfg,
		sleep: sleepCtx,
		now:   time.Now,
	}
}

func lockKey(domain string) string     { return "shoplens:lock:" + domain }
func throttleKey(domain string) string { return "shoplens:throttle:" + domain }

// Acquire takes the exclusive crawl token for domain on behalf of owner.
// On contention it retries with exponential backoff plus jitter; when the
// attempt budget is exhausted it returns a DOMAIN_LOCK_TIMEOUT fault,
// which is fatal to the session before any navigation occurs.
func (l *Locker) Acquire(ctx context.Context, domain, owner string) error {
	for attempt := 0; attempt < l.cfg.AcquireAttempts; attempt++ {
		ok, err := l.store.SetNX(ctx, lockKey(domain), owner, l.cfg.LockTTL)
		if err != nil {
			return models.NewCrawlError(models.ErrCodeDomainLockTimeout,
				models.SummaryCrawlFailed, fmt.Errorf("lock store: %w", err))
		}
		if ok {
			if attempt > 0 {
				slog.Debug("domain lock acquired after contention",
					"domain", domain, "attempt", attempt+1)
			}
			return nil
		}

		// base × 2^attempt + jitter
		backoff := l.cfg.AcquireBackoff << attempt
		if half := int64(l.cfg.AcquireBackoff) / 2; half > 0 {
			backoff += time.Duration(rand.Int63n(half))
		}
		slog.Debug("domain lock contended, backing off",
			"domain", domain, "attempt", attempt+1, "backoff", backoff)
		if err := l.sleep(ctx, backoff); err != nil {
			return models.NewCrawlError(models.ErrCodeDomainLockTimeout,
				models.SummaryCrawlFailed, err)
		}
	}
	return models.NewCrawlError(models.ErrCodeDomainLockTimeout,
		models.SummaryCrawlFailed,
		fmt.Errorf("domain %s still locked after %d attempts", domain, l.cfg.AcquireAttempts))
}

// Release frees the domain lock, but only if it is still held by owner.
// A mismatch means the TTL expired and a later session took the lock;
// releasing it would break that session's exclusivity, so the call logs a
// stale-release event and does nothing.
func (l *Locker) Release(ctx context.Context, domain, owner string) {
	current, err := l.store.Get(ctx, lockKey(domain))
	if err != nil {
		slog.Warn("domain lock release: store read failed", "domain", domain, "error", err)
		return
	}
	if current != owner {
		slog.Warn("stale release skipped", "domain", domain, "holder", current)
		return
	}
	if err := l.store.Del(ctx, lockKey(domain)); err != nil {
		slog.Warn("domain lock release failed", "domain", domain, "error", err)
	}
}

// Throttle blocks until the minimum inter-crawl delay for domain has
// elapsed since the last recorded crawl, then refreshes the record.
// Skipped entirely when the locker is disabled (debug/testing modes).
func (l *Locker) Throttle(ctx context.Context, domain string) error {
	if l.cfg.Disabled {
		return nil
	}

	last, err := l.store.Get(ctx, throttleKey(domain))
	if err != nil {
		slog.Warn("throttle read failed, proceeding without delay", "domain", domain, "error", err)
	} else if last != "" {
		if nanos, perr := strconv.ParseInt(last, 10, 64); perr == nil {
			elapsed := l.now().Sub(time.Unix(0, nanos))
			if remaining := l.cfg.MinCrawlDelay - elapsed; remaining > 0 {
				slog.Info("throttling crawl", "domain", domain, "wait", remaining)
				if err := l.sleep(ctx, remaining); err != nil {
					return err
				}
			}
		}
	}

	stamp := strconv.FormatInt(l.now().UnixNano(), 10)
	if err := l.store.Set(ctx, throttleKey(domain), stamp, l.cfg.ThrottleTTL); err != nil {
		slog.Warn("throttle stamp write failed", "domain", domain, "error", err)
	}
	return nil
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
