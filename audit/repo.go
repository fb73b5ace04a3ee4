// Package audit owns the session orchestration: it sequences the
// storefront journey, persists what it learned, and reduces the page
// outcomes into a session status.
package audit

import (
	"context"
	"time"

	"github.com/shoplens/shoplens/models"
)

// PageRecord is one captured page as the repository stores it.
type PageRecord struct {
	ID         string
	SessionID  string
	PageType   models.PageType
	Viewport   models.Viewport
	URL        string
	FinalURL   string
	Success    bool
	StatusCode int
	Summary    string
	Mitigated  bool
	Reasons    []string
	DurationMs int64
	CrawledAt  time.Time
}

// PageUpdate carries the mutable fields written after capture.
type PageUpdate struct {
	Success    bool
	StatusCode int
	Summary    string
	Reasons    []string
	DurationMs int64
}

// LogEntry is one operational log row. Raw error text is allowed here
// and only here.
type LogEntry struct {
	SessionID string
	PageID    string
	Level     string
	EventType string
	Message   string
	Details   map[string]any
	At        time.Time
}

// ArtifactKind tags what an artifact's bytes are.
type ArtifactKind string

const (
	ArtifactScreenshot  ArtifactKind = "screenshot"
	ArtifactVisibleText ArtifactKind = "visible_text"
	ArtifactFeatures    ArtifactKind = "features_json"
	ArtifactHTML        ArtifactKind = "html_gzip"
)

// ArtifactRecord is the repository's view of a stored artifact.
type ArtifactRecord struct {
	SessionID string
	PageID    string
	Kind      ArtifactKind
	URI       string
	Size      int64
	Checksum  string
}

// ArtifactRef is what the writer reports back after persisting bytes.
type ArtifactRef struct {
	URI      string
	Size     int64
	Checksum string
}

// Repository is the persistence collaborator. Implementations must be
// safe for concurrent sessions.
type Repository interface {
	CreatePage(ctx context.Context, page PageRecord) (string, error)
	UpdatePage(ctx context.Context, pageID string, upd PageUpdate) error
	PageExists(ctx context.Context, sessionID string, pt models.PageType, vp models.Viewport) (bool, error)
	GetPage(ctx context.Context, sessionID string, pt models.PageType, vp models.Viewport) (*PageRecord, error)
	GetPagesBySessionID(ctx context.Context, sessionID string) ([]PageRecord, error)

	CreateLog(ctx context.Context, entry LogEntry) error
	CreateArtifact(ctx context.Context, art ArtifactRecord) error

	UpdateSessionPdpURL(ctx context.Context, sessionID, pdpURL string) error
	UpdateSessionOutcome(ctx context.Context, sessionID string, outcome models.SessionOutcome, lowConfidence bool) error

	// RecordSession counts a finished session against its domain;
	// HasPriorSessions answers whether any were counted before. Together
	// they drive first-visit HTML retention.
	RecordSession(ctx context.Context, domain string) error
	HasPriorSessions(ctx context.Context, domain string) (bool, error)
}

// ArtifactWriter persists raw artifact bytes and reports where they
// landed. The byte layout past this interface is the writer's business.
type ArtifactWriter interface {
	Write(ctx context.Context, sessionID, pageID string, kind ArtifactKind, data []byte) (ArtifactRef, error)
}
