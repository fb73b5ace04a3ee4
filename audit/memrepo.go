package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shoplens/shoplens/models"
)

// MemRepository is an in-memory Repository for tests and single-process
// debug runs. All methods are safe for concurrent use.
type MemRepository struct {
	mu        sync.Mutex
	pages     map[string]*PageRecord // by page ID
	logs      []LogEntry
	artifacts []ArtifactRecord
	pdpURLs   map[string]string // session ID → PDP URL
	outcomes  map[string]models.SessionOutcome
	lowConf   map[string]bool
	domains   map[string]int // domain → completed session count
	nextID    int
}

// NewMemRepository builds an empty MemRepository.
func NewMemRepository() *MemRepository {
	return &MemRepository{
		pages:    make(map[string]*PageRecord),
		pdpURLs:  make(map[string]string),
		outcomes: make(map[string]models.SessionOutcome),
		lowConf:  make(map[string]bool),
		domains:  make(map[string]int),
	}
}

func (r *MemRepository) CreatePage(_ context.Context, page PageRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	page.ID = fmt.Sprintf("page-%d", r.nextID)
	if page.CrawledAt.IsZero() {
		page.CrawledAt = time.Now().UTC()
	}
	r.pages[page.ID] = &page
	return page.ID, nil
}

func (r *MemRepository) UpdatePage(_ context.Context, pageID string, upd PageUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return fmt.Errorf("page %q not found", pageID)
	}
	page.Success = upd.Success
	page.StatusCode = upd.StatusCode
	page.Summary = upd.Summary
	page.Reasons = upd.Reasons
	page.DurationMs = upd.DurationMs
	return nil
}

func (r *MemRepository) PageExists(_ context.Context, sessionID string, pt models.PageType, vp models.Viewport) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(sessionID, pt, vp) != nil, nil
}

func (r *MemRepository) GetPage(_ context.Context, sessionID string, pt models.PageType, vp models.Viewport) (*PageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page := r.find(sessionID, pt, vp); page != nil {
		cp := *page
		return &cp, nil
	}
	return nil, fmt.Errorf("page %s/%s/%s not found", sessionID, pt, vp)
}

func (r *MemRepository) find(sessionID string, pt models.PageType, vp models.Viewport) *PageRecord {
	for _, page := range r.pages {
		if page.SessionID == sessionID && page.PageType == pt && page.Viewport == vp {
			return page
		}
	}
	return nil
}

func (r *MemRepository) GetPagesBySessionID(_ context.Context, sessionID string) ([]PageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PageRecord
	for _, page := range r.pages {
		if page.SessionID == sessionID {
			out = append(out, *page)
		}
	}
	return out, nil
}

func (r *MemRepository) CreateLog(_ context.Context, entry LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	r.logs = append(r.logs, entry)
	return nil
}

func (r *MemRepository) CreateArtifact(_ context.Context, art ArtifactRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, art)
	return nil
}

func (r *MemRepository) UpdateSessionPdpURL(_ context.Context, sessionID, pdpURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pdpURLs[sessionID] = pdpURL
	return nil
}

func (r *MemRepository) UpdateSessionOutcome(_ context.Context, sessionID string, outcome models.SessionOutcome, lowConfidence bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[sessionID] = outcome
	r.lowConf[sessionID] = lowConfidence
	return nil
}

func (r *MemRepository) HasPriorSessions(_ context.Context, domain string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domains[domain] > 0, nil
}

// RecordSession marks a domain as crawled, for HasPriorSessions.
func (r *MemRepository) RecordSession(_ context.Context, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[domain]++
	return nil
}

// Outcome returns the stored outcome for a session, for assertions.
func (r *MemRepository) Outcome(sessionID string) (models.SessionOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.outcomes[sessionID]
	return out, ok
}

// PdpURL returns the stored PDP URL for a session, "" when unset.
func (r *MemRepository) PdpURL(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pdpURLs[sessionID]
}

// LowConfidence returns the stored session-level flag.
func (r *MemRepository) LowConfidence(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lowConf[sessionID]
}

// Logs returns a copy of the operational log.
func (r *MemRepository) Logs() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.logs))
	copy(out, r.logs)
	return out
}

// Artifacts returns a copy of the artifact records.
func (r *MemRepository) Artifacts() []ArtifactRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ArtifactRecord, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}
