package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shoplens/shoplens/config"
)

type recordingRunner struct {
	mu       sync.Mutex
	sessions []string
	urls     []string
}

func (r *recordingRunner) RunSession(ctx context.Context, sessionID, rawURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
	r.urls = append(r.urls, rawURL)
	return nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func testAPIConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: false},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func postAudit(t *testing.T, router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAudit_Accepted(t *testing.T) {
	runner := &recordingRunner{}
	router := NewRouter(testAPIConfig(), runner)

	w := postAudit(t, router, `{"session_id":"s1","url":"https://x.com/"}`, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"session_id":"s1"`) {
		t.Errorf("body = %s", w.Body)
	}

	// The session runs on a background goroutine.
	deadline := time.Now().Add(time.Second)
	for runner.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runner.count() != 1 {
		t.Errorf("RunSession calls = %d, want 1", runner.count())
	}
}

func TestCreateAudit_GeneratesSessionID(t *testing.T) {
	router := NewRouter(testAPIConfig(), &recordingRunner{})
	w := postAudit(t, router, `{"url":"https://x.com/"}`, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "session_id") {
		t.Errorf("body = %s", w.Body)
	}
}

func TestCreateAudit_RejectsBadInput(t *testing.T) {
	router := NewRouter(testAPIConfig(), &recordingRunner{})
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{"session_id":"s1"}`},
		{"relative url", `{"url":"/products/a"}`},
		{"bad scheme", `{"url":"ftp://x.com/"}`},
		{"not json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postAudit(t, router, tt.body, nil); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestAuth_Enforced(t *testing.T) {
	cfg := testAPIConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret-key"}}
	router := NewRouter(cfg, &recordingRunner{})

	if w := postAudit(t, router, `{"url":"https://x.com/"}`, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}
	if w := postAudit(t, router, `{"url":"https://x.com/"}`, map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}
	if w := postAudit(t, router, `{"url":"https://x.com/"}`, map[string]string{"X-API-Key": "secret-key"}); w.Code != http.StatusAccepted {
		t.Errorf("good key: status = %d, want 202", w.Code)
	}
}

func TestRateLimit_Enforced(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}
	router := NewRouter(cfg, &recordingRunner{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, postAudit(t, router, `{"url":"https://x.com/"}`, nil).Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted {
		t.Errorf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func TestHealth(t *testing.T) {
	router := NewRouter(testAPIConfig(), &recordingRunner{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
