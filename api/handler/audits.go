// Package handler implements the intake API endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditRunner is the orchestration entry point the API spawns into.
type AuditRunner interface {
	RunSession(ctx context.Context, sessionID, rawURL string) error
}

// Handler serves the audit intake routes.
type Handler struct {
	runner AuditRunner
}

// New builds a Handler.
func New(runner AuditRunner) *Handler {
	return &Handler{runner: runner}
}

type createAuditRequest struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url" binding:"required"`
}

// CreateAudit accepts an audit request and spawns the session in the
// background, replying 202 immediately. A missing session_id gets a
// generated one so fire-and-forget callers still get a handle.
func (h *Handler) CreateAudit(c *gin.Context) {
	var req createAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validAuditURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be absolute http(s)"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	// The request context dies with the response; the session runs on
	// its own.
	go func(sessionID, rawURL string) {
		if err := h.runner.RunSession(context.Background(), sessionID, rawURL); err != nil {
			slog.Error("audit session failed", "session", sessionID, "error", err)
		}
	}(req.SessionID, req.URL)

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": req.SessionID,
		"status":     "accepted",
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func validAuditURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
