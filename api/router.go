// Package api wires the HTTP intake surface.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/shoplens/shoplens/api/handler"
	"github.com/shoplens/shoplens/api/middleware"
	"github.com/shoplens/shoplens/config"
)

// NewRouter builds the gin engine with auth, rate limiting, and the
// audit routes.
func NewRouter(cfg *config.Config, runner handler.AuditRunner) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := handler.New(runner)
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(cfg.Auth))
	v1.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())
	v1.POST("/audits", h.CreateAudit)

	return r
}
