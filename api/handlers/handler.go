package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/crud-docs/pkg/repository"
	"github.com/kutbudev/crud-docs/pkg/service"
)

// Handler serves the crud and tag endpoints
type Handler struct {
	svc      *service.Service
	base     string
	basePath string
	logger   *slog.Logger
}

// New creates a Handler. An empty baseURL makes links follow the request host.
func New(svc *service.Service, baseURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:    svc,
		base:   trimBase(baseURL),
		logger: logger,
	}
	if u, err := url.Parse(h.base); err == nil {
		h.basePath = u.Path
	}
	return h
}

// Index exposes the entry point links.
func (h *Handler) Index(c *gin.Context) {
	base := h.baseURL(c)
	respondHAL(c, http.StatusOK, IndexResource{Links: Links{
		"crud": {Href: base + "/crud"},
		"tags": {Href: base + "/tags"},
	}})
}

// Health reports liveness and, when the store supports it, store health.
func (h *Handler) Health(c *gin.Context) {
	if hc, ok := h.svc.Repository().(repository.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hc.Health(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
