// Package api assembles the HTTP surface of the crud service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/crud-docs/api/handlers"
	"github.com/kutbudev/crud-docs/internal/restdocs"
	"github.com/kutbudev/crud-docs/pkg/config"
	"github.com/kutbudev/crud-docs/pkg/service"
)

// Options tune the router
type Options struct {
	// BaseURL prefixes every link. Empty means the request host is used.
	BaseURL string
	// Observer, when set, receives every handled exchange.
	Observer restdocs.Observer
	Logger   *slog.Logger
}

// NewRouter wires the crud and tag endpoints onto a gin engine.
func NewRouter(svc *service.Service, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	if opts.Observer != nil {
		r.Use(restdocs.Middleware(opts.Observer))
	}

	h := handlers.New(svc, opts.BaseURL, logger)

	r.GET("/", h.Index)
	r.GET("/health", h.Health)

	crud := r.Group("/crud")
	{
		crud.GET("", h.ListCrud)
		crud.POST("", h.CreateCrud)
		crud.GET("/:id", h.GetCrud)
		crud.PATCH("/:id", h.PatchCrud)
		crud.PUT("/:id", h.PutCrud)
		crud.DELETE("/:id", h.DeleteCrud)
	}

	tags := r.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.POST("", h.CreateTag)
		tags.GET("/:id", h.GetTag)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	}
}

// Server owns the listening HTTP server
type Server struct {
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a Server for handler using the configured timeouts.
func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

func (s *Server) Addr() string { return s.server.Addr }

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("server started", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.server.Shutdown(ctx)
}
