// Package web exposes the audit pipeline, audit history and the latest
// scheduled reports over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"calaudit/internal/config"
	appLog "calaudit/internal/log"
	"calaudit/internal/refresh"
	"calaudit/internal/store"
	"calaudit/internal/telemetry"
)

// MaxUploadBytes caps the size of an uploaded export.
const MaxUploadBytes = 20 << 20

const shutdownTimeout = 10 * time.Second

// SnapshotSource yields the latest scheduled report of a configured source.
type SnapshotSource interface {
	Latest(id string) (refresh.Snapshot, bool)
}

// Server provides the HTTP API.
type Server struct {
	cfg       *config.Config
	snapshots SnapshotSource
	runs      store.RunRepository
	engine    *gin.Engine
}

// NewServer constructs a Server. snapshots and runs may be nil; the endpoints
// backed by them then answer 503.
func NewServer(cfg *config.Config, snapshots SnapshotSource, runs store.RunRepository) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:       cfg,
		snapshots: snapshots,
		runs:      runs,
	}
	s.engine = s.buildEngine()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = MaxUploadBytes
	r.Use(gin.Recovery(), requestLog())
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuth())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(telemetry.Handler()))

	api := r.Group("/api")
	uploads := api.Group("/audit", rateLimit(s.cfg.UploadRateLimit))
	uploads.POST("", s.handleAudit)
	uploads.POST("/xlsx", s.handleAuditXLSX)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/sources/:id/report", s.handleSourceReport)

	r.NoRoute(func(c *gin.Context) {
		notFound(c, "route not found")
	})
	return r
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. A blank
// username or password disables it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuth guards every route except /health.
func (s *Server) basicAuth() gin.HandlerFunc {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			c.Header("WWW-Authenticate", `Basic realm="calaudit", charset="UTF-8"`)
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "unauthorized", "")
			return
		}
		c.Next()
	}
}

// rateLimit throttles with one shared token bucket. A non-positive rate
// disables it.
func rateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	return func(c *gin.Context) {
		if !limiter.Allow() {
			fail(c, http.StatusTooManyRequests, CodeTooManyRequests, "too many requests", "")
			return
		}
		c.Next()
	}
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requestLog records one metric observation and one log line per request.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		telemetry.RecordAPIRequest(c.Request.Method, route, status, latency.Seconds())

		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			appLog.Error("api request", errors.New(http.StatusText(status)), kv...)
		case status >= 400:
			appLog.Warn("api request", kv...)
		default:
			appLog.Debug("api request", kv...)
		}
	}
}

// StartServer serves the API on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, snapshots SnapshotSource, runs store.RunRepository) error {
	s := NewServer(cfg, snapshots, runs)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
