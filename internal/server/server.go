// Package server exposes the build pipeline over HTTP: a compile
// endpoint, build record retrieval, a health probe, and the metrics
// exposition endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/config"
	"github.com/texmill/texmill/internal/metrics"
	"github.com/texmill/texmill/internal/report"
)

// Server wires the engine, the record store, and the metrics recorder
// into an HTTP API.
type Server struct {
	cfg     *config.Config
	engine  *compile.Engine
	store   report.Store
	metrics *metrics.PrometheusRecorder
}

// New constructs a Server. store and rec may be nil, which disables the
// build record endpoint and metrics exposition respectively.
func New(cfg *config.Config, engine *compile.Engine, store report.Store, rec *metrics.PrometheusRecorder) *Server {
	return &Server{cfg: cfg, engine: engine, store: store, metrics: rec}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /compile", s.handleCompile)
	mux.HandleFunc("GET /builds/{id}", s.handleBuildRecord)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// Serve runs the HTTP server until ctx is cancelled, then drains
// in-flight requests. Builds run to completion even during drain, so
// shutdown waits for them before closing.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete, closing", slog.String("error", err.Error()))
			_ = srv.Close()
		}
	}()

	slog.Info("http server listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
