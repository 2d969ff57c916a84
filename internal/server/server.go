// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docusign/api-request-builder-open-src/internal/codegen"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
	"github.com/docusign/api-request-builder-open-src/internal/session"
	"github.com/docusign/api-request-builder-open-src/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port      int
	Tables    *schema.Tables
	Generator *codegen.Generator
	Sessions  *session.Manager
	CacheSize int
	Logger    *slog.Logger
}

// New returns the router with every route registered.
func New(cfg Config) (http.Handler, error) {
	if cfg.Tables == nil || cfg.Generator == nil || cfg.Sessions == nil {
		return nil, errors.New("server: tables, generator and sessions are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 512
	}
	progs, err := newPrograms(cfg.Generator, size)
	if err != nil {
		return nil, err
	}

	h := &handlers{tables: cfg.Tables, programs: progs, logger: logger}
	ws := wire.NewHandler(cfg.Sessions, progs, cfg.Tables.Version, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", h.languages)
		r.Get("/schema/objects", h.objectTypes)
		r.Get("/schema/objects/{name}", h.objectType)
		r.Post("/build", h.build)
		r.Post("/generate/{language}", h.generate)
		r.Get("/ws", ws.ServeHTTP)
	})
	return r, nil
}

// Run starts the HTTP server and stops it when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	handler, err := New(cfg)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("starting server", "addr", addr, "schema_version", cfg.Tables.Version)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
