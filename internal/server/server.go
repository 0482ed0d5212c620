// Package server exposes the execution service and template store over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/reportql/internal/runner"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/internal/state"
)

// Server is the reportql HTTP execution service.
type Server struct {
	service *runner.Service
	store   *state.Store
	catalog *schema.Catalog
	addr    string
	logger  *slog.Logger
}

// Config holds server construction parameters.
type Config struct {
	Service *runner.Service
	Store   *state.Store
	Catalog *schema.Catalog
	Addr    string
	Logger  *slog.Logger
}

// NewServer creates a server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		service: cfg.Service,
		store:   cfg.Store,
		catalog: cfg.Catalog,
		addr:    cfg.Addr,
		logger:  logger,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleListModels)
		r.Post("/queries", s.handleRunQuery)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Post("/preview", s.handleRunPreview)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleSaveTemplate)
			r.Get("/{templateID}", s.handleGetTemplate)
			r.Delete("/{templateID}", s.handleDeleteTemplate)
		})
	})

	return r
}

// Serve starts the server and blocks until the context is cancelled. On
// shutdown it drains in-flight background jobs.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting reportql server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down reportql server")
		err := srv.Shutdown(shutdownCtx)
		s.service.Wait()
		return err
	})

	return eg.Wait()
}
