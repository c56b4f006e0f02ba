// Package server provides the read-only HTTP API over the latest build.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/partnermap/internal/config"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/search"
	"github.com/hyperjump/partnermap/pkg/utils"
	"go.uber.org/zap"
)

// snapshot is one build as served by the API. It is never modified after publication.
type snapshot struct {
	result    *models.Result
	index     *search.Index
	updatedAt time.Time
}

// RouteFinder looks up the routes that pass through a location.
// *storage.Catalog implements it.
type RouteFinder interface {
	RoutesThrough(ctx context.Context, name string) ([]string, error)
}

// Server is the HTTP server for the map front end.
type Server struct {
	config  *config.ServerConfig
	finder  RouteFinder
	outputs []string
	logger  *zap.Logger

	srvMu   sync.Mutex
	server  *http.Server
	stopped bool

	mu      sync.RWMutex
	current *snapshot
}

// NewServer creates a server. finder may be nil, in which case routes through a
// location are looked up in the served build. outputs are the document paths
// reported by the status endpoint.
func NewServer(cfg *config.ServerConfig, finder RouteFinder, logger *zap.Logger, outputs ...string) *Server {
	return &Server{
		config:  cfg,
		finder:  finder,
		outputs: outputs,
		logger:  utils.OrNop(logger),
	}
}

// Update publishes res as the build served by the API, replacing the previous one.
func (s *Server) Update(res *models.Result) error {
	idx, err := search.NewIndex(res)
	if err != nil {
		return err
	}
	next := &snapshot{result: res, index: idx, updatedAt: time.Now().UTC()}

	// Searches hold the read lock, so prev is idle once the write lock is taken.
	s.mu.Lock()
	prev := s.current
	s.current = next
	if prev != nil {
		if err := prev.index.Close(); err != nil {
			s.logger.Warn("failed to close previous search index", zap.Error(err))
		}
	}
	s.mu.Unlock()

	s.logger.Debug("snapshot updated",
		zap.Int("routes", len(res.Routes)),
		zap.Int("locations", len(res.Locations)))
	return nil
}

func (s *Server) latest() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/routes/{id}", s.handleRoute)
		r.Get("/locations", s.handleLocations)
		r.Get("/locations/{name}/routes", s.handleLocationRoutes)
		r.Get("/carriers", s.handleCarriers)
		r.Get("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
// It returns http.ErrServerClosed when Stop was called, including before Start.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.srvMu.Lock()
	if s.stopped {
		s.srvMu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server = srv
	s.srvMu.Unlock()

	s.logger.Info("Starting server", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Stop gracefully shuts down the server. A later Start returns immediately.
func (s *Server) Stop(ctx context.Context) error {
	s.srvMu.Lock()
	s.stopped = true
	srv := s.server
	s.srvMu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
