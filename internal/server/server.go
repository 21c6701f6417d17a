// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nothing0113/database5team/internal/config"
	"github.com/nothing0113/database5team/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxSituationLength is the longest accepted situation, in runes.
	MaxSituationLength = 2000

	// MaxRequestBodySize caps form bodies.
	MaxRequestBodySize = 64 * 1024

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 5 * time.Second

	// WelcomeMessage is returned by GET /.
	WelcomeMessage = "Welcome to FloMe API"
)

// Progress messages, in the order they are streamed.
const (
	ProgressInventory = "Checking the flower inventory..."
	ProgressDesign    = "Designing your bouquet..."
	ProgressStores    = "Finding stores that can make it..."
)

// ============================================================================
// Types
// ============================================================================

// Config holds server settings.
type Config struct {
	Addr string
	// RatePerMinute is the per-client request budget. Zero disables limiting.
	RatePerMinute int
	// ProgressDelay is the pause after each progress line.
	ProgressDelay time.Duration
}

// FromConfig converts the [server] config section.
func FromConfig(cfg config.ServerConfig) Config {
	return Config{
		Addr:          cfg.Addr,
		RatePerMinute: cfg.RatePerMinute,
		ProgressDelay: time.Duration(cfg.ProgressDelayMs) * time.Millisecond,
	}
}

type progressEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type resultEnvelope struct {
	Type string               `json:"type"`
	Data model.Recommendation `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the recommendation API.
type Server struct {
	cfg      Config
	catalog  *Catalog
	designer Recommender
	logger   *zap.Logger
	limiter  *RateLimiter

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server. The catalog must already be seeded.
func New(cfg Config, catalog *Catalog, designer Recommender, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if designer == nil {
		designer = CatalogRecommender{}
	}
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		designer: designer,
		logger:   logger.Named("server"),
	}
	if cfg.RatePerMinute > 0 {
		s.limiter = NewRateLimiter(cfg.RatePerMinute)
	}
	return s
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/recommend", s.handleRecommend)

	chain := Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter, s.logger),
	)
	return chain(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Streams can take as long as the model does.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("stopped")
	return nil
}

// Addr returns the bound address once serving, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.FlowerCount(r.Context())
	if err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "flowers": n})
}

// handleRecommend streams progress lines followed by one result line.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	situation := strings.TrimSpace(r.FormValue("situation"))
	if situation == "" {
		writeError(w, http.StatusBadRequest, "situation is required")
		return
	}
	if utf8.RuneCountInString(situation) > MaxSituationLength {
		writeError(w, http.StatusBadRequest, "situation is too long")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/x-ndjson")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	log := s.logger.With(zap.Int("situation_len", len(situation)))
	emit := func(v any) bool {
		if err := writeLine(w, flusher, v); err != nil {
			log.Debug("client went away", zap.Error(err))
			return false
		}
		return true
	}
	progress := func(msg string) bool {
		return emit(progressEnvelope{Type: "progress", Message: msg}) && s.pause(ctx)
	}

	if !progress(ProgressInventory) {
		return
	}
	inventory, err := s.catalog.Flowers(ctx)
	if err != nil {
		log.Error("load inventory", zap.Error(err))
		emit(resultEnvelope{Type: "result", Data: FallbackDesign()})
		return
	}

	if !progress(ProgressDesign) {
		return
	}
	rec, err := s.designer.Design(ctx, situation, inventory)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("design failed", zap.Error(err))
		rec = FallbackDesign()
	}

	if !progress(ProgressStores) {
		return
	}
	stores, err := s.catalog.StoresFor(ctx, rec.FlowerNames())
	if err != nil {
		log.Error("find stores", zap.Error(err))
		stores = []model.AvailableStore{}
	}
	rec.AvailableStores = stores

	if emit(resultEnvelope{Type: "result", Data: rec}) {
		log.Info("recommendation sent",
			zap.String("title", rec.Title),
			zap.Int("stores", len(stores)),
		)
	}
}

// pause waits ProgressDelay. It returns false when ctx ends first.
func (s *Server) pause(ctx context.Context) bool {
	if s.cfg.ProgressDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.cfg.ProgressDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ============================================================================
// Response Helpers
// ============================================================================

func writeLine(w http.ResponseWriter, f http.Flusher, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return err
	}
	f.Flush()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
