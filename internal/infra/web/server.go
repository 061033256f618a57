package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

const (
	cookieName     = "voicechat_session"
	maxUploadBytes = 10 << 20
	audioRoute     = "/audio/" + application.OutputFileName
)

// Runner executes one recording end to end.
type Runner interface {
	Run(ctx context.Context, capture *domain.Capture, outputPath string) (*domain.Turn, error)
}

type Options struct {
	Addr          string
	SecureCookies bool
	// WriteTimeout must cover a whole pipeline run.
	WriteTimeout time.Duration
	RateLimit    int
	RateWindow   time.Duration
}

// Server hosts the chat page and the turn API.
type Server struct {
	opts        Options
	sessions    *application.Sessions
	gate        *application.Gate
	runner      Runner
	metrics     http.Handler
	logger      *slog.Logger
	rateLimiter *RateLimiter
	mux         *http.ServeMux

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(
	opts Options,
	sessions *application.Sessions,
	gate *application.Gate,
	runner Runner,
	metrics http.Handler,
	logger *slog.Logger,
) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 30
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Minute
	}

	s := &Server{
		opts:        opts,
		sessions:    sessions,
		gate:        gate,
		runner:      runner,
		metrics:     metrics,
		logger:      logger,
		rateLimiter: NewRateLimiter(opts.RateLimit, opts.RateWindow),
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /login", s.rateLimiter.Middleware(s.handleLogin))
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("POST /api/turn", s.rateLimiter.Middleware(s.requireAuth(s.handleTurn)))
	s.mux.HandleFunc("GET "+audioRoute, s.requireAuth(s.handleAudio))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Info("web server starting", "addr", s.opts.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server error", "error", err)
		}
	}()

	go s.pruneRateLimiter(ctx)

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

func (s *Server) pruneRateLimiter(ctx context.Context) {
	ticker := time.NewTicker(s.opts.RateWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Prune()
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
