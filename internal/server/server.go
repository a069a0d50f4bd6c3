// Package server exposes the HTTP surface: the chat fallback endpoint, the
// static game assets and the websocket relay.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
	"github.com/ChamsBouzaiene/skyfinder/internal/relay"
)

// Catalog lists the huntable targets.
type Catalog interface {
	Targets() []geometry.Target
	Live(id string) bool
}

// Options configures the server.
type Options struct {
	Addr            string
	PublicDir       string
	ShutdownTimeout time.Duration
}

// Server serves HTTP and websocket traffic.
type Server struct {
	opts      Options
	chat      relay.ChatRunner
	hub       *relay.Hub
	alignment relay.AlignmentSource
	catalog   Catalog
	logger    *zap.Logger

	http *http.Server
}

// New wires a server. alignment and catalog may be nil.
func New(opts Options, chat relay.ChatRunner, hub *relay.Hub, alignment relay.AlignmentSource, catalog Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.PublicDir == "" {
		opts.PublicDir = "public"
	}

	s := &Server{
		opts:      opts,
		chat:      chat,
		hub:       hub,
		alignment: alignment,
		catalog:   catalog,
		logger:    logger,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/target", s.handleTargets)
	mux.HandleFunc("GET /smart", s.handleSmart)
	mux.HandleFunc("GET /guidance.png", s.handleGuidance)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}
	mux.Handle("GET /", http.FileServer(http.Dir(s.opts.PublicDir)))
	return s.logRequests(mux)
}

// Run serves until ctx is canceled, then closes the relay and shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.opts.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	// Shutdown ignores hijacked websocket connections.
	if s.hub != nil {
		s.hub.Close()
	}
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes the connection through for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
