// Package web serves an optional localhost status API and a websocket feed of
// daemon events, for status bars and other local dashboards.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.klb.dev/magclip/internal/hub"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/store"
)

// Backend is the read-only daemon surface the server exposes.
type Backend interface {
	Status() message.Status
	Items(ctx context.Context, tab string, f store.Filter) ([]*item.Item, error)
}

// Server is the HTTP + websocket front end.
type Server struct {
	backend Backend
	hub     *hub.Hub
}

// New returns a server; nothing listens until Serve.
func New(b Backend, h *hub.Hub) *Server {
	return &Server{backend: b, hub: h}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/items", s.handleItems)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web listen %s: %w", addr, err)
	}
	if host, _, _ := net.SplitHostPort(addr); host == "" || strings.Contains(host, "0.0.0.0") || host == "::" {
		slog.Warn("web server is binding to all interfaces and may be accessible from the network", "addr", addr)
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("web server listening", "url", "http://"+ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
