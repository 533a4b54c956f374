// Package api provides the waka-kana-conv REST API server.
package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/matsunana829/waka-kana-conv/core/analyzer"
	"github.com/matsunana829/waka-kana-conv/internal/logging"
)

const serverVersion = "0.3.0"

// Server hosts the conversion API. It owns one analyzer handle; the
// handle is not reentrant-safe, so request handlers serialize access
// through the mutex.
type Server struct {
	cfg    Config
	hub    *Hub
	mu     sync.Mutex
	handle *analyzer.Handle
}

// NewServer creates a server for the given configuration. The analyzer
// is built lazily on the first conversion request.
func NewServer(cfg Config) *Server {
	return &Server{
		cfg:    cfg,
		hub:    NewHub(),
		handle: analyzer.NewHandle(),
	}
}

// Handler returns the server's route handler, wrapped in the request-id
// and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/convert", s.handleConvert)
	mux.HandleFunc("/api/v1/check", s.handleCheck)
	mux.HandleFunc("/api/v1/fix", s.handleFix)
	mux.HandleFunc("/ws", s.handleWebSocket)

	handler := corsMiddleware(s.cfg.AllowedOrigins, mux)
	return logging.CombinedMiddleware(handler)
}

// Start runs the API server. Blocks until the listener fails.
func Start(cfg Config) error {
	s := NewServer(cfg)

	// Build the analyzer up front so a bad dictionary path fails at
	// startup, not on the first request.
	if err := s.handle.Ensure(cfg.Analyzer); err != nil {
		return err
	}

	go s.hub.Run()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logging.Info("api server starting", "addr", addr, "version", serverVersion)
	return http.ListenAndServe(addr, s.Handler())
}
