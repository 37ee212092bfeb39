package httpserver

import (
	"log"
	"net/http"

	"ctxport/internal/workspace"
)

// HTTPServer exposes the MCP streamable transport plus health and event
// endpoints.
type HTTPServer struct {
	mux        *http.ServeMux
	tokens     []string
	version    string
	sessions   *workspace.SessionStore
	mcpHandler http.Handler
	hub        *EventHub
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHTTPServer creates the HTTP server. mcpHandler is the streamable MCP
// transport handler; sessions receives per-request workspace headers.
func NewHTTPServer(tokens []string, version string, sessions *workspace.SessionStore, mcpHandler http.Handler) *HTTPServer {
	s := &HTTPServer{
		mux:        http.NewServeMux(),
		tokens:     tokens,
		version:    version,
		sessions:   sessions,
		mcpHandler: mcpHandler,
		hub:        NewEventHub(),
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes with middleware
func (s *HTTPServer) registerRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))

	// Authenticated endpoints
	s.mux.HandleFunc("/mcp", loggingMiddleware(s.authMiddleware(s.workspaceHeaderMiddleware(s.handleMCP))))
	s.mux.HandleFunc("/events", loggingMiddleware(s.authMiddleware(s.hub.handleWS)))
}

// Hub returns the event hub so the resolver can publish into it.
func (s *HTTPServer) Hub() *EventHub { return s.hub }

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	s.mcpHandler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address
func (s *HTTPServer) ListenAndServe(addr string) error {
	log.Printf("[HTTP] Starting server on %s", addr)
	log.Printf("[HTTP] Registered %d valid tokens", len(s.tokens))
	return http.ListenAndServe(addr, s.mux)
}

// Handler returns the routed handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler { return s.mux }
