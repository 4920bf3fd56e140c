package ipc

import (
	"context"
	"net/http"
	"strings"
)

// Server wraps an HTTP server with tracker-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Program catalog.
	mux.HandleFunc("GET /api/v1/programs", h.ListPrograms)

	// Session endpoints.
	mux.HandleFunc("POST /api/v1/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{sessionID}", h.GetSession)
	mux.HandleFunc("POST /api/v1/sessions/{sessionID}/shots", h.LogShot)
	mux.HandleFunc("POST /api/v1/sessions/{sessionID}/abandon", h.AbandonSession)
	mux.HandleFunc("POST /api/v1/sessions/{sessionID}/vision", h.AttachVision)
	mux.HandleFunc("GET /api/v1/sessions/{sessionID}/events/stream", h.StreamEvents)

	// Archive endpoints.
	mux.HandleFunc("GET /api/v1/history", h.ListHistory)
	mux.HandleFunc("DELETE /api/v1/history", h.ClearHistory)
	mux.HandleFunc("GET /api/v1/stats", h.GetStats)

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: corsMiddleware(mux),
	}

	return &Server{
		httpServer: srv,
	}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL turns a listen address into a browsable URL. A bare
// ":port" address is reported as localhost.
func FormatListenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// corsMiddleware adds CORS headers for local companion app access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
