package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/embedmcp/embed-mcp/internal/logger"
	"github.com/embedmcp/embed-mcp/internal/mcp"
	"github.com/embedmcp/embed-mcp/pkg/protocol"
)

var log = logger.ForComponent("http")

// Server exposes the dispatch core over HTTP: POST /mcp/ carries JSON-RPC
// envelopes, GET / is a welcome probe and GET /healthz a health check.
type Server struct {
	handler   *mcp.Handler
	apiKey    func() string
	startTime time.Time
	httpSrv   *http.Server
}

// New builds the server. apiKey is read per request so a config reload can
// rotate the key without restart; an empty key disables the check.
func New(addr string, handler *mcp.Handler, apiKey func() string) *Server {
	s := &Server{
		handler:   handler,
		apiKey:    apiKey,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /mcp/", s.requireAPIKey(http.HandlerFunc(s.handleMCP)))
	mux.Handle("POST /mcp", s.requireAPIKey(http.HandlerFunc(s.handleMCP)))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           withCORS(withRequestLog(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	log.Info("http server listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the MCP Server!",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthResponse{
		Status: "ok",
		Uptime: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusOK,
			protocol.NewErrorResponse(protocol.KindParseError, "Failed to read request body", nil, nil))
		return
	}

	req, err := protocol.DecodeRequest(body)
	if err != nil {
		kind := protocol.KindParseError
		if errors.Is(err, protocol.ErrMalformedEnvelope) {
			kind = protocol.KindMalformed
		}
		writeJSON(w, http.StatusOK,
			protocol.NewErrorResponse(kind, fmt.Sprintf("Parse error: %v", err), nil, nil))
		return
	}

	writeJSON(w, http.StatusOK, s.handler.Handle(req))
}

// requireAPIKey rejects requests whose MCP-API-Key header does not match the
// configured key. With no key configured the check is disabled.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.apiKey()
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("MCP-API-Key")
		if provided == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Missing API key. Please provide MCP-API-Key header.",
			})
			return
		}
		if provided != key {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Invalid API key",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
