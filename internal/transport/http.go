package transport

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avvvet/chatrag/internal/config"
	"github.com/avvvet/chatrag/internal/handlers"
)

// HTTPTransport serves the REST API, SSE chat streaming included.
type HTTPTransport struct {
	server *http.Server
	config *config.Config
}

func NewHTTPTransport(cfg *config.Config, chat *handlers.ChatHandler, ingest *handlers.IngestHandler) *HTTPTransport {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", chat.HandleChat)
	mux.HandleFunc("GET /api/chat/history", chat.HandleHistory)
	mux.HandleFunc("POST /api/chat/clear", chat.HandleClear)
	mux.HandleFunc("GET /api/sessions", chat.HandleSessions)
	mux.HandleFunc("POST /api/ingest", ingest.HandleIngest)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return &HTTPTransport{
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: corsMiddleware(cfg.FrontendURL, mux),
			// No WriteTimeout: SSE responses stay open for the whole
			// completion stream.
			ReadHeaderTimeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (t *HTTPTransport) Start() error {
	log.Printf("🚀 HTTP server listening on %s", t.config.HTTPAddr)
	if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	log.Println("HTTP server shutting down")
	return t.server.Shutdown(ctx)
}

// corsMiddleware allows the configured frontend origin to call the API from
// a browser.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
