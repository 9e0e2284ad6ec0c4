// Observability middleware and HTTP server lifecycle
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nainya/ndstore/internal/logger"
	"github.com/nainya/ndstore/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware counts and logs every request
func MetricsMiddleware(m *metrics.Metrics, log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		if m != nil {
			m.RecordHTTPRequest(path, strconv.Itoa(rec.status))
		}

		event := log.GetZerolog().Debug()
		if rec.status >= http.StatusInternalServerError {
			event = log.GetZerolog().Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration_ms", duration).
			Msg("HTTP request completed")
	})
}

// registerObservability adds metrics, health, readiness and pprof routes
func registerObservability(mux *http.ServeMux, gatherer prometheus.Gatherer, ready func() bool) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"ndstore"}`))
	})

	// Readiness check endpoint
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// HTTPServer owns the listening HTTP server
type HTTPServer struct {
	server *http.Server
	log    *logger.Logger
}

// NewHTTPServer creates a server for handler on addr
func NewHTTPServer(addr string, handler http.Handler, log *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Start serves until Shutdown is called
func (h *HTTPServer) Start() error {
	h.log.GetZerolog().Info().
		Str("metrics", fmt.Sprintf("http://%s/metrics", h.server.Addr)).
		Str("health", fmt.Sprintf("http://%s/health", h.server.Addr)).
		Str("pprof", fmt.Sprintf("http://%s/debug/pprof/", h.server.Addr)).
		Msg("Endpoints available")

	if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	h.log.LogServerShutdown()
	return h.server.Shutdown(ctx)
}
