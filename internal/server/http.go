package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/rot13-echo-service/internal/config"
	"github.com/skypro1111/rot13-echo-service/internal/metrics"
)

const (
	serviceName    = "rot13-echo-service"
	serviceVersion = "1.0.0"
)

// HTTPServer provides HTTP API endpoints for monitoring
type HTTPServer struct {
	server    *http.Server
	listener  net.Listener
	logger    *slog.Logger
	config    *config.Config
	udpServer *UDPServer
	metrics   *metrics.Metrics

	startTime  time.Time
	instanceID string
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, udpServer *UDPServer, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     appConfig,
		udpServer:  udpServer,
		metrics:    m,
		startTime:  time.Now(),
		instanceID: uuid.NewString(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", h.metrics.Handler())

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start binds the listener and serves in the background.
// Listen errors are returned here rather than logged from the goroutine.
func (h *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.server.Addr, err)
	}
	h.listener = listener

	h.logger.Info("Starting HTTP API server",
		slog.String("address", listener.Addr().String()),
	)

	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start
func (h *HTTPServer) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode HTTP response", slog.String("error", err.Error()))
	}
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := h.udpServer.State()
	status, statusCode := "healthy", http.StatusOK
	if state != StateServing {
		status, statusCode = "unhealthy", http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"uptime":      time.Since(h.startTime).String(),
		"instance_id": h.instanceID,
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"udp_server": map[string]interface{}{
				"status":     state.String(),
				"statistics": h.udpServer.GetStatistics(),
			},
		},
	}

	h.writeJSON(w, statusCode, health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"udp":       h.udpServer.GetStatistics(),
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	effective := map[string]interface{}{
		"server": map[string]interface{}{
			"udp_port":          h.config.Server.UDPPort,
			"bind_address":      h.config.Server.BindAddress,
			"max_datagram_size": h.config.Server.MaxDatagramSize,
			"read_buffer_size":  h.config.Server.ReadBufferSize,
			"error_policy":      h.config.Server.ErrorPolicy,
		},
		"http": map[string]interface{}{
			"address": h.config.HTTP.Address,
			"port":    h.config.HTTP.Port,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	h.writeJSON(w, http.StatusOK, effective)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "ROT13 UDP Echo Service",
		"version": serviceVersion,
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Service health check",
			"GET /config":  "Effective service configuration",
			"GET /stats":   "UDP server statistics",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	h.writeJSON(w, http.StatusOK, apiDoc)
}
