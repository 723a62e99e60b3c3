// Package metrics owns the process-wide prometheus collectors and the
// localhost debug server (pprof + /metrics).
package metrics

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality. Label values come from code constants,
// never from client input.
var (
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_frame_duration_seconds",
		Help:    "Wall time spent in one guarded frame (update + render)",
		Buckets: []float64{0.001, 0.004, 0.008, 0.016, 0.033, 0.05, 0.1},
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_phase_duration_seconds",
		Help:    "Wall time spent in a guarded phase",
		Buckets: []float64{0.0005, 0.001, 0.004, 0.008, 0.016, 0.033},
	}, []string{"phase"}) // Bounded: "update", "render"

	phaseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_phase_failures_total",
		Help: "Guarded phases that returned an error or panicked",
	}, []string{"phase"})

	consecutiveFaults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_consecutive_faults",
		Help: "Consecutive faulted frames (loop halts at the threshold)",
	})

	engineState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_state",
		Help: "Frame scheduler state: 0 idle, 1 running, 2 degraded, 3 halted",
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_entity_count",
		Help: "Live entities after the dead-entity filter",
	})

	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_frames_total",
		Help: "Frames executed by the scheduler",
	})

	debugCounters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debug_counter_total",
		Help: "Mirror of named instrumentation counters",
	}, []string{"name"}) // Bounded: counter names are compile-time constants

	debugErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debug_errors_total",
		Help: "Errors recorded by the instrumentation subsystem",
	})

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "input_rate"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages broadcast",
	})

	facesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_faces_total",
		Help: "Prism faces considered by the renderer",
	}, []string{"result"}) // Bounded: "drawn", "clipped"

	framesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_frames_published_total",
		Help: "Rendered frames copied into the frame buffer",
	})

	inputEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "input_events_total",
		Help: "Input events applied to the sampler",
	}, []string{"type"})
)

// DebugServerConfig configures the debug server
type DebugServerConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultDebugServerConfig returns safe defaults
func DefaultDebugServerConfig() DebugServerConfig {
	return DebugServerConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// DebugHandler builds the debug mux (pprof, /metrics, /health).
func DebugHandler(cfg DebugServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return handler
}

// StartDebugServer starts the internal observability server.
// It binds to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg DebugServerConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	handler := DebugHandler(cfg)

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordFrame records one scheduler frame
func RecordFrame(duration time.Duration) {
	framesTotal.Inc()
	frameDuration.Observe(duration.Seconds())
}

// RecordPhase records a guarded phase outcome. phase must be "update" or "render".
func RecordPhase(phase string, duration time.Duration, ok bool) {
	phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	if !ok {
		phaseFailures.WithLabelValues(phase).Inc()
	}
}

// UpdateFaults sets the consecutive fault gauge
func UpdateFaults(count int) {
	consecutiveFaults.Set(float64(count))
}

// UpdateEngineState sets the scheduler state gauge
func UpdateEngineState(state int) {
	engineState.Set(float64(state))
}

// UpdateEntityCount sets the live entity gauge
func UpdateEntityCount(count int) {
	entityCount.Set(float64(count))
}

// AddDebugCounter mirrors an instrumentation counter increment
func AddDebugCounter(name string, amount int) {
	if amount <= 0 {
		return
	}
	debugCounters.WithLabelValues(name).Add(float64(amount))
}

// IncDebugErrors counts one recorded error
func IncDebugErrors() {
	debugErrors.Inc()
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// RecordInputEvent counts an applied input event. eventType is one of the
// input.EventType constants.
func RecordInputEvent(eventType string) {
	inputEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordFaces counts drawn and near-plane clipped faces for one frame
func RecordFaces(drawn, clipped int) {
	if drawn > 0 {
		facesTotal.WithLabelValues("drawn").Add(float64(drawn))
	}
	if clipped > 0 {
		facesTotal.WithLabelValues("clipped").Add(float64(clipped))
	}
}

// IncFramesPublished counts one frame buffer publish
func IncFramesPublished() {
	framesPublished.Inc()
}
