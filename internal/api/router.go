package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"corridor/internal/debug"
	"corridor/internal/game"
	"corridor/internal/input"
	"corridor/internal/metrics"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the frame loop.
type EngineInterface interface {
	// Snapshot returns the latest immutable snapshot (lock-free)
	Snapshot() *game.Snapshot
	Start()
	Stop()
	Restart()
}

// InputSink receives decoded client input. *input.Sampler implements it.
type InputSink interface {
	Apply(ev input.Event) error
}

// DebugSource exposes the instrumentation dump. *debug.Metrics implements it.
type DebugSource interface {
	Snapshot() debug.Dump
}

// FrameSource encodes the last rendered frame. *render.FrameBuffer implements it.
type FrameSource interface {
	WritePNG(w io.Writer) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    Input:  input.NewSampler(),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the frame scheduler (required)
	Engine EngineInterface

	// Input receives key and mouse events (required)
	Input InputSink

	// Debug is the instrumentation collector (optional)
	Debug DebugSource

	// Frames serves /api/frame.png (optional)
	Frames FrameSource

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil. If both are nil,
	// uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// Origins is the CORS and websocket origin policy.
	// If nil, uses DefaultOrigins.
	Origins *OriginPolicy

	// MaxConnections caps concurrent websocket clients (Server only).
	MaxConnections int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the collaborators the handlers read from
type routerHandlers struct {
	engine EngineInterface
	input  InputSink
	debug  DebugSource
	frames FrameSource
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter has no side effects beyond the rate limiter's cleanup goroutine
// when it has to create one: no listeners are opened. Safe to use with
// httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	origins := cfg.Origins
	if origins == nil {
		origins = DefaultOrigins()
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins.Patterns(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		input:  cfg.Input,
		debug:  cfg.Debug,
		frames: cfg.Frames,
	}

	r.Route("/api", func(r chi.Router) {
		// Engine state
		r.Get("/state", h.handleGetState)
		r.Get("/debug", h.handleGetDebug)
		r.Get("/frame.png", h.handleGetFrame)

		// Loop control
		r.Post("/engine/start", h.handleEngineStart)
		r.Post("/engine/stop", h.handleEngineStop)
		r.Post("/engine/restart", h.handleEngineRestart)

		// Input
		r.Post("/input", h.handleInput)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// requestMetrics records latency per route pattern. The pattern, not the
// raw path, is the label so cardinality stays bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
