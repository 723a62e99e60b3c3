package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 5 * time.Second

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer builds the router and hub.
//
// Background workers do NOT start until Start is called, so tests can
// construct the server and use Router() without goroutines running.
func NewServer(cfg RouterConfig) *Server {
	if cfg.RateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		cfg.RateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	if cfg.Origins == nil {
		cfg.Origins = DefaultOrigins()
	}

	s := &Server{
		engine:      cfg.Engine,
		wsHub:       NewWebSocketHub(cfg.Input, cfg.Origins, cfg.MaxConnections),
		rateLimiter: cfg.RateLimiter,
	}
	s.router = NewRouter(cfg)
	s.setupWebSocketRoutes()

	return s
}

// setupWebSocketRoutes adds routes that need the hub instance
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
}

// Start runs the hub, the broadcast loop and the HTTP listener until ctx
// is cancelled. It is the only method that opens a listener.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.wsHub.Run(ctx)
	s.wsHub.StartBroadcastLoop(ctx, s.engine)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 API server starting on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		return errors.Wrap(err, "api server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()
	log.Println("🌐 API server stopped")
	if err != nil {
		return errors.Wrap(err, "api shutdown")
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the websocket hub, mostly for tests
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop releases background resources
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
