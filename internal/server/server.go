// Package server is the HTTP layer around the scoring engine: request
// binding, auth, per-caller rate limiting, and rendering of run metrics as
// response headers. The concurrency gate is shared process-wide so the bound
// on in-flight model calls holds across callers.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/funnelalchemy/prospect-scorer/internal/config"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/engine"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/limits"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is implemented by inference clients that support a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	client engine.Invoker
	pinger Pinger
	gate   *limits.ConcurrencyGate

	mu       sync.Mutex
	limiters map[string]*limits.RateLimiter
}

func New(cfg *config.Config, client engine.Invoker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		client:   client,
		gate:     limits.NewConcurrencyGate(cfg.Scoring.MaxConcurrent),
		limiters: make(map[string]*limits.RateLimiter),
	}
	if p, ok := client.(Pinger); ok {
		s.pinger = p
	}
	return s
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	scored := r.Group("/", bearerAuth(s.cfg.APIKeys))
	scored.POST("/score-prospects-batch", s.handleScore)
	// Legacy endpoint kept for older integrations; same semantics.
	scored.POST("/score_prospects", s.handleScore)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("scorer listening", zap.String("addr", s.cfg.Listen))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// limiterFor returns the caller's rate limiter, creating it on first use.
// The window state outlives individual requests so the trailing-minute bound
// holds across them.
func (s *Server) limiterFor(apiKey string) *limits.RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, found := s.limiters[apiKey]; found {
		return l
	}
	l := limits.NewRateLimiter(s.cfg.Scoring.RequestsPerMinute, time.Minute)
	s.limiters[apiKey] = l
	return l
}

// orchestratorFor builds a per-request orchestrator over the caller's shared
// limiter and the global gate.
func (s *Server) orchestratorFor(apiKey string) *engine.Orchestrator {
	sc := s.cfg.Scoring
	return engine.New(s.client, s.limiterFor(apiKey), s.gate, engine.Options{
		ChunkSize:      sc.ChunkSize,
		RequestTimeout: sc.RequestTimeout,
		Retry: engine.RetryPolicy{
			MaxRetries:        sc.MaxRetries,
			BackoffInitial:    sc.BackoffInitial,
			BackoffMax:        sc.BackoffMax,
			BackoffJitterFrac: sc.BackoffJitterFrac,
		},
	}, s.log)
}
