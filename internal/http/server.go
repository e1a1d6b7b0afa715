package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"it10bb/internal/log"
	"it10bb/internal/middleware/ratelimit"
	"it10bb/internal/middleware/security"
	"it10bb/internal/middleware/trace"
	"it10bb/internal/services"
)

// Options configures the estimate API server.
type Options struct {
	Addr              string
	Service           *services.EstimateService
	RequestsPerMinute int
	TrustedProxies    []string
	Logger            *log.Logger
}

// Server serves household estimates over HTTP.
type Server struct {
	http.Server
	svc      *services.EstimateService
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	ready        atomic.Bool
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limiterConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		limiterConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		svc:      opts.Service,
		limiter:  ratelimit.NewLimiter(limiterConfig),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/estimates", s.handleEstimate)
	mux.HandleFunc("/categories", handleCategories)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/stats", s.handleStats)

	// Outermost first: logger, trace, request-scoped logger, headers,
	// detection, rate limiting.
	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, onRateLimited, http.MethodPost)(h)
	h = detector.Middleware(logger.WithComponent(log.ComponentSecurity))(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.ready.Store(true)
	return s
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// Shutdown marks the server unready, stops background routines and drains
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
