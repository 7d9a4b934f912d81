// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"saldo/internal/cache"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// HeaderOwner names the caller. Authentication happens upstream; this API
// only checks that the value is a UUID.
const HeaderOwner = "X-User-Id"

const maxUploadBytes = 10 << 20

// ipLimitFactor sizes the per-address budget when Config leaves it unset, so a
// few owners behind one address are not throttled by each other.
const ipLimitFactor = 4

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr string
	// RateLimitPerMinute is the budget of one owner.
	RateLimitPerMinute int
	// IPRateLimitPerMinute is the budget of one client address across all
	// owners it presents. Zero means ipLimitFactor times the owner budget.
	IPRateLimitPerMinute int
	MaxPageSize          int
	Logger               *log.Logger
}

type Server struct {
	http.Server
	svc    *services.Services
	store  Pinger
	logger *log.Logger

	maxPageSize int
	rateLimiter *ratelimit.Limiter
	ipLimiter   *ratelimit.Limiter
	tracer      *trace.Middleware
	detector    *security.Detector
	caches      *cache.Manager
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. store is only used by /readyz.
func NewServer(cfg Config, svc *services.Services, store Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	ownerLimit := cfg.RateLimitPerMinute
	if ownerLimit <= 0 {
		ownerLimit = ratelimit.DefaultConfig().RequestsPerMinute
	}
	ipLimit := cfg.IPRateLimitPerMinute
	if ipLimit <= 0 {
		ipLimit = ownerLimit * ipLimitFactor
	}

	s := &Server{
		svc:         svc,
		store:       store,
		logger:      logger,
		maxPageSize: cfg.MaxPageSize,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: ownerLimit}),
		ipLimiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: ipLimit}),
		detector:    security.NewDetector(logger),
		caches:      cache.NewManager(),
		started:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(svc.Categories.Cache())
	s.caches.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/v1/accounts", s.owned(s.handleListAccounts))
	mux.HandleFunc("POST /api/v1/accounts", s.owned(s.handleCreateAccount))
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", s.owned(s.handleDeactivateAccount))

	mux.HandleFunc("GET /api/v1/categories", s.owned(s.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", s.owned(s.handleCreateCategory))

	mux.HandleFunc("GET /api/v1/transactions", s.owned(s.handleListTransactions))
	mux.HandleFunc("POST /api/v1/transactions", s.owned(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/v1/transactions/import", s.owned(s.handleImport))
	mux.HandleFunc("GET /api/v1/transactions/export", s.owned(s.handleExport))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.owned(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.owned(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.owned(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/budgets", s.owned(s.handleListBudgets))
	mux.HandleFunc("POST /api/v1/budgets", s.owned(s.handleCreateBudget))
	mux.HandleFunc("GET /api/v1/budgets/{id}", s.owned(s.handleGetBudget))
	mux.HandleFunc("PUT /api/v1/budgets/{id}", s.owned(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.owned(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/v1/reports/summary", s.owned(s.handleSummary))
	mux.HandleFunc("POST /api/v1/seed", s.owned(s.handleSeed))

	return mux
}

// handler wraps mux outermost first: probe screening, headers, request
// logger, request id, the per-address rate limit, then the per-owner one.
// X-User-Id is unauthenticated, so the address budget caps a client that
// rotates owner ids.
func (s *Server) handler(mux http.Handler) http.Handler {
	h := s.rateLimiter.Middleware(s.rateLimitKey, s.onRateLimited)(mux)
	h = s.ipLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.detector.Middleware(h)
}

func (s *Server) rateLimitKey(r *http.Request) string {
	if owner, err := uuid.Parse(r.Header.Get(HeaderOwner)); err == nil {
		return "owner:" + owner.String()
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeErrorCode(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded, retry later")
}

type ownedHandler func(w http.ResponseWriter, r *http.Request, owner string)

// owned resolves the caller from HeaderOwner and tags the request logger
// with it.
func (s *Server) owned(next ownedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderOwner)
		if raw == "" {
			writeErrorCode(w, http.StatusUnauthorized, codeUnauthorized, "missing "+HeaderOwner+" header")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, codeUnauthorized, HeaderOwner+" must be a UUID")
			return
		}
		owner := id.String()
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldOwner, owner))
		next(w, r.WithContext(ctx), owner)
	}
}

// Shutdown stops background goroutines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.ipLimiter.Stop()
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
