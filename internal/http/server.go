package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/services"
)

// Server exposes the FinanceService as a JSON API.
type Server struct {
	http.Server
	svc     *services.FinanceService
	logger  *log.Logger
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.FinanceService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}

	s := &Server{
		svc:     svc,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(log.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, log.ClientIP(r))
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestLogger(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/month", s.handleGetMonth)
	mux.HandleFunc("PUT /api/month", s.handleSetMonth)
	mux.HandleFunc("POST /api/month/navigate", s.handleNavigateMonth)

	mux.HandleFunc("GET /api/fixed", s.handleListFixed)
	mux.HandleFunc("POST /api/fixed", s.handleCreateFixed)
	mux.HandleFunc("PUT /api/fixed/{id}", s.handleUpdateFixed)
	mux.HandleFunc("DELETE /api/fixed/{id}", s.handleDeleteFixed)
	mux.HandleFunc("GET /api/fixed/{id}/status", s.handleGetStatus)
	mux.HandleFunc("PUT /api/fixed/{id}/status", s.handleSetStatus)

	mux.HandleFunc("GET /api/variable", s.handleListVariable)
	mux.HandleFunc("POST /api/variable", s.handleCreateVariable)
	mux.HandleFunc("PUT /api/variable/{id}", s.handleUpdateVariable)
	mux.HandleFunc("DELETE /api/variable/{id}", s.handleDeleteVariable)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("GET /api/categories/{id}/budget", s.handleCategoryBudget)
	mux.HandleFunc("PUT /api/categories/{id}/share", s.handleCategoryShare)

	mux.HandleFunc("GET /api/payment-methods", s.handleListPaymentMethods)
	mux.HandleFunc("POST /api/payment-methods", s.handleCreatePaymentMethod)
	mux.HandleFunc("PUT /api/payment-methods/{id}", s.handleUpdatePaymentMethod)
	mux.HandleFunc("DELETE /api/payment-methods/{id}", s.handleDeletePaymentMethod)
	mux.HandleFunc("GET /api/payment-methods/{id}/spent", s.handlePaymentMethodSpent)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{month}", s.handleSnapshot)
	mux.HandleFunc("POST /api/rollover", s.handleRollover)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/reset-day", s.handleSetResetDay)
	mux.HandleFunc("POST /api/settings/lock", s.handleToggleLock)
	mux.HandleFunc("POST /api/settings/sync", s.handleToggleSync)

	mux.HandleFunc("GET /api/export", s.handleExport)
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}
