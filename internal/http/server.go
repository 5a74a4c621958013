package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "budget/internal/log"
	"budget/internal/services"
)

// Services groups the operations the API exposes.
type Services struct {
	Ledger     *services.LedgerService
	Processor  *services.RecurringProcessor
	Query      *services.QueryService
	Reconciler *services.Reconciler
}

// Server is a thin JSON front end over the ledger services. It adds no
// business rules of its own.
type Server struct {
	http.Server
	svc     Services
	limiter *rateLimiter
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:     svc,
		limiter: newRateLimiter(defaultRequestsPerMinute),
		now:     time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/reports/{kind}", s.handleReport)

	mux.HandleFunc("GET /api/rules", s.handleListRules)
	mux.HandleFunc("POST /api/rules", s.handleCreateRule)
	mux.HandleFunc("POST /api/rules/{id}/pause", s.handleSetRuleActive(false))
	mux.HandleFunc("POST /api/rules/{id}/resume", s.handleSetRuleActive(true))
	mux.HandleFunc("POST /api/recurring/process", s.handleProcessDue)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	s.Handler = chain(mux,
		applog.RequestIDMiddleware(logger.WithComponent(applog.ComponentHTTP)),
		applog.AccessLogMiddleware,
		securityHeaders,
		s.limiter.middleware,
	)

	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady answers once the ledger can be queried.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Query.Info(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
