package api

import (
	"context"
	"net/http"
	"time"

	"cryptoledger/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRequestTimeout bounds the time spent on a single request
const DefaultRequestTimeout = 30 * time.Second

// Services holds the ledger services exposed over HTTP
type Services struct {
	Auth        service.AuthService
	Deposits    service.DepositService
	Investments service.InvestmentService
	Withdrawals service.WithdrawalService

	// Health reports whether dependencies are reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Handler serves the ledger REST API
type Handler struct {
	auth        service.AuthService
	deposits    service.DepositService
	investments service.InvestmentService
	withdrawals service.WithdrawalService
	health      func(ctx context.Context) error
}

// NewRouter builds the HTTP router for the ledger API
func NewRouter(services Services, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	h := &Handler{
		auth:        services.Auth,
		deposits:    services.Deposits,
		investments: services.Investments,
		withdrawals: services.Withdrawals,
		health:      services.Health,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(h.auth))

			r.Get("/auth/me", h.Me)

			r.Route("/deposits", func(r chi.Router) {
				r.Get("/", h.ListDeposits)
				r.Post("/", h.CreateDeposit)
				r.Put("/{id}/confirm", h.ConfirmDeposit)
			})

			r.Route("/investments", func(r chi.Router) {
				r.Get("/", h.ListInvestments)
				r.Post("/", h.CreateInvestment)
				r.Get("/{id}", h.GetInvestment)
				r.Put("/{id}/update-roi", h.UpdateInvestmentROI)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", h.ListWithdrawals)
				r.Post("/", h.CreateWithdrawal)
				r.Get("/{id}", h.GetWithdrawal)
				r.Put("/{id}/process", h.ProcessWithdrawal)
				r.Delete("/{id}", h.CancelWithdrawal)
			})
		})
	})

	return r
}

// Health reports liveness, and database reachability when a check is configured
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
