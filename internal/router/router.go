// internal/router/router.go
package router

import (
	"net/http"
	"strconv"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/internal/handler"
	"paylink-service/internal/middleware"
	"paylink-service/pkg/response"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paylink_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

type Handlers struct {
	PaymentLinks *handler.PaymentLinkHandler
	Checkout     *handler.CheckoutHandler
	Admin        *handler.AdminHandler
	Stream       *handler.StreamHandler
	// Sessions is nil when demo login is disabled.
	Sessions *handler.SessionHandler
}

func SetupRoutes(h Handlers, auth *middleware.AuthMiddleware, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(chimw.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	developer := auth.Require(domain.RoleDeveloper, domain.RoleAdmin)
	admin := auth.Require(domain.RoleAdmin)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// The stream is long lived and must not sit behind the request
		// timeout.
		r.With(auth.Optional).Get("/payment-links/{id}/stream", h.Stream.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			if h.Sessions != nil {
				r.Post("/sessions", h.Sessions.Create)
			}

			// ============================================
			// DEVELOPER PORTAL
			// ============================================
			r.Group(func(r chi.Router) {
				r.Use(developer)
				r.Post("/payment-links", h.PaymentLinks.Create)
				r.Get("/payment-links", h.PaymentLinks.List)
				r.Get("/payment-links/{id}", h.PaymentLinks.Get)
				r.Get("/projects", h.PaymentLinks.ListProjects)
				r.Get("/settlement-accounts", h.PaymentLinks.ListSettlementAccounts)
			})

			// ============================================
			// BUYER CHECKOUT
			// ============================================
			r.Group(func(r chi.Router) {
				r.Use(auth.Optional)
				r.Get("/payment-links/{id}/details", h.PaymentLinks.Details)
				r.Post("/payment-links/{id}/reassign", h.PaymentLinks.RequestReassign)
				r.Get("/payment-links/{id}/checkout", h.Checkout.Checkout)
				r.Get("/payment-links/{id}/kyc", h.Checkout.GetKycStatus)
				r.Post("/payment-links/{id}/kyc/start", h.Checkout.StartKyc)
				r.Get("/payment-links/{id}/wallets/whitelist", h.Checkout.GetWalletStatus)
				r.Post("/payment-links/{id}/wallets/whitelist", h.Checkout.SubmitWallet)
				r.Get("/payment-links/{id}/deposit-address", h.Checkout.GetDepositAddress)
				r.Get("/payment-links/{id}/transaction", h.Checkout.GetTransactionStatus)
			})

			// ============================================
			// ADMIN (KYC provider, wallet verifier, settlement callbacks)
			// ============================================
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Patch("/admin/payment-links/{id}/status", h.Admin.UpdateStatus)
				r.Post("/admin/payment-links/{id}/kyc/review", h.Admin.ReviewKyc)
				r.Post("/admin/payment-links/{id}/wallet/verify", h.Admin.VerifyWallet)
				r.Post("/admin/payment-links/{id}/transaction", h.Admin.UpdateTransaction)
			})
		})
	})

	return r
}

// LoggerMiddleware logs HTTP requests and records request metrics.
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()))
		})
	}
}
