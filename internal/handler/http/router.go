package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/internal/service"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/health"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/middleware"
)

// RouterConfig carries everything the HTTP surface needs besides the service.
type RouterConfig struct {
	TokenValidator middleware.TokenValidator
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all order routes registered.
//
// The three gateway callbacks are deliberately unauthenticated: SSLCommerz
// calls them server-to-server and the customer's browser follows them, neither
// carrying a bearer token. The single-use payment token in the query string is
// what ties the callback to an order.
func NewRouter(
	orderService *service.OrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("gizmobuy"))
	r.Use(middleware.Tracing("gizmobuy"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	orderHandler := NewOrderHandler(orderService, logger)
	auth := middleware.Auth(cfg.TokenValidator)

	r.Route("/api/orders", func(r chi.Router) {
		// Gateway callbacks: no auth, no JSON, redirect always.
		r.Get("/success", orderHandler.PaymentSuccess)
		r.Post("/success", orderHandler.PaymentSuccess)
		r.Get("/fail", orderHandler.PaymentFail)
		r.Post("/fail", orderHandler.PaymentFail)
		r.Get("/cancel", orderHandler.PaymentCancel)
		r.Post("/cancel", orderHandler.PaymentCancel)

		// Customer endpoints.
		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireRole(domain.RoleCustomer))
			r.With(ContentTypeJSON).Post("/init-payment", orderHandler.InitPayment)
			r.Get("/my-orders", orderHandler.MyOrders)
		})

		// Admin endpoints.
		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireRole(domain.RoleAdmin))
			r.Get("/sells-history", orderHandler.SellsHistory)
			r.Get("/dashboard", orderHandler.Dashboard)
			r.With(ContentTypeJSON).Put("/{id}", orderHandler.UpdateOrderStatus)
		})
	})

	return r
}
