package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/pkg/health"
	"github.com/trinhly333/worksheet/pkg/middleware"
)

const (
	adminRole    = "admin"
	adminSubject = "admin"

	// activeCampaignsMaxAge is how long browsers may cache the banner list.
	activeCampaignsMaxAge = 60
)

// Services bundles the application services the router exposes.
type Services struct {
	Campaigns *service.CampaignService
	Carts     *service.CartService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Customers *service.CustomerService
}

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	ServiceName   string
	AdminAPIToken string
	CORSOrigins   []string
	PprofCIDRs    []string
}

// NewRouter creates a chi router with all storefront and admin routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}

	// Global middleware
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	campaignHandler := NewCampaignHandler(svcs.Campaigns, logger)
	cartHandler := NewCartHandler(svcs.Carts, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, svcs.Orders, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	customerHandler := NewCustomerHandler(svcs.Customers, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Storefront, public
		r.With(middleware.CacheControl(activeCampaignsMaxAge)).Get("/campaigns/active", campaignHandler.ListActiveCampaigns)
		r.Post("/discounts/validate", campaignHandler.ValidateCode)
		r.With(middleware.NoStore).Get("/orders/{orderNumber}/status", checkoutHandler.OrderStatus)

		// Storefront, per session
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(SessionFromHeader)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)

				r.Post("/discount", cartHandler.ApplyDiscount)
				r.Delete("/discount", cartHandler.RemoveDiscount)
			})

			r.Post("/checkout", checkoutHandler.Checkout)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.Auth(middleware.StaticTokenValidator(cfg.AdminAPIToken, adminSubject, adminRole)))
			r.Use(middleware.RequireRole(adminRole))

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", campaignHandler.CreateCampaign)
				r.Get("/", campaignHandler.ListCampaigns)
				r.Get("/{id}", campaignHandler.GetCampaign)
				r.Put("/{id}", campaignHandler.UpdateCampaign)
				r.Delete("/{id}", campaignHandler.DeleteCampaign)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{id}", orderHandler.GetOrder)
				r.Post("/{id}/confirm", orderHandler.ConfirmOrder)
				r.Post("/{id}/cancel", orderHandler.CancelOrder)
				r.Put("/{id}/status", orderHandler.UpdateStatus)
				r.Post("/{id}/reconcile-usage", orderHandler.ReconcileUsage)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", customerHandler.ListCustomers)
				r.Get("/{id}", customerHandler.GetCustomer)
				r.Put("/{id}/status", customerHandler.UpdateStatus)
			})
		})
	})

	return r
}
