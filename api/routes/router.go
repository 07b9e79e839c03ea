package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/storefront-backend/api/controllers"
	"github.com/vendora/storefront-backend/api/middleware"
	cartsvc "github.com/vendora/storefront-backend/internal/cart"
	couponsvc "github.com/vendora/storefront-backend/internal/coupons"
	notifsvc "github.com/vendora/storefront-backend/internal/notifications"
	ordersvc "github.com/vendora/storefront-backend/internal/orders"
	paymentsvc "github.com/vendora/storefront-backend/internal/payments"
	"github.com/vendora/storefront-backend/internal/payments/gateways"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/internal/session"
	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/db"
	"github.com/vendora/storefront-backend/pkg/logger"
	"github.com/vendora/storefront-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Stripe may be nil when
// the gateway is not configured; its routes then answer with an internal
// error instead of panicking at boot.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Sessions      *session.Manager
	Converter     *pricing.Converter
	Cart          cartsvc.Service
	Orders        ordersvc.Service
	Coupons       couponsvc.Service
	Payments      paymentsvc.Service
	Notifications notifsvc.Service
	Stripe        *gateways.Stripe
	Keys          controllers.PublishableKeys
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A nil redis client disables idempotency replay and rate limiting
	// rather than panicking mid-request.
	var idemStore redis.IdempotencyStore
	var limitStore middleware.RateLimiterStore
	if deps.Redis != nil {
		idemStore = deps.Redis
		limitStore = deps.Redis
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
	)
	verifyPolicy := middleware.NewRateLimitPolicy(
		"verify",
		cfg.RateLimit.VerifyWindow,
		cfg.RateLimit.VerifyIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(deps.Sessions, logg))
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAdd(deps.Cart, logg))
			r.Delete("/items", controllers.CartRemove(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Idempotency(idemStore, logg))

			r.With(
				middleware.CartSession(deps.Sessions, logg),
				middleware.RateLimit(checkoutPolicy, limitStore, logg),
			).Post("/", controllers.Checkout(deps.Orders, logg))

			r.Get("/items/track/{id}", controllers.OrderTrackItem(deps.Orders, logg))

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(deps.Orders, deps.Converter, deps.Keys, logg))
				r.Get("/status", controllers.OrderStatus(deps.Orders, logg))
				r.Post("/coupons", controllers.CouponApply(deps.Coupons, logg))
				r.Post("/payments/stripe/session", controllers.StripeSession(deps.Orders, deps.Stripe, logg))
				r.With(middleware.RateLimit(verifyPolicy, limitStore, logg)).
					Get("/payments/{gateway}/verify", controllers.PaymentVerify(deps.Payments, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(deps.Notifications, logg))
			r.Post("/{id}/seen", controllers.NotificationMarkSeen(deps.Notifications, logg))
			r.Post("/seen-all", controllers.NotificationsMarkAllSeen(deps.Notifications, logg))
		})
	})

	return r
}
