package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vendora/storefront-backend/api/controllers"
	"github.com/vendora/storefront-backend/api/routes"
	"github.com/vendora/storefront-backend/internal/address"
	"github.com/vendora/storefront-backend/internal/cart"
	"github.com/vendora/storefront-backend/internal/coupons"
	"github.com/vendora/storefront-backend/internal/notifications"
	"github.com/vendora/storefront-backend/internal/orders"
	"github.com/vendora/storefront-backend/internal/payments"
	"github.com/vendora/storefront-backend/internal/payments/gateways"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/internal/products"
	"github.com/vendora/storefront-backend/internal/session"
	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/db"
	"github.com/vendora/storefront-backend/pkg/enums"
	"github.com/vendora/storefront-backend/pkg/logger"
	"github.com/vendora/storefront-backend/pkg/migrate"
	"github.com/vendora/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	converter, err := pricing.NewConverter(cfg.Rates)
	if err != nil {
		logg.Error(context.Background(), "failed to seed exchange rates", err)
		os.Exit(1)
	}
	if cfg.Rates.RefreshURL != "" {
		// Best effort; the seeded rates stay in place when the fetch fails.
		rates, err := pricing.FetchRates(context.Background(), nil, cfg.Rates.RefreshURL)
		if err != nil {
			logg.Warn(context.Background(), "exchange rate refresh failed, using seeded rates")
		} else {
			converter.Reload(rates)
		}
	}

	taxes, err := pricing.LoadTaxTable(cfg.Checkout.TaxTablePath)
	if err != nil {
		logg.Error(context.Background(), "failed to load tax table", err)
		os.Exit(1)
	}
	serviceFee, err := pricing.NewServiceFee(cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to configure service fee", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	cartRepo := cart.NewRepository(gdb)
	productsRepo := products.NewRepository(gdb)
	ordersRepo := orders.NewRepository(gdb)
	addressRepo := address.NewRepository(gdb)
	couponsRepo := coupons.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)

	cartService, err := cart.NewService(cartRepo, dbClient, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, cartService, addressRepo, productsRepo, taxes, serviceFee)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	couponsService, err := coupons.NewService(couponsRepo, ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	registry, stripeGateway, keys := buildGateways(cfg, logg)

	paymentsService, err := payments.NewService(ordersRepo, registry, cartService, notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessions,
			Converter:     converter,
			Cart:          cartService,
			Orders:        ordersService,
			Coupons:       couponsService,
			Payments:      paymentsService,
			Notifications: notificationsService,
			Stripe:        stripeGateway,
			Keys:          keys,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

// buildGateways registers every configured payment verifier. A gateway with
// no credentials stays unregistered and its verify calls answer with a
// validation error instead of a misconfigured client.
func buildGateways(cfg *config.Config, logg *logger.Logger) (*gateways.Registry, *gateways.Stripe, controllers.PublishableKeys) {
	registry := gateways.NewRegistry()
	var stripeGateway *gateways.Stripe
	var keys controllers.PublishableKeys

	if cfg.Stripe.SecretKey != "" {
		gw, err := gateways.NewStripe(cfg.Stripe)
		if err != nil {
			logg.Warn(context.Background(), "stripe gateway disabled: "+err.Error())
		} else {
			stripeGateway = gw
			registry.Register(enums.PaymentMethodStripe, gw)
			keys.Stripe = gw.PublicKey()
		}
	}
	if cfg.PayPal.ClientID != "" {
		gw, err := gateways.NewPayPal(cfg.PayPal)
		if err != nil {
			logg.Warn(context.Background(), "paypal gateway disabled: "+err.Error())
		} else {
			registry.Register(enums.PaymentMethodPayPal, gw)
		}
	}
	if cfg.Paystack.PrivateKey != "" {
		gw, err := gateways.NewPaystack(cfg.Paystack)
		if err != nil {
			logg.Warn(context.Background(), "paystack gateway disabled: "+err.Error())
		} else {
			registry.Register(enums.PaymentMethodPaystack, gw)
			keys.Paystack = cfg.Paystack.PublicKey
		}
	}
	if cfg.Flutterwave.PrivateKey != "" {
		gw, err := gateways.NewFlutterwave(cfg.Flutterwave)
		if err != nil {
			logg.Warn(context.Background(), "flutterwave gateway disabled: "+err.Error())
		} else {
			registry.Register(enums.PaymentMethodFlutterwave, gw)
			keys.Flutterwave = cfg.Flutterwave.PublicKey
		}
	}

	return registry, stripeGateway, keys
}
