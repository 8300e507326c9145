// Package app contains the application setup for the Storefront service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stitchpress/storefront/pkg/auth"
	"github.com/stitchpress/storefront/pkg/config"
	"github.com/stitchpress/storefront/pkg/messaging"
	"github.com/stitchpress/storefront/pkg/server"
	"github.com/stitchpress/storefront/pkg/web"
	"github.com/stitchpress/storefront/storefront_service/internal/cart"
	"github.com/stitchpress/storefront/storefront_service/internal/checkout"
	appcfg "github.com/stitchpress/storefront/storefront_service/internal/config"
	"github.com/stitchpress/storefront/storefront_service/internal/notify"
	"github.com/stitchpress/storefront/storefront_service/internal/order"
	"github.com/stitchpress/storefront/storefront_service/internal/payment"
	"github.com/stitchpress/storefront/storefront_service/internal/transport/rest"
)

type Dependencies struct {
	CartManager     *cart.Manager
	CheckoutService *checkout.Service
	Verifier        auth.Verifier
	Logger          *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, verifier auth.Verifier, stripeCfg config.StripeConfig, logger *slog.Logger) *Dependencies {
	notifier := notify.NewEventNotifier(publisher, logger)
	cartManager := cart.NewManager(cart.NewPgStore(dbPool), notifier, cart.Overwrite, logger)
	gateway := payment.NewStripeGateway(stripeCfg, logger)
	checkoutService := checkout.NewService(cartManager, order.NewPgStore(dbPool), gateway, notifier, publisher, logger)

	return &Dependencies{
		CartManager:     cartManager,
		CheckoutService: checkoutService,
		Verifier:        verifier,
		Logger:          logger,
	}
}

// SetupHttpHandler initializes the HTTP router and routes for the Storefront application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	mux.Use(web.OptionalAuth(deps.Verifier, deps.Logger))
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the Storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.CartManager, deps.CheckoutService, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the Storefront application.
func SetupHttpServer(deps *Dependencies, cfg *appcfg.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
