package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	catalogService catalog.Service,
	normalizer *pricing.Normalizer,
	cartSessions controllers.CartSessions,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if cfg.App.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.App.RequestTimeout))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(catalogService, normalizer, logg))
		r.Get("/products/{productId}", controllers.GetProduct(catalogService, normalizer, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartSessions, logg))
				r.Delete("/", controllers.ClearCart(cartSessions, logg))
				r.Post("/items", controllers.AddCartItem(cartSessions, catalogService, normalizer, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(cartSessions, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartSessions, logg))
			})

			r.Post("/session/logout", controllers.Logout(cartSessions, logg))
		})
	})

	return r
}
