package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monisha-uniforms/storefront-backend/api/controllers"
	"github.com/monisha-uniforms/storefront-backend/api/middleware"
	"github.com/monisha-uniforms/storefront-backend/internal/accounts"
	"github.com/monisha-uniforms/storefront-backend/internal/cart"
	"github.com/monisha-uniforms/storefront-backend/internal/catalog"
	"github.com/monisha-uniforms/storefront-backend/internal/inventory"
	"github.com/monisha-uniforms/storefront-backend/internal/reviews"
	"github.com/monisha-uniforms/storefront-backend/internal/wishlist"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/identity"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/metrics"
	"github.com/monisha-uniforms/storefront-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Verifier    identity.Verifier
	Redis       *redis.Client

	HealthChecks map[string]controllers.Pinger

	Accounts  accounts.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Reviews   reviews.Service
	Inventory inventory.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.App.PublicOrigin),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.HealthChecks))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ResolveOwner(p.Verifier, logg))
		r.Use(middleware.MutationTimeout(cfg.Remote.CallTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signInPolicy, p.Redis, logg)).Post("/signin", controllers.AuthSignIn(p.Accounts, logg))
			r.With(middleware.AuthRateLimit(signUpPolicy, p.Redis, logg)).Post("/signup", controllers.AuthSignUp(p.Accounts, logg))
			r.Post("/password-reset", controllers.AuthPasswordReset(p.Accounts, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Post("/signout", controllers.AuthSignOut(p.Accounts, logg))
				r.Post("/resend-verification", controllers.AuthResendVerification(p.Accounts, logg))
				r.Post("/change-password", controllers.AuthChangePassword(p.Accounts, logg))
				r.Get("/profile", controllers.AuthProfile(p.Accounts, logg))
			})
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(p.Catalog, logg))
			r.Get("/recent", controllers.CatalogRecent(p.Catalog, logg))
			r.Get("/top-rated", controllers.CatalogTopRated(p.Catalog, logg))
			r.Get("/{productId}", controllers.CatalogDetail(p.Catalog, logg))
			r.Get("/{productId}/stock", controllers.InventoryStock(p.Inventory, logg))

			r.Route("/{productId}/reviews", func(r chi.Router) {
				r.Get("/", controllers.ReviewList(p.Reviews, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth(logg))
					r.Post("/", controllers.ReviewAdd(p.Reviews, p.Accounts, logg))
					r.Put("/{reviewId}", controllers.ReviewUpdate(p.Reviews, logg))
					r.Delete("/{reviewId}", controllers.ReviewDelete(p.Reviews, logg))
					r.Post("/{reviewId}/vote", controllers.ReviewVote(p.Reviews, logg))
				})
			})
		})

		r.Route("/v1/schools", func(r chi.Router) {
			r.Get("/", controllers.SchoolList(p.Catalog, logg))
			r.Get("/{schoolId}", controllers.SchoolDetail(p.Catalog, logg))
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Get("/stream", controllers.CartStream(p.Cart, logg))
			r.Post("/", controllers.CartAdd(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Put("/{lineKey}", controllers.CartUpdateQuantity(p.Cart, logg))
			r.Delete("/{lineKey}", controllers.CartRemove(p.Cart, logg))
			r.Get("/contains/{productId}", controllers.CartContains(p.Cart, logg))
		})

		r.Route("/v1/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(p.Wishlist, logg))
			r.Post("/toggle", controllers.WishlistToggle(p.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(p.Wishlist, logg))
			r.Get("/contains/{productId}", controllers.WishlistContains(p.Wishlist, logg))
		})
	})

	return r
}
