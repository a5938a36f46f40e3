package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/monisha-uniforms/storefront-backend/api"
	"github.com/monisha-uniforms/storefront-backend/api/controllers"
	"github.com/monisha-uniforms/storefront-backend/api/routes"
	"github.com/monisha-uniforms/storefront-backend/internal/accounts"
	"github.com/monisha-uniforms/storefront-backend/internal/cart"
	"github.com/monisha-uniforms/storefront-backend/internal/catalog"
	"github.com/monisha-uniforms/storefront-backend/internal/inventory"
	"github.com/monisha-uniforms/storefront-backend/internal/reviews"
	"github.com/monisha-uniforms/storefront-backend/internal/snapshot"
	"github.com/monisha-uniforms/storefront-backend/internal/wishlist"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
	"github.com/monisha-uniforms/storefront-backend/pkg/identity"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/mailer"
	"github.com/monisha-uniforms/storefront-backend/pkg/metrics"
	"github.com/monisha-uniforms/storefront-backend/pkg/pubsub"
	"github.com/monisha-uniforms/storefront-backend/pkg/redis"
	"github.com/monisha-uniforms/storefront-backend/pkg/storage/gcs"
)

// guestStateMerger lets the accounts service pull guest cart and wishlist
// state into a freshly signed-in account.
type guestStateMerger struct {
	cart     cart.Service
	wishlist wishlist.Service
}

func (m guestStateMerger) MergeGuestCart(ctx context.Context, guestID, userID string) error {
	return m.cart.MergeGuestCart(ctx, guestID, userID)
}

func (m guestStateMerger) MergeGuestWishlist(ctx context.Context, guestID, userID string) error {
	return m.wishlist.MergeGuestWishlist(ctx, guestID, userID)
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.Firebase, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing document store", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	if pubsubClient != nil {
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	}

	var gcsClient *gcs.Client
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(ctx, cfg.GCS, cfg.Firebase.CredentialsFile, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap object storage", err)
			os.Exit(1)
		}
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing object storage", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	remoteMetrics := metrics.NewRemoteCallMetrics(registry)

	snaps := snapshot.New(redisClient, cfg.Guest.SnapshotTTL, logg)
	sub, err := redisClient.PSubscribe(ctx, redisClient.ChannelPattern())
	if err != nil {
		logg.Error(ctx, "failed to open snapshot relay subscription", err)
		os.Exit(1)
	}
	go snaps.Relay(ctx, sub.Channel())

	cartRepo, err := cart.NewRepo(dbClient, cfg.Firebase, remoteMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build cart repo", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, cart.NewGuestStore(snaps), pubsubClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to build cart service", err)
		os.Exit(1)
	}

	wishlistRepo, err := wishlist.NewRepo(dbClient, cfg.Firebase)
	if err != nil {
		logg.Error(ctx, "failed to build wishlist repo", err)
		os.Exit(1)
	}
	wishlistService, err := wishlist.NewService(wishlistRepo, wishlist.NewGuestStore(snaps), pubsubClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to build wishlist service", err)
		os.Exit(1)
	}

	catalogRepo, err := catalog.NewRepo(dbClient, cfg.Firebase)
	if err != nil {
		logg.Error(ctx, "failed to build catalog repo", err)
		os.Exit(1)
	}
	var imageResolver catalog.ImageResolver
	if gcsClient != nil {
		imageResolver = gcsClient
	}
	catalogService, err := catalog.NewService(catalogRepo, imageResolver, logg)
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}

	reviewsRepo, err := reviews.NewRepo(dbClient, cfg.Firebase)
	if err != nil {
		logg.Error(ctx, "failed to build reviews repo", err)
		os.Exit(1)
	}
	reviewsService, err := reviews.NewService(reviewsRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to build reviews service", err)
		os.Exit(1)
	}

	inventoryRepo, err := inventory.NewRepo(dbClient, cfg.Firebase)
	if err != nil {
		logg.Error(ctx, "failed to build inventory repo", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(inventoryRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to build inventory service", err)
		os.Exit(1)
	}

	admin, err := identity.NewAdmin(ctx, cfg.Firebase, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap identity provider", err)
		os.Exit(1)
	}
	passwords, err := identity.NewRESTClient(cfg.Firebase, remoteMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build password client", err)
		os.Exit(1)
	}

	var mailSender mailer.Sender
	if cfg.Mail.SendgridAPIKey != "" {
		sender, err := mailer.New(cfg.Mail, logg)
		if err != nil {
			logg.Error(ctx, "failed to build mailer", err)
			os.Exit(1)
		}
		mailSender = sender
	}

	accountsRepo, err := accounts.NewRepo(dbClient, cfg.Firebase)
	if err != nil {
		logg.Error(ctx, "failed to build accounts repo", err)
		os.Exit(1)
	}
	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Profiles:     accountsRepo,
		Admin:        admin,
		Passwords:    passwords,
		Mail:         mailSender,
		Merger:       guestStateMerger{cart: cartService, wishlist: wishlistService},
		AccountClass: cfg.Firebase.ExpectedAccountClass,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build accounts service", err)
		os.Exit(1)
	}

	checks := map[string]controllers.Pinger{
		"firestore": dbClient,
		"redis":     redisClient,
	}
	if pubsubClient != nil {
		checks["pubsub"] = pubsubClient
	}
	if gcsClient != nil {
		checks["gcs"] = gcsClient
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:       cfg,
		Logger:       logg,
		HTTPMetrics:  httpMetrics,
		Registry:     registry,
		Verifier:     admin,
		Redis:        redisClient,
		HealthChecks: checks,
		Accounts:     accountsService,
		Catalog:      catalogService,
		Cart:         cartService,
		Wishlist:     wishlistService,
		Reviews:      reviewsService,
		Inventory:    inventoryService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := api.NewServer(addr, handler, logg)
	if err := server.Run(ctx); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}
