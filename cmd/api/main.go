package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/config"
	"github.com/mediarent/storefront-api/internal/domain/booking"
	"github.com/mediarent/storefront-api/internal/domain/bundle"
	"github.com/mediarent/storefront-api/internal/domain/cart"
	"github.com/mediarent/storefront-api/internal/domain/catalog"
	"github.com/mediarent/storefront-api/internal/domain/realtime"
	"github.com/mediarent/storefront-api/internal/domain/verification"
	"github.com/mediarent/storefront-api/internal/middleware"
	"github.com/mediarent/storefront-api/internal/pkg/database"
	"github.com/mediarent/storefront-api/internal/pkg/events"
	"github.com/mediarent/storefront-api/internal/pkg/jwt"
	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
	"github.com/mediarent/storefront-api/internal/pkg/logger"
	pkgresponse "github.com/mediarent/storefront-api/internal/pkg/response"
	"github.com/mediarent/storefront-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting storefront API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Tokens are issued by the auth service; this API only verifies them.
	jwtService := jwt.NewService(cfg.JWTSecret, 0)

	store := newSessionStore(rdb, cfg.SessionStateTTL)
	bus := newEventBus(appCtx, rdb)

	catalogStorage, err := newCatalogStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog storage")
	}

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(rdb)
	go hub.Run()

	// ---------- Services ----------
	catalogService := catalog.NewService(
		catalog.NewDocumentSource(catalogStorage, cfg.CatalogObjectKey),
		catalog.NewInventoryRepository(db),
		cfg.DamageSettleDelay,
	)
	gate := verification.NewGate(verification.NewRepository(db))
	cartService := cart.NewService(catalogService, store, hub, gate)

	catalogService.AddObserver(cartService)
	catalogService.AddObserver(catalog.ObserverFunc(func(ctx context.Context, snap *catalog.Snapshot) {
		hub.Broadcast(&realtime.Event{
			Type: realtime.EventCatalogUpdated,
			Data: map[string]interface{}{"version": snap.Version(), "items": snap.Len()},
		})
	}))
	stopCatalogWatch := catalogService.Watch(bus)
	defer stopCatalogWatch()

	catalogService.Reload(appCtx)
	if cfg.CatalogPollEvery > 0 {
		go catalogService.Poll(appCtx, cfg.CatalogPollEvery)
	}

	packages, err := loadPackages(cfg.PackagesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rental packages")
	}
	bundleService := bundle.NewService(packages, catalogService, store, gate)

	calendar := booking.NewCalendar(booking.NewRepository(db), store)
	calendar.LoadBookings(appCtx)
	stopCalendarWatch := calendar.Watch(bus)
	defer stopCalendarWatch()

	// ---------- Handlers ----------
	handlers := storefrontHandlers{
		catalog:  catalog.NewHandler(catalogService, bus),
		cart:     cart.NewHandler(cartService, cfg.LoginPath, cfg.DashboardPath),
		packages: bundle.NewHandler(bundleService, cfg.LoginPath, cfg.DashboardPath),
		schedule: booking.NewHandler(calendar, cfg.LoginPath),
	}
	realtimeHandler := realtime.NewHandler(hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	optionalAuth := middleware.OptionalAuth(jwtService)
	verifiedMiddleware := middleware.RequireVerified(gate, cfg.LoginPath, cfg.DashboardPath)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// Browsers cannot set headers on the upgrade request
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(realtimeHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]interface{}{
			"status":         "ok",
			"catalogVersion": catalogService.Snapshot().Version(),
			"connections":    hub.GetConnectionCount(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})
		mountStorefrontRoutes(r, handlers, authMiddleware, optionalAuth, verifiedMiddleware)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()
	stopApp()

	log.Info().Msg("Server exited properly")
}

type routeProvider interface {
	Routes(authMiddleware func(http.Handler) http.Handler) chi.Router
}

type storefrontHandlers struct {
	catalog  routeProvider
	cart     routeProvider
	packages routeProvider
	schedule *booking.Handler
}

// mountStorefrontRoutes mounts the storefront API. The catalog is public apart
// from its admin actions; the shopping flow accepts anonymous callers and
// answers them with a login hint.
func mountStorefrontRoutes(r chi.Router, h storefrontHandlers, authMiddleware, optionalAuth, verified func(http.Handler) http.Handler) {
	r.Mount("/catalog", h.catalog.Routes(authMiddleware))
	r.Mount("/cart", h.cart.Routes(optionalAuth))
	r.Mount("/packages", h.packages.Routes(optionalAuth))
	r.Mount("/schedule", h.schedule.Routes(optionalAuth, verified))
}

// newSessionStore keeps per-user state in Redis, or in process memory when
// Redis is not configured.
func newSessionStore(rdb *redis.Client, ttl time.Duration) kvstore.Store {
	if rdb == nil {
		return kvstore.NewMemoryStore()
	}
	return kvstore.NewRedisStore(rdb, ttl)
}

func newEventBus(ctx context.Context, rdb *redis.Client) events.Bus {
	if rdb == nil {
		return events.NewLocalBus()
	}
	bus := events.NewRedisBus(rdb)
	go bus.Run(ctx)
	return bus
}

func newCatalogStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.CatalogStorage != "s3" {
		log.Info().Str("path", cfg.CatalogLocalPath).Msg("Reading predefined catalog from local disk")
		return storage.NewLocalStorage(cfg.CatalogLocalPath), nil
	}
	log.Info().Str("bucket", cfg.CatalogS3Bucket).Msg("Reading predefined catalog from S3")
	s3Storage, err := storage.NewS3Storage(storage.Config{
		S3Endpoint:   cfg.CatalogS3Endpoint,
		S3Region:     cfg.CatalogS3Region,
		S3Bucket:     cfg.CatalogS3Bucket,
		S3AccessKey:  cfg.CatalogS3Access,
		S3SecretKey:  cfg.CatalogS3Secret,
		UsePathStyle: cfg.CatalogS3PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return s3Storage, nil
}

func loadPackages(path string) ([]bundle.Package, error) {
	if path == "" {
		return bundle.DefaultPackages()
	}
	return bundle.LoadPackagesFile(path)
}
