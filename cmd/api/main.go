package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poshak-admin-backend/config"
	"poshak-admin-backend/internal/delivery/http/middleware"
	v1 "poshak-admin-backend/internal/delivery/http/v1"
	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/infrastructure/backend"
	"poshak-admin-backend/internal/infrastructure/cache"
	"poshak-admin-backend/internal/infrastructure/events"
	"poshak-admin-backend/internal/infrastructure/local"
	"poshak-admin-backend/internal/repository/postgres"
	"poshak-admin-backend/internal/usecase"
	"poshak-admin-backend/pkg/logger"
	"poshak-admin-backend/pkg/storage"
	"poshak-admin-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Wire the catalog and product collaborators for the configured mode.
	var (
		catalogSvc domain.CatalogService
		productSvc domain.ProductService
	)
	switch cfg.BackendMode {
	case config.BackendModeRemote:
		client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout)
		catalogSvc = client
		productSvc = client
		log.Info().Str("baseURL", cfg.BackendBaseURL).Msg("Running against remote catalog API")
	default:
		pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		log.Info().Msg("Successfully connected to PostgreSQL via pgx")

		r2Storage, err := storage.NewR2Storage(
			context.Background(),
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}

		txManager := postgres.NewTransactionManager(pgxPool)
		productRepo := postgres.NewProductRepository(pgxPool, txManager)
		catalogSvc = postgres.NewCatalogRepository(pgxPool)
		productSvc = local.NewProductService(productRepo, r2Storage)
		log.Info().Msg("Running against local Postgres catalog")
	}

	// Initialize Cache (In-Memory)
	memCache := cache.NewMemoryCache(cfg.CacheCatalogTTL, 2*cfg.CacheCatalogTTL)

	// Change feed for list views; keep the last 64 events for the tap endpoint.
	bus := events.NewBus(64)

	// --- Modules Initialization ---
	catalogUC := usecase.NewCatalogUsecase(catalogSvc, memCache, cfg.CacheCatalogTTL)
	validator := usecase.Validator{PriceFloor: cfg.PriceFloor}
	draftUC := usecase.NewDraftUsecase(
		context.Background(),
		catalogUC,
		productSvc,
		validator,
		cfg.DraftSessionTTL,
		10*time.Minute, // janitor sweep period
	)
	submissionUC := usecase.NewSubmissionUsecase(productSvc, validator, draftUC, bus)

	catalogHandler := v1.NewCatalogHandler(catalogUC, bus)
	draftHandler := v1.NewAdminDraftHandler(draftUC, submissionUC, cfg.MaxUploadSizeMB)

	// Invalidate cached reference lists whenever the catalog changes.
	bus.Subscribe(func(e events.Event) {
		if e.Type == events.CatalogChanged {
			catalogUC.Invalidate()
		}
	})

	// Set up Router
	mux := http.NewServeMux()

	// Admin (Protected)
	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	// Reference lists
	mux.Handle("GET /api/v1/admin/catalog/categories", adminMiddleware(catalogHandler.GetCategories))
	mux.Handle("GET /api/v1/admin/catalog/colors", adminMiddleware(catalogHandler.GetColors))
	mux.Handle("GET /api/v1/admin/catalog/sizes", adminMiddleware(catalogHandler.GetSizes))
	mux.Handle("GET /api/v1/admin/catalog/events", adminMiddleware(catalogHandler.GetEvents))

	// Draft sessions
	mux.Handle("POST /api/v1/admin/drafts", adminMiddleware(draftHandler.OpenCreate))
	mux.Handle("POST /api/v1/admin/drafts/edit/{productId}", adminMiddleware(draftHandler.OpenEdit))
	mux.Handle("GET /api/v1/admin/drafts/{id}", adminMiddleware(draftHandler.GetDraft))
	mux.Handle("DELETE /api/v1/admin/drafts/{id}", adminMiddleware(draftHandler.Discard))
	mux.Handle("PUT /api/v1/admin/drafts/{id}/basic", adminMiddleware(draftHandler.SetBasicInfo))
	mux.Handle("PUT /api/v1/admin/drafts/{id}/selection", adminMiddleware(draftHandler.SetSelection))
	mux.Handle("PATCH /api/v1/admin/drafts/{id}/variants/{index}", adminMiddleware(draftHandler.SetQuantity))
	mux.Handle("POST /api/v1/admin/drafts/{id}/images", adminMiddleware(draftHandler.AddImage))
	mux.Handle("DELETE /api/v1/admin/drafts/{id}/images/{index}", adminMiddleware(draftHandler.RemoveImage))
	mux.Handle("GET /api/v1/admin/drafts/{id}/validate", adminMiddleware(draftHandler.Validate))
	mux.Handle("POST /api/v1/admin/drafts/{id}/advance", adminMiddleware(draftHandler.Advance))
	mux.Handle("POST /api/v1/admin/drafts/{id}/back", adminMiddleware(draftHandler.Back))

	// Submission pipeline
	mux.Handle("POST /api/v1/admin/drafts/{id}/submit", adminMiddleware(draftHandler.SubmitCreate))
	mux.Handle("POST /api/v1/admin/drafts/{id}/submit/basic", adminMiddleware(draftHandler.SubmitBasicInfo))
	mux.Handle("POST /api/v1/admin/drafts/{id}/submit/media", adminMiddleware(draftHandler.SubmitMedia))
	mux.Handle("POST /api/v1/admin/drafts/{id}/submit/variants", adminMiddleware(draftHandler.SubmitVariants))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "ok", "mode": "%s"}`, cfg.BackendMode)
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,            // requests per second
		100,           // burst
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()
	draftUC.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
