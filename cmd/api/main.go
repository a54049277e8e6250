package main

import (
	"net/http"
	"os"

	"thunder-text-core/internal/application"
	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/cache"
	"thunder-text-core/internal/infrastructure/encryption"
	"thunder-text-core/internal/infrastructure/httpapi"
	"thunder-text-core/internal/infrastructure/providers"
	"thunder-text-core/internal/infrastructure/providers/google"
	"thunder-text-core/internal/infrastructure/providers/meta"
	"thunder-text-core/internal/infrastructure/providers/pinterest"
	"thunder-text-core/internal/infrastructure/providers/tiktok"
	"thunder-text-core/internal/infrastructure/repository"
	shopifyinfra "thunder-text-core/internal/infrastructure/shopify"
	"thunder-text-core/internal/ports"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = "postgres://localhost:5432/thunder_text?sslmode=disable"
	}
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}
	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	db, err := repository.Open(databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	sessionStore := cache.NewRedisSessionStore(redisClient)

	shopRepo := repository.NewPostgresShopRepository(db)
	connectionRepo := repository.NewPostgresConnectionRepository(db)
	draftRepo := repository.NewPostgresAdDraftRepository(db)
	savedAdRepo := repository.NewPostgresSavedAdRepository(db)
	bestPracticeRepo := repository.NewPostgresBestPracticeRepository(db)

	shopifyAPIKey := os.Getenv("SHOPIFY_API_KEY")
	shopifyAPISecret := os.Getenv("SHOPIFY_API_SECRET")
	shopifyClient := shopifyinfra.NewClient(shopifyAPIKey, shopifyAPISecret, logger)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(shopifyAPISecret)

	// Ad-platform adapters are registered only when their credentials are
	// present. Requests for an unregistered provider answer 503, the server
	// itself always starts.
	var adapters []ports.AdPlatform
	if appID, secret := os.Getenv("FACEBOOK_APP_ID"), os.Getenv("FACEBOOK_APP_SECRET"); appID != "" && secret != "" {
		adapters = append(adapters, meta.New(appID, secret, "", logger))
	} else {
		logger.Warn().Str("provider", string(domain.ProviderFacebook)).Msg("Ad platform credentials missing, adapter disabled")
	}
	if id, secret := os.Getenv("GOOGLE_ADS_CLIENT_ID"), os.Getenv("GOOGLE_ADS_CLIENT_SECRET"); id != "" && secret != "" {
		adapters = append(adapters, google.New(id, secret, os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"), "", "", logger))
	} else {
		logger.Warn().Str("provider", string(domain.ProviderGoogle)).Msg("Ad platform credentials missing, adapter disabled")
	}
	if id, secret := os.Getenv("TIKTOK_APP_ID"), os.Getenv("TIKTOK_APP_SECRET"); id != "" && secret != "" {
		adapters = append(adapters, tiktok.New(id, secret, "", logger))
	} else {
		logger.Warn().Str("provider", string(domain.ProviderTikTok)).Msg("Ad platform credentials missing, adapter disabled")
	}
	if id, secret := os.Getenv("PINTEREST_CLIENT_ID"), os.Getenv("PINTEREST_CLIENT_SECRET"); id != "" && secret != "" {
		adapters = append(adapters, pinterest.New(id, secret, "", logger))
	} else {
		logger.Warn().Str("provider", string(domain.ProviderPinterest)).Msg("Ad platform credentials missing, adapter disabled")
	}
	registry := providers.NewRegistry(adapters...)

	tokenService := application.NewTokenService(shopRepo, connectionRepo, encryptionService, registry, shopifyClient, logger)
	oauthService := application.NewOAuthService(shopRepo, sessionStore, registry, shopifyClient, tokenService, logger, appURL, shopifyAPIKey)
	platformService := application.NewPlatformService(shopRepo, connectionRepo, tokenService, registry, logger)
	draftService := application.NewDraftService(shopRepo, draftRepo, tokenService, registry, logger)
	insightsService := application.NewInsightsService(shopRepo, tokenService, registry, logger)
	productService := application.NewProductService(tokenService, shopifyClient, logger)
	libraryService := application.NewLibraryService(shopRepo, savedAdRepo, bestPracticeRepo, logger)

	handlers := httpapi.NewHandlers(
		oauthService,
		platformService,
		draftService,
		insightsService,
		productService,
		libraryService,
		webhookVerifier,
		logger,
	)
	router := httpapi.NewRouter(handlers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
