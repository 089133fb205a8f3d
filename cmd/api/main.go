package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/config"
	"github.com/noah-isme/vincula-api/internal/database"
	"github.com/noah-isme/vincula-api/internal/handler"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/repository"
	"github.com/noah-isme/vincula-api/internal/router"
	"github.com/noah-isme/vincula-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseMaxOpenConns)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	keywordIndexRepo := repository.NewKeywordIndexRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	matchingStateRepo := repository.NewMatchingStateRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	matchCache := service.NewMatchCache(redisClient, cfg.EventsChannel, cfg.MatchCacheTTL, logger)

	activityService := service.NewActivityService(activityRepo, logger)
	profileService := service.NewProfileService(profileRepo, logger)
	catalogService := service.NewCatalogService(catalogRepo, matchCache, validate, logger)
	matchingService := service.NewMatchingService(
		keywordIndexRepo,
		catalogRepo,
		matchingStateRepo,
		matchCache,
		activityService,
		service.MatchingConfig{DefaultLimit: cfg.MatchDefaultLimit},
		logger,
	)
	chatService := service.NewChatService(chatRepo, activityService, events, logger)
	requestService := service.NewRequestService(requestRepo, chatService, activityService, events, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})
	router.Register(app, cfg, router.Dependencies{
		DB:                db,
		MatchingHandler:   handler.NewMatchingHandler(matchingService, logger),
		RequestHandler:    handler.NewRequestHandler(requestService, middleware.RateLimit("requests:create", cfg.RateLimitMax, cfg.RateLimitWindow), logger),
		ChatHandler:       handler.NewChatHandler(chatService, middleware.RateLimit("chats:send", cfg.RateLimitMax, cfg.RateLimitWindow), logger),
		CatalogHandler:    handler.NewCatalogHandler(catalogService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		ProfileMiddleware: middleware.ResolveProfile(profileService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
