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
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/internal/config"
	"github.com/noah-isme/cypher-quest-api/internal/database"
	"github.com/noah-isme/cypher-quest-api/internal/handler"
	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/models"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
	"github.com/noah-isme/cypher-quest-api/internal/repository"
	"github.com/noah-isme/cypher-quest-api/internal/router"
	"github.com/noah-isme/cypher-quest-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	registry, err := catalog.Load()
	if err != nil {
		log.Fatalf("failed to load quest catalogue: %v", err)
	}
	logger.Info().Int("quests", registry.Len()).Msg("quest catalogue loaded")

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.LearnerProgress{}, &models.QuestAttempt{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, caching disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	graph, err := database.ConnectGraph(cfg, logger)
	if err != nil {
		log.Fatalf("failed to connect to graph database: %v", err)
	}

	observability.RegisterMetrics()
	validate := validator.New(validator.WithRequiredStructEnabled())

	progressRepo := repository.NewProgressRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	seedService := service.NewSeedService(graph, registry.SeedCypher(), redisClient, cfg.SeedStatusTTL, cfg.SeedEnabled, cfg.SeedToken, logger)
	questService := service.NewQuestService(registry, seedService, logger)
	queryService := service.NewQueryService(graph, registry, seedService, validate, cfg.QueryTimeout, logger)
	progressService := service.NewProgressService(progressRepo, registry, seedService, redisClient, cfg.ProgressCacheTTL, natsConn, cfg.NATSSubjectBase, validate, logger)
	submissionService := service.NewSubmissionService(registry, queryService, progressService, attemptRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ProxyHeader:  cfg.ProxyHeader,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOriginsHeader(),
		AccessLog:      cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		QuestHandler:      handler.NewQuestHandler(questService, logger),
		QueryHandler:      handler.NewQueryHandler(queryService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, submissionService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		Graph:             graph,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, func(ctx context.Context) {
		if err := graph.Close(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to close graph driver")
		}
	})
}

func waitForShutdown(app *fiber.App, cleanup func(ctx context.Context)) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if cleanup != nil {
		cleanup(ctx)
	}

	log.Println("server stopped")
}
