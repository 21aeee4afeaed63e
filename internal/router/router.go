package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cypher-quest-api/internal/config"
	"github.com/noah-isme/cypher-quest-api/internal/handler"
	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QuestHandler      *handler.QuestHandler
	QueryHandler      *handler.QueryHandler
	SubmissionHandler *handler.SubmissionHandler
	ProgressHandler   *handler.ProgressHandler
	SeedHandler       *handler.SeedHandler
	Graph             handler.Pinger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Graph))

	if deps.QuestHandler != nil || deps.SubmissionHandler != nil {
		quests := api.Group("/quests")
		if deps.QuestHandler != nil {
			deps.QuestHandler.Register(quests)
		}
		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.Register(quests)
		}
	}

	if deps.QueryHandler != nil {
		deps.QueryHandler.Register(api, middleware.RateLimit("run", cfg.RunRateLimit, cfg.RunRateWindow))
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress"))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
