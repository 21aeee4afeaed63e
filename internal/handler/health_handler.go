package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cypher-quest-api/internal/config"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Graph       string    `json:"graph"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that reports application health along with
// graph database reachability. A nil graph is reported as unknown.
func HealthCheck(cfg config.Config, graph Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Graph:       "unknown",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if graph != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()
			if err := graph.Ping(ctx); err != nil {
				payload.Status = "degraded"
				payload.Graph = "unreachable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
					Success: false,
					Data:    payload,
					Message: "graph database unreachable",
				})
			}
			payload.Graph = "reachable"
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
