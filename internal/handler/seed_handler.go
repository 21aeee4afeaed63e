package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// SeedHandler exposes dataset seeding endpoints.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/", h.seed)
	router.Get("/status", h.status)
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	result, err := h.service.Seed(c.UserContext(), c.Get(middleware.SeedTokenHeader))
	if err != nil {
		return h.seedError(c, err)
	}

	message := "dataset seeded"
	if result.Skipped {
		message = "dataset already present"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *SeedHandler) status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		return h.seedError(c, err)
	}
	return utils.SendSuccess(c, "seed status retrieved", status)
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	}
	if sent, ok := sendQueryError(c, err); ok {
		return sent
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
}
