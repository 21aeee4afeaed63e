package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// QueryHandler proxies read-only Cypher to the graph database.
type QueryHandler struct {
	service service.QueryService
	logger  zerolog.Logger
}

// NewQueryHandler constructs a query handler.
func NewQueryHandler(service service.QueryService, logger zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger.With().Str("component", "query_handler").Logger(),
	}
}

// Register wires the query route. Extra handlers, such as a rate limiter, run
// before the query.
func (h *QueryHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), h.run)
	router.Post("/run", handlers...)
}

func (h *QueryHandler) run(c *fiber.Ctx) error {
	var payload dto.QueryRunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Run(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "query executed", result)
}

func (h *QueryHandler) handleError(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if sent, ok := sendQueryError(c, err); ok {
		requestLogger(h.logger, c).Info().Err(err).Msg("query rejected")
		return sent
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("query failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "query failed")
}
