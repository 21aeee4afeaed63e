package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// QuestHandler exposes the quest catalogue.
type QuestHandler struct {
	service service.QuestService
	logger  zerolog.Logger
}

// NewQuestHandler constructs a quest handler.
func NewQuestHandler(service service.QuestService, logger zerolog.Logger) *QuestHandler {
	return &QuestHandler{
		service: service,
		logger:  logger.With().Str("component", "quest_handler").Logger(),
	}
}

// Register wires quest catalogue routes.
func (h *QuestHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.detail)
}

func (h *QuestHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list quests")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch quests")
	}

	meta := fiber.Map{
		"total":  result.Total,
		"seeded": result.Seeded,
	}
	return utils.OK(c, result.Items, "quests retrieved", meta)
}

func (h *QuestHandler) detail(c *fiber.Ctx) error {
	quest, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if err == service.ErrQuestNotFound {
			return utils.SendError(c, fiber.StatusNotFound, "quest not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch quest")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch quest")
	}
	return utils.SendSuccess(c, "quest retrieved", quest)
}
