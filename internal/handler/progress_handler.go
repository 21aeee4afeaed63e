package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// ProgressHandler exposes a learner's progress and attempt history.
type ProgressHandler struct {
	progress    service.ProgressService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(progress service.ProgressService, submissions service.SubmissionService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress:    progress,
		submissions: submissions,
		logger:      logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires progress routes. Every route requires a learner identity.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Use(middleware.LearnerIdentity())
	router.Get("/", h.get)
	router.Delete("/", h.reset)
	router.Put("/current", h.selectQuest)
	router.Get("/attempts", h.attempts)
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	progress, err := h.progress.Get(c.UserContext(), middleware.LearnerID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *ProgressHandler) selectQuest(c *fiber.Ctx) error {
	var payload dto.SelectQuestRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	progress, err := h.progress.Select(c.UserContext(), middleware.LearnerID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "current quest updated", progress)
}

func (h *ProgressHandler) reset(c *fiber.Ctx) error {
	progress, err := h.progress.Reset(c.UserContext(), middleware.LearnerID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "progress reset", progress)
}

func (h *ProgressHandler) attempts(c *fiber.Ctx) error {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	attempts, err := h.submissions.History(c.UserContext(), middleware.LearnerID(c), c.Query("quest_id"), limit)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, attempts, "attempts retrieved", fiber.Map{"count": len(attempts)})
}

func (h *ProgressHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLearnerRequired):
		return utils.SendError(c, fiber.StatusBadRequest, middleware.LearnerHeader+" header is required")
	case errors.Is(err, service.ErrQuestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quest not found")
	case errors.Is(err, service.ErrSeedRequired):
		return utils.SendError(c, fiber.StatusConflict, "seed the dataset before selecting this quest")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("progress operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "progress operation failed")
	}
}
