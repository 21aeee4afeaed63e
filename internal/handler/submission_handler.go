package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/dto"
	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

// SubmissionHandler grades learner results for a quest.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires grading routes under the quest group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/:id/evaluate", h.evaluate)
	router.Post("/:id/submit", middleware.LearnerIdentity(), h.submit)
}

func (h *SubmissionHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	evaluation, err := h.service.Evaluate(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "result evaluated", evaluation)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(c.UserContext(), middleware.LearnerID(c), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "submission graded"
	if result.FirstClear {
		message = "quest cleared"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLearnerRequired):
		return utils.SendError(c, fiber.StatusBadRequest, middleware.LearnerHeader+" header is required")
	}
	if sent, ok := sendQueryError(c, err); ok {
		return sent
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("submission failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "submission failed")
}
