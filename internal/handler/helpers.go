package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/middleware"
	"github.com/noah-isme/cypher-quest-api/internal/service"
	"github.com/noah-isme/cypher-quest-api/internal/utils"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendQueryError maps failures shared by every endpoint that runs Cypher. It
// reports false when err is not one of them.
func sendQueryError(c *fiber.Ctx, err error) (error, bool) {
	var keywordErr *service.KeywordNotAllowedError
	var queryErr *graphdb.QueryError
	switch {
	case errors.Is(err, service.ErrQueryRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "query is required"), true
	case errors.Is(err, service.ErrWriteNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, "write operations are not allowed"), true
	case errors.As(err, &keywordErr):
		return utils.Fail(c, fiber.StatusBadRequest, keywordErr.Error(), fiber.Map{"keywords": keywordErr.Keywords}), true
	case errors.Is(err, service.ErrQuestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quest not found"), true
	case errors.Is(err, service.ErrSeedRequired):
		return utils.SendError(c, fiber.StatusConflict, "seed the dataset before playing this quest"), true
	case errors.Is(err, service.ErrQueryTimeout), errors.Is(err, graphdb.ErrTimeout):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "query timed out"), true
	case errors.Is(err, service.ErrGraphUnavailable), errors.Is(err, graphdb.ErrUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "graph database unavailable"), true
	case errors.As(err, &queryErr):
		return utils.Fail(c, fiber.StatusBadRequest, queryErr.Message, fiber.Map{"code": queryErr.Code}), true
	default:
		return nil, false
	}
}
