package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/cypher-quest-api/internal/utils"
)

const (
	// LearnerHeader carries the client-generated learner identifier.
	LearnerHeader = "X-Learner-ID"
	// SeedTokenHeader carries the token that unlocks seeding.
	SeedTokenHeader = "X-Seed-Token"

	learnerLocalKey = "learner_id"
)

// LearnerIdentity requires a UUID learner identifier on the request and exposes
// it through LearnerID.
func LearnerIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(LearnerHeader))
		if raw == "" {
			return utils.SendError(c, fiber.StatusBadRequest, LearnerHeader+" header is required")
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, LearnerHeader+" must be a UUID")
		}

		c.Locals(learnerLocalKey, id.String())
		return c.Next()
	}
}

// LearnerID returns the learner bound to the request by LearnerIdentity.
func LearnerID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(learnerLocalKey).(string); ok {
		return id
	}
	return ""
}
