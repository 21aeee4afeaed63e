package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func learnerApp() *fiber.App {
	app := fiber.New()
	app.Use(LearnerIdentity())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(LearnerID(c))
	})
	return app
}

func TestLearnerIdentityAcceptsUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(LearnerHeader, "  6F1C2B0E-4E0A-4B8B-9E0D-2D6A0C1D7E11 ")

	resp, err := learnerApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "6f1c2b0e-4e0a-4b8b-9e0d-2d6a0c1d7e11", string(body))
}

func TestLearnerIdentityRejectsMissingOrInvalidHeader(t *testing.T) {
	for _, header := range []string{"", "learner-1"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set(LearnerHeader, header)
		}

		resp, err := learnerApp().Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestLearnerIDWithoutMiddleware(t *testing.T) {
	require.Equal(t, "", LearnerID(nil))
}
