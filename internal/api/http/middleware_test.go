package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/observability"
	apperrors "github.com/spec-kit/network-ticketing/pkg/util"
)

func testApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	app.Get("/probe", handler)
	return app
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestErrorHandlingMiddleware(t *testing.T) {
	t.Run("renders domain error envelope", func(t *testing.T) {
		app := testApp(func(*fiber.Ctx) error {
			return apperrors.NewAlreadyAssigned(7)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		envelope := decodeError(t, resp)
		assert.Equal(t, "ALREADY_ASSIGNED", envelope["code"])
		assert.NotEmpty(t, envelope["message"])
		details, ok := envelope["details"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 7, details["ticket_id"])
	})

	t.Run("unknown errors map to internal", func(t *testing.T) {
		app := testApp(func(*fiber.Ctx) error {
			return assert.AnError
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp)["code"])
	})

	t.Run("panics are recovered", func(t *testing.T) {
		app := testApp(func(*fiber.Ctx) error {
			panic("boom")
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("success responses pass through", func(t *testing.T) {
		app := testApp(func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"data": "ok"})
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
