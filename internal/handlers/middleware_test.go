package handlers

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(AccessSecret(secret))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAccessSecret_PassThroughWhenUnset(t *testing.T) {
	app := newProtectedApp("")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAccessSecret_RejectsMissingCredentials(t *testing.T) {
	app := newProtectedApp("hunter2")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Basic realm="Protected"`, resp.Header.Get(fiber.HeaderWWWAuthenticate))
}

func TestAccessSecret_AcceptsBearerToken(t *testing.T) {
	app := newProtectedApp("hunter2")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer hunter2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAccessSecret_AcceptsBasicPassword(t *testing.T) {
	app := newProtectedApp("hunter2")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cred := base64.StdEncoding.EncodeToString([]byte("anyone:hunter2"))
	req.Header.Set(fiber.HeaderAuthorization, "Basic "+cred)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAccessSecret_RejectsWrongPassword(t *testing.T) {
	app := newProtectedApp("hunter2")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cred := base64.StdEncoding.EncodeToString([]byte("anyone:wrong"))
	req.Header.Set(fiber.HeaderAuthorization, "Basic "+cred)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCrossOriginIsolation_HeadersOnlyWhenEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		app := fiber.New()
		app.Use(CrossOriginIsolation(enabled))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		if enabled {
			assert.Equal(t, "same-origin", resp.Header.Get("Cross-Origin-Opener-Policy"))
			assert.Equal(t, "require-corp", resp.Header.Get("Cross-Origin-Embedder-Policy"))
		} else {
			assert.Empty(t, resp.Header.Get("Cross-Origin-Opener-Policy"))
		}
	}
}
