package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AccessSecret gates every route behind a shared secret when one is
// configured. Both Basic (password part) and Bearer credentials are
// accepted so curl and browsers work equally well. With no secret set
// the middleware is a pass-through.
func AccessSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		auth := c.Get(fiber.HeaderAuthorization)
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token == secret {
			return c.Next()
		}
		if encoded, ok := strings.CutPrefix(auth, "Basic "); ok {
			if decoded, err := base64.StdEncoding.DecodeString(encoded); err == nil {
				if _, pass, found := strings.Cut(string(decoded), ":"); found && pass == secret {
					return c.Next()
				}
			}
		}
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="Protected"`)
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}
}

// CrossOriginIsolation adds the COOP/COEP headers SharedArrayBuffer
// clients need. Off by default because it breaks plain cross-origin
// embeds.
func CrossOriginIsolation(enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if enabled {
			c.Set("Cross-Origin-Opener-Policy", "same-origin")
			c.Set("Cross-Origin-Embedder-Policy", "require-corp")
		}
		return c.Next()
	}
}
