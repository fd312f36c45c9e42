package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ProxyHandler streams remote video through the server so cross-origin
// isolated pages can still play it. Only https sources are allowed.
type ProxyHandler struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewProxyHandler creates the handler.
func NewProxyHandler(log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		// No overall timeout: long video streams outlive any sane budget.
		// Dial and TLS still bound by the default transport.
		httpClient: &http.Client{Timeout: 0},
		log:        log,
	}
}

var proxiedHeaders = []string{
	fiber.HeaderContentType,
	fiber.HeaderContentLength,
	fiber.HeaderAcceptRanges,
	fiber.HeaderContentRange,
	fiber.HeaderCacheControl,
	fiber.HeaderLastModified,
}

// Video serves GET /proxy/video?src=.
func (h *ProxyHandler) Video(c *fiber.Ctx) error {
	src := c.Query("src")
	if src == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing src")
	}
	if !strings.HasPrefix(src, "https://") {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid src")
	}

	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, src, nil)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid src")
	}
	if rng := c.Get(fiber.HeaderRange); rng != "" {
		req.Header.Set(fiber.HeaderRange, rng)
	}

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.log.Error().Err(err).Str("src", src).Msg("video proxy fetch failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Proxy error")
	}

	for _, name := range proxiedHeaders {
		if v := resp.Header.Get(name); v != "" {
			c.Set(name, v)
		}
	}
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set("Cross-Origin-Resource-Policy", "same-site")

	h.log.Debug().Str("src", src).Int("status", resp.StatusCode).
		Dur("upstream", time.Since(start)).Msg("video proxy streaming")
	c.Status(resp.StatusCode)
	return c.SendStream(resp.Body)
}
