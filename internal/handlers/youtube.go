package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeHandler proxies video searches through the YouTube Data API so
// the browser never sees the API key.
type YouTubeHandler struct {
	apiKey     string
	maxResults int64
	clientOpts []option.ClientOption
	log        zerolog.Logger
}

// NewYouTubeHandler creates the handler. Extra client options are only
// used by tests to point at a stub endpoint.
func NewYouTubeHandler(apiKey string, log zerolog.Logger, opts ...option.ClientOption) *YouTubeHandler {
	return &YouTubeHandler{apiKey: apiKey, maxResults: 10, clientOpts: opts, log: log}
}

type searchRequest struct {
	Query string `json:"q"`
}

// Search serves POST /youtube/search.
func (h *YouTubeHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil || req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing search query",
			"code":  "ERR_NO_QUERY",
		})
	}
	if h.apiKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No YOUTUBE_API_KEY configured on server",
			"code":  "ERR_NOT_CONFIGURED",
		})
	}

	opts := append([]option.ClientOption{option.WithAPIKey(h.apiKey)}, h.clientOpts...)
	svc, err := youtube.NewService(c.UserContext(), opts...)
	if err != nil {
		h.log.Error().Err(err).Msg("youtube service init failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "YouTube search failed",
			"code":  "ERR_UPSTREAM",
		})
	}

	resp, err := svc.Search.List([]string{"snippet"}).
		Q(req.Query).
		Type("video").
		MaxResults(h.maxResults).
		Context(c.UserContext()).
		Do()
	if err != nil {
		h.log.Error().Err(err).Str("query", req.Query).Msg("youtube search failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "YouTube search failed",
			"code":  "ERR_UPSTREAM",
		})
	}

	items := make([]fiber.Map, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Id == nil || it.Snippet == nil {
			continue
		}
		thumb := ""
		if it.Snippet.Thumbnails != nil && it.Snippet.Thumbnails.Medium != nil {
			thumb = it.Snippet.Thumbnails.Medium.Url
		}
		items = append(items, fiber.Map{
			"videoId":      it.Id.VideoId,
			"title":        it.Snippet.Title,
			"description":  it.Snippet.Description,
			"channelTitle": it.Snippet.ChannelTitle,
			"publishedAt":  it.Snippet.PublishedAt,
			"thumbnail":    thumb,
			"url":          "https://www.youtube.com/watch?v=" + it.Id.VideoId,
		})
	}
	return c.JSON(fiber.Map{"items": items})
}
