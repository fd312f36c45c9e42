package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/studygate/internal/storage"
	"github.com/codebuildervaibhav/studygate/internal/transcription"
	"github.com/codebuildervaibhav/studygate/internal/types"
)

// UploadHandler accepts media uploads over three transports (multipart,
// raw body, client-extracted audio) and hands stored assets to the
// transcription orchestrator.
type UploadHandler struct {
	resolver *storage.Resolver
	video    *transcription.Orchestrator
	audio    *transcription.Orchestrator
	db       *storage.MetadataDB

	maxVideoBytes int64
	maxAudioBytes int64
	now           func() time.Time
	log           zerolog.Logger
}

// NewUploadHandler creates the handler. Video and audio run against
// separate provider chains: video containers are never sent to Google
// Speech, which only accepts extracted audio.
func NewUploadHandler(resolver *storage.Resolver, video, audio *transcription.Orchestrator,
	db *storage.MetadataDB, maxVideoMB, maxAudioMB int, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		resolver:      resolver,
		video:         video,
		audio:         audio,
		db:            db,
		maxVideoBytes: int64(maxVideoMB) * 1024 * 1024,
		maxAudioBytes: int64(maxAudioMB) * 1024 * 1024,
		now:           time.Now,
		log:           log,
	}
}

// HandleVideo processes POST /upload/video (multipart field "video").
func (h *UploadHandler) HandleVideo(c *fiber.Ctx) error {
	data, name, mime, errResp := h.readMultipart(c, "video", "video/", h.maxVideoBytes)
	if errResp != nil {
		return errResp(c)
	}
	req := transcription.Request{
		Wait: boolish(c.FormValue("wait")),
	}
	return h.finish(c, h.video, data, name, mime, types.KindVideo, req)
}

// HandleAudio processes POST /upload/audio (multipart field "audio"),
// typically carrying client-side extracted WAV audio.
func (h *UploadHandler) HandleAudio(c *fiber.Ctx) error {
	data, name, mime, errResp := h.readMultipart(c, "audio", "audio/", h.maxAudioBytes)
	if errResp != nil {
		return errResp(c)
	}
	req := transcription.Request{
		Verbatim:     boolish(c.FormValue("verbatim")),
		LongRunning:  boolish(c.FormValue("longrunning")),
		LanguageCode: c.FormValue("languageCode"),
		Wait:         boolish(c.FormValue("wait")),
	}
	return h.finish(c, h.audio, data, name, mime, types.KindAudio, req)
}

// HandleVideoRaw processes POST /upload/video-raw. The whole request body
// is the file; metadata travels in x-* headers. Raw transport exists for
// hosts where multipart parsing is unreliable.
func (h *UploadHandler) HandleVideoRaw(c *fiber.Ctx) error {
	data := c.Body()
	if len(data) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}
	name := c.Get("x-filename")
	if name == "" {
		name = fmt.Sprintf("upload-%d.mp4", h.now().UnixMilli())
	}
	return h.finish(c, h.video, data, name, c.Get(fiber.HeaderContentType), types.KindVideo, transcription.Request{})
}

// HandleAudioRaw processes POST /upload/audio-raw.
func (h *UploadHandler) HandleAudioRaw(c *fiber.Ctx) error {
	data := c.Body()
	if len(data) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}
	name := c.Get("x-filename")
	if name == "" {
		name = fmt.Sprintf("upload-%d.wav", h.now().UnixMilli())
	}
	req := transcription.Request{
		Verbatim:     c.Get("x-verbatim") == "1" || c.Get("x-verbatim") == "true",
		LanguageCode: c.Get("x-language-code"),
	}
	return h.finish(c, h.audio, data, name, c.Get(fiber.HeaderContentType), types.KindAudio, req)
}

// readMultipart validates and reads one multipart file. The returned
// closure, when non-nil, writes the rejection response.
func (h *UploadHandler) readMultipart(c *fiber.Ctx, field, mimePrefix string, maxBytes int64) ([]byte, string, string, func(*fiber.Ctx) error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No file uploaded",
				"code":  "ERR_NO_FILE",
			})
		}
	}
	mime := file.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(mime, mimePrefix) {
		return nil, "", "", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported file type",
				"code":  "ERR_INVALID_FORMAT",
			})
		}
	}
	if file.Size > maxBytes {
		maxMB := maxBytes / (1024 * 1024)
		return nil, "", "", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("File too large (max %dMB)", maxMB),
				"code":  "ERR_FILE_TOO_LARGE",
			})
		}
	}

	src, err := file.Open()
	if err != nil {
		h.log.Error().Err(err).Str("file", file.Filename).Msg("could not open multipart file")
		return nil, "", "", storageFailure
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		h.log.Error().Err(err).Str("file", file.Filename).Msg("could not read multipart file")
		return nil, "", "", storageFailure
	}
	return data, file.Filename, mime, nil
}

func storageFailure(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Upload failed",
		"code":  "ERR_SAVE_FAILED",
	})
}

// finish stores the bytes, runs transcription, records metadata, and
// answers with the outcome contract. The file is durably written before
// any response leaves.
func (h *UploadHandler) finish(c *fiber.Ctx, orch *transcription.Orchestrator,
	data []byte, originalName, mime, kind string, req transcription.Request) error {

	storedName := storage.StoredName(h.now(), originalName)
	saved, err := h.resolver.Save(c.UserContext(), storedName, data, mime)
	if err != nil {
		h.log.Error().Err(err).Str("file", storedName).Msg("could not persist upload")
		return storageFailure(c)
	}

	req.Data = data
	req.BaseName = strings.TrimSuffix(saved.Name, filepath.Ext(saved.Name))
	if saved.Kind == storage.StorageBlob {
		req.RemoteURL = saved.PublicURL
	}

	outcome := orch.Run(c.UserContext(), req)
	outcome.URL = saved.PublicURL
	outcome.Storage = saved.Kind
	if outcome.URL == "" && outcome.AssemblyUploadURL != "" {
		// No local playback URL: fall back to the provider-hosted copy.
		// Third-party CDN URLs can expire; Storage flags that for callers.
		outcome.URL = outcome.AssemblyUploadURL
		outcome.Storage = storage.StorageProvider
	}

	asset := types.UploadedAsset{
		StoredName:   saved.Name,
		Path:         saved.Path,
		PublicURL:    saved.PublicURL,
		MimeCategory: kind,
		SizeBytes:    int64(len(data)),
	}
	if h.db != nil {
		if err := h.db.RecordUpload(asset, saved.Kind, outcome); err != nil {
			h.log.Warn().Err(err).Str("file", saved.Name).Msg("could not record upload metadata")
		}
	}

	h.log.Info().Str("file", saved.Name).Str("kind", kind).Int("size", len(data)).
		Str("storage", saved.Kind).Msg("upload stored")
	return c.JSON(outcome)
}

func boolish(v string) bool {
	switch v {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
