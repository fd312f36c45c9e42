package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/studygate/internal/storage"
	"github.com/codebuildervaibhav/studygate/internal/transcription"
	"github.com/codebuildervaibhav/studygate/internal/types"
)

// TranscriptHandler answers transcript status queries. HTTP polling does
// exactly one provider round trip per call; the websocket variant keeps
// polling server-side and pushes updates until the job is terminal.
type TranscriptHandler struct {
	assembly      *transcription.AssemblyAI
	db            *storage.MetadataDB
	watchInterval time.Duration
	watchBudget   time.Duration
	log           zerolog.Logger
}

// NewTranscriptHandler creates the handler.
func NewTranscriptHandler(assembly *transcription.AssemblyAI, db *storage.MetadataDB,
	watchInterval, watchBudget time.Duration, log zerolog.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		assembly:      assembly,
		db:            db,
		watchInterval: watchInterval,
		watchBudget:   watchBudget,
		log:           log,
	}
}

// Status serves GET /transcript/status/:id with one provider poll.
func (h *TranscriptHandler) Status(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing id"})
	}
	if !h.assembly.Configured() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No ASSEMBLY_API_KEY configured on server"})
	}

	st, err := h.assembly.Status(c.UserContext(), id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("transcript status poll failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Could not fetch transcript status",
			"details": err.Error(),
		})
	}
	return c.JSON(st)
}

// List serves GET /transcripts from the local metadata database.
func (h *TranscriptHandler) List(c *fiber.Ctx) error {
	records, err := h.db.ListRecent(50)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if records == nil {
		records = []types.UploadRecord{}
	}
	return c.JSON(records)
}

// Watch streams job status over a websocket until the job reaches a
// terminal state, the budget runs out, or the client goes away.
func (h *TranscriptHandler) Watch(conn *websocket.Conn) {
	defer conn.Close()

	id := conn.Params("id")
	if id == "" {
		_ = conn.WriteJSON(fiber.Map{"error": "Missing id"})
		return
	}
	if !h.assembly.Configured() {
		_ = conn.WriteJSON(fiber.Map{"error": "No ASSEMBLY_API_KEY configured on server"})
		return
	}

	deadline := time.Now().Add(h.watchBudget)
	for {
		st, err := h.assembly.Status(context.Background(), id)
		if err != nil {
			_ = conn.WriteJSON(fiber.Map{"error": "Could not fetch transcript status", "details": err.Error()})
			return
		}
		if err := conn.WriteJSON(st); err != nil {
			return
		}
		if st.Status == types.StatusCompleted || st.Status == types.StatusFailed {
			return
		}
		if time.Now().After(deadline) {
			_ = conn.WriteJSON(types.JobStatus{ID: id, Status: types.StatusTimedOut})
			return
		}
		time.Sleep(h.watchInterval)
	}
}
