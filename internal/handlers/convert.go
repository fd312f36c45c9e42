package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConvertHandler turns an ICS feed (fetched by URL or uploaded as a file)
// into a cleaned-up ICS download. Events without a recognizable start are
// skipped, not errored; a document with zero usable events is a 404, a
// document that does not parse at all is a 400.
type ConvertHandler struct {
	httpClient *http.Client
	now        func() time.Time
	log        zerolog.Logger
}

// NewConvertHandler creates the handler.
func NewConvertHandler(log zerolog.Logger) *ConvertHandler {
	return &ConvertHandler{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		now:        time.Now,
		log:        log,
	}
}

// Handle serves POST /convert (multipart field "icsfile" or form field
// "icsurl").
func (h *ConvertHandler) Handle(c *fiber.Ctx) error {
	raw, errResp := h.readICS(c)
	if errResp != nil {
		return errResp(c)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(raw))
	if err != nil {
		h.log.Warn().Err(err).Msg("could not parse ICS document")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid ICS content (could not parse)")
	}

	out := ics.NewCalendar()
	out.SetMethod(ics.MethodPublish)

	count := 0
	for _, ev := range cal.Events() {
		start, err := ev.GetStartAt()
		if err != nil {
			continue
		}

		summary := propValue(ev, ics.ComponentPropertySummary)
		if summary == "" {
			summary = "Untitled"
		}
		description := propValue(ev, ics.ComponentPropertyDescription)
		if description == "" {
			description = summary
		}

		uid := propValue(ev, ics.ComponentPropertyUniqueId)
		if uid == "" {
			uid = uuid.New().String()
		}

		converted := out.AddEvent(uid)
		converted.SetDtStampTime(h.now())
		converted.SetSummary(summary)
		converted.SetStartAt(start)
		converted.SetDescription(description)
		if end, err := ev.GetEndAt(); err == nil {
			converted.SetEndAt(end)
		}
		if loc := propValue(ev, ics.ComponentPropertyLocation); loc != "" {
			converted.SetLocation(loc)
		}
		count++
	}

	if count == 0 {
		return c.Status(fiber.StatusNotFound).SendString("No events found in ICS")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename=brightspace-export.ics`)
	c.Set(fiber.HeaderContentType, "text/calendar")
	return c.SendString(out.Serialize())
}

// readICS resolves the source document: form URL first, then uploaded
// file. The returned closure, when non-nil, writes the rejection.
func (h *ConvertHandler) readICS(c *fiber.Ctx) ([]byte, func(*fiber.Ctx) error) {
	if feedURL := strings.TrimSpace(c.FormValue("icsurl")); feedURL != "" {
		req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, feedURL, nil)
		if err != nil {
			return nil, badSource("Invalid ICS URL")
		}
		resp, err := h.httpClient.Do(req)
		if err != nil {
			h.log.Warn().Err(err).Str("url", feedURL).Msg("could not fetch ICS feed")
			return nil, badSource("Could not fetch ICS URL")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, badSource(fmt.Sprintf("Could not fetch ICS URL (status %d)", resp.StatusCode))
		}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, badSource("Could not fetch ICS URL")
		}
		return raw, nil
	}

	file, err := c.FormFile("icsfile")
	if err != nil {
		return nil, badSource("No ICS URL or file provided")
	}
	src, err := file.Open()
	if err != nil {
		return nil, badSource("Could not read uploaded ICS file")
	}
	defer src.Close()
	raw, err := io.ReadAll(src)
	if err != nil || len(raw) == 0 {
		return nil, badSource("No ICS URL or file provided")
	}
	return raw, nil
}

func badSource(msg string) func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).SendString(msg)
	}
}

func propValue(ev *ics.VEvent, prop ics.ComponentProperty) string {
	if p := ev.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
