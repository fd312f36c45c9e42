package handlers

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/studygate/internal/reminder"
	"github.com/codebuildervaibhav/studygate/internal/storage"
)

var dueDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// EventsHandler builds custom calendar events from a form and optionally
// schedules email reminders around the due date. A missing email relay is
// not an error: the event is still created, just without reminders.
type EventsHandler struct {
	resolver  *storage.Resolver
	reminders *reminder.Scheduler
	now       func() time.Time
	log       zerolog.Logger
}

// NewEventsHandler creates the handler.
func NewEventsHandler(resolver *storage.Resolver, reminders *reminder.Scheduler, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{resolver: resolver, reminders: reminders, now: time.Now, log: log}
}

type eventForm struct {
	Title           string
	Type            string
	Percentage      string
	DueDateStr      string
	AllocateMinutes int
	Reminders       string
	DailyReminders  bool
	DailyTime       string
	Email           string
	Worth           string
	ClassCode       string
	BackdropURL     string
	YouTube         string
	Spotify         string
	IncludeMedia    bool
}

func (h *EventsHandler) parseForm(c *fiber.Ctx) eventForm {
	form := eventForm{
		Title:          strings.TrimSpace(c.FormValue("title")),
		Type:           c.FormValue("type"),
		Percentage:     c.FormValue("percentage"),
		DueDateStr:     c.FormValue("dueDate"),
		Reminders:      c.FormValue("reminders"),
		DailyReminders: boolish(c.FormValue("dailyReminders")),
		DailyTime:      c.FormValue("dailyTime"),
		Email:          strings.TrimSpace(c.FormValue("email")),
		Worth:          c.FormValue("worth"),
		ClassCode:      c.FormValue("classCode"),
		YouTube:        strings.TrimSpace(c.FormValue("youtube")),
		Spotify:        strings.TrimSpace(c.FormValue("spotify")),
		IncludeMedia:   boolish(c.FormValue("includeMediaInEvent")),
	}
	if form.Title == "" {
		form.Title = "Untitled"
	}
	if form.DailyTime == "" {
		form.DailyTime = "09:00"
	}
	if mins, err := strconv.Atoi(c.FormValue("allocateMinutes")); err == nil && mins > 0 {
		form.AllocateMinutes = mins
	}
	form.BackdropURL = h.resolveBackdrop(c)
	return form
}

// resolveBackdrop prefers a freshly uploaded file, then a stored filename
// carried over from preview, then a plain URL.
func (h *EventsHandler) resolveBackdrop(c *fiber.Ctx) string {
	if file, err := c.FormFile("backdropFile"); err == nil && file != nil {
		src, err := file.Open()
		if err == nil {
			defer src.Close()
			if data, err := io.ReadAll(src); err == nil && len(data) > 0 {
				name := storage.StoredName(h.now(), file.Filename)
				saved, err := h.resolver.Save(c.UserContext(), name, data, file.Header.Get(fiber.HeaderContentType))
				if err == nil && saved.PublicURL != "" {
					return saved.PublicURL
				}
			}
		}
	}
	if name := c.FormValue("backdropFileName"); name != "" {
		return "/uploads/" + name
	}
	return strings.TrimSpace(c.FormValue("backdropUrl"))
}

// Preview serves POST /preview: echo back the computed event summary so
// the client can confirm before creating.
func (h *EventsHandler) Preview(c *fiber.Ctx) error {
	form := h.parseForm(c)

	details := []string{fmt.Sprintf("Type: %s", form.Type)}
	if form.Percentage != "" {
		details = append(details, fmt.Sprintf("Percentage: %s", form.Percentage))
	}
	if form.Worth != "" {
		details = append(details, fmt.Sprintf("Worth: %s", form.Worth))
	}
	if form.ClassCode != "" {
		details = append(details, fmt.Sprintf("Class: %s", form.ClassCode))
	}
	details = append(details, fmt.Sprintf("Due: %s", form.DueDateStr))
	if form.AllocateMinutes > 0 {
		details = append(details, fmt.Sprintf("Allocate (minutes): %d", form.AllocateMinutes))
	}
	if form.Reminders != "" {
		details = append(details, fmt.Sprintf("One-off reminders (min before): %s", form.Reminders))
	}
	daily := "No"
	if form.DailyReminders {
		daily = "Yes"
	}
	details = append(details, fmt.Sprintf("Daily reminders: %s at %s", daily, form.DailyTime))
	if form.Email != "" {
		details = append(details, fmt.Sprintf("Email: %s", form.Email))
	}
	if form.IncludeMedia {
		if form.BackdropURL != "" {
			details = append(details, fmt.Sprintf("Backdrop: %s", form.BackdropURL))
		}
		if form.YouTube != "" {
			details = append(details, fmt.Sprintf("YouTube: %s", form.YouTube))
		}
		if form.Spotify != "" {
			details = append(details, fmt.Sprintf("Spotify: %s", form.Spotify))
		}
	}

	return c.JSON(fiber.Map{
		"title":           form.Title,
		"type":            form.Type,
		"percentage":      form.Percentage,
		"dueDate":         form.DueDateStr,
		"allocateMinutes": form.AllocateMinutes,
		"reminders":       form.Reminders,
		"dailyReminders":  form.DailyReminders,
		"dailyTime":       form.DailyTime,
		"email":           form.Email,
		"worth":           form.Worth,
		"classCode":       form.ClassCode,
		"backdrop":        form.BackdropURL,
		"youtube":         form.YouTube,
		"youtubeEmbed":    youtubeEmbedURL(form.YouTube),
		"spotify":         form.Spotify,
		"spotifyEmbed":    spotifyEmbedURL(form.Spotify),
		"details":         strings.Join(details, "\n"),
	})
}

// Create serves POST /create: build the event ICS download and schedule
// reminders when possible.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	form := h.parseForm(c)

	if form.DueDateStr == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing due date")
	}
	due, err := parseDueDate(form.DueDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid due date")
	}

	description := buildDescription(form)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	dueEvent := cal.AddEvent(uuid.New().String())
	dueEvent.SetDtStampTime(h.now())
	dueEvent.SetSummary(fmt.Sprintf("%s (Due)", form.Title))
	dueEvent.SetStartAt(due)
	dueEvent.SetDescription(description)

	if form.AllocateMinutes > 0 {
		alloc := cal.AddEvent(uuid.New().String())
		alloc.SetDtStampTime(h.now())
		alloc.SetSummary(fmt.Sprintf("Allocate %dm for %s", form.AllocateMinutes, form.Title))
		alloc.SetStartAt(due.Add(-time.Duration(form.AllocateMinutes) * time.Minute))
		alloc.SetEndAt(due)
		body := fmt.Sprintf("Planned work time for %s", form.Title)
		if description != "" {
			body += "\n\n" + description
		}
		alloc.SetDescription(body)
	}

	scheduled := h.scheduleReminders(form, due, description)
	h.log.Info().Str("title", form.Title).Time("due", due).Int("reminders", scheduled).Msg("event created")

	filename := nonAlnum.ReplaceAllString(form.Title, "_") + ".ics"
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	c.Set(fiber.HeaderContentType, "text/calendar")
	return c.SendString(cal.Serialize())
}

func (h *EventsHandler) scheduleReminders(form eventForm, due time.Time, description string) int {
	if form.Email == "" || !h.reminders.Configured() {
		return 0
	}
	now := h.now()
	dueText := due.Format("Jan 2, 2006 3:04 PM")
	scheduled := 0

	offsets := parseOffsets(form.Reminders)
	for _, when := range reminder.OneOffTimes(due, offsets, now) {
		ok := h.reminders.Schedule(reminder.Job{
			FiresAt:   when,
			Recipient: form.Email,
			Subject:   fmt.Sprintf("Reminder: %s due %s", form.Title, dueText),
			Body:      fmt.Sprintf("This is a reminder for %s (due %s).\n\n%s", form.Title, dueText, description),
		})
		if ok {
			scheduled++
		}
	}

	if form.DailyReminders {
		hh, mm := parseDailyTime(form.DailyTime)
		for _, when := range reminder.DailyTimes(due, hh, mm, now) {
			ok := h.reminders.Schedule(reminder.Job{
				FiresAt:   when,
				Recipient: form.Email,
				Subject:   fmt.Sprintf("Daily reminder: %s (due %s)", form.Title, dueText),
				Body:      fmt.Sprintf("Daily reminder for %s. Due: %s\n\n%s", form.Title, dueText, description),
			})
			if ok {
				scheduled++
			}
		}
	}
	return scheduled
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

func buildDescription(form eventForm) string {
	var parts []string
	if form.Type != "" {
		parts = append(parts, fmt.Sprintf("Type: %s", form.Type))
	}
	if form.Percentage != "" {
		parts = append(parts, fmt.Sprintf("Percentage: %s", form.Percentage))
	}
	if form.Worth != "" {
		parts = append(parts, fmt.Sprintf("Worth: %s", form.Worth))
	}
	if form.ClassCode != "" {
		parts = append(parts, fmt.Sprintf("Class: %s", form.ClassCode))
	}
	if form.IncludeMedia {
		if form.BackdropURL != "" {
			parts = append(parts, fmt.Sprintf("Backdrop: %s", form.BackdropURL))
		}
		if form.YouTube != "" {
			parts = append(parts, fmt.Sprintf("YouTube: %s", form.YouTube))
		}
		if form.Spotify != "" {
			parts = append(parts, fmt.Sprintf("Spotify: %s", form.Spotify))
		}
	}
	return strings.Join(parts, "\n")
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseOffsets(s string) []int {
	var offsets []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			continue
		}
		offsets = append(offsets, n)
	}
	return offsets
}

func parseDailyTime(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 9, 0
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 9, 0
	}
	return hh, mm
}

var youtubeIDPattern = regexp.MustCompile(`v=([^&]+)`)

func youtubeEmbedURL(raw string) string {
	if raw == "" {
		return ""
	}
	if m := youtubeIDPattern.FindStringSubmatch(raw); m != nil {
		return "https://www.youtube.com/embed/" + m[1]
	}
	if _, after, ok := strings.Cut(raw, "youtu.be/"); ok && after != "" {
		return "https://www.youtube.com/embed/" + after
	}
	return ""
}

func spotifyEmbedURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "embed") {
		return raw
	}
	if strings.Contains(raw, "track") || strings.Contains(raw, "playlist") || strings.Contains(raw, "album") {
		return strings.Replace(raw, "open.spotify.com", "open.spotify.com/embed", 1)
	}
	return ""
}
