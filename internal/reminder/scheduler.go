// Package reminder schedules one-shot email notifications around event due
// dates. When no mail relay is configured the whole package degrades to a
// no-op: events are still created, just without reminders.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Job is one pending notification.
type Job struct {
	FiresAt   time.Time
	Recipient string
	Subject   string
	Body      string
}

// Scheduler owns the registry of pending reminder timers. Fires are
// detached from the request that created them; a send failure is logged
// and dropped, never surfaced to a caller.
type Scheduler struct {
	mailer Mailer
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New builds a scheduler. mailer may be nil, which disables scheduling.
func New(mailer Mailer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		mailer: mailer,
		log:    log,
		now:    time.Now,
		timers: map[string]*time.Timer{},
	}
}

// Configured reports whether reminders can actually be delivered.
func (s *Scheduler) Configured() bool {
	return s != nil && s.mailer != nil
}

// Schedule registers one job. Jobs whose fire time has already passed are
// skipped silently; that is expected when an offset reaches into the past.
func (s *Scheduler) Schedule(job Job) bool {
	if !s.Configured() {
		return false
	}
	delay := job.FiresAt.Sub(s.now())
	if delay <= 0 {
		s.log.Debug().Time("fires_at", job.FiresAt).Msg("skipping reminder in the past")
		return false
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id, job) })
	s.mu.Unlock()
	return true
}

func (s *Scheduler) fire(id string, job Job) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.mailer.Send(ctx, job.Recipient, job.Subject, job.Body); err != nil {
		s.log.Error().Err(err).Str("to", job.Recipient).Msg("could not send reminder email")
		return
	}
	s.log.Info().Str("to", job.Recipient).Str("subject", job.Subject).Msg("sent reminder email")
}

// Stop cancels all pending timers. Best effort: a timer that already fired
// keeps running its send.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of registered timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// OneOffTimes computes the fire instants for minutes-before offsets,
// dropping any that already passed.
func OneOffTimes(due time.Time, offsetsMinutes []int, now time.Time) []time.Time {
	var times []time.Time
	for _, m := range offsetsMinutes {
		if m < 0 {
			continue
		}
		when := due.Add(-time.Duration(m) * time.Minute)
		if when.After(now) {
			times = append(times, when)
		}
	}
	return times
}

// DailyTimes computes one fire instant per day at hh:mm, starting from the
// next occurrence of that time and continuing through the due instant.
func DailyTimes(due time.Time, hh, mm int, now time.Time) []time.Time {
	current := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !current.After(now) {
		current = current.AddDate(0, 0, 1)
	}
	var times []time.Time
	for !current.After(due) {
		times = append(times, current)
		current = current.AddDate(0, 0, 1)
	}
	return times
}
