package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestScheduler_NilMailerIsNoOp(t *testing.T) {
	s := New(nil, zerolog.Nop())
	assert.False(t, s.Configured())
	assert.False(t, s.Schedule(Job{FiresAt: time.Now().Add(time.Hour)}))
	assert.Zero(t, s.Pending())
}

func TestScheduler_SkipsPastDueJobs(t *testing.T) {
	s := New(&recordingMailer{}, zerolog.Nop())
	assert.False(t, s.Schedule(Job{FiresAt: time.Now().Add(-time.Minute)}))
	assert.Zero(t, s.Pending())
}

func TestScheduler_FiresAndUnregisters(t *testing.T) {
	m := &recordingMailer{}
	s := New(m, zerolog.Nop())

	require.True(t, s.Schedule(Job{
		FiresAt:   time.Now().Add(20 * time.Millisecond),
		Recipient: "a@example.com",
		Subject:   "Reminder: essay",
	}))
	require.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return m.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, s.Pending())
}

func TestScheduler_StopCancelsPendingTimers(t *testing.T) {
	m := &recordingMailer{}
	s := New(m, zerolog.Nop())

	require.True(t, s.Schedule(Job{FiresAt: time.Now().Add(50 * time.Millisecond)}))
	s.Stop()
	assert.Zero(t, s.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, m.count())
}

func TestOneOffTimes_DropsPastOffsets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(2 * time.Hour)

	// 60m before due is still ahead; 180m before due already passed.
	times := OneOffTimes(due, []int{60, 180}, now)
	require.Len(t, times, 1)
	assert.Equal(t, due.Add(-time.Hour), times[0])
}

func TestOneOffTimes_IgnoresNegativeOffsets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := OneOffTimes(now.Add(time.Hour), []int{-5}, now)
	assert.Empty(t, times)
}

func TestDailyTimes_NextOccurrenceThroughDueDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)

	times := DailyTimes(due, 9, 0, now)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), times[2])
}

func TestDailyTimes_SameDayWhenTimeStillAhead(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	times := DailyTimes(due, 9, 0, now)
	require.Len(t, times, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), times[0])
}

func TestDailyTimes_EmptyWhenDueAlreadyPassed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, DailyTimes(now.Add(-time.Hour), 9, 0, now))
}
