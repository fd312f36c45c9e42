// Package cleanup removes uploads that outlived the retention window.
package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// The nightly sweep runs at 03:30 server time.
const sweepSpec = "30 3 * * *"

// Sweeper deletes files older than the retention window from the uploads
// directory. One sweep runs at startup, then nightly.
type Sweeper struct {
	dir      string
	keepDays int
	cron     *cron.Cron
	log      zerolog.Logger
}

// NewSweeper builds a sweeper over dir with a retention of keepDays.
func NewSweeper(dir string, keepDays int, log zerolog.Logger) *Sweeper {
	return &Sweeper{dir: dir, keepDays: keepDays, cron: cron.New(), log: log}
}

// Start runs an initial sweep and registers the nightly schedule.
func (s *Sweeper) Start() error {
	s.sweep()
	if _, err := s.cron.AddFunc(sweepSpec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("dir", s.dir).Int("keep_days", s.keepDays).Msg("upload retention sweep scheduled")
	return nil
}

// Stop halts the schedule. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	cutoff := time.Duration(s.keepDays) * 24 * time.Hour
	now := time.Now()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("dir", s.dir).Msg("could not read uploads directory")
		}
		return
	}

	var deleted int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age <= cutoff {
			continue
		}
		full := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(full); err != nil {
			s.log.Warn().Err(err).Str("file", full).Msg("could not delete old upload")
			continue
		}
		deleted++
		s.log.Info().Str("file", entry.Name()).Dur("age", age.Round(time.Hour)).Msg("removed old upload")
	}
	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("upload sweep complete")
	}
}
