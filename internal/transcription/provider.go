// Package transcription talks to external speech-to-text providers and
// normalizes their answers. Providers are tried in a fixed priority order;
// a deployment with no provider configured is a valid state, not an error.
package transcription

import (
	"context"
	"errors"
	"time"
)

// Request carries one asset into a provider.
type Request struct {
	Data         []byte
	RemoteURL    string // already-public copy of the bytes (blob store); reused instead of re-uploading
	BaseName     string // stored filename without extension, names the sidecar files
	Verbatim     bool
	LongRunning  bool
	LanguageCode string
	Wait         bool // poll to completion instead of returning a job handle
}

// Result is a provider's normalized answer.
type Result struct {
	Status    string // types.Status* value
	JobID     string // async handle (AssemblyAI)
	Text      string
	Words     []string
	RawJSON   []byte // provider response body, persisted as a sidecar
	IngestURL string // provider-hosted copy of the asset, playback fallback
	Message   string // human-readable detail for failed/timed_out
}

// Provider is one external transcription backend.
type Provider interface {
	Name() string
	Configured() bool
	Transcribe(ctx context.Context, req Request) (Result, error)
}

var errPollTimeout = errors.New("poll budget exceeded")

// pollUntil invokes fn every interval until it reports done, the budget is
// spent, or ctx is cancelled. The first sleep happens before the first
// call, matching the provider flows this backs.
func pollUntil(ctx context.Context, interval, budget time.Duration, fn func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(budget)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return errPollTimeout
		}
	}
}
