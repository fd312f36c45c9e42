package transcription

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/studygate/internal/storage"
	"github.com/codebuildervaibhav/studygate/internal/types"
)

// Inline transcript text in responses is capped at this many characters.
const maxInlineTranscript = 5000

const notConfiguredMessage = "Upload succeeded. Set GOOGLE_API_KEY or ASSEMBLY_API_KEY in the server environment to enable automatic transcription."

// Sidecars persists derived artifacts next to their asset.
type Sidecars interface {
	SaveSidecar(name string, data []byte) (storage.SavedFile, error)
}

// Orchestrator hands an uploaded asset to the first configured provider
// and folds whatever happens into the upload response contract. Provider
// and storage failures degrade to a message; they never surface as HTTP
// errors once the upload itself succeeded.
type Orchestrator struct {
	providers []Provider
	sidecars  Sidecars
	log       zerolog.Logger
}

// NewOrchestrator builds an orchestrator trying providers in the given
// order.
func NewOrchestrator(sidecars Sidecars, log zerolog.Logger, providers ...Provider) *Orchestrator {
	return &Orchestrator{providers: providers, sidecars: sidecars, log: log}
}

// ActiveProvider returns the name of the provider that would serve the
// next request, or "none".
func (o *Orchestrator) ActiveProvider() string {
	if p := o.selectProvider(); p != nil {
		return p.Name()
	}
	return types.ProviderNone
}

func (o *Orchestrator) selectProvider() Provider {
	for _, p := range o.providers {
		if p.Configured() {
			return p
		}
	}
	return nil
}

// Run transcribes one asset and returns the response fields. The returned
// outcome never reports an error state beyond its Message.
func (o *Orchestrator) Run(ctx context.Context, req Request) types.Outcome {
	var out types.Outcome

	p := o.selectProvider()
	if p == nil {
		out.Message = notConfiguredMessage
		o.log.Info().Msg("no transcription provider configured")
		return out
	}

	res, err := p.Transcribe(ctx, req)
	if err != nil {
		o.log.Error().Err(err).Str("provider", p.Name()).Msg("transcription failed")
		out.Message = fmt.Sprintf("Transcription failed: %v", err)
		return out
	}
	out.AssemblyUploadURL = res.IngestURL

	switch res.Status {
	case types.StatusPending:
		out.TranscriptID = res.JobID
		out.Message = "Transcription job created; poll /transcript/status/:id for updates."

	case types.StatusCompleted:
		o.persistArtifacts(p.Name(), req, res, &out)

	case types.StatusFailed, types.StatusTimedOut:
		out.Message = res.Message
		if out.Message == "" {
			out.Message = fmt.Sprintf("%s transcription did not produce a result", p.Name())
		}

	default:
		out.Message = fmt.Sprintf("Unexpected transcription state %q", res.Status)
	}
	return out
}

func (o *Orchestrator) persistArtifacts(provider string, req Request, res Result, out *types.Outcome) {
	saved, err := o.sidecars.SaveSidecar(req.BaseName+".txt", []byte(res.Text))
	if err != nil {
		o.log.Error().Err(err).Msg("could not write transcript sidecar")
		out.Message = "Transcription completed but the transcript could not be stored"
		return
	}
	out.TranscriptAvailable = true
	out.TranscriptURL = saved.PublicURL
	out.TranscriptText = truncateTranscript(res.Text)

	if len(res.RawJSON) > 0 {
		name := fmt.Sprintf("%s.transcription.%s.json", req.BaseName, provider)
		if saved, err := o.sidecars.SaveSidecar(name, res.RawJSON); err == nil {
			out.TranscriptionJSONURL = saved.PublicURL
		} else {
			o.log.Warn().Err(err).Msg("could not write provider JSON sidecar")
		}
	}

	if req.Verbatim && len(res.Words) > 0 {
		joined := strings.Join(res.Words, " ")
		if saved, err := o.sidecars.SaveSidecar(req.BaseName+".verbatim.txt", []byte(joined)); err == nil {
			out.VerbatimAvailable = true
			out.VerbatimURL = saved.PublicURL
		} else {
			o.log.Warn().Err(err).Msg("could not write verbatim sidecar")
		}
	}
}

func truncateTranscript(text string) string {
	if len(text) <= maxInlineTranscript {
		return text
	}
	cut := maxInlineTranscript
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n\n...[truncated]"
}
