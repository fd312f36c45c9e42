package transcription

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codebuildervaibhav/studygate/internal/types"
)

const (
	googleDefaultBaseURL = "https://speech.googleapis.com"

	// Assets at or above this size go through longrunningrecognize; the
	// synchronous endpoint rejects large payloads.
	googleSyncLimit = 5 * 1024 * 1024
)

// GoogleSpeech calls the Google Speech-to-Text v1 REST API with API-key
// auth. Short audio is recognized synchronously; anything at or above the
// sync limit (or explicitly requested) runs as a long-running operation
// polled to completion within the budget.
type GoogleSpeech struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollBudget   time.Duration
	syncLimit    int64
}

// NewGoogleSpeech builds the client. An empty key leaves it unconfigured.
func NewGoogleSpeech(apiKey string, pollInterval, pollBudget time.Duration) *GoogleSpeech {
	return &GoogleSpeech{
		apiKey:       apiKey,
		baseURL:      googleDefaultBaseURL,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		pollInterval: pollInterval,
		pollBudget:   pollBudget,
		syncLimit:    googleSyncLimit,
	}
}

// SetBaseURL points the client at a different API host. Used by tests.
func (g *GoogleSpeech) SetBaseURL(u string) { g.baseURL = u }

func (g *GoogleSpeech) Name() string     { return types.ProviderGoogle }
func (g *GoogleSpeech) Configured() bool { return g.apiKey != "" }

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
			Words      []struct {
				Word string `json:"word"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"results"`
}

type googleOperation struct {
	Name     string                  `json:"name"`
	Done     bool                    `json:"done"`
	Response googleRecognizeResponse `json:"response"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe runs the asset through recognize or longrunningrecognize and
// always waits for the result; Google grants no job handle a client could
// poll later through this server.
func (g *GoogleSpeech) Transcribe(ctx context.Context, req Request) (Result, error) {
	lang := req.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	payload, _ := json.Marshal(map[string]any{
		"config": map[string]any{
			"encoding":                   "LINEAR16",
			"sampleRateHertz":            16000,
			"languageCode":               lang,
			"enableWordTimeOffsets":      req.Verbatim,
			"enableAutomaticPunctuation": true,
		},
		"audio": map[string]any{
			"content": base64.StdEncoding.EncodeToString(req.Data),
		},
	})

	if req.LongRunning || int64(len(req.Data)) >= g.syncLimit {
		return g.longRunning(ctx, req, payload)
	}
	return g.synchronous(ctx, req, payload)
}

func (g *GoogleSpeech) synchronous(ctx context.Context, req Request, payload []byte) (Result, error) {
	body, err := g.post(ctx, "/v1/speech:recognize", payload)
	if err != nil {
		return Result{}, fmt.Errorf("Google recognize failed: %w", err)
	}
	var resp googleRecognizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, fmt.Errorf("decode recognize response: %w", err)
	}
	return g.extract(resp, body, req.Verbatim, "Google transcription returned empty text"), nil
}

func (g *GoogleSpeech) longRunning(ctx context.Context, req Request, payload []byte) (Result, error) {
	body, err := g.post(ctx, "/v1/speech:longrunningrecognize", payload)
	if err != nil {
		return Result{}, fmt.Errorf("Google longrunningrecognize failed: %w", err)
	}
	var started googleOperation
	if err := json.Unmarshal(body, &started); err != nil {
		return Result{}, fmt.Errorf("decode operation response: %w", err)
	}
	if started.Name == "" {
		return Result{Status: types.StatusFailed, Message: "Could not start longrunning transcription (no operation name returned)"}, nil
	}

	var op googleOperation
	var raw []byte
	err = pollUntil(ctx, g.pollInterval, g.pollBudget, func(ctx context.Context) (bool, error) {
		b, err := g.get(ctx, "/v1/operations/"+url.PathEscape(started.Name))
		if err != nil {
			return false, err
		}
		raw = b
		op = googleOperation{}
		if err := json.Unmarshal(b, &op); err != nil {
			return false, fmt.Errorf("decode operation poll: %w", err)
		}
		return op.Done, nil
	})
	switch {
	case err == errPollTimeout:
		return Result{Status: types.StatusTimedOut, Message: "Longrunning transcription timed out"}, nil
	case err != nil:
		return Result{}, fmt.Errorf("Google operation poll failed: %w", err)
	}
	if op.Error != nil {
		return Result{Status: types.StatusFailed, Message: op.Error.Message}, nil
	}
	return g.extract(op.Response, raw, req.Verbatim, "Google longrunning transcription returned empty text"), nil
}

func (g *GoogleSpeech) extract(resp googleRecognizeResponse, raw []byte, verbatim bool, emptyMsg string) Result {
	parts := make([]string, 0, len(resp.Results))
	var words []string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if alt.Transcript != "" {
			parts = append(parts, alt.Transcript)
		}
		if verbatim {
			for _, w := range alt.Words {
				words = append(words, w.Word)
			}
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return Result{Status: types.StatusFailed, Message: emptyMsg}
	}
	return Result{Status: types.StatusCompleted, Text: text, Words: words, RawJSON: raw}
}

func (g *GoogleSpeech) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	endpoint := g.baseURL + path + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req)
}

func (g *GoogleSpeech) get(ctx context.Context, path string) ([]byte, error) {
	endpoint := g.baseURL + path + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return g.do(req)
}

func (g *GoogleSpeech) do(req *http.Request) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}
	return payload, nil
}
