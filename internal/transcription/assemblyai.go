package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codebuildervaibhav/studygate/internal/types"
)

const assemblyDefaultBaseURL = "https://api.assemblyai.com"

// AssemblyAI submits assets to the AssemblyAI v2 API. The default mode is
// fire-and-forget: the caller gets a job handle and polls the status
// endpoint, because transcription can outlive any sensible HTTP timeout.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollBudget   time.Duration
}

// NewAssemblyAI builds the client. An empty key leaves it unconfigured.
func NewAssemblyAI(apiKey string, pollInterval, pollBudget time.Duration) *AssemblyAI {
	return &AssemblyAI{
		apiKey:       apiKey,
		baseURL:      assemblyDefaultBaseURL,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		pollInterval: pollInterval,
		pollBudget:   pollBudget,
	}
}

// SetBaseURL points the client at a different API host. Used by tests.
func (a *AssemblyAI) SetBaseURL(u string) { a.baseURL = u }

func (a *AssemblyAI) Name() string     { return types.ProviderAssembly }
func (a *AssemblyAI) Configured() bool { return a.apiKey != "" }

// Transcribe ingests the asset (unless a public copy already exists),
// creates a transcript job, and either returns the pending handle or polls
// it to a terminal state when req.Wait is set.
func (a *AssemblyAI) Transcribe(ctx context.Context, req Request) (Result, error) {
	ingestURL := req.RemoteURL
	if ingestURL == "" {
		var err error
		ingestURL, err = a.ingest(ctx, req.Data)
		if err != nil {
			return Result{}, fmt.Errorf("AssemblyAI upload failed: %w", err)
		}
	}

	id, err := a.submit(ctx, ingestURL)
	if err != nil {
		return Result{}, fmt.Errorf("AssemblyAI create transcript failed: %w", err)
	}
	if id == "" {
		return Result{Status: types.StatusFailed, Message: "Could not create AssemblyAI transcription job"}, nil
	}

	res := Result{Status: types.StatusPending, JobID: id, IngestURL: ingestURL}
	if !req.Wait {
		return res, nil
	}

	var last types.JobStatus
	var raw []byte
	err = pollUntil(ctx, a.pollInterval, a.pollBudget, func(ctx context.Context) (bool, error) {
		st, body, err := a.status(ctx, id)
		if err != nil {
			return false, err
		}
		last, raw = st, body
		return st.Status == types.StatusCompleted || st.Status == types.StatusFailed, nil
	})
	switch {
	case err == errPollTimeout:
		res.Status = types.StatusTimedOut
		res.Message = "Transcription polling timed out"
		return res, nil
	case err != nil:
		return Result{}, fmt.Errorf("AssemblyAI status poll failed: %w", err)
	}

	res.Status = last.Status
	res.RawJSON = raw
	if last.Text != nil {
		res.Text = *last.Text
	}
	if last.Error != nil {
		res.Message = *last.Error
	}
	return res, nil
}

// Status performs exactly one poll of a transcript job and normalizes the
// provider's answer.
func (a *AssemblyAI) Status(ctx context.Context, id string) (types.JobStatus, error) {
	st, _, err := a.status(ctx, id)
	return st, err
}

func (a *AssemblyAI) status(ctx context.Context, id string) (types.JobStatus, []byte, error) {
	endpoint := a.baseURL + "/v2/transcript/" + url.PathEscape(id)
	body, err := a.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return types.JobStatus{}, nil, err
	}
	var resp struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Text   *string `json:"text"`
		Error  *string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return types.JobStatus{}, nil, fmt.Errorf("decode transcript status: %w", err)
	}
	st := types.JobStatus{ID: resp.ID, Status: normalizeAssemblyStatus(resp.Status), Text: resp.Text, Error: resp.Error}
	return st, body, nil
}

func normalizeAssemblyStatus(s string) string {
	switch s {
	case "completed":
		return types.StatusCompleted
	case "error":
		return types.StatusFailed
	default: // queued, processing
		return types.StatusPending
	}
}

func (a *AssemblyAI) ingest(ctx context.Context, data []byte) (string, error) {
	body, err := a.do(ctx, http.MethodPost, a.baseURL+"/v2/upload", "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var resp struct {
		UploadURL string `json:"upload_url"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.UploadURL != "" {
		return resp.UploadURL, nil
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return "", fmt.Errorf("upload response carried no URL")
}

func (a *AssemblyAI) submit(ctx context.Context, audioURL string) (string, error) {
	payload, _ := json.Marshal(map[string]any{
		"audio_url":   audioURL,
		"punctuate":   true,
		"format_text": true,
	})
	body, err := a.do(ctx, http.MethodPost, a.baseURL+"/v2/transcript", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode transcript response: %w", err)
	}
	return resp.ID, nil
}

func (a *AssemblyAI) do(ctx context.Context, method, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", a.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}
	return payload, nil
}
