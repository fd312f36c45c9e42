package types

import "time"

// Transcription job status constants. Status only moves forward:
// pending -> completed | failed | timed_out.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
)

// Transcription provider names
const (
	ProviderAssembly = "assembly"
	ProviderGoogle   = "google"
	ProviderNone     = "none"
)

// Media kind constants
const (
	KindVideo = "video"
	KindAudio = "audio"
)

// UploadedAsset describes a single media file persisted by this server.
// PublicURL is empty when the file is not reachable through the HTTP layer
// (temp-dir storage on ephemeral hosts).
type UploadedAsset struct {
	StoredName   string
	Path         string
	PublicURL    string
	MimeCategory string
	SizeBytes    int64
}

// Outcome is the response contract every upload endpoint returns once the
// file itself was accepted. Transcription failures degrade to a Message
// here instead of an HTTP error.
type Outcome struct {
	URL                  string `json:"url,omitempty"`
	Storage              string `json:"storage,omitempty"`
	TranscriptAvailable  bool   `json:"transcriptAvailable"`
	TranscriptURL        string `json:"transcriptUrl,omitempty"`
	TranscriptText       string `json:"transcriptText,omitempty"`
	TranscriptID         string `json:"transcriptId,omitempty"`
	AssemblyUploadURL    string `json:"assemblyUploadUrl,omitempty"`
	TranscriptionJSONURL string `json:"transcriptionJsonUrl,omitempty"`
	VerbatimAvailable    bool   `json:"verbatimAvailable,omitempty"`
	VerbatimURL          string `json:"verbatimUrl,omitempty"`
	Message              string `json:"message,omitempty"`
}

// JobStatus is the normalized answer of one provider status poll.
type JobStatus struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Text   *string `json:"text"`
	Error  *string `json:"error"`
}

// UploadRecord is one row of upload metadata kept in the local database.
type UploadRecord struct {
	StoredName       string    `json:"stored_name"`
	MimeCategory     string    `json:"mime_category"`
	SizeBytes        int64     `json:"size_bytes"`
	Storage          string    `json:"storage"`
	PublicURL        string    `json:"public_url,omitempty"`
	TranscriptID     string    `json:"transcript_id,omitempty"`
	TranscriptStatus string    `json:"transcript_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
