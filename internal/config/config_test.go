package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, "public/uploads", cfg.Uploads.PublicDir)
	assert.Equal(t, 200, cfg.Uploads.MaxVideoMB)
	assert.Equal(t, 100, cfg.Uploads.MaxAudioMB)
	assert.Equal(t, "data/studygate.db", cfg.Storage.Database)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Poll.Timeout)
	assert.Equal(t, 7, cfg.Env.UploadKeepDays)
	assert.Equal(t, "uploads/", cfg.Env.BlobPrefix)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 8080
uploads:
  max_video_mb: 50
poll:
  interval: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, 50, cfg.Uploads.MaxVideoMB)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.Uploads.MaxAudioMB)
}

func TestLoad_EnvPortWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644))
	t.Setenv("PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_MalformedYAMLRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnv_AssemblyAPIKeyFallsBackToAltName(t *testing.T) {
	e := Env{AssemblyKeyAlt: "  alt-key \n"}
	assert.Equal(t, "alt-key", e.AssemblyAPIKey())

	e.AssemblyKey = " primary "
	assert.Equal(t, "primary", e.AssemblyAPIKey())
}

func TestEnv_SMTPConfiguredNeedsAllFields(t *testing.T) {
	e := Env{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUser: "u"}
	assert.False(t, e.SMTPConfigured())
	e.SMTPPass = "p"
	assert.True(t, e.SMTPConfigured())
}

func TestEnv_SenderFallsBackToSMTPUser(t *testing.T) {
	e := Env{SMTPUser: "bot@example.com"}
	assert.Equal(t, "bot@example.com", e.Sender())
	e.FromEmail = "noreply@example.com"
	assert.Equal(t, "noreply@example.com", e.Sender())
}
