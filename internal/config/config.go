package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries everything the server needs at startup. Structural
// settings (ports, directories, limits) may come from an optional YAML
// file; credentials and deployment toggles come from the environment and
// win over the file.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Uploads struct {
		PublicDir  string `yaml:"public_dir"`
		MaxVideoMB int    `yaml:"max_video_mb"`
		MaxAudioMB int    `yaml:"max_audio_mb"`
	} `yaml:"uploads"`

	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Poll struct {
		Interval time.Duration `yaml:"interval"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"poll"`

	Env Env `yaml:"-"`
}

// Env holds environment-only settings.
type Env struct {
	Port     int    `env:"PORT"`
	LogLevel string `env:"LOG_LEVEL"`

	AssemblyKey    string `env:"ASSEMBLY_API_KEY"`
	AssemblyKeyAlt string `env:"ASSEMBLYAI_API_KEY"`
	GoogleKey      string `env:"GOOGLE_API_KEY"`
	YouTubeKey     string `env:"YOUTUBE_API_KEY"`

	SiteAccessSecret     string `env:"SITE_ACCESS_SECRET"`
	CrossOriginIsolation bool   `env:"ENABLE_CROSS_ORIGIN_ISOLATION"`

	FallbackUploadDir string `env:"FALLBACK_UPLOAD_DIR"`
	UploadKeepDays    int    `env:"UPLOAD_KEEP_DAYS" envDefault:"7"`

	BlobEnable bool   `env:"BLOB_ENABLE"`
	BlobBucket string `env:"BLOB_BUCKET"`
	BlobPrefix string `env:"BLOB_PREFIX" envDefault:"uploads/"`

	SMTPHost   string `env:"SMTP_HOST"`
	SMTPPort   int    `env:"SMTP_PORT"`
	SMTPUser   string `env:"SMTP_USER"`
	SMTPPass   string `env:"SMTP_PASS"`
	SMTPSecure bool   `env:"SMTP_SECURE"`
	FromEmail  string `env:"FROM_EMAIL"`
}

// Load builds the configuration: code defaults, then the YAML file at path
// (skipped when missing), then environment variables loaded on top. A .env
// file is honoured when present.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 3000
	cfg.Uploads.PublicDir = "public/uploads"
	cfg.Uploads.MaxVideoMB = 200
	cfg.Uploads.MaxAudioMB = 100
	cfg.Storage.Database = "data/studygate.db"
	cfg.Poll.Interval = 2 * time.Second
	cfg.Poll.Timeout = 5 * time.Minute

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := env.Parse(&cfg.Env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Env.Port != 0 {
		cfg.Server.Port = cfg.Env.Port
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AssemblyAPIKey returns the AssemblyAI credential, accepting both recognised
// variable names and trimming whitespace pasted in from example files.
func (e Env) AssemblyAPIKey() string {
	if k := strings.TrimSpace(e.AssemblyKey); k != "" {
		return k
	}
	return strings.TrimSpace(e.AssemblyKeyAlt)
}

// GoogleAPIKey returns the trimmed Google Speech credential.
func (e Env) GoogleAPIKey() string {
	return strings.TrimSpace(e.GoogleKey)
}

// SMTPConfigured reports whether the email relay is fully configured.
func (e Env) SMTPConfigured() bool {
	return e.SMTPHost != "" && e.SMTPPort != 0 && e.SMTPUser != "" && e.SMTPPass != ""
}

// Sender returns the From address for reminder mail.
func (e Env) Sender() string {
	if e.FromEmail != "" {
		return e.FromEmail
	}
	return e.SMTPUser
}
