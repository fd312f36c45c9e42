package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/studygate/internal/types"
)

// MetadataDB records uploads and their transcription state in SQLite.
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed creates) the database at dbPath.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stored_name TEXT NOT NULL UNIQUE,
		mime_category TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		storage TEXT NOT NULL,
		public_url TEXT,
		transcript_id TEXT,
		transcript_status TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("create uploads table: %w", err)
	}
	return &MetadataDB{db: db}, nil
}

// RecordUpload stores one upload row together with its transcription
// outcome.
func (m *MetadataDB) RecordUpload(asset types.UploadedAsset, storageKind string, outcome types.Outcome) error {
	status := ""
	switch {
	case outcome.TranscriptAvailable:
		status = types.StatusCompleted
	case outcome.TranscriptID != "":
		status = types.StatusPending
	}

	query := `
	INSERT INTO uploads (stored_name, mime_category, size_bytes, storage, public_url, transcript_id, transcript_status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := m.db.Exec(query, asset.StoredName, asset.MimeCategory, asset.SizeBytes,
		storageKind, asset.PublicURL, outcome.TranscriptID, status, time.Now())
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// ListRecent returns the newest upload rows, most recent first.
func (m *MetadataDB) ListRecent(limit int) ([]types.UploadRecord, error) {
	query := `
	SELECT stored_name, mime_category, size_bytes, storage, public_url, transcript_id, transcript_status, created_at
	FROM uploads ORDER BY created_at DESC LIMIT ?
	`
	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var records []types.UploadRecord
	for rows.Next() {
		var rec types.UploadRecord
		if err := rows.Scan(&rec.StoredName, &rec.MimeCategory, &rec.SizeBytes,
			&rec.Storage, &rec.PublicURL, &rec.TranscriptID, &rec.TranscriptStatus, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (m *MetadataDB) Close() error { return m.db.Close() }
