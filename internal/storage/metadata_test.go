package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/studygate/internal/types"
)

func newTestDB(t *testing.T) *MetadataDB {
	t.Helper()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMetadataDB_RecordAndList(t *testing.T) {
	db := newTestDB(t)

	asset := types.UploadedAsset{
		StoredName:   "100-talk.mp4",
		PublicURL:    "/uploads/100-talk.mp4",
		MimeCategory: types.KindVideo,
		SizeBytes:    42,
	}
	outcome := types.Outcome{TranscriptAvailable: true}
	require.NoError(t, db.RecordUpload(asset, StoragePublic, outcome))

	records, err := db.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "100-talk.mp4", records[0].StoredName)
	assert.Equal(t, types.KindVideo, records[0].MimeCategory)
	assert.Equal(t, int64(42), records[0].SizeBytes)
	assert.Equal(t, StoragePublic, records[0].Storage)
	assert.Equal(t, types.StatusCompleted, records[0].TranscriptStatus)
}

func TestMetadataDB_PendingStatusFromTranscriptID(t *testing.T) {
	db := newTestDB(t)

	asset := types.UploadedAsset{StoredName: "1-a.wav", MimeCategory: types.KindAudio, SizeBytes: 1}
	require.NoError(t, db.RecordUpload(asset, StorageTemp, types.Outcome{TranscriptID: "job-1"}))

	records, err := db.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusPending, records[0].TranscriptStatus)
	assert.Equal(t, "job-1", records[0].TranscriptID)
}

func TestMetadataDB_DuplicateStoredNameRejected(t *testing.T) {
	db := newTestDB(t)

	asset := types.UploadedAsset{StoredName: "1-a.wav", MimeCategory: types.KindAudio, SizeBytes: 1}
	require.NoError(t, db.RecordUpload(asset, StorageTemp, types.Outcome{}))
	assert.Error(t, db.RecordUpload(asset, StorageTemp, types.Outcome{}))
}

func TestMetadataDB_ListSurfacesCorruptRows(t *testing.T) {
	db := newTestDB(t)

	_, err := db.db.Exec(`
	INSERT INTO uploads (stored_name, mime_category, size_bytes, storage, public_url, transcript_id, transcript_status, created_at)
	VALUES ('1-a.wav', 'audio', 1, 'temp', '', '', '', 'not-a-timestamp')
	`)
	require.NoError(t, err)

	_, err = db.ListRecent(10)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan upload row")
}

func TestMetadataDB_ListHonorsLimit(t *testing.T) {
	db := newTestDB(t)

	for _, name := range []string{"1-a.wav", "2-b.wav", "3-c.wav"} {
		asset := types.UploadedAsset{StoredName: name, MimeCategory: types.KindAudio, SizeBytes: 1}
		require.NoError(t, db.RecordUpload(asset, StorageTemp, types.Outcome{}))
	}
	records, err := db.ListRecent(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
