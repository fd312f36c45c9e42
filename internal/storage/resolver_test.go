package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBlob struct {
	saved SavedFile
	err   error
	calls int
}

func (s *stubBlob) Save(_ context.Context, name string, _ []byte, _ string) (SavedFile, error) {
	s.calls++
	if s.err != nil {
		return SavedFile{}, s.err
	}
	out := s.saved
	out.Name = name
	return out, nil
}

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	return NewLocal(filepath.Join(t.TempDir(), "uploads"), "")
}

func TestResolver_PrefersBlob(t *testing.T) {
	blob := &stubBlob{saved: SavedFile{PublicURL: "https://storage.googleapis.com/b/uploads/a.mp4", Kind: StorageBlob}}
	r := NewResolver(blob, newTestLocal(t), zerolog.Nop())

	saved, err := r.Save(context.Background(), "a.mp4", []byte("x"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, StorageBlob, saved.Kind)
	assert.Equal(t, 1, blob.calls)
}

func TestResolver_FallsBackToLocalOnBlobError(t *testing.T) {
	blob := &stubBlob{err: errors.New("bucket gone")}
	r := NewResolver(blob, newTestLocal(t), zerolog.Nop())

	saved, err := r.Save(context.Background(), "a.mp4", []byte("x"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, StoragePublic, saved.Kind)
	assert.Equal(t, "/uploads/a.mp4", saved.PublicURL)
}

func TestResolver_NilBlobGoesStraightToLocal(t *testing.T) {
	r := NewResolver(nil, newTestLocal(t), zerolog.Nop())

	saved, err := r.Save(context.Background(), "a.wav", []byte("x"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, StoragePublic, saved.Kind)
}

func TestResolver_SidecarsAlwaysLocal(t *testing.T) {
	blob := &stubBlob{saved: SavedFile{Kind: StorageBlob}}
	r := NewResolver(blob, newTestLocal(t), zerolog.Nop())

	saved, err := r.SaveSidecar("a.txt", []byte("transcript"))
	require.NoError(t, err)
	assert.Equal(t, StoragePublic, saved.Kind)
	assert.Zero(t, blob.calls)
}
