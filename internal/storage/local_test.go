package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name untouched", "lecture-01_final.mp4", "lecture-01_final.mp4"},
		{"spaces replaced", "my lecture.mp4", "my_lecture.mp4"},
		{"unicode replaced", "résumé.wav", "r_sum_.wav"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"empty falls back", "", "upload"},
		{"shell chars replaced", "a;rm -rf.mp3", "a_rm_-rf.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestStoredName_PrefixesMillisAndKeepsSanitizedName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	got := StoredName(now, "my talk.mp4")
	assert.True(t, strings.HasPrefix(got, "1700000000123-"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, "-my_talk.mp4"), "got %q", got)
}

func TestStoredName_DistinctAcrossInstants(t *testing.T) {
	a := StoredName(time.UnixMilli(1000), "same.wav")
	b := StoredName(time.UnixMilli(1001), "same.wav")
	assert.NotEqual(t, a, b)
}

func TestStoredName_DistinctWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := StoredName(now, "a.mp4")
	b := StoredName(now, "a.mp4")
	assert.NotEqual(t, a, b)
}

func TestLocal_SameInstantUploadsDoNotOverwrite(t *testing.T) {
	l := NewLocal(filepath.Join(t.TempDir(), "uploads"), "")
	now := time.UnixMilli(1700000000123)

	first, err := l.Save(StoredName(now, "a.mp4"), []byte("first upload"))
	require.NoError(t, err)
	second, err := l.Save(StoredName(now, "a.mp4"), []byte("second upload"))
	require.NoError(t, err)
	require.NotEqual(t, first.Path, second.Path)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "first upload", string(data))
}

func TestLocal_SavesToPublicDirWhenWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l := NewLocal(dir, "")
	require.True(t, l.ServesPublic())
	assert.Equal(t, dir, l.Dir())

	saved, err := l.Save("123-a.mp4", []byte("bytes"))
	require.NoError(t, err)
	assert.Equal(t, StoragePublic, saved.Kind)
	assert.Equal(t, "/uploads/123-a.mp4", saved.PublicURL)

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestLocal_OverrideDirWins(t *testing.T) {
	public := filepath.Join(t.TempDir(), "public")
	override := filepath.Join(t.TempDir(), "private")
	l := NewLocal(public, override)
	require.False(t, l.ServesPublic())
	assert.Equal(t, override, l.Dir())

	saved, err := l.Save("x.wav", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, StorageTemp, saved.Kind)
	assert.Empty(t, saved.PublicURL)
	assert.Equal(t, filepath.Join(override, "x.wav"), saved.Path)
}

func TestLocal_FallsBackToTempWhenPublicUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	l := NewLocal(filepath.Join(parent, "uploads"), "")
	assert.False(t, l.ServesPublic())
	assert.Equal(t, os.TempDir(), l.Dir())
}
