package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(full, old, old))
	return full
}

func TestSweep_RemovesOnlyExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	expired := touch(t, dir, "1-old.mp4", 8*24*time.Hour)
	fresh := touch(t, dir, "2-new.mp4", 2*24*time.Hour)

	s := NewSweeper(dir, 7, zerolog.Nop())
	s.sweep()

	assert.NoFileExists(t, expired)
	assert.FileExists(t, fresh)
}

func TestSweep_IgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0o755))
	old := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(sub, old, old))

	s := NewSweeper(dir, 7, zerolog.Nop())
	s.sweep()

	assert.DirExists(t, sub)
}

func TestSweep_MissingDirIsNotFatal(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "nope"), 7, zerolog.Nop())
	s.sweep()
}
