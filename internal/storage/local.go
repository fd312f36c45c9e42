package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Storage kind constants reported back to callers.
const (
	StorageBlob     = "blob"
	StoragePublic   = "public"
	StorageTemp     = "temp"
	StorageProvider = "provider"
)

// SavedFile points at one durably written file.
type SavedFile struct {
	Name      string
	Path      string
	PublicURL string
	Kind      string
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SanitizeName replaces every character outside [a-z0-9.-_] with an
// underscore. Collisions are avoided by StoredName, not here.
func SanitizeName(name string) string {
	if name == "" {
		return "upload"
	}
	return unsafeChars.ReplaceAllString(filepath.Base(name), "_")
}

// StoredName prefixes a sanitized original name with the current time in
// milliseconds and a short random fragment so two uploads of the same file
// never overwrite each other, even within the same millisecond.
func StoredName(now time.Time, original string) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], SanitizeName(original))
}

// Local writes files to the public uploads directory when it is writable,
// otherwise to the OS temp dir. The destination is probed once at
// construction so every upload of a deployment lands in the same place.
type Local struct {
	publicDir string
	tempDir   string
	usePublic bool
}

// NewLocal probes dirs in order: override (private, explicit), the public
// directory, then the OS temp dir.
func NewLocal(publicDir, overrideDir string) *Local {
	l := &Local{publicDir: publicDir, tempDir: os.TempDir()}
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err == nil {
			l.tempDir = overrideDir
			return l
		}
	}
	if err := os.MkdirAll(publicDir, 0o755); err == nil {
		if probeWritable(publicDir) {
			l.usePublic = true
		}
	}
	return l
}

func probeWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// ServesPublic reports whether saved files are reachable under /uploads.
func (l *Local) ServesPublic() bool { return l.usePublic }

// PublicDir returns the directory mapped to /uploads.
func (l *Local) PublicDir() string { return l.publicDir }

// Dir returns the directory uploads actually land in.
func (l *Local) Dir() string {
	if l.usePublic {
		return l.publicDir
	}
	return l.tempDir
}

// Save writes data under the resolved directory. No partial files survive a
// failed write.
func (l *Local) Save(name string, data []byte) (SavedFile, error) {
	dir := l.tempDir
	kind := StorageTemp
	publicURL := ""
	if l.usePublic {
		dir = l.publicDir
		kind = StoragePublic
		publicURL = "/uploads/" + name
	}
	full := filepath.Join(dir, name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		os.Remove(full)
		return SavedFile{}, fmt.Errorf("write %s: %w", full, err)
	}
	return SavedFile{Name: name, Path: full, PublicURL: publicURL, Kind: kind}, nil
}
