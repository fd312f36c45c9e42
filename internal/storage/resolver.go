package storage

import (
	"context"

	"github.com/rs/zerolog"
)

// Blob is the remote store surface the resolver needs. Satisfied by
// *BlobStore; tests substitute their own.
type Blob interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (SavedFile, error)
}

// Resolver picks a destination for uploaded bytes: the remote blob store
// first when configured, then the local store (public dir or temp dir).
// Resolution is fixed per configuration, so a deployment behaves the same
// for every upload. Bytes are never silently dropped: if no destination
// succeeds the upload fails.
type Resolver struct {
	blob  Blob // nil when not configured
	local *Local
	log   zerolog.Logger
}

// NewResolver builds a resolver. blob may be nil.
func NewResolver(blob Blob, local *Local, log zerolog.Logger) *Resolver {
	return &Resolver{blob: blob, local: local, log: log}
}

// Local exposes the local store for sidecar writes.
func (r *Resolver) Local() *Local { return r.local }

// Save persists data under name and reports where it landed.
func (r *Resolver) Save(ctx context.Context, name string, data []byte, contentType string) (SavedFile, error) {
	if r.blob != nil {
		saved, err := r.blob.Save(ctx, name, data, contentType)
		if err == nil {
			return saved, nil
		}
		r.log.Warn().Err(err).Str("name", name).Msg("blob upload failed, falling back to local storage")
	}
	return r.local.Save(name, data)
}

// SaveSidecar writes a derived artifact (transcript text, provider JSON)
// next to its asset. Sidecars always live on the local filesystem.
func (r *Resolver) SaveSidecar(name string, data []byte) (SavedFile, error) {
	return r.local.Save(name, data)
}
