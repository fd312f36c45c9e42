package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
)

// BlobStore uploads files to a Google Cloud Storage bucket so ephemeral
// hosts can still hand out durable playback URLs.
type BlobStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewBlobStore dials GCS with application default credentials.
func NewBlobStore(ctx context.Context, bucket, prefix string) (*BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("blob storage enabled but no bucket configured")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &BlobStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save writes data to <prefix><name> and returns its public URL.
func (b *BlobStore) Save(ctx context.Context, name string, data []byte, contentType string) (SavedFile, error) {
	key := b.prefix + name
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return SavedFile{}, fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return SavedFile{}, fmt.Errorf("finish blob %s: %w", key, err)
	}
	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, key)
	return SavedFile{Name: name, PublicURL: url, Kind: StorageBlob}, nil
}

// Close releases the underlying client.
func (b *BlobStore) Close() error { return b.client.Close() }
