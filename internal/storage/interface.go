package storage

import (
	"context"
	"io"
)

// ObjectStorage is the evidence archive backend. Matched images are stored
// under per-case keys so a reviewer can still see what was compared after
// the source post is edited or deleted.
type ObjectStorage interface {
	// Upload stores an object under the given key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves a stored object
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for a stored object
	GetURL(key string) string

	// Delete removes a stored object
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is stored under the key
	Exists(ctx context.Context, key string) (bool, error)
}
