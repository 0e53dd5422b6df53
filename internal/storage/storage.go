package storage

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no object-storage backend is configured.
// The verification layer records it as the unknown tri-state rather than
// failing the operation.
var ErrUnavailable = errors.New("object storage backend unavailable")

// ObjectStore abstracts the S3-compatible storage capability the engine
// consumes: stat, recursive list, bounded read, and upload. Implementations
// work on canonical object URIs (scheme://bucket/key).
type ObjectStore interface {
	// Stat reports whether a single object exists.
	Stat(ctx context.Context, uri string) (bool, error)
	// List returns the sorted canonical URIs of all objects under the
	// given prefix, recursively, excluding directory markers.
	List(ctx context.Context, prefix string) ([]string, error)
	// Read returns object content, failing when it exceeds maxBytes.
	Read(ctx context.Context, uri string, maxBytes int64) ([]byte, error)
	// Write uploads a local file to the destination URI.
	Write(ctx context.Context, localFile, destURI string) error
}
