// Package cloud defines the remote settings blob store the sync layer
// talks to. The OAuth client behind it is an external collaborator; the
// core only needs find-or-create, read, and write by blob id.
package cloud

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mock/blob_store.go -package=mock newsdeck/internal/cloud BlobStore

// ErrNotFound marks a blob that does not exist yet. The sync layer treats
// it as first-run, not as a failure.
var ErrNotFound = errors.New("blob not found")

// BlobStore is a key-value blob backend keyed by a well-known file name.
type BlobStore interface {
	// Find returns the id of the blob with the given name, or ErrNotFound.
	Find(ctx context.Context, name string) (string, error)
	// Create creates an empty blob with the given name and returns its id.
	Create(ctx context.Context, name string) (string, error)
	// Read returns the full contents of the blob.
	Read(ctx context.Context, id string) ([]byte, error)
	// Write overwrites the full contents of the blob.
	Write(ctx context.Context, id string, data []byte) error
}
