// Package storage abstracts the object store holding document binaries.
// Binary keys follow the repository layout <prefix><content-digest>.
package storage

import "context"

// StateTag is the object tag used to track batch processing state.
const StateTag = "face-tagger-state"

// Processing states stored in the StateTag object tag.
const (
	StatePending   = "pending"
	StateProcessed = "processed"
	StateSkipped   = "skipped"
)

// ObjectStore is the capability face-tagger needs from the object store.
// Implementations must use finite call timeouts.
type ObjectStore interface {
	// Get fetches the full object content.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// List returns all keys under the prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// GetTag returns the value of the given object tag, or "" when unset.
	GetTag(ctx context.Context, bucket, key, tag string) (string, error)
	// SetTag sets an object tag, replacing any previous value.
	SetTag(ctx context.Context, bucket, key, tag, value string) error
}
