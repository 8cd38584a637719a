package store

import (
	"context"
	"encoding/json"
)

// Buckets used by yapits.
const (
	BucketProjects   = "projects"
	BucketInterfaces = "interfaces"
)

// Store is a key/value cache of JSON values grouped in buckets. Each value
// is identified inside its bucket by one of its own fields.
type Store interface {
	// GetAll returns every value in the bucket in insertion order.
	GetAll(ctx context.Context, key string) ([]json.RawMessage, error)
	// Get returns the value whose field equals value, or nil when absent.
	Get(ctx context.Context, key, field string, value any) (json.RawMessage, error)
	// SetIfAbsent stores value unless one with the same field value exists.
	// It reports whether value was stored.
	SetIfAbsent(ctx context.Context, key string, value any, field string) (bool, error)
	// Clear removes the matching value, or the whole bucket when field is empty.
	Clear(ctx context.Context, key, field string, value any) error

	Close() error
}
