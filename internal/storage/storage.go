package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested object does not exist. Callers
// that tolerate missing objects check for it with errors.Is.
var ErrNotFound = errors.New("object not found")

// Object is one listed entry.
type Object struct {
	Key  string
	Size int64
}

// ObjectStore defines the minimal read capabilities the pipeline needs.
type ObjectStore interface {
	// List returns all objects under the given key prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Get returns a reader for the object at key. Missing objects
	// return ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
