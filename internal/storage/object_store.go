package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore holds model artifacts by key. A completed PutObject replaces any
// previous object under the same key in a single step; readers never observe a
// partially written object.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) ([]byte, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Location is the human readable storage path of key, e.g. a file path or s3:// url.
	Location(key string) string
}
