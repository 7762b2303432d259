// Package objstore is the key/object persistence boundary used for snapshots,
// the latest view and the company table.
package objstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

const ContentTypeJSON = "application/json"

type Store interface {
	// Get returns ErrNotFound (possibly wrapped) for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// List returns every key starting with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
	// Location renders key as a human readable address, e.g. s3://bucket/key.
	Location(key string) string
}
