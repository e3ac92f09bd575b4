// Package blob stores opaque encrypted payloads (uploaded media, bulk
// export archives) behind a small key/value contract. Payloads are
// always encrypted by the caller before Put; this layer never sees
// plaintext.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Store is the payload storage contract.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
