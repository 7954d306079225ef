package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been written or
// was deleted.
var ErrKeyNotFound = errors.New("key not found")

// Store is the persistence boundary for session state: a string-keyed,
// byte-valued store. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
