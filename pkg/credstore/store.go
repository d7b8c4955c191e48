// Package credstore defines the minimal key-value capability the client uses
// to persist session credentials, along with a set of backends: in-memory,
// JSON file, SQLite and Redis.
//
// The store makes no transactional guarantees; it may be shared with other
// processes and the client treats it accordingly.
package credstore

import (
	"context"
	"errors"
)

// ErrNotFound reports that no value exists for the requested key.
var ErrNotFound = errors.New("credstore: key not found")

// Store is a minimal key-value capability for credential blobs.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any prior value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
