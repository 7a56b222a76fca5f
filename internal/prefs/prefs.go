// Package prefs is the string-keyed preference store holding the only
// persisted state: the salt key, the default iteration count and the
// per-domain override map.
//
// Two implementations are provided: SQLiteStore for the CLI and MemoryStore
// for tests and dry runs.
package prefs

import "context"

// Keys under which the persisted settings live.
const (
	KeySaltKey           = "saltKey"
	KeyDefaultIterations = "defaultIterations"
	KeyCustomOverrides   = "customOverrides"
)

// Store is a string-keyed get/put store.
type Store interface {
	// GetString returns the value under key and whether it exists.
	GetString(ctx context.Context, key string) (string, bool, error)

	// PutString writes value under key, replacing any previous value.
	PutString(ctx context.Context, key, value string) error

	// PutAll writes every entry or none of them.
	PutAll(ctx context.Context, values map[string]string) error

	Close() error
}
