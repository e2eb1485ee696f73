package repository

import "context"

// AuthEntryRepository defines keyed blob persistence for session credentials
// and signal key material. Keys are composite, session-scoped strings; blobs
// are the codec-serialized textual form of a domain value.
type AuthEntryRepository interface {
	// Save upserts the blob stored under key.
	Save(ctx context.Context, key, blob string) error
	// FindByKey returns the blob for key; the bool is false on a miss.
	FindByKey(ctx context.Context, key string) (string, bool, error)
	DeleteByKey(ctx context.Context, key string) error
	// DeleteByKeyPattern removes every entry whose key starts with prefix.
	// Used for bulk session teardown.
	DeleteByKeyPattern(ctx context.Context, prefix string) error
}
