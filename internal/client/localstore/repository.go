// Package localstore is the client's persisted key-value store. It keeps
// small blobs (such as diet checklist snapshots) in a local SQLite file.
package localstore

import "context"

// Repository is a string-keyed blob store.
//
// Get returns (nil, nil) when the key is absent. SetMany writes all pairs
// atomically. Deleting an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
