// Package localstore is the on-device key-value cache: JSON-serialized
// values under namespaced string keys. It is the durability floor of the
// persistence layer: module writes land here synchronously before any
// remote call is attempted.
package localstore

import "context"

// Store describes the local cache operations.
type Store interface {
	// Get unmarshals the value stored under key into out. Returns
	// common.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string, out any) error

	// Set JSON-serializes value and stores it under key, replacing any
	// previous value.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
