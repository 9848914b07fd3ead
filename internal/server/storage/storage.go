// Package storage persists validated upload bytes in durable storage, keyed
// by logical name. It is written only after the validation chain has passed;
// the upload record store remains the source of truth for attempt status.
package storage

import "context"

// Store writes and reads content blobs.
type Store interface {
	// Put stores data under the logical name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the content stored under the logical name, or
	// common.ErrorNotFound when nothing is stored.
	Get(ctx context.Context, name string) ([]byte, error)

	// Available reports free bytes on the backing medium.
	Available() (int64, error)
}
