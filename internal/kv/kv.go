// Package kv provides the synchronous key-value persistence boundary used by
// the local record store.
//
// Three implementations are provided:
//   - SQLite: durable device storage (the default for the CLI)
//   - Dir: one file per key inside a state directory
//   - Memory: process-lifetime map, used by tests and as the degraded mode
//     when no durable storage is available
//
// All implementations store opaque string values; callers are responsible for
// JSON encoding.
package kv

// Store is a synchronous key-value slot.
//
// GetItem returns the stored value and true, or ("", false, nil) when the key
// has never been written. Errors indicate the underlying medium failed, not
// that the key is absent.
type Store interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}
