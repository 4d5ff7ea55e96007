// Package hash derives the 64-bit identifiers used to index series in a blob.
package hash

import "github.com/cespare/xxhash/v2"

// SeriesID returns the xxHash64 of a series identifier. The value is stable across
// processes and platforms, so it can be persisted in blob index entries.
func SeriesID(identifier string) uint64 {
	return xxhash.Sum64String(identifier)
}
