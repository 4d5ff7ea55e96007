// Package collision detects duplicate series identifiers and identifier hash
// collisions while series are added to a blob.
package collision

import (
	"fmt"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/hash"
)

// Tracker records the identifiers added to one blob in insertion order.
type Tracker struct {
	byHash map[uint64]string
	ids    []string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byHash: make(map[uint64]string),
	}
}

// Track registers identifier and returns its hash.
//
// Adding the same identifier twice returns errs.ErrDuplicateSeries. Two different
// identifiers with the same xxHash64 return errs.ErrHashCollision: the blob index
// is keyed by hash alone, so such a pair cannot share a blob.
func (t *Tracker) Track(identifier string) (uint64, error) {
	if identifier == "" {
		return 0, errs.ErrInvalidSeriesID
	}

	id := hash.SeriesID(identifier)
	if existing, ok := t.byHash[id]; ok {
		if existing == identifier {
			return 0, fmt.Errorf("%w: %q", errs.ErrDuplicateSeries, identifier)
		}

		return 0, fmt.Errorf("%w: %q and %q", errs.ErrHashCollision, existing, identifier)
	}

	t.byHash[id] = identifier
	t.ids = append(t.ids, identifier)

	return id, nil
}

// Contains reports whether identifier was tracked.
func (t *Tracker) Contains(identifier string) bool {
	existing, ok := t.byHash[hash.SeriesID(identifier)]
	return ok && existing == identifier
}

// IDs returns the tracked identifiers in insertion order.
func (t *Tracker) IDs() []string {
	return t.ids
}

// Count returns the number of tracked identifiers.
func (t *Tracker) Count() int {
	return len(t.ids)
}

// Reset clears the tracker, keeping allocated capacity.
func (t *Tracker) Reset() {
	clear(t.byHash)
	t.ids = t.ids[:0]
}
