package service

import (
	"os"

	"github.com/timmy/blisspaper/internal/domain"
)

// EntryLister produces a fresh ordered listing of the cache.
type EntryLister interface {
	Entries() ([]domain.CacheEntry, error)
}

// RotationCursor walks the cache listing one entry per call and wraps to the
// start once the listing is exhausted.
//
// The listing is taken lazily and kept until it runs out, so entries added in
// the meantime join on the next lap and entries removed in the meantime are
// skipped.
type RotationCursor struct {
	lister  EntryLister
	entries []domain.CacheEntry // nil means "list again on next call"
	pos     int
	laps    int
}

// NewRotationCursor creates a cursor over lister.
func NewRotationCursor(lister EntryLister) *RotationCursor {
	return &RotationCursor{lister: lister}
}

// Next returns the next cached entry. It reports false only when a fresh
// listing holds no entry that still exists on disk.
func (c *RotationCursor) Next() (domain.CacheEntry, bool, error) {
	refreshed := false
	for {
		if c.entries == nil {
			entries, err := c.lister.Entries()
			if err != nil {
				return domain.CacheEntry{}, false, err
			}
			if entries == nil {
				entries = []domain.CacheEntry{}
			}
			c.entries = entries
			c.pos = 0
			c.laps++
			refreshed = true
		}

		for c.pos < len(c.entries) {
			entry := c.entries[c.pos]
			c.pos++
			if _, err := os.Stat(entry.Path); err == nil {
				return entry, true, nil
			}
		}

		c.entries = nil
		if refreshed {
			return domain.CacheEntry{}, false, nil
		}
	}
}

// Laps returns how many listings the cursor has taken.
func (c *RotationCursor) Laps() int {
	return c.laps
}
