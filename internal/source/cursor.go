package source

import (
	"context"
	"fmt"

	"github.com/timmy/blisspaper/internal/domain"
)

// CursorState is the position of a Cursor, for logging and status output.
type CursorState struct {
	CollectionID string `json:"collection_id"`
	Page         int    `json:"page"`
	Buffered     int    `json:"buffered"`
	RestartNext  bool   `json:"restart_next"`
}

// Cursor walks one or more collections page by page and never terminates:
// an empty page makes the next call start over at page 1 of the next
// collection (the same one when only one is configured).
//
// The cursor is not safe for concurrent use.
type Cursor struct {
	source      Collection
	collections []string
	photoSize   string

	current int // index into collections
	page    int // next page to fetch
	buffer  []domain.PhotoRef
	restart bool
}

// NewCursor creates a cursor positioned at page 1 of the first collection.
// photoSize selects the rendition (raw, full, regular, small).
func NewCursor(src Collection, collections []string, photoSize string) *Cursor {
	if len(collections) == 0 {
		panic("source: cursor needs at least one collection")
	}
	return &Cursor{
		source:      src,
		collections: append([]string(nil), collections...),
		photoSize:   photoSize,
		page:        1,
	}
}

// Next returns the next photo reference.
//
// It returns ErrEndOfCollection when the current page came back empty and a
// wrapped ErrNoPhoto when the page could not be fetched or held no usable
// photo. Neither is fatal; call Next again on the following tick.
func (c *Cursor) Next(ctx context.Context) (domain.PhotoRef, error) {
	if len(c.buffer) > 0 {
		return c.pop(), nil
	}

	if c.restart {
		c.restart = false
		c.current = (c.current + 1) % len(c.collections)
		c.page = 1
	}

	collectionID := c.collections[c.current]
	page, err := c.source.FetchPage(ctx, collectionID, c.page)
	if err != nil {
		return domain.PhotoRef{}, fmt.Errorf("%w: collection %s page %d: %w", ErrNoPhoto, collectionID, c.page, err)
	}

	if len(page.Photos) == 0 {
		c.restart = true
		return domain.PhotoRef{}, ErrEndOfCollection
	}

	fetched := c.page
	c.page++
	c.buffer = c.filter(collectionID, fetched, page.Photos)
	if len(c.buffer) == 0 {
		return domain.PhotoRef{}, fmt.Errorf("%w: collection %s page %d has no %s urls", ErrNoPhoto, collectionID, fetched, c.photoSize)
	}
	return c.pop(), nil
}

// State reports the current position.
func (c *Cursor) State() CursorState {
	return CursorState{
		CollectionID: c.collections[c.current],
		Page:         c.page,
		Buffered:     len(c.buffer),
		RestartNext:  c.restart,
	}
}

func (c *Cursor) pop() domain.PhotoRef {
	ref := c.buffer[0]
	c.buffer = c.buffer[1:]
	return ref
}

// filter drops photos without a URL for the configured size.
func (c *Cursor) filter(collectionID string, page int, photos []domain.Photo) []domain.PhotoRef {
	refs := make([]domain.PhotoRef, 0, len(photos))
	for _, p := range photos {
		url := p.URLs.Select(c.photoSize)
		if url == "" {
			continue
		}
		refs = append(refs, domain.PhotoRef{
			URL:          url,
			PhotoID:      p.ID,
			CollectionID: collectionID,
			Page:         page,
		})
	}
	return refs
}
