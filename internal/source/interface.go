package source

import (
	"context"
	"errors"
	"io"

	"github.com/timmy/blisspaper/internal/domain"
)

var (
	// ErrEndOfCollection reports an empty page: the collection is exhausted and
	// the cursor restarts from page 1 on its next call.
	ErrEndOfCollection = errors.New("end of collection")

	// ErrNoPhoto reports that no photo is available this tick. The cursor
	// keeps its position so the same page is retried.
	ErrNoPhoto = errors.New("no photo available")

	// ErrRateLimited is returned by clients that refuse a request locally to
	// stay within the API quota.
	ErrRateLimited = errors.New("request rate limited")
)

// Page is one page of a collection in API order, before any filtering.
type Page struct {
	CollectionID string
	Number       int
	Photos       []domain.Photo
}

// Collection is a paginated remote photo collection.
type Collection interface {
	// GetSourceID returns a stable identifier for the remote service.
	GetSourceID() string

	// FetchPage fetches one page of a collection. Pages are 1-based; an empty
	// page means the collection has no more photos.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - collectionID: remote collection identifier.
	//   - page: 1-based page number.
	// Returns:
	//   - *Page: photos on that page in API order.
	//   - error: non-nil on network, status or decode failures.
	FetchPage(ctx context.Context, collectionID string, page int) (*Page, error)

	// Download opens the image body for ref. The caller closes it.
	Download(ctx context.Context, ref domain.PhotoRef) (io.ReadCloser, error)
}
