package domain

// PhotoURLs lists the renditions the collection API exposes for one photo.
// Any of them may be empty.
type PhotoURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
}

// Select returns the rendition for size (raw, full, regular, small).
// Unknown sizes select the full rendition.
func (u PhotoURLs) Select(size string) string {
	switch size {
	case "raw":
		return u.Raw
	case "regular":
		return u.Regular
	case "small":
		return u.Small
	default:
		return u.Full
	}
}

// Photo is one element of a collection page as returned by the API.
type Photo struct {
	ID     string    `json:"id"`
	URLs   PhotoURLs `json:"urls"`
	Author string    `json:"-"`
}

// PhotoRef identifies a downloadable image. URL is the cache key; the other
// fields record where the cursor found it.
type PhotoRef struct {
	URL          string
	PhotoID      string
	CollectionID string
	Page         int
}
