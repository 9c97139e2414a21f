package domain

import "time"

// CacheEntry is one image file in the local wallpaper cache.
type CacheEntry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	SourceURL string    `json:"source_url,omitempty"` // empty when the name is a hash
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
