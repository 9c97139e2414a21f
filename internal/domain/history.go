package domain

import "time"

// EventKind is what happened to an image during a tick.
// Values include EventDownloaded, EventDuplicate, EventEvicted, and EventPresented.
type EventKind string

const (
	EventDownloaded EventKind = "downloaded"
	EventDuplicate  EventKind = "duplicate"
	EventEvicted    EventKind = "evicted"
	EventPresented  EventKind = "presented"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventDownloaded, EventDuplicate, EventEvicted, EventPresented:
		return true
	}
	return false
}

// RotationEvent is an audit record of cache and display activity.
// The cache directory stays authoritative; this table is history only.
type RotationEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Kind         EventKind `gorm:"type:text;not null;index:idx_rotation_events_kind" json:"kind"`
	Tick         uint64    `json:"tick"`
	SourceURL    string    `gorm:"type:text" json:"source_url,omitempty"`
	Path         string    `gorm:"type:text" json:"path"`
	CollectionID string    `gorm:"type:text" json:"collection_id,omitempty"`
	Page         int       `json:"page,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Format       string    `gorm:"type:text" json:"format,omitempty"`
	FileSize     int64     `json:"file_size,omitempty"`
	CreatedAt    time.Time `gorm:"index:idx_rotation_events_created" json:"created_at"`
}

// TableName returns the database table name for RotationEvent.
func (RotationEvent) TableName() string {
	return "rotation_events"
}
