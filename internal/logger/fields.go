package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the context.
const (
	// FieldRequestID is the status API request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldTick is the rotation tick sequence number
	FieldTick = "tick"

	// FieldCollectionID is the remote collection being paged
	FieldCollectionID = "collection_id"

	// FieldPage is the remote page number
	FieldPage = "page"
)

// Entry-level fields, used for aggregation.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
	FieldURL        = "url"
	FieldPath       = "path"
)
