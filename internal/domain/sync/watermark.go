package sync

import "time"

// DefaultServiceName identifies this sync service in watermark storage and
// outbound event envelopes.
const DefaultServiceName = "pharmacy-sync-service"

// Watermark marks the boundary of the last successful incremental sync.
// It is a single per-service timestamp, not per-record.
type Watermark struct {
	ServiceName  string
	LastSyncedAt time.Time
	UpdatedAt    time.Time
}
