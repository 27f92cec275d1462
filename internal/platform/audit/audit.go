// Package audit is the interface to the platform's audit pipeline. The
// pipeline itself lives outside this layer; services hand it the prior full
// record (the "old" value) alongside the new one on every mutation.
package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// Entry describes one mutation of a clinical record.
type Entry struct {
	Action       string // create, update, delete
	ResourceType string
	ResourceID   string
	Old          interface{} // full prior record, nil on create
	New          interface{} // resulting record, nil on delete
}

// Recorder receives mutation entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// LogRecorder logs entries through zerolog; it stands in for the external
// audit collaborator.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, entry Entry) {
	r.logger.Info().
		Str("action", entry.Action).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Interface("old", entry.Old).
		Interface("new", entry.New).
		Msg("audit")
}

// Nop discards entries; used in tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, entry Entry) {}
