// Package sink defines where a run delivers its final batch and provides
// file, writer and in-memory implementations.
//
// A Sink accepts the whole deduplicated batch in one Write call. It must
// either persist every record or none of them; a failed Write returns a
// *errors.SinkError and leaves the target as it was.
package sink

import (
	"context"

	"github.com/agentstation/caremap/pkg/schema"
)

// Sink accepts the final batch of a run.
type Sink interface {
	// Name identifies the sink kind in logs and errors, e.g. "postgres".
	Name() string

	// Write persists every record or none.
	Write(ctx context.Context, records []*schema.Record) error
}

// Mode selects how a sink treats data already at the target.
type Mode string

const (
	// ModeOverwrite replaces existing data.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend adds to existing data.
	ModeAppend Mode = "append"
)

// ParseMode validates a mode name. An empty name means overwrite.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeOverwrite:
		return ModeOverwrite, true
	case ModeAppend:
		return ModeAppend, true
	}
	return "", false
}
