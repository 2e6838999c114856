package sink

import (
	"context"
	"sync"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
)

// Memory keeps the last accepted batch in memory.
type Memory struct {
	mu      sync.Mutex
	records []*schema.Record
	writes  int

	// Err, when set, makes every Write fail without storing anything.
	Err error
}

// NewMemory creates an empty memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Name implements Sink.
func (m *Memory) Name() string { return "memory" }

// Write implements Sink. Each call replaces the stored batch.
func (m *Memory) Write(ctx context.Context, records []*schema.Record) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.WrapSink(m.Name(), "", len(records), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return pkgerrors.WrapSink(m.Name(), "", len(records), m.Err)
	}
	m.records = append([]*schema.Record(nil), records...)
	m.writes++
	return nil
}

// Records returns the stored batch.
func (m *Memory) Records() []*schema.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*schema.Record(nil), m.records...)
}

// Writes returns how many batches were accepted.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
