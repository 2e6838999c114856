package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
)

// Formatter renders a value to a writer. The CLI output formatters satisfy it.
type Formatter interface {
	Format(w io.Writer, data any) error
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Writer renders the batch to an io.Writer, typically stdout. The batch is
// rendered fully before anything is written.
type Writer struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
	schema    *schema.Schema
}

// NewWriter creates a writer sink. A nil formatter renders indented JSON.
func NewWriter(w io.Writer, f Formatter, s *schema.Schema) *Writer {
	if f == nil {
		f = jsonFormatter{}
	}
	if s == nil {
		s = schema.Canonical()
	}
	return &Writer{w: w, formatter: f, schema: s}
}

// Name implements Sink.
func (s *Writer) Name() string { return "writer" }

// Write implements Sink.
func (s *Writer) Write(ctx context.Context, records []*schema.Record) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.WrapSink(s.Name(), "", len(records), err)
	}

	var buf bytes.Buffer
	if err := s.formatter.Format(&buf, NewBatch(s.schema, records)); err != nil {
		return pkgerrors.WrapSink(s.Name(), "", len(records), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return pkgerrors.WrapSink(s.Name(), "", len(records), err)
	}
	return nil
}
