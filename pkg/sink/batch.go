package sink

import (
	"encoding/json"

	"github.com/agentstation/caremap/pkg/schema"
)

// Batch is a set of records projected onto a schema, ready for encoding.
type Batch struct {
	Schema *schema.Schema
	Rows   []schema.Row
}

// NewBatch projects records onto s.
func NewBatch(s *schema.Schema, records []*schema.Record) Batch {
	rows := make([]schema.Row, len(records))
	for i, r := range records {
		rows[i] = s.Project(r)
	}
	return Batch{Schema: s, Rows: rows}
}

// MarshalJSON encodes the batch as an array of ordered objects.
func (b Batch) MarshalJSON() ([]byte, error) {
	if b.Rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.Rows)
}

// MarshalYAML encodes the batch as a sequence of ordered mappings.
func (b Batch) MarshalYAML() (any, error) {
	out := make([]any, len(b.Rows))
	for i, row := range b.Rows {
		m, err := row.MarshalYAML()
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// TableHeaders returns the column names.
func (b Batch) TableHeaders() []string {
	return b.Schema.Names()
}

// TableRows returns every cell as text; nulls are empty.
func (b Batch) TableRows() [][]string {
	out := make([][]string, len(b.Rows))
	for i, row := range b.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.Value.Text()
		}
		out[i] = cells
	}
	return out
}
