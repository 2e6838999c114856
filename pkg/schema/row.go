package schema

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// Cell is a named value in schema order.
type Cell struct {
	Name  string
	Value Value
}

// Row is a record projected onto a schema.
type Row []Cell

// Values returns the row's values in order.
func (row Row) Values() []Value {
	out := make([]Value, len(row))
	for i, c := range row {
		out[i] = c.Value
	}
	return out
}

// Native returns the row's native payloads in order, as used by database drivers.
func (row Row) Native() []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c.Value.Interface()
	}
	return out
}

// MarshalJSON encodes the row as an object whose keys keep schema order.
func (row Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := c.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the row as an ordered mapping.
func (row Row) MarshalYAML() (any, error) {
	out := make(yaml.MapSlice, len(row))
	for i, c := range row {
		out[i] = yaml.MapItem{Key: c.Name, Value: c.Value.portable()}
	}
	return out, nil
}
