// Package mapping holds the per-source column map and the mapper that turns
// a raw source row into a canonical record.
package mapping

import (
	"maps"
	"slices"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// Columns maps raw column names to canonical field names.
type Columns map[string]string

// Table is an immutable source id to column map lookup. Build it once with
// NewTable; every accessor hands out copies.
type Table struct {
	entries map[sources.ID]Columns
}

// NewTable validates every mapping target against the schema and returns the
// table. A target outside the schema, or two raw columns renamed to the same
// field, is a ConfigurationError for that source.
func NewTable(s *schema.Schema, entries map[sources.ID]Columns) (*Table, error) {
	t := &Table{entries: make(map[sources.ID]Columns, len(entries))}

	ids := slices.Sorted(maps.Keys(entries))
	for _, id := range ids {
		cols := entries[id]
		seen := make(map[string]string, len(cols))
		raws := slices.Sorted(maps.Keys(cols))
		for _, raw := range raws {
			target := cols[raw]
			if !s.Has(target) {
				return nil, pkgerrors.NewConfigurationError(id.String(),
					"column "+quote(raw)+" maps to unknown field "+quote(target), nil)
			}
			if prev, dup := seen[target]; dup {
				return nil, pkgerrors.NewConfigurationError(id.String(),
					"columns "+quote(prev)+" and "+quote(raw)+" both map to "+quote(target), nil)
			}
			seen[target] = raw
		}
		t.entries[id] = maps.Clone(cols)
	}

	return t, nil
}

// Lookup returns a copy of the column map for a source, or a
// ConfigurationError wrapping errors.ErrNoMapping when there is none.
func (t *Table) Lookup(id sources.ID) (Columns, error) {
	cols, ok := t.entries[id]
	if !ok {
		return nil, pkgerrors.NewNoMappingError(id.String())
	}
	return maps.Clone(cols), nil
}

// Has reports whether the table has an entry for the source.
func (t *Table) Has(id sources.ID) bool {
	_, ok := t.entries[id]
	return ok
}

// Sources returns the sorted source ids in the table.
func (t *Table) Sources() []sources.ID {
	return slices.Sorted(maps.Keys(t.entries))
}

// Len returns the number of sources in the table.
func (t *Table) Len() int { return len(t.entries) }

func quote(s string) string {
	return `"` + s + `"`
}
