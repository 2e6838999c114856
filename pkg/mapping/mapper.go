package mapping

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/caremap/pkg/constants"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// VersionNumber is stamped into every record's version_number field.
const VersionNumber = constants.VersionNumber

// Meta is the run metadata stamped into every mapped record.
type Meta struct {
	LoadTime time.Time
	Version  string
}

// Mapper renames raw columns to canonical fields.
type Mapper struct {
	schema *schema.Schema
}

// NewMapper returns a mapper producing records of the given schema.
func NewMapper(s *schema.Schema) *Mapper {
	if s == nil {
		s = schema.Canonical()
	}
	return &Mapper{schema: s}
}

// Schema returns the mapper's target schema.
func (m *Mapper) Schema() *schema.Schema { return m.schema }

// MapRecord produces one canonical record from a raw row. Mapped columns are
// renamed, every other schema field is a typed null, and raw columns without
// a mapping are kept as auxiliary columns for hooks. The source, load time,
// version and origin file name are stamped last.
//
// It fails with a ConfigurationError when the table has no entry for id.
func (m *Mapper) MapRecord(rec sources.Record, table *Table, id sources.ID, meta Meta) (*schema.Record, error) {
	cols, err := table.Lookup(id)
	if err != nil {
		return nil, err
	}
	return m.mapWith(rec, cols, id, meta), nil
}

// MapAll maps every row of one source. Nothing is returned unless every row
// could be mapped.
func (m *Mapper) MapAll(recs []sources.Record, table *Table, id sources.ID, meta Meta) ([]*schema.Record, error) {
	cols, err := table.Lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]*schema.Record, len(recs))
	for i, rec := range recs {
		out[i] = m.mapWith(rec, cols, id, meta)
	}
	return out, nil
}

func (m *Mapper) mapWith(rec sources.Record, cols Columns, id sources.ID, meta Meta) *schema.Record {
	out := m.schema.NewRecord()

	for raw, text := range rec.Values {
		target, ok := cols[raw]
		if !ok {
			out.SetAux(raw, rawValue(text))
			continue
		}
		if text != "" {
			out.Set(target, schema.String(text))
		}
	}

	version := meta.Version
	if version == "" {
		version = VersionNumber
	}
	stamp := func(name string, v schema.Value) {
		if m.schema.Has(name) {
			out.Set(name, v)
		}
	}
	stamp(schema.FieldSource, schema.String(id.String()))
	stamp(schema.FieldETLLoadTime, schema.Timestamp(meta.LoadTime))
	stamp(schema.FieldVersionNumber, schema.String(version))
	stamp(schema.FieldSourceFileName, fileName(rec.File))

	return out
}

// rawValue turns a raw cell into a string value; "" is null.
func rawValue(text string) schema.Value {
	if text == "" {
		return schema.Null(schema.KindString)
	}
	return schema.String(text)
}

// fileName returns the base name of a local path or object URL.
func fileName(file string) schema.Value {
	if file == "" {
		return schema.Null(schema.KindString)
	}
	if strings.Contains(file, "://") {
		return schema.String(path.Base(file))
	}
	return schema.String(filepath.Base(file))
}
