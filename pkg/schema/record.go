package schema

import (
	"maps"
	"slices"
)

// Record is one provider row. Canonical values live in the field set;
// unmapped raw columns live in an auxiliary set that hooks can read and
// that is discarded when the record is conformed.
type Record struct {
	values map[string]Value
	aux    map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{
		values: make(map[string]Value),
		aux:    make(map[string]Value),
	}
}

// Get returns the value of a field, or a null string when absent.
func (r *Record) Get(name string) Value {
	return r.values[name]
}

// Lookup returns the value of a field and whether the field is present.
func (r *Record) Lookup(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set stores a field value.
func (r *Record) Set(name string, v Value) {
	r.values[name] = v
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	delete(r.values, name)
}

// Len returns the number of fields, not counting auxiliary columns.
func (r *Record) Len() int { return len(r.values) }

// FieldNames returns the sorted field names.
func (r *Record) FieldNames() []string {
	return slices.Sorted(maps.Keys(r.values))
}

// Aux returns an auxiliary column.
func (r *Record) Aux(name string) (Value, bool) {
	v, ok := r.aux[name]
	return v, ok
}

// SetAux stores an auxiliary column.
func (r *Record) SetAux(name string, v Value) {
	r.aux[name] = v
}

// DeleteAux removes an auxiliary column.
func (r *Record) DeleteAux(name string) {
	delete(r.aux, name)
}

// AuxNames returns the sorted auxiliary column names.
func (r *Record) AuxNames() []string {
	return slices.Sorted(maps.Keys(r.aux))
}

// Column resolves a name the way hooks see it: field first, then auxiliary column.
func (r *Record) Column(name string) (Value, bool) {
	if v, ok := r.values[name]; ok {
		return v, true
	}
	v, ok := r.aux[name]
	return v, ok
}

// SetColumn writes to the field when the record has it and to the
// auxiliary set otherwise.
func (r *Record) SetColumn(name string, v Value) {
	if _, ok := r.values[name]; ok {
		r.values[name] = v
		return
	}
	r.aux[name] = v
}

// DropColumn removes an auxiliary column. A field cannot be removed this
// way; it is nulled instead so the record keeps its shape.
func (r *Record) DropColumn(name string) {
	if v, ok := r.values[name]; ok {
		r.values[name] = Null(v.Kind())
		return
	}
	delete(r.aux, name)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	return &Record{
		values: maps.Clone(r.values),
		aux:    maps.Clone(r.aux),
	}
}

// ConformResult describes what Conform changed.
type ConformResult struct {
	// Padded lists schema fields that were absent and got a typed null.
	Padded []string
	// Dropped lists non-schema fields and auxiliary columns that were removed.
	Dropped []string
	// Errors holds one cast failure per field whose value was nulled.
	Errors []error
}

// Conform reshapes the record to exactly the schema's fields: absent fields
// become typed nulls, values of the wrong kind are cast (a failed cast
// becomes null and is reported), and every other column is dropped.
func (r *Record) Conform(s *Schema) ConformResult {
	var res ConformResult

	for _, name := range r.FieldNames() {
		if !s.Has(name) {
			delete(r.values, name)
			res.Dropped = append(res.Dropped, name)
		}
	}
	for _, name := range r.AuxNames() {
		delete(r.aux, name)
		res.Dropped = append(res.Dropped, name)
	}

	for _, f := range s.fields {
		v, ok := r.values[f.Name]
		if !ok {
			r.values[f.Name] = Null(f.Kind)
			res.Padded = append(res.Padded, f.Name)
			continue
		}
		if v.Kind() == f.Kind {
			continue
		}
		cast, err := Cast(f.Name, v, f.Kind)
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
		r.values[f.Name] = cast
	}

	return res
}
