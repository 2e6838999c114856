// Package union merges per-source record sets into one batch shaped to a
// schema.
package union

import (
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// Set is the records one source contributed, in source order.
type Set struct {
	Source  sources.ID
	Records []*schema.Record
}

// Diagnostic is a cast failure met while conforming a record.
type Diagnostic struct {
	Source sources.ID
	Index  int // position of the record within its set
	Err    error
}

// SourceReport counts what conforming changed for one source.
type SourceReport struct {
	Source  sources.ID `json:"source" yaml:"source"`
	Records int        `json:"records" yaml:"records"`
	Padded  int        `json:"padded_fields" yaml:"padded_fields"`
	Dropped int        `json:"dropped_columns" yaml:"dropped_columns"`
	Casts   int        `json:"cast_failures" yaml:"cast_failures"`
}

// Report describes a merge.
type Report struct {
	Sources     []SourceReport
	Diagnostics []Diagnostic
}

// Total returns the number of merged records.
func (r Report) Total() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Records
	}
	return n
}

// Merge conforms every record to s and concatenates the sets in the order
// given, keeping each set's own order. Records missing a field are padded
// with a typed null, never rejected. Records are conformed in place.
func Merge(s *schema.Schema, sets ...Set) ([]*schema.Record, Report) {
	total := 0
	for _, set := range sets {
		total += len(set.Records)
	}

	out := make([]*schema.Record, 0, total)
	report := Report{Sources: make([]SourceReport, 0, len(sets))}

	for _, set := range sets {
		sr := SourceReport{Source: set.Source, Records: len(set.Records)}
		for i, rec := range set.Records {
			res := rec.Conform(s)
			sr.Padded += len(res.Padded)
			sr.Dropped += len(res.Dropped)
			sr.Casts += len(res.Errors)
			for _, err := range res.Errors {
				report.Diagnostics = append(report.Diagnostics, Diagnostic{Source: set.Source, Index: i, Err: err})
			}
			out = append(out, rec)
		}
		report.Sources = append(report.Sources, sr)
	}

	return out, report
}
