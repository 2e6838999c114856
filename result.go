package caremap

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/caremap/pkg/dedup"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string
	LoadTime time.Time
	DryRun   bool

	// Records is the final deduplicated batch in output order.
	Records []*schema.Record

	Sources     []SourceSummary
	Skipped     []Skipped
	Diagnostics []Diagnostic
	Duplicates  []Duplicate
	Stats       Stats

	Duration time.Duration
}

// SourceSummary counts one source's contribution to a run.
type SourceSummary struct {
	Source  sources.ID `json:"source" yaml:"source"`
	Path    string     `json:"path" yaml:"path"`
	Read    int        `json:"read" yaml:"read"`
	Merged  int        `json:"merged" yaml:"merged"`
	Padded  int        `json:"padded_fields" yaml:"padded_fields"`
	Dropped int        `json:"dropped_columns" yaml:"dropped_columns"`
	Kept    int        `json:"kept" yaml:"kept"`
}

// Skipped records a source left out of a run.
type Skipped struct {
	Source sources.ID
	Path   string
	Reason error
}

// Diagnostic is a value nulled while normalizing a record. The record itself
// is kept.
type Diagnostic struct {
	Source  sources.ID `json:"source" yaml:"source"`
	File    string     `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int        `json:"line,omitempty" yaml:"line,omitempty"`
	Field   string     `json:"field,omitempty" yaml:"field,omitempty"`
	Value   string     `json:"value,omitempty" yaml:"value,omitempty"`
	Message string     `json:"message" yaml:"message"`
}

// String returns a one-line description.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Source))
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
	}
	if d.Field != "" {
		fmt.Fprintf(&b, " %s", d.Field)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	return b.String()
}

// Duplicate records one record removed by dedup.
type Duplicate struct {
	Key           dedup.Key
	DroppedSource sources.ID
	DroppedLine   int
	WinnerSource  sources.ID
	WinnerLine    int
}

// Stats holds a run's counters.
type Stats struct {
	Sources     int `json:"sources" yaml:"sources"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Read        int `json:"read" yaml:"read"`
	Merged      int `json:"merged" yaml:"merged"`
	Diagnostics int `json:"diagnostics" yaml:"diagnostics"`
	Groups      int `json:"groups" yaml:"groups"`
	Duplicates  int `json:"duplicates" yaml:"duplicates"`
	Unkeyed     int `json:"unkeyed" yaml:"unkeyed"`
	Written     int `json:"written" yaml:"written"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("sources", s.Sources).
		Int("skipped", s.Skipped).
		Int("read", s.Read).
		Int("merged", s.Merged).
		Int("diagnostics", s.Diagnostics).
		Int("groups", s.Groups).
		Int("duplicates", s.Duplicates).
		Int("unkeyed", s.Unkeyed).
		Int("written", s.Written)
}

// Summary returns a short human readable report.
func (r *Result) Summary() string {
	var b strings.Builder
	verb := "wrote"
	if r.DryRun {
		verb = "would write"
	}
	fmt.Fprintf(&b, "run %s: %s %d records from %d sources", r.RunID, verb, len(r.Records), r.Stats.Sources-r.Stats.Skipped)
	fmt.Fprintf(&b, " (%d read, %d duplicates removed, %d diagnostics)", r.Stats.Read, r.Stats.Duplicates, r.Stats.Diagnostics)
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "\n  skipped %s: %v", s.Source, s.Reason)
	}
	return b.String()
}
