// Package manifest loads the YAML document describing one pipeline run:
// which sources to read, how their columns map, which hooks run per
// source, and where the result goes.
//
// Example manifest:
//
//	date_pattern: M/d/yy
//	mappings: column_map.json
//	default_hooks:
//	  - name: phone_normalize
//	  - name: name_split
//	sources:
//	  - id: source1
//	    path: csv/source1.csv
//	  - id: source3
//	    path: s3://child-care/raw/source3.csv
//	    hooks:
//	      - name: age_consolidate_flags
//	        columns: [Infant, Toddler, Preschool, School]
//	sink:
//	  kind: postgres
//	  table: child_care_info
//	  mode: overwrite
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/caremap/pkg/constants"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/mapping"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sink"
	"github.com/agentstation/caremap/pkg/sources"
	"github.com/agentstation/caremap/pkg/transform"
)

// Sink kinds.
const (
	SinkPostgres = "postgres"
	SinkFile     = "file"
	SinkStdout   = "stdout"
)

// DefaultTable is the Postgres table written when the manifest names none.
const DefaultTable = constants.DefaultTable

// Manifest is one pipeline run's configuration.
type Manifest struct {
	DatePattern  string                       `yaml:"date_pattern,omitempty" json:"date_pattern,omitempty"`
	Mappings     string                       `yaml:"mappings,omitempty" json:"mappings,omitempty"`
	Columns      map[string]map[string]string `yaml:"columns,omitempty" json:"columns,omitempty"`
	DefaultHooks []transform.Spec             `yaml:"default_hooks,omitempty" json:"default_hooks,omitempty"`
	Sources      []Source                     `yaml:"sources" json:"sources"`
	Sink         Sink                         `yaml:"sink" json:"sink"`
	Workers      int                          `yaml:"workers,omitempty" json:"workers,omitempty"`
	Partitions   int                          `yaml:"partitions,omitempty" json:"partitions,omitempty"`

	// dir is the directory relative paths resolve against.
	dir string
}

// Source is one upstream feed.
type Source struct {
	ID              string           `yaml:"id" json:"id"`
	Path            string           `yaml:"path" json:"path"`
	Hooks           []transform.Spec `yaml:"hooks,omitempty" json:"hooks,omitempty"`
	ReplaceDefaults bool             `yaml:"replace_defaults,omitempty" json:"replace_defaults,omitempty"`
}

// Sink is the output target.
type Sink struct {
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Table  string `yaml:"table,omitempty" json:"table,omitempty"`
	Mode   string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Parse decodes a manifest. Relative paths in it resolve against dir.
func Parse(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.DisallowUnknownField()); err != nil {
		return nil, pkgerrors.NewValidationError("", nil, "decoding manifest: "+strings.TrimSpace(err.Error()))
	}
	m.dir = dir
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, pkgerrors.WrapIO("read", path, err)
	}
	m, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.DatePattern == "" {
		m.DatePattern = transform.DefaultDatePattern
	}
	m.Sink.Kind = strings.ToLower(m.Sink.Kind)
	if m.Sink.Kind == "" {
		m.Sink.Kind = SinkStdout
	}
	if m.Sink.Kind == SinkPostgres && m.Sink.Table == "" {
		m.Sink.Table = DefaultTable
	}
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	if len(m.Sources) == 0 {
		return pkgerrors.NewValidationError("sources", nil, "at least one source is required")
	}
	if m.Mappings == "" && len(m.Columns) == 0 {
		return pkgerrors.NewValidationError("mappings", nil, "a mappings file or inline columns are required")
	}

	seen := make(map[string]bool, len(m.Sources))
	for i, s := range m.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if s.ID == "" {
			return pkgerrors.NewValidationError(field+".id", nil, "cannot be empty")
		}
		if seen[s.ID] {
			return pkgerrors.NewValidationError(field+".id", s.ID, "duplicate source id")
		}
		seen[s.ID] = true
		if s.Path == "" {
			return pkgerrors.NewValidationError(field+".path", nil, "cannot be empty")
		}
	}

	switch m.Sink.Kind {
	case SinkPostgres, SinkStdout:
	case SinkFile:
		if m.Sink.Path == "" {
			return pkgerrors.NewValidationError("sink.path", nil, "file sink needs a path")
		}
	default:
		return pkgerrors.NewValidationError("sink.kind", m.Sink.Kind, "must be one of postgres, file, stdout")
	}
	if _, ok := sink.ParseMode(m.Sink.Mode); !ok {
		return pkgerrors.NewValidationError("sink.mode", m.Sink.Mode, "must be overwrite or append")
	}

	if m.Workers < 0 {
		return pkgerrors.NewValidationError("workers", m.Workers, "cannot be negative")
	}
	if m.Partitions < 0 {
		return pkgerrors.NewValidationError("partitions", m.Partitions, "cannot be negative")
	}
	return nil
}

// Dir returns the directory relative paths resolve against.
func (m *Manifest) Dir() string { return m.dir }

// Resolve makes a manifest path usable by readers and sinks. URLs and
// absolute paths are returned unchanged.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Descriptors returns the sources in manifest order with resolved paths.
func (m *Manifest) Descriptors() []sources.Descriptor {
	out := make([]sources.Descriptor, len(m.Sources))
	for i, s := range m.Sources {
		out[i] = sources.Descriptor{ID: sources.ID(s.ID), Path: m.Resolve(s.Path)}
	}
	return out
}

// Table builds the column map table. Inline columns replace the mapping
// file's entry for the same source.
func (m *Manifest) Table(s *schema.Schema) (*mapping.Table, error) {
	entries := make(map[sources.ID]mapping.Columns)

	if m.Mappings != "" {
		path := m.Resolve(m.Mappings)
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, pkgerrors.WrapIO("read", path, err)
		}
		fromFile, err := mapping.Parse(data)
		if err != nil {
			return nil, err
		}
		for id, cols := range fromFile {
			entries[id] = cols
		}
	}

	for id, cols := range m.Columns {
		entries[sources.ID(id)] = mapping.Columns(cols)
	}

	return mapping.NewTable(s, entries)
}

// Plan returns the hook plan of the run.
func (m *Manifest) Plan() transform.Plan {
	plan := transform.Plan{
		DatePattern: m.DatePattern,
		Defaults:    m.DefaultHooks,
		Sources:     make(map[sources.ID]transform.SourceHooks, len(m.Sources)),
	}
	for _, s := range m.Sources {
		plan.Sources[sources.ID(s.ID)] = transform.SourceHooks{
			Hooks:           s.Hooks,
			ReplaceDefaults: s.ReplaceDefaults,
		}
	}
	return plan
}
