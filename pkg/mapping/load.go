package mapping

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// Parse decodes a column map document of the form
// {sourceId: {rawColumn: canonicalField}}. JSON is a subset of YAML, so one
// decoder serves both.
func Parse(data []byte) (map[sources.ID]Columns, error) {
	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewConfigurationError("", "decoding column map: "+strings.TrimSpace(err.Error()), err)
	}

	out := make(map[sources.ID]Columns, len(doc))
	for id, cols := range doc {
		if id == "" {
			return nil, pkgerrors.NewConfigurationError("", "column map has an empty source id", nil)
		}
		out[sources.ID(id)] = Columns(cols)
	}
	return out, nil
}

// Load parses a column map document and validates it against the schema.
func Load(s *schema.Schema, data []byte) (*Table, error) {
	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewTable(s, entries)
}

// LoadFile reads and validates a column map file (.json, .yaml or .yml).
func LoadFile(s *schema.Schema, path string) (*Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, pkgerrors.WrapIO("read", path, err)
	}
	return Load(s, data)
}
