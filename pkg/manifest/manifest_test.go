package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/manifest"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

const doc = `
mappings: column_map.json
columns:
  source3:
    Operation Name: company
    Phone: phone
default_hooks:
  - name: phone_normalize
  - name: date_parse
    fields: [license_issued]
sources:
  - id: source1
    path: csv/source1.csv
  - id: source3
    path: s3://child-care/raw/source3.csv
    replace_defaults: true
    hooks:
      - name: age_consolidate_flags
        columns: [Infant, Toddler]
sink:
  kind: postgres
  mode: overwrite
partitions: 4
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "column_map.json"),
		[]byte(`{"source1": {"Name": "company", "Phone": "phone"}, "source3": {"Ignored": "city"}}`), 0o600))
	path := filepath.Join(dir, "caremap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t)
	m, err := manifest.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "M/d/yy", m.DatePattern)
	assert.Equal(t, manifest.DefaultTable, m.Sink.Table)
	assert.Equal(t, 4, m.Partitions)

	descs := m.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, sources.ID("source1"), descs[0].ID)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "csv", "source1.csv"), descs[0].Path)
	assert.Equal(t, "s3://child-care/raw/source3.csv", descs[1].Path)
}

func TestTableMergesInlineColumns(t *testing.T) {
	m, err := manifest.Load(writeManifest(t))
	require.NoError(t, err)

	table, err := m.Table(schema.Canonical())
	require.NoError(t, err)

	cols, err := table.Lookup("source1")
	require.NoError(t, err)
	assert.Equal(t, "company", cols["Name"])

	cols, err = table.Lookup("source3")
	require.NoError(t, err)
	assert.Equal(t, "company", cols["Operation Name"])
	_, ok := cols["Ignored"]
	assert.False(t, ok, "inline columns replace the file entry")
}

func TestPlan(t *testing.T) {
	m, err := manifest.Load(writeManifest(t))
	require.NoError(t, err)

	plan := m.Plan()
	assert.Len(t, plan.Defaults, 2)
	assert.False(t, plan.Sources["source1"].ReplaceDefaults)
	assert.True(t, plan.Sources["source3"].ReplaceDefaults)
	require.Len(t, plan.Sources["source3"].Hooks, 1)
	assert.Equal(t, []string{"Infant", "Toddler"}, plan.Sources["source3"].Hooks[0].Columns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"no sources", "mappings: m.json\nsources: []\n", "sources"},
		{"no mappings", "sources:\n  - {id: a, path: a.csv}\n", "mappings"},
		{"duplicate id", "mappings: m.json\nsources:\n  - {id: a, path: a.csv}\n  - {id: a, path: b.csv}\n", "sources[1].id"},
		{"missing path", "mappings: m.json\nsources:\n  - {id: a}\n", "sources[0].path"},
		{"bad sink", "mappings: m.json\nsources:\n  - {id: a, path: a.csv}\nsink: {kind: kafka}\n", "sink.kind"},
		{"file sink path", "mappings: m.json\nsources:\n  - {id: a, path: a.csv}\nsink: {kind: file}\n", "sink.path"},
		{"bad mode", "mappings: m.json\nsources:\n  - {id: a, path: a.csv}\nsink: {mode: merge}\n", "sink.mode"},
		{"negative workers", "mappings: m.json\nworkers: -1\nsources:\n  - {id: a, path: a.csv}\n", "workers"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.Parse([]byte(tc.doc), "")
			require.Error(t, err)
			var ve *pkgerrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := manifest.Parse([]byte("mappings: m.json\nsourcez: []\nsources:\n  - {id: a, path: a.csv}\n"), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestDefaultSink(t *testing.T) {
	m, err := manifest.Parse([]byte("mappings: m.json\nsources:\n  - {id: a, path: /data/a.csv}\n"), "/etc/caremap")
	require.NoError(t, err)
	assert.Equal(t, manifest.SinkStdout, m.Sink.Kind)
	assert.Equal(t, "/data/a.csv", m.Descriptors()[0].Path)
	assert.Equal(t, filepath.Join("/etc/caremap", "out.json"), m.Resolve("out.json"))
}
