package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
)

const exampleManifest = "../../../examples/reconcile/caremap.yaml"

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(&Config{LogLevel: "error", LogFormat: "json", LogOutput: "discard"}),
		WithOutput(&stdout, &stderr),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return &testApp{App: app, stdout: &stdout, stderr: &stderr}
}

func (ta *testApp) execute(t *testing.T, args ...string) error {
	t.Helper()
	return ta.Execute(context.Background(), args)
}

func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
}

func TestRunToFile(t *testing.T) {
	ta := newTestApp(t)
	out := filepath.Join(t.TempDir(), "providers.json")

	err := ta.execute(t, "run", "-m", exampleManifest, "--sink-path", out, "-o", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 14)
	for _, row := range rows {
		assert.Len(t, row, schema.Canonical().Len())
	}

	var sunny map[string]any
	for _, row := range rows {
		if row[schema.FieldCompany] == "Sunny Days Child Care, LLC" {
			sunny = row
		}
		assert.NotEqual(t, "Sunny Days Child Care", row[schema.FieldCompany])
	}
	require.NotNil(t, sunny)
	assert.Equal(t, "source2", sunny[schema.FieldSource])
	assert.Equal(t, "2021-03-01", sunny[schema.FieldLicenseIssued])
	assert.Equal(t, "5125550100", sunny[schema.FieldPhone])
	assert.Equal(t, "Toddlers (12-23 months), Preschool (24-48 months)", sunny[schema.FieldAgesServed])

	var report runReport
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &report))
	assert.Equal(t, 15, report.Stats.Read)
	assert.Equal(t, 1, report.Stats.Duplicates)
	assert.Equal(t, 14, report.Stats.Written)
	assert.Contains(t, report.Skipped, "source4")
	assert.Empty(t, report.Diagnostics)
}

func TestRunToStdout(t *testing.T) {
	ta := newTestApp(t)

	err := ta.execute(t, "run", "-m", exampleManifest, "-o", "yaml")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &rows))
	assert.Len(t, rows, 14)

	assert.Contains(t, ta.stderr.String(), "run_id:")
	assert.Contains(t, ta.stderr.String(), "source4")
}

func TestRunDryRunTable(t *testing.T) {
	ta := newTestApp(t)

	err := ta.execute(t, "run", "-m", exampleManifest, "--dry-run", "-o", "table", "--partitions", "3")
	require.NoError(t, err)

	out := ta.stdout.String()
	assert.Contains(t, out, "source1")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "would write 14 records")
}

func TestRunWithoutManifest(t *testing.T) {
	ta := newTestApp(t)

	err := ta.execute(t, "run")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestValidateCommand(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.execute(t, "validate", "-m", exampleManifest, "-o", "table"))

	out := ta.stdout.String()
	assert.Contains(t, out, "source4")
	assert.Contains(t, out, "manifest ok: 4 sources, 3 mapped")
}

func TestValidateRejectsBadManifest(t *testing.T) {
	ta := newTestApp(t)
	path := filepath.Join(t.TempDir(), "caremap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0o600))

	err := ta.execute(t, "validate", "-m", path)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestSchemaCommand(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.execute(t, "schema", "-o", "json"))

	var fields []map[string]string
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &fields))
	require.Len(t, fields, schema.Canonical().Len())
	assert.Equal(t, schema.FieldAcceptsFinancialAid, fields[0]["name"])
	assert.Equal(t, "boolean", fields[0]["kind"])
}

func TestVersionCommand(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.execute(t, "version"))
	assert.Contains(t, ta.stdout.String(), "caremap version 1.0.0")
	assert.Contains(t, ta.stdout.String(), "commit: abc123")
}
