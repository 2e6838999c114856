package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/caremap"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sink"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"wide", FormatWide, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("yaml"))
}

func batch() sink.Batch {
	rec := schema.Canonical().NewRecord()
	rec.Set(schema.FieldCompany, schema.String("Sunny Days Early Learning Center of Central Texas"))
	rec.Set(schema.FieldCapacity, schema.Integer(40))
	return sink.NewBatch(schema.Canonical(), []*schema.Record{rec})
}

func TestTableFormatterTabular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, batch()))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "COMPANY")
	assert.Contains(t, out, "40")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "Texas")
}

func TestWideFormatterKeepsCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatWide).Format(&buf, batch()))
	assert.Contains(t, buf.String(), "Texas")
	assert.NotContains(t, buf.String(), "...")
}

func TestJSONFormatterBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, batch()))
	assert.Contains(t, buf.String(), `"capacity": 40`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, caremap.Stats{Read: 15, Written: 14}))
	assert.Contains(t, buf.String(), "read: 15")
	assert.Contains(t, buf.String(), "written: 14")
}

func TestSchemaTable(t *testing.T) {
	data := SchemaTable(schema.Canonical())
	require.Len(t, data.Rows, schema.Canonical().Len())
	assert.Equal(t, []string{"1", schema.FieldAcceptsFinancialAid, "boolean"}, data.Rows[0])

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), schema.FieldLicenseIssued)
}

func TestStructSliceFallback(t *testing.T) {
	var buf bytes.Buffer
	summaries := []caremap.SourceSummary{{Source: "source1", Read: 5, Kept: 4}}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, summaries))
	assert.Contains(t, buf.String(), "source1")
}

func TestSourcesTable(t *testing.T) {
	result := &caremap.Result{
		Sources: []caremap.SourceSummary{{Source: "source1", Path: "a.csv", Read: 5, Merged: 5, Kept: 4}},
		Skipped: []caremap.Skipped{{Source: "source4", Path: "d.csv"}},
	}
	data := SourcesTable(result)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "4", data.Rows[0][4])
	assert.Equal(t, "skipped", data.Rows[1][2])
}
