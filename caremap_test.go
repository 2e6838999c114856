package caremap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/caremap"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/logging"
	"github.com/agentstation/caremap/pkg/mapping"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sink"
	"github.com/agentstation/caremap/pkg/sources"
	"github.com/agentstation/caremap/pkg/transform"
)

var loadTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return loadTime }

func newTable(t *testing.T) *mapping.Table {
	t.Helper()
	table, err := mapping.NewTable(schema.Canonical(), map[sources.ID]mapping.Columns{
		"source1": {"Name": schema.FieldCompany, "Phone": schema.FieldPhone, "Address": schema.FieldAddress1, "Issued": schema.FieldLicenseIssued},
		"source2": {"Operation": schema.FieldCompany, "Phone Number": schema.FieldPhone, "Street": schema.FieldAddress1, "Issue Date": schema.FieldLicenseIssued},
		"source3": {"Provider": schema.FieldCompany, "Tel": schema.FieldPhone, "Addr": schema.FieldAddress1, "Since": schema.FieldLicenseIssued, "Capacity": schema.FieldCapacity},
	})
	require.NoError(t, err)
	return table
}

func rows() sources.Static {
	return sources.Static{
		"source1": {
			{"Name": "Sunny Days", "Phone": "(512) 555-0100", "Address": "1 Main St", "Issued": "1/15/20"},
			{"Name": "Little Acorns", "Phone": "(512) 555-0101", "Address": "2 Oak Ave", "Issued": "2/1/19"},
			{"Name": "Bright Start", "Phone": "(512) 555-0102", "Address": "3 Elm St", "Issued": "3/3/18"},
			{"Name": "Kid Zone", "Phone": "(512) 555-0103", "Address": "4 Pine Rd", "Issued": "4/4/17"},
			{"Name": "Tiny Steps", "Phone": "(512) 555-0104", "Address": "5 Cedar Ln", "Issued": "5/5/16"},
		},
		"source2": {
			{"Operation": "Happy Hearts", "Phone Number": "737.555.0200", "Street": "10 Lake Dr", "Issue Date": "6/1/21"},
			{"Operation": "Sunny Days LLC", "Phone Number": "512.555.0100", "Street": "1 Main St", "Issue Date": "3/1/21"},
			{"Operation": "Play Place", "Phone Number": "737.555.0202", "Street": "12 Hill St", "Issue Date": "7/7/20"},
			{"Operation": "Wonder Years", "Phone Number": "737.555.0203", "Street": "13 Bay Rd", "Issue Date": "8/8/19"},
			{"Operation": "Story Time", "Phone Number": "737.555.0204", "Street": "14 Glen Ct", "Issue Date": "9/9/18"},
		},
		"source3": {
			{"Provider": "Rainbow Room", "Tel": "2105550300", "Addr": "20 River Rd", "Since": "1/1/15", "Capacity": "40"},
			{"Provider": "Busy Bees", "Tel": "2105550301", "Addr": "21 Forest Dr", "Since": "2/2/15", "Capacity": "25"},
			{"Provider": "Little Owls", "Tel": "2105550302", "Addr": "22 Park Ave", "Since": "3/3/15", "Capacity": "12"},
			{"Provider": "Treehouse", "Tel": "2105550303", "Addr": "23 Vine St", "Since": "4/4/15", "Capacity": "30"},
			{"Provider": "First Friends", "Tel": "2105550304", "Addr": "24 Mill Rd", "Since": "5/5/15", "Capacity": "18"},
		},
	}
}

func descriptors(ids ...sources.ID) []sources.Descriptor {
	out := make([]sources.Descriptor, len(ids))
	for i, id := range ids {
		out[i] = sources.Descriptor{ID: id, Path: "/data/" + id.String() + ".csv"}
	}
	return out
}

func plan() transform.Plan {
	return transform.Plan{
		Defaults: []transform.Spec{
			{Name: transform.HookPhoneNormalize},
			{Name: transform.HookDateParse, Field: schema.FieldLicenseIssued},
		},
	}
}

func newEngine(t *testing.T, out sink.Sink, opts ...caremap.Option) caremap.Engine {
	t.Helper()
	base := []caremap.Option{
		caremap.WithMappingTable(newTable(t)),
		caremap.WithPlan(plan()),
		caremap.WithReader(rows()),
		caremap.WithSources(descriptors("source1", "source2", "source3")...),
		caremap.WithSink(out),
		caremap.WithClock(fixedClock),
		caremap.WithLogger(logging.NewNopLogger()),
	}
	e, err := caremap.New(append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func companies(recs []*schema.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Get(schema.FieldCompany).Text()
	}
	return out
}

func TestRunReconcilesSources(t *testing.T) {
	out := sink.NewMemory()
	e := newEngine(t, out)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	recs := out.Records()
	require.Len(t, recs, 14)
	assert.Equal(t, 1, out.Writes())
	assert.Equal(t, result.Records, recs)

	names := companies(recs)
	assert.Contains(t, names, "Sunny Days LLC")
	assert.NotContains(t, names, "Sunny Days")
	assert.Equal(t, "Little Acorns", names[0])

	for _, r := range recs {
		assert.Equal(t, schema.Canonical().Len(), r.Len())
		assert.Empty(t, r.AuxNames())
		assert.Equal(t, mapping.VersionNumber, r.Get(schema.FieldVersionNumber).Text())
		at, ok := r.Get(schema.FieldETLLoadTime).Time()
		require.True(t, ok)
		assert.True(t, at.Equal(loadTime))
	}

	winner := recs[5]
	assert.Equal(t, "source2", winner.Get(schema.FieldSource).Text())
	assert.Equal(t, "source2.csv", winner.Get(schema.FieldSourceFileName).Text())
	issued, ok := winner.Get(schema.FieldLicenseIssued).Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), issued)

	capacity := recs[9].Get(schema.FieldCapacity)
	assert.Equal(t, schema.KindInteger, capacity.Kind())
	n, ok := capacity.Int()
	require.True(t, ok)
	assert.Equal(t, int64(40), n)

	assert.Equal(t, 15, result.Stats.Read)
	assert.Equal(t, 15, result.Stats.Merged)
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, 14, result.Stats.Written)
	assert.Equal(t, 14, result.Stats.Groups)
	assert.Empty(t, result.Diagnostics)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, loadTime, result.LoadTime)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, result.Duplicates, 1)
	dup := result.Duplicates[0]
	assert.Equal(t, sources.ID("source1"), dup.DroppedSource)
	assert.Equal(t, 2, dup.DroppedLine)
	assert.Equal(t, sources.ID("source2"), dup.WinnerSource)
	assert.Equal(t, 3, dup.WinnerLine)
	assert.Equal(t, "5125550100|1 Main St", dup.Key.String())

	require.Len(t, result.Sources, 3)
	assert.Equal(t, 4, result.Sources[0].Kept)
	assert.Equal(t, 5, result.Sources[1].Kept)
	assert.Equal(t, 5, result.Sources[2].Kept)
}

func TestRunSkipsUnmappedSource(t *testing.T) {
	reader := rows()
	reader["source4"] = []map[string]string{{"Whatever": "x"}}

	out := sink.NewMemory()
	e := newEngine(t, out,
		caremap.WithReader(reader),
		caremap.WithSources(descriptors("source1", "source4", "source2", "source3")...),
	)

	var skipped []sources.ID
	e.OnSourceSkipped(func(id sources.ID, reason error) {
		skipped = append(skipped, id)
		assert.True(t, pkgerrors.IsNoMapping(reason))
	})

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []sources.ID{"source4"}, skipped)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, sources.ID("source4"), result.Skipped[0].Source)
	assert.Len(t, out.Records(), 14)
	assert.Contains(t, result.Summary(), "skipped source4")
}

func TestRunReaderFailureIsFatal(t *testing.T) {
	out := sink.NewMemory()
	failing := sources.ReaderFunc(func(ctx context.Context, src sources.Descriptor) ([]sources.Record, error) {
		if src.ID == "source2" {
			return nil, pkgerrors.WrapIO("open", src.Path, errors.New("permission denied"))
		}
		return rows().Read(ctx, src)
	})
	e := newEngine(t, out, caremap.WithReader(failing))

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source2")
	assert.Zero(t, out.Writes())
}

func TestRunSinkFailureWritesNothing(t *testing.T) {
	out := sink.NewMemory()
	out.Err = errors.New("connection reset")
	e := newEngine(t, out)

	var dropped int
	e.OnDuplicateDropped(func(caremap.Duplicate) { dropped++ })

	result, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsSinkError(err))
	assert.Empty(t, out.Records())
	assert.Zero(t, dropped)
}

func TestRunKeepsRecordsWithBadValues(t *testing.T) {
	reader := rows()
	reader["source3"][2]["Since"] = "not a date"
	reader["source3"][3]["Capacity"] = "thirty"

	out := sink.NewMemory()
	e := newEngine(t, out, caremap.WithReader(reader))

	var seen []caremap.Diagnostic
	e.OnDiagnostic(func(d caremap.Diagnostic) { seen = append(seen, d) })

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Records(), 14)

	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, result.Diagnostics, seen)

	first := result.Diagnostics[0]
	assert.Equal(t, sources.ID("source3"), first.Source)
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, schema.FieldLicenseIssued, first.Field)
	assert.Equal(t, "not a date", first.Value)

	second := result.Diagnostics[1]
	assert.Equal(t, 5, second.Line)
	assert.Equal(t, schema.FieldCapacity, second.Field)

	recs := out.Records()
	assert.True(t, recs[11].Get(schema.FieldLicenseIssued).IsNull())
	assert.Equal(t, "Little Owls", recs[11].Get(schema.FieldCompany).Text())
	assert.True(t, recs[12].Get(schema.FieldCapacity).IsNull())
}

func TestRunIsDeterministic(t *testing.T) {
	var want []string
	for _, n := range []int{1, 2, 7} {
		out := sink.NewMemory()
		e := newEngine(t, out, caremap.WithPartitions(n), caremap.WithWorkers(n))
		_, err := e.Run(context.Background())
		require.NoError(t, err)

		got := companies(out.Records())
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "partitions=%d", n)
	}
}

func TestRunDryRun(t *testing.T) {
	e, err := caremap.New(
		caremap.WithMappingTable(newTable(t)),
		caremap.WithPlan(plan()),
		caremap.WithReader(rows()),
		caremap.WithSources(descriptors("source1", "source2", "source3")...),
		caremap.WithLogger(logging.NewNopLogger()),
		caremap.WithDryRun(true),
	)
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Records, 14)
	assert.Zero(t, result.Stats.Written)
	assert.Contains(t, result.Summary(), "would write 14 records")
}

func TestRunCanceled(t *testing.T) {
	out := sink.NewMemory()
	e := newEngine(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.Zero(t, out.Writes())
}

func TestRunLogsStages(t *testing.T) {
	tl := logging.NewTestLogger(t)
	e := newEngine(t, sink.NewMemory(), caremap.WithLogger(tl.Logger))

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	tl.AssertContains(t, "Run completed")
	tl.AssertContains(t, "Merged sources")
	tl.AssertContains(t, result.RunID)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []caremap.Option
	}{
		{
			name: "missing table",
			opts: []caremap.Option{
				caremap.WithReader(rows()),
				caremap.WithSources(descriptors("source1")...),
				caremap.WithSink(sink.NewMemory()),
			},
		},
		{
			name: "missing sink",
			opts: []caremap.Option{
				caremap.WithMappingTable(newTable(t)),
				caremap.WithReader(rows()),
				caremap.WithSources(descriptors("source1")...),
			},
		},
		{
			name: "duplicate source",
			opts: []caremap.Option{
				caremap.WithSources(descriptors("source1", "source1")...),
			},
		},
		{
			name: "bad hook",
			opts: []caremap.Option{
				caremap.WithMappingTable(newTable(t)),
				caremap.WithReader(rows()),
				caremap.WithSources(descriptors("source1")...),
				caremap.WithSink(sink.NewMemory()),
				caremap.WithPlan(transform.Plan{Defaults: []transform.Spec{{Name: "shout"}}}),
			},
		},
		{
			name: "zero workers",
			opts: []caremap.Option{caremap.WithWorkers(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := caremap.New(tt.opts...)
			assert.Error(t, err)
		})
	}
}
