package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/sources"
)

func TestDescriptorScheme(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/source1.csv", ""},
		{"/abs/source1.csv", ""},
		{"s3://bucket/raw/source1.csv", "s3"},
		{"S3://bucket/key.csv", "s3"},
		{"file:///tmp/source1.csv", "file"},
		{`C:\data\source1.csv`, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sources.Descriptor{Path: tc.path}.Scheme(), tc.path)
	}
}

func TestRecordValueTreatsEmptyAsNull(t *testing.T) {
	r := sources.Record{Values: map[string]string{"Phone": "", "City": "Austin"}}

	_, ok := r.Value("Phone")
	assert.False(t, ok)
	_, ok = r.Value("Missing")
	assert.False(t, ok)
	v, ok := r.Value("City")
	assert.True(t, ok)
	assert.Equal(t, "Austin", v)
	assert.Equal(t, []string{"City", "Phone"}, r.Columns())
}

func TestMuxDispatch(t *testing.T) {
	local := sources.Static{"source1": {{"Name": "local"}}}
	remote := sources.ReaderFunc(func(_ context.Context, src sources.Descriptor) ([]sources.Record, error) {
		return []sources.Record{{Source: src.ID, Values: map[string]string{"Name": "remote"}}}, nil
	})

	mux := sources.NewMux()
	mux.Register("", local)
	mux.Register("S3", remote)
	assert.Equal(t, []string{"", "s3"}, mux.Schemes())

	ctx := context.Background()

	recs, err := mux.Read(ctx, sources.Descriptor{ID: "source1", Path: "source1.csv"})
	require.NoError(t, err)
	assert.Equal(t, "local", recs[0].Values["Name"])

	recs, err = mux.Read(ctx, sources.Descriptor{ID: "source1", Path: "file:///source1.csv"})
	require.NoError(t, err)
	assert.Equal(t, "local", recs[0].Values["Name"])

	recs, err = mux.Read(ctx, sources.Descriptor{ID: "source2", Path: "s3://bucket/source2.csv"})
	require.NoError(t, err)
	assert.Equal(t, "remote", recs[0].Values["Name"])

	_, err = mux.Read(ctx, sources.Descriptor{ID: "source3", Path: "gs://bucket/source3.csv"})
	assert.Error(t, err)
}

func TestStaticReader(t *testing.T) {
	rows := map[string]string{"Phone": "555"}
	reader := sources.Static{"source1": {rows}}

	recs, err := reader.Read(context.Background(), sources.Descriptor{ID: "source1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, sources.ID("source1"), recs[0].Source)

	recs[0].Values["Phone"] = "changed"
	assert.Equal(t, "555", rows["Phone"])

	_, err = reader.Read(context.Background(), sources.Descriptor{ID: "missing"})
	assert.True(t, pkgerrors.IsNotFound(err))
}
