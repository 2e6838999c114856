package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/caremap/internal/sources/local"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/sources"
)

const sample = "\ufeffName,Phone,Notes\n" +
	"Little Stars,(555) 123-4567,plain\n" +
	"\"Kids \"\"R\"\" Us\",,\"line one\nline two\"\n" +
	"Short Row,5550000000\n"

func TestDecode(t *testing.T) {
	recs, err := local.Decode(context.Background(), strings.NewReader(sample), "source1", "source1.csv", ',')
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Little Stars", recs[0].Values["Name"], "BOM must not leak into the first header")
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, sources.ID("source1"), recs[0].Source)

	assert.Equal(t, `Kids "R" Us`, recs[1].Values["Name"])
	assert.Equal(t, "line one\nline two", recs[1].Values["Notes"])
	_, ok := recs[1].Value("Phone")
	assert.False(t, ok, "empty cell is null")
	assert.Equal(t, 3, recs[1].Line)

	_, ok = recs[2].Values["Notes"]
	assert.False(t, ok)
	assert.Equal(t, 5, recs[2].Line)
}

func TestDecodeEmpty(t *testing.T) {
	recs, err := local.Decode(context.Background(), strings.NewReader(""), "source1", "empty.csv", ',')
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := local.Decode(context.Background(), strings.NewReader("a,b\n\"unterminated,1\n"), "source1", "bad.csv", ',')
	require.Error(t, err)
	var ioErr *pkgerrors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestReaderRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source2.csv")
	require.NoError(t, os.WriteFile(path, []byte("Operation;Phone\nSunny Days;555\n"), 0o600))

	r := local.New(local.WithComma(';'))
	recs, err := r.Read(context.Background(), sources.Descriptor{ID: "source2", Path: path})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Sunny Days", recs[0].Values["Operation"])
	assert.Equal(t, path, recs[0].File)

	recs, err = r.Read(context.Background(), sources.Descriptor{ID: "source2", Path: "file://" + path})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = r.Read(context.Background(), sources.Descriptor{ID: "source2", Path: filepath.Join(dir, "missing.csv")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
