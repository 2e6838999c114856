package union_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/union"
)

func record(fields map[string]schema.Value) *schema.Record {
	r := schema.NewRecord()
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func TestMergeToleratesMissingFields(t *testing.T) {
	s := schema.Canonical()

	full := s.NewRecord()
	full.Set(schema.FieldCapacity, schema.Integer(40))
	full.Set(schema.FieldPhone, schema.String("1"))

	partial := record(map[string]schema.Value{schema.FieldPhone: schema.String("2")})

	out, report := union.Merge(s,
		union.Set{Source: "source1", Records: []*schema.Record{full}},
		union.Set{Source: "source2", Records: []*schema.Record{partial}},
	)

	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, s.Len(), r.Len())
	}

	capacity, ok := out[0].Get(schema.FieldCapacity).Int()
	require.True(t, ok)
	assert.Equal(t, int64(40), capacity)
	missing := out[1].Get(schema.FieldCapacity)
	assert.True(t, missing.IsNull())
	assert.Equal(t, schema.KindInteger, missing.Kind())

	assert.Equal(t, 0, report.Sources[0].Padded)
	assert.Equal(t, s.Len()-1, report.Sources[1].Padded)
	assert.Equal(t, 2, report.Total())
}

func TestMergePreservesOrder(t *testing.T) {
	s := schema.Canonical()
	mk := func(phone string) *schema.Record {
		r := s.NewRecord()
		r.Set(schema.FieldPhone, schema.String(phone))
		return r
	}

	out, _ := union.Merge(s,
		union.Set{Source: "a", Records: []*schema.Record{mk("a1"), mk("a2")}},
		union.Set{Source: "b"},
		union.Set{Source: "c", Records: []*schema.Record{mk("c1"), mk("c2"), mk("c3")}},
	)

	var phones []string
	for _, r := range out {
		phones = append(phones, r.Get(schema.FieldPhone).Text())
	}
	assert.Equal(t, []string{"a1", "a2", "c1", "c2", "c3"}, phones)
}

func TestMergeDropsAuxAndCastsKinds(t *testing.T) {
	s := schema.Canonical()
	r := s.NewRecord()
	r.SetAux("Ages Accepted 1", schema.String("0-2"))
	r.Set(schema.FieldCapacity, schema.String("12"))
	r.Set(schema.FieldMaxAge, schema.String("twelve"))

	out, report := union.Merge(s, union.Set{Source: "source2", Records: []*schema.Record{r}})

	require.Len(t, out, 1)
	assert.Empty(t, out[0].AuxNames())
	n, ok := out[0].Get(schema.FieldCapacity).Int()
	require.True(t, ok)
	assert.Equal(t, int64(12), n)
	assert.True(t, out[0].Get(schema.FieldMaxAge).IsNull())

	assert.Equal(t, 1, report.Sources[0].Dropped)
	assert.Equal(t, 1, report.Sources[0].Casts)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 0, report.Diagnostics[0].Index)
}
