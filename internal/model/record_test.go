package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValues_MatchesColumns(t *testing.T) {
	r := Record{TimeDate: "2023-01-01T00:00:00", CBNodeFlag: "N"}
	vals := r.Values()
	require.Len(t, vals, len(RecordColumns))
	assert.Equal(t, "2023-01-01T00:00:00", vals[0])
	assert.Equal(t, "N", vals[16])
}

func TestRecordValues_NilCapacityIsNull(t *testing.T) {
	r := Record{}
	vals := r.Values()
	assert.Nil(t, vals[17])
}

func TestRecordValues_Capacity(t *testing.T) {
	v := 12.5
	r := Record{MaxCBMW: &v}
	vals := r.Values()
	assert.Equal(t, 12.5, vals[17])
}

func TestRecordKey_SubsetOfColumns(t *testing.T) {
	cols := make(map[string]bool, len(RecordColumns))
	for _, c := range RecordColumns {
		cols[c] = true
	}
	require.Len(t, RecordKey, 11)
	for _, k := range RecordKey {
		assert.True(t, cols[k], "key column %q not in columns", k)
	}
}
