package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name Field[string]   `json:"name"`
	Tag  Field[*string]  `json:"tag"`
	Min  Field[*float64] `json:"min"`
}

func TestFieldDistinguishesAbsentFromNull(t *testing.T) {
	var s sample
	require.NoError(t, json.Unmarshal([]byte(`{"tag":null,"min":1.5}`), &s))

	assert.False(t, s.Name.Set)
	assert.True(t, s.Tag.Set)
	assert.Nil(t, s.Tag.Value)
	require.True(t, s.Min.Set)
	assert.Equal(t, 1.5, *s.Min.Value)

	assert.Equal(t, "kept", s.Name.Or("kept"))
	old := "FT-001"
	assert.Nil(t, s.Tag.Or(&old))
}

func TestFieldApply(t *testing.T) {
	name := "before"
	Some("after").Apply(&name)
	assert.Equal(t, "after", name)

	Field[string]{}.Apply(&name)
	assert.Equal(t, "after", name)
}

func TestFieldRejectsWrongType(t *testing.T) {
	var s sample
	assert.Error(t, json.Unmarshal([]byte(`{"name":12}`), &s))
}
