package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneEmptyKeys(t *testing.T) {
	obj := NewObject().Set("a", 1).Set("b", nil).Set("c", []any{})
	pruned := PruneEmptyKeys(obj)
	assert.Equal(t, []string{"a", "c"}, pruned.Keys())

	out, err := MarshalString(pruned)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"c":[]}`, out)

	// 原对象不变
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())

	assert.Nil(t, PruneEmptyKeys(nil))
}

func TestPruneKeepsPresentFalsyValues(t *testing.T) {
	var nilPtr *int
	var nilSlice []int
	obj := NewObject().
		Set("zero", 0).
		Set("false", false).
		Set("empty", "").
		Set("emptyMap", map[string]any{}).
		Set("nilSlice", nilSlice).
		Set("nilPtr", nilPtr).
		Set("absent", nil)

	pruned := PruneEmptyKeys(obj)
	assert.Equal(t, []string{"zero", "false", "empty", "emptyMap", "nilSlice"}, pruned.Keys())
}

func TestPruneMap(t *testing.T) {
	m := map[string]any{"a": 1, "b": nil, "c": []any{}, "d": map[string]any{}}
	assert.Equal(t, map[string]any{"a": 1, "c": []any{}, "d": map[string]any{}}, PruneMap(m))
	assert.Len(t, m, 4)
	assert.Nil(t, PruneMap(nil))
	assert.NotNil(t, PruneMap(map[string]any{"x": nil}))
}
