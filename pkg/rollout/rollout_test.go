package rollout

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapSource map[string]float64

func (m mapSource) GetFloat64(key string) float64 {
	return m[key]
}

func fixed(v float64) func() float64 {
	return func() float64 { return v }
}

func TestRate(t *testing.T) {
	r := New(mapSource{
		"rollout.json.loads": 0.25,
		"rollout.too.high":   3,
		"rollout.negative":   -1,
		"rollout.nan":        math.NaN(),
	}, WithKeyPrefix("rollout."))

	assert.Equal(t, 0.25, r.Rate(OptionJSONLoads))
	assert.Equal(t, 0.0, r.Rate(OptionJSONDumps))
	assert.Equal(t, 1.0, r.Rate("too.high"))
	assert.Equal(t, 0.0, r.Rate("negative"))
	assert.Equal(t, 0.0, r.Rate("nan"))
}

func TestIn(t *testing.T) {
	src := mapSource{"json.loads": 0.5}
	assert.True(t, New(src, WithRandom(fixed(0.49))).In(OptionJSONLoads))
	assert.False(t, New(src, WithRandom(fixed(0.5))).In(OptionJSONLoads))

	// 比例为 0 时不取随机数
	called := false
	r := New(src, WithRandom(func() float64 {
		called = true
		return 0
	}))
	assert.False(t, r.In(OptionJSONDumps))
	assert.False(t, called)

	always := New(mapSource{"json.dumps": 1})
	for i := 0; i < 100; i++ {
		assert.True(t, always.In(OptionJSONDumps))
	}
	assert.False(t, New(nil).In(OptionJSONDumps))
}

func TestOverrides(t *testing.T) {
	overrides := NewOverrides()
	r := New(mapSource{"json.loads": 1}, WithOverrides(overrides), WithRandom(fixed(0.3)))
	assert.True(t, r.In(OptionJSONLoads))

	overrides.Set(OptionJSONLoads, 0)
	assert.False(t, r.In(OptionJSONLoads))
	assert.Equal(t, 0.0, overrides.GetFloat64(OptionJSONLoads))

	overrides.Set(OptionJSONLoads, 0.4)
	assert.True(t, r.In(OptionJSONLoads))

	overrides.Delete(OptionJSONLoads)
	_, ok := overrides.Lookup(OptionJSONLoads)
	assert.False(t, ok)
	assert.Same(t, overrides, r.Overrides())
}

func TestNilOverridesIgnored(t *testing.T) {
	r := New(mapSource{"json.loads": 0.25}, WithOverrides(nil))
	assert.NotPanics(t, func() {
		assert.Equal(t, 0.25, r.Rate(OptionJSONLoads))
	})
	assert.NotNil(t, r.Overrides())

	r.Overrides().Set(OptionJSONLoads, 1)
	assert.Equal(t, 1.0, r.Rate(OptionJSONLoads))
}

func TestOverridesConcurrent(t *testing.T) {
	overrides := NewOverrides()
	r := New(nil, WithOverrides(overrides))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				overrides.Set(OptionJSONDumps, float64(i)/8)
				_ = r.In(OptionJSONDumps)
			}
		}(i)
	}
	wg.Wait()
	rate := r.Rate(OptionJSONDumps)
	assert.True(t, rate >= 0 && rate < 1)
}
