package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet(3, 1, 2)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contain(1, 2))
	assert.False(t, s.Contain(1, 4))

	s.Insert(1, 4)
	assert.Equal(t, 4, s.Len())
	s.Remove(4, 5)
	assert.ElementsMatch(t, []int{1, 2, 3}, s.Collect())

	other := NewSet(2, 3, 9)
	assert.ElementsMatch(t, []int{1, 2, 3, 9}, s.Union(other).Collect())
	assert.ElementsMatch(t, []int{2, 3}, s.Intersection(other).Collect())
	assert.Equal(t, 3, s.Len())

	c := s.Clone()
	c.Insert(10)
	assert.False(t, s.Contain(10))

	visited := 0
	s.Range(func(int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
