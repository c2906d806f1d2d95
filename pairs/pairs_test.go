package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPreservesOrder(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)
	l.Add("b", 2)
	l.Add("a", 3) // duplicate keys are allowed

	require.Equal(t, 3, l.Len())
	assert.Equal(t, "a", l.KeyAt(0))
	assert.Equal(t, 1, l.ValueAt(0))
	assert.Equal(t, "b", l.KeyAt(1))
	assert.Equal(t, 2, l.ValueAt(1))
	assert.Equal(t, Pair[string, int]{Key: "a", Value: 3}, l.Get(2))

	assert.Equal(t, []string{"a", "b", "a"}, l.Keys())
	assert.Equal(t, []int{1, 2, 3}, l.Values())
}

func TestParallelSlicesStayInSync(t *testing.T) {
	l := New[string, int]()
	for i := 0; i < 10; i++ {
		l.Add("k", i)
		assert.Len(t, l.Keys(), l.Len())
		assert.Len(t, l.Values(), l.Len())
	}
	l.Remove("k")
	assert.Len(t, l.Keys(), 9)
	assert.Len(t, l.Values(), 9)
}

func TestIndexOutOfRangePanics(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)

	assert.Panics(t, func() { l.Get(1) })
	assert.Panics(t, func() { l.KeyAt(-1) })
	assert.Panics(t, func() { l.ValueAt(7) })
}

func TestRemoveFirstMatch(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)
	l.Add("b", 2)
	l.Add("a", 3)

	v, ok := l.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v, "first match wins")
	assert.Equal(t, []string{"b", "a"}, l.Keys())

	_, ok = l.Remove("missing")
	assert.False(t, ok, "absent key is a boolean miss, not an error")
	assert.Equal(t, 2, l.Len(), "miss leaves the list unchanged")
}

func TestContains(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)

	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("b"))
}

func TestToMapDuplicateDetection(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)
	l.Add("b", 2)
	l.Add("a", 3)

	_, err := l.ToMap(true)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	m, err := l.ToMap(false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 2}, m, "last write wins without checking")
}

func TestAllIsRestartable(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)
	l.Add("b", 2)

	for pass := 0; pass < 2; pass++ {
		var keys []string
		var values []int
		for k, v := range l.All() {
			keys = append(keys, k)
			values = append(values, v)
		}
		assert.Equal(t, []string{"a", "b"}, keys, "pass %d", pass)
		assert.Equal(t, []int{1, 2}, values, "pass %d", pass)
	}
	assert.Equal(t, 2, l.Len(), "iteration is not destructive")
}

func TestAllEarlyStop(t *testing.T) {
	l := New[string, int]()
	l.Add("a", 1)
	l.Add("b", 2)
	l.Add("c", 3)

	count := 0
	for range l.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestFromMap(t *testing.T) {
	l := FromMap(map[string]int{"x": 1, "y": 2})
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Contains("x"))
	assert.True(t, l.Contains("y"))
}

func TestAddPair(t *testing.T) {
	l := NewWithCapacity[string, int](4)
	l.AddPair(Pair[string, int]{Key: "a", Value: 1})
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "a", l.KeyAt(0))
}
