package box_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// TestBoxSet_OrderAndUniqueness verifies canonical ordering and deduplication.
func TestBoxSet_OrderAndUniqueness(t *testing.T) {
	t.Parallel()

	b1 := box.MustNew(testBlock1, vec(0, 0), vec(1, 1))
	a2 := box.MustNew(testBlock0, vec(5, 5), vec(8, 8))
	a1 := box.MustNew(testBlock0, vec(0, 0), vec(3, 3))

	set := box.NewBoxSet()
	assert.True(t, set.Insert(b1))
	assert.True(t, set.Insert(a2))
	assert.True(t, set.Insert(a1))
	assert.False(t, set.Insert(box.MustNew(testBlock0, vec(0, 0), vec(3, 3))))

	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Has(a2))

	got := set.Slice()
	assert.True(t, got[0].Equal(a1))
	assert.True(t, got[1].Equal(a2))
	assert.True(t, got[2].Equal(b1))
}

// TestBoxSet_ZeroValue verifies that the zero set is usable.
func TestBoxSet_ZeroValue(t *testing.T) {
	t.Parallel()

	var set box.BoxSet

	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Has(box.MustNew(testBlock0, vec(0), vec(0))))
	assert.Empty(t, set.Slice())

	set.Insert(box.MustNew(testBlock0, vec(0), vec(0)))
	assert.Equal(t, 1, set.Len())

	set.Clear()
	assert.Equal(t, 0, set.Len())
}

// TestBoxSet_AscendStops verifies early termination.
func TestBoxSet_AscendStops(t *testing.T) {
	t.Parallel()

	set := box.NewBoxSet()
	for i := range 5 {
		set.Insert(box.MustNew(testBlock0, vec(i), vec(i)))
	}

	visited := 0

	set.Ascend(func(box.Box) bool {
		visited++

		return visited < 2
	})

	assert.Equal(t, 2, visited)
}
