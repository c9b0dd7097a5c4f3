package boxtree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/boxtree"
)

// TestList verifies the linear scan searcher.
func TestList(t *testing.T) {
	t.Parallel()

	_, err := boxtree.NewList(nil)
	require.ErrorIs(t, err, box.ErrConstruction)

	list, err := boxtree.NewList([]box.Box{mk(vec(0, 0), vec(3, 3)), mk(vec(5, 5), vec(8, 8))})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, 2, list.Dim())

	hit, err := list.HasOverlap(mk(vec(4, 4), vec(4, 4)))
	require.NoError(t, err)
	assert.False(t, hit)

	found, err := list.AppendOverlapBoxes(nil, mk(vec(3, 3), vec(5, 5)))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = list.HasOverlap(mk(vec(0), vec(0)))
	require.ErrorIs(t, err, box.ErrDimensionMismatch)

	_, err = list.AppendOverlapBoxes(nil, mk(vec(0), vec(0)))
	require.ErrorIs(t, err, box.ErrDimensionMismatch)
}
