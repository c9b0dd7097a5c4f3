package box_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// Test constants.
const (
	testBlock0 box.BlockID = 0
	testBlock1 box.BlockID = 1
	testRatio2             = 2
	testRatio3             = 3
)

func vec(c ...int) box.IntVector {
	return box.IntVector(c)
}

// TestNew_RejectsEmpty verifies that inverted corners are a construction error.
func TestNew_RejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := box.New(testBlock0, vec(0, 3), vec(2, 2))
	require.ErrorIs(t, err, box.ErrConstruction)
}

// TestNew_RejectsDimensionMismatch verifies corner length checks.
func TestNew_RejectsDimensionMismatch(t *testing.T) {
	t.Parallel()

	_, err := box.New(testBlock0, vec(0, 0), vec(1, 1, 1))
	require.ErrorIs(t, err, box.ErrDimensionMismatch)

	_, err = box.New(testBlock0, vec(), vec())
	require.ErrorIs(t, err, box.ErrDimensionMismatch)
}

// TestNew_CopiesCorners verifies that callers cannot alias box corners.
func TestNew_CopiesCorners(t *testing.T) {
	t.Parallel()

	lower := vec(1, 2)
	b := box.MustNew(testBlock1, lower, vec(3, 4))
	lower[0] = 100

	assert.Equal(t, 1, b.LowerAt(0))

	got := b.Lower()
	got[1] = 100

	assert.Equal(t, 2, b.LowerAt(1))
	assert.Equal(t, testBlock1, b.Block())
	assert.Equal(t, 2, b.Dim())
}

// TestIntersects verifies inclusive per-dimension interval overlap.
func TestIntersects(t *testing.T) {
	t.Parallel()

	a := box.MustNew(testBlock0, vec(0, 0), vec(3, 3))

	tests := []struct {
		name  string
		other box.Box
		want  bool
	}{
		{"inside", box.MustNew(testBlock0, vec(1, 1), vec(2, 2)), true},
		{"touching corner", box.MustNew(testBlock0, vec(3, 3), vec(5, 5)), true},
		{"adjacent not touching", box.MustNew(testBlock0, vec(4, 0), vec(5, 3)), false},
		{"overlap in one axis only", box.MustNew(testBlock0, vec(1, 5), vec(2, 6)), false},
		{"other block same frame", box.MustNew(testBlock1, vec(2, 2), vec(2, 2)), true},
		{"different dimension", box.MustNew(testBlock0, vec(0), vec(3)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, a.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(a))
		})
	}
}

// TestRefine verifies the [l*r, (u+1)*r-1] mapping, including negative indices.
func TestRefine(t *testing.T) {
	t.Parallel()

	b := box.MustNew(testBlock0, vec(-2, 1), vec(0, 3))

	refined, err := b.Refine(vec(testRatio2, testRatio3))
	require.NoError(t, err)

	assert.Equal(t, vec(-4, 3), refined.Lower())
	assert.Equal(t, vec(1, 11), refined.Upper())
	assert.Equal(t, testBlock0, refined.Block())
}

// TestRefine_InvalidRatio verifies ratio validation.
func TestRefine_InvalidRatio(t *testing.T) {
	t.Parallel()

	b := box.MustNew(testBlock0, vec(0, 0), vec(1, 1))

	_, err := b.Refine(vec(testRatio2))
	require.ErrorIs(t, err, box.ErrDimensionMismatch)

	_, err = b.Refine(vec(testRatio2, 0))
	require.ErrorIs(t, err, box.ErrUsage)
}

// TestRefine_Overflow verifies that corners past the int range are rejected instead of wrapping.
func TestRefine_Overflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lower box.IntVector
		upper box.IntVector
	}{
		{name: "upper", lower: vec(0, 0), upper: vec(math.MaxInt/testRatio2+1, 1)},
		{name: "lower", lower: vec(math.MinInt/testRatio2-1, 0), upper: vec(0, 1)},
		{name: "max corner", lower: vec(0, 0), upper: vec(1, math.MaxInt)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := box.MustNew(testBlock0, tt.lower, tt.upper)

			_, err := b.Refine(vec(testRatio2, testRatio2))
			require.ErrorIs(t, err, box.ErrConstruction)
		})
	}

	// The largest refinable upper corner lands exactly on math.MaxInt.
	edge := box.MustNew(testBlock0, vec(0), vec(math.MaxInt/testRatio2))

	refined, err := edge.Refine(vec(testRatio2))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, refined.UpperAt(0))
}

// TestScale verifies checked multiplication by a ratio component.
func TestScale(t *testing.T) {
	t.Parallel()

	v, err := box.Scale(-7, testRatio3)
	require.NoError(t, err)
	assert.Equal(t, -21, v)

	_, err = box.Scale(math.MaxInt, testRatio2)
	require.ErrorIs(t, err, box.ErrConstruction)

	_, err = box.Scale(math.MinInt, testRatio2)
	require.ErrorIs(t, err, box.ErrConstruction)

	v, err = box.Scale(math.MinInt, 1)
	require.NoError(t, err)
	assert.Equal(t, math.MinInt, v)
}

// TestSize_Saturates verifies that cell counts past int64 clamp instead of wrapping.
func TestSize_Saturates(t *testing.T) {
	t.Parallel()

	full := box.MustNew(testBlock0, vec(math.MinInt), vec(math.MaxInt))
	assert.Equal(t, int64(math.MaxInt64), full.Size())

	wide := box.MustNew(testBlock0, vec(0, 0), vec(1<<40, 1<<40))
	assert.Equal(t, int64(math.MaxInt64), wide.Size())

	half := box.MustNew(testBlock0, vec(math.MinInt), vec(-1))
	assert.Equal(t, int64(math.MaxInt64), half.Size())
}

// TestCoarsen verifies floor division and that coarsening undoes refinement.
func TestCoarsen(t *testing.T) {
	t.Parallel()

	b := box.MustNew(testBlock0, vec(-3, 5), vec(-1, 7))

	coarse, err := b.Coarsen(vec(testRatio2, testRatio2))
	require.NoError(t, err)

	assert.Equal(t, vec(-2, 2), coarse.Lower())
	assert.Equal(t, vec(-1, 3), coarse.Upper())

	orig := box.MustNew(testBlock0, vec(-2, 4), vec(5, 9))
	refined, err := orig.Refine(vec(testRatio3, testRatio2))
	require.NoError(t, err)

	back, err := refined.Coarsen(vec(testRatio3, testRatio2))
	require.NoError(t, err)
	assert.True(t, orig.Equal(back))
}

// TestUnionContainsSize verifies bounding-box helpers.
func TestUnionContainsSize(t *testing.T) {
	t.Parallel()

	a := box.MustNew(testBlock0, vec(0, 0), vec(1, 1))
	b := box.MustNew(testBlock0, vec(5, -2), vec(6, 0))

	u := a.Union(b)
	assert.Equal(t, vec(0, -2), u.Lower())
	assert.Equal(t, vec(6, 1), u.Upper())
	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))
	assert.False(t, a.Contains(u))
	assert.Equal(t, int64(4), a.Size())
	assert.Equal(t, int64(28), u.Size())
}

// TestCompare verifies the canonical order: block, lower, upper.
func TestCompare(t *testing.T) {
	t.Parallel()

	a := box.MustNew(testBlock0, vec(5, 5), vec(8, 8))
	b := box.MustNew(testBlock1, vec(0, 0), vec(1, 1))
	c := box.MustNew(testBlock0, vec(5, 5), vec(9, 9))

	assert.Negative(t, a.Compare(b))
	assert.Negative(t, a.Compare(c))
	assert.Positive(t, b.Compare(c))
	assert.Zero(t, a.Compare(a.WithBlock(testBlock0)))
	assert.True(t, box.Less(a, b))
}

// TestString verifies the textual form.
func TestString(t *testing.T) {
	t.Parallel()

	b := box.MustNew(testBlock1, vec(0, -1), vec(3, 4))
	assert.Equal(t, "1:(0,-1)-(3,4)", b.String())
}

// TestIntVector verifies vector helpers.
func TestIntVector(t *testing.T) {
	t.Parallel()

	assert.Equal(t, vec(1, 1, 1), box.Ones(3))
	assert.True(t, vec(1, 2).Less(vec(1, 3)))
	assert.True(t, vec(1).Less(vec(0, 0)))
	assert.False(t, vec(1, 0).AllPositive())
	assert.False(t, vec().AllPositive())

	prod, err := vec(2, 3).Mul(vec(4, 5))
	require.NoError(t, err)
	assert.Equal(t, vec(8, 15), prod)

	_, err = vec(2).Mul(vec(4, 5))
	require.ErrorIs(t, err, box.ErrDimensionMismatch)
}
