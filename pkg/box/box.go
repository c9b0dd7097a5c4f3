// Package box provides the integer index-space primitives shared by the box
// trees: block identifiers, integer vectors, boxes, and an ordered box set.
//
// A Box is an axis-aligned region of cells [lower_i, upper_i] (inclusive in
// every dimension) expressed in the coordinate frame of one block. Boxes are
// never empty; New rejects lower_i > upper_i. Coordinates are ints; Refine
// reports corners that would not fit with ErrConstruction.
package box

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

// BlockID identifies one block of a multiblock mesh.
type BlockID uint32

// String returns the decimal form of the id.
func (id BlockID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Box is a non-empty, axis-aligned integer region tagged with the block whose
// frame it is expressed in. The zero Box is invalid; build boxes with New.
type Box struct {
	lower IntVector
	upper IntVector
	block BlockID
}

// New returns the box [lower, upper] in the frame of block. The corners are
// copied. It fails with ErrDimensionMismatch when the corners have different
// or zero lengths and with ErrConstruction when the box would be empty.
func New(block BlockID, lower, upper IntVector) (Box, error) {
	if len(lower) == 0 || len(lower) != len(upper) {
		return Box{}, fmt.Errorf("%w: box corners %s and %s", ErrDimensionMismatch, lower, upper)
	}

	for i := range lower {
		if lower[i] > upper[i] {
			return Box{}, fmt.Errorf("%w: empty box %s-%s in block %s", ErrConstruction, lower, upper, block)
		}
	}

	return Box{lower: lower.Clone(), upper: upper.Clone(), block: block}, nil
}

// MustNew is like New but panics on error. Intended for literals in tests
// and examples.
func MustNew(block BlockID, lower, upper IntVector) Box {
	b, err := New(block, lower, upper)
	if err != nil {
		panic(err)
	}

	return b
}

// Block returns the block whose frame the box is expressed in.
func (b Box) Block() BlockID {
	return b.block
}

// WithBlock returns a copy of b tagged with block. Corners are shared, which
// is safe because boxes never mutate them.
func (b Box) WithBlock(block BlockID) Box {
	b.block = block

	return b
}

// Dim returns the dimensionality of the box; zero for the zero Box.
func (b Box) Dim() int {
	return len(b.lower)
}

// IsZero reports whether b is the invalid zero Box.
func (b Box) IsZero() bool {
	return len(b.lower) == 0
}

// Lower returns a copy of the lower corner.
func (b Box) Lower() IntVector {
	return b.lower.Clone()
}

// Upper returns a copy of the upper corner.
func (b Box) Upper() IntVector {
	return b.upper.Clone()
}

// LowerAt returns the lower bound along axis.
func (b Box) LowerAt(axis int) int {
	return b.lower[axis]
}

// UpperAt returns the upper bound along axis.
func (b Box) UpperAt(axis int) int {
	return b.upper[axis]
}

// CenterTwice returns twice the center coordinate along axis. Doubling keeps
// the value exact in integer arithmetic.
func (b Box) CenterTwice(axis int) int {
	return b.lower[axis] + b.upper[axis]
}

// Size returns the number of cells in the box, saturating at math.MaxInt64.
func (b Box) Size() int64 {
	var cells uint64 = 1

	for i := range b.lower {
		// upper >= lower, so the difference is exact in modular arithmetic.
		extent := uint64(b.upper[i]) - uint64(b.lower[i]) + 1
		if extent == 0 {
			return math.MaxInt64
		}

		hi, lo := bits.Mul64(cells, extent)
		if hi != 0 || lo > math.MaxInt64 {
			return math.MaxInt64
		}

		cells = lo
	}

	return int64(cells)
}

// Intersects reports whether b and other share at least one cell. Block tags
// are ignored; callers bring both boxes into one frame first. Boxes of
// different dimensionality never intersect.
func (b Box) Intersects(other Box) bool {
	if len(b.lower) != len(other.lower) {
		return false
	}

	for i := range b.lower {
		if b.upper[i] < other.lower[i] || other.upper[i] < b.lower[i] {
			return false
		}
	}

	return true
}

// Contains reports whether every cell of other lies inside b.
func (b Box) Contains(other Box) bool {
	if len(b.lower) != len(other.lower) {
		return false
	}

	for i := range b.lower {
		if other.lower[i] < b.lower[i] || other.upper[i] > b.upper[i] {
			return false
		}
	}

	return true
}

// Union returns the bounding box of b and other, tagged with b's block.
// Both boxes must have the same dimensionality.
func (b Box) Union(other Box) Box {
	lower := b.lower.Clone()
	upper := b.upper.Clone()

	for i := range lower {
		lower[i] = min(lower[i], other.lower[i])
		upper[i] = max(upper[i], other.upper[i])
	}

	return Box{lower: lower, upper: upper, block: b.block}
}

// Refine maps every range [l, u] to [l*r, (u+1)*r - 1]. A box whose refined
// corners do not fit in an int is rejected with ErrConstruction.
func (b Box) Refine(ratio IntVector) (Box, error) {
	err := CheckRatio(ratio, b.Dim())
	if err != nil {
		return Box{}, err
	}

	lower := make(IntVector, len(b.lower))
	upper := make(IntVector, len(b.upper))

	for i := range lower {
		lower[i], err = Scale(b.lower[i], ratio[i])
		if err != nil {
			return Box{}, fmt.Errorf("refine %s: %w", b, err)
		}

		// u*r + (r-1) == (u+1)*r - 1 without forming u+1.
		hi, scaleErr := Scale(b.upper[i], ratio[i])
		if scaleErr != nil || hi > math.MaxInt-(ratio[i]-1) {
			return Box{}, fmt.Errorf("%w: refine %s by %s overflows axis %d", ErrConstruction, b, ratio, i)
		}

		upper[i] = hi + ratio[i] - 1
	}

	return Box{lower: lower, upper: upper, block: b.block}, nil
}

// Coarsen maps every range [l, u] to [floor(l/r), floor(u/r)], the smallest
// coarse box covering b.
func (b Box) Coarsen(ratio IntVector) (Box, error) {
	err := CheckRatio(ratio, b.Dim())
	if err != nil {
		return Box{}, err
	}

	lower := make(IntVector, len(b.lower))
	upper := make(IntVector, len(b.upper))

	for i := range lower {
		lower[i] = floorDiv(b.lower[i], ratio[i])
		upper[i] = floorDiv(b.upper[i], ratio[i])
	}

	return Box{lower: lower, upper: upper, block: b.block}, nil
}

// Equal reports whether b and other have the same block and corners.
func (b Box) Equal(other Box) bool {
	return b.block == other.block && b.lower.Equal(other.lower) && b.upper.Equal(other.upper)
}

// Compare orders boxes by block, then lower corner, then upper corner.
func (b Box) Compare(other Box) int {
	switch {
	case b.block < other.block:
		return -1
	case b.block > other.block:
		return 1
	}

	if c := b.lower.Compare(other.lower); c != 0 {
		return c
	}

	return b.upper.Compare(other.upper)
}

// Less reports whether b sorts before other in the canonical box order.
func Less(a, b Box) bool {
	return a.Compare(b) < 0
}

// String formats the box as "block:(l0,l1)-(u0,u1)".
func (b Box) String() string {
	return b.block.String() + ":" + b.lower.String() + "-" + b.upper.String()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
