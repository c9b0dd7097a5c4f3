package blockgeom

import (
	"fmt"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// Sentinel errors. Each wraps one of the box error categories.
var (
	ErrInvalidTransformation = fmt.Errorf("%w: invalid transformation", box.ErrConstruction)
	ErrSelfAdjacent          = fmt.Errorf("%w: block cannot neighbor itself", box.ErrConstruction)
	ErrDuplicateAdjacency    = fmt.Errorf("%w: adjacency already registered", box.ErrConstruction)
	ErrNotAdjacent           = fmt.Errorf("%w: blocks are not adjacent", box.ErrUsage)
)

// Transformation maps cell indices from one block's frame into an adjacent
// block's frame. Output axis k takes input axis Axes[k], mirrored cell-wise
// ([l, u] becomes [-u-1, -l-1]) when Flip[k] is set, and is then shifted by
// Offset[k]. Offset is given at the geometry's reference resolution and is
// scaled by the refinement ratio of the box being mapped.
type Transformation struct {
	Axes   []int         `json:"axes"   yaml:"axes"`
	Flip   []bool        `json:"flip"   yaml:"flip"`
	Offset box.IntVector `json:"offset" yaml:"offset"`
}

// Identity returns the transformation that leaves indices unchanged.
func Identity(dim int) Transformation {
	return Shift(box.Uniform(dim, 0))
}

// Shift returns a pure translation by offset.
func Shift(offset box.IntVector) Transformation {
	axes := make([]int, offset.Dim())
	for i := range axes {
		axes[i] = i
	}

	return Transformation{
		Axes:   axes,
		Flip:   make([]bool, offset.Dim()),
		Offset: offset.Clone(),
	}
}

// Dim returns the dimensionality the transformation applies to.
func (tr Transformation) Dim() int {
	return len(tr.Axes)
}

// Validate checks that tr is a signed axis permutation of dimension dim.
func (tr Transformation) Validate(dim int) error {
	if len(tr.Axes) != dim || len(tr.Flip) != dim || tr.Offset.Dim() != dim {
		return fmt.Errorf("%w: axes/flip/offset lengths %d/%d/%d, want %d",
			ErrInvalidTransformation, len(tr.Axes), len(tr.Flip), tr.Offset.Dim(), dim)
	}

	seen := make([]bool, dim)

	for k, axis := range tr.Axes {
		if axis < 0 || axis >= dim || seen[axis] {
			return fmt.Errorf("%w: axes %v is not a permutation (position %d)", ErrInvalidTransformation, tr.Axes, k)
		}

		seen[axis] = true
	}

	return nil
}

// Apply maps b, whose index space is refined by ratio relative to the
// reference frame, through tr. The result keeps b's block tag.
func (tr Transformation) Apply(b box.Box, ratio box.IntVector) (box.Box, error) {
	dim := tr.Dim()

	if b.Dim() != dim {
		return box.Box{}, fmt.Errorf("%w: box %s, transformation has dimension %d", box.ErrDimensionMismatch, b, dim)
	}

	err := box.CheckRatio(ratio, dim)
	if err != nil {
		return box.Box{}, err
	}

	lower := make(box.IntVector, dim)
	upper := make(box.IntVector, dim)

	for k, src := range tr.Axes {
		lo, hi := b.LowerAt(src), b.UpperAt(src)
		if tr.Flip[k] {
			lo, hi = -hi-1, -lo-1
		}

		shift, scaleErr := box.Scale(tr.Offset[k], ratio[src])
		if scaleErr != nil {
			return box.Box{}, fmt.Errorf("scale offset on axis %d: %w", k, scaleErr)
		}

		lower[k] = lo + shift
		upper[k] = hi + shift
	}

	return box.New(b.Block(), lower, upper)
}

// Inverse returns the transformation undoing tr.
func (tr Transformation) Inverse() Transformation {
	dim := tr.Dim()
	inv := Transformation{
		Axes:   make([]int, dim),
		Flip:   make([]bool, dim),
		Offset: make(box.IntVector, dim),
	}

	for k, src := range tr.Axes {
		inv.Axes[src] = k
		inv.Flip[src] = tr.Flip[k]

		// Mirroring commutes with a shift up to a sign: m(y - o) = m(y) + o.
		if tr.Flip[k] {
			inv.Offset[src] = tr.Offset[k]
		} else {
			inv.Offset[src] = -tr.Offset[k]
		}
	}

	return inv
}

// Refine returns tr rescaled for a reference frame refined by ratio, so that
// applying the result at unit ratio equals applying tr at ratio.
func (tr Transformation) Refine(ratio box.IntVector) (Transformation, error) {
	err := box.CheckRatio(ratio, tr.Dim())
	if err != nil {
		return Transformation{}, err
	}

	out := tr.clone()
	for k, src := range tr.Axes {
		out.Offset[k], err = box.Scale(tr.Offset[k], ratio[src])
		if err != nil {
			return Transformation{}, fmt.Errorf("refine offset on axis %d: %w", k, err)
		}
	}

	return out, nil
}

// Coarsen undoes Refine. Every offset must be divisible by its ratio.
func (tr Transformation) Coarsen(ratio box.IntVector) (Transformation, error) {
	err := box.CheckRatio(ratio, tr.Dim())
	if err != nil {
		return Transformation{}, err
	}

	out := tr.clone()
	for k, src := range tr.Axes {
		if out.Offset[k]%ratio[src] != 0 {
			return Transformation{}, fmt.Errorf("%w: offset %d on axis %d is not a multiple of %d",
				ErrInvalidTransformation, out.Offset[k], k, ratio[src])
		}

		out.Offset[k] /= ratio[src]
	}

	return out, nil
}

func (tr Transformation) clone() Transformation {
	return Transformation{
		Axes:   append([]int(nil), tr.Axes...),
		Flip:   append([]bool(nil), tr.Flip...),
		Offset: tr.Offset.Clone(),
	}
}
