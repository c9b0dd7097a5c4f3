package box

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IntVector is a fixed-length integer vector used for box corners,
// refinement ratios, and stencil widths.
type IntVector []int

// Uniform returns a vector of length dim with every component set to v.
func Uniform(dim, v int) IntVector {
	vec := make(IntVector, dim)
	for i := range vec {
		vec[i] = v
	}

	return vec
}

// Ones returns the unit vector of length dim, the identity refinement ratio.
func Ones(dim int) IntVector {
	return Uniform(dim, 1)
}

// Dim returns the number of components.
func (v IntVector) Dim() int {
	return len(v)
}

// Clone returns an independent copy of v.
func (v IntVector) Clone() IntVector {
	if v == nil {
		return nil
	}

	out := make(IntVector, len(v))
	copy(out, v)

	return out
}

// Equal reports whether v and other have the same length and components.
func (v IntVector) Equal(other IntVector) bool {
	if len(v) != len(other) {
		return false
	}

	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}

	return true
}

// Compare orders vectors lexicographically, shorter vectors first.
func (v IntVector) Compare(other IntVector) int {
	if len(v) != len(other) {
		if len(v) < len(other) {
			return -1
		}

		return 1
	}

	for i := range v {
		switch {
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}

	return 0
}

// Less reports whether v sorts before other lexicographically.
func (v IntVector) Less(other IntVector) bool {
	return v.Compare(other) < 0
}

// Mul returns the component-wise product of v and other.
func (v IntVector) Mul(other IntVector) (IntVector, error) {
	if len(v) != len(other) {
		return nil, fmt.Errorf("%w: multiply %d-vector by %d-vector", ErrDimensionMismatch, len(v), len(other))
	}

	out := make(IntVector, len(v))
	for i := range v {
		out[i] = v[i] * other[i]
	}

	return out, nil
}

// Scale returns v*r for a ratio component r >= 1. It fails with
// ErrConstruction when the product does not fit in an int.
func Scale(v, r int) (int, error) {
	if v > math.MaxInt/r || v < math.MinInt/r {
		return 0, fmt.Errorf("%w: %d*%d overflows", ErrConstruction, v, r)
	}

	return v * r, nil
}

// AllPositive reports whether every component is at least one, the
// requirement for a refinement ratio.
func (v IntVector) AllPositive() bool {
	for _, c := range v {
		if c < 1 {
			return false
		}
	}

	return len(v) > 0
}

// String formats the vector as "(c0,c1,...)".
func (v IntVector) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = strconv.Itoa(c)
	}

	return "(" + strings.Join(parts, ",") + ")"
}

// CheckRatio validates ratio as a refinement ratio of dimension dim.
func CheckRatio(ratio IntVector, dim int) error {
	if ratio.Dim() != dim {
		return fmt.Errorf("%w: ratio %s has dimension %d, want %d", ErrDimensionMismatch, ratio, ratio.Dim(), dim)
	}

	if !ratio.AllPositive() {
		return fmt.Errorf("%w: ratio %s must be at least 1 in every dimension", ErrUsage, ratio)
	}

	return nil
}
