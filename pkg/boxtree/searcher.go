package boxtree

import (
	"fmt"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// Searcher answers overlap queries over the boxes of one block.
type Searcher interface {
	// Dim returns the dimensionality of the stored boxes.
	Dim() int

	// Len returns the number of stored boxes.
	Len() int

	// HasOverlap reports whether any stored box intersects q.
	HasOverlap(q box.Box) (bool, error)

	// AppendOverlapBoxes appends every stored box intersecting q to dst.
	AppendOverlapBoxes(dst []box.Box, q box.Box) ([]box.Box, error)
}

var (
	_ Searcher = (*Tree)(nil)
	_ Searcher = (*List)(nil)
)

// List is a Searcher that scans every box. It has no build cost and serves
// as a reference for tree results.
type List struct {
	boxes []box.Box
	dim   int
}

// NewList validates boxes like New and takes ownership of the slice.
func NewList(boxes []box.Box) (*List, error) {
	_, dim, err := validate(boxes)
	if err != nil {
		return nil, err
	}

	return &List{boxes: boxes, dim: dim}, nil
}

// Dim returns the dimensionality of the stored boxes.
func (l *List) Dim() int {
	return l.dim
}

// Len returns the number of stored boxes.
func (l *List) Len() int {
	return len(l.boxes)
}

// HasOverlap reports whether any stored box intersects q.
func (l *List) HasOverlap(q box.Box) (bool, error) {
	if q.Dim() != l.dim {
		return false, fmt.Errorf("%w: query box %s, list has dimension %d", box.ErrDimensionMismatch, q, l.dim)
	}

	for i := range l.boxes {
		if l.boxes[i].Intersects(q) {
			return true, nil
		}
	}

	return false, nil
}

// AppendOverlapBoxes appends every stored box intersecting q to dst in
// storage order.
func (l *List) AppendOverlapBoxes(dst []box.Box, q box.Box) ([]box.Box, error) {
	if q.Dim() != l.dim {
		return dst, fmt.Errorf("%w: query box %s, list has dimension %d", box.ErrDimensionMismatch, q, l.dim)
	}

	for i := range l.boxes {
		if l.boxes[i].Intersects(q) {
			dst = append(dst, l.boxes[i])
		}
	}

	return dst, nil
}
