package boxtree

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// node is a tree node. Leaves have nil children and own a sub-slice of the
// tree's box storage; internal nodes have both children and no boxes.
type node struct {
	bounds box.Box
	left   *node
	right  *node
	boxes  []box.Box
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// validate checks that boxes is a non-empty set of valid boxes sharing one
// block and one dimensionality.
func validate(boxes []box.Box) (box.BlockID, int, error) {
	if len(boxes) == 0 {
		return 0, 0, fmt.Errorf("%w: no boxes", box.ErrConstruction)
	}

	block := boxes[0].Block()
	dim := boxes[0].Dim()

	for i := range boxes {
		b := &boxes[i]

		if b.IsZero() {
			return 0, 0, fmt.Errorf("%w: empty box at index %d", box.ErrConstruction, i)
		}

		if b.Dim() != dim {
			return 0, 0, fmt.Errorf("%w: box %s at index %d, want dimension %d", box.ErrDimensionMismatch, b, i, dim)
		}

		if b.Block() != block {
			return 0, 0, fmt.Errorf("%w: box %s at index %d is not in block %s", box.ErrConstruction, b, i, block)
		}
	}

	return block, dim, nil
}

// buildNode builds the subtree over boxes, reordering them in place.
func buildNode(boxes []box.Box, minNumber int) *node {
	n := &node{bounds: boundingBox(boxes)}

	if len(boxes) <= minNumber {
		n.boxes = boxes

		return n
	}

	cut := partition(boxes)
	if cut == 0 {
		// Identical boxes cannot be separated.
		n.boxes = boxes

		return n
	}

	n.left = buildNode(boxes[:cut], minNumber)
	n.right = buildNode(boxes[cut:], minNumber)

	return n
}

// partition sorts boxes along the axis with the widest spread of centers and
// returns the split index. Boxes left of the index have centers at or below
// the median center. When that leaves one side empty the cut moves to the
// other side of the median run, and when all centers coincide it falls back
// to bisecting the list by index. It returns zero only when every box is
// identical.
func partition(boxes []box.Box) int {
	axis, spread := widestAxis(boxes)

	if spread == 0 {
		slices.SortFunc(boxes, box.Box.Compare)

		if boxes[0].Equal(boxes[len(boxes)-1]) {
			return 0
		}

		return len(boxes) / 2
	}

	slices.SortFunc(boxes, func(a, b box.Box) int {
		return cmp.Or(cmp.Compare(a.CenterTwice(axis), b.CenterTwice(axis)), a.Compare(b))
	})

	pivot := boxes[(len(boxes)-1)/2].CenterTwice(axis)

	cut, _ := slices.BinarySearchFunc(boxes, pivot+1, centerCmp(axis))
	if cut < len(boxes) {
		return cut
	}

	// The median run reaches the end; split before it instead. Nonzero
	// because spread > 0.
	cut, _ = slices.BinarySearchFunc(boxes, pivot, centerCmp(axis))

	return cut
}

// centerCmp compares a box's doubled center on axis against a target.
func centerCmp(axis int) func(box.Box, int) int {
	return func(b box.Box, target int) int {
		return cmp.Compare(b.CenterTwice(axis), target)
	}
}

// widestAxis returns the axis whose doubled box centers spread the most.
// Ties go to the lowest axis.
func widestAxis(boxes []box.Box) (int, int) {
	bestAxis, bestSpread := 0, -1

	for axis := range boxes[0].Dim() {
		lo, hi := boxes[0].CenterTwice(axis), boxes[0].CenterTwice(axis)

		for i := 1; i < len(boxes); i++ {
			c := boxes[i].CenterTwice(axis)
			lo = min(lo, c)
			hi = max(hi, c)
		}

		if hi-lo > bestSpread {
			bestAxis, bestSpread = axis, hi-lo
		}
	}

	return bestAxis, bestSpread
}

func boundingBox(boxes []box.Box) box.Box {
	bounds := boxes[0]
	for i := 1; i < len(boxes); i++ {
		bounds = bounds.Union(boxes[i])
	}

	return bounds
}
