package boxtree

import (
	"fmt"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
)

// Tree is a spatial search tree over the boxes of one block.
type Tree struct {
	root      *node
	storage   []box.Box
	block     box.BlockID
	dim       int
	minNumber int
	depth     int
	leaves    int
}

// New builds a tree from boxes, which must be non-empty, valid, and share one
// block and one dimensionality.
//
// New takes ownership of boxes: the slice is reordered in place and retained
// as the tree's storage. Callers must not read or modify it afterwards.
func New(boxes []box.Box, opts ...Option) (*Tree, error) {
	o := buildOptions(opts)

	block, dim, err := validate(boxes)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		root:      buildNode(boxes, o.minNumber),
		storage:   boxes,
		block:     block,
		dim:       dim,
		minNumber: o.minNumber,
	}

	t.depth, t.leaves = measure(t.root)

	return t, nil
}

func measure(n *node) (int, int) {
	if n.isLeaf() {
		return 1, 1
	}

	ld, ll := measure(n.left)
	rd, rl := measure(n.right)

	return max(ld, rd) + 1, ll + rl
}

// Block returns the block all stored boxes belong to.
func (t *Tree) Block() box.BlockID {
	return t.block
}

// Dim returns the dimensionality of the stored boxes.
func (t *Tree) Dim() int {
	return t.dim
}

// Len returns the number of stored boxes.
func (t *Tree) Len() int {
	return len(t.storage)
}

// MinNumber returns the leaf-size threshold the tree was built with.
func (t *Tree) MinNumber() int {
	return t.minNumber
}

// Bounds returns the bounding box of all stored boxes.
func (t *Tree) Bounds() box.Box {
	return t.root.bounds
}

// Depth returns the number of levels, counting the root as one.
func (t *Tree) Depth() int {
	return t.depth
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	return t.leaves
}

// Boxes returns a copy of the stored boxes in storage order.
func (t *Tree) Boxes() []box.Box {
	out := make([]box.Box, len(t.storage))
	copy(out, t.storage)

	return out
}

// HasOverlap reports whether any stored box intersects q. The block tag of q
// is ignored: q is taken to be in this tree's frame.
func (t *Tree) HasOverlap(q box.Box) (bool, error) {
	err := t.checkQuery(q)
	if err != nil {
		return false, err
	}

	found := false

	t.root.visit(q, func(*box.Box) bool {
		found = true

		return false
	})

	return found, nil
}

// AppendOverlapBoxes appends a copy of every stored box intersecting q to dst
// and returns the extended slice. Existing elements of dst are kept, so
// repeated calls accumulate.
func (t *Tree) AppendOverlapBoxes(dst []box.Box, q box.Box) ([]box.Box, error) {
	err := t.checkQuery(q)
	if err != nil {
		return dst, err
	}

	t.root.visit(q, func(b *box.Box) bool {
		dst = append(dst, *b)

		return true
	})

	return dst, nil
}

// AppendOverlapBoxRefs is like AppendOverlapBoxes but appends pointers into
// the tree's storage instead of copies. The pointers are valid for as long as
// the tree is; callers must not modify the boxes they point to.
func (t *Tree) AppendOverlapBoxRefs(dst []*box.Box, q box.Box) ([]*box.Box, error) {
	err := t.checkQuery(q)
	if err != nil {
		return dst, err
	}

	t.root.visit(q, func(b *box.Box) bool {
		dst = append(dst, b)

		return true
	})

	return dst, nil
}

// FindOverlapBoxes inserts every stored box intersecting q into set. The set
// is not cleared first.
func (t *Tree) FindOverlapBoxes(set *box.BoxSet, q box.Box) error {
	err := t.checkQuery(q)
	if err != nil {
		return err
	}

	t.root.visit(q, func(b *box.Box) bool {
		set.Insert(*b)

		return true
	})

	return nil
}

// CreateRefinedTree returns a new tree holding every box refined by ratio,
// built with the same leaf threshold. The receiver is not modified.
func (t *Tree) CreateRefinedTree(ratio box.IntVector) (*Tree, error) {
	err := box.CheckRatio(ratio, t.dim)
	if err != nil {
		return nil, err
	}

	refined := make([]box.Box, len(t.storage))

	for i := range t.storage {
		refined[i], err = t.storage[i].Refine(ratio)
		if err != nil {
			return nil, fmt.Errorf("refine %s: %w", t.storage[i], err)
		}
	}

	return New(refined, WithMinNumber(t.minNumber))
}

func (t *Tree) checkQuery(q box.Box) error {
	if t == nil || t.root == nil {
		return fmt.Errorf("%w: query on an unbuilt tree", box.ErrUsage)
	}

	if q.Dim() != t.dim {
		return fmt.Errorf("%w: query box %s has dimension %d, tree has %d", box.ErrDimensionMismatch, q, q.Dim(), t.dim)
	}

	return nil
}

// visit calls fn for every stored box under n that intersects q, descending
// only into subtrees whose bounds intersect q. It stops and returns false as
// soon as fn does.
func (n *node) visit(q box.Box, fn func(*box.Box) bool) bool {
	if !n.bounds.Intersects(q) {
		return true
	}

	if n.isLeaf() {
		for i := range n.boxes {
			if n.boxes[i].Intersects(q) && !fn(&n.boxes[i]) {
				return false
			}
		}

		return true
	}

	return n.left.visit(q, fn) && n.right.visit(q, fn)
}
