package multiblock

import (
	"fmt"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/boxtree"
)

// searchFunc queries one subtree with a query already in its frame. It
// returns false to stop the search.
type searchFunc func(tree *boxtree.Tree, q box.Box) (bool, error)

// HasOverlap reports whether any stored box overlaps q, where q is expressed
// in the frame of block. Every block adjacent to block is searched too, with q
// mapped into that block's frame at unit ratio; neighbors across a
// singularity are searched only when includeSingularity is set. The search
// stops at the first overlap found.
func (t *Tree) HasOverlap(q box.Box, block box.BlockID, includeSingularity bool) (bool, error) {
	err := t.checkQuery(q)
	if err != nil {
		return false, err
	}

	found := false

	err = t.search(q.WithBlock(block), box.Ones(q.Dim()), includeSingularity,
		func(tree *boxtree.Tree, local box.Box) (bool, error) {
			hit, hitErr := tree.HasOverlap(local)
			found = hit

			return !hit, hitErr
		})
	if err != nil {
		return false, err
	}

	t.recordQuery(OpHasOverlap, includeSingularity, boolCount(found))

	return found, nil
}

// FindOverlapBoxes inserts every stored box overlapping q into set. q is
// expressed in the frame of block at refinement ratio ratio relative to the
// geometry's reference frame. The set is not cleared first, and it is left
// untouched when an error is returned.
func (t *Tree) FindOverlapBoxes(
	set *box.BoxSet, q box.Box, block box.BlockID, ratio box.IntVector, includeSingularity bool,
) error {
	refs, err := t.collect(q, block, ratio, includeSingularity)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		set.Insert(*ref)
	}

	t.recordQuery(OpFindSet, includeSingularity, len(refs))

	return nil
}

// AppendOverlapBoxes appends a copy of every stored box overlapping q to dst
// in discovery order and returns the extended slice. Arguments are as for
// FindOverlapBoxes. On error dst is returned unchanged.
func (t *Tree) AppendOverlapBoxes(
	dst []box.Box, q box.Box, block box.BlockID, ratio box.IntVector, includeSingularity bool,
) ([]box.Box, error) {
	refs, err := t.collect(q, block, ratio, includeSingularity)
	if err != nil {
		return dst, err
	}

	for _, ref := range refs {
		dst = append(dst, *ref)
	}

	t.recordQuery(OpFindBoxes, includeSingularity, len(refs))

	return dst, nil
}

// AppendOverlapBoxRefs is like AppendOverlapBoxes but appends pointers into
// the tree's storage. The pointers stay valid until t is cleared or
// regenerated; callers must not modify the boxes they point to.
func (t *Tree) AppendOverlapBoxRefs(
	dst []*box.Box, q box.Box, block box.BlockID, ratio box.IntVector, includeSingularity bool,
) ([]*box.Box, error) {
	refs, err := t.collect(q, block, ratio, includeSingularity)
	if err != nil {
		return dst, err
	}

	t.recordQuery(OpFindBoxRefs, includeSingularity, len(refs))

	return append(dst, refs...), nil
}

// collect gathers references to every overlapping box. Nothing is returned
// unless the whole search succeeds.
func (t *Tree) collect(
	q box.Box, block box.BlockID, ratio box.IntVector, includeSingularity bool,
) ([]*box.Box, error) {
	err := t.checkQuery(q)
	if err != nil {
		return nil, err
	}

	err = box.CheckRatio(ratio, q.Dim())
	if err != nil {
		return nil, err
	}

	var refs []*box.Box

	err = t.search(q.WithBlock(block), ratio, includeSingularity,
		func(tree *boxtree.Tree, local box.Box) (bool, error) {
			var findErr error

			refs, findErr = tree.AppendOverlapBoxRefs(refs, local)

			return true, findErr
		})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// search runs fn against the subtree of q's block and then against the
// subtree of each adjacent block with q mapped into the neighbor's frame.
// Singularity neighbors are skipped unless includeSingularity is set, and
// blocks without boxes are skipped.
func (t *Tree) search(q box.Box, ratio box.IntVector, includeSingularity bool, fn searchFunc) error {
	block := q.Block()

	if tree, ok := t.trees[block]; ok {
		more, err := fn(tree, q)
		if err != nil || !more {
			return err
		}
	}

	for _, neighbor := range t.geom.Neighbors(block) {
		tree, ok := t.trees[neighbor]
		if !ok {
			continue
		}

		if !includeSingularity && t.geom.IsSingularityNeighbor(block, neighbor) {
			continue
		}

		local, err := t.geom.Transform(q, ratio, neighbor)
		if err != nil {
			return fmt.Errorf("transform %s into block %s: %w", q, neighbor, err)
		}

		if local.Dim() != q.Dim() {
			return fmt.Errorf("%w: transform of %s into block %s has dimension %d",
				box.ErrDimensionMismatch, q, neighbor, local.Dim())
		}

		more, err := fn(tree, local)
		if err != nil || !more {
			return err
		}
	}

	return nil
}

func (t *Tree) checkQuery(q box.Box) error {
	err := t.checkInitialized()
	if err != nil {
		return err
	}

	if q.Dim() != t.Dim() {
		return fmt.Errorf("%w: query box %s has dimension %d, tree has %d",
			box.ErrDimensionMismatch, q, q.Dim(), t.Dim())
	}

	return nil
}

func (t *Tree) recordQuery(op string, singularity bool, results int) {
	if t.opts.recorder != nil {
		t.opts.recorder.RecordQuery(op, singularity, results)
	}
}

func boolCount(b bool) int {
	if b {
		return 1
	}

	return 0
}
