// Package multiblock indexes boxes spread over the blocks of a multiblock
// mesh. It keeps one single-block search tree per populated block and
// resolves queries against the tree of the query's block and the trees of
// its adjacent blocks, after mapping the query into each neighbor's frame
// through a GridGeometry. Neighbors across a singularity are searched only
// on request.
//
// A Tree is either uninitialized (no blocks) or initialized (one subtree
// per block that holds boxes). Queries never modify the tree and may run
// concurrently. Generate and Clear require exclusive access.
package multiblock

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/boxtree"
)

// Tree is a collection of single-block box trees sharing one GridGeometry.
type Tree struct {
	geom   GridGeometry
	trees  map[box.BlockID]*boxtree.Tree
	blocks []box.BlockID
	opts   options
}

// New returns an uninitialized tree. Use Generate or GenerateFromBlocks to
// populate it.
func New(opts ...Option) *Tree {
	return &Tree{opts: buildOptions(opts)}
}

// NewFromBoxes builds a tree from boxes, grouping them by their block tags.
// It takes ownership of boxes.
func NewFromBoxes(geom GridGeometry, boxes []box.Box, opts ...Option) (*Tree, error) {
	t := New(opts...)

	err := t.Generate(geom, boxes)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// NewFromBlocks builds a tree from an explicit block-to-boxes mapping. It
// takes ownership of the slices in blocks.
func NewFromBlocks(geom GridGeometry, blocks map[box.BlockID][]box.Box, opts ...Option) (*Tree, error) {
	t := New(opts...)

	err := t.GenerateFromBlocks(geom, blocks)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Generate replaces the contents of t with a tree over boxes, grouped by
// their block tags. Ownership of boxes passes to t; callers must not rely on
// its contents afterwards. On error t is left unchanged.
func (t *Tree) Generate(geom GridGeometry, boxes []box.Box) error {
	groups := make(map[box.BlockID][]box.Box)

	for i := range boxes {
		id := boxes[i].Block()
		groups[id] = append(groups[id], boxes[i])
	}

	return t.generate(geom, groups)
}

// GenerateFromBlocks replaces the contents of t with a tree over the given
// per-block boxes. The map key names the frame each slice is expressed in and
// overrides the boxes' own tags. Blocks with no boxes get no subtree.
// Ownership of the slices passes to t. On error t is left unchanged.
func (t *Tree) GenerateFromBlocks(geom GridGeometry, blocks map[box.BlockID][]box.Box) error {
	groups := make(map[box.BlockID][]box.Box, len(blocks))

	for id, boxes := range blocks {
		if len(boxes) == 0 {
			continue
		}

		for i := range boxes {
			if !boxes[i].IsZero() {
				boxes[i] = boxes[i].WithBlock(id)
			}
		}

		groups[id] = boxes
	}

	return t.generate(geom, groups)
}

func (t *Tree) generate(geom GridGeometry, groups map[box.BlockID][]box.Box) error {
	start := time.Now()

	err := validateGroups(geom, groups)
	if err != nil {
		return err
	}

	ids := slices.Sorted(maps.Keys(groups))
	minNumber := t.opts.minNumber

	built, err := t.buildAll(ids, func(id box.BlockID) (*boxtree.Tree, error) {
		return boxtree.New(groups[id], boxtree.WithMinNumber(minNumber))
	})
	if err != nil {
		return err
	}

	t.install(geom, ids, built)
	t.recordBuild(start)

	return nil
}

// buildAll runs build for every id on a bounded worker group and returns the
// trees keyed by id.
func (t *Tree) buildAll(
	ids []box.BlockID, build func(box.BlockID) (*boxtree.Tree, error),
) (map[box.BlockID]*boxtree.Tree, error) {
	results := make([]*boxtree.Tree, len(ids))

	workers := t.opts.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var group errgroup.Group

	group.SetLimit(workers)

	for i, id := range ids {
		group.Go(func() error {
			tree, err := build(id)
			if err != nil {
				return fmt.Errorf("block %s: %w", id, err)
			}

			results[i] = tree

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	trees := make(map[box.BlockID]*boxtree.Tree, len(ids))
	for i, id := range ids {
		trees[id] = results[i]
	}

	return trees, nil
}

func (t *Tree) install(geom GridGeometry, ids []box.BlockID, trees map[box.BlockID]*boxtree.Tree) {
	t.geom = geom
	t.blocks = ids
	t.trees = trees
}

func (t *Tree) recordBuild(start time.Time) {
	elapsed := time.Since(start)
	total := t.Len()

	t.opts.logger.Debug("multiblock box tree built",
		"blocks", len(t.blocks),
		"boxes", total,
		"min_number", t.opts.minNumber,
		"elapsed", elapsed,
	)

	if t.opts.recorder != nil {
		t.opts.recorder.RecordBuild(len(t.blocks), total, elapsed)
	}
}

// validateGroups checks every box before any tree is built so that errors
// are reported deterministically and nothing is built on failure.
func validateGroups(geom GridGeometry, groups map[box.BlockID][]box.Box) error {
	if geom == nil {
		return fmt.Errorf("%w: nil grid geometry", box.ErrUsage)
	}

	if len(groups) == 0 {
		return fmt.Errorf("%w: no boxes", box.ErrConstruction)
	}

	dim := geom.Dim()

	for _, id := range slices.Sorted(maps.Keys(groups)) {
		for i, b := range groups[id] {
			if b.IsZero() {
				return fmt.Errorf("%w: empty box at index %d of block %s", box.ErrConstruction, i, id)
			}

			if b.Dim() != dim {
				return fmt.Errorf("%w: box %s has dimension %d, grid geometry has %d",
					box.ErrDimensionMismatch, b, b.Dim(), dim)
			}
		}
	}

	return nil
}

// IsInitialized reports whether t holds at least one block.
func (t *Tree) IsInitialized() bool {
	return len(t.trees) > 0
}

// Clear resets t to the uninitialized state and drops its geometry.
func (t *Tree) Clear() {
	t.geom = nil
	t.trees = nil
	t.blocks = nil
}

// GridGeometry returns the geometry t was built with, or nil when t is
// uninitialized.
func (t *Tree) GridGeometry() GridGeometry {
	return t.geom
}

// Dim returns the dimensionality of the stored boxes, or zero when t is
// uninitialized.
func (t *Tree) Dim() int {
	if t.geom == nil {
		return 0
	}

	return t.geom.Dim()
}

// Blocks returns the ids of the blocks holding boxes, in ascending order.
func (t *Tree) Blocks() []box.BlockID {
	return slices.Clone(t.blocks)
}

// Len returns the number of stored boxes across all blocks.
func (t *Tree) Len() int {
	total := 0
	for _, tree := range t.trees {
		total += tree.Len()
	}

	return total
}

// HasBoxInBlock reports whether t holds a subtree for id. It returns false
// on an uninitialized tree.
func (t *Tree) HasBoxInBlock(id box.BlockID) bool {
	_, ok := t.trees[id]

	return ok
}

// SingleBlockTree returns the subtree for id. It fails with box.ErrUsage when
// t is uninitialized or holds no boxes in id; check HasBoxInBlock first.
func (t *Tree) SingleBlockTree(id box.BlockID) (*boxtree.Tree, error) {
	err := t.checkInitialized()
	if err != nil {
		return nil, err
	}

	tree, ok := t.trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: no boxes in block %s", box.ErrUsage, id)
	}

	return tree, nil
}

// AppendBoxes appends every stored box to dst, block by block in ascending
// block order, and returns the extended slice.
func (t *Tree) AppendBoxes(dst []box.Box) ([]box.Box, error) {
	err := t.checkInitialized()
	if err != nil {
		return dst, err
	}

	for _, id := range t.blocks {
		dst = append(dst, t.trees[id].Boxes()...)
	}

	return dst, nil
}

// CreateRefinedTree returns a new tree whose boxes are those of t refined by
// ratio. Every block is refined in its own frame. The result shares t's
// geometry and options but no mutable state.
func (t *Tree) CreateRefinedTree(ratio box.IntVector) (*Tree, error) {
	start := time.Now()

	err := t.checkInitialized()
	if err != nil {
		return nil, err
	}

	err = box.CheckRatio(ratio, t.Dim())
	if err != nil {
		return nil, err
	}

	refined := &Tree{opts: t.opts}

	built, err := refined.buildAll(t.blocks, func(id box.BlockID) (*boxtree.Tree, error) {
		return t.trees[id].CreateRefinedTree(ratio)
	})
	if err != nil {
		return nil, err
	}

	refined.install(t.geom, slices.Clone(t.blocks), built)
	refined.recordBuild(start)

	return refined, nil
}

func (t *Tree) checkInitialized() error {
	if !t.IsInitialized() {
		return fmt.Errorf("%w: tree is not initialized", box.ErrUsage)
	}

	return nil
}
