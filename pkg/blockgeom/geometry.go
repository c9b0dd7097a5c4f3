// Package blockgeom provides a table-driven multiblock grid geometry: a set
// of blocks, the adjacencies between them, and the index transformation
// across each adjacency. It implements multiblock.GridGeometry.
package blockgeom

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

var _ multiblock.GridGeometry = (*Geometry)(nil)

// adjacency is one directed edge of the block graph.
type adjacency struct {
	transform Transformation
	singular  bool
}

// Geometry is a multiblock grid geometry assembled with AddBlock and Connect.
// Once handed to a tree it must not be modified; reads are safe for
// concurrent use.
type Geometry struct {
	blocks map[box.BlockID]map[box.BlockID]adjacency
	dim    int
}

// New returns an empty geometry for blocks of dimension dim.
func New(dim int) (*Geometry, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: geometry dimension %d", box.ErrDimensionMismatch, dim)
	}

	return &Geometry{
		blocks: make(map[box.BlockID]map[box.BlockID]adjacency),
		dim:    dim,
	}, nil
}

// Dim returns the dimensionality of every block.
func (g *Geometry) Dim() int {
	return g.dim
}

// AddBlock registers id. Registering an existing block is a no-op.
func (g *Geometry) AddBlock(id box.BlockID) {
	if _, ok := g.blocks[id]; !ok {
		g.blocks[id] = make(map[box.BlockID]adjacency)
	}
}

// HasBlock reports whether id is registered.
func (g *Geometry) HasBlock(id box.BlockID) bool {
	_, ok := g.blocks[id]

	return ok
}

// Blocks returns the registered block ids in ascending order.
func (g *Geometry) Blocks() []box.BlockID {
	return slices.Sorted(maps.Keys(g.blocks))
}

// Connect declares a and b adjacent, with tr mapping a's indices into b's
// frame. The reverse adjacency uses the inverse of tr. singular marks the
// adjacency as crossing a singularity. Both blocks are registered if needed.
func (g *Geometry) Connect(a, b box.BlockID, tr Transformation, singular bool) error {
	if a == b {
		return fmt.Errorf("%w: %s", ErrSelfAdjacent, a)
	}

	err := tr.Validate(g.dim)
	if err != nil {
		return fmt.Errorf("connect %s to %s: %w", a, b, err)
	}

	if _, ok := g.blocks[a][b]; ok {
		return fmt.Errorf("%w: %s to %s", ErrDuplicateAdjacency, a, b)
	}

	g.AddBlock(a)
	g.AddBlock(b)

	g.blocks[a][b] = adjacency{transform: tr, singular: singular}
	g.blocks[b][a] = adjacency{transform: tr.Inverse(), singular: singular}

	return nil
}

// Neighbors returns the blocks adjacent to id in ascending order.
func (g *Geometry) Neighbors(id box.BlockID) []box.BlockID {
	return slices.Sorted(maps.Keys(g.blocks[id]))
}

// SingularityNeighbors returns the blocks adjacent to id across a
// singularity, in ascending order.
func (g *Geometry) SingularityNeighbors(id box.BlockID) []box.BlockID {
	var out []box.BlockID

	for _, n := range g.Neighbors(id) {
		if g.blocks[id][n].singular {
			out = append(out, n)
		}
	}

	return out
}

// IsSingularityNeighbor reports whether a and b meet across a singularity.
func (g *Geometry) IsSingularityNeighbor(a, b box.BlockID) bool {
	adj, ok := g.blocks[a][b]

	return ok && adj.singular
}

// TransformationBetween returns the transformation from a's frame into b's.
func (g *Geometry) TransformationBetween(a, b box.BlockID) (Transformation, bool) {
	adj, ok := g.blocks[a][b]

	return adj.transform, ok
}

// Transform maps bx from the frame of its block into the frame of to.
func (g *Geometry) Transform(bx box.Box, ratio box.IntVector, to box.BlockID) (box.Box, error) {
	adj, ok := g.blocks[bx.Block()][to]
	if !ok {
		return box.Box{}, fmt.Errorf("%w: %s and %s", ErrNotAdjacent, bx.Block(), to)
	}

	out, err := adj.transform.Apply(bx, ratio)
	if err != nil {
		return box.Box{}, err
	}

	return out.WithBlock(to), nil
}
