package multiblock

import "github.com/Sumatoshi-tech/boxtree/pkg/box"

// GridGeometry describes how the blocks of a multiblock mesh fit together.
// The tree treats it as a read-only lookup service and performs no geometric
// computation of its own.
//
// A GridGeometry is shared by reference between trees and must not change
// while any tree uses it. Implementations must be safe for concurrent reads.
type GridGeometry interface {
	// Dim returns the dimensionality of every block.
	Dim() int

	// Neighbors returns the blocks adjacent to id.
	Neighbors(id box.BlockID) []box.BlockID

	// IsSingularityNeighbor reports whether a and b are adjacent across a
	// singularity.
	IsSingularityNeighbor(a, b box.BlockID) bool

	// Transform maps b from the frame of b.Block() into the frame of the
	// adjacent block to. ratio is the refinement ratio of b's index space
	// relative to the geometry's reference frame. The result is tagged with
	// to.
	Transform(b box.Box, ratio box.IntVector, to box.BlockID) (box.Box, error)
}
