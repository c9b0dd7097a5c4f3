// Package boxtree provides a binary spatial partition over the boxes of a
// single block, answering "which stored boxes overlap this box?" in
// O(log n + k) for typical inputs.
//
// Internal nodes keep the bounding box of everything below them so a query
// only descends into subtrees it can intersect. Leaves hold at most
// min_number boxes, except when the remaining boxes are identical and cannot
// be separated. The leaf threshold only trades build speed against query
// speed; it never changes query results.
//
// A Tree is immutable once built and safe for concurrent queries.
package boxtree
