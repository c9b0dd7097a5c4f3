package box

import "errors"

// Error categories. Every failure returned by this module wraps exactly one
// of them; use errors.Is to classify.
var (
	// ErrConstruction reports an invalid build input: an empty box, or boxes
	// from several blocks handed to a single-block build.
	ErrConstruction = errors.New("construction error")

	// ErrUsage reports a call that is invalid for the receiver's state, such as
	// a query on an uninitialized tree or a lookup of an absent block.
	ErrUsage = errors.New("usage error")

	// ErrDimensionMismatch reports a box, ratio, or geometry whose
	// dimensionality differs from the one the receiver was built with.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
