package box

import "github.com/google/btree"

// setDegree is the B-tree degree used by BoxSet.
const setDegree = 16

// BoxSet is an ordered set of unique boxes. Iteration follows the canonical
// box order (block, lower corner, upper corner), so its contents are
// reproducible regardless of insertion order.
//
// The zero value is an empty set ready to use. A BoxSet is not safe for
// concurrent mutation.
type BoxSet struct {
	tree *btree.BTreeG[Box]
}

// NewBoxSet returns an empty set.
func NewBoxSet() *BoxSet {
	return &BoxSet{tree: btree.NewG[Box](setDegree, Less)}
}

// Insert adds b. It reports whether b was not already present.
func (s *BoxSet) Insert(b Box) bool {
	if s.tree == nil {
		s.tree = btree.NewG[Box](setDegree, Less)
	}

	_, replaced := s.tree.ReplaceOrInsert(b)

	return !replaced
}

// Has reports whether b is in the set.
func (s *BoxSet) Has(b Box) bool {
	if s.tree == nil {
		return false
	}

	return s.tree.Has(b)
}

// Len returns the number of boxes in the set.
func (s *BoxSet) Len() int {
	if s.tree == nil {
		return 0
	}

	return s.tree.Len()
}

// Ascend calls fn for every box in order until fn returns false.
func (s *BoxSet) Ascend(fn func(Box) bool) {
	if s.tree == nil {
		return
	}

	s.tree.Ascend(fn)
}

// Slice returns the boxes in order.
func (s *BoxSet) Slice() []Box {
	out := make([]Box, 0, s.Len())

	s.Ascend(func(b Box) bool {
		out = append(out, b)

		return true
	})

	return out
}

// Clear removes every box.
func (s *BoxSet) Clear() {
	if s.tree == nil {
		return
	}

	s.tree.Clear(false)
}
