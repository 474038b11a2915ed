// Package graph holds the denormalized indices derived from note content:
// the title index, the directed link graph and the topic index. None of
// them is safe for concurrent use; the note repository serializes access.
package graph

import "slices"

// orderedSet keeps ids in insertion order with O(1) membership.
type orderedSet struct {
	items []string
	pos   map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{pos: make(map[string]struct{})}
}

func (s *orderedSet) add(id string) bool {
	if _, ok := s.pos[id]; ok {
		return false
	}
	s.pos[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

func (s *orderedSet) remove(id string) bool {
	if _, ok := s.pos[id]; !ok {
		return false
	}
	delete(s.pos, id)
	if i := slices.Index(s.items, id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	return true
}

func (s *orderedSet) has(id string) bool {
	_, ok := s.pos[id]
	return ok
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) list() []string { return append([]string{}, s.items...) }
