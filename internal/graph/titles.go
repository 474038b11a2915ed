package graph

import (
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

type titleEntry struct {
	key       string
	createdAt time.Time
	updatedAt time.Time
	live      bool
}

// TitleIndex maps normalized titles to note ids. Several notes may share a
// normalized title; Lookup prefers the most recently updated live note and
// breaks ties by creation time.
type TitleIndex struct {
	byKey map[string]*orderedSet
	byID  map[string]titleEntry
}

// NewTitleIndex returns an empty index.
func NewTitleIndex() *TitleIndex {
	return &TitleIndex{
		byKey: make(map[string]*orderedSet),
		byID:  make(map[string]titleEntry),
	}
}

// Put indexes or re-indexes id under title. Blank titles are not indexed.
func (ti *TitleIndex) Put(id, title string, createdAt, updatedAt time.Time, live bool) {
	ti.Remove(id)
	key := parser.Normalize(title)
	if key == "" {
		return
	}
	set, ok := ti.byKey[key]
	if !ok {
		set = newOrderedSet()
		ti.byKey[key] = set
	}
	set.add(id)
	ti.byID[id] = titleEntry{key: key, createdAt: createdAt, updatedAt: updatedAt, live: live}
}

// Remove drops id from the index.
func (ti *TitleIndex) Remove(id string) {
	e, ok := ti.byID[id]
	if !ok {
		return
	}
	delete(ti.byID, id)
	if set := ti.byKey[e.key]; set != nil {
		set.remove(id)
		if set.len() == 0 {
			delete(ti.byKey, e.key)
		}
	}
}

// Lookup resolves title to the preferred live note id.
func (ti *TitleIndex) Lookup(title string) (string, bool) {
	return ti.pick(title, false)
}

// LookupAny resolves title like Lookup and falls back to the preferred
// trashed note when no live note carries the title.
func (ti *TitleIndex) LookupAny(title string) (string, bool) {
	if id, ok := ti.pick(title, false); ok {
		return id, true
	}
	return ti.pick(title, true)
}

func (ti *TitleIndex) pick(title string, trashed bool) (string, bool) {
	set := ti.byKey[parser.Normalize(title)]
	if set == nil {
		return "", false
	}
	var (
		best   string
		bestE  titleEntry
		picked bool
	)
	for _, id := range set.items {
		e := ti.byID[id]
		if e.live == trashed {
			continue
		}
		if !picked || preferred(e, bestE) {
			best, bestE, picked = id, e, true
		}
	}
	return best, picked
}

// Candidates returns every id (live or not) indexed under title, in
// insertion order.
func (ti *TitleIndex) Candidates(title string) []string {
	set := ti.byKey[parser.Normalize(title)]
	if set == nil {
		return nil
	}
	return set.list()
}

// Len returns the number of indexed notes.
func (ti *TitleIndex) Len() int { return len(ti.byID) }

func preferred(a, b titleEntry) bool {
	if !a.updatedAt.Equal(b.updatedAt) {
		return a.updatedAt.After(b.updatedAt)
	}
	return a.createdAt.Before(b.createdAt)
}
