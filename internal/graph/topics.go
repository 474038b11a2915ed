package graph

import (
	"sort"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

type topic struct {
	label    string
	notes    *orderedSet
	contacts *orderedSet
}

// TopicIndex is the many-to-many relation between notes and hashtag topics.
// Topics are keyed by slug (the normalized label) and outlive their last note
// so that contacts attached to them are kept.
type TopicIndex struct {
	topics map[string]*topic
	byNote map[string][]string
}

// NewTopicIndex returns an empty index.
func NewTopicIndex() *TopicIndex {
	return &TopicIndex{
		topics: make(map[string]*topic),
		byNote: make(map[string][]string),
	}
}

// Replace sets noteID's full topic membership to the topics named by labels
// and returns their slugs in label order.
func (ti *TopicIndex) Replace(noteID string, labels []string) []string {
	ti.RemoveNote(noteID)

	slugs := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		slug := parser.Normalize(label)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		ti.ensure(slug, label).notes.add(noteID)
		slugs = append(slugs, slug)
	}
	if len(slugs) > 0 {
		ti.byNote[noteID] = slugs
	}
	return slugs
}

// RemoveNote drops noteID from every topic it belongs to.
func (ti *TopicIndex) RemoveNote(noteID string) {
	for _, slug := range ti.byNote[noteID] {
		if t := ti.topics[slug]; t != nil {
			t.notes.remove(noteID)
		}
	}
	delete(ti.byNote, noteID)
}

// AttachContacts adds contact ids to a topic, creating it if needed.
func (ti *TopicIndex) AttachContacts(label string, contactIDs []string) {
	slug := parser.Normalize(label)
	if slug == "" {
		return
	}
	t := ti.ensure(slug, label)
	for _, id := range contactIDs {
		if id != "" {
			t.contacts.add(id)
		}
	}
}

// Get returns the topic with the given label or slug.
func (ti *TopicIndex) Get(label string) (models.Topic, bool) {
	slug := parser.Normalize(label)
	t, ok := ti.topics[slug]
	if !ok {
		return models.Topic{}, false
	}
	return t.export(slug), true
}

// NoteTopics returns the slugs noteID belongs to.
func (ti *TopicIndex) NoteTopics(noteID string) []string {
	return append([]string(nil), ti.byNote[noteID]...)
}

// All returns every topic ordered by slug.
func (ti *TopicIndex) All() []models.Topic {
	out := make([]models.Topic, 0, len(ti.topics))
	for slug, t := range ti.topics {
		out = append(out, t.export(slug))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Reset clears note memberships but keeps topics and their contacts.
func (ti *TopicIndex) Reset() {
	for _, t := range ti.topics {
		t.notes = newOrderedSet()
	}
	ti.byNote = make(map[string][]string)
}

func (ti *TopicIndex) ensure(slug, label string) *topic {
	t, ok := ti.topics[slug]
	if !ok {
		t = &topic{label: label, notes: newOrderedSet(), contacts: newOrderedSet()}
		ti.topics[slug] = t
	}
	return t
}

func (t *topic) export(slug string) models.Topic {
	return models.Topic{
		Slug:       slug,
		Label:      t.label,
		NoteIDs:    t.notes.list(),
		ContactIDs: t.contacts.list(),
	}
}
