package notestore

import (
	"slices"
	"strings"

	"github.com/RealSpaceofAce/framelord-sub002/internal/graph"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

// snippetRadius is the number of runes shown on each side of a reference.
const snippetRadius = 40

// previewLength bounds the fallback preview when no reference token is found.
const previewLength = 80

// relinkLocked re-derives n's outgoing edges and topic membership from its
// content. Labels that resolve to no note are materialized as empty notes
// when materialize is set and skipped otherwise.
func (r *Repository) relinkLocked(tx *txn, n *models.Note, materialize bool) {
	labels := parser.ExtractReferenceLabels(n.Content)
	contact := n.ContextContactID()

	targets := make([]string, 0, len(labels))
	for _, label := range labels {
		id, ok := r.titles.Lookup(label)
		if !ok {
			if !materialize {
				continue
			}
			id = r.materializeLocked(tx, label, contact).ID
		}
		targets = append(targets, id)
	}

	n.Mentions = orEmpty(r.links.ReplaceOutgoing(n.ID, targets))
	n.Topics = r.topics.Replace(n.ID, parser.ExtractHashtagLabels(n.Content))
}

// materializeLocked creates the empty note a dangling reference points at.
func (r *Repository) materializeLocked(tx *txn, title, contactID string) *models.Note {
	now := r.now().UTC()
	contacts := []string{}
	if contactID != "" {
		contacts = append(contacts, contactID)
	}
	n := &models.Note{
		ID:               r.newID(),
		AuthorID:         models.OwnerID,
		Title:            title,
		Kind:             models.KindNote,
		TargetContactIDs: contacts,
		Tags:             []string{},
		Topics:           []string{},
		Mentions:         []string{},
		SyncVersion:      1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.insertLocked(n)
	tx.emit(models.NoteEvent{
		Kind:         models.EventCreated,
		NoteID:       n.ID,
		Title:        n.Title,
		ContactIDs:   slices.Clone(contacts),
		Materialized: true,
	})
	return n
}

// rebuildLocked recomputes every index. A note keeps the outgoing edges
// recorded in its Mentions unless its id is in derive, in which case its
// references are resolved from content against live titles first and
// trashed titles second. A rebuild never materializes notes.
func (r *Repository) rebuildLocked(derive map[string]bool) {
	r.titles = graph.NewTitleIndex()
	r.links = graph.NewLinkGraph()
	r.topics.Reset()

	for _, id := range r.order {
		n := r.notes[id]
		r.titles.Put(n.ID, n.DisplayTitle(), n.CreatedAt, n.UpdatedAt, !n.IsTrashed())
	}
	for _, id := range r.order {
		n := r.notes[id]
		var targets []string
		if derive[id] {
			for _, label := range parser.ExtractReferenceLabels(n.Content) {
				if tid, ok := r.titles.LookupAny(label); ok {
					targets = append(targets, tid)
				}
			}
		} else {
			for _, tid := range n.Mentions {
				if _, ok := r.notes[tid]; ok {
					targets = append(targets, tid)
				}
			}
		}
		n.Mentions = orEmpty(r.links.ReplaceOutgoing(n.ID, targets))
		n.Topics = r.topics.Replace(n.ID, parser.ExtractHashtagLabels(n.Content))
	}
}

// ForwardLinks returns the live notes id links to, in reference order.
func (r *Repository) ForwardLinks(id string) []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveNotesLocked(r.links.Forward(id))
}

// Backlinks returns the live notes that link to id.
func (r *Repository) Backlinks(id string) []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveNotesLocked(r.links.Backward(id))
}

// BacklinksWithContext returns each live backlinking note with the text
// around its first reference to id.
func (r *Repository) BacklinksWithContext(id string) []models.BacklinkContext {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.BacklinkContext{}
	target, ok := r.notes[id]
	if !ok {
		return out
	}
	title := target.DisplayTitle()
	for _, src := range r.links.Backward(id) {
		n, ok := r.live(src)
		if !ok {
			continue
		}
		snippet := parser.Preview(n.Content, previewLength)
		if start, end, found := parser.FindReference(n.Content, title); found {
			snippet = parser.Snippet(n.Content, start, end, snippetRadius)
		}
		out = append(out, models.BacklinkContext{
			NoteID:  n.ID,
			Title:   n.DisplayTitle(),
			Snippet: snippet,
		})
	}
	return out
}

// Graph returns the live notes and the edges between them.
func (r *Repository) Graph() models.GraphView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view := models.GraphView{Nodes: []models.GraphNode{}, Edges: []models.NoteLink{}}
	for _, n := range r.sortedLocked(false) {
		view.Nodes = append(view.Nodes, models.GraphNode{ID: n.ID, Title: n.DisplayTitle()})
	}
	for _, e := range r.links.Edges() {
		_, srcLive := r.live(e.SourceID)
		_, dstLive := r.live(e.TargetID)
		if srcLive && dstLive {
			view.Edges = append(view.Edges, e)
		}
	}
	slices.SortFunc(view.Edges, func(a, b models.NoteLink) int {
		if c := strings.Compare(a.SourceID, b.SourceID); c != 0 {
			return c
		}
		return strings.Compare(a.TargetID, b.TargetID)
	})
	return view
}

// Topics returns every topic ordered by slug. Trashed notes are left out
// of each topic's note ids.
func (r *Repository) Topics() []models.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.topics.All()
	for i := range all {
		all[i].NoteIDs = r.liveIDsLocked(all[i].NoteIDs)
	}
	return all
}

// Topic returns the topic with the given slug or label.
func (r *Repository) Topic(slug string) (models.Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.topics.Get(slug)
	if !ok {
		return models.Topic{}, false
	}
	t.NoteIDs = r.liveIDsLocked(t.NoteIDs)
	return t, true
}

// AttachTopicContacts associates contacts with a topic, creating the topic
// if it does not exist yet.
func (r *Repository) AttachTopicContacts(label string, contactIDs []string) error {
	if parser.Normalize(label) == "" {
		return invalidf("topic label is required")
	}
	return r.mutate(func(tx *txn) error {
		r.topics.AttachContacts(label, contactIDs)
		tx.touch()
		return nil
	})
}

func (r *Repository) liveNotesLocked(ids []string) []models.Note {
	out := make([]models.Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := r.live(id); ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (r *Repository) liveIDsLocked(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.live(id); ok {
			out = append(out, id)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
