// Package notestore owns the canonical note collection. It keeps the title,
// link and topic indices consistent with note content and persists the
// collection as a single JSON document.
package notestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RealSpaceofAce/framelord-sub002/internal/checksum"
	"github.com/RealSpaceofAce/framelord-sub002/internal/graph"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/storage"
	"github.com/RealSpaceofAce/framelord-sub002/internal/trash"
)

// DefaultKey is the storage key of the notes document.
const DefaultKey = "notes"

// documentVersion is written into every persisted document.
const documentVersion = 1

// Listener receives events after a change has been committed.
type Listener interface {
	OnNoteEvent(ev models.NoteEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev models.NoteEvent)

// OnNoteEvent calls f(ev).
func (f ListenerFunc) OnNoteEvent(ev models.NoteEvent) { f(ev) }

// Options configure a Repository.
type Options struct {
	Key       string
	Retention time.Duration
	Now       func() time.Time
	NewID     func() string
	Logger    *slog.Logger
}

// Repository is the note store. All mutations are serialized by one write
// lock so relinking always observes a consistent title index; reads run
// concurrently and return copies.
type Repository struct {
	mu sync.RWMutex

	store     storage.Provider
	key       string
	retention time.Duration
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
	written   checksum.Tracker

	notes  map[string]*models.Note
	order  []string
	titles *graph.TitleIndex
	links  *graph.LinkGraph
	topics *graph.TopicIndex

	lmu       sync.RWMutex
	listeners []Listener
}

// New creates an empty repository backed by store. Call Load to read the
// persisted collection.
func New(store storage.Provider, opts Options) *Repository {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Retention <= 0 {
		opts.Retention = trash.DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Repository{
		store:     store,
		key:       opts.Key,
		retention: opts.Retention,
		now:       opts.Now,
		newID:     opts.NewID,
		logger:    opts.Logger,
		notes:     make(map[string]*models.Note),
		titles:    graph.NewTitleIndex(),
		links:     graph.NewLinkGraph(),
		topics:    graph.NewTopicIndex(),
	}
}

// Subscribe registers l for every subsequent committed change.
func (r *Repository) Subscribe(l Listener) {
	r.lmu.Lock()
	r.listeners = append(r.listeners, l)
	r.lmu.Unlock()
}

// Retention returns the trash retention used by AutoPurge.
func (r *Repository) Retention() time.Duration { return r.retention }

// Count returns the number of live and trashed notes.
func (r *Repository) Count() (live, trashed int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked()
}

// --- transactions ---

// txn collects the effects of one mutation.
type txn struct {
	events []models.NoteEvent
	dirty  bool
}

func (tx *txn) emit(ev models.NoteEvent) {
	tx.events = append(tx.events, ev)
	tx.dirty = true
}

func (tx *txn) touch() { tx.dirty = true }

// notify queues an event that does not by itself need persisting.
func (tx *txn) notify(ev models.NoteEvent) {
	tx.events = append(tx.events, ev)
}

// mutate runs fn under the write lock and persists the result. fn must not
// change state before returning an error. If persisting fails the in-memory
// state is rolled back to what it was before fn ran.
func (r *Repository) mutate(fn func(tx *txn) error) error {
	events, err := r.commit(fn)
	if err != nil {
		return err
	}
	r.publish(events)
	return nil
}

// commit holds the write lock for one mutation and returns the events to
// publish once it is released.
func (r *Repository) commit(fn func(tx *txn) error) ([]models.NoteEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshotLocked()
	tx := &txn{}
	if err := fn(tx); err != nil {
		return nil, err
	}
	if tx.dirty {
		if err := r.persistLocked(); err != nil {
			r.restoreLocked(snap)
			r.logger.Error("notestore: persist failed, changes rolled back", slog.String("error", err.Error()))
			return nil, err
		}
	}
	return tx.events, nil
}

func (r *Repository) publish(events []models.NoteEvent) {
	if len(events) == 0 {
		return
	}
	r.lmu.RLock()
	ls := slices.Clone(r.listeners)
	r.lmu.RUnlock()
	for _, ev := range events {
		for _, l := range ls {
			l.OnNoteEvent(ev)
		}
	}
}

// --- persistence ---

// topicRecord keeps topics that outlive their notes, with their contacts.
type topicRecord struct {
	Slug       string   `json:"slug"`
	Label      string   `json:"label"`
	ContactIDs []string `json:"contactIds"`
}

type document struct {
	Version int           `json:"version"`
	Notes   []models.Note `json:"notes"`
	Topics  []topicRecord `json:"topics,omitempty"`
}

func (r *Repository) encodeLocked() ([]byte, error) {
	doc := document{
		Version: documentVersion,
		Notes:   make([]models.Note, 0, len(r.order)),
		Topics:  r.topicRecordsLocked(),
	}
	for _, id := range r.order {
		doc.Notes = append(doc.Notes, *r.notes[id])
	}
	return json.Marshal(doc)
}

func (r *Repository) persistLocked() error {
	data, err := r.encodeLocked()
	if err != nil {
		return fmt.Errorf("notestore: encode: %w", err)
	}
	// Recorded before the write so the watcher never sees an unrecorded self-write.
	r.written.Record(data)
	if err := r.store.Put(r.key, data); err != nil {
		return fmt.Errorf("notestore: write %s: %w", r.key, err)
	}
	return nil
}

func (r *Repository) topicRecordsLocked() []topicRecord {
	all := r.topics.All()
	out := make([]topicRecord, 0, len(all))
	for _, t := range all {
		out = append(out, topicRecord{Slug: t.Slug, Label: t.Label, ContactIDs: t.ContactIDs})
	}
	return out
}

// --- snapshots ---

type snapshot struct {
	notes  map[string]models.Note
	order  []string
	topics []topicRecord
}

func (r *Repository) snapshotLocked() snapshot {
	s := snapshot{
		notes:  make(map[string]models.Note, len(r.notes)),
		order:  slices.Clone(r.order),
		topics: r.topicRecordsLocked(),
	}
	for id, n := range r.notes {
		s.notes[id] = n.Clone()
	}
	return s
}

func (r *Repository) restoreLocked(s snapshot) {
	r.notes = make(map[string]*models.Note, len(s.notes))
	for id, n := range s.notes {
		n := n
		r.notes[id] = &n
	}
	r.order = s.order
	r.resetTopicsLocked(s.topics)
	r.rebuildLocked(nil)
}

func (r *Repository) resetTopicsLocked(records []topicRecord) {
	r.topics = graph.NewTopicIndex()
	for _, t := range records {
		label := t.Label
		if label == "" {
			label = t.Slug
		}
		r.topics.AttachContacts(label, t.ContactIDs)
	}
}

// --- collection helpers ---

func (r *Repository) insertLocked(n *models.Note) {
	r.notes[n.ID] = n
	r.order = append(r.order, n.ID)
	r.titles.Put(n.ID, n.DisplayTitle(), n.CreatedAt, n.UpdatedAt, !n.IsTrashed())
}

func (r *Repository) removeLocked(id string) {
	sources := r.links.RemoveAll(id)
	r.titles.Remove(id)
	r.topics.RemoveNote(id)
	delete(r.notes, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	for _, src := range sources {
		if n := r.notes[src]; n != nil {
			n.Mentions = orEmpty(r.links.Forward(src))
		}
	}
}

func (r *Repository) live(id string) (*models.Note, bool) {
	n, ok := r.notes[id]
	if !ok || n.IsTrashed() {
		return nil, false
	}
	return n, true
}
