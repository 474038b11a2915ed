package notestore

import (
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/RealSpaceofAce/framelord-sub002/internal/apperr"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
	"github.com/RealSpaceofAce/framelord-sub002/internal/trash"
)

// Create stores a new note. The title is derived from the first content
// line when absent; links and topics are derived when content is non-empty.
func (r *Repository) Create(p models.CreateParams) (models.Note, error) {
	now := r.now().UTC()
	n := &models.Note{
		AuthorID:         models.OwnerID,
		Title:            strings.TrimSpace(p.Title),
		Content:          p.Content,
		Kind:             p.Kind,
		DateKey:          strings.TrimSpace(p.DateKey),
		TargetContactIDs: cleanSet(p.TargetContactIDs),
		Tags:             cleanSet(p.Tags),
		Topics:           []string{},
		Mentions:         []string{},
		FolderID:         p.FolderID,
		IsInbox:          p.IsInbox,
		IsPinned:         p.IsPinned,
		SyncVersion:      1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if n.Kind == "" {
		n.Kind = models.KindNote
		if n.DateKey != "" {
			n.Kind = models.KindLog
		}
	}
	if n.Title == "" {
		n.Title = models.DeriveTitle(n.Content)
	}
	normalizeKind(n)
	if err := validateNote(n); err != nil {
		return models.Note{}, err
	}

	var out models.Note
	err := r.mutate(func(tx *txn) error {
		n.ID = r.newID()
		r.insertLocked(n)
		if n.Content != "" {
			r.relinkLocked(tx, n, true)
		}
		out = n.Clone()
		tx.emit(models.NoteEvent{
			Kind:           models.EventCreated,
			NoteID:         n.ID,
			Title:          n.DisplayTitle(),
			Content:        n.Content,
			ContactIDs:     slices.Clone(n.TargetContactIDs),
			ContentChanged: n.Content != "",
		})
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return out, nil
}

// Update applies patch to the note with the given id. The whole patch is
// validated before anything changes. Links and topics are re-derived only
// when content or target contacts change.
func (r *Repository) Update(id string, patch models.NotePatch) (models.Note, error) {
	var out models.Note
	err := r.mutate(func(tx *txn) error {
		cur, ok := r.notes[id]
		if !ok {
			return apperr.ErrNotFound
		}
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != cur.SyncVersion {
			return fmt.Errorf("%w: note %s is at version %d", apperr.ErrConflict, id, cur.SyncVersion)
		}

		next := cur.Clone()
		applyPatch(&next, patch)
		normalizeKind(&next)
		if err := validateNote(&next); err != nil {
			return err
		}

		contentChanged := next.Content != cur.Content
		contactsChanged := !slices.Equal(next.TargetContactIDs, cur.TargetContactIDs)

		next.SyncVersion++
		next.UpdatedAt = r.now().UTC()
		*cur = next
		r.titles.Put(cur.ID, cur.DisplayTitle(), cur.CreatedAt, cur.UpdatedAt, !cur.IsTrashed())
		if contentChanged || contactsChanged {
			r.relinkLocked(tx, cur, !cur.IsTrashed())
		}

		out = cur.Clone()
		tx.emit(models.NoteEvent{
			Kind:           models.EventUpdated,
			NoteID:         cur.ID,
			Title:          cur.DisplayTitle(),
			Content:        cur.Content,
			ContactIDs:     slices.Clone(cur.TargetContactIDs),
			ContentChanged: contentChanged,
		})
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return out, nil
}

// Delete moves the note to the trash. Deleting a trashed note is a no-op.
func (r *Repository) Delete(id string) error {
	return r.mutate(func(tx *txn) error {
		n, ok := r.notes[id]
		if !ok {
			return apperr.ErrNotFound
		}
		if !trash.SoftDelete(n, r.now()) {
			return nil
		}
		r.titles.Put(n.ID, n.DisplayTitle(), n.CreatedAt, n.UpdatedAt, false)
		tx.emit(models.NoteEvent{Kind: models.EventDeleted, NoteID: n.ID, Title: n.DisplayTitle()})
		return nil
	})
}

// Restore takes the note out of the trash and re-derives its links.
func (r *Repository) Restore(id string) error {
	return r.mutate(func(tx *txn) error {
		n, ok := r.notes[id]
		if !ok {
			return apperr.ErrNotFound
		}
		if !trash.Restore(n, r.now()) {
			return nil
		}
		r.titles.Put(n.ID, n.DisplayTitle(), n.CreatedAt, n.UpdatedAt, true)
		r.relinkLocked(tx, n, true)
		tx.emit(models.NoteEvent{
			Kind:       models.EventRestored,
			NoteID:     n.ID,
			Title:      n.DisplayTitle(),
			ContactIDs: slices.Clone(n.TargetContactIDs),
		})
		return nil
	})
}

// PermanentlyDelete removes the note, every edge it takes part in and its
// topic memberships.
func (r *Repository) PermanentlyDelete(id string) error {
	return r.mutate(func(tx *txn) error {
		n, ok := r.notes[id]
		if !ok {
			return apperr.ErrNotFound
		}
		title := n.DisplayTitle()
		r.removeLocked(id)
		tx.emit(models.NoteEvent{Kind: models.EventPurged, NoteID: id, Title: title})
		return nil
	})
}

// Get returns the note with the given id, trashed or not.
func (r *Repository) Get(id string) (models.Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return models.Note{}, false
	}
	return n.Clone(), true
}

// FindByTitle resolves title the way references are resolved: normalized,
// live notes only, most recently updated first.
func (r *Repository) FindByTitle(title string) (models.Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.titles.Lookup(title)
	if !ok {
		return models.Note{}, false
	}
	return r.notes[id].Clone(), true
}

// All returns the live notes, most recently updated first.
func (r *Repository) All() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.sortedLocked(false))
}

// AllTrashed returns the trashed notes, most recently deleted first.
func (r *Repository) AllTrashed() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.sortedLocked(true))
}

// Search returns the live notes whose title or content contains query,
// compared case-insensitively.
func (r *Repository) Search(query string) []models.Note {
	q := parser.Normalize(query)
	out := []models.Note{}
	if q == "" {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.sortedLocked(false) {
		if strings.Contains(parser.Normalize(n.DisplayTitle()), q) ||
			strings.Contains(parser.Normalize(n.Content), q) {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (r *Repository) sortedLocked(trashed bool) []*models.Note {
	out := make([]*models.Note, 0, len(r.notes))
	for _, id := range r.order {
		if n := r.notes[id]; n.IsTrashed() == trashed {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Note) int {
		if trashed {
			if c := b.DeletedAt.Compare(*a.DeletedAt); c != 0 {
				return c
			}
		}
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func applyPatch(n *models.Note, p models.NotePatch) {
	if p.Title != nil {
		n.Title = strings.TrimSpace(*p.Title)
		if n.Title == "" {
			content := n.Content
			if p.Content != nil {
				content = *p.Content
			}
			n.Title = models.DeriveTitle(content)
		}
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.DateKey != nil {
		n.DateKey = strings.TrimSpace(*p.DateKey)
	}
	if p.FolderID != nil {
		n.FolderID = *p.FolderID
	}
	if p.TargetContactIDs != nil {
		n.TargetContactIDs = cleanSet(*p.TargetContactIDs)
	}
	if p.Tags != nil {
		n.Tags = cleanSet(*p.Tags)
	}
	if p.IsInbox != nil {
		n.IsInbox = *p.IsInbox
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	if p.IsArchived != nil {
		n.IsArchived = *p.IsArchived
	}
}

// normalizeKind drops a date key from notes that are not logs.
func normalizeKind(n *models.Note) {
	if n.Kind != models.KindLog {
		n.DateKey = ""
	}
}

func validateNote(n *models.Note) error {
	err := validation.ValidateStruct(n,
		validation.Field(&n.Kind, validation.Required,
			validation.In(models.KindLog, models.KindNote, models.KindSystem)),
		validation.Field(&n.DateKey,
			validation.When(n.Kind == models.KindLog, validation.Required),
			validation.Date("2006-01-02")),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// cleanSet trims ids, drops empties and repeats, and never returns nil.
func cleanSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func cloneAll(ns []*models.Note) []models.Note {
	out := make([]models.Note, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Clone())
	}
	return out
}
