package notestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RealSpaceofAce/framelord-sub002/internal/migrate"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/storage"
)

// Load reads the persisted collection, migrates legacy notes in one pass,
// rebuilds every index from the stored edges and content and purges
// expired trash. The document
// is written back once if any of those steps changed it. A missing
// document is an empty collection.
func (r *Repository) Load() error {
	data, err := r.store.Get(r.key)
	if errors.Is(err, storage.ErrNotExist) {
		r.logger.Info("notestore: no document yet", slog.String("key", r.key))
		return nil
	}
	if err != nil {
		return err
	}
	return r.replaceFrom(data, false)
}

// Reload re-reads the document after an external change. It reports false
// when the stored document is the one this repository last wrote.
func (r *Repository) Reload() (bool, error) {
	data, err := r.store.Get(r.key)
	if errors.Is(err, storage.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !r.written.Changed(data) {
		return false, nil
	}
	if err := r.replaceFrom(data, true); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) replaceFrom(data []byte, announce bool) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("notestore: decode %s: %w", r.key, err)
	}

	return r.mutate(func(tx *txn) error {
		r.notes = make(map[string]*models.Note, len(doc.Notes))
		r.order = make([]string, 0, len(doc.Notes))

		migrated := 0
		derive := make(map[string]bool)
		for _, n := range doc.Notes {
			m, changed := migrate.Migrate(n)
			if m.ID == "" {
				m.ID = r.newID()
				changed = true
			}
			if _, dup := r.notes[m.ID]; dup {
				r.logger.Warn("notestore: duplicate note id dropped", slog.String("id", m.ID))
				tx.touch()
				continue
			}
			if changed {
				migrated++
			}
			// Documents written before mentions were stored carry no edges.
			if n.Mentions == nil {
				derive[m.ID] = true
			}
			r.notes[m.ID] = &m
			r.order = append(r.order, m.ID)
		}
		r.resetTopicsLocked(doc.Topics)
		r.rebuildLocked(derive)
		purged := r.purgeLocked(tx, r.expiredAfter(r.retention))

		if migrated > 0 {
			r.logger.Info("notestore: migrated legacy notes", slog.Int("count", migrated))
			tx.touch()
		}
		if announce {
			tx.notify(models.NoteEvent{Kind: models.EventReloaded})
		}
		if !tx.dirty {
			r.written.Record(data)
		}
		live, trashed := r.countLocked()
		r.logger.Info("notestore: loaded",
			slog.String("key", r.key),
			slog.Int("live", live),
			slog.Int("trashed", trashed),
			slog.Int("purged", purged))
		return nil
	})
}

func (r *Repository) countLocked() (live, trashed int) {
	for _, n := range r.notes {
		if n.IsTrashed() {
			trashed++
		} else {
			live++
		}
	}
	return live, trashed
}
