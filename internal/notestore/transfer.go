package notestore

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/RealSpaceofAce/framelord-sub002/internal/apperr"
	"github.com/RealSpaceofAce/framelord-sub002/internal/migrate"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

// Export returns every note, trashed ones included, in stored order.
func (r *Repository) Export() models.ExportEnvelope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	notes := make([]models.Note, 0, len(r.order))
	for _, id := range r.order {
		notes = append(notes, r.notes[id].Clone())
	}
	return models.ExportEnvelope{
		Version:    models.ExportFormatVersion,
		ExportedAt: r.now().UTC(),
		NoteCount:  len(notes),
		Notes:      notes,
	}
}

// ExportJSON returns Export as indented JSON.
func (r *Repository) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(r.Export(), "", "  ")
}

// importEnvelope distinguishes a missing notes array from an empty one.
type importEnvelope struct {
	Version int            `json:"version"`
	Notes   *[]models.Note `json:"notes"`
}

// Import merges an export document into the store. Notes whose id already
// exists are replaced when opts.Overwrite is set and skipped otherwise;
// opts.FreshIDs gives every imported note a new id. Imported notes are
// migrated and validated; invalid ones are skipped. Their references are
// resolved from content without materializing targets, while notes already
// in the store keep their edges. A payload that is not JSON or has no notes
// array fails with apperr.ErrInvalidImport.
func (r *Repository) Import(data []byte, opts models.ImportOptions) (models.ImportResult, error) {
	var env importEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.ImportResult{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
	}
	if env.Notes == nil {
		return models.ImportResult{}, fmt.Errorf("%w: missing notes array", apperr.ErrInvalidImport)
	}

	var res models.ImportResult
	err := r.mutate(func(tx *txn) error {
		imported := make(map[string]bool)
		for _, n := range *env.Notes {
			m, _ := migrate.Migrate(n)
			normalizeKind(&m)
			if err := validateNote(&m); err != nil {
				r.logger.Warn("notestore: invalid note skipped on import",
					slog.String("id", m.ID),
					slog.String("error", err.Error()))
				res.Skipped++
				continue
			}
			if opts.FreshIDs || m.ID == "" {
				m.ID = r.newID()
			}
			if cur, exists := r.notes[m.ID]; exists {
				if !opts.Overwrite {
					res.Skipped++
					continue
				}
				*cur = m
				res.Overwritten++
			} else {
				r.notes[m.ID] = &m
				r.order = append(r.order, m.ID)
			}
			imported[m.ID] = true
			res.Imported++
		}
		if res.Imported == 0 {
			return nil
		}
		r.rebuildLocked(imported)
		tx.emit(models.NoteEvent{Kind: models.EventReloaded})
		return nil
	})
	if err != nil {
		return models.ImportResult{}, err
	}
	r.logger.Info("notestore: import finished",
		slog.Int("imported", res.Imported),
		slog.Int("overwritten", res.Overwritten),
		slog.Int("skipped", res.Skipped))
	return res, nil
}
