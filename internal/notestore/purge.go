package notestore

import (
	"log/slog"
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/trash"
)

// EmptyTrash permanently removes every trashed note and returns the count.
func (r *Repository) EmptyTrash() (int, error) {
	return r.purge(func(*models.Note, time.Time) bool { return true })
}

// PurgeOlderThan permanently removes notes that have been in the trash for
// at least days days and returns the count.
func (r *Repository) PurgeOlderThan(days int) (int, error) {
	if days < 0 {
		return 0, invalidf("days must not be negative, got %d", days)
	}
	return r.purgeAfter(trash.Days(days))
}

// AutoPurge purges with the configured retention.
func (r *Repository) AutoPurge() (int, error) {
	return r.purgeAfter(r.retention)
}

func (r *Repository) purgeAfter(retention time.Duration) (int, error) {
	return r.purge(r.expiredAfter(retention))
}

func (r *Repository) expiredAfter(retention time.Duration) func(*models.Note, time.Time) bool {
	return func(n *models.Note, now time.Time) bool {
		return trash.Expired(n, now, retention)
	}
}

func (r *Repository) purge(expired func(*models.Note, time.Time) bool) (int, error) {
	count := 0
	err := r.mutate(func(tx *txn) error {
		count = r.purgeLocked(tx, expired)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) purgeLocked(tx *txn, expired func(*models.Note, time.Time) bool) int {
	now := r.now()
	var doomed []*models.Note
	for _, id := range r.order {
		if n := r.notes[id]; n.IsTrashed() && expired(n, now) {
			doomed = append(doomed, n)
		}
	}
	for _, n := range doomed {
		r.removeLocked(n.ID)
		tx.emit(models.NoteEvent{Kind: models.EventPurged, NoteID: n.ID, Title: n.DisplayTitle()})
	}
	if len(doomed) > 0 {
		r.logger.Info("notestore: purged trash", slog.Int("count", len(doomed)))
	}
	return len(doomed)
}
