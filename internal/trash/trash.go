// Package trash implements the soft-delete lifecycle of notes:
// Active → Trashed → Active (restore) or Trashed → Gone (purge).
package trash

import (
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

// DefaultRetention is how long a note stays in the trash before it is
// purged automatically.
const DefaultRetention = 30 * 24 * time.Hour

// Days converts a retention expressed in days to a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// SoftDelete moves n to the trash. It reports false if n was already trashed.
func SoftDelete(n *models.Note, now time.Time) bool {
	if n.IsTrashed() {
		return false
	}
	at := now.UTC()
	n.DeletedAt = &at
	touch(n, now)
	return true
}

// Restore takes n out of the trash. It reports false if n was not trashed.
func Restore(n *models.Note, now time.Time) bool {
	if !n.IsTrashed() {
		return false
	}
	n.DeletedAt = nil
	touch(n, now)
	return true
}

// Expired reports whether n has been in the trash for at least retention.
func Expired(n *models.Note, now time.Time, retention time.Duration) bool {
	if !n.IsTrashed() {
		return false
	}
	return now.Sub(*n.DeletedAt) >= retention
}

func touch(n *models.Note, now time.Time) {
	n.SyncVersion++
	n.UpdatedAt = now.UTC()
}
