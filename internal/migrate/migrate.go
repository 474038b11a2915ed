// Package migrate upgrades notes written under the legacy single-contact
// schema to the unified note shape.
package migrate

import (
	"slices"
	"strings"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

// IsLegacyShape reports whether n carries the old single ContactID without
// a populated TargetContactIDs set.
func IsLegacyShape(n *models.Note) bool {
	return strings.TrimSpace(n.ContactID) != "" && len(n.TargetContactIDs) == 0
}

// NeedsMigration reports whether Migrate would change n.
func NeedsMigration(n *models.Note) bool {
	_, changed := Migrate(*n)
	return changed
}

// Migrate returns n in the unified shape. Every legacy contact reference is
// folded into TargetContactIDs and absent fields get their defaults. It is
// idempotent: a note already in the current shape comes back unchanged with
// changed=false.
func Migrate(n models.Note) (models.Note, bool) {
	out := n.Clone()
	changed := false

	if out.ContactID != "" {
		if c := strings.TrimSpace(out.ContactID); c != "" && !slices.Contains(out.TargetContactIDs, c) {
			out.TargetContactIDs = append([]string{c}, out.TargetContactIDs...)
		}
		out.ContactID = ""
		changed = true
	}

	if out.AuthorID == "" {
		out.AuthorID = models.OwnerID
		changed = true
	}

	if !out.Kind.Valid() {
		if out.DateKey != "" {
			out.Kind = models.KindLog
		} else {
			out.Kind = models.KindNote
		}
		changed = true
	}

	for _, set := range []*[]string{&out.TargetContactIDs, &out.Tags, &out.Topics, &out.Mentions} {
		if *set == nil {
			*set = []string{}
			changed = true
		}
	}

	if out.SyncVersion < 1 {
		out.SyncVersion = 1
		changed = true
	}
	if out.UpdatedAt.IsZero() && !out.CreatedAt.IsZero() {
		out.UpdatedAt = out.CreatedAt
		changed = true
	}

	if !changed {
		return n, false
	}
	return out, true
}
