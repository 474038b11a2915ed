package models

import "time"

// CreateParams are the caller-supplied fields of a new note.
type CreateParams struct {
	Title            string   `json:"title,omitempty"`
	Content          string   `json:"content,omitempty"`
	Kind             NoteKind `json:"kind,omitempty"`
	DateKey          string   `json:"dateKey,omitempty"`
	FolderID         string   `json:"folderId,omitempty"`
	TargetContactIDs []string `json:"targetContactIds,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IsInbox          bool     `json:"isInbox,omitempty"`
	IsPinned         bool     `json:"isPinned,omitempty"`
}

// NotePatch is a partial update. Nil fields are left untouched.
// ExpectedVersion, when set, must equal the stored SyncVersion.
type NotePatch struct {
	Title            *string   `json:"title,omitempty"`
	Content          *string   `json:"content,omitempty"`
	Kind             *NoteKind `json:"kind,omitempty"`
	DateKey          *string   `json:"dateKey,omitempty"`
	FolderID         *string   `json:"folderId,omitempty"`
	TargetContactIDs *[]string `json:"targetContactIds,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	IsInbox          *bool     `json:"isInbox,omitempty"`
	IsPinned         *bool     `json:"isPinned,omitempty"`
	IsArchived       *bool     `json:"isArchived,omitempty"`
	ExpectedVersion  *int64    `json:"expectedVersion,omitempty"`
}

// ExportFormatVersion is the envelope version written by Export.
const ExportFormatVersion = 1

// ExportEnvelope is the JSON export document.
type ExportEnvelope struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	NoteCount  int       `json:"noteCount"`
	Notes      []Note    `json:"notes"`
}

// ImportOptions control how imported notes meet existing ones.
type ImportOptions struct {
	// Overwrite replaces stored notes that share an id with an imported note.
	Overwrite bool
	// FreshIDs assigns a new id to every imported note.
	FreshIDs bool
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported    int `json:"imported"`
	Overwritten int `json:"overwritten"`
	Skipped     int `json:"skipped"`
}

// EventKind names a repository change.
type EventKind string

// Event kinds.
const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
	EventRestored EventKind = "restored"
	EventPurged   EventKind = "purged"
	EventReloaded EventKind = "reloaded"
)

// NoteEvent is delivered to listeners after a committed change.
type NoteEvent struct {
	Kind           EventKind `json:"kind"`
	NoteID         string    `json:"noteId,omitempty"`
	Title          string    `json:"title,omitempty"`
	Content        string    `json:"-"`
	ContactIDs     []string  `json:"contactIds,omitempty"`
	ContentChanged bool      `json:"contentChanged,omitempty"`
	Materialized   bool      `json:"materialized,omitempty"`
}
