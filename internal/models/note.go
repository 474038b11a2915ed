// Package models defines the domain types of the note graph.
package models

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// OwnerID is the single author identity of this single-tenant store.
const OwnerID = "owner"

// NoteKind classifies a note.
type NoteKind string

// Note kinds.
const (
	KindLog    NoteKind = "log"
	KindNote   NoteKind = "note"
	KindSystem NoteKind = "system"
)

// Valid reports whether k is a known kind.
func (k NoteKind) Valid() bool {
	switch k {
	case KindLog, KindNote, KindSystem:
		return true
	}
	return false
}

// maxDerivedTitle bounds titles derived from the first content line.
const maxDerivedTitle = 80

// Note is the canonical note record. Topics and Mentions are derived from
// Content on every relink and must not be edited directly.
type Note struct {
	ID               string     `json:"id"`
	AuthorID         string     `json:"authorId"`
	Title            string     `json:"title,omitempty"`
	Content          string     `json:"content"`
	Kind             NoteKind   `json:"kind"`
	DateKey          string     `json:"dateKey,omitempty"`
	TargetContactIDs []string   `json:"targetContactIds"`
	Tags             []string   `json:"tags"`
	Topics           []string   `json:"topics"`
	Mentions         []string   `json:"mentions"`
	FolderID         string     `json:"folderId,omitempty"`
	IsInbox          bool       `json:"isInbox"`
	IsPinned         bool       `json:"isPinned"`
	IsArchived       bool       `json:"isArchived"`
	DeletedAt        *time.Time `json:"deletedAt"`
	SyncVersion      int64      `json:"syncVersion"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// ContactID is the single-contact association of the legacy schema.
	ContactID string `json:"contactId,omitempty"`
}

// IsTrashed reports whether the note is soft-deleted.
func (n *Note) IsTrashed() bool {
	return n.DeletedAt != nil
}

// DisplayTitle returns Title, or a title derived from the first non-empty
// content line when Title is blank.
func (n *Note) DisplayTitle() string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	return DeriveTitle(n.Content)
}

// ContextContactID returns the contact that lazily materialized link
// targets are associated with, or "".
func (n *Note) ContextContactID() string {
	if len(n.TargetContactIDs) == 0 {
		return ""
	}
	return n.TargetContactIDs[0]
}

// Clone returns a deep copy.
func (n *Note) Clone() Note {
	c := *n
	c.TargetContactIDs = slices.Clone(n.TargetContactIDs)
	c.Tags = slices.Clone(n.Tags)
	c.Topics = slices.Clone(n.Topics)
	c.Mentions = slices.Clone(n.Mentions)
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		c.DeletedAt = &t
	}
	return c
}

// DeriveTitle returns the first non-empty line of content with Markdown
// heading markers stripped, truncated to 80 runes.
func DeriveTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxDerivedTitle {
			r := []rune(line)
			line = strings.TrimSpace(string(r[:maxDerivedTitle]))
		}
		return line
	}
	return ""
}

// NoteLink is a directed edge: Source's content references Target.
type NoteLink struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// Topic groups the notes that carry the same hashtag.
type Topic struct {
	Slug       string   `json:"slug"`
	Label      string   `json:"label"`
	NoteIDs    []string `json:"noteIds"`
	ContactIDs []string `json:"contactIds"`
}

// BacklinkContext is a backlinking note with a preview around the reference.
type BacklinkContext struct {
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a live note in the graph view.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphView is the live part of the note graph.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []NoteLink  `json:"edges"`
}
