package api

import (
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

// listPreviewLength bounds the content preview in list and search results.
const listPreviewLength = 120

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest = models.CreateParams

// UpdateNoteRequest is the request body for patching a note. Absent fields
// are left untouched.
type UpdateNoteRequest = models.NotePatch

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID               string          `json:"id" example:"6f1c..." validate:"required"`
	Title            string          `json:"title" example:"Weekly review"`
	Kind             models.NoteKind `json:"kind" example:"note"`
	DateKey          string          `json:"dateKey,omitempty" example:"2025-01-02"`
	Topics           []string        `json:"topics"`
	TargetContactIDs []string        `json:"targetContactIds"`
	IsPinned         bool            `json:"isPinned"`
	SyncVersion      int64           `json:"syncVersion"`
	Preview          string          `json:"preview"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func listItem(n models.Note) NoteListItem {
	return NoteListItem{
		ID:               n.ID,
		Title:            n.DisplayTitle(),
		Kind:             n.Kind,
		DateKey:          n.DateKey,
		Topics:           n.Topics,
		TargetContactIDs: n.TargetContactIDs,
		IsPinned:         n.IsPinned,
		SyncVersion:      n.SyncVersion,
		Preview:          parser.Preview(n.Content, listPreviewLength),
		UpdatedAt:        n.UpdatedAt,
	}
}

func listItems(ns []models.Note) []NoteListItem {
	out := make([]NoteListItem, 0, len(ns))
	for _, n := range ns {
		out = append(out, listItem(n))
	}
	return out
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// LinkedNotesResponse lists the notes on one side of a note's links.
type LinkedNotesResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
}

// BacklinkContextResponse lists backlinks with surrounding text.
type BacklinkContextResponse struct {
	Backlinks []models.BacklinkContext `json:"backlinks" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []NoteListItem `json:"results" validate:"required"`
}

// TopicListResponse wraps every topic.
type TopicListResponse struct {
	Topics []models.Topic `json:"topics" validate:"required"`
}

// PurgeResponse reports how many notes were permanently removed.
type PurgeResponse struct {
	Purged int `json:"purged" example:"3"`
}
