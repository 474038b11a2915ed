package api

import "github.com/RealSpaceofAce/framelord-sub002/internal/models"

// NoteStore is the note repository as the HTTP layer sees it.
// *notestore.Repository satisfies it.
type NoteStore interface {
	Create(p models.CreateParams) (models.Note, error)
	Update(id string, patch models.NotePatch) (models.Note, error)
	Delete(id string) error
	Restore(id string) error
	PermanentlyDelete(id string) error

	Get(id string) (models.Note, bool)
	FindByTitle(title string) (models.Note, bool)
	All() []models.Note
	AllTrashed() []models.Note
	Search(query string) []models.Note

	ForwardLinks(id string) []models.Note
	Backlinks(id string) []models.Note
	BacklinksWithContext(id string) []models.BacklinkContext
	Topics() []models.Topic
	Topic(slug string) (models.Topic, bool)
	Graph() models.GraphView

	EmptyTrash() (int, error)
	PurgeOlderThan(days int) (int, error)

	ExportJSON() ([]byte, error)
	Import(data []byte, opts models.ImportOptions) (models.ImportResult, error)
}
