package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store NoteStore, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD and trash lifecycle.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Patch("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)
		r.Post("/restore", h.RestoreNote)
		r.Delete("/permanent", h.PermanentlyDeleteNote)

		r.Get("/links", h.ForwardLinks)
		r.Get("/backlinks", h.Backlinks)
		r.Get("/backlinks/context", h.BacklinksWithContext)
	})

	// Lookup.
	r.Get("/titles", h.FindByTitle)
	r.Get("/search", h.Search)

	// Trash.
	r.Get("/trash", h.ListTrash)
	r.Delete("/trash", h.EmptyTrash)
	r.Post("/trash/purge", h.PurgeTrash)

	// Topics and graph.
	r.Get("/topics", h.ListTopics)
	r.Get("/topics/{slug}", h.GetTopic)
	r.Get("/graph", h.Graph)

	// Export / import.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
