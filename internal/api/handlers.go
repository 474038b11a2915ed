package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

// maxBodyBytes bounds note request bodies.
const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	store NoteStore
}

// NewHandler creates a new Handler.
func NewHandler(store NoteStore) *Handler {
	return &Handler{store: store}
}

func noteID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func setETag(w http.ResponseWriter, n models.Note) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(n.SyncVersion, 10)))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List live notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			topic	query		string	false	"Filter by topic slug"
//	@Param			contact	query		string	false	"Filter by target contact id"
//	@Param			kind	query		string	false	"Filter by kind"	Enums(log, note, system)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	topic := parser.Normalize(q.Get("topic"))
	contact := strings.TrimSpace(q.Get("contact"))
	kind := models.NoteKind(q.Get("kind"))

	var notes []models.Note
	for _, n := range h.store.All() {
		if topic != "" && !slices.Contains(n.Topics, topic) {
			continue
		}
		if contact != "" && !slices.Contains(n.TargetContactIDs, contact) {
			continue
		}
		if kind != "" && n.Kind != kind {
			continue
		}
		notes = append(notes, n)
	}

	total := len(notes)
	writeJSON(w, http.StatusOK, NoteListResponse{
		Notes: listItems(paginate(notes, limit, offset)),
		Total: total,
	})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.store.Get(noteID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	setETag(w, n)
	writeJSON(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note; references to unknown titles create those notes
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	n, err := h.store.Create(req)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	setETag(w, n)
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Patch a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Expected syncVersion"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	models.Note
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var patch UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`); ifMatch != "" {
		v, err := strconv.ParseInt(ifMatch, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("If-Match must be a sync version"))
			return
		}
		patch.ExpectedVersion = &v
	}

	n, err := h.store.Update(noteID(r), patch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	setETag(w, n)
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}. The note moves to the trash.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(noteID(r)); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreNote handles POST /api/notes/{id}/restore.
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if err := h.store.Restore(id); err != nil {
		writeError(w, "restore note", err)
		return
	}
	n, _ := h.store.Get(id)
	writeJSON(w, http.StatusOK, n)
}

// PermanentlyDeleteNote handles DELETE /api/notes/{id}/permanent.
func (h *Handler) PermanentlyDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.PermanentlyDelete(noteID(r)); err != nil {
		writeError(w, "permanently delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FindByTitle handles GET /api/titles?title=.
//
//	@Summary		Resolve a title the way references resolve
//	@Tags			notes
//	@Produce		json
//	@Param			title	query		string	true	"Title"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/titles [get]
func (h *Handler) FindByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	n, ok := h.store.FindByTitle(title)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Search handles GET /api/search.
//
//	@Summary		Substring search across live note titles and content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results := paginate(h.store.Search(q), limit, 0)
	writeJSON(w, http.StatusOK, SearchResponse{Results: listItems(results)})
}

// ForwardLinks handles GET /api/notes/{id}/links.
func (h *Handler) ForwardLinks(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if _, ok := h.store.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, LinkedNotesResponse{Notes: listItems(h.store.ForwardLinks(id))})
}

// Backlinks handles GET /api/notes/{id}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if _, ok := h.store.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, LinkedNotesResponse{Notes: listItems(h.store.Backlinks(id))})
}

// BacklinksWithContext handles GET /api/notes/{id}/backlinks/context.
func (h *Handler) BacklinksWithContext(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if _, ok := h.store.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, BacklinkContextResponse{Backlinks: h.store.BacklinksWithContext(id)})
}

// ListTopics handles GET /api/topics.
func (h *Handler) ListTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TopicListResponse{Topics: h.store.Topics()})
}

// GetTopic handles GET /api/topics/{slug}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	t, ok := h.store.Topic(chi.URLParam(r, "slug"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the live note graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	models.GraphView
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Graph())
}

// ListTrash handles GET /api/trash.
func (h *Handler) ListTrash(w http.ResponseWriter, _ *http.Request) {
	trashed := h.store.AllTrashed()
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: listItems(trashed), Total: len(trashed)})
}

// EmptyTrash handles DELETE /api/trash.
func (h *Handler) EmptyTrash(w http.ResponseWriter, _ *http.Request) {
	n, err := h.store.EmptyTrash()
	if err != nil {
		writeError(w, "empty trash", err)
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Purged: n})
}

// PurgeTrash handles POST /api/trash/purge?days=N.
//
//	@Summary		Permanently remove notes trashed at least N days ago
//	@Tags			trash
//	@Produce		json
//	@Param			days	query		int	true	"Age threshold in days"
//	@Success		200		{object}	PurgeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trash/purge [post]
func (h *Handler) PurgeTrash(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'days' must be an integer"))
		return
	}
	n, err := h.store.PurgeOlderThan(days)
	if err != nil {
		writeError(w, "purge trash", err)
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Purged: n})
}

// Export handles GET /api/export.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	data, err := h.store.ExportJSON()
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="notes-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import?overwrite=&fresh_ids=.
//
//	@Summary		Import an export document
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			overwrite	query		bool	false	"Replace notes with matching ids"
//	@Param			fresh_ids	query		bool	false	"Assign new ids to every imported note"
//	@Success		200			{object}	models.ImportResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 5*maxBodyBytes)
	q := r.URL.Query()
	opts := models.ImportOptions{
		Overwrite: queryBool(q.Get("overwrite")),
		FreshIDs:  queryBool(q.Get("fresh_ids")),
	}
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("import format invalid: %v", err)))
		return
	}
	res, err := h.store.Import(body, opts)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
