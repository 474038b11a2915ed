package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/notestore"
	"github.com/RealSpaceofAce/framelord-sub002/internal/testutil"
)

// testEnv sets up an in-memory repository and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*notestore.Repository, http.Handler) {
	t.Helper()
	repo := notestore.New(testutil.NewMemStore(), notestore.Options{
		Now:    testutil.NewClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)).Now,
		Logger: testutil.Logger(),
	})
	if err := repo.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return repo, NewRouter(repo, authToken != "", authToken, nil)
}

func do(t *testing.T, h http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", map[string]string{"content": "# Hello\nWorld"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[models.Note](t, w)
	if created.Title != "Hello" {
		t.Errorf("title = %q, want Hello", created.Title)
	}
	if w.Header().Get("ETag") != `"1"` {
		t.Errorf("etag = %q", w.Header().Get("ETag"))
	}

	w = do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode[models.Note](t, w)
	if got.Content != "# Hello\nWorld" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestCreateInvalid(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/notes", map[string]string{"title": "x", "kind": "diary"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad kind = %d, want 400", w.Code)
	}
}

func TestGetNotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/notes/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	repo, router := testEnv(t, "")
	n, err := repo.Create(models.CreateParams{Title: "Lock", Content: "v1"})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"content": "v2"}, "If-Match", `"1"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.SyncVersion != 2 || got.Content != "v2" {
		t.Errorf("after update = %+v", got)
	}

	// Stale version.
	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"content": "v3"}, "If-Match", `"1"`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"content": "v3"}, "If-Match", "abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad If-Match = %d, want 400", w.Code)
	}

	// No precondition.
	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"content": "v3"})
	if w.Code != http.StatusOK {
		t.Errorf("unconditional update = %d", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/notes/missing", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing update = %d, want 404", w.Code)
	}
}

func TestLinksEndpoints(t *testing.T) {
	repo, router := testEnv(t, "")
	a, err := repo.Create(models.CreateParams{Title: "A", Content: "see [[B]] here"})
	if err != nil {
		t.Fatal(err)
	}
	b, ok := repo.FindByTitle("B")
	if !ok {
		t.Fatal("B was not materialized")
	}

	w := do(t, router, http.MethodGet, "/notes/"+a.ID+"/links", nil)
	links := decode[LinkedNotesResponse](t, w)
	if len(links.Notes) != 1 || links.Notes[0].ID != b.ID {
		t.Errorf("forward links = %+v", links.Notes)
	}

	w = do(t, router, http.MethodGet, "/notes/"+b.ID+"/backlinks", nil)
	back := decode[LinkedNotesResponse](t, w)
	if len(back.Notes) != 1 || back.Notes[0].ID != a.ID {
		t.Errorf("backlinks = %+v", back.Notes)
	}

	w = do(t, router, http.MethodGet, "/notes/"+b.ID+"/backlinks/context", nil)
	ctx := decode[BacklinkContextResponse](t, w)
	if len(ctx.Backlinks) != 1 || !strings.Contains(ctx.Backlinks[0].Snippet, "[[B]]") {
		t.Errorf("backlink context = %+v", ctx.Backlinks)
	}

	w = do(t, router, http.MethodGet, "/notes/missing/backlinks", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing backlinks = %d, want 404", w.Code)
	}
}

func TestFindByTitle(t *testing.T) {
	repo, router := testEnv(t, "")
	n, _ := repo.Create(models.CreateParams{Title: "Weekly Review"})

	w := do(t, router, http.MethodGet, "/titles?title=weekly%20review", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.ID != n.ID {
		t.Errorf("resolved %q, want %q", got.ID, n.ID)
	}

	if w := do(t, router, http.MethodGet, "/titles?title=nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown title = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/titles", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing title = %d, want 400", w.Code)
	}
}

func TestListNotesFilters(t *testing.T) {
	repo, router := testEnv(t, "")
	_, _ = repo.Create(models.CreateParams{Title: "One", Content: "#work", TargetContactIDs: []string{"c1"}})
	_, _ = repo.Create(models.CreateParams{Title: "Two", Content: "#home"})
	_, _ = repo.Create(models.CreateParams{Title: "Day", DateKey: "2025-03-01"})

	w := do(t, router, http.MethodGet, "/notes", nil)
	all := decode[NoteListResponse](t, w)
	if all.Total != 3 {
		t.Errorf("total = %d, want 3", all.Total)
	}

	w = do(t, router, http.MethodGet, "/notes?topic=work", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 || got.Notes[0].Title != "One" {
		t.Errorf("topic filter = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/notes?contact=c1", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 {
		t.Errorf("contact filter total = %d", got.Total)
	}

	w = do(t, router, http.MethodGet, "/notes?kind=log", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 || got.Notes[0].DateKey != "2025-03-01" {
		t.Errorf("kind filter = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/notes?limit=2&offset=2", nil)
	page := decode[NoteListResponse](t, w)
	if page.Total != 3 || len(page.Notes) != 1 {
		t.Errorf("page = %d items, total %d", len(page.Notes), page.Total)
	}
}

func TestSearch(t *testing.T) {
	repo, router := testEnv(t, "")
	_, _ = repo.Create(models.CreateParams{Title: "Alpha", Content: "needle inside"})
	_, _ = repo.Create(models.CreateParams{Title: "Beta", Content: "hay"})

	w := do(t, router, http.MethodGet, "/search?q=NEEDLE", nil)
	res := decode[SearchResponse](t, w)
	if len(res.Results) != 1 || res.Results[0].Title != "Alpha" {
		t.Errorf("results = %+v", res.Results)
	}

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty query = %d, want 400", w.Code)
	}
}

func TestTrashLifecycle(t *testing.T) {
	repo, router := testEnv(t, "")
	n, _ := repo.Create(models.CreateParams{Title: "Gone"})

	if w := do(t, router, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusOK {
		t.Errorf("trashed note should still be readable, got %d", w.Code)
	}

	trash := decode[NoteListResponse](t, do(t, router, http.MethodGet, "/trash", nil))
	if trash.Total != 1 {
		t.Errorf("trash total = %d", trash.Total)
	}

	w := do(t, router, http.MethodPost, "/notes/"+n.ID+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.DeletedAt != nil {
		t.Error("restored note still trashed")
	}

	_ = repo.Delete(n.ID)
	w = do(t, router, http.MethodDelete, "/trash", nil)
	if got := decode[PurgeResponse](t, w); got.Purged != 1 {
		t.Errorf("purged = %d, want 1", got.Purged)
	}
	if w := do(t, router, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("purged note = %d, want 404", w.Code)
	}
}

func TestPermanentDeleteAndPurge(t *testing.T) {
	repo, router := testEnv(t, "")
	n, _ := repo.Create(models.CreateParams{Title: "Doomed"})

	if w := do(t, router, http.MethodDelete, "/notes/"+n.ID+"/permanent", nil); w.Code != http.StatusNoContent {
		t.Fatalf("permanent delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/notes/"+n.ID+"/permanent", nil); w.Code != http.StatusNotFound {
		t.Errorf("second permanent delete = %d, want 404", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/trash/purge?days=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad days = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/trash/purge?days=-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("negative days = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodPost, "/trash/purge?days=0", nil)
	if w.Code != http.StatusOK {
		t.Errorf("purge = %d", w.Code)
	}
}

func TestTopicsAndGraph(t *testing.T) {
	repo, router := testEnv(t, "")
	a, _ := repo.Create(models.CreateParams{Title: "A", Content: "[[B]] #Project"})

	topics := decode[TopicListResponse](t, do(t, router, http.MethodGet, "/topics", nil))
	if len(topics.Topics) != 1 || topics.Topics[0].Slug != "project" {
		t.Fatalf("topics = %+v", topics.Topics)
	}

	w := do(t, router, http.MethodGet, "/topics/project", nil)
	if got := decode[models.Topic](t, w); len(got.NoteIDs) != 1 || got.NoteIDs[0] != a.ID {
		t.Errorf("topic = %+v", got)
	}
	if w := do(t, router, http.MethodGet, "/topics/none", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown topic = %d, want 404", w.Code)
	}

	g := decode[models.GraphView](t, do(t, router, http.MethodGet, "/graph", nil))
	if len(g.Nodes) != 2 || len(g.Edges) != 1 || g.Edges[0].SourceID != a.ID {
		t.Errorf("graph = %+v", g)
	}
}

func TestExportImport(t *testing.T) {
	repo, router := testEnv(t, "")
	_, _ = repo.Create(models.CreateParams{Title: "Kept", Content: "body"})

	w := do(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("content-disposition = %q", w.Header().Get("Content-Disposition"))
	}
	exported := w.Body.String()

	_, other := testEnv(t, "")
	w = do(t, other, http.MethodPost, "/import", exported)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	if res := decode[models.ImportResult](t, w); res.Imported != 1 {
		t.Errorf("imported = %d, want 1", res.Imported)
	}

	// Same ids again without overwrite are skipped.
	w = do(t, other, http.MethodPost, "/import", exported)
	if res := decode[models.ImportResult](t, w); res.Skipped != 1 || res.Imported != 0 {
		t.Errorf("re-import = %+v", res)
	}

	w = do(t, other, http.MethodPost, "/import?fresh_ids=true", exported)
	if res := decode[models.ImportResult](t, w); res.Imported != 1 {
		t.Errorf("fresh import = %+v", res)
	}

	if w := do(t, other, http.MethodPost, "/import", `{"version":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing notes = %d, want 400", w.Code)
	}
	if w := do(t, other, http.MethodPost, "/import", "garbage"); w.Code != http.StatusBadRequest {
		t.Errorf("garbage = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret")

	if w := do(t, router, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes", nil, "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes?access_token=secret", nil); w.Code != http.StatusOK {
		t.Errorf("query token on GET = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/notes?access_token=secret", map[string]string{"title": "x"}); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on POST = %d, want 401", w.Code)
	}
}

func TestEventsRouteMounted(t *testing.T) {
	repo := notestore.New(testutil.NewMemStore(), notestore.Options{Logger: testutil.Logger()})
	called := false
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	router := NewRouter(repo, false, "", sse)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusOK || !called {
		t.Errorf("events = %d, called = %v", w.Code, called)
	}
}
