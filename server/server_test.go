package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

type harness struct {
	t     *testing.T
	srv   *Server
	store *store.Store
	token string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	st := store.New(kv.NewMemory())
	return &harness{t: t, srv: New(st, opts), store: st, token: opts.Token}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(h.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newHarness(t, Options{})
	rec := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestProjectLifecycle(t *testing.T) {
	h := newHarness(t, Options{})

	rec := h.do(http.MethodPost, "/api/v1/projects", map[string]any{"title": "Thesis", "tags": []string{"School"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[model.Project](t, rec)
	assert.Equal(t, model.ProjectPlanning, p.Status)

	rec = h.do(http.MethodPatch, "/api/v1/projects/"+p.ID, map[string]any{"status": "In Progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ProjectInProgress, decode[model.Project](t, rec).Status)

	rec = h.do(http.MethodPatch, "/api/v1/projects/"+p.ID, map[string]any{"status": "Someday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/projects/"+p.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Empty(t, decode[[]model.Project](t, rec))
	rec = h.do(http.MethodGet, "/api/v1/projects?archived=true", nil)
	assert.Len(t, decode[[]model.Project](t, rec), 1)

	rec = h.do(http.MethodPost, "/api/v1/projects/"+p.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Thesis (Copy)", decode[model.Project](t, rec).Title)

	rec = h.do(http.MethodDelete, "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodDelete, "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskBoard(t *testing.T) {
	h := newHarness(t, Options{})
	p, err := h.store.CreateProject(context.Background(), model.Project{Title: "Board"})
	require.NoError(t, err)

	rec := h.do(http.MethodPost, "/api/v1/tasks", map[string]any{"projectId": "p-missing", "title": "Orphan"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/tasks", map[string]any{"projectId": p.ID, "title": "Write intro"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[model.Task](t, rec)
	assert.Equal(t, model.TaskBacklog, task.Status)

	rec = h.do(http.MethodPost, "/api/v1/tasks/"+task.ID+"/move", map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.TaskDone, decode[model.Task](t, rec).Status)

	rec = h.do(http.MethodPost, "/api/v1/tasks/"+task.ID+"/move", map[string]string{"status": "later"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/projects/"+p.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["done"])

	rec = h.do(http.MethodGet, "/api/v1/tasks?project="+p.ID+"&status=in-progress", nil)
	assert.Empty(t, decode[[]model.Task](t, rec))
}

func TestMindmapNodes(t *testing.T) {
	h := newHarness(t, Options{})
	p, err := h.store.CreateProject(context.Background(), model.Project{Title: "Ideas"})
	require.NoError(t, err)

	rec := h.do(http.MethodPost, "/api/v1/mindmaps", map[string]any{"projectId": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	mm := decode[model.Mindmap](t, rec)

	rec = h.do(http.MethodPost, "/api/v1/mindmaps/"+mm.ID+"/nodes", map[string]string{"label": "Scope"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[nodeResponse](t, rec)
	assert.Equal(t, "Scope", added.Node.Label)

	rec = h.do(http.MethodPatch, "/api/v1/mindmaps/"+mm.ID+"/nodes/"+added.Node.ID, map[string]string{"label": "Goals"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Goals", decode[model.Mindmap](t, rec).Root.Children[0].Label)

	rec = h.do(http.MethodDelete, "/api/v1/mindmaps/"+mm.ID+"/nodes/"+mm.Root.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodDelete, "/api/v1/mindmaps/"+mm.ID+"/nodes/node-nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/mindmaps/"+mm.ID+"/nodes/"+added.Node.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[model.Mindmap](t, rec).Root.Children)
}

func TestInboxCommit(t *testing.T) {
	h := newHarness(t, Options{})
	commit := ingest.Commit{
		Who:     ingest.CommitSource{Tool: "Forge", ID: "forge-1"},
		What:    ingest.CommitWhat{Title: "Parser fix", Type: "code"},
		Content: "diff --git",
	}
	rec := h.do(http.MethodPost, "/api/v1/inbox/commit", commit)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ingest.Result](t, rec).Created)

	inbox, ok, err := h.store.FindProjectByTitle(context.Background(), ingest.InboxTitle)
	require.NoError(t, err)
	require.True(t, ok)
	rec = h.do(http.MethodGet, "/api/v1/notes?project="+inbox.ID, nil)
	notes := decode[[]model.Note](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "Parser fix", notes[0].Title)
	assert.True(t, notes[0].Pinned)
}

func TestInboxDecksIdempotent(t *testing.T) {
	h := newHarness(t, Options{})
	deck := `{"deckId":"d-1","who":{"tool":"Slides","id":"s1"},"slides":[{"type":"cover","title":"Q3"}]}`

	rec := h.do(http.MethodPost, "/api/v1/inbox/decks", deck)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ingest.Result](t, rec).Created)

	rec = h.do(http.MethodPost, "/api/v1/inbox/decks", "["+deck+"]")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	res := decode[ingest.Result](t, rec)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Skipped)

	rec = h.do(http.MethodGet, "/api/v1/decks?deckId=d-1", nil)
	assert.Len(t, decode[[]model.Deck](t, rec), 1)

	rec = h.do(http.MethodPost, "/api/v1/inbox/decks", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOracleEvents(t *testing.T) {
	h := newHarness(t, Options{})

	rec := h.do(http.MethodPost, "/api/v1/oracle/events", map[string]any{"type": "ARTIFACT_EMITTED"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/oracle/events", map[string]any{"type": "SESSION_START", "data": map[string]string{"title": "Run 7"}})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	session := decode[map[string]string](t, rec)["session"]
	require.NotEmpty(t, session)

	rec = h.do(http.MethodPost, "/api/v1/oracle/events", map[string]any{"type": "ARTIFACT_EMITTED", "data": map[string]string{"content": "findings"}})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/notes?project="+session, nil)
	notes := decode[[]model.Note](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "Oracle Artifact", notes[0].Title)

	rec = h.do(http.MethodPost, "/api/v1/oracle/events", map[string]any{"type": "NOISE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.store.CreateProject(context.Background(), model.Project{Title: "Garden plan"})
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/api/v1/search?q=GARDEN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[store.SearchResult](t, rec).Projects, 1)
}

func TestAuthToken(t *testing.T) {
	h := newHarness(t, Options{Token: "s3cret"})
	rec := h.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.token = "wrong"
	rec = h.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.token = ""
	rec = h.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")
}
