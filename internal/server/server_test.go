package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(store, logger, opts).Engine()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mustCreate[T any](t *testing.T, h http.Handler, path string, body any) T {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[T](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := doRequest(t, h, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownAPIRoute(t *testing.T) {
	h := newTestServer(t, Options{})

	for _, path := range []string{"/api/nope", "/api", "/elsewhere"} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Not Found", errorOf(t, rec), path)
	}

	rec := doRequest(t, h, http.MethodPatch, "/api/boards/1", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusDeleteScenario(t *testing.T) {
	h := newTestServer(t, Options{})

	board := mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "Sprint 1"})
	todo := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})
	task := mustCreate[models.Task](t, h, "/api/tasks", map[string]any{
		"title":    "Write spec",
		"boardId":  board.ID,
		"statusId": todo.ID,
	})
	assert.Equal(t, board.ID, task.BoardID)
	require.NotNil(t, task.StatusID)
	assert.Equal(t, todo.ID, *task.StatusID)

	rec := doRequest(t, h, http.MethodDelete, "/api/statuses/"+itoa(todo.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, todo.ID, decode[models.Deleted](t, rec).ID)

	rec = doRequest(t, h, http.MethodGet, "/api/tasks/"+itoa(task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `null`, string(decode[map[string]json.RawMessage](t, rec)["statusId"]))
	assert.Equal(t, "Write spec", decode[models.Task](t, rec).Title)

	rec = doRequest(t, h, http.MethodGet, "/api/statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Status](t, rec))
}

func TestDuplicateBoardName(t *testing.T) {
	h := newTestServer(t, Options{})

	mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "X"})

	rec := doRequest(t, h, http.MethodPost, "/api/boards", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "already exists")

	rec = doRequest(t, h, http.MethodGet, "/api/boards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	boards := decode[[]models.Board](t, rec)
	require.Len(t, boards, 1)
	assert.Equal(t, "X", boards[0].Name)
}

func TestBoardRequestErrors(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := doRequest(t, h, http.MethodPost, "/api/boards", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", errorOf(t, rec))

	rec = doRequest(t, h, http.MethodPost, "/api/boards", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/boards", map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/boards/abc", map[string]any{"name": "Y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", errorOf(t, rec))

	rec = doRequest(t, h, http.MethodPut, "/api/boards/404", map[string]any{"name": "Y"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/boards/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "board not found", errorOf(t, rec))
}

func TestDeleteBoardOverHTTP(t *testing.T) {
	h := newTestServer(t, Options{})

	board := mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "Temp"})
	status := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})
	task := mustCreate[models.Task](t, h, "/api/tasks", map[string]any{
		"title": "gone soon", "boardId": itoa(board.ID), "statusName": status.Name,
	})

	rec := doRequest(t, h, http.MethodGet, "/api/boards/"+itoa(board.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[models.Board](t, rec).Tasks, 1)

	rec = doRequest(t, h, http.MethodDelete, "/api/boards/"+itoa(board.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/tasks/"+itoa(task.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTaskErrors(t *testing.T) {
	h := newTestServer(t, Options{})
	board := mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "B"})
	status := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing title", map[string]any{"boardId": board.ID, "statusId": status.ID}, http.StatusBadRequest},
		{"missing board", map[string]any{"title": "t", "statusId": status.ID}, http.StatusBadRequest},
		{"malformed board", map[string]any{"title": "t", "boardId": "abc", "statusId": status.ID}, http.StatusBadRequest},
		{"unknown board", map[string]any{"title": "t", "boardId": 999, "statusId": status.ID}, http.StatusNotFound},
		{"no status", map[string]any{"title": "t", "boardId": board.ID}, http.StatusNotFound},
		{"malformed status", map[string]any{"title": "t", "boardId": board.ID, "statusId": "x"}, http.StatusBadRequest},
		{"unknown status name", map[string]any{"title": "t", "boardId": board.ID, "statusName": "DONE"}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/tasks", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorOf(t, rec))
		})
	}

	rec := doRequest(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Task](t, rec))
}

func TestUpdateTaskOverHTTP(t *testing.T) {
	h := newTestServer(t, Options{})
	board := mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "B"})
	status := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})
	task := mustCreate[models.Task](t, h, "/api/tasks", map[string]any{
		"title": "t", "description": " d ", "boardId": board.ID, "statusId": status.ID,
	})
	require.NotNil(t, task.Description)
	assert.Equal(t, "d", *task.Description)

	rec := doRequest(t, h, http.MethodPut, "/api/tasks/"+itoa(task.ID), map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/tasks/"+itoa(task.ID), `{"statusId": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Task](t, rec)
	assert.Nil(t, updated.StatusID)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, task.Description, updated.Description)

	rec = doRequest(t, h, http.MethodPut, "/api/tasks/"+itoa(task.ID), map[string]any{"statusName": "TODO", "description": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = decode[models.Task](t, rec)
	require.NotNil(t, updated.StatusID)
	assert.Equal(t, status.ID, *updated.StatusID)
	assert.Nil(t, updated.Description)

	rec = doRequest(t, h, http.MethodPut, "/api/tasks/999", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/tasks/"+itoa(task.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/api/tasks/"+itoa(task.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefaultStatusOption(t *testing.T) {
	h := newTestServer(t, Options{DefaultStatus: "TODO"})
	board := mustCreate[models.Board](t, h, "/api/boards", map[string]any{"name": "B"})

	// The default only applies once the named status exists.
	rec := doRequest(t, h, http.MethodPost, "/api/tasks", map[string]any{"title": "t", "boardId": board.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	todo := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})
	doing := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "DOING"})

	task := mustCreate[models.Task](t, h, "/api/tasks", map[string]any{"title": "t", "boardId": board.ID})
	require.NotNil(t, task.StatusID)
	assert.Equal(t, todo.ID, *task.StatusID)

	explicit := mustCreate[models.Task](t, h, "/api/tasks", map[string]any{"title": "t", "boardId": board.ID, "statusId": doing.ID})
	require.NotNil(t, explicit.StatusID)
	assert.Equal(t, doing.ID, *explicit.StatusID)
}

func TestStatusEndpoints(t *testing.T) {
	h := newTestServer(t, Options{})
	todo := mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "TODO"})
	mustCreate[models.Status](t, h, "/api/statuses", map[string]any{"name": "DONE"})

	rec := doRequest(t, h, http.MethodPut, "/api/statuses/"+itoa(todo.ID), map[string]any{"name": "DONE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/statuses/"+itoa(todo.ID), map[string]any{"name": "Backlog"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backlog", decode[models.Status](t, rec).Name)

	rec = doRequest(t, h, http.MethodGet, "/api/statuses/"+itoa(todo.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backlog", decode[models.Status](t, rec).Name)

	rec = doRequest(t, h, http.MethodGet, "/api/statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]models.Status](t, rec)
	require.Len(t, statuses, 2)
	assert.Equal(t, todo.ID, statuses[0].ID)

	rec = doRequest(t, h, http.MethodDelete, "/api/statuses/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/api/statuses/12345", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0o644))
	h := newTestServer(t, Options{StaticDir: dir})

	rec := doRequest(t, h, http.MethodGet, "/boards/7", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "board")

	rec = doRequest(t, h, http.MethodGet, "/api/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", errorOf(t, rec))
}
