package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arefin/snippetbin/internal/handler"
	"github.com/arefin/snippetbin/internal/model"
	"github.com/arefin/snippetbin/internal/repository/sqlite"
	"github.com/arefin/snippetbin/internal/service"
)

// newSnippetHandler builds a handler over a fresh in-memory database with
// ownership enforcement off; the enforcement paths are covered by the service
// and server tests.
func newSnippetHandler(t *testing.T) (*handler.SnippetHandler, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewSnippetService(db, false, logger)
	return handler.NewSnippetHandler(svc, logger), db
}

func TestHandleList(t *testing.T) {
	h, db := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/snippets/", nil)
	rr := httptest.NewRecorder()
	h.HandleList(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, "[]", rr.Body.String(), "empty collection should serialize as []")

	require.NoError(t, db.Create(context.Background(), &model.Snippet{Code: "a = 1"}))

	rr = httptest.NewRecorder()
	h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/snippets/", nil))

	var snippets []model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snippets))
	require.Len(t, snippets, 1)
	assert.Equal(t, "a = 1", snippets[0].Code)
}

func TestHandleCreate(t *testing.T) {
	h, _ := newSnippetHandler(t)

	body := `{"code":"abc = def"}`
	req := httptest.NewRequest(http.MethodPost, "/snippets/", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "abc = def", created.Code)
}

func TestHandleCreate_InvalidJSON(t *testing.T) {
	h, db := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/snippets/", bytes.NewBufferString(`{"code":`))
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	snippets, err := db.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snippets, "nothing should be stored on a bad request")
}

func TestHandleGetByID(t *testing.T) {
	h, db := newSnippetHandler(t)

	snippet := &model.Snippet{Code: "foo = \"bar\n\""}
	require.NoError(t, db.Create(context.Background(), snippet))

	req := httptest.NewRequest(http.MethodGet, "/snippets/1/", nil)
	req.SetPathValue("id", "1")
	rr := httptest.NewRecorder()
	h.HandleGetByID(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "foo = \"bar\n\"", got.Code)
}

func TestHandleGetByID_NotFound(t *testing.T) {
	h, _ := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/snippets/99/", nil)
	req.SetPathValue("id", "99")
	rr := httptest.NewRecorder()
	h.HandleGetByID(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var errResp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "not_found", errResp.Error)
}

func TestHandleGetByID_NonNumericID(t *testing.T) {
	h, _ := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/snippets/abc/", nil)
	req.SetPathValue("id", "abc")
	rr := httptest.NewRecorder()
	h.HandleGetByID(rr, req)

	// A malformed ID behaves like an unknown one.
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleUpdate(t *testing.T) {
	h, db := newSnippetHandler(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, &model.Snippet{Code: "a = 1"}))

	req := httptest.NewRequest(http.MethodPut, "/snippets/1/", bytes.NewBufferString(`{"code":"c = 3"}`))
	req.SetPathValue("id", "1")
	rr := httptest.NewRecorder()
	h.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var updated model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "c = 3", updated.Code)

	stored, err := db.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "c = 3", stored.Code)
}

func TestHandleUpdate_NotFound(t *testing.T) {
	h, _ := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/snippets/99/", bytes.NewBufferString(`{"code":"x"}`))
	req.SetPathValue("id", "99")
	rr := httptest.NewRecorder()
	h.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleDelete(t *testing.T) {
	h, db := newSnippetHandler(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, &model.Snippet{Code: "bye"}))

	req := httptest.NewRequest(http.MethodDelete, "/snippets/1/", nil)
	req.SetPathValue("id", "1")
	rr := httptest.NewRecorder()
	h.HandleDelete(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len(), "204 response must have an empty body")

	snippets, err := db.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestHandleDelete_NotFound(t *testing.T) {
	h, _ := newSnippetHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/snippets/99/", nil)
	req.SetPathValue("id", "99")
	rr := httptest.NewRecorder()
	h.HandleDelete(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
