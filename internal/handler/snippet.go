package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arefin/snippetbin/internal/apperror"
	"github.com/arefin/snippetbin/internal/auth"
	"github.com/arefin/snippetbin/internal/service"
)

// SnippetHandler serves the /snippets/ collection and item endpoints.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// snippetRequest is the body accepted by create and update.
type snippetRequest struct {
	Code string `json:"code"`
}

// snippetID parses the {id} path parameter. A non-numeric ID behaves like an
// unknown one: 404, matching the route contract for /snippets/{id}/.
func snippetID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("snippet", raw)
	}
	return id, nil
}

// HandleList returns all snippets in creation order.
//
// HTTP: GET /snippets/
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate stores a new snippet.
//
// HTTP: POST /snippets/
// Body: {"code": "a = 1"}
//
// With ownership enforcement on, anonymous callers get 403 and nothing is
// created; the new snippet's owner is the authenticated caller.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Create(r.Context(), req.Code, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGetByID returns a single snippet.
//
// HTTP: GET /snippets/{id}/
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := snippetID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate replaces the code of an existing snippet.
//
// HTTP: PUT /snippets/{id}/
// Body: {"code": "c = 3"}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := snippetID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Update(r.Context(), id, req.Code, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /snippets/{id}/
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := snippetID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), id, callerID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
