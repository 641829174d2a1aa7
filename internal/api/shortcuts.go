package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/store"
	"github.com/yok-tottii/EzKeymap/internal/tablestate"
)

// shortcutRequest is the body of POST and PUT /api/shortcuts
type shortcutRequest struct {
	shortcut.Fields
	store.Options
}

// checkRequest is the body of POST /api/shortcuts/check
type checkRequest struct {
	shortcut.Fields
	ExcludeID string `json:"excludeId"`
}

// resultResponse adds a translated conflict label to store.Result
type resultResponse struct {
	store.Result
	ConflictLabel string `json:"conflictLabel,omitempty"`
}

// checkResponse is the outcome of a dry-run conflict check
type checkResponse struct {
	Conflict        conflict.Conflict         `json:"conflict"`
	ConflictLabel   string                    `json:"conflictLabel"`
	SystemConflicts []conflict.KnownShortcut  `json:"systemConflicts"`
	FieldErrors     shortcut.ValidationErrors `json:"fieldErrors,omitempty"`
}

// listResponse is the body of GET /api/shortcuts
type listResponse struct {
	Shortcuts  []shortcut.Shortcut `json:"shortcuts"`
	Total      int                 `json:"total"`
	TableState tablestate.State    `json:"tableState"`
}

// conflictLabel translates the conflict type
func (h *Handler) conflictLabel(t conflict.Type) string {
	if t == "" {
		t = conflict.TypeNone
	}
	return h.translator.Translate("conflict." + string(t))
}

// statusFor maps a store result onto an HTTP status
func statusFor(res store.Result, ok int) int {
	switch res.Status {
	case store.StatusOK:
		return ok
	case store.StatusConflict:
		return http.StatusConflict
	case store.StatusInvalid:
		return http.StatusUnprocessableEntity
	case store.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeResult writes res with its mapped status
func (h *Handler) writeResult(w http.ResponseWriter, res store.Result, ok int) {
	if res.Status == store.StatusFailed {
		h.storageFailed(res.Error)
	}

	body := resultResponse{Result: res}
	if res.Conflict != nil {
		body.ConflictLabel = h.conflictLabel(res.Conflict.Type)
	}
	writeJSON(w, statusFor(res, ok), body)
}

// pathParam returns the unescaped URL parameter
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// handleListShortcuts handles GET /api/shortcuts. Query parameters override
// the saved table state for this request only.
func (h *Handler) handleListShortcuts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	state := tablestate.Default()
	if h.backend != nil {
		saved, _, err := tablestate.Load(ctx, h.backend)
		if err != nil {
			h.log.Warn("Failed to load table state: %v", err)
		}
		state = saved
	}

	q := r.URL.Query()
	if v := q.Get("sort"); v != "" {
		state.SortConfig.Column = v
	}
	if v := q.Get("dir"); v != "" {
		state.SortConfig.Direction = v
	}
	if q.Has("q") {
		state.Filters.Search = q.Get("q")
	}
	if q.Has("app") {
		state.Filters.Application = q.Get("app")
	}
	state = state.Normalize()

	writeJSON(w, http.StatusOK, listResponse{
		Shortcuts:  state.Apply(h.store.All()),
		Total:      h.store.Len(),
		TableState: state,
	})
}

// handleAddShortcut handles POST /api/shortcuts
func (h *Handler) handleAddShortcut(w http.ResponseWriter, r *http.Request) {
	var req shortcutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	h.writeResult(w, h.store.Add(ctx, req.Fields, req.Options), http.StatusCreated)
}

// handleUpdateShortcut handles PUT /api/shortcuts/{id}
func (h *Handler) handleUpdateShortcut(w http.ResponseWriter, r *http.Request) {
	var req shortcutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	record := shortcut.New(req.Fields, pathParam(r, "id"))
	h.writeResult(w, h.store.Update(ctx, record, req.Options), http.StatusOK)
}

// handleGetShortcut handles GET /api/shortcuts/{id}
func (h *Handler) handleGetShortcut(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.FindByID(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, store.MsgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleDeleteShortcut handles DELETE /api/shortcuts/{id}
func (h *Handler) handleDeleteShortcut(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if _, ok := h.store.FindByID(id); !ok {
		writeError(w, http.StatusNotFound, store.MsgNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	if !h.store.Delete(ctx, id) {
		// the record existed a moment ago, so the write failed
		h.storageFailed(store.MsgSaveFailed)
		writeError(w, http.StatusInternalServerError, store.MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleClearShortcuts handles DELETE /api/shortcuts
func (h *Handler) handleClearShortcuts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	if err := h.store.Clear(ctx); err != nil {
		h.storageFailed(err.Error())
		writeError(w, http.StatusInternalServerError, store.MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleCheckShortcut handles POST /api/shortcuts/check. Nothing is saved.
func (h *Handler) handleCheckShortcut(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp := checkResponse{
		Conflict:        conflict.None(),
		SystemConflicts: []conflict.KnownShortcut{},
	}

	if err := req.Fields.Validate(); err != nil {
		if fe, ok := err.(shortcut.ValidationErrors); ok {
			resp.FieldErrors = fe
		}
	}

	if req.Fields.Trimmed().KeyCombination != "" {
		resp.Conflict = h.store.CheckForConflicts(req.Fields, req.ExcludeID)
		if sys := conflict.CheckSystem(req.Fields.KeyCombination); sys != nil {
			resp.SystemConflicts = sys
		}
	}
	resp.ConflictLabel = h.conflictLabel(resp.Conflict.Type)

	writeJSON(w, http.StatusOK, resp)
}

// handleShortcutsByKey handles GET /api/keys/{baseKey}/shortcuts
func (h *Handler) handleShortcutsByKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shortcuts": h.store.FindByBaseKey(pathParam(r, "baseKey")),
	})
}

// handleShortcutsByApplication handles GET /api/applications/{app}/shortcuts
func (h *Handler) handleShortcutsByApplication(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shortcuts": h.store.FindByApplication(pathParam(r, "app")),
	})
}

// handleApplications handles GET /api/applications. With q it returns
// ranked suggestions, otherwise every known application.
func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	apps := h.store.Applications()
	if q != "" {
		apps = h.store.SuggestApplications(q, 10)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
	})
}

// handleOverrides handles GET /api/overrides
func (h *Handler) handleOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": h.store.Overrides(),
	})
}
