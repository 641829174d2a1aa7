package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yok-tottii/EzKeymap/internal/cheatsheet"
	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/hotkey"
	"github.com/yok-tottii/EzKeymap/internal/keyboard"
	"github.com/yok-tottii/EzKeymap/internal/keycombo"
	"github.com/yok-tottii/EzKeymap/internal/tablestate"
	"github.com/yok-tottii/EzKeymap/internal/transfer"
)

// comboRequest carries a single key combination
type comboRequest struct {
	KeyCombination string `json:"key_combination"`
}

// handleKeyboard handles GET /api/keyboard
func (h *Handler) handleKeyboard(w http.ResponseWriter, r *http.Request) {
	layout := keyboard.MacBookAir
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"layout":   layout,
		"overlays": keyboard.Board(layout, h.store.All()),
	})
}

// handleCapture handles POST /api/keycombo/capture. A bare modifier press
// yields complete=false.
func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	var ev keycombo.KeyEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	combo, ok := keycombo.Capture(ev)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key_combination": combo,
		"complete":        ok,
	})
}

// handleValidateCombo handles POST /api/keycombo/validate
func (h *Handler) handleValidateCombo(w http.ResponseWriter, r *http.Request) {
	var req comboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	system := conflict.CheckSystem(req.KeyCombination)
	if system == nil {
		system = []conflict.KnownShortcut{}
	}

	labels := make([]string, 0, len(system))
	for _, k := range system {
		labels = append(labels, h.translator.TranslateWithFormat("conflict.system", map[string]string{"name": k.Name}))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":           keycombo.IsValid(req.KeyCombination),
		"canonical":       keycombo.Canonicalize(req.KeyCombination),
		"systemConflicts": system,
		"systemLabels":    labels,
	})
}

// handleReserved handles GET /api/keycombo/reserved
func (h *Handler) handleReserved(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, conflict.KnownShortcuts())
}

// handleProbe handles POST /api/keycombo/probe
func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req comboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.probe(r.Context(), req.KeyCombination)
	switch {
	case errors.Is(err, hotkey.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, hotkey.ErrBusy):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// handleGetTableState handles GET /api/table-state
func (h *Handler) handleGetTableState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	state, _, err := tablestate.Load(ctx, h.backend)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handlePutTableState handles PUT /api/table-state
func (h *Handler) handlePutTableState(w http.ResponseWriter, r *http.Request) {
	state := tablestate.Default()
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	if err := tablestate.Save(ctx, h.backend, state); err != nil {
		h.log.Error("Failed to save table state: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state.Normalize())
}

// headers returns the translated cheat sheet column titles
func (h *Handler) headers() cheatsheet.Headers {
	return cheatsheet.Headers{
		Application: h.translator.Translate("cheatsheet.application"),
		Shortcut:    h.translator.Translate("cheatsheet.shortcut"),
		Description: h.translator.Translate("cheatsheet.description"),
	}
}

// handleCheatSheet handles GET /api/cheatsheet
func (h *Handler) handleCheatSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	cheatsheet.Render(w, h.store.All(), h.headers())
}

// handleExport handles GET /api/export?format=json|yaml
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := transfer.Export(&buf, format, h.store.All(), h.now()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", transfer.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ezkeymap-shortcuts.%s"`, format))
	w.Write(buf.Bytes())
}

// handleImport handles POST /api/import?format=&mode=merge|replace
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := r.URL.Query().Get("mode")
	switch mode {
	case "":
		mode = transfer.ModeMerge
	case transfer.ModeMerge, transfer.ModeReplace:
	default:
		writeError(w, http.StatusBadRequest, "invalid mode: "+mode)
		return
	}

	fields, err := transfer.Decode(http.MaxBytesReader(w, r.Body, maxImportSize), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	report, err := transfer.Import(ctx, h.store, fields, mode)
	if err != nil {
		h.storageFailed(err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	h.log.Info("Imported %d shortcuts (%d skipped, mode=%s)", report.Added, len(report.Skipped), mode)
	writeJSON(w, http.StatusOK, report)
}
