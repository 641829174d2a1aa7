package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yok-tottii/EzKeymap/internal/config"
	"github.com/yok-tottii/EzKeymap/internal/hotkey"
	"github.com/yok-tottii/EzKeymap/internal/i18n"
	"github.com/yok-tottii/EzKeymap/internal/logger"
	"github.com/yok-tottii/EzKeymap/internal/storage"
	"github.com/yok-tottii/EzKeymap/internal/store"
)

const (
	// storageTimeout bounds a single request's storage work
	storageTimeout = 10 * time.Second
	// maxImportSize limits import request bodies
	maxImportSize = 5 << 20
)

// Handler manages API endpoints
type Handler struct {
	store             *store.Store
	backend           storage.Backend
	config            *config.Config
	configPath        string
	translator        *i18n.Translator
	log               *logger.Logger
	now               func() time.Time
	probe             func(ctx context.Context, combo string) (hotkey.Result, error)
	onSettingsChanged func(*config.Config)
	onStorageFailure  func(reason string)
}

// Deps holds the collaborators of Handler. Store and Backend are required.
type Deps struct {
	Store      *store.Store
	Backend    storage.Backend // table state lives next to the shortcuts
	Config     *config.Config
	ConfigPath string
	Translator *i18n.Translator
	Logger     *logger.Logger
	// Headless disables the hotkey check, which needs the tray's run loop
	Headless bool

	// OnSettingsChanged is called after PUT /api/settings saved the config
	OnSettingsChanged func(*config.Config)
	// OnStorageFailure is called when a write could not be persisted
	OnStorageFailure func(reason string)
}

// New creates a new API handler
func New(deps Deps) *Handler {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	translator := deps.Translator
	if translator == nil {
		translator = i18n.NewDefault(i18n.Language(cfg.GetUILanguage()))
	}

	probe := hotkey.Probe
	if deps.Headless {
		probe = func(context.Context, string) (hotkey.Result, error) {
			return hotkey.Result{}, hotkey.ErrUnsupported
		}
	}

	return &Handler{
		store:             deps.Store,
		backend:           deps.Backend,
		config:            cfg,
		configPath:        deps.ConfigPath,
		translator:        translator,
		log:               deps.Logger,
		now:               time.Now,
		probe:             probe,
		onSettingsChanged: deps.OnSettingsChanged,
		onStorageFailure:  deps.OnStorageFailure,
	}
}

// RegisterRoutes registers all API routes on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/shortcuts", h.handleListShortcuts)
		r.Post("/shortcuts", h.handleAddShortcut)
		r.Delete("/shortcuts", h.handleClearShortcuts)
		r.Post("/shortcuts/check", h.handleCheckShortcut)
		r.Get("/shortcuts/{id}", h.handleGetShortcut)
		r.Put("/shortcuts/{id}", h.handleUpdateShortcut)
		r.Delete("/shortcuts/{id}", h.handleDeleteShortcut)

		r.Get("/keys/{baseKey}/shortcuts", h.handleShortcutsByKey)
		r.Get("/applications", h.handleApplications)
		r.Get("/applications/{app}/shortcuts", h.handleShortcutsByApplication)
		r.Get("/overrides", h.handleOverrides)

		r.Get("/keyboard", h.handleKeyboard)
		r.Post("/keycombo/capture", h.handleCapture)
		r.Post("/keycombo/validate", h.handleValidateCombo)
		r.Post("/keycombo/probe", h.handleProbe)
		r.Get("/keycombo/reserved", h.handleReserved)

		r.Get("/table-state", h.handleGetTableState)
		r.Put("/table-state", h.handlePutTableState)

		r.Get("/cheatsheet", h.handleCheatSheet)
		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)
	})
}

// writeJSON encodes v with status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// storageFailed logs and forwards a persistence failure
func (h *Handler) storageFailed(reason string) {
	h.log.Error("Storage failure: %s", reason)
	if h.onStorageFailure != nil {
		h.onStorageFailure(reason)
	}
}

// settingsResponse is the configuration plus the choices the UI offers
type settingsResponse struct {
	*config.Config
	SupportedLanguages []i18n.Language `json:"supported_languages"`
}

// getSettings returns the current configuration
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		Config:             h.config.Clone(),
		SupportedLanguages: i18n.GetSupportedLanguages(),
	})
}

// putSettings updates the configuration
func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.config.Update(updates); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to update config: "+err.Error())
		return
	}

	if lang, ok := updates["ui_language"].(string); ok {
		h.translator.SetLanguage(i18n.Language(lang))
	}

	if h.configPath != "" {
		if err := h.config.Save(h.configPath); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save config: "+err.Error())
			return
		}
	}

	if h.onSettingsChanged != nil {
		h.onSettingsChanged(h.config)
	}

	h.log.Info("Settings updated: %v", updates)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}
