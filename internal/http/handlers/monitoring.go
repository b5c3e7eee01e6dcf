package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// ImageGenerationStatus reports the configured image provider, its quota
// block state and the lifetime usage counters.
func (a *App) ImageGenerationStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"provider":      a.Images.Provider(),
		"keyConfigured": a.Images.KeyConfigured(),
		"quota":         a.Images.Quota().Snapshot(),
		"usage":         a.Images.Usage().Snapshot(),
	})
}

// RecentArchive lists the newest archived terminal jobs. Answers 404 when no
// archive database is configured.
func (a *App) RecentArchive(w http.ResponseWriter, r *http.Request) {
	if a.Archive == nil {
		a.fail(w, http.StatusNotFound, "archive not configured")
		return
	}
	items, err := a.Archive.Recent(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		a.Log.Error().Err(err).Msg("handlers: list archive")
		a.fail(w, http.StatusInternalServerError, "failed to list archive")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ArchivedJob returns one archived terminal job by id, outliving the
// in-memory registry's TTL.
func (a *App) ArchivedJob(w http.ResponseWriter, r *http.Request) {
	if a.Archive == nil {
		a.fail(w, http.StatusNotFound, "archive not configured")
		return
	}
	item, err := a.Archive.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusNotFound, "archived job not found")
			return
		}
		a.Log.Error().Err(err).Msg("handlers: get archived job")
		a.fail(w, http.StatusInternalServerError, "failed to load archived job")
		return
	}
	a.json(w, http.StatusOK, item)
}
