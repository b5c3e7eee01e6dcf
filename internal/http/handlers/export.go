package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
	"github.com/AyoubKhan990/teach-flow-lms/internal/export"
)

type downloadRequest struct {
	JobID string `json:"jobId"`
}

// Download renders a completed job's content into the requested document
// format and returns it as an attachment.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	if a.Exporter == nil {
		a.fail(w, http.StatusNotFound, "export not configured")
		return
	}
	var req downloadRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.JobID == "" {
		a.fail(w, http.StatusBadRequest, "jobId is required")
		return
	}

	job, err := a.Store.Get(req.JobID)
	if err != nil {
		a.jobError(w, err)
		return
	}
	result := job.Result()
	if result == nil {
		a.jobError(w, domain.ErrContentNotReady)
		return
	}

	format := chi.URLParam(r, "format")
	file, err := a.Exporter.Export(r.Context(), format, export.DocumentFromResult(job.ID, result))
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			a.fail(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
			return
		}
		a.Log.Error().Err(err).Str("job_id", job.ID).Str("format", format).Msg("handlers: export")
		a.fail(w, http.StatusBadGateway, "export failed")
		return
	}

	w.Header().Set("Content-Type", file.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
