// Package handlers implements the HTTP surface of the assignment generation
// service. Handlers translate between the wire format and the job registry,
// runner, feedback store and exporter; they hold no business logic of their
// own.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/adapter/repo"
	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
	"github.com/AyoubKhan990/teach-flow-lms/internal/export"
	"github.com/AyoubKhan990/teach-flow-lms/internal/feedback"
	"github.com/AyoubKhan990/teach-flow-lms/internal/jobstore"
	"github.com/AyoubKhan990/teach-flow-lms/internal/providers/image"
	"github.com/AyoubKhan990/teach-flow-lms/internal/runner"
)

const maxBodyBytes = 10 << 20

// ArchiveReader serves archived terminal jobs for the monitoring surface.
type ArchiveReader interface {
	Recent(ctx context.Context, limit int) ([]repo.ArchivedJob, error)
	GetByID(ctx context.Context, jobID string) (*repo.ArchivedJob, error)
}

// App bundles the collaborators the handlers depend on. Archive and Exporter
// may be nil when the matching feature is not configured.
type App struct {
	Log       zerolog.Logger
	Store     *jobstore.Store
	Runner    *runner.Runner
	Images    *image.Pipeline
	Feedback  *feedback.Store
	Archive   ArchiveReader
	Exporter  export.Exporter
	Heartbeat time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) fail(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

func (a *App) fieldErrors(w http.ResponseWriter, errs []domain.FieldError) {
	a.json(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"fields": errs,
	})
}

// decode reads a bounded JSON body into v.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// jobError maps domain errors onto HTTP status codes.
func (a *App) jobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.fail(w, http.StatusNotFound, "job not found")
	case errors.Is(err, domain.ErrInvalidPayload):
		a.fail(w, http.StatusBadRequest, "invalid payload")
	case errors.Is(err, domain.ErrJobActive):
		a.fail(w, http.StatusConflict, "job is already running")
	case errors.Is(err, domain.ErrTerminalState):
		a.fail(w, http.StatusConflict, "job is in a terminal state")
	case errors.Is(err, domain.ErrContentNotReady):
		a.fail(w, http.StatusConflict, "job has no completed content")
	case errors.Is(err, domain.ErrNoImageWarning):
		a.fail(w, http.StatusConflict, "job has no image warning to recover")
	case errors.Is(err, domain.ErrMaxAttempts):
		a.fail(w, http.StatusConflict, "image retry attempts exhausted")
	default:
		a.Log.Error().Err(err).Msg("handlers: unexpected error")
		a.fail(w, http.StatusInternalServerError, "internal error")
	}
}

// Health reports service liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
