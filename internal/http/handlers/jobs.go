package handlers

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
	"github.com/AyoubKhan990/teach-flow-lms/internal/jobstore"
	"github.com/AyoubKhan990/teach-flow-lms/internal/middleware"
	"github.com/AyoubKhan990/teach-flow-lms/pkg/zip"
)

func jobQueuedEvent() jobstore.Event {
	return jobstore.Event{Stage: domain.StageQueued, Message: "Queued", Percent: 0}
}

type jobResponse struct {
	Job    domain.JobSnapshot `json:"job"`
	Result *domain.JobResult  `json:"result,omitempty"`
}

// CreateJob validates the generation payload, registers a queued job and
// starts its runner. The response is the initial snapshot; progress arrives
// over the event stream.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var payload domain.GeneratePayload
	if !a.decode(w, r, &payload) {
		return
	}
	payload, errs := domain.NormalizeGeneratePayload(payload, middleware.LanguageFromContext(r.Context()))
	if len(errs) > 0 {
		a.fieldErrors(w, errs)
		return
	}

	seed := payload.Seed
	if seed == 0 {
		seed = rand.Intn(100_000) + 1
	}

	job := a.Store.Create(payload, seed, a.Runner.MaxAttempts())
	if _, err := a.Store.Emit(job.ID, jobQueuedEvent()); err != nil {
		a.jobError(w, err)
		return
	}
	if err := a.Runner.Start(job.ID); err != nil {
		a.Log.Error().Err(err).Str("job_id", job.ID).Msg("handlers: start runner")
		a.jobError(w, err)
		return
	}

	snap, _, err := a.Store.Snapshot(job.ID)
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{Job: snap})
}

// GetJob returns the current snapshot plus, for completed jobs, the merged
// result. Evicted jobs answer 404.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	snap, result, err := a.Store.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{Job: snap, Result: result})
}

// CancelJob requests cancellation. Terminal jobs answer their final snapshot
// unchanged, so the call is idempotent.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Runner.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{Job: snap})
}

// RetryImages re-runs the image pass on a completed job carrying an image
// warning.
func (a *App) RetryImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Runner.RetryImages(id); err != nil {
		a.jobError(w, err)
		return
	}
	snap, _, err := a.Store.Snapshot(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{Job: snap})
}

// ResolveNoImages accepts the assignment without images, stripping the
// unresolved markers from the content.
func (a *App) ResolveNoImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Runner.ResolveNoImages(id); err != nil {
		a.jobError(w, err)
		return
	}
	snap, result, err := a.Store.Snapshot(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{Job: snap, Result: result})
}

type uploadImagesRequest struct {
	Images []string `json:"images"`
}

// UploadImages replaces failed generated images with user-supplied data URIs.
func (a *App) UploadImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req uploadImagesRequest
	if !a.decode(w, r, &req) {
		return
	}
	images := sanitizeDataURIs(req.Images, 5)
	if err := a.Runner.UploadImages(id, images); err != nil {
		a.jobError(w, err)
		return
	}
	snap, result, err := a.Store.Snapshot(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{Job: snap, Result: result})
}

// ImagesZip bundles a completed job's generated and uploaded images into a
// zip download.
func (a *App) ImagesZip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Store.Get(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	result := job.Result()
	if result == nil {
		a.jobError(w, domain.ErrContentNotReady)
		return
	}

	assets := zip.AssetsFromDataURIs("image", result.GeneratedImages)
	assets = append(assets, zip.AssetsFromDataURIs("upload", result.Images)...)
	if len(assets) == 0 {
		a.fail(w, http.StatusNotFound, "job has no images")
		return
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Log.Error().Err(err).Str("job_id", id).Msg("handlers: build image archive")
		a.fail(w, http.StatusInternalServerError, "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "assignment-images.zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func sanitizeDataURIs(raw []string, max int) []string {
	var out []string
	for _, uri := range raw {
		uri = strings.TrimSpace(uri)
		if !strings.HasPrefix(uri, "data:image/") {
			continue
		}
		out = append(out, uri)
		if len(out) == max {
			break
		}
	}
	return out
}
