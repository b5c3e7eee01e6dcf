// Package runner owns the job state machine: it drives a queued job through
// analysis, content generation with bounded retries, best-effort image
// generation and the terminal transition, and it implements the recovery
// actions available on completed jobs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
	"github.com/AyoubKhan990/teach-flow-lms/internal/jobstore"
	"github.com/AyoubKhan990/teach-flow-lms/internal/providers/content"
	"github.com/AyoubKhan990/teach-flow-lms/internal/providers/image"
)

// Archiver persists terminal job outcomes. Archival is best effort; failures
// are logged, never surfaced to the job.
type Archiver interface {
	ArchiveJob(ctx context.Context, snapshot domain.JobSnapshot, result *domain.JobResult) error
}

// Config tunes the runner. Zero values fall back to defaults.
type Config struct {
	MaxAttempts     int
	BackoffBase     time.Duration
	ProviderTimeout time.Duration
}

const (
	defaultMaxAttempts     = 3
	defaultBackoffBase     = 2 * time.Second
	defaultProviderTimeout = 3 * time.Minute
)

// Options collect the runner's collaborators.
type Options struct {
	Store   *jobstore.Store
	Content content.Generator
	Images  *image.Pipeline
	Archive Archiver
	Logger  zerolog.Logger
	Config  Config
	// BaseContext bounds every background run; defaults to context.Background.
	BaseContext context.Context
}

// Runner executes jobs in background goroutines. At most one run per job is
// active at a time, enforced through the store's runner slot.
type Runner struct {
	store   *jobstore.Store
	content content.Generator
	images  *image.Pipeline
	archive Archiver
	logger  zerolog.Logger
	cfg     Config
	baseCtx context.Context
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds a runner with defaults applied.
func New(opts Options) *Runner {
	cfg := opts.Config
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		store:   opts.Store,
		content: opts.Content,
		images:  opts.Images,
		archive: opts.Archive,
		logger:  opts.Logger,
		cfg:     cfg,
		baseCtx: baseCtx,
		sleep:   sleepCtx,
	}
}

// MaxAttempts reports the configured per-job attempt budget.
func (r *Runner) MaxAttempts() int { return r.cfg.MaxAttempts }

// Start claims the job's runner slot and executes it in the background. It
// fails with domain.ErrJobActive when a run is already in flight.
func (r *Runner) Start(jobID string) error {
	if err := r.store.TryAcquire(jobID); err != nil {
		return err
	}
	go func() {
		defer r.store.Release(jobID)
		r.run(r.baseCtx, jobID)
	}()
	return nil
}

func (r *Runner) run(ctx context.Context, jobID string) {
	job, err := r.store.Get(jobID)
	if err != nil {
		return
	}
	log := r.logger.With().Str("job_id", jobID).Logger()
	log.Info().
		Str("topic", job.Payload.Topic).
		Str("level", job.Payload.Level).
		Int("pages", job.Payload.Pages).
		Str("language", job.Payload.Language).
		Bool("include_images", job.Payload.IncludeImages).
		Msg("runner: job started")

	r.transition(jobID, domain.JobStatusRunning, domain.StageAnalyzing, "Analyzing requirements…", 5)
	if r.finishIfCancelled(jobID) {
		return
	}

	text, genErr := r.generateContent(ctx, jobID, job)
	if genErr != nil {
		r.fail(jobID, genErr)
		return
	}
	if text == "" {
		// The job settled mid-loop (cancelled or evicted).
		return
	}
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Content = text
		rec.Percent = 60
	})
	r.emit(jobID, jobstore.Event{
		Stage:   domain.StageGeneratingContent,
		Message: "Content generated",
		Percent: 60,
		Meta:    map[string]any{"wordCount": content.CountWords(text), "digest": content.HashText(text)},
	})
	if r.finishIfCancelled(jobID) {
		return
	}

	requested := 0
	if job.Payload.IncludeImages {
		requested = job.Payload.ImageCount
	}
	if requested == 0 {
		_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
			rec.GeneratedImages = []string{}
			rec.ImageReport = &domain.ImageReport{Status: domain.ImageStatusSkipped, Errors: []domain.ImageError{}}
		})
		r.complete(ctx, jobID, "Completed")
		return
	}

	r.transition(jobID, domain.JobStatusRunning, domain.StageGeneratingImages, "Creating images…", 70)
	result := r.runImagePass(ctx, jobID, job.Payload, text, job.Seed)
	r.applyImageResult(jobID, job.Payload, result)
	r.complete(ctx, jobID, "Completed")
}

// generateContent runs the bounded retry loop. The returned error is the
// terminal job error when every attempt is exhausted.
func (r *Runner) generateContent(ctx context.Context, jobID string, job domain.JobRecord) (string, *domain.JobError) {
	var lastIssues []content.Issue
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
			rec.Attempt = attempt
			rec.Stage = domain.StageGeneratingContent
			rec.Message = "Generating content…"
			rec.Percent = 15
		})
		r.emit(jobID, jobstore.Event{
			Stage:   domain.StageGeneratingContent,
			Message: fmt.Sprintf("Generating content (attempt %d/%d)…", attempt, r.cfg.MaxAttempts),
			Percent: 15,
			Meta:    map[string]any{"attempt": attempt, "maxAttempts": r.cfg.MaxAttempts},
		})

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.ProviderTimeout)
		text, err := r.content.Generate(callCtx, job.Payload, job.Seed)
		cancel()

		if err == nil {
			report := content.Validate(job.Payload, text)
			if report.OK {
				return text, nil
			}
			lastIssues = report.Issues
			lastErr = nil
			r.emit(jobID, jobstore.Event{
				Stage:   domain.StageGeneratingContent,
				Message: "Validation failed",
				Percent: 15,
				Meta:    map[string]any{"attempt": attempt, "issues": report.Issues},
			})
		} else {
			lastErr = err
			lastIssues = nil
			r.emit(jobID, jobstore.Event{
				Stage:   domain.StageGeneratingContent,
				Message: "Provider failed",
				Percent: 15,
				Meta:    map[string]any{"attempt": attempt, "reason": err.Error()},
			})
		}

		if r.finishIfCancelled(jobID) {
			return "", nil
		}
		if attempt < r.cfg.MaxAttempts {
			if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
				break
			}
		}
	}

	if r.jobFinished(jobID) {
		return "", nil
	}
	if lastIssues != nil {
		return "", &domain.JobError{
			Code:      "VALIDATION_FAILED",
			Message:   "Generated content failed parameter validation.",
			Retryable: true,
		}
	}
	msg := "Generation failed"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return "", &domain.JobError{Code: "PROVIDER_FAILURE", Message: msg, Retryable: true}
}

// backoff grows exponentially with equal jitter.
func (r *Runner) backoff(attempt int) time.Duration {
	base := float64(r.cfg.BackoffBase) * math.Pow(2, float64(attempt-1))
	half := base / 2
	return time.Duration(half + rand.Float64()*half)
}

func (r *Runner) runImagePass(ctx context.Context, jobID string, payload domain.GeneratePayload, text string, seed int) image.Result {
	if r.images == nil {
		return image.Result{Report: domain.ImageReport{Status: domain.ImageStatusMissingKey, Errors: []domain.ImageError{{Reason: "image generation is not configured"}}}}
	}
	r.images.Usage().RecordRequest(payload.ImageCount)
	return r.images.GenerateForContent(ctx, image.Request{
		Payload: payload,
		Content: text,
		Seed:    seed,
		OnProgress: func(p image.Progress) {
			total := p.Total
			if total < 1 {
				total = 1
			}
			percent := 70 + int(math.Round(25*float64(p.Done)/float64(total)))
			_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
				rec.Percent = percent
				rec.Message = p.Message
				rec.Stage = domain.StageGeneratingImages
			})
			r.emit(jobID, jobstore.Event{Stage: domain.StageGeneratingImages, Message: p.Message, Percent: percent, Meta: p.Meta})
		},
	})
}

// applyImageResult stores the pass outcome and derives the completion warning.
// Image problems never fail the job.
func (r *Runner) applyImageResult(jobID string, payload domain.GeneratePayload, result image.Result) {
	warning := warningFromReport(payload, result)
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.GeneratedImages = append([]string(nil), result.Images...)
		report := result.Report
		rec.ImageReport = &report
		rec.Warning = warning
	})
	if warning != nil {
		r.emit(jobID, jobstore.Event{
			Stage:   domain.StageGeneratingImages,
			Message: "Some images failed. You can retry, upload images, or continue without images.",
			Percent: 95,
			Meta:    map[string]any{"warning": true, "imageStatus": string(result.Report.Status)},
		})
	}
}

func warningFromReport(payload domain.GeneratePayload, result image.Result) *domain.Warning {
	report := result.Report
	switch report.Status {
	case domain.ImageStatusOK, domain.ImageStatusSkipped, domain.ImageStatusNoMarkers, domain.ImageStatusIdle, domain.ImageStatusUploadedOnly:
		needed := payload.ImageCount - len(payload.Images)
		if len(result.Images) >= needed {
			return nil
		}
	}
	message := "Some images could not be generated."
	if len(report.Errors) > 0 {
		message = report.Errors[0].Reason
	}
	switch report.Status {
	case domain.ImageStatusQuotaExceeded, domain.ImageStatusQuotaBlocked:
		message = "Image quota exhausted. Retry later, upload your own images, or continue without images."
	case domain.ImageStatusBillingRequired:
		message = "The image provider requires a billed account."
	case domain.ImageStatusMissingKey:
		message = "No image API key is configured."
	case domain.ImageStatusInvalidKey:
		message = "The configured image API key was not recognized."
	}
	return &domain.Warning{Status: report.Status, Message: message, Errors: report.Errors}
}

// RetryImages re-runs only the image stage of a completed job that carries an
// image warning. The attempt budget is shared with content generation.
func (r *Runner) RetryImages(jobID string) error {
	job, err := r.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusCompleted || job.Content == "" {
		return domain.ErrContentNotReady
	}
	if job.Warning == nil {
		return domain.ErrNoImageWarning
	}
	if job.Attempt >= job.MaxAttempts {
		return domain.ErrMaxAttempts
	}
	if err := r.store.TryAcquire(jobID); err != nil {
		return err
	}

	percent := job.Percent
	if percent <= 0 || percent > 95 {
		percent = 70
	}
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Attempt++
		rec.Status = domain.JobStatusRunning
		rec.Stage = domain.StageGeneratingImages
		rec.Message = "Retrying images…"
		rec.Percent = percent
		rec.Warning = nil
		rec.Error = nil
	})
	r.emit(jobID, jobstore.Event{
		Stage:   domain.StageGeneratingImages,
		Message: fmt.Sprintf("Retrying images (attempt %d/%d)…", job.Attempt+1, job.MaxAttempts),
		Percent: percent,
	})

	go func() {
		defer r.store.Release(jobID)
		result := r.runImagePass(r.baseCtx, jobID, job.Payload, job.Content, job.Seed)
		r.applyImageResult(jobID, job.Payload, result)
		r.complete(r.baseCtx, jobID, "Completed")
	}()
	return nil
}

// ResolveNoImages drops the image requirement from a completed job with an
// image warning: markers are stripped from the content and the job settles as
// completed without images.
func (r *Runner) ResolveNoImages(jobID string) error {
	job, err := r.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusCompleted || job.Content == "" {
		return domain.ErrContentNotReady
	}
	if job.Warning == nil {
		return domain.ErrNoImageWarning
	}

	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Payload.IncludeImages = false
		rec.Payload.ImageCount = 0
		rec.Payload.Images = nil
		rec.Content = stripImageMarkers(rec.Content)
		rec.GeneratedImages = []string{}
		rec.ImageReport = &domain.ImageReport{Status: domain.ImageStatusSkipped, Errors: []domain.ImageError{}}
		rec.Warning = nil
		rec.Status = domain.JobStatusCompleted
		rec.Stage = domain.StageCompleted
		rec.Message = "Completed (without images)"
		rec.Percent = 100
	})
	r.emit(jobID, jobstore.Event{Stage: domain.StageCompleted, Message: "Completed (without images)", Percent: 100})
	r.archiveJob(r.baseCtx, jobID)
	return nil
}

// UploadImages replaces the failed generation with caller-provided images on a
// completed job with an image warning. Images must already be sanitized.
func (r *Runner) UploadImages(jobID string, images []string) error {
	job, err := r.store.Get(jobID)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return domain.ErrInvalidPayload
	}
	if job.Status != domain.JobStatusCompleted || job.Content == "" {
		return domain.ErrContentNotReady
	}
	if job.Warning == nil {
		return domain.ErrNoImageWarning
	}

	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		count := rec.Payload.ImageCount
		if len(images) > count {
			count = len(images)
		}
		rec.Payload.IncludeImages = true
		rec.Payload.ImageCount = count
		rec.Payload.Images = append([]string(nil), images...)
		rec.ImageReport = &domain.ImageReport{Status: domain.ImageStatusUploadedOnly, Attempted: true, Errors: []domain.ImageError{}}
		rec.Warning = nil
		rec.Status = domain.JobStatusCompleted
		rec.Stage = domain.StageCompleted
		rec.Message = "Completed (with uploaded images)"
		rec.Percent = 100
	})
	r.emit(jobID, jobstore.Event{Stage: domain.StageCompleted, Message: "Completed (with uploaded images)", Percent: 100})
	r.archiveJob(r.baseCtx, jobID)
	return nil
}

// Cancel marks the job for cooperative cancellation. Queued jobs settle
// immediately; running jobs settle at the next stage boundary. Cancelling a
// terminal or already-cancelled job is a no-op.
func (r *Runner) Cancel(jobID string) (domain.JobSnapshot, error) {
	job, err := r.store.Get(jobID)
	if err != nil {
		return domain.JobSnapshot{}, err
	}
	if job.Status.Terminal() || job.Cancelled {
		return job.Snapshot(), nil
	}

	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Cancelled = true
	})
	if job.Status == domain.JobStatusQueued {
		r.finishCancelled(jobID)
	}
	snap, _, err := r.store.Snapshot(jobID)
	return snap, err
}

func (r *Runner) transition(jobID string, status domain.JobStatus, stage, message string, percent int) {
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Status = status
		rec.Stage = stage
		rec.Message = message
		rec.Percent = percent
	})
	r.emit(jobID, jobstore.Event{Stage: stage, Message: message, Percent: percent})
}

func (r *Runner) complete(ctx context.Context, jobID, message string) {
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		rec.Status = domain.JobStatusCompleted
		rec.Stage = domain.StageCompleted
		rec.Message = message
		rec.Percent = 100
	})
	r.emit(jobID, jobstore.Event{Stage: domain.StageCompleted, Message: message, Percent: 100})
	r.archiveJob(ctx, jobID)
}

func (r *Runner) fail(jobID string, jobErr *domain.JobError) {
	if jobErr == nil {
		return
	}
	var percent int
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		percent = rec.Percent
		rec.Status = domain.JobStatusFailed
		rec.Stage = domain.StageFailed
		rec.Message = jobErr.Message
		rec.Error = jobErr
	})
	r.emit(jobID, jobstore.Event{Stage: domain.StageFailed, Message: jobErr.Message, Percent: percent, Error: jobErr})
	r.archiveJob(r.baseCtx, jobID)
}

func (r *Runner) finishIfCancelled(jobID string) bool {
	job, err := r.store.Get(jobID)
	if err != nil {
		return true
	}
	if !job.Cancelled {
		return false
	}
	r.finishCancelled(jobID)
	return true
}

// finishCancelled settles the job, freezing percent at its last-reported
// value.
func (r *Runner) finishCancelled(jobID string) {
	var percent int
	_ = r.store.Update(jobID, func(rec *domain.JobRecord) {
		percent = rec.Percent
		rec.Status = domain.JobStatusCancelled
		rec.Stage = domain.StageCancelled
		rec.Message = "Cancelled"
	})
	r.emit(jobID, jobstore.Event{Stage: domain.StageCancelled, Message: "Cancelled", Percent: percent})
	r.archiveJob(r.baseCtx, jobID)
}

func (r *Runner) jobFinished(jobID string) bool {
	job, err := r.store.Get(jobID)
	if err != nil {
		return true
	}
	return job.Status.Terminal()
}

func (r *Runner) emit(jobID string, evt jobstore.Event) {
	if _, err := r.store.Emit(jobID, evt); err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("runner: emit failed")
	}
}

func (r *Runner) archiveJob(ctx context.Context, jobID string) {
	if r.archive == nil {
		return
	}
	snap, result, err := r.store.Snapshot(jobID)
	if err != nil {
		return
	}
	if err := r.archive.ArchiveJob(ctx, snap, result); err != nil {
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("runner: archive failed")
	}
}

func stripImageMarkers(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[IMAGE:") {
			continue
		}
		out = append(out, line)
	}
	joined := strings.Join(out, "\n")
	for strings.Contains(joined, "\n\n\n") {
		joined = strings.ReplaceAll(joined, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(joined)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
