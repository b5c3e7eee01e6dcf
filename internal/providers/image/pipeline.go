package image

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// RetryPolicy bounds per-image retries for transient provider failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// PipelineOptions configure a Pipeline.
type PipelineOptions struct {
	Generator   Generator
	Provider    string
	APIKey      string
	AspectRatio string
	Quota       *QuotaState
	Usage       *Usage
	Retry       RetryPolicy
	CallTimeout time.Duration
	Logger      zerolog.Logger
}

// Pipeline turns image markers in generated content into data URIs.
type Pipeline struct {
	generator   Generator
	provider    string
	apiKey      string
	aspectRatio string
	quota       *QuotaState
	usage       *Usage
	retry       RetryPolicy
	callTimeout time.Duration
	logger      zerolog.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewPipeline builds a pipeline with defaults applied.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 3
	}
	if opts.Retry.BaseDelay <= 0 {
		opts.Retry.BaseDelay = time.Second
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "4:3"
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	if opts.Quota == nil {
		opts.Quota = &QuotaState{}
	}
	if opts.Usage == nil {
		opts.Usage = &Usage{}
	}
	if opts.Provider == "" {
		opts.Provider = ProviderForKey(opts.APIKey)
	}
	return &Pipeline{
		generator:   opts.Generator,
		provider:    opts.Provider,
		apiKey:      opts.APIKey,
		aspectRatio: opts.AspectRatio,
		quota:       opts.Quota,
		usage:       opts.Usage,
		retry:       opts.Retry,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Quota exposes the shared quota state for the monitoring surface.
func (p *Pipeline) Quota() *QuotaState { return p.quota }

// Usage exposes the shared usage counters for the monitoring surface.
func (p *Pipeline) Usage() *Usage { return p.usage }

// Provider names the configured image provider.
func (p *Pipeline) Provider() string { return p.provider }

// KeyConfigured reports whether an API key is set.
func (p *Pipeline) KeyConfigured() bool { return p.apiKey != "" }

// GenerateForContent renders the markers found in req.Content, honouring
// uploaded images, the shared quota window and the retry policy. It never
// returns an error: every failure mode is encoded in the report status.
func (p *Pipeline) GenerateForContent(ctx context.Context, req Request) Result {
	report := domain.ImageReport{Provider: p.provider, Status: domain.ImageStatusIdle, Errors: []domain.ImageError{}}

	uploaded := req.Payload.Images
	requested := 0
	if req.Payload.IncludeImages {
		requested = req.Payload.ImageCount
	}
	toGenerate := requested - len(uploaded)

	if requested == 0 {
		report.Status = domain.ImageStatusSkipped
		return Result{Report: report}
	}
	if p.apiKey == "" || p.generator == nil {
		report.Status = domain.ImageStatusMissingKey
		report.Errors = append(report.Errors, domain.ImageError{Reason: "no image API key configured"})
		p.usage.RecordPass(report, p.now())
		return Result{Report: report}
	}
	if !LikelyAPIKey(p.apiKey) {
		report.Status = domain.ImageStatusInvalidKey
		report.Errors = append(report.Errors, domain.ImageError{Reason: "unrecognized image API key format"})
		p.usage.RecordPass(report, p.now())
		return Result{Report: report}
	}
	if remaining, blocked := p.quota.Blocked(p.now()); blocked {
		report.Status = domain.ImageStatusQuotaBlocked
		report.RetryAfterSeconds = int(remaining.Seconds()) + 1
		p.usage.RecordPass(report, p.now())
		return Result{Report: report}
	}

	markers := ExtractMarkers(req.Content)
	if len(markers) == 0 || toGenerate <= 0 {
		report.Status = domain.ImageStatusNoMarkers
		return Result{Report: report}
	}

	report.Attempted = true
	report.Status = domain.ImageStatusAttempted

	// Uploaded images occupy the leading marker slots.
	start := len(uploaded)
	if start > len(markers) {
		start = len(markers)
	}
	eligible := markers[start:]
	if len(eligible) > toGenerate {
		eligible = eligible[:toGenerate]
	}

	var images []string
slots:
	for i, raw := range eligible {
		markerIndex := start + i
		prompt := p.buildPrompt(req.Payload, ParseMarker(raw), req.Seed+markerIndex)
		finalReason := ""

		for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
			p.progress(req, Progress{
				Done:    i,
				Total:   len(eligible),
				Message: attemptMessage(i, len(eligible), attempt, p.retry.MaxAttempts),
				Meta:    map[string]any{"index": markerIndex, "attempt": attempt, "maxAttempts": p.retry.MaxAttempts},
			})

			uri, err := p.generateOne(ctx, prompt)
			if err == nil {
				images = append(images, uri)
				report.Generated = len(images)
				p.progress(req, Progress{
					Done:    i + 1,
					Total:   len(eligible),
					Message: fmt.Sprintf("Created image %d of %d.", i+1, len(eligible)),
					Meta:    map[string]any{"index": markerIndex, "attempt": attempt, "ok": true},
				})
				finalReason = ""
				break
			}

			reason := err.Error()
			if quotaStatus := QuotaStatusFromReason(reason); quotaStatus != "" {
				report.Status = quotaStatus
				retryAfter := RetryDelaySeconds(reason)
				if retryAfter > 0 {
					report.RetryAfterSeconds = retryAfter
				}
				block := time.Minute
				if retryAfter > 0 {
					block = time.Duration(retryAfter) * time.Second
				}
				p.quota.Block(p.now(), block, quotaStatus)
				report.Errors = append(report.Errors, domain.ImageError{Index: markerIndex, Reason: reason})
				break slots
			}

			finalReason = reason
			if attempt < p.retry.MaxAttempts && retryableReason(reason) {
				wait := p.retry.BaseDelay<<(attempt-1) + time.Duration(rand.Intn(250))*time.Millisecond
				if err := p.sleep(ctx, wait); err != nil {
					break
				}
				continue
			}
			break
		}

		if finalReason != "" {
			report.Errors = append(report.Errors, domain.ImageError{Index: markerIndex, Reason: finalReason})
		}
	}

	if report.Status == domain.ImageStatusAttempted {
		switch {
		case len(images) > 0:
			report.Status = domain.ImageStatusOK
		case len(report.Errors) > 0:
			report.Status = domain.ImageStatusFailed
		}
	}
	p.usage.RecordPass(report, p.now())
	return Result{Images: images, Report: report}
}

func (p *Pipeline) generateOne(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	uri, err := p.generator.GenerateDataURI(callCtx, PromptRequest{Prompt: prompt, AspectRatio: p.aspectRatio})
	if err != nil {
		return "", err
	}
	if uri == "" {
		return "", fmt.Errorf("provider returned an empty image")
	}
	return uri, nil
}

// buildPrompt keeps regenerated prompts reproducible: the same job seed and
// marker slot always produce the same variation token.
func (p *Pipeline) buildPrompt(payload domain.GeneratePayload, marker Marker, variation int) string {
	lines := []string{
		"Create a high-quality educational illustration.",
		"No text, no watermarks, no logos.",
		"Topic: " + payload.Topic,
		"Subject: " + payload.Subject,
	}
	if marker.SectionTitle != "" {
		lines = append(lines, "Section: "+marker.SectionTitle)
	}
	if marker.Keywords != "" {
		lines = append(lines, "Keywords: "+marker.Keywords)
	}
	lines = append(lines, fmt.Sprintf("Variation: %d", variation))
	return strings.Join(lines, "\n")
}

func (p *Pipeline) progress(req Request, progress Progress) {
	if req.OnProgress != nil {
		req.OnProgress(progress)
	}
}

func attemptMessage(index, total, attempt, maxAttempts int) string {
	if attempt == 1 {
		return fmt.Sprintf("Creating image %d of %d…", index+1, total)
	}
	return fmt.Sprintf("Retrying image %d (attempt %d/%d)…", index+1, attempt, maxAttempts)
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
