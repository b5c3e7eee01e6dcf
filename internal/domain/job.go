package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal jobs never resume on
// their own; only an explicit recovery action on a completed job re-enters the
// runner.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Stage labels for the generation workflow.
const (
	StageQueued            = "queued"
	StageAnalyzing         = "analyzing"
	StageGeneratingContent = "generating_content"
	StageGeneratingImages  = "generating_images"
	StageCompleted         = "completed"
	StageFailed            = "failed"
	StageCancelled         = "cancelled"
)

// JobError describes why a job failed.
type JobError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ImageStatus classifies the outcome of the image-generation stage.
type ImageStatus string

const (
	ImageStatusIdle            ImageStatus = "idle"
	ImageStatusAttempted       ImageStatus = "attempted"
	ImageStatusOK              ImageStatus = "ok"
	ImageStatusQuotaExceeded   ImageStatus = "quota_exceeded"
	ImageStatusQuotaBlocked    ImageStatus = "quota_blocked"
	ImageStatusBillingRequired ImageStatus = "billing_required"
	ImageStatusMissingKey      ImageStatus = "missing_key"
	ImageStatusInvalidKey      ImageStatus = "invalid_key"
	ImageStatusFailed          ImageStatus = "failed"
	ImageStatusSkipped         ImageStatus = "skipped"
	ImageStatusNoMarkers       ImageStatus = "no_markers"
	ImageStatusUploadedOnly    ImageStatus = "uploaded_only"
)

// ImageError records a single failed image slot.
type ImageError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImageReport summarizes an image-generation pass. Image problems never fail a
// job; the report (and the derived Warning) is how they surface.
type ImageReport struct {
	Provider          string       `json:"provider,omitempty"`
	Status            ImageStatus  `json:"status"`
	Attempted         bool         `json:"attempted"`
	Generated         int          `json:"generated"`
	Errors            []ImageError `json:"errors"`
	RetryAfterSeconds int          `json:"retryAfterSeconds,omitempty"`
}

// Warning flags a non-fatal problem on a completed job, for example images
// that could not be generated. It carries the image status classifier so
// clients can offer the matching recovery action.
type Warning struct {
	Status  ImageStatus  `json:"status"`
	Message string       `json:"message"`
	Errors  []ImageError `json:"errors,omitempty"`
}

// ProgressEvent is one entry of a job's replayable event log.
type ProgressEvent struct {
	ID      string         `json:"id"`
	JobID   string         `json:"jobId"`
	Seq     int            `json:"seq"`
	TS      time.Time      `json:"ts"`
	Stage   string         `json:"stage"`
	Message string         `json:"message"`
	Percent int            `json:"percent"`
	Meta    map[string]any `json:"meta,omitempty"`
	Error   *JobError      `json:"error,omitempty"`
}

// JobRecord tracks one end-to-end generation request. Records live in the
// in-memory store only and are evicted after a TTL measured from UpdatedAt,
// regardless of status.
type JobRecord struct {
	ID              string
	Status          JobStatus
	Stage           string
	Message         string
	Percent         int
	Attempt         int
	MaxAttempts     int
	Payload         GeneratePayload
	Seed            int
	Content         string
	GeneratedImages []string
	ImageReport     *ImageReport
	Warning         *Warning
	Error           *JobError
	Cancelled       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Seq             int
	Events          []ProgressEvent
}

// JobSnapshot is the externally visible state of a job.
type JobSnapshot struct {
	ID           string    `json:"id"`
	Status       JobStatus `json:"status"`
	Stage        string    `json:"stage"`
	Message      string    `json:"message"`
	Percent      int       `json:"percent"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"maxAttempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Warning      *Warning  `json:"warning"`
	Error        *JobError `json:"error"`
	LastEventSeq int       `json:"lastEventSeq"`
}

// JobResult merges the payload with the generated output. It is only
// populated once a job completes.
type JobResult struct {
	GeneratePayload
	Seed            int          `json:"seed"`
	Content         string       `json:"content"`
	GeneratedImages []string     `json:"generatedImages"`
	ImageGeneration *ImageReport `json:"imageGeneration"`
}

// Snapshot builds the external view of the record.
func (j *JobRecord) Snapshot() JobSnapshot {
	return JobSnapshot{
		ID:           j.ID,
		Status:       j.Status,
		Stage:        j.Stage,
		Message:      j.Message,
		Percent:      j.Percent,
		Attempt:      j.Attempt,
		MaxAttempts:  j.MaxAttempts,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		Warning:      j.Warning,
		Error:        j.Error,
		LastEventSeq: j.Seq,
	}
}

// Result returns the merged result for completed jobs, nil otherwise.
func (j *JobRecord) Result() *JobResult {
	if j.Status != JobStatusCompleted {
		return nil
	}
	report := j.ImageReport
	if report == nil {
		report = &ImageReport{Status: ImageStatusIdle, Errors: []ImageError{}}
	}
	images := j.GeneratedImages
	if images == nil {
		images = []string{}
	}
	return &JobResult{
		GeneratePayload: j.Payload,
		Seed:            j.Seed,
		Content:         j.Content,
		GeneratedImages: images,
		ImageGeneration: report,
	}
}
