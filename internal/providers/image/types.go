// Package image implements the best-effort image generation stage: marker
// extraction from generated content, seeded prompt building, per-image retry
// and failure classification. Pipeline results never fail a job; the caller
// turns them into warnings.
package image

import (
	"context"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// PromptRequest is one image slot to render.
type PromptRequest struct {
	Prompt      string
	AspectRatio string
}

// Generator renders one prompt into a data URI. Implementations call an
// external provider and must honour ctx deadlines.
type Generator interface {
	GenerateDataURI(ctx context.Context, req PromptRequest) (string, error)
}

// Request carries everything a pipeline pass needs.
type Request struct {
	Payload    domain.GeneratePayload
	Content    string
	Seed       int
	OnProgress func(Progress)
}

// Progress reports per-image advancement for event emission.
type Progress struct {
	Done    int
	Total   int
	Message string
	Meta    map[string]any
}

// Result is the outcome of one pipeline pass.
type Result struct {
	Images []string
	Report domain.ImageReport
}
