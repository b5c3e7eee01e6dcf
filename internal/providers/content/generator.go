// Package content implements the document generation stage: provider clients
// for Gemini and OpenAI text models, a deterministic template generator used
// as the final fallback, and the quality gate every draft must pass before a
// job can complete.
package content

import (
	"context"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// Generator produces a markdown document for a normalized payload. The seed
// makes regeneration reproducible for the same job.
type Generator interface {
	Generate(ctx context.Context, payload domain.GeneratePayload, seed int) (string, error)
	Name() string
}
