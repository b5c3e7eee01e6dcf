package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Feedback is one user rating for a finished job. Entries live in a bounded
// in-memory collection, not a permanent store.
type Feedback struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Notes     string    `json:"notes" validate:"max=2000"`
	Tags      []string  `json:"tags" validate:"max=10,dive,max=32"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateFeedback trims and validates a feedback entry before it enters the
// store. A non-empty error list means the entry must be rejected.
func ValidateFeedback(f *Feedback) []FieldError {
	f.JobID = strings.TrimSpace(f.JobID)
	f.Notes = strings.TrimSpace(f.Notes)
	tags := f.Tags[:0]
	for _, tag := range f.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	f.Tags = tags

	err := payloadValidator.Struct(f)
	if err == nil {
		return nil
	}
	var errs []FieldError
	var invalid validator.ValidationErrors
	if isValidationErrors(err, &invalid) {
		for _, fe := range invalid {
			errs = append(errs, FieldError{Field: jsonFieldName(fe.Field()), Message: describeValidation(fe)})
		}
	} else {
		errs = append(errs, FieldError{Field: "feedback", Message: err.Error()})
	}
	return errs
}
