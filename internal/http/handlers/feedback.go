package handlers

import (
	"net/http"
	"strconv"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// CreateFeedback records a user rating for a job. The job does not have to
// still be resident; feedback on evicted jobs is accepted.
func (a *App) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var entry domain.Feedback
	if !a.decode(w, r, &entry) {
		return
	}
	if errs := domain.ValidateFeedback(&entry); len(errs) > 0 {
		a.fieldErrors(w, errs)
		return
	}
	stored := a.Feedback.Add(entry)
	a.json(w, http.StatusCreated, stored)
}

// RecentFeedback lists the newest feedback entries for the monitoring
// surface.
func (a *App) RecentFeedback(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	a.json(w, http.StatusOK, map[string]any{
		"items": a.Feedback.Recent(limit),
		"size":  a.Feedback.Size(),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
