package image

import (
	"sync"
	"time"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// QuotaState remembers provider quota blocks across jobs so one exhausted
// quota does not burn attempts on every subsequent job.
type QuotaState struct {
	mu            sync.Mutex
	blockedUntil  time.Time
	lastFailure   domain.ImageStatus
	lastFailureAt time.Time
}

// Blocked reports the remaining block window, if any.
func (q *QuotaState) Blocked(now time.Time) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.blockedUntil.After(now) {
		return q.blockedUntil.Sub(now), true
	}
	return 0, false
}

// Block opens a block window after a quota failure.
func (q *QuotaState) Block(now time.Time, d time.Duration, status domain.ImageStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.blockedUntil = now.Add(d)
	q.lastFailure = status
	q.lastFailureAt = now
}

// QuotaSnapshot is the monitoring view of the quota state.
type QuotaSnapshot struct {
	BlockedUntil      int64  `json:"blockedUntil"`
	LastFailureReason string `json:"lastFailureReason,omitempty"`
	LastFailureAt     int64  `json:"lastFailureAt,omitempty"`
}

// Snapshot returns the monitoring view.
func (q *QuotaState) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	snap := QuotaSnapshot{LastFailureReason: string(q.lastFailure)}
	if !q.blockedUntil.IsZero() {
		snap.BlockedUntil = q.blockedUntil.UnixMilli()
	}
	if !q.lastFailureAt.IsZero() {
		snap.LastFailureAt = q.lastFailureAt.UnixMilli()
	}
	return snap
}

// Usage accumulates image generation counters for the monitoring surface.
type Usage struct {
	mu                    sync.Mutex
	generateRequests      int
	imagesRequested       int
	imageAttempts         int
	imagesGenerated       int
	lastStatus            domain.ImageStatus
	lastAttemptAt         time.Time
	lastRetryAfterSeconds int
}

// RecordRequest counts one generation request asking for n images.
func (u *Usage) RecordRequest(n int) {
	u.mu.Lock()
	u.generateRequests++
	u.imagesRequested += n
	u.mu.Unlock()
}

// RecordPass counts one pipeline pass outcome.
func (u *Usage) RecordPass(report domain.ImageReport, now time.Time) {
	u.mu.Lock()
	if report.Attempted {
		u.imageAttempts++
		u.lastAttemptAt = now
		u.lastRetryAfterSeconds = report.RetryAfterSeconds
	}
	u.imagesGenerated += report.Generated
	u.lastStatus = report.Status
	u.mu.Unlock()
}

// UsageSnapshot is the monitoring view of the counters.
type UsageSnapshot struct {
	GenerateRequests      int    `json:"generateRequests"`
	ImagesRequested       int    `json:"imagesRequested"`
	ImageAttempts         int    `json:"imageAttempts"`
	ImagesGenerated       int    `json:"imagesGenerated"`
	LastStatus            string `json:"lastStatus,omitempty"`
	LastAttemptAt         int64  `json:"lastAttemptAt,omitempty"`
	LastRetryAfterSeconds int    `json:"lastRetryAfterSeconds,omitempty"`
}

// Snapshot returns the monitoring view.
func (u *Usage) Snapshot() UsageSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	snap := UsageSnapshot{
		GenerateRequests:      u.generateRequests,
		ImagesRequested:       u.imagesRequested,
		ImageAttempts:         u.imageAttempts,
		ImagesGenerated:       u.imagesGenerated,
		LastStatus:            string(u.lastStatus),
		LastRetryAfterSeconds: u.lastRetryAfterSeconds,
	}
	if !u.lastAttemptAt.IsZero() {
		snap.LastAttemptAt = u.lastAttemptAt.UnixMilli()
	}
	return snap
}
