// Package jobstore holds the in-memory registry of generation jobs, their
// replayable event logs and the live subscribers attached to them. It is the
// only shared mutable state in the service; every method is safe for
// concurrent use.
package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// Config tunes the registry. Zero values fall back to defaults.
type Config struct {
	TTL              time.Duration
	MaxEvents        int
	SweepInterval    time.Duration
	SubscriberBuffer int
}

const (
	defaultTTL              = 24 * time.Hour
	defaultMaxEvents        = 300
	defaultSweepInterval    = time.Minute
	defaultSubscriberBuffer = 64
)

// Event is the caller-supplied part of a progress event; the store assigns
// id, seq and timestamp.
type Event struct {
	Stage   string
	Message string
	Percent int
	Meta    map[string]any
	Error   *domain.JobError
}

// Subscriber is one live listener on a job's event stream. The channel is
// closed when the job is evicted or the subscriber is removed.
type Subscriber struct {
	ch     chan domain.ProgressEvent
	closed bool
}

// Events returns the receive side of the subscription.
func (s *Subscriber) Events() <-chan domain.ProgressEvent {
	return s.ch
}

// Store is the authoritative registry of active jobs.
type Store struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	jobs   map[string]*domain.JobRecord
	subs   map[string][]*Subscriber
	active map[string]struct{}
	now    func() time.Time
}

// New creates an empty registry.
func New(cfg Config, logger zerolog.Logger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = defaultMaxEvents
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = defaultSubscriberBuffer
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*domain.JobRecord),
		subs:   make(map[string][]*Subscriber),
		active: make(map[string]struct{}),
		now:    time.Now,
	}
}

// Create registers a new queued job owning the given payload.
func (s *Store) Create(payload domain.GeneratePayload, seed, maxAttempts int) domain.JobRecord {
	now := s.clock()
	job := &domain.JobRecord{
		ID:          uuid.NewString(),
		Status:      domain.JobStatusQueued,
		Stage:       domain.StageQueued,
		Message:     "Queued",
		Percent:     0,
		Attempt:     1,
		MaxAttempts: maxAttempts,
		Payload:     payload,
		Seed:        seed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return cloneRecord(job)
}

// Get returns a copy of the record, or domain.ErrNotFound when the id is
// unknown or the record has expired. Expired records are evicted on the spot.
func (s *Store) Get(id string) (domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.liveJobLocked(id)
	if err != nil {
		return domain.JobRecord{}, err
	}
	return cloneRecord(job), nil
}

// Update applies fn to the record under the store lock and bumps UpdatedAt.
// fn must not block and must not call back into the store. Update does not
// emit an event; callers emit explicitly when visible progress changes.
func (s *Store) Update(id string, fn func(*domain.JobRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.liveJobLocked(id)
	if err != nil {
		return err
	}
	fn(job)
	job.UpdatedAt = s.clock()
	return nil
}

// Emit appends a progress event to the job's bounded log and forwards it to
// every live subscriber in registration order. Slow subscribers whose buffer
// is full miss the live delivery and catch up via replay.
func (s *Store) Emit(id string, evt Event) (domain.ProgressEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.liveJobLocked(id)
	if err != nil {
		return domain.ProgressEvent{}, err
	}

	job.Seq++
	event := domain.ProgressEvent{
		ID:      fmt.Sprintf("%s:%d", job.ID, job.Seq),
		JobID:   job.ID,
		Seq:     job.Seq,
		TS:      s.clock(),
		Stage:   evt.Stage,
		Message: evt.Message,
		Percent: evt.Percent,
		Meta:    evt.Meta,
		Error:   evt.Error,
	}
	job.Events = append(job.Events, event)
	if overflow := len(job.Events) - s.cfg.MaxEvents; overflow > 0 {
		job.Events = append(job.Events[:0], job.Events[overflow:]...)
	}
	job.UpdatedAt = event.TS

	for _, sub := range s.subs[id] {
		select {
		case sub.ch <- event:
		default:
			s.logger.Debug().Str("job_id", id).Int("seq", event.Seq).Msg("jobstore: subscriber buffer full, dropping live event")
		}
	}
	return event, nil
}

// EventsAfter returns the buffered events with seq > after in order. The
// second return value is false when the log has been truncated past `after`,
// meaning the caller cannot reconstruct the gap and should fall back to a
// full snapshot.
func (s *Store) EventsAfter(id string, after int) ([]domain.ProgressEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.liveJobLocked(id)
	if err != nil {
		return nil, false, err
	}
	complete := true
	if len(job.Events) > 0 && job.Events[0].Seq > after+1 {
		complete = false
	}
	var out []domain.ProgressEvent
	for _, evt := range job.Events {
		if evt.Seq > after {
			out = append(out, evt)
		}
	}
	return out, complete, nil
}

// Subscribe attaches a live listener to the job's event stream.
func (s *Store) Subscribe(id string) (*Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.liveJobLocked(id); err != nil {
		return nil, err
	}
	sub := &Subscriber{ch: make(chan domain.ProgressEvent, s.cfg.SubscriberBuffer)}
	s.subs[id] = append(s.subs[id], sub)
	return sub, nil
}

// Unsubscribe detaches a listener and closes its channel. Safe to call more
// than once and after eviction.
func (s *Store) Unsubscribe(id string, sub *Subscriber) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[id]
	for i, candidate := range subs {
		if candidate == sub {
			s.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subs[id]) == 0 {
		delete(s.subs, id)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// TryAcquire claims the single runner slot for a job. It fails with
// domain.ErrJobActive when a runner already holds the slot.
func (s *Store) TryAcquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.liveJobLocked(id); err != nil {
		return err
	}
	if _, busy := s.active[id]; busy {
		return domain.ErrJobActive
	}
	s.active[id] = struct{}{}
	return nil
}

// Release frees the runner slot.
func (s *Store) Release(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

// Snapshot returns the external view plus the merged result for completed
// jobs.
func (s *Store) Snapshot(id string) (domain.JobSnapshot, *domain.JobResult, error) {
	job, err := s.Get(id)
	if err != nil {
		return domain.JobSnapshot{}, nil, err
	}
	return job.Snapshot(), job.Result(), nil
}

// Run drives the TTL sweep until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.sweepOnce(); evicted > 0 {
				s.logger.Info().Int("evicted", evicted).Msg("jobstore: ttl sweep")
			}
		}
	}
}

// sweepOnce evicts every record idle past the TTL and reports how many.
func (s *Store) sweepOnce() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	evicted := 0
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.cfg.TTL {
			s.evictLocked(id)
			evicted++
		}
	}
	return evicted
}

func (s *Store) liveJobLocked(id string) (*domain.JobRecord, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.clock().Sub(job.UpdatedAt) > s.cfg.TTL {
		s.evictLocked(id)
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *Store) evictLocked(id string) {
	delete(s.jobs, id)
	delete(s.active, id)
	for _, sub := range s.subs[id] {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	delete(s.subs, id)
}

func (s *Store) clock() time.Time {
	return s.now()
}

func cloneRecord(job *domain.JobRecord) domain.JobRecord {
	out := *job
	out.Events = append([]domain.ProgressEvent(nil), job.Events...)
	out.GeneratedImages = append([]string(nil), job.GeneratedImages...)
	out.Payload.Images = append([]string(nil), job.Payload.Images...)
	if job.Warning != nil {
		w := *job.Warning
		out.Warning = &w
	}
	if job.Error != nil {
		e := *job.Error
		out.Error = &e
	}
	if job.ImageReport != nil {
		r := *job.ImageReport
		r.Errors = append([]domain.ImageError(nil), job.ImageReport.Errors...)
		out.ImageReport = &r
	}
	return out
}
