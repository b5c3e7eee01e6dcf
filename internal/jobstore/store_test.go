package jobstore

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

func testPayload() domain.GeneratePayload {
	return domain.GeneratePayload{
		Topic:    "Introduction to Python",
		Subject:  "Computer Science",
		Level:    "College",
		Length:   "Short",
		Style:    "Academic",
		Pages:    1,
		Language: "English",
	}
}

func newTestStore(cfg Config) *Store {
	return New(cfg, zerolog.Nop())
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 42, 3)

	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("status = %q, want queued", job.Status)
	}
	if job.Seed != 42 {
		t.Fatalf("seed = %d, want 42", job.Seed)
	}

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != job.ID || got.MaxAttempts != 3 {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := store.Get("missing"); err != domain.ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 1, 3)

	first, _ := store.Get(job.ID)
	first.Status = domain.JobStatusFailed
	first.Payload.Topic = "mutated"

	second, _ := store.Get(job.ID)
	if second.Status != domain.JobStatusQueued {
		t.Fatalf("store record was mutated through a copy: %q", second.Status)
	}
	if second.Payload.Topic != "Introduction to Python" {
		t.Fatalf("payload was mutated through a copy: %q", second.Payload.Topic)
	}
}

func TestEmitSequenceAndBoundedLog(t *testing.T) {
	store := newTestStore(Config{MaxEvents: 5})
	job := store.Create(testPayload(), 1, 3)

	for i := 0; i < 8; i++ {
		if _, err := store.Emit(job.ID, Event{Stage: domain.StageGeneratingContent, Message: "tick", Percent: i * 10}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	got, _ := store.Get(job.ID)
	if got.Seq != 8 {
		t.Fatalf("seq = %d, want 8", got.Seq)
	}
	if len(got.Events) != 5 {
		t.Fatalf("len(events) = %d, want 5", len(got.Events))
	}
	for i, evt := range got.Events {
		want := 4 + i // oldest three evicted
		if evt.Seq != want {
			t.Fatalf("events[%d].Seq = %d, want %d", i, evt.Seq, want)
		}
	}
}

func TestEventsAfterReplay(t *testing.T) {
	store := newTestStore(Config{MaxEvents: 10})
	job := store.Create(testPayload(), 1, 3)
	for i := 1; i <= 6; i++ {
		_, _ = store.Emit(job.ID, Event{Stage: domain.StageGeneratingContent, Message: "tick", Percent: i})
	}

	events, complete, err := store.EventsAfter(job.ID, 4)
	if err != nil {
		t.Fatalf("EventsAfter: %v", err)
	}
	if !complete {
		t.Fatal("expected complete replay")
	}
	if len(events) != 2 || events[0].Seq != 5 || events[1].Seq != 6 {
		t.Fatalf("unexpected replay: %+v", events)
	}
}

func TestEventsAfterTruncated(t *testing.T) {
	store := newTestStore(Config{MaxEvents: 3})
	job := store.Create(testPayload(), 1, 3)
	for i := 1; i <= 6; i++ {
		_, _ = store.Emit(job.ID, Event{Stage: domain.StageGeneratingContent, Message: "tick", Percent: i})
	}

	// Log now holds seq 4..6; a client resuming from seq 1 has a gap.
	_, complete, err := store.EventsAfter(job.ID, 1)
	if err != nil {
		t.Fatalf("EventsAfter: %v", err)
	}
	if complete {
		t.Fatal("expected truncated replay to be flagged")
	}

	// Replaying from scratch has the same gap: seq 1..3 are gone.
	_, complete, err = store.EventsAfter(job.ID, 0)
	if err != nil {
		t.Fatalf("EventsAfter: %v", err)
	}
	if complete {
		t.Fatal("expected full replay against a truncated log to be flagged")
	}

	// Resuming from the last evicted event needs no missing entries.
	events, complete, err := store.EventsAfter(job.ID, 3)
	if err != nil {
		t.Fatalf("EventsAfter: %v", err)
	}
	if !complete || len(events) != 3 {
		t.Fatalf("complete=%v len=%d, want full tail", complete, len(events))
	}
}

func TestSubscribeReceivesLiveEvents(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 1, 3)

	sub, err := store.Subscribe(job.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer store.Unsubscribe(job.ID, sub)

	emitted, err := store.Emit(job.ID, Event{Stage: domain.StageAnalyzing, Message: "Analyzing requirements", Percent: 5})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case got := <-sub.Events():
		if got.Seq != emitted.Seq || got.Message != "Analyzing requirements" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no live event delivered")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 1, 3)
	sub, _ := store.Subscribe(job.ID)

	store.Unsubscribe(job.ID, sub)
	store.Unsubscribe(job.ID, sub) // second call must not panic

	if _, open := <-sub.Events(); open {
		t.Fatal("expected channel to be closed")
	}
}

func TestTTLEvictionDetachesSubscribers(t *testing.T) {
	store := newTestStore(Config{TTL: 10 * time.Millisecond})
	job := store.Create(testPayload(), 1, 3)
	sub, _ := store.Subscribe(job.ID)

	store.now = func() time.Time { return time.Now().Add(time.Minute) }
	if evicted := store.sweepOnce(); evicted != 1 {
		t.Fatalf("sweepOnce evicted %d, want 1", evicted)
	}

	if _, err := store.Get(job.ID); err != domain.ErrNotFound {
		t.Fatalf("Get after eviction = %v, want ErrNotFound", err)
	}
	select {
	case _, open := <-sub.Events():
		if open {
			t.Fatal("expected subscriber channel closed on eviction")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}
}

func TestLazyEvictionOnGet(t *testing.T) {
	store := newTestStore(Config{TTL: 10 * time.Millisecond})
	job := store.Create(testPayload(), 1, 3)

	store.now = func() time.Time { return time.Now().Add(time.Minute) }
	if _, err := store.Get(job.ID); err != domain.ErrNotFound {
		t.Fatalf("expected lazy eviction, got %v", err)
	}
}

func TestTryAcquireExclusivity(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 1, 3)

	if err := store.TryAcquire(job.ID); err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	if err := store.TryAcquire(job.ID); err != domain.ErrJobActive {
		t.Fatalf("second TryAcquire = %v, want ErrJobActive", err)
	}
	store.Release(job.ID)
	if err := store.TryAcquire(job.ID); err != nil {
		t.Fatalf("TryAcquire after release: %v", err)
	}
}

func TestUpdateBumpsUpdatedAt(t *testing.T) {
	store := newTestStore(Config{})
	job := store.Create(testPayload(), 1, 3)

	before, _ := store.Get(job.ID)
	store.now = func() time.Time { return before.UpdatedAt.Add(time.Second) }

	err := store.Update(job.ID, func(j *domain.JobRecord) {
		j.Status = domain.JobStatusRunning
		j.Stage = domain.StageAnalyzing
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, _ := store.Get(job.ID)
	if after.Status != domain.JobStatusRunning {
		t.Fatalf("status = %q, want running", after.Status)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("UpdatedAt was not bumped")
	}
}
