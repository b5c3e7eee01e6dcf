package handlers_test

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

type sseFrame struct {
	Event string
	ID    string
	Data  string
}

func parseSSE(body string) []sseFrame {
	var frames []sseFrame
	var current sseFrame
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "id: "):
			current.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.Event != "" || current.Data != "" {
				frames = append(frames, current)
			}
			current = sseFrame{}
		}
	}
	return frames
}

func TestJobEventsReplaysTerminalJob(t *testing.T) {
	api := newTestAPI(t)
	id := api.createJob(t, validJobBody())
	api.waitForStatus(t, id, domain.JobStatusCompleted)

	rec := api.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%s/events", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	frames := parseSSE(rec.Body.String())
	if len(frames) < 2 {
		t.Fatalf("frames = %d, want snapshot plus progress", len(frames))
	}
	if frames[0].Event != "snapshot" {
		t.Fatalf("first frame = %q, want snapshot", frames[0].Event)
	}
	last := frames[len(frames)-1]
	if last.Event != "progress" || !strings.Contains(last.Data, `"stage":"completed"`) {
		t.Fatalf("last frame %+v", last)
	}
	for _, frame := range frames[1:] {
		if frame.ID == "" {
			t.Fatalf("progress frame without id: %+v", frame)
		}
	}
}

func TestJobEventsResumesAfterLastEventID(t *testing.T) {
	api := newTestAPI(t)
	id := api.createJob(t, validJobBody())
	done := api.waitForStatus(t, id, domain.JobStatusCompleted)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/jobs/%s/events", id), nil)
	req.Header.Set("Last-Event-ID", fmt.Sprintf("%s:%d", id, done.Seq-1))
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	frames := parseSSE(rec.Body.String())
	var progress []sseFrame
	for _, frame := range frames {
		if frame.Event == "progress" {
			progress = append(progress, frame)
		}
	}
	if len(progress) != 1 {
		t.Fatalf("progress frames = %d, want only the final event", len(progress))
	}
	if want := fmt.Sprintf("%s:%d", id, done.Seq); progress[0].ID != want {
		t.Fatalf("id = %q, want %q", progress[0].ID, want)
	}
}

func TestJobEventsUnknownJob(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/jobs/nope/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestJobEventsStreamsLiveRun(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	id := api.createJob(t, validJobBody())

	resp, err := http.Get(srv.URL + fmt.Sprintf("/api/jobs/%s/events", id))
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	sawSnapshot := false
	sawCompleted := false
	deadline := time.After(5 * time.Second)
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for !sawCompleted {
		select {
		case <-deadline:
			t.Fatal("stream never reached the terminal event")
		case line, open := <-lines:
			if !open {
				t.Fatalf("stream closed early (snapshot=%v)", sawSnapshot)
			}
			if line == "event: snapshot" {
				sawSnapshot = true
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"stage":"completed"`) {
				sawCompleted = true
			}
		}
	}
	if !sawSnapshot {
		t.Fatal("missing snapshot frame")
	}
}
