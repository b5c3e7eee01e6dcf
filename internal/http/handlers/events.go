package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

const defaultHeartbeat = 15 * time.Second

// JobEvents streams a job's progress over Server-Sent Events. The stream
// opens with an `event: snapshot` frame, replays buffered progress events
// after the client's resume point, then forwards live events until the job
// reaches a terminal stage or the client disconnects. Keepalive comments go
// out every heartbeat interval so proxies keep the connection open.
func (a *App) JobEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.fail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	after := resumeSeq(r)

	// Subscribe before reading the snapshot so no event published in between
	// is lost; replayed duplicates are filtered by sequence number below.
	sub, err := a.Store.Subscribe(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	defer a.Store.Unsubscribe(id, sub)

	snap, _, err := a.Store.Snapshot(id)
	if err != nil {
		a.jobError(w, err)
		return
	}
	replay, complete, err := a.Store.EventsAfter(id, after)
	if err != nil {
		a.jobError(w, err)
		return
	}
	if !complete {
		// The log was truncated past the resume point; the snapshot carries
		// the authoritative state, so resend everything still buffered.
		replay, _, err = a.Store.EventsAfter(id, 0)
		if err != nil {
			a.jobError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, "snapshot", "", snap)
	lastSeq := after
	for _, evt := range replay {
		writeFrame(w, "progress", evt.ID, evt)
		lastSeq = evt.Seq
	}
	flusher.Flush()

	// Nothing more will be published once the snapshot already reflects a
	// terminal state and the replay caught the client up to it.
	if snap.Status.Terminal() && lastSeq >= snap.LastEventSeq {
		return
	}

	heartbeat := a.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ":keepalive %d\n\n", time.Now().UnixMilli())
			flusher.Flush()
		case evt, open := <-sub.Events():
			if !open {
				return
			}
			if evt.Seq <= lastSeq {
				continue
			}
			writeFrame(w, "progress", evt.ID, evt)
			lastSeq = evt.Seq
			flusher.Flush()
			if terminalStage(evt.Stage) {
				return
			}
		}
	}
}

// resumeSeq extracts the client's resume point from the Last-Event-ID header
// (format "jobID:seq") or the `after` query parameter.
func resumeSeq(r *http.Request) int {
	if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
		if idx := strings.LastIndex(lastID, ":"); idx >= 0 {
			if seq, err := strconv.Atoi(lastID[idx+1:]); err == nil && seq > 0 {
				return seq
			}
		}
	}
	if after := r.URL.Query().Get("after"); after != "" {
		if seq, err := strconv.Atoi(after); err == nil && seq > 0 {
			return seq
		}
	}
	return 0
}

func writeFrame(w io.Writer, event, id string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func terminalStage(stage string) bool {
	switch stage {
	case domain.StageCompleted, domain.StageFailed, domain.StageCancelled:
		return true
	}
	return false
}
