package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"neuromatch/internal/types"
)

// sseWriter writes named Server-Sent Events and comment lines
type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

// init sends the stream headers and lifts the server write deadline, which
// a long report would otherwise hit
func (sw *sseWriter) init() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	sw.w.WriteHeader(http.StatusOK)
	_ = sw.rc.SetWriteDeadline(time.Time{})
	sw.flush()
}

// writeEvent writes one event as
//
//	event: <type>
//	data: <json>
func (sw *sseWriter) writeEvent(ev types.Event) error {
	if ev.Type == types.EventKeepAlive {
		return sw.writeComment("keep-alive")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sse: marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	sw.flush()
	return nil
}

func (sw *sseWriter) writeComment(text string) error {
	if _, err := fmt.Fprintf(sw.w, ": %s\n\n", text); err != nil {
		return fmt.Errorf("sse: write comment: %w", err)
	}
	sw.flush()
	return nil
}

func (sw *sseWriter) flush() {
	_ = sw.rc.Flush()
}
