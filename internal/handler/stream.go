package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/parley/parley-go/internal/model"
)

// sseWriter frames stream events as server-sent events. Headers are written
// with the first event so errors found earlier can still use a plain status.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) Send(event model.StreamEvent) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		// A stream can outlive the server's write timeout.
		_ = s.rc.SetWriteDeadline(time.Time{})
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}
