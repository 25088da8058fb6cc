// internal/server/sse.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"autoapply/internal/models"
)

// sseSink buffers progress events for one connected client. The
// channel is large enough that a slow consumer only loses events, it
// never stalls the run.
type sseSink struct {
	events chan models.ProgressEvent
}

func newSSESink() *sseSink {
	return &sseSink{events: make(chan models.ProgressEvent, 64)}
}

func (s *sseSink) Emit(event models.ProgressEvent) {
	select {
	case s.events <- event:
	default:
	}
}

// handleStreamRun starts an uncapped interactive run and streams its
// progress as server-sent events. Disconnecting stops delivery only;
// the in-flight run completes in the background.
func (s *Server) handleStreamRun(w http.ResponseWriter, r *http.Request) {
	user, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := newSSESink()
	done := make(chan struct{})

	go func() {
		defer close(done)
		// The run outlives a dropped connection.
		s.runner.Run(context.Background(), *user, false, sink)
	}()

	for {
		select {
		case event := <-sink.events:
			if err := writeSSE(w, event); err != nil {
				s.log.Debug("SSE client went away", map[string]interface{}{
					"userId": user.ID,
				})
				return
			}
			flusher.Flush()
			if event.Type == models.EventRunComplete {
				return
			}
		case <-r.Context().Done():
			s.log.Debug("SSE stream closed by client", map[string]interface{}{
				"userId": user.ID,
			})
			return
		case <-done:
			// Drain whatever the run left behind, then finish.
			for {
				select {
				case event := <-sink.events:
					if err := writeSSE(w, event); err != nil {
						return
					}
					flusher.Flush()
				default:
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event models.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
