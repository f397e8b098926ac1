package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventStream pushes Server-Sent Events to the client while a tailoring
// run is in flight, so callers see per-step progress instead of a
// minutes-long silent request.
type eventStream struct {
	w     http.ResponseWriter
	flush func()
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")

	return &eventStream{w: w, flush: flusher.Flush}, nil
}

// send writes one named event with a JSON payload and flushes it out.
func (es *eventStream) send(name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(es.w, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return err
	}
	es.flush()
	return nil
}

// fail emits the terminal error event.
func (es *eventStream) fail(message string) {
	_ = es.send("error", map[string]string{"error": message})
}

// complete emits the terminal success event.
func (es *eventStream) complete(runID string) {
	_ = es.send("complete", map[string]string{
		"run_id": runID,
		"status": "completed",
	})
}
