package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamInterval is how often the event stream polls the ledger.
var streamInterval = 2 * time.Second

// handleEventStream serves a Server-Sent Events stream of loop events for a
// run. It polls the ledger and sends each new event as one SSE message.
// When the run reaches a terminal event it sends "done" and closes.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil || runID == "" {
		http.Error(w, "no run to stream", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if present

	sendDone := func(reason string) {
		fmt.Fprintf(w, "event: done\ndata: %s\n\n", reason)
		flusher.Flush()
	}

	tick := time.NewTicker(streamInterval)
	defer tick.Stop()

	lastID := 0
	for {
		events, err := s.db.EventsSince(runID, lastID)
		if err != nil {
			sendDone("ledger unavailable")
			return
		}
		for _, ev := range events {
			data, _ := json.Marshal(ev)
			fmt.Fprintf(w, "data: %s\n\n", data)
			lastID = ev.ID
			if ev.Event == "completed" || ev.Event == "aborted" || ev.Event == "halted" {
				flusher.Flush()
				sendDone("run finished")
				return
			}
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
		}
	}
}
