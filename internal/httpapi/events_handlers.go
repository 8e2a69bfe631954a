package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leasingedge-engine/internal/events"
)

const defaultKeepalive = 25 * time.Second

// EventsHandler streams hub events as SSE. A report can take most of a minute
// while the model answers, so idle streams get comment lines to stay open.
type EventsHandler struct {
	Hub       *events.Hub
	Keepalive time.Duration
}

// ServeSSE streams every event, or only the types named in ?type=a,b.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}
	want := typeFilter(r.URL.Query().Get("type"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	send := func(msg string) {
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
		flusher.Flush()
	}
	send(events.MakeEvent(RequestIDFrom(r.Context()), events.TypePing, 1, nil))

	every := h.Keepalive
	if every <= 0 {
		every = defaultKeepalive
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, open := <-ch:
			if !open {
				return
			}
			if want != nil && !want[eventType(msg)] {
				continue
			}
			send(msg)
		}
	}
}

func typeFilter(raw string) map[string]bool {
	var want map[string]bool
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if want == nil {
			want = make(map[string]bool)
		}
		want[t] = true
	}
	return want
}

func eventType(msg string) string {
	var e struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal([]byte(msg), &e)
	return e.Type
}
