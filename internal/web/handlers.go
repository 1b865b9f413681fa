package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// ParamsView is the JSON dump of the tuning values the last burst ran with.
type ParamsView struct {
	PulseWidthUs      uint   `json:"pulse_width_us"`
	InterPulseDelayUs uint   `json:"inter_pulse_delay_us"`
	NumberOfSteps     uint   `json:"number_of_steps"`
	Direction         string `json:"direction"`
}

// ParamsFunc returns the current parameter view. It must be safe to call
// from HTTP goroutines (the burst loop publishes snapshots atomically).
type ParamsFunc func() ParamsView

// SubmitFunc queues one command line for the interpreter. It returns an
// error when the command buffer is full.
type SubmitFunc func(line string) error

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Submit      SubmitFunc
	Params      ParamsFunc
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If submit is nil, POST /cmd will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, submit SubmitFunc, paramsFn ParamsFunc, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Submit:      submit,
		Params:      paramsFn,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleParams returns the tuning values of the last burst as JSON.
func (h *Handlers) HandleParams(w http.ResponseWriter, r *http.Request) {
	if h.Params == nil {
		http.Error(w, "parameters not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Params())
}

// HandleCmd handles POST /cmd to queue one command line for the interpreter.
// The reply arrives over the SSE stream like any other console traffic.
func (h *Handlers) HandleCmd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cmd string `json:"cmd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	req.Cmd = strings.TrimSpace(req.Cmd)
	if req.Cmd == "" {
		http.Error(w, "cmd is required", http.StatusBadRequest)
		return
	}
	if strings.ContainsAny(req.Cmd, "\r\n") {
		http.Error(w, "cmd must be a single line", http.StatusBadRequest)
		return
	}

	if h.Submit == nil {
		http.Error(w, "console not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.Submit(req.Cmd); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
