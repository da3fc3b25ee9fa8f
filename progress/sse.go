package progress

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-contrib/sse"
)

// SSEWriter serializes progress events onto a Server-Sent-Events stream.
//
// Every event is encoded and flushed immediately — no batching — so the
// client observes the same ordering the pipeline emitted. Exactly one
// terminal event (complete or error) is written per stream; later terminal
// attempts are dropped, as are status events arriving after the terminal.
type SSEWriter struct {
	mu       sync.Mutex
	w        io.Writer
	flusher  http.Flusher
	terminal bool
}

// NewSSEWriter wraps an http.ResponseWriter for event streaming. The caller
// is responsible for having set the SSE response headers beforehand.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	flusher, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: flusher}
}

// Sink returns a progress.Sink that writes status events to the stream.
func (s *SSEWriter) Sink() Sink {
	return func(ev Event) {
		s.write("status", ev)
	}
}

// Complete writes the terminal complete event carrying the aggregate result.
func (s *SSEWriter) Complete(payload any) {
	s.writeTerminal("complete", payload)
}

// Error writes the terminal error event. Reserved for conditions that
// prevented the pipeline from running at all; partial step failures are
// delivered as a complete event instead.
func (s *SSEWriter) Error(payload any) {
	s.writeTerminal("error", payload)
}

func (s *SSEWriter) write(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return
	}
	s.encode(event, data)
}

func (s *SSEWriter) writeTerminal(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return
	}
	s.terminal = true
	s.encode(event, data)
}

// encode writes one `event: <name>\ndata: <json>\n\n` frame and flushes.
// Write errors (client gone) are logged and swallowed; the pipeline keeps
// its own copy of every result and must not be disturbed by a dead stream.
func (s *SSEWriter) encode(event string, data any) {
	err := sse.Encode(s.w, sse.Event{
		Event: event,
		Data:  data,
	})
	if err != nil {
		slog.Debug("sse encode failed", "event", event, "error", err)
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
