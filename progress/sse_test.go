package progress

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSSEWriter_StatusFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	w.Sink().Emit(Event{Message: "Navigating", Step: "finviz_navigating", Status: StatusStarted})

	body := rec.Body.String()
	if !strings.Contains(body, "event:status") {
		t.Errorf("missing status event name: %q", body)
	}
	if !strings.Contains(body, `"step":"finviz_navigating"`) {
		t.Errorf("missing step code in payload: %q", body)
	}
	if !strings.Contains(body, `"status":"started"`) {
		t.Errorf("missing status classification in payload: %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("frame not terminated by blank line: %q", body)
	}
}

func TestSSEWriter_ExactlyOneTerminal(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	w.Complete(map[string]bool{"success": true})
	w.Error(map[string]string{"late": "true"})
	w.Complete(map[string]bool{"success": false})

	body := rec.Body.String()
	if got := strings.Count(body, "event:complete"); got != 1 {
		t.Errorf("complete frames = %d, want 1\n%s", got, body)
	}
	if strings.Contains(body, "event:error") {
		t.Errorf("terminal after terminal should be dropped:\n%s", body)
	}
}

func TestSSEWriter_StatusAfterTerminalDropped(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	w.Error(map[string]string{"code": "BROWSER_LAUNCH_FAILED"})
	w.Sink().Emit(Event{Step: "late_event", Status: StatusStarted})

	body := rec.Body.String()
	if strings.Contains(body, "late_event") {
		t.Errorf("status after terminal should be dropped:\n%s", body)
	}
}

func TestSink_NilSafe(t *testing.T) {
	var s Sink
	// Must not panic.
	s.Emit(Event{Step: "anything"})

	var got []string
	s = func(ev Event) { got = append(got, ev.Step) }
	s.Emit(Event{Step: "one"})
	if len(got) != 1 || got[0] != "one" {
		t.Errorf("sink did not receive the event: %v", got)
	}
}

func TestDiscard(t *testing.T) {
	// Compile-time shape check plus a call for coverage.
	var s Sink = Discard
	s.Emit(Event{Step: "dropped"})
}
