package capture

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

type fakeStep struct {
	name    string
	variant string
	execute func() models.StepResult
}

func (s fakeStep) Name() string    { return s.name }
func (s fakeStep) Variant() string { return s.variant }
func (s fakeStep) Execute(context.Context, *Session, string, progress.Sink) models.StepResult {
	return s.execute()
}

func okStep(name, variant string) fakeStep {
	return fakeStep{name: name, variant: variant, execute: func() models.StepResult {
		return models.StepResult{Name: name, Variant: variant, Success: true, Timestamp: time.Now()}
	}}
}

func failStep(name string) fakeStep {
	return fakeStep{name: name, execute: func() models.StepResult {
		return models.StepResult{Name: name, Success: false, Error: "boom", Timestamp: time.Now()}
	}}
}

func panicStep(name string) fakeStep {
	return fakeStep{name: name, execute: func() models.StepResult {
		panic("selector lookup on closed page")
	}}
}

func TestRun_ResultsInDeclarationOrder(t *testing.T) {
	steps := []Step{okStep("alpha", ""), okStep("beta", "late"), okStep("gamma", "")}

	results := Run(context.Background(), &Session{}, "AAPL", steps, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if results[i].Name != want {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, want)
		}
	}
}

func TestRun_FailureDoesNotShortCircuit(t *testing.T) {
	steps := []Step{failStep("first"), okStep("second", "")}

	results := Run(context.Background(), &Session{}, "AAPL", steps, nil)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success {
		t.Error("first result should be a failure")
	}
	if !results[1].Success {
		t.Error("second step should still run and succeed")
	}
}

func TestRun_EmitsStartBeforeResult(t *testing.T) {
	var events []progress.Event
	emit := progress.Sink(func(ev progress.Event) { events = append(events, ev) })

	Run(context.Background(), &Session{}, "AAPL", []Step{okStep("site", ""), failStep("other")}, emit)

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}

	if events[0].Step != "site_start" || events[0].Status != progress.StatusStarted {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Step != "site_complete" || events[1].Status != progress.StatusSucceeded {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[1].Success == nil || !*events[1].Success {
		t.Error("result event should carry Success=true")
	}

	if events[3].Step != "other_failed" || events[3].Status != progress.StatusFailed {
		t.Errorf("unexpected failure event: %+v", events[3])
	}
	if events[3].Success == nil || *events[3].Success {
		t.Error("failure event should carry Success=false")
	}
}

func TestRun_PanicIsolatedToFailedResult(t *testing.T) {
	steps := []Step{panicStep("crashy"), okStep("survivor", "")}

	results := Run(context.Background(), &Session{}, "AAPL", steps, nil)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success {
		t.Error("panicking step should produce a failed result")
	}
	if !strings.Contains(results[0].Error, "step panicked") {
		t.Errorf("failure should record the panic: %q", results[0].Error)
	}
	if !results[1].Success {
		t.Error("pipeline should continue past a panicking step")
	}
}

func TestStepLabel(t *testing.T) {
	if got := stepLabel(okStep("finviz", "")); got != "finviz" {
		t.Errorf("stepLabel = %q", got)
	}
	if got := stepLabel(okStep("tradingview", "intraday")); got != "tradingview_intraday" {
		t.Errorf("stepLabel = %q", got)
	}
}

func TestDefaultSteps_Order(t *testing.T) {
	steps := DefaultSteps()
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	wantLabels := []string{"finviz", "tradingview_default", "tradingview_intraday"}
	for i, want := range wantLabels {
		if got := stepLabel(steps[i]); got != want {
			t.Errorf("steps[%d] = %q, want %q", i, got, want)
		}
	}
}
