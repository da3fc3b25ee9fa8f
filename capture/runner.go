package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// DefaultSteps returns the deploy-time ordered step list. The set is fixed:
// steps share one page and run sequentially, so order is part of the contract.
func DefaultSteps() []Step {
	return []Step{
		Finviz(),
		TradingView(),
		TradingViewIntraday(),
	}
}

// Run executes the steps strictly sequentially against the session's shared
// page and returns one result per step in declaration order. Concurrency is
// deliberately avoided: two steps navigating one tab would race.
//
// A step failure never short-circuits the pipeline — every remaining step
// still runs, and the failed step is represented by a failed result in its
// declared position.
func Run(ctx context.Context, session *Session, ticker string, steps []Step, emit progress.Sink) []models.StepResult {
	results := make([]models.StepResult, 0, len(steps))
	cfg := session.Capture()

	for i, step := range steps {
		label := stepLabel(step)

		emit.Emit(progress.Event{
			Message: fmt.Sprintf("Starting %s screenshot...", label),
			Step:    label + "_start",
			Status:  progress.StatusStarted,
			Website: step.Name(),
			Variant: step.Variant(),
			Ticker:  ticker,
		})

		result := executeIsolated(ctx, session, step, ticker, emit)
		results = append(results, result)

		status := progress.StatusSucceeded
		outcome := "completed"
		phase := "complete"
		if !result.Success {
			status = progress.StatusFailed
			outcome = "failed"
			phase = "failed"
			slog.Warn("screenshot step failed",
				"step", label, "ticker", ticker, "error", result.Error)
		}
		success := result.Success
		emit.Emit(progress.Event{
			Message: fmt.Sprintf("%s screenshot %s", label, outcome),
			Step:    label + "_" + phase,
			Status:  status,
			Website: step.Name(),
			Variant: step.Variant(),
			Ticker:  ticker,
			Success: &success,
		})

		if i < len(steps)-1 {
			pause(ctx, cfg.StepDelay)
		}
	}

	return results
}

// executeIsolated runs one step and converts a panic into a failed result.
// Steps are written against Rod's error-returning API, but the isolation
// guarantee must hold even if one slips through.
func executeIsolated(ctx context.Context, session *Session, step Step, ticker string, emit progress.Sink) (result models.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("screenshot step panicked", "step", stepLabel(step), "panic", r)
			result = failure(step.Name(), step.Variant(), "",
				models.NewSnapshotError(models.ErrCodeInternal,
					fmt.Sprintf("step panicked: %v", r), nil))
		}
	}()
	return step.Execute(ctx, session, ticker, emit)
}

func stepLabel(step Step) string {
	if step.Variant() == "" {
		return step.Name()
	}
	return step.Name() + "_" + step.Variant()
}
