package models

import "time"

// StepResult is the outcome of one screenshot step. Exactly one of Image or
// Error is populated: Image when Success is true, Error when it is false.
type StepResult struct {
	// Name identifies the source site (e.g. "finviz", "tradingview").
	Name string `json:"name"`

	// Variant disambiguates multiple captures from the same site
	// (e.g. "default" vs "intraday"). Empty for single-capture sites.
	Variant string `json:"variant,omitempty"`

	// Success indicates whether the capture produced an image.
	Success bool `json:"success"`

	// Image is the captured PNG as a data URI ("data:image/png;base64,...").
	// Present only on success.
	Image string `json:"image,omitempty"`

	// URL is the navigated target URL.
	URL string `json:"url"`

	// Selector is the selector or region descriptor that produced the capture.
	Selector string `json:"selector,omitempty"`

	// Metrics holds structured label→value pairs parsed out of the captured
	// region when the site exposes tabular data (Finviz snapshot table).
	// Best-effort; may be empty even on success.
	Metrics map[string]string `json:"metrics,omitempty"`

	// Error describes the failure. Present only when Success is false.
	Error string `json:"error,omitempty"`

	// Timestamp records when the step finished.
	Timestamp time.Time `json:"timestamp"`
}

// MarketOutcome is one independently succeeding-or-failing provider fetch.
type MarketOutcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewsOutcome bundles the news-sentiment fetch result.
type NewsOutcome struct {
	MarketOutcome
	Data *NewsSentiment `json:"data,omitempty"`
}

// TimeSeriesOutcome bundles the time-series fetch result.
type TimeSeriesOutcome struct {
	MarketOutcome
	Data *TimeSeries `json:"data,omitempty"`
}

// MarketDataBundle holds the two provider fetches made after the screenshot
// pipeline. A failure in one never suppresses the other.
type MarketDataBundle struct {
	News       *NewsOutcome       `json:"news,omitempty"`
	TimeSeries *TimeSeriesOutcome `json:"trading,omitempty"`
}

// SnapshotResponse is the aggregate result of one ticker request.
// Success is the logical AND across all step results; a partially failed
// pipeline still completes with HTTP 200 and per-step detail intact.
type SnapshotResponse struct {
	Success     bool              `json:"success"`
	Ticker      string            `json:"ticker"`
	Screenshots []StepResult      `json:"screenshots"`
	MarketData  *MarketDataBundle `json:"market_data,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`

	// Error is populated only for requests that never reached the pipeline.
	Error *ErrorDetail `json:"error,omitempty"`
}

// OverallSuccess computes the aggregate success flag from step results.
func OverallSuccess(results []StepResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
