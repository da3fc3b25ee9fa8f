// Package progress carries live pipeline notifications from the capture and
// market-data components to whichever delivery channel the request uses.
// Events exist only on the wire for the duration of one request; nothing here
// is persisted.
package progress

// Status classifies an event at the point of emission, so clients never have
// to infer success or failure from the step-code text.
type Status string

const (
	// StatusStarted marks an in-progress phase.
	StatusStarted Status = "started"

	// StatusSucceeded marks a phase that finished successfully.
	StatusSucceeded Status = "succeeded"

	// StatusFailed marks a phase that finished with an error.
	StatusFailed Status = "failed"
)

// Event is one progress notification.
//
// Step codes keep the `{site}_{variant}_{phase}` shape (finviz_navigating,
// tradingview_default_screenshot_complete) as human-greppable detail, but the
// Status field is the authoritative classification.
type Event struct {
	// Message is a free-text human-readable description.
	Message string `json:"message"`

	// Step is the machine-readable step code.
	Step string `json:"step"`

	// Status classifies the event: started, succeeded, or failed.
	Status Status `json:"status"`

	// Website identifies the owning step, when the event belongs to one.
	Website string `json:"website,omitempty"`

	// Variant disambiguates captures from the same site.
	Variant string `json:"variant,omitempty"`

	// URL is the target URL involved, when known.
	URL string `json:"url,omitempty"`

	// Ticker is the normalized ticker symbol, when known.
	Ticker string `json:"ticker,omitempty"`

	// Success mirrors the step outcome on step-result events.
	Success *bool `json:"success,omitempty"`
}

// Sink receives progress events. Implementations must be safe to call from
// the pipeline goroutine and must never block for long or panic; emission is
// best-effort.
type Sink func(Event)

// Discard is a Sink that drops every event. Used by the buffered endpoint,
// which only delivers the final aggregate.
func Discard(Event) {}

// Emit forwards an event to the sink if one is set.
func (s Sink) Emit(ev Event) {
	if s != nil {
		s(ev)
	}
}
