package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// URL format: https://www.tradingview.com/chart/?symbol=NASDAQ%3ARAIN
const tradingViewBaseURL = "https://www.tradingview.com/chart"

var (
	tvLayoutTop    = mustSelector(".layout__area--top")
	tvLayoutCenter = mustSelector(".layout__area--center")
)

// Interaction is one declarative pre-capture UI action: click a target, then
// optionally await an element and settle before the next action. Each
// interaction is independently fault-tolerant — a miss logs and moves on.
type Interaction struct {
	// Selector locates the element to click.
	Selector string

	// SettleAfter is the pause after the click. Zero means the configured
	// default interaction settle.
	SettleAfter time.Duration

	// WaitFor, when set, is a selector awaited after the click.
	WaitFor string

	// WaitTimeout bounds both the click-target wait and WaitFor.
	// Zero means 10s.
	WaitTimeout time.Duration
}

type tradingViewStep struct {
	variant      string
	interactions []Interaction
}

// TradingView captures the default chart layout for a ticker.
func TradingView() Step {
	return &tradingViewStep{variant: "default"}
}

// TradingViewIntraday captures the chart after switching it to the
// one-day / one-minute view.
func TradingViewIntraday() Step {
	return &tradingViewStep{
		variant: "intraday",
		interactions: []Interaction{
			{
				Selector:    mustSelector(`button[aria-label="1 day in 1 minute intervals"]`),
				SettleAfter: 2 * time.Second, // chart redraw after the interval switch
			},
		},
	}
}

func (s *tradingViewStep) Name() string    { return "tradingview" }
func (s *tradingViewStep) Variant() string { return s.variant }

func (s *tradingViewStep) Execute(ctx context.Context, session *Session, ticker string, emit progress.Sink) models.StepResult {
	url := fmt.Sprintf("%s/?symbol=NASDAQ%%3A%s", tradingViewBaseURL, ticker)
	log := stepLog{site: s.Name(), variant: s.variant, url: url, ticker: ticker, emit: emit}
	cfg := session.Capture()

	page, err := session.Page()
	if err != nil {
		return failure(s.Name(), s.variant, url, err)
	}

	log.phase(progress.StatusStarted, "navigating", "Navigating to "+url)
	if err := navigate(ctx, session, page, url); err != nil {
		return failure(s.Name(), s.variant, url,
			stepError(models.ErrCodeNavigation, "navigation to tradingview failed", err))
	}
	log.phase(progress.StatusStarted, "page_loaded", "Page loaded at "+currentURL(ctx, session, page))

	waitOutChallenge(ctx, session, page, log)

	if tickerNotFound(currentURL(ctx, session, page), ticker, "tradingview.com/chart") {
		err := models.NewSnapshotError(
			models.ErrCodeTickerNotFound,
			fmt.Sprintf("ticker %q not found on tradingview", ticker),
			nil,
		)
		log.phase(progress.StatusFailed, "error", err.Message)
		return failure(s.Name(), s.variant, url, err)
	}

	// The chart app builds its layout asynchronously; wait for both regions,
	// then fall back to a flat delay and let the bounds read decide.
	log.phase(progress.StatusStarted, "waiting_layout", "Waiting for layout areas to load...")
	if err := s.awaitLayout(ctx, session, page, log); err != nil {
		pause(ctx, 3*time.Second)
	}
	pause(ctx, cfg.RenderSettle)

	if len(s.interactions) > 0 {
		s.runInteractions(ctx, session, page, log)
	}

	log.phase(progress.StatusStarted, "calculating_bounds", "Calculating combined capture region...")
	region, err := s.captureRegion(ctx, session, page)
	if err != nil {
		log.phase(progress.StatusFailed, "error", err.Error())
		return failure(s.Name(), s.variant, url, err)
	}

	log.phase(progress.StatusStarted, "taking_screenshot",
		fmt.Sprintf("Taking screenshot of %.0fx%.0f region at (%.0f, %.0f)",
			region.Width(), region.Height(), region.Left, region.Top))

	png, err := bounded(ctx, session, page).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      region.Left,
			Y:      region.Top,
			Width:  region.Width(),
			Height: region.Height(),
			Scale:  1,
		},
	})
	if err != nil {
		log.phase(progress.StatusFailed, "error", "Screenshot failed: "+err.Error())
		return failure(s.Name(), s.variant, url,
			stepError(models.ErrCodeInternal, "region screenshot failed", err))
	}
	log.phase(progress.StatusSucceeded, "screenshot_complete", "Screenshot taken successfully")

	return models.StepResult{
		Name:      s.Name(),
		Variant:   s.variant,
		Success:   true,
		Image:     encodePNG(png),
		URL:       url,
		Selector:  tvLayoutTop + " + " + tvLayoutCenter,
		Timestamp: time.Now().UTC(),
	}
}

// awaitLayout waits for the header and chart regions, each independently
// bounded by the layout timeout.
func (s *tradingViewStep) awaitLayout(ctx context.Context, session *Session, page *rod.Page, log stepLog) error {
	timeout := session.Capture().LayoutTimeout

	if _, err := page.Context(ctx).Timeout(timeout).Element(tvLayoutTop); err != nil {
		return err
	}
	log.phase(progress.StatusSucceeded, "top_found", "Top layout area found")

	if _, err := page.Context(ctx).Timeout(timeout).Element(tvLayoutCenter); err != nil {
		return err
	}
	log.phase(progress.StatusSucceeded, "center_found", "Center layout area found")
	return nil
}

// runInteractions performs the declarative pre-capture clicks. Failures are
// per-interaction: a missing button logs and continues, it never aborts the
// step. After the batch an Escape keypress dismisses any lingering tooltip or
// menu so interaction state does not bleed into the capture.
func (s *tradingViewStep) runInteractions(ctx context.Context, session *Session, page *rod.Page, log stepLog) {
	cfg := session.Capture()
	log.phase(progress.StatusStarted, "clicking_buttons",
		fmt.Sprintf("Running %d pre-capture interaction(s)...", len(s.interactions)))

	for i, ia := range s.interactions {
		n := i + 1
		waitTimeout := ia.WaitTimeout
		if waitTimeout == 0 {
			waitTimeout = 10 * time.Second
		}

		el, err := page.Context(ctx).Timeout(waitTimeout).Element(ia.Selector)
		if err != nil {
			log.phase(progress.StatusFailed, fmt.Sprintf("button_error_%d", n),
				fmt.Sprintf("Interaction %d: %q not found: %v", n, ia.Selector, err))
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			log.phase(progress.StatusFailed, fmt.Sprintf("button_error_%d", n),
				fmt.Sprintf("Interaction %d: click failed: %v", n, err))
			continue
		}
		log.phase(progress.StatusSucceeded, fmt.Sprintf("button_%d_clicked", n),
			fmt.Sprintf("Interaction %d clicked: %s", n, ia.Selector))

		if ia.WaitFor != "" {
			if _, err := page.Context(ctx).Timeout(waitTimeout).Element(ia.WaitFor); err != nil {
				log.phase(progress.StatusStarted, fmt.Sprintf("wait_skipped_%d", n),
					fmt.Sprintf("Element %q did not appear, continuing", ia.WaitFor))
			}
		}

		settle := ia.SettleAfter
		if settle == 0 {
			settle = cfg.InteractionSettle
		}
		pause(ctx, settle)
	}

	log.phase(progress.StatusSucceeded, "buttons_complete", "Interactions done, dismissing tooltips...")
	s.dismissOverlays(ctx, session, page, log)
	pause(ctx, 500*time.Millisecond)
	pause(ctx, 1500*time.Millisecond)
}

// dismissOverlays sends Escape to close any tooltip or menu left open by the
// interactions. The key events are dispatched directly through a bounded page
// clone; Page.Keyboard is tied to the page's original context and would not
// honor a per-operation deadline.
func (s *tradingViewStep) dismissOverlays(ctx context.Context, session *Session, page *rod.Page, log stepLog) {
	p := bounded(ctx, session, page)
	for _, t := range []proto.InputDispatchKeyEventType{
		proto.InputDispatchKeyEventTypeKeyDown,
		proto.InputDispatchKeyEventTypeKeyUp,
	} {
		ev := &proto.InputDispatchKeyEvent{
			Type:                  t,
			Key:                   "Escape",
			Code:                  "Escape",
			WindowsVirtualKeyCode: 27,
		}
		if err := ev.Call(p); err != nil {
			log.phase(progress.StatusStarted, "esc_error", "Escape keypress failed, continuing")
			return
		}
	}
}

// captureRegion reads the live bounding boxes of the two layout regions and
// combines them into the capture rectangle.
func (s *tradingViewStep) captureRegion(ctx context.Context, session *Session, page *rod.Page) (Rect, error) {
	res, err := bounded(ctx, session, page).Eval(`() => {
		const top = document.querySelector('.layout__area--top');
		const center = document.querySelector('.layout__area--center');
		if (!top || !center) return null;
		const t = top.getBoundingClientRect();
		const c = center.getBoundingClientRect();
		return {
			top:    { left: t.left, top: t.top, right: t.right, bottom: t.bottom },
			center: { left: c.left, top: c.top, right: c.right, bottom: c.bottom },
		};
	}`)
	if err != nil {
		return Rect{}, stepError(models.ErrCodeSelectorNotFound, "failed to read layout bounds", err)
	}
	if res.Value.Nil() {
		return Rect{}, models.NewSnapshotError(
			models.ErrCodeSelectorNotFound,
			fmt.Sprintf("layout areas missing (%s and %s)", tvLayoutTop, tvLayoutCenter),
			nil,
		)
	}

	region := combineRegion(
		rectFromJSON(res.Value.Get("top")),
		rectFromJSON(res.Value.Get("center")),
	)
	if region.Width() <= 0 || region.Height() <= 0 {
		return Rect{}, models.NewSnapshotError(
			models.ErrCodeSelectorNotFound, "computed capture region is empty", nil)
	}
	return region, nil
}
