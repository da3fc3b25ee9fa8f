package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// Step is one site-specific scrape-and-capture procedure. Implementations
// must never return an error and never panic outward: every failure is caught
// internally and converted into a failed StepResult. This is the isolation
// guarantee that keeps one misbehaving site from aborting the pipeline.
type Step interface {
	// Name identifies the source site ("finviz", "tradingview").
	Name() string

	// Variant disambiguates multiple captures from the same site. Empty for
	// single-capture sites.
	Variant() string

	// Execute navigates the session's shared page, captures the target
	// region, and reports progress through emit (best-effort, may be nil).
	Execute(ctx context.Context, session *Session, ticker string, emit progress.Sink) models.StepResult
}

// challengePhrases are the visible-text markers of an anti-bot interstitial.
var challengePhrases = []string{
	"Verifying you are human",
	"Just a moment",
}

// challengeMarker is the selector that appears once verification succeeds.
const challengeMarker = "#challenge-success-text, .challenge-success-text"

// mustSelector validates a literal CSS selector at step registration. The
// selectors on third-party sites are volatile; a typo should fail loudly at
// startup, not silently during a capture.
func mustSelector(s string) string {
	if _, err := cascadia.ParseGroup(s); err != nil {
		panic(fmt.Sprintf("capture: invalid selector %q: %v", s, err))
	}
	return s
}

// pause sleeps for d or until the context is done.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// bounded returns a clone of page whose chained calls carry the session's
// per-operation default timeout in addition to ctx. Raw CDP calls (Eval,
// Info, Screenshot) have no deadline of their own and would hang the request
// on a wedged renderer.
func bounded(ctx context.Context, session *Session, page *rod.Page) *rod.Page {
	return page.Context(ctx).Timeout(session.Capture().DefaultTimeout)
}

// stepError wraps err under code, except that a blown deadline inside the
// operation reports as a timeout so clients can tell a hang from a hard
// failure.
func stepError(code, message string, err error) *models.SnapshotError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewSnapshotError(models.ErrCodeTimeout, message+": timed out", err)
	}
	return models.NewSnapshotError(code, message, err)
}

// stepLog couples slog-style console output with progress emission so every
// phase of a step is visible both server-side and on the event stream.
type stepLog struct {
	site    string
	variant string
	url     string
	ticker  string
	emit    progress.Sink
}

func (l stepLog) phase(status progress.Status, code, message string) {
	l.emit.Emit(progress.Event{
		Message: message,
		Step:    l.code(code),
		Status:  status,
		Website: l.site,
		Variant: l.variant,
		URL:     l.url,
		Ticker:  l.ticker,
	})
}

// code prefixes a phase with the step identity: finviz_navigating,
// tradingview_intraday_screenshot_complete.
func (l stepLog) code(phase string) string {
	if l.variant == "" {
		return l.site + "_" + phase
	}
	return l.site + "_" + l.variant + "_" + phase
}

// navigate drives the page to url and returns once the DOM is parsed — not
// network idle, which interstitial pages may never reach. Bounded by the
// session's navigation timeout.
func navigate(ctx context.Context, session *Session, page *rod.Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, session.Capture().NavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	wait := p.WaitEvent(&proto.PageDomContentEventFired{})
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()
	return navCtx.Err()
}

// onChallenge reports whether the page currently shows an anti-bot
// interstitial. Extra phrases extend the detection set for the re-check.
func onChallenge(ctx context.Context, session *Session, page *rod.Page, extra ...string) bool {
	res, err := bounded(ctx, session, page).Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return false
	}
	body := res.Value.Str()
	for _, phrase := range append(challengePhrases, extra...) {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

// waitOutChallenge waits for an anti-bot interstitial to clear. It prefers
// the verification-success marker, falls back to fixed delays when the marker
// never shows, and re-checks once before giving up and proceeding anyway.
// Being wrong here costs one failed capture; hanging would cost the request.
func waitOutChallenge(ctx context.Context, session *Session, page *rod.Page, log stepLog) {
	cfg := session.Capture()

	if !onChallenge(ctx, session, page) {
		return
	}
	log.phase(progress.StatusStarted, "challenge", "Anti-bot challenge detected, waiting for verification...")

	if _, err := page.Context(ctx).Timeout(cfg.ChallengeWait).Element(challengeMarker); err == nil {
		log.phase(progress.StatusSucceeded, "challenge_verified", "Challenge verification succeeded")
		pause(ctx, 2*time.Second)
		// The verified page usually redirects; wait for the network to
		// settle, but don't insist.
		waitNav := page.Context(ctx).Timeout(cfg.ChallengeWait).WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
		waitNav()
	} else {
		pause(ctx, cfg.ChallengeFallback)
	}

	if !onChallenge(ctx, session, page, "challenge") {
		return
	}

	log.phase(progress.StatusStarted, "challenge_waiting", "Still on challenge page, waiting longer...")
	pause(ctx, cfg.ChallengeSecondWait)

	// A table showing up means real content rendered past the interstitial.
	if _, err := page.Context(ctx).Timeout(10 * time.Second).Element("table"); err == nil {
		log.phase(progress.StatusSucceeded, "challenge_cleared", "Past the challenge page")
	}
}

// currentURL reads the page's final URL after navigation and redirects.
func currentURL(ctx context.Context, session *Session, page *rod.Page) string {
	info, err := bounded(ctx, session, page).Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// tickerNotFound reports whether the navigation was redirected away from the
// ticker-specific page: the final URL neither references the requested ticker
// nor matches the site's generic quote path. This is a semantically distinct
// failure — callers surface it with a "not found" message so the client can
// special-case it.
func tickerNotFound(finalURL, tickerParam, quotePath string) bool {
	if finalURL == "" {
		return false
	}
	return !strings.Contains(finalURL, tickerParam) && !strings.Contains(finalURL, quotePath)
}

// elementWithFallback resolves the capture region: the preferred selector
// first, then each fallback in order, every attempt independently bounded.
func elementWithFallback(ctx context.Context, session *Session, page *rod.Page, preferred string, fallbacks []string) (*rod.Element, string, error) {
	timeout := session.Capture().SelectorTimeout

	for _, sel := range append([]string{preferred}, fallbacks...) {
		if _, err := page.Context(ctx).Timeout(timeout).Element(sel); err != nil {
			continue
		}
		// Re-resolve on a per-operation bound: an element kept from the
		// selector-timeout clone would cap later screenshot and HTML reads
		// at whatever is left of the short selector deadline.
		el, err := bounded(ctx, session, page).Element(sel)
		if err != nil {
			continue
		}
		return el, sel, nil
	}

	return nil, "", models.NewSnapshotError(
		models.ErrCodeSelectorNotFound,
		fmt.Sprintf("no selector matched (tried %q and %d fallbacks)", preferred, len(fallbacks)),
		nil,
	)
}

// encodePNG wraps raw PNG bytes as a self-describing data URI.
func encodePNG(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// Rect is an on-page bounding box in CSS pixels.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// rectFromJSON reads a DOMRect-shaped object out of a page Eval result.
// Missing fields read as zero.
func rectFromJSON(v gson.JSON) Rect {
	return Rect{
		Left:   v.Get("left").Num(),
		Top:    v.Get("top").Num(),
		Right:  v.Get("right").Num(),
		Bottom: v.Get("bottom").Num(),
	}
}

// combineRegion merges the header region and the chart region into one
// capture rectangle. The right edge intentionally takes the SMALLER of the
// two: the chart is narrower than the header and defines the usable width.
func combineRegion(top, center Rect) Rect {
	return Rect{
		Left:   min(top.Left, center.Left),
		Top:    min(top.Top, center.Top),
		Right:  min(top.Right, center.Right),
		Bottom: max(top.Bottom, center.Bottom),
	}
}

// Width returns the rectangle width, clamped at zero.
func (r Rect) Width() float64 {
	return max(r.Right-r.Left, 0)
}

// Height returns the rectangle height, clamped at zero.
func (r Rect) Height() float64 {
	return max(r.Bottom-r.Top, 0)
}

// failure builds a failed StepResult.
func failure(name, variant, url string, err error) models.StepResult {
	return models.StepResult{
		Name:      name,
		Variant:   variant,
		Success:   false,
		URL:       url,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
