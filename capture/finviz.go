package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/proto"
	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

const finvizBaseURL = "https://finviz.com/quote.ashx"

var (
	// finvizSelector targets the snapshot table wrapper carrying all the
	// headline stock data.
	finvizSelector = mustSelector(".screener_snapshot-table-wrapper")

	// finvizFallbacks are tried in order when the wrapper class changes,
	// ending with a bare table so a layout shuffle degrades instead of fails.
	finvizFallbacks = []string{
		mustSelector("table.snapshot-table"),
		mustSelector("table.screener_snapshot-table"),
		mustSelector(`table[class*="snapshot"]`),
		mustSelector("table"),
	}
)

type finvizStep struct{}

// Finviz captures the quote snapshot table for a ticker.
func Finviz() Step { return finvizStep{} }

func (finvizStep) Name() string    { return "finviz" }
func (finvizStep) Variant() string { return "" }

func (s finvizStep) Execute(ctx context.Context, session *Session, ticker string, emit progress.Sink) models.StepResult {
	url := fmt.Sprintf("%s?t=%s", finvizBaseURL, ticker)
	log := stepLog{site: s.Name(), url: url, ticker: ticker, emit: emit}
	cfg := session.Capture()

	page, err := session.Page()
	if err != nil {
		return failure(s.Name(), "", url, err)
	}

	log.phase(progress.StatusStarted, "navigating", "Navigating to "+url)
	if err := navigate(ctx, session, page, url); err != nil {
		return failure(s.Name(), "", url,
			stepError(models.ErrCodeNavigation, "navigation to finviz failed", err))
	}
	log.phase(progress.StatusStarted, "page_loaded", "Page loaded at "+currentURL(ctx, session, page))

	waitOutChallenge(ctx, session, page, log)

	// A redirect away from the quote page means the ticker does not exist.
	if tickerNotFound(currentURL(ctx, session, page), "t="+ticker, "finviz.com/quote") {
		err := models.NewSnapshotError(
			models.ErrCodeTickerNotFound,
			fmt.Sprintf("ticker %q not found on finviz", ticker),
			nil,
		)
		log.phase(progress.StatusFailed, "error", err.Message)
		return failure(s.Name(), "", url, err)
	}
	log.phase(progress.StatusSucceeded, "page_ready", "Page loaded at "+currentURL(ctx, session, page))

	pause(ctx, cfg.NavigationSettle)

	log.phase(progress.StatusStarted, "finding_element", "Waiting for snapshot table: "+finvizSelector)
	el, selector, err := elementWithFallback(ctx, session, page, finvizSelector, finvizFallbacks)
	if err != nil {
		log.phase(progress.StatusFailed, "error", err.Error())
		return failure(s.Name(), "", url, err)
	}
	log.phase(progress.StatusSucceeded, "element_found", "Found element with selector: "+selector)

	log.phase(progress.StatusStarted, "taking_screenshot", "Taking screenshot...")
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		log.phase(progress.StatusFailed, "error", "Screenshot failed: "+err.Error())
		return failure(s.Name(), "", url,
			stepError(models.ErrCodeInternal, "element screenshot failed", err))
	}
	log.phase(progress.StatusSucceeded, "screenshot_complete", "Screenshot taken successfully")

	// Best-effort: the same table the image shows, as structured data.
	var metrics map[string]string
	if html, err := el.HTML(); err == nil {
		metrics = parseSnapshotMetrics(html)
	}

	return models.StepResult{
		Name:      s.Name(),
		Success:   true,
		Image:     encodePNG(png),
		URL:       url,
		Selector:  selector,
		Metrics:   metrics,
		Timestamp: time.Now().UTC(),
	}
}

// parseSnapshotMetrics extracts label→value pairs from the snapshot table
// HTML. Finviz lays the table out as alternating label and value cells, so
// cells are paired row by row. Returns nil when nothing parseable is found.
func parseSnapshotMetrics(html string) map[string]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	metrics := make(map[string]string)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.TrimSpace(cells.Eq(i).Text())
			value := strings.TrimSpace(cells.Eq(i + 1).Text())
			if label != "" && value != "" {
				metrics[label] = value
			}
		}
	})

	if len(metrics) == 0 {
		return nil
	}
	return metrics
}
