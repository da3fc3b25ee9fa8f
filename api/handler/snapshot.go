package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/capture"
	"github.com/tradewithedge/tickersnap/config"
	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
	"github.com/tradewithedge/tickersnap/webhook"
)

// Pipeline runs the screenshot steps for one ticker and returns one result per
// step. The browser is torn down before the function returns.
type Pipeline func(ctx context.Context, ticker string, emit progress.Sink) ([]models.StepResult, error)

// pipelineSession pairs the step runner with the teardown of the browser
// process backing it.
type pipelineSession interface {
	Run(ctx context.Context, ticker string, emit progress.Sink) []models.StepResult
	Close()
}

// captureSession adapts a live browser session to pipelineSession.
type captureSession struct {
	*capture.Session
	steps []capture.Step
}

func (s captureSession) Run(ctx context.Context, ticker string, emit progress.Sink) []models.StepResult {
	return capture.Run(ctx, s.Session, ticker, s.steps, emit)
}

// NewPipeline builds the production pipeline: open an isolated browser
// session, run the default step list against it, close the browser.
func NewPipeline(cfg *config.Config) Pipeline {
	return newPipeline(func() (pipelineSession, error) {
		session, err := capture.Open(cfg.Browser, cfg.Capture)
		if err != nil {
			return nil, err
		}
		return captureSession{Session: session, steps: capture.DefaultSteps()}, nil
	})
}

// newPipeline carries the teardown guarantee: once open succeeds, Close runs
// before the pipeline returns, whatever the steps did.
func newPipeline(open func() (pipelineSession, error)) Pipeline {
	return func(ctx context.Context, ticker string, emit progress.Sink) ([]models.StepResult, error) {
		emit.Emit(progress.Event{
			Message: "Launching browser...",
			Step:    "browser_launch",
			Status:  progress.StatusStarted,
			Ticker:  ticker,
		})

		session, err := open()
		if err != nil {
			return nil, err
		}
		defer session.Close()

		emit.Emit(progress.Event{
			Message: "Browser ready",
			Step:    "browser_ready",
			Status:  progress.StatusSucceeded,
			Ticker:  ticker,
		})

		return session.Run(ctx, ticker, emit), nil
	}
}

// Snapshot serves the buffered and streaming snapshot endpoints. Both share
// one orchestration; they differ only in how the result is delivered.
type Snapshot struct {
	pipeline Pipeline
	market   MarketFetcher
	webhook  config.WebhookConfig
}

func NewSnapshot(pipeline Pipeline, market MarketFetcher, webhookCfg config.WebhookConfig) *Snapshot {
	return &Snapshot{pipeline: pipeline, market: market, webhook: webhookCfg}
}

// run is the shared orchestration: screenshots first (browser released before
// any provider call), then the market-data bundle, then the aggregate result.
// The returned error is non-nil only when the pipeline never ran; step
// failures are carried inside the response.
func (h *Snapshot) run(ctx context.Context, ticker string, emit progress.Sink) (*models.SnapshotResponse, error) {
	started := time.Now()

	results, err := h.pipeline(ctx, ticker, emit)
	if err != nil {
		return nil, err
	}

	bundle := h.market.FetchBundle(ctx, ticker, emit)

	resp := &models.SnapshotResponse{
		Success:     models.OverallSuccess(results),
		Ticker:      ticker,
		Screenshots: results,
		MarketData:  bundle,
		Timestamp:   time.Now().UTC(),
	}

	slog.Info("snapshot finished",
		"ticker", ticker,
		"success", resp.Success,
		"steps", len(results),
		"duration", time.Since(started).Round(time.Millisecond),
	)

	if h.webhook.URL != "" {
		webhook.DeliverAsync(h.webhook.URL, h.webhook.Secret, webhook.NewSnapshotEvent(resp))
	}
	return resp, nil
}

// Capture handles GET /api/snapshot?ticker=. The full pipeline runs to
// completion before anything is written; clients wanting progress use Stream.
func (h *Snapshot) Capture(c *gin.Context) {
	ticker, err := parseTicker(c.Query("ticker"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.run(c.Request.Context(), ticker, progress.Discard)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream handles GET /api/snapshot/stream?ticker=. Progress is delivered as
// SSE status events, terminated by exactly one complete or error event. The
// capture context is the request context: a client that disconnects cancels
// the in-flight automation, and the deferred teardown still runs.
func (h *Snapshot) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	stream := progress.NewSSEWriter(c.Writer)

	ticker, err := parseTicker(c.Query("ticker"))
	if err != nil {
		stream.Error(gin.H{"success": false, "error": toDetail(err)})
		return
	}

	emit := stream.Sink()
	emit(progress.Event{
		Message: "Starting snapshot for " + ticker,
		Step:    "init",
		Status:  progress.StatusStarted,
		Ticker:  ticker,
	})

	resp, err := h.run(c.Request.Context(), ticker, emit)
	if err != nil {
		stream.Error(gin.H{"success": false, "error": toDetail(err)})
		return
	}

	// Partial step failures still terminate with a complete event; the
	// per-step detail inside the payload tells the client what failed.
	stream.Complete(resp)
}
