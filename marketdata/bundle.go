package marketdata

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// FetchBundle runs the two provider calls for a ticker — news sentiment
// first, then the daily time series — with the mandatory rate-limit pause
// between them. The calls are independent: a failure in one is captured in
// its own outcome and never prevents the other from running.
func (c *Client) FetchBundle(ctx context.Context, ticker string, emit progress.Sink) *models.MarketDataBundle {
	bundle := &models.MarketDataBundle{}

	emit.Emit(progress.Event{
		Message: "Fetching news sentiment...",
		Step:    "market_news_fetch",
		Status:  progress.StatusStarted,
		Ticker:  ticker,
	})
	news := &models.NewsOutcome{}
	if data, err := c.NewsSentiment(ctx, ticker); err != nil {
		news.Error = err.Error()
		slog.Warn("news sentiment fetch failed", "ticker", ticker, "error", err)
		emit.Emit(progress.Event{
			Message: "Failed to fetch news sentiment: " + err.Error(),
			Step:    "market_news_error",
			Status:  progress.StatusFailed,
			Ticker:  ticker,
		})
	} else {
		news.Success = true
		news.Data = data
		emit.Emit(progress.Event{
			Message: "News sentiment fetched successfully",
			Step:    "market_news_complete",
			Status:  progress.StatusSucceeded,
			Ticker:  ticker,
		})
	}
	bundle.News = news

	emit.Emit(progress.Event{
		Message: "Waiting before next provider call (rate limit)...",
		Step:    "market_rate_limit_delay",
		Status:  progress.StatusStarted,
		Ticker:  ticker,
	})
	wait(ctx, c.cfg.CallPause)

	emit.Emit(progress.Event{
		Message: "Fetching time series...",
		Step:    "market_trading_fetch",
		Status:  progress.StatusStarted,
		Ticker:  ticker,
	})
	trading := &models.TimeSeriesOutcome{}
	if data, err := c.TimeSeriesDaily(ctx, ticker); err != nil {
		trading.Error = err.Error()
		slog.Warn("time series fetch failed", "ticker", ticker, "error", err)
		emit.Emit(progress.Event{
			Message: "Failed to fetch time series: " + err.Error(),
			Step:    "market_trading_error",
			Status:  progress.StatusFailed,
			Ticker:  ticker,
		})
	} else {
		trading.Success = true
		trading.Data = data
		emit.Emit(progress.Event{
			Message: "Time series fetched successfully",
			Step:    "market_trading_complete",
			Status:  progress.StatusSucceeded,
			Ticker:  ticker,
		})
	}
	bundle.TimeSeries = trading

	return bundle
}

func wait(ctx context.Context, d time.Duration) {
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
