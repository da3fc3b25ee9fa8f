// Package marketdata is the client for the external market-data provider
// (Alpha Vantage-shaped API): time series, news sentiment, symbol search,
// and the top-movers listing, with typed parsing at the API boundary.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/tradewithedge/tickersnap/config"
	"github.com/tradewithedge/tickersnap/models"
)

const userAgent = "tickersnap-server"

// usRegion is the only region kept by symbol search.
const usRegion = "United States"

// Client calls the market-data provider. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        config.MarketDataConfig
}

// NewClient builds a provider client from config.
func NewClient(cfg config.MarketDataConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: newTransport(cfg.Proxy),
			Timeout:   cfg.Timeout,
		},
		cfg: cfg,
	}
}

// query performs one provider call and decodes the JSON body. The provider
// reports failures inside a 200 body, so three failure classes come out of
// here: transport (non-2xx or network), explicit provider error, and
// provider rate-limit notice — each as a distinct typed error.
func (c *Client) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	params.Set("apikey", c.cfg.APIKey)
	reqURL := c.cfg.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewSnapshotError(models.ErrCodeInternal, "build provider request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewSnapshotError(models.ErrCodeProvider, "provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewSnapshotError(
			models.ErrCodeProvider,
			fmt.Sprintf("provider returned status %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
	if err != nil {
		return nil, models.NewSnapshotError(models.ErrCodeProvider, "read provider response", err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, models.NewSnapshotError(models.ErrCodeProvider, "decode provider response", err)
	}

	if err := providerError(data); err != nil {
		return nil, err
	}
	return data, nil
}

// providerError inspects the decoded body for the provider's in-band failure
// fields: "Error Message" for request errors, "Note"/"Information" for
// call-frequency limits. The provider's own message is preserved.
func providerError(data map[string]json.RawMessage) error {
	if raw, ok := data["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return models.NewSnapshotError(models.ErrCodeProvider, msg, nil)
	}
	for _, key := range []string{"Note", "Information"} {
		if raw, ok := data[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return models.NewSnapshotError(models.ErrCodeProviderRateLimited, msg, nil)
		}
	}
	return nil
}

// TimeSeriesDaily fetches and normalizes the daily time series for a ticker.
func (c *Client) TimeSeriesDaily(ctx context.Context, ticker string) (*models.TimeSeries, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)

	data, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var meta map[string]string
	if raw, ok := data["Meta Data"]; ok {
		_ = json.Unmarshal(raw, &meta)
	}

	raw, ok := data["Time Series (Daily)"]
	if !ok {
		return nil, models.NewSnapshotError(
			models.ErrCodeProvider, "provider response carries no time series", nil)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, models.NewSnapshotError(
			models.ErrCodeProvider, "unexpected time series shape", err)
	}

	return &models.TimeSeries{
		Symbol:        stripOrdinalLookup(meta, "symbol"),
		LastRefreshed: stripOrdinalLookup(meta, "last refreshed"),
		TimeZone:      stripOrdinalLookup(meta, "time zone"),
		Series:        NormalizeSeries(series),
	}, nil
}

// NewsSentiment fetches the news feed with per-article sentiment for a ticker.
func (c *Client) NewsSentiment(ctx context.Context, ticker string) (*models.NewsSentiment, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", ticker)
	params.Set("limit", strconv.Itoa(c.cfg.NewsLimit))

	data, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	news := &models.NewsSentiment{}
	if raw, ok := data["items"]; ok {
		_ = json.Unmarshal(raw, &news.Items)
	}
	if raw, ok := data["feed"]; ok {
		if err := json.Unmarshal(raw, &news.Feed); err != nil {
			return nil, models.NewSnapshotError(
				models.ErrCodeProvider, "unexpected news feed shape", err)
		}
	}
	return news, nil
}

// SymbolSearch finds tickers matching the keywords, keeps US listings only,
// and returns them sorted by descending match score.
func (c *Client) SymbolSearch(ctx context.Context, keywords string) ([]models.SymbolMatch, error) {
	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", keywords)

	data, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var rawMatches []map[string]string
	if raw, ok := data["bestMatches"]; ok {
		if err := json.Unmarshal(raw, &rawMatches); err != nil {
			return nil, models.NewSnapshotError(
				models.ErrCodeProvider, "unexpected symbol search shape", err)
		}
	}

	matches := make([]models.SymbolMatch, 0, len(rawMatches))
	for _, m := range rawMatches {
		if stripOrdinalLookup(m, "region") != usRegion {
			continue
		}
		score, _ := strconv.ParseFloat(stripOrdinalLookup(m, "matchscore"), 64)
		matches = append(matches, models.SymbolMatch{
			Symbol:      stripOrdinalLookup(m, "symbol"),
			Name:        stripOrdinalLookup(m, "name"),
			Type:        stripOrdinalLookup(m, "type"),
			Region:      stripOrdinalLookup(m, "region"),
			MarketOpen:  stripOrdinalLookup(m, "marketopen"),
			MarketClose: stripOrdinalLookup(m, "marketclose"),
			Timezone:    stripOrdinalLookup(m, "timezone"),
			Currency:    stripOrdinalLookup(m, "currency"),
			MatchScore:  score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches, nil
}

// TopMovers fetches the day's top gainers, losers, and most actively traded.
func (c *Client) TopMovers(ctx context.Context) (*models.Movers, error) {
	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")

	data, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	movers := &models.Movers{
		Metadata: "Top gainers, losers, and most actively traded US tickers",
	}
	if raw, ok := data["metadata"]; ok {
		_ = json.Unmarshal(raw, &movers.Metadata)
	}
	if raw, ok := data["last_updated"]; ok {
		_ = json.Unmarshal(raw, &movers.LastUpdated)
	}
	for key, dst := range map[string]*[]models.StockQuote{
		"top_gainers":          &movers.TopGainers,
		"top_losers":           &movers.TopLosers,
		"most_actively_traded": &movers.MostActivelyTraded,
	} {
		if raw, ok := data[key]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				return nil, models.NewSnapshotError(
					models.ErrCodeProvider, "unexpected movers shape", err)
			}
		}
	}
	return movers, nil
}
