package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// stepResult mirrors the Tickersnap API screenshot result model.
type stepResult struct {
	Name    string            `json:"name"`
	Variant string            `json:"variant"`
	Success bool              `json:"success"`
	Image   string            `json:"image"`
	URL     string            `json:"url"`
	Metrics map[string]string `json:"metrics"`
	Error   string            `json:"error"`
}

// snapshotResponse mirrors the Tickersnap API snapshot response model.
type snapshotResponse struct {
	Success     bool         `json:"success"`
	Ticker      string       `json:"ticker"`
	Screenshots []stepResult `json:"screenshots"`
	MarketData  *struct {
		News *struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Data    *struct {
				Feed []struct {
					Title                 string  `json:"title"`
					Source                string  `json:"source"`
					TimePublished         string  `json:"time_published"`
					OverallSentimentLabel string  `json:"overall_sentiment_label"`
					OverallSentimentScore float64 `json:"overall_sentiment_score"`
				} `json:"feed"`
			} `json:"data"`
		} `json:"news"`
		Trading *struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Data    *struct {
				Symbol        string                       `json:"symbol"`
				LastRefreshed string                       `json:"last_refreshed"`
				Series        map[string]map[string]string `json:"series"`
			} `json:"data"`
		} `json:"trading"`
	} `json:"market_data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// searchResponse mirrors the Tickersnap API symbol search response model.
type searchResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Results []struct {
		Symbol     string  `json:"symbol"`
		Name       string  `json:"name"`
		Type       string  `json:"type"`
		Region     string  `json:"region"`
		Currency   string  `json:"currency"`
		MatchScore float64 `json:"matchScore"`
	} `json:"results"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// moversResponse mirrors the Tickersnap API gainers-losers response model.
type moversResponse struct {
	Success bool `json:"success"`
	Cached  bool `json:"cached"`
	Data    *struct {
		LastUpdated        string  `json:"last_updated"`
		TopGainers         []quote `json:"top_gainers"`
		TopLosers          []quote `json:"top_losers"`
		MostActivelyTraded []quote `json:"most_actively_traded"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type quote struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

func main() {
	apiURL := os.Getenv("TICKERSNAP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the API runs without auth by default.
	apiKey := os.Getenv("TICKERSNAP_API_KEY")

	s := server.NewMCPServer(
		"tickersnap",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	snapshotTool := mcp.NewTool("ticker_snapshot",
		mcp.WithDescription("Capture a full visual and data snapshot of a stock ticker: Finviz fundamentals table, TradingView daily and intraday charts, recent news sentiment, and daily price history. Slow (1-3 minutes): drives a real browser through anti-bot challenges."),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("The stock ticker symbol, e.g. 'AAPL' or 'NVDA'"),
		),
	)
	s.AddTool(snapshotTool, handleSnapshot(apiURL, apiKey))

	searchTool := mcp.NewTool("ticker_search",
		mcp.WithDescription("Search for US stock ticker symbols by company name or keyword. Returns matching symbols sorted by relevance."),
		mcp.WithString("keywords",
			mcp.Required(),
			mcp.Description("Company name or keyword to search for, e.g. 'apple'"),
		),
	)
	s.AddTool(searchTool, handleSearch(apiURL, apiKey))

	moversTool := mcp.NewTool("top_movers",
		mcp.WithDescription("Get today's top gaining, top losing, and most actively traded US stocks."),
	)
	s.AddTool(moversTool, handleMovers(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiGet sends a GET request to the Tickersnap API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string, params url.Values) ([]byte, error) {
	target := apiURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleSnapshot(apiURL, apiKey string) server.ToolHandlerFunc {
	// Worst case: three navigations, each behind an anti-bot interstitial.
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil {
			return mcp.NewToolResultError("ticker is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/snapshot",
			url.Values{"ticker": {ticker}})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot request failed: %v", err)), nil
		}

		var snap snapshotResponse
		if err := json.Unmarshal(respBody, &snap); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse snapshot response: %v", err)), nil
		}

		if snap.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", snap.Error.Code, snap.Error.Message)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Snapshot for %s (overall success: %t)\n\n", snap.Ticker, snap.Success))

		for _, shot := range snap.Screenshots {
			label := shot.Name
			if shot.Variant != "" {
				label += " (" + shot.Variant + ")"
			}
			if shot.Success {
				sb.WriteString(fmt.Sprintf("## %s — captured (%d KB image)\n", label, len(shot.Image)/1024))
				if len(shot.Metrics) > 0 {
					for k, v := range shot.Metrics {
						sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
					}
				}
			} else {
				sb.WriteString(fmt.Sprintf("## %s — FAILED: %s\n", label, shot.Error))
			}
			sb.WriteString("\n")
		}

		if md := snap.MarketData; md != nil {
			if md.News != nil {
				sb.WriteString("## News sentiment\n")
				if md.News.Success && md.News.Data != nil {
					for _, item := range md.News.Data.Feed {
						sb.WriteString(fmt.Sprintf("- [%s %.2f] %s (%s, %s)\n",
							item.OverallSentimentLabel, item.OverallSentimentScore,
							item.Title, item.Source, item.TimePublished))
					}
				} else {
					sb.WriteString("FAILED: " + md.News.Error + "\n")
				}
				sb.WriteString("\n")
			}
			if md.Trading != nil {
				sb.WriteString("## Daily price history\n")
				if md.Trading.Success && md.Trading.Data != nil {
					sb.WriteString(fmt.Sprintf("%s, last refreshed %s, %d trading days\n",
						md.Trading.Data.Symbol, md.Trading.Data.LastRefreshed, len(md.Trading.Data.Series)))
				} else {
					sb.WriteString("FAILED: " + md.Trading.Error + "\n")
				}
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keywords, err := request.RequireString("keywords")
		if err != nil {
			return mcp.NewToolResultError("keywords is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/ticker/search",
			url.Values{"keywords": {keywords}})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var search searchResponse
		if err := json.Unmarshal(respBody, &search); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse search response: %v", err)), nil
		}

		if !search.Success {
			errMsg := "search failed"
			if search.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", search.Error.Code, search.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Found %d US symbols:\n\n", search.Count))
		for _, m := range search.Results {
			sb.WriteString(fmt.Sprintf("%s — %s (%s, %s, score %.2f)\n",
				m.Symbol, m.Name, m.Type, m.Currency, m.MatchScore))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleMovers(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/gainers-losers", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("movers request failed: %v", err)), nil
		}

		var movers moversResponse
		if err := json.Unmarshal(respBody, &movers); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse movers response: %v", err)), nil
		}

		if !movers.Success || movers.Data == nil {
			errMsg := "movers fetch failed"
			if movers.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", movers.Error.Code, movers.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		writeQuotes := func(sb *strings.Builder, heading string, quotes []quote) {
			sb.WriteString("## " + heading + "\n")
			for _, q := range quotes {
				sb.WriteString(fmt.Sprintf("%s: %s (%s, %s), volume %s\n",
					q.Ticker, q.Price, q.ChangeAmount, q.ChangePercentage, q.Volume))
			}
			sb.WriteString("\n")
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Market movers, last updated %s\n\n", movers.Data.LastUpdated))
		writeQuotes(&sb, "Top gainers", movers.Data.TopGainers)
		writeQuotes(&sb, "Top losers", movers.Data.TopLosers)
		writeQuotes(&sb, "Most actively traded", movers.Data.MostActivelyTraded)

		return mcp.NewToolResultText(sb.String()), nil
	}
}
