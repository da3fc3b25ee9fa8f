package models

// Bar is one normalized time-series bucket. The provider delivers numbered
// string fields ("4. close"); the client strips the ordinals, lower-cases the
// names, and injects the derived VWAP before handing out this record.
type Bar struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`

	// VWAP is (high+low+close)/3 rounded to 4 decimals, present only when
	// high, low, and close are all present and non-zero.
	VWAP string `json:"vwap,omitempty"`
}

// TimeSeries is the normalized daily time series for one ticker.
type TimeSeries struct {
	Symbol        string `json:"symbol"`
	LastRefreshed string `json:"last_refreshed"`
	TimeZone      string `json:"time_zone"`

	// Series maps date (YYYY-MM-DD) to the normalized bar.
	Series map[string]Bar `json:"series"`
}

// TickerSentiment is the per-ticker sentiment attached to a news item.
type TickerSentiment struct {
	Ticker         string `json:"ticker"`
	RelevanceScore string `json:"relevance_score"`
	SentimentScore string `json:"ticker_sentiment_score"`
	SentimentLabel string `json:"ticker_sentiment_label"`
}

// NewsItem is one article from the news-sentiment feed.
type NewsItem struct {
	Title            string            `json:"title"`
	URL              string            `json:"url"`
	TimePublished    string            `json:"time_published"`
	Summary          string            `json:"summary"`
	Source           string            `json:"source"`
	OverallScore     float64           `json:"overall_sentiment_score"`
	OverallLabel     string            `json:"overall_sentiment_label"`
	TickerSentiments []TickerSentiment `json:"ticker_sentiment,omitempty"`
}

// NewsSentiment is the news feed for one ticker.
type NewsSentiment struct {
	Items string     `json:"items"`
	Feed  []NewsItem `json:"feed"`
}

// SymbolMatch is one reshaped symbol-search result. The provider's numbered
// fields ("1. symbol", "9. matchScore") are converted at the client boundary.
type SymbolMatch struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Region      string  `json:"region"`
	MarketOpen  string  `json:"marketOpen"`
	MarketClose string  `json:"marketClose"`
	Timezone    string  `json:"timezone"`
	Currency    string  `json:"currency"`
	MatchScore  float64 `json:"matchScore"`
}

// StockQuote is one entry in the top-movers listing.
type StockQuote struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// Movers is the reshaped top gainers/losers/most-active payload.
type Movers struct {
	Metadata           string       `json:"metadata"`
	LastUpdated        string       `json:"last_updated"`
	TopGainers         []StockQuote `json:"top_gainers"`
	TopLosers          []StockQuote `json:"top_losers"`
	MostActivelyTraded []StockQuote `json:"most_actively_traded"`
}
