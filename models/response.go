package models

// SearchResponse is the response for GET /api/ticker/search.
type SearchResponse struct {
	Success  bool          `json:"success"`
	Keywords string        `json:"keywords"`
	Count    int           `json:"count"`
	Results  []SymbolMatch `json:"results"`
	Error    *ErrorDetail  `json:"error,omitempty"`
}

// MoversResponse is the response for GET /api/gainers-losers.
type MoversResponse struct {
	Success bool         `json:"success"`
	Data    *Movers      `json:"data,omitempty"`
	Cached  bool         `json:"cached,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
