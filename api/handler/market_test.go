package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/cache"
	"github.com/tradewithedge/tickersnap/models"
)

func TestTickerSearch(t *testing.T) {
	market := &fakeMarket{matches: []models.SymbolMatch{
		{Symbol: "AAPL", Name: "Apple Inc", MatchScore: 0.9},
	}}

	r := gin.New()
	r.GET("/api/ticker/search", NewTicker(market).Search)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ticker/search?keywords=apple", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Keywords != "apple" || resp.Count != 1 || resp.Results[0].Symbol != "AAPL" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestTickerSearch_MissingKeywords(t *testing.T) {
	r := gin.New()
	r.GET("/api/ticker/search", NewTicker(&fakeMarket{}).Search)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ticker/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), models.ErrCodeInvalidInput) {
		t.Errorf("body should carry the error code: %s", rec.Body.String())
	}
}

func TestTickerSearch_ProviderRateLimit(t *testing.T) {
	market := &fakeMarket{
		searchErr: models.NewSnapshotError(models.ErrCodeProviderRateLimited, "slow down", nil),
	}
	r := gin.New()
	r.GET("/api/ticker/search", NewTicker(market).Search)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ticker/search?keywords=apple", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestMoversGet_FetchThenCached(t *testing.T) {
	market := &fakeMarket{movers: &models.Movers{LastUpdated: "2025-08-29"}}
	moversCache := cache.NewMovers(time.Minute)

	r := gin.New()
	r.GET("/api/gainers-losers", NewMovers(market, moversCache).Get)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/gainers-losers", nil))

	var resp1 models.MoversResponse
	if err := json.Unmarshal(first.Body.Bytes(), &resp1); err != nil {
		t.Fatal(err)
	}
	if !resp1.Success || resp1.Cached {
		t.Errorf("first call should be a provider fetch: %+v", resp1)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/gainers-losers", nil))

	var resp2 models.MoversResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp2); err != nil {
		t.Fatal(err)
	}
	if !resp2.Success || !resp2.Cached {
		t.Errorf("second call should be served from cache: %+v", resp2)
	}
	if resp2.Data == nil || resp2.Data.LastUpdated != "2025-08-29" {
		t.Errorf("cached payload mismatch: %+v", resp2.Data)
	}
}

func TestMoversGet_ProviderError(t *testing.T) {
	market := &fakeMarket{
		moversErr: models.NewSnapshotError(models.ErrCodeProvider, "provider down", nil),
	}
	r := gin.New()
	r.GET("/api/gainers-losers", NewMovers(market, cache.NewMovers(time.Minute)).Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gainers-losers", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealth("1.0.0").Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != "1.0.0" {
		t.Errorf("unexpected health payload: %+v", resp)
	}
}
