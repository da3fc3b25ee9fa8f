package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// fakeMarket is a canned MarketFetcher for handler tests.
type fakeMarket struct {
	bundle    *models.MarketDataBundle
	matches   []models.SymbolMatch
	searchErr error
	movers    *models.Movers
	moversErr error

	// onFetch, when set, runs at the top of FetchBundle so tests can observe
	// pipeline state at the moment the provider calls begin.
	onFetch func()
}

func (f *fakeMarket) FetchBundle(context.Context, string, progress.Sink) *models.MarketDataBundle {
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.bundle != nil {
		return f.bundle
	}
	return &models.MarketDataBundle{}
}

func (f *fakeMarket) SymbolSearch(context.Context, string) ([]models.SymbolMatch, error) {
	return f.matches, f.searchErr
}

func (f *fakeMarket) TopMovers(context.Context) (*models.Movers, error) {
	return f.movers, f.moversErr
}

func TestParseTicker(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"AAPL", "AAPL", false},
		{"nvda", "NVDA", false},
		{"  msft ", "MSFT", false},
		{"BRK.B", "BRK.B", false},
		{"RDS-A", "RDS-A", false},
		{"", "", true},
		{"   ", "", true},
		{"1AAPL", "", true},
		{"AA PL", "", true},
		{"WAYTOOLONGSYMBOL", "", true},
		{"AAPL;DROP", "", true},
	}
	for _, tt := range tests {
		got, err := parseTicker(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTicker(%q) expected error", tt.in)
				continue
			}
			var serr *models.SnapshotError
			if !errors.As(err, &serr) || serr.Code != models.ErrCodeInvalidInput {
				t.Errorf("parseTicker(%q) error should be INVALID_INPUT, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTicker(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeUnauthorized, http.StatusUnauthorized},
		{models.ErrCodeTickerNotFound, http.StatusNotFound},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeProviderRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeProvider, http.StatusBadGateway},
		{models.ErrCodeTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeBrowserLaunch, http.StatusInternalServerError},
		{models.ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapErrorToStatus(tt.code); got != tt.want {
			t.Errorf("mapErrorToStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
