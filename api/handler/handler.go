// Package handler implements the HTTP request handlers.
package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/models"
	"github.com/tradewithedge/tickersnap/progress"
)

// MarketFetcher is the market-data surface the handlers depend on.
type MarketFetcher interface {
	FetchBundle(ctx context.Context, ticker string, emit progress.Sink) *models.MarketDataBundle
	SymbolSearch(ctx context.Context, keywords string) ([]models.SymbolMatch, error)
	TopMovers(ctx context.Context) (*models.Movers, error)
}

var tickerPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,11}$`)

// parseTicker validates and canonicalizes the ticker query parameter.
func parseTicker(raw string) (string, error) {
	ticker := strings.TrimSpace(raw)
	if ticker == "" {
		return "", models.NewSnapshotError(
			models.ErrCodeInvalidInput,
			"ticker parameter is required",
			nil,
		)
	}
	if !tickerPattern.MatchString(ticker) {
		return "", models.NewSnapshotError(
			models.ErrCodeInvalidInput,
			"ticker must be 1-12 characters: letters, digits, dot, dash",
			nil,
		)
	}
	return strings.ToUpper(ticker), nil
}

// respondError writes a structured error response with an appropriate status.
func respondError(c *gin.Context, err error) {
	detail := toDetail(err)
	c.JSON(mapErrorToStatus(detail.Code), gin.H{
		"success": false,
		"error":   detail,
	})
}

func toDetail(err error) *models.ErrorDetail {
	var serr *models.SnapshotError
	if errors.As(err, &serr) {
		return serr.ToDetail()
	}
	return &models.ErrorDetail{
		Code:    models.ErrCodeInternal,
		Message: err.Error(),
	}
}

func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeTickerNotFound:
		return http.StatusNotFound
	case models.ErrCodeRateLimited, models.ErrCodeProviderRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeNavigation, models.ErrCodeProvider:
		return http.StatusBadGateway
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
