package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/models"
)

// Ticker serves the symbol search endpoint.
type Ticker struct {
	market MarketFetcher
}

func NewTicker(market MarketFetcher) *Ticker {
	return &Ticker{market: market}
}

// Search handles GET /api/ticker/search?keywords=.
func (h *Ticker) Search(c *gin.Context) {
	keywords := strings.TrimSpace(c.Query("keywords"))
	if keywords == "" {
		respondError(c, models.NewSnapshotError(
			models.ErrCodeInvalidInput,
			"keywords parameter is required",
			nil,
		))
		return
	}

	matches, err := h.market.SymbolSearch(c.Request.Context(), keywords)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{
		Success:  true,
		Keywords: keywords,
		Count:    len(matches),
		Results:  matches,
	})
}
