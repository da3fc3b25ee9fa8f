package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/cache"
	"github.com/tradewithedge/tickersnap/models"
)

// Movers serves the top gainers/losers endpoint, backed by a short-lived
// server-side cache so a burst of dashboard loads costs one provider call.
type Movers struct {
	market MarketFetcher
	cache  *cache.MoversCache
}

func NewMovers(market MarketFetcher, moversCache *cache.MoversCache) *Movers {
	return &Movers{market: market, cache: moversCache}
}

// Get handles GET /api/gainers-losers.
func (h *Movers) Get(c *gin.Context) {
	if data, ok := h.cache.Get(); ok {
		c.JSON(http.StatusOK, models.MoversResponse{
			Success: true,
			Data:    data,
			Cached:  true,
		})
		return
	}

	data, err := h.market.TopMovers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.Set(data)

	c.JSON(http.StatusOK, models.MoversResponse{
		Success: true,
		Data:    data,
	})
}
