package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/models"
)

// Health serves the liveness endpoint.
type Health struct {
	startTime time.Time
	version   string
}

func NewHealth(version string) *Health {
	return &Health{startTime: time.Now(), version: version}
}

// Get handles GET /health.
func (h *Health) Get(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
	})
}
