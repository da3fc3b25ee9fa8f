// Package cache holds the last top-movers payload in memory. The movers
// listing only changes a few times a minute upstream and every dashboard
// client polls it, so one shared entry with a short freshness window keeps
// the provider's rate limit for the calls that matter.
package cache

import (
	"sync"
	"time"

	"github.com/tradewithedge/tickersnap/models"
)

// MoversCache is a single-entry cache for the gainers-losers payload.
// It is safe for concurrent use.
type MoversCache struct {
	mu        sync.RWMutex
	data      *models.Movers
	fetchedAt time.Time
	ttl       time.Duration
}

// NewMovers creates a movers cache with the given freshness window.
func NewMovers(ttl time.Duration) *MoversCache {
	return &MoversCache{ttl: ttl}
}

// Get returns the cached payload if it is younger than the freshness window.
func (c *MoversCache) Get() (*models.Movers, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.data, true
}

// Set stores a freshly fetched payload.
func (c *MoversCache) Set(data *models.Movers) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.fetchedAt = time.Now()
}
