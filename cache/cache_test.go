package cache

import (
	"testing"
	"time"

	"github.com/tradewithedge/tickersnap/models"
)

func TestMoversCache_EmptyMiss(t *testing.T) {
	c := NewMovers(5 * time.Minute)
	if data, ok := c.Get(); ok || data != nil {
		t.Errorf("empty cache should miss, got %+v", data)
	}
}

func TestMoversCache_FreshHit(t *testing.T) {
	c := NewMovers(5 * time.Minute)
	c.Set(&models.Movers{LastUpdated: "2025-08-29 16:15:59 US/Eastern"})

	data, ok := c.Get()
	if !ok {
		t.Fatal("fresh entry should hit")
	}
	if data.LastUpdated != "2025-08-29 16:15:59 US/Eastern" {
		t.Errorf("unexpected cached payload: %+v", data)
	}
}

func TestMoversCache_StaleMiss(t *testing.T) {
	c := NewMovers(10 * time.Millisecond)
	c.Set(&models.Movers{})

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(); ok {
		t.Error("stale entry should miss")
	}
}

func TestMoversCache_SetRefreshes(t *testing.T) {
	c := NewMovers(10 * time.Millisecond)
	c.Set(&models.Movers{Metadata: "old"})
	time.Sleep(20 * time.Millisecond)
	c.Set(&models.Movers{Metadata: "new"})

	data, ok := c.Get()
	if !ok || data.Metadata != "new" {
		t.Errorf("re-set entry should be fresh, got %+v ok=%t", data, ok)
	}
}
