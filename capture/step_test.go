package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ysmood/gson"
	"github.com/tradewithedge/tickersnap/models"
)

func TestStepError_DeadlineReportsTimeout(t *testing.T) {
	wrapped := fmt.Errorf("eval: %w", context.DeadlineExceeded)

	err := stepError(models.ErrCodeInternal, "region screenshot failed", wrapped)
	if err.Code != models.ErrCodeTimeout {
		t.Errorf("Code = %q, want %q", err.Code, models.ErrCodeTimeout)
	}
	if !strings.Contains(err.Message, "timed out") {
		t.Errorf("message should mention the timeout: %q", err.Message)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped cause lost")
	}
}

func TestStepError_OtherErrorsKeepCode(t *testing.T) {
	err := stepError(models.ErrCodeNavigation, "navigation to finviz failed", errors.New("net::ERR_FAILED"))
	if err.Code != models.ErrCodeNavigation {
		t.Errorf("Code = %q, want %q", err.Code, models.ErrCodeNavigation)
	}
	if strings.Contains(err.Message, "timed out") {
		t.Errorf("non-deadline error should keep its message: %q", err.Message)
	}
}

func TestRectFromJSON(t *testing.T) {
	v := gson.NewFrom(`{"left": 10.5, "top": 0, "right": 2000, "bottom": 940.25}`)
	got := rectFromJSON(v)
	want := Rect{Left: 10.5, Top: 0, Right: 2000, Bottom: 940.25}
	if got != want {
		t.Errorf("rectFromJSON = %+v, want %+v", got, want)
	}

	partial := rectFromJSON(gson.NewFrom(`{"left": 5}`))
	if partial.Left != 5 || partial.Right != 0 || partial.Bottom != 0 {
		t.Errorf("missing fields should read as zero: %+v", partial)
	}
}

func TestTickerNotFound(t *testing.T) {
	tests := []struct {
		name     string
		finalURL string
		want     bool
	}{
		{"exact quote url", "https://finviz.com/quote.ashx?t=AAPL", false},
		{"redirect keeps ticker param", "https://finviz.com/search.ashx?t=AAPL", false},
		{"redirect to quote path without param", "https://finviz.com/quote.ashx", false},
		{"redirect to homepage", "https://finviz.com/", true},
		{"redirect to screener", "https://finviz.com/screener.ashx", true},
		{"empty url treated as unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tickerNotFound(tt.finalURL, "t=AAPL", "finviz.com/quote")
			if got != tt.want {
				t.Errorf("tickerNotFound(%q) = %t, want %t", tt.finalURL, got, tt.want)
			}
		})
	}
}

func TestCombineRegion(t *testing.T) {
	top := Rect{Left: 10, Top: 0, Right: 2000, Bottom: 100}
	center := Rect{Left: 0, Top: 100, Right: 1500, Bottom: 900}

	got := combineRegion(top, center)

	if got.Left != 0 || got.Top != 0 || got.Bottom != 900 {
		t.Errorf("unexpected combined rect: %+v", got)
	}
	// The right edge takes the narrower of the two regions.
	if got.Right != 1500 {
		t.Errorf("Right = %v, want the smaller edge 1500", got.Right)
	}
}

func TestRectDimensions(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 220}
	if r.Width() != 100 {
		t.Errorf("Width = %v, want 100", r.Width())
	}
	if r.Height() != 200 {
		t.Errorf("Height = %v, want 200", r.Height())
	}

	inverted := Rect{Left: 100, Top: 100, Right: 50, Bottom: 50}
	if inverted.Width() != 0 || inverted.Height() != 0 {
		t.Errorf("inverted rect should clamp to zero, got %v x %v",
			inverted.Width(), inverted.Height())
	}
}

func TestEncodePNG(t *testing.T) {
	got := encodePNG([]byte{0x89, 'P', 'N', 'G'})
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("missing data URI prefix: %q", got)
	}
	if got == "data:image/png;base64," {
		t.Error("payload missing from data URI")
	}
}

func TestMustSelector_Valid(t *testing.T) {
	if got := mustSelector(`table[class*="snapshot"]`); got != `table[class*="snapshot"]` {
		t.Errorf("mustSelector altered its input: %q", got)
	}
}

func TestMustSelector_InvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on invalid selector")
		}
	}()
	mustSelector("[unterminated")
}

func TestStepLogCode(t *testing.T) {
	plain := stepLog{site: "finviz"}
	if got := plain.code("navigating"); got != "finviz_navigating" {
		t.Errorf("code = %q", got)
	}

	variant := stepLog{site: "tradingview", variant: "intraday"}
	if got := variant.code("screenshot_complete"); got != "tradingview_intraday_screenshot_complete" {
		t.Errorf("code = %q", got)
	}
}
