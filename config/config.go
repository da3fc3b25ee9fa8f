package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Capture    CaptureConfig
	MarketData MarketDataConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Webhook    WebhookConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the per-request Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker/serverless).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL applied to the browser.
	Proxy string

	// LaunchSettle is the pause after launch before the browser is probed.
	LaunchSettle time.Duration // default: 500ms

	// ViewportWidth/ViewportHeight/ScaleFactor define the capture viewport.
	// Captures are meant to be high resolution, hence the 2x scale factor.
	ViewportWidth  int     // default: 2560
	ViewportHeight int     // default: 1440
	ScaleFactor    float64 // default: 2

	// UserAgent is the desktop browser identity presented to target sites.
	UserAgent string

	// BlockTrackers installs a request interceptor that drops known
	// ad/analytics domains. Images and styles are never blocked — the
	// captures must stay visually intact.
	BlockTrackers bool // default: true
}

// CaptureConfig controls the screenshot pipeline timing.
// The values are tuned for real anti-bot interstitial latency; lowering them
// trades reliability for speed.
type CaptureConfig struct {
	// DefaultTimeout is the per-operation page timeout.
	DefaultTimeout time.Duration // default: 60s

	// NavigationTimeout bounds page.Navigate alone. TradingView can take
	// well over a minute behind an interstitial.
	NavigationTimeout time.Duration // default: 120s

	// ChallengeWait bounds the wait for the interstitial success marker.
	ChallengeWait time.Duration // default: 30s

	// ChallengeFallback is the fixed extra delay when the marker never shows.
	ChallengeFallback time.Duration // default: 5s

	// ChallengeSecondWait is applied when the interstitial is still present
	// after the first round.
	ChallengeSecondWait time.Duration // default: 15s

	// SelectorTimeout bounds each individual selector attempt.
	SelectorTimeout time.Duration // default: 3s

	// LayoutTimeout bounds the wait for each TradingView layout region.
	LayoutTimeout time.Duration // default: 30s

	// NavigationSettle is the pause after navigation before locating elements.
	NavigationSettle time.Duration // default: 1s

	// RenderSettle is the pause after layout regions appear, letting charts
	// finish painting.
	RenderSettle time.Duration // default: 2s

	// StepDelay is the pause between pipeline steps.
	StepDelay time.Duration // default: 500ms

	// InteractionSettle is the default pause after each pre-capture click.
	InteractionSettle time.Duration // default: 1s
}

// MarketDataConfig controls the external market-data provider client.
type MarketDataConfig struct {
	// APIKey authenticates against the provider. "demo" works for smoke tests.
	APIKey string // default: "demo"

	// BaseURL is the provider query endpoint.
	BaseURL string // default: "https://www.alphavantage.co/query"

	// CallPause is the mandatory gap between consecutive provider calls.
	CallPause time.Duration // default: 1s

	// NewsLimit caps the number of news items requested per ticker.
	NewsLimit int // default: 10

	// Timeout is the per-call HTTP deadline.
	Timeout time.Duration // default: 30s

	// Proxy is an optional proxy URL for provider calls.
	Proxy string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the top-movers response cache.
type CacheConfig struct {
	// MoversTTL is the freshness window for the cached gainers-losers payload.
	MoversTTL time.Duration // default: 5m
}

// WebhookConfig controls the optional snapshot.completed notification.
type WebhookConfig struct {
	// URL is the endpoint notified when a snapshot finishes. Empty disables it.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("TICKERSNAP_HOST", "0.0.0.0"),
			Port: envIntOr("TICKERSNAP_PORT", 8080),
			Mode: envOr("TICKERSNAP_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("TICKERSNAP_HEADLESS", true),
			NoSandbox:      envBoolOr("TICKERSNAP_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("TICKERSNAP_BROWSER_BIN"),
			Proxy:          os.Getenv("TICKERSNAP_PROXY"),
			LaunchSettle:   envDurationOr("TICKERSNAP_LAUNCH_SETTLE", 500*time.Millisecond),
			ViewportWidth:  envIntOr("TICKERSNAP_VIEWPORT_WIDTH", 2560),
			ViewportHeight: envIntOr("TICKERSNAP_VIEWPORT_HEIGHT", 1440),
			ScaleFactor:    envFloatOr("TICKERSNAP_SCALE_FACTOR", 2),
			UserAgent: envOr("TICKERSNAP_USER_AGENT",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			BlockTrackers: envBoolOr("TICKERSNAP_BLOCK_TRACKERS", true),
		},
		Capture: CaptureConfig{
			DefaultTimeout:      envDurationOr("TICKERSNAP_DEFAULT_TIMEOUT", 60*time.Second),
			NavigationTimeout:   envDurationOr("TICKERSNAP_NAV_TIMEOUT", 120*time.Second),
			ChallengeWait:       envDurationOr("TICKERSNAP_CHALLENGE_WAIT", 30*time.Second),
			ChallengeFallback:   envDurationOr("TICKERSNAP_CHALLENGE_FALLBACK", 5*time.Second),
			ChallengeSecondWait: envDurationOr("TICKERSNAP_CHALLENGE_SECOND_WAIT", 15*time.Second),
			SelectorTimeout:     envDurationOr("TICKERSNAP_SELECTOR_TIMEOUT", 3*time.Second),
			LayoutTimeout:       envDurationOr("TICKERSNAP_LAYOUT_TIMEOUT", 30*time.Second),
			NavigationSettle:    envDurationOr("TICKERSNAP_NAV_SETTLE", time.Second),
			RenderSettle:        envDurationOr("TICKERSNAP_RENDER_SETTLE", 2*time.Second),
			StepDelay:           envDurationOr("TICKERSNAP_STEP_DELAY", 500*time.Millisecond),
			InteractionSettle:   envDurationOr("TICKERSNAP_INTERACTION_SETTLE", time.Second),
		},
		MarketData: MarketDataConfig{
			APIKey:    envOr("ALPHA_VANTAGE_API_KEY", "demo"),
			BaseURL:   envOr("TICKERSNAP_MARKET_BASE_URL", "https://www.alphavantage.co/query"),
			CallPause: envDurationOr("TICKERSNAP_MARKET_CALL_PAUSE", time.Second),
			NewsLimit: envIntOr("TICKERSNAP_MARKET_NEWS_LIMIT", 10),
			Timeout:   envDurationOr("TICKERSNAP_MARKET_TIMEOUT", 30*time.Second),
			Proxy:     os.Getenv("TICKERSNAP_MARKET_PROXY"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TICKERSNAP_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TICKERSNAP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TICKERSNAP_RATE_RPS", 2.0),
			Burst:             envIntOr("TICKERSNAP_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MoversTTL: envDurationOr("TICKERSNAP_MOVERS_TTL", 5*time.Minute),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TICKERSNAP_WEBHOOK_URL"),
			Secret: os.Getenv("TICKERSNAP_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("TICKERSNAP_LOG_LEVEL", "info"),
			Format: envOr("TICKERSNAP_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
