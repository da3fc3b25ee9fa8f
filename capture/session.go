// Package capture owns the screenshot pipeline: one browser session per
// ticker request, a fixed ordered list of site-specific steps run against the
// session's single page, and the runner that isolates step failures while
// streaming progress events.
package capture

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/tradewithedge/tickersnap/config"
	"github.com/tradewithedge/tickersnap/models"
)

// Session owns one browser process and one page for the duration of a single
// ticker request. It is never shared across requests: the caller that opens
// it must Close it on every exit path.
type Session struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	captureCfg config.CaptureConfig

	mu     sync.Mutex
	page   *rod.Page
	router *rod.HijackRouter
	closed bool
}

// Open launches a fresh isolated browser process configured for headless,
// container-friendly execution, waits out a short settle delay, and verifies
// the process is actually reachable before returning.
func Open(browserCfg config.BrowserConfig, captureCfg config.CaptureConfig) (*Session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process,AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewSnapshotError(
			models.ErrCodeBrowserLaunch,
			"failed to launch browser",
			err,
		)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewSnapshotError(
			models.ErrCodeBrowserLaunch,
			"failed to connect to browser",
			err,
		)
	}

	// Chrome occasionally accepts the connection and dies moments later.
	// Settle, then probe it before handing the session out.
	time.Sleep(browserCfg.LaunchSettle)
	if _, err := browser.Version(); err != nil {
		_ = browser.Close()
		return nil, models.NewSnapshotError(
			models.ErrCodeBrowserLaunch,
			"browser unreachable after launch",
			err,
		)
	}

	slog.Info("capture session opened", "controlURL", controlURL)

	return &Session{
		browser:    browser,
		browserCfg: browserCfg,
		captureCfg: captureCfg,
	}, nil
}

// Page returns the session's single shared tab, creating and configuring it
// on first use: high-resolution viewport, desktop browser identity, stealth
// script, and the tracker-domain interceptor. All steps reuse this one page;
// the runner guarantees no two steps touch it concurrently.
func (s *Session) Page() (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		return s.page, nil
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewSnapshotError(
			models.ErrCodeBrowserLaunch,
			"failed to create page",
			err,
		)
	}

	// Stealth must be injected before the first navigation; it only takes
	// effect for documents created after installation.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.browserCfg.ViewportWidth,
		Height:            s.browserCfg.ViewportHeight,
		DeviceScaleFactor: s.browserCfg.ScaleFactor,
		Mobile:            false,
	}); err != nil {
		_ = page.Close()
		return nil, models.NewSnapshotError(
			models.ErrCodeBrowserLaunch,
			"failed to set viewport",
			err,
		)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: s.browserCfg.UserAgent,
	}); err != nil {
		slog.Warn("user-agent override failed", "error", err)
	}

	if s.browserCfg.BlockTrackers {
		s.router = blockTrackers(page)
	}

	s.page = page
	return page, nil
}

// Capture returns the timing configuration shared by all steps.
func (s *Session) Capture() config.CaptureConfig {
	return s.captureCfg
}

// Close tears down the page and the browser process. It is idempotent and
// never returns an error: teardown failures are logged and swallowed so they
// cannot mask an earlier pipeline error.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			slog.Warn("hijack router stop failed", "error", err)
		}
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			slog.Warn("page close failed", "error", err)
		}
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("capture session closed")
}
