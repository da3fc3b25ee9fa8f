package capture

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// trackerDomains is a set of well-known ad and analytics domains. Requests to
// these are dropped during capture: they slow the page down and can paint
// consent prompts or ad frames into the screenshot. Actual page assets
// (images, stylesheets, fonts) are never blocked.
var trackerDomains = map[string]struct{}{
	"doubleclick.net":        {},
	"googlesyndication.com":  {},
	"googleadservices.com":   {},
	"google-analytics.com":   {},
	"googletagmanager.com":   {},
	"googletagservices.com":  {},
	"connect.facebook.net":   {},
	"adnxs.com":              {},
	"adsrvr.org":             {},
	"amazon-adsystem.com":    {},
	"criteo.com":             {},
	"outbrain.com":           {},
	"taboola.com":            {},
	"moatads.com":            {},
	"pubmatic.com":           {},
	"rubiconproject.com":     {},
	"scorecardresearch.com":  {},
	"quantserve.com":         {},
	"hotjar.com":             {},
	"mixpanel.com":           {},
	"chartbeat.com":          {},
	"demdex.net":             {},
	"krxd.net":               {},
	"mathtag.com":            {},
	"serving-sys.com":        {},
	"sharethis.com":          {},
	"addthis.com":            {},
}

// isTrackerDomain checks the hostname and every parent domain against the
// blocklist ("pagead2.googlesyndication.com" matches "googlesyndication.com").
func isTrackerDomain(host string) bool {
	host = strings.ToLower(host)
	if _, ok := trackerDomains[host]; ok {
		return true
	}
	for {
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
		if _, ok := trackerDomains[host]; ok {
			return true
		}
	}
}

// blockTrackers installs a request interceptor on the page that fails
// requests to known tracker domains and continues everything else.
// Returns the running HijackRouter so the session can stop it on Close.
func blockTrackers(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if u, err := url.Parse(ctx.Request.URL().String()); err == nil {
			if isTrackerDomain(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop() is called.
	go router.Run()

	return router
}
