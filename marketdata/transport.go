package marketdata

import (
	"context"
	"net"
	"net/http"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// newTransport builds an HTTP transport whose TLS handshake presents a
// Chrome fingerprint. The provider sits behind the same bot-filtering CDNs
// as the scraped sites, and a Go-default ClientHello is an easy tell.
func newTransport(proxy string) *http.Transport {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return transport
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
