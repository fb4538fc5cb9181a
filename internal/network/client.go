package network

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Noooste/azuretls-client"
	"golang.org/x/net/proxy"
)

// ClientFactory creates HTTP clients and browser-profile sessions with the
// configured proxy applied.
type ClientFactory struct {
	proxyURL       string
	testHTTPClient *http.Client // for tests only
}

// NewClientFactory creates a factory. proxyURL may be empty, an
// http(s):// URL, or a socks5:// URL.
func NewClientFactory(proxyURL string) *ClientFactory {
	return &ClientFactory{proxyURL: strings.TrimSpace(proxyURL)}
}

// NewClientFactoryForTest creates a factory that always returns the given
// http.Client. Tests only.
func NewClientFactoryForTest(client *http.Client) *ClientFactory {
	return &ClientFactory{testHTTPClient: client}
}

// NewHTTPClient creates a standard http.Client honoring the proxy.
func (f *ClientFactory) NewHTTPClient(timeout time.Duration) *http.Client {
	if f.testHTTPClient != nil {
		return f.testHTTPClient
	}

	client := &http.Client{Timeout: timeout}
	if f.proxyURL != "" {
		client.Transport = newTransportWithProxy(f.proxyURL)
	}
	return client
}

// NewAzureSession creates an azuretls session with a Chrome profile.
func (f *ClientFactory) NewAzureSession(timeout time.Duration) *azuretls.Session {
	session := azuretls.NewSession()
	session.Browser = azuretls.Chrome
	session.SetTimeout(timeout)

	if f.proxyURL != "" {
		_ = session.SetProxy(f.proxyURL)
	}
	return session
}

// newTransportWithProxy builds an http.Transport for the proxy URL. SOCKS
// proxies go through golang.org/x/net/proxy; HTTP(S) proxies use the
// standard http.ProxyURL.
func newTransportWithProxy(proxyURL string) *http.Transport {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return &http.Transport{}
	}

	if strings.HasPrefix(parsed.Scheme, "socks") {
		var auth *proxy.Auth
		if parsed.User != nil {
			auth = &proxy.Auth{User: parsed.User.Username()}
			if password, ok := parsed.User.Password(); ok {
				auth.Password = password
			}
		}

		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return &http.Transport{}
		}

		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	}

	return &http.Transport{
		Proxy: http.ProxyURL(parsed),
	}
}
