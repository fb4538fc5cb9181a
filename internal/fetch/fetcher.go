// Package fetch retrieves raw feed documents, falling back through relay
// mirrors and a browser-profile session when the direct route is blocked.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Noooste/azuretls-client"
	"golang.org/x/time/rate"

	"newsdeck/internal/config"
	"newsdeck/internal/logger"
	"newsdeck/internal/network"
)

// Error reports that every retrieval route for a feed failed.
type Error struct {
	FeedURL string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.FeedURL, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// BrowserClient is the browser-profile fallback route. The default
// implementation uses an azuretls Chrome session; tests inject a stub.
type BrowserClient interface {
	Get(ctx context.Context, rawURL string, timeout time.Duration) (status int, body []byte, err error)
}

// Fetcher retrieves a feed document by trying routes in order: a direct
// GET, each configured relay, then the browser-profile session. The first
// usable response wins. The fetcher does not cache and does not retry a
// route that already succeeded.
type Fetcher struct {
	factory *network.ClientFactory
	relays  []string
	timeout time.Duration
	browser BrowserClient

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a fetcher with the azuretls browser fallback enabled.
func New(factory *network.ClientFactory, relays []string, timeout time.Duration) *Fetcher {
	f := NewWithBrowser(factory, relays, timeout, nil)
	f.browser = &azureBrowser{factory: factory}
	return f
}

// NewWithBrowser creates a fetcher with an explicit browser route. A nil
// browser disables the route; tests use this to stub it.
func NewWithBrowser(factory *network.ClientFactory, relays []string, timeout time.Duration, browser BrowserClient) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		factory:  factory,
		relays:   relays,
		timeout:  timeout,
		browser:  browser,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch returns the raw document for feedURL, or *Error wrapping the last
// route's failure once every route has been exhausted.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", &Error{FeedURL: feedURL, Cause: errors.New("invalid feed url")}
	}

	var lastErr error

	// Direct route.
	body, err := f.direct(ctx, feedURL, parsed.Host)
	if err == nil {
		return body, nil
	}
	lastErr = err
	logger.Debug("direct fetch failed", "module", "fetch", "action", "fetch", "resource", "feed", "result", "failed", "url", feedURL, "error", err)

	// Relay routes.
	for _, relay := range f.relays {
		target := relay + url.QueryEscape(feedURL)
		host := parsed.Host
		if relayURL, perr := url.Parse(relay); perr == nil && relayURL.Host != "" {
			host = relayURL.Host
		}
		body, err = f.direct(ctx, target, host)
		if err == nil {
			return body, nil
		}
		lastErr = err
		logger.Debug("relay fetch failed", "module", "fetch", "action", "fetch", "resource", "feed", "result", "failed", "relay", relay, "error", err)
	}

	// Browser-profile route.
	if f.browser != nil {
		if err := f.wait(ctx, parsed.Host); err != nil {
			return "", &Error{FeedURL: feedURL, Cause: err}
		}
		status, raw, err := f.browser.Get(ctx, feedURL, f.timeout)
		if err == nil && status < http.StatusBadRequest && len(raw) > 0 {
			return string(raw), nil
		}
		if err == nil {
			err = fmt.Errorf("HTTP %d", status)
		}
		lastErr = err
		logger.Debug("browser fetch failed", "module", "fetch", "action", "fetch", "resource", "feed", "result", "failed", "url", feedURL, "error", err)
	}

	return "", &Error{FeedURL: feedURL, Cause: lastErr}
}

func (f *Fetcher) direct(ctx context.Context, target, host string) (string, error) {
	if err := f.wait(ctx, host); err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.factory.NewHTTPClient(f.timeout).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("empty response body")
	}
	return string(raw), nil
}

// wait applies the per-host rate limit before an attempt.
func (f *Fetcher) wait(ctx context.Context, host string) error {
	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 2)
		f.limiters[host] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

// azureBrowser fetches through an azuretls Chrome-profile session.
type azureBrowser struct {
	factory *network.ClientFactory
}

func (b *azureBrowser) Get(ctx context.Context, rawURL string, timeout time.Duration) (int, []byte, error) {
	session := b.factory.NewAzureSession(timeout)
	defer session.Close()

	resp, err := session.Do(&azuretls.Request{
		Method: http.MethodGet,
		Url:    rawURL,
		OrderedHeaders: azuretls.OrderedHeaders{
			{"accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
			{"sec-ch-ua", config.ChromeSecChUa},
			{"sec-ch-ua-mobile", "?0"},
			{"sec-ch-ua-platform", `"Windows"`},
			{"user-agent", config.ChromeUserAgent},
		},
	})
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, resp.Body, nil
}
