// Package session provides the cookie-aware HTTP session a scan runs on.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"golang.org/x/net/proxy"
)

// Options configure a new session.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	RandomAgent bool
	Headers     map[string]string
	Proxy       string
	// VerifyTLS enables certificate verification. Scanned hosts commonly use
	// self-signed certificates so it is off unless requested.
	VerifyTLS bool
}

// Session wraps an http.Client with a cookie jar and default request headers.
type Session struct {
	client  *http.Client
	jar     http.CookieJar
	headers http.Header
	opts    Options
}

// New creates a session from opts.
func New(opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = consts.DefaultHTTPTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = consts.DefaultUserAgent
		if opts.RandomAgent {
			opts.UserAgent = RandomUserAgent()
		}
	}

	transport, err := newTransport(opts)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	headers := http.Header{}
	headers.Set("User-Agent", opts.UserAgent)
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	return &Session{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		jar:     jar,
		headers: headers,
		opts:    opts,
	}, nil
}

func newTransport(opts Options) (*http.Transport, error) {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !opts.VerifyTLS},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	if opts.Proxy == "" {
		transport.Proxy = http.ProxyFromEnvironment
		return transport, nil
	}

	proxyURL, err := url.Parse(opts.Proxy)
	if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q", opts.Proxy)
	}

	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("configure socks proxy: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
	return transport, nil
}

// Client exposes the underlying client.
func (s *Session) Client() *http.Client {
	return s.client
}

// UserAgent returns the agent string sent with every request.
func (s *Session) UserAgent() string {
	return s.headers.Get("User-Agent")
}

// Do sends req after filling in any default header it does not set itself.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	s.applyHeaders(req)
	return s.client.Do(req)
}

func (s *Session) applyHeaders(req *http.Request) {
	for k, vals := range s.headers {
		if req.Header.Get(k) == "" {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
	}
}

// Get issues a GET request.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return s.Do(req)
}

// GetBody issues a GET request and returns the status code and body.
func (s *Session) GetBody(ctx context.Context, rawURL string) (int, string, error) {
	resp, err := s.Get(ctx, rawURL)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, err := ReadBody(resp)
	return resp.StatusCode, body, err
}

// PostForm submits values as a form. Redirects are not followed so callers can
// inspect the Location header.
func (s *Session) PostForm(ctx context.Context, rawURL string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noFollow := *s.client
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	s.applyHeaders(req)
	return noFollow.Do(req)
}

// Clone returns an independent session with the same headers, proxy and the
// cookies currently held for base. Connection state is not shared.
func (s *Session) Clone(base string) (*Session, error) {
	clone, err := New(s.opts)
	if err != nil {
		return nil, err
	}
	clone.headers = s.headers.Clone()

	if u, err := url.Parse(base); err == nil && u.Host != "" {
		clone.jar.SetCookies(u, s.jar.Cookies(u))
	}
	return clone, nil
}

// Detached returns a session for third-party hosts. It keeps the proxy, timeout
// and User-Agent but carries no operator headers and no cookies.
func (s *Session) Detached() (*Session, error) {
	opts := s.opts
	opts.Headers = nil
	opts.UserAgent = s.UserAgent()
	return New(opts)
}

// Cookies returns the cookies held for rawURL.
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.jar.Cookies(u)
}

// ReadBody reads at most BodyReadLimitBytes of the response body.
func ReadBody(resp *http.Response) (string, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, consts.BodyReadLimitBytes))
	if err != nil {
		return string(data), fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// ParseHeaders turns "Name: value" strings into a header map.
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ": ")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q (expected \"Name: value\")", sharedErrors.ErrInvalidHeader, h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
}

// RandomUserAgent picks one of the built-in browser agents.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
