package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"gqlfuzz/internal/logger"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds every fuzz request.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "gqlfuzz/1.0"

// rateLimitBackoff is the pause taken after a 429 before retrying.
var rateLimitBackoff = 5 * time.Second

// Client wraps http.Client with the headers, pacing and retry policy of a fuzz run.
type Client struct {
	httpClient   *http.Client      // The underlying standard HTTP client.
	logger       *logger.Logger    // Logger for client-related messages.
	userAgent    string            // Custom User-Agent header for requests.
	maxRetries   int               // Retries for 429 and 5xx responses.
	requestDelay time.Duration     // Pause before every request attempt.
	authHeaders  map[string]string // Static headers added to every request.
}

// ClientOptions holds configuration parameters for initializing the HTTP Client.
type ClientOptions struct {
	Timeout            time.Duration     // Timeout for HTTP requests.
	FollowRedirects    bool              // Whether to follow HTTP redirects.
	InsecureSkipVerify bool              // Whether to skip TLS certificate verification.
	UserAgent          string            // Custom User-Agent string.
	MaxRetries         int               // Retries for 429 and 5xx responses, 0 disables them.
	RequestDelay       time.Duration     // Delay between requests.
	AuthHeaders        map[string]string // Static headers for authentication.
}

// NewClient creates and returns a new HTTP client instance with specified options.
func NewClient(log *logger.Logger, opts ClientOptions) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	// Session cookies set by the target are replayed, scoped per registrable domain.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
	}

	client := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		logger:       log,
		userAgent:    opts.UserAgent,
		maxRetries:   opts.MaxRetries,
		requestDelay: opts.RequestDelay,
		authHeaders:  opts.AuthHeaders,
	}

	if len(opts.AuthHeaders) > 0 {
		names := make([]string, 0, len(opts.AuthHeaders))
		for name := range opts.AuthHeaders {
			names = append(names, name)
		}
		log.Debug("Static headers configured: %s", strings.Join(names, ", "))
	}

	client.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= 10 {
			log.Warn("Exceeded maximum redirects (10).")
			return http.ErrUseLastResponse
		}
		return nil
	}
	return client
}

// Do performs an HTTP request, adding the configured headers and retrying 429/5xx responses.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.authHeaders {
		req.Header.Set(key, value)
	}

	c.logger.Trace("Sending request: %s %s", req.Method, req.URL.String())

	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	var resp *http.Response
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		if c.requestDelay > 0 {
			if err := sleep(req.Context(), c.requestDelay); err != nil {
				return nil, err
			}
		}

		reqClone := req.Clone(req.Context())
		if bodyBytes != nil {
			reqClone.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			reqClone.ContentLength = int64(len(bodyBytes))
		}

		resp, err = c.httpClient.Do(reqClone)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests && (resp.StatusCode < 500 || resp.StatusCode > 599) {
			return resp, nil
		}
		if i == c.maxRetries {
			break
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn("Rate limit detected (429 Too Many Requests). Waiting for %v before retrying...", rateLimitBackoff)
			resp.Body.Close()
			if err := sleep(req.Context(), rateLimitBackoff); err != nil {
				return nil, err
			}
			continue
		}
		resp.Body.Close()
	}

	return resp, err
}

// Post performs an HTTP POST request using the custom client.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// CloseIdleConnections releases keep-alive connections held by the transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
