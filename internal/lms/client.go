// Package lms is a client for the Canvas LMS REST API: paginated listings, file metadata, and downloads.
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomnomnom/linkheader"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultPerPage is the page size requested on the first page of every listing.
const DefaultPerPage = 100

// Client talks to one Canvas instance with one access token.
// It never retries; callers decide retry policy.
type Client struct {
	baseURL  string
	token    string
	api      *http.Client
	download *http.Client
	limiter  *rate.Limiter
	perPage  int
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for per-page debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit bounds outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithPerPage overrides DefaultPerPage.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithTimeout sets the per-request timeout for both API calls and downloads.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.api.Timeout = d
		c.download.Timeout = d
	}
}

// WithTransport replaces the base transport (tests use httptest transports).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.api.Transport = &oauth2.Transport{Source: c.tokenSource(), Base: rt}
		c.download.Transport = rt
	}
}

// New returns a client for baseURL authenticated with a bearer token.
// API calls go through an oauth2 transport; downloads set the header per request so
// it is dropped on cross-host redirects to file storage.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		download: &http.Client{Timeout: 30 * time.Second},
		perPage:  DefaultPerPage,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   zap.NewNop(),
	}
	c.api = &http.Client{
		Timeout:   30 * time.Second,
		Transport: &oauth2.Transport{Source: c.tokenSource()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) tokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
}

// BaseURL returns the configured Canvas base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchAll follows rel="next" Link headers from path until exhausted and returns every
// record of every page in page order. query is sent on the first request only.
func (c *Client) FetchAll(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	return fetchAll[json.RawMessage](ctx, c, path, query)
}

func fetchAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	if q.Get("per_page") == "" {
		q.Set("per_page", fmt.Sprint(c.perPage))
	}
	next := c.baseURL + path + "?" + q.Encode()

	var out []T
	for page := 1; next != ""; page++ {
		body, header, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		var records []T
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("decode page %d of %s: %w", page, path, err)
		}
		out = append(out, records...)
		c.logger.Debug("lms page fetched",
			zap.String("path", path), zap.Int("page", page), zap.Int("records", len(records)))
		next, err = nextLink(next, header.Get("Link"))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// nextLink returns the absolute rel="next" URL from a Link header, or "" when absent.
func nextLink(current, header string) (string, error) {
	if header == "" {
		return "", nil
	}
	links := linkheader.Parse(header).FilterByRel("next")
	if len(links) == 0 || links[0].URL == "" {
		return "", nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse current page url: %w", err)
	}
	ref, err := url.Parse(links[0].URL)
	if err != nil {
		return "", fmt.Errorf("parse next link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// getJSON fetches a single resource and decodes it into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, _, err := c.get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.api.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, classify(resp.StatusCode, body)
	}
	return body, resp.Header, nil
}
