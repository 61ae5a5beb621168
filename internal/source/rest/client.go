package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/source"
)

// Upstream endpoints, relative to the configured base URL.
const (
	pathContacts   = "/contacts"
	pathPortfolio  = "/portfolio"
	pathVisitTotal = "/visits/total"
)

// Client is a thin HTTP client for the site's admin REST API.
// It handles Bearer token authentication, JSON decoding, and automatic
// retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

var _ source.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBackoff sets the first retry delay used when the server sends no
// Retry-After header.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// NewClient creates a client for the API rooted at baseURL
// (e.g., https://studio.example.com/api). token is sent as a Bearer
// credential on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchContacts returns every contact inquiry.
func (c *Client) FetchContacts(ctx context.Context) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := c.getList(ctx, pathContacts, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// FetchPortfolioItems returns every portfolio item.
func (c *Client) FetchPortfolioItems(ctx context.Context) ([]model.PortfolioItem, error) {
	var items []model.PortfolioItem
	if err := c.getList(ctx, pathPortfolio, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// visitTotal is the body of GET /visits/total.
type visitTotal struct {
	Total *int `json:"total"`
}

// FetchPageVisitTotal returns the site-wide page-visit counter.
func (c *Client) FetchPageVisitTotal(ctx context.Context) (int, error) {
	var out visitTotal
	body, err := c.do(ctx, http.MethodGet, pathVisitTotal, nil)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, &source.MalformedError{Path: pathVisitTotal, Reason: err.Error()}
	}
	if out.Total == nil {
		return 0, &source.MalformedError{Path: pathVisitTotal, Reason: "missing total"}
	}
	return *out.Total, nil
}

// ResetPageVisits sets the page-visit counter back to zero.
func (c *Client) ResetPageVisits(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, pathVisitTotal, nil)
	return err
}

// getList fetches path and decodes a JSON array into out. Anything other
// than an array is a MalformedError, so callers never mistake a broken
// payload for an empty collection.
func (c *Client) getList(ctx context.Context, path string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return &source.MalformedError{Path: path, Reason: "expected a JSON array"}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &source.MalformedError{Path: path, Reason: err.Error()}
	}
	return nil
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and returns the raw body.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
) ([]byte, error) {
	if c.token == "" {
		return nil, &source.AuthError{Resource: path, Message: "no API token configured"}
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfterDuration(resp, attempt, c.baseDelay)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &source.AuthError{
				Resource: path,
				Message:  fmt.Sprintf("server rejected credential (%d)", resp.StatusCode),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &source.HTTPError{
				StatusCode: resp.StatusCode,
				Method:     method,
				Path:       path,
				Body:       truncate(string(respBody), 200),
			}
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff from base if the header is
// missing.
func retryAfterDuration(resp *http.Response, attempt int, base time.Duration) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := base * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
