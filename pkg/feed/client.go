package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tmarchand/oddsedge/pkg/market"
)

const (
	// DefaultBaseURL is the scrape gateway base URL.
	DefaultBaseURL = "http://localhost:8765"

	// Gateway-friendly defaults: one scrape batch at a time.
	defaultRateLimit = 2.0 // requests per second
	defaultBurst     = 2
)

// Client talks to the scrape gateway over HTTP. It implements
// TargetFeed, ReferenceFeed and Resolver.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new gateway client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			// Scrapes render a browser page server-side; generous timeout.
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Events fetches the target book's current pre-match events.
func (c *Client) Events(ctx context.Context) ([]market.Event, error) {
	var events []market.Event
	if err := c.get(ctx, "/target/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ReferenceEvents fetches consensus events for one sport and market
// family.
func (c *Client) ReferenceEvents(ctx context.Context, sportKey, marketFilter string) ([]market.ReferenceEvent, error) {
	params := url.Values{}
	params.Set("sport_key", sportKey)
	if marketFilter != "" {
		params.Set("markets", marketFilter)
	}

	var events []market.ReferenceEvent
	if err := c.get(ctx, "/reference/events", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Resolve looks up the result of a fixture. A gateway 404 means the
// result is not published yet and maps to (nil, nil).
func (c *Client) Resolve(ctx context.Context, q ResultQuery) (*MatchResult, error) {
	params := url.Values{}
	params.Set("match_id", q.MatchID)
	params.Set("home", q.Home)
	params.Set("away", q.Away)
	if q.Sport != "" {
		params.Set("sport", q.Sport)
	}
	if !q.StartTime.IsZero() {
		params.Set("start_time", q.StartTime.UTC().Format(time.RFC3339))
	}

	var result MatchResult
	if err := c.get(ctx, "/results", params, &result); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// statusError reports a non-2xx gateway response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

// get performs a GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
