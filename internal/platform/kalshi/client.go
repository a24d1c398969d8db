// Package kalshi is the REST client for the Kalshi prediction markets API.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Kalshi trading API root.
	DefaultBaseURL = "https://trading-api.kalshi.com/trade-api/v2"

	// maxRetryDelay caps how long a Retry-After header can make us wait.
	maxRetryDelay = 5 * time.Second
)

// sleep is stubbed in tests so retry paths run instantly.
var sleep = time.Sleep

// Client fetches market data from Kalshi. Endpoints are public; when an API
// key is configured it is sent as a Bearer token for higher rate limits.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Kalshi client. An empty baseURL selects the production
// API; an empty apiKey uses unauthenticated access.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListMarkets returns the tickers of all listed markets.
func (c *Client) ListMarkets(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/markets")
	if err != nil {
		return nil, fmt.Errorf("kalshi: list markets: %w", err)
	}

	var resp struct {
		Markets []struct {
			Ticker string `json:"ticker"`
		} `json:"markets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kalshi: decode markets: %w", err)
	}

	tickers := make([]string, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		tickers = append(tickers, m.Ticker)
	}
	return tickers, nil
}

// GetMarket returns the raw market payload for a ticker. The response body
// keeps the API's {"market": ...} envelope, which is what the normalizer
// expects.
func (c *Client) GetMarket(ctx context.Context, ticker string) (json.RawMessage, error) {
	body, err := c.get(ctx, "/markets/"+url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}
	return body, nil
}

// get performs a GET against the API, retrying once on HTTP 429 after the
// Retry-After delay (capped at maxRetryDelay).
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, status, header, err := c.do(ctx, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		sleep(retryAfter(header))
		body, status, _, err = c.do(ctx, path)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// retryAfter reads the Retry-After header in seconds, defaulting to 1s and
// never waiting longer than maxRetryDelay.
func retryAfter(h http.Header) time.Duration {
	delay := time.Second
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			delay = time.Duration(secs) * time.Second
		}
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
