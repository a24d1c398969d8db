// Package predictit is the client for the PredictIt market data API. The API
// exposes one bulk endpoint with every market; listing and lookup both read
// it and filter client-side.
package predictit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public bulk market data endpoint.
	DefaultBaseURL = "https://www.predictit.org/api/marketdata/all"

	// maxRetryDelay caps how long a Retry-After header can make us wait.
	maxRetryDelay = 3 * time.Second
)

// sleep is stubbed in tests so retry paths run instantly.
var sleep = time.Sleep

// Market is a listing entry for one binary market.
type Market struct {
	ID   int64
	Name string
}

// Client fetches market data from PredictIt.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a PredictIt client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// marketProbe is the slice of a market payload needed to identify it and
// check that it is binary. The full payload is kept raw for the normalizer.
type marketProbe struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	Contracts []struct {
		Name string `json:"name"`
	} `json:"contracts"`
}

// binary reports whether the market carries both a Yes and a No contract.
func (m marketProbe) binary() bool {
	var hasYes, hasNo bool
	for _, c := range m.Contracts {
		switch c.Name {
		case "Yes":
			hasYes = true
		case "No":
			hasNo = true
		}
	}
	return hasYes && hasNo
}

// ListMarkets returns every market that carries binary Yes/No contracts.
func (c *Client) ListMarkets(ctx context.Context) ([]Market, error) {
	raws, err := c.fetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("predictit: list markets: %w", err)
	}

	var markets []Market
	for _, raw := range raws {
		var probe marketProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("predictit: decode market: %w", err)
		}
		if !probe.binary() {
			continue
		}
		id, err := probe.ID.Int64()
		if err != nil {
			return nil, fmt.Errorf("predictit: market id %q: %w", probe.ID, err)
		}
		markets = append(markets, Market{ID: id, Name: probe.Name})
	}
	return markets, nil
}

// GetMarket returns the raw payload for one binary market, wrapped in a
// {"market": ...} envelope for the normalizer. A missing or non-binary
// market is an error.
func (c *Client) GetMarket(ctx context.Context, marketID int64) (json.RawMessage, error) {
	raws, err := c.fetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("predictit: get market %d: %w", marketID, err)
	}

	want := strconv.FormatInt(marketID, 10)
	for _, raw := range raws {
		var probe marketProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("predictit: decode market: %w", err)
		}
		if probe.ID.String() != want {
			continue
		}
		if !probe.binary() {
			return nil, fmt.Errorf("predictit: market %d has no binary contracts", marketID)
		}
		envelope, err := json.Marshal(struct {
			Market json.RawMessage `json:"market"`
		}{Market: raw})
		if err != nil {
			return nil, fmt.Errorf("predictit: wrap market: %w", err)
		}
		return envelope, nil
	}
	return nil, fmt.Errorf("predictit: market %d not found", marketID)
}

// fetchAll reads the bulk endpoint and returns each market payload raw.
func (c *Client) fetchAll(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Markets []json.RawMessage `json:"markets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Markets, nil
}

// get performs a GET against the bulk endpoint, retrying once on HTTP 429
// after the Retry-After delay (capped at maxRetryDelay).
func (c *Client) get(ctx context.Context) ([]byte, error) {
	body, status, header, err := c.do(ctx)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		sleep(retryAfter(header))
		body, status, _, err = c.do(ctx)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

// retryAfter reads the Retry-After header in seconds, defaulting to and
// capped at maxRetryDelay.
func retryAfter(h http.Header) time.Duration {
	delay := maxRetryDelay
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
