// Package nadex is the client for Nadex prediction markets data. Nadex
// publishes its contract listing as CSV and per-contract quotes as JSON,
// both without authentication.
package nadex

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the public Nadex markets root.
	DefaultBaseURL = "https://www.nadex.com/markets"

	// retryDelay is the fixed wait before the single retry on 429/503.
	retryDelay = 2 * time.Second

	// minCSVColumns is the column count a listing row needs to be usable.
	minCSVColumns = 4
)

// sleep is stubbed in tests so retry paths run instantly.
var sleep = time.Sleep

// Contract is one row of the Nadex contract listing CSV.
type Contract struct {
	InstrumentID string
	Underlying   string
	Strike       *decimal.Decimal
	Expiry       time.Time
}

// Client fetches contract listings and quotes from Nadex.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Nadex client. An empty baseURL selects production.
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

// ListContracts fetches and parses the contract listing CSV. Rows with too
// few columns or an unparseable expiry are skipped; an unparseable strike
// becomes a nil strike, since many Nadex events carry none.
func (c *Client) ListContracts(ctx context.Context) ([]Contract, error) {
	body, err := c.get(ctx, c.baseURL+"/contracts.csv")
	if err != nil {
		return nil, fmt.Errorf("nadex: list contracts: %w", err)
	}

	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1

	// Header row.
	if _, err := r.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("nadex: read listing header: %w", err)
	}

	var contracts []Contract
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nadex: read listing row: %w", err)
		}
		if len(row) < minCSVColumns {
			continue
		}
		expiry, err := time.Parse(time.RFC3339, strings.TrimSpace(row[3]))
		if err != nil {
			continue
		}

		var strike *decimal.Decimal
		if s := strings.TrimSpace(row[2]); s != "" {
			if d, err := decimal.NewFromString(s); err == nil {
				strike = &d
			}
		}

		contracts = append(contracts, Contract{
			InstrumentID: row[0],
			Underlying:   row[1],
			Strike:       strike,
			Expiry:       expiry.UTC(),
		})
	}
	return contracts, nil
}

// GetContract returns the raw quote payload for an instrument. The response
// keeps the API's {"contract": ...} envelope, which is what the normalizer
// expects.
func (c *Client) GetContract(ctx context.Context, instrumentID string) (json.RawMessage, error) {
	body, err := c.get(ctx, c.baseURL+"/contract/"+url.PathEscape(instrumentID))
	if err != nil {
		return nil, fmt.Errorf("nadex: get contract %s: %w", instrumentID, err)
	}
	return body, nil
}

// get performs a GET, retrying once after retryDelay on 429 or 503.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	body, status, err := c.do(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		sleep(retryDelay)
		body, status, err = c.do(ctx, fullURL)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
