// Package rate talks to the unofficial USD/LBP rate feed and keeps a
// fresh quote flowing into the snapshot store.
package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
)

// Client fetches quotes from the feed. The feed serves buy/sell rates
// as either JSON numbers or strings with thousands separators, so
// parsing normalizes both forms.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the given feed URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type feedResponse struct {
	BuyRate  any `json:"buy_rate"`
	SellRate any `json:"sell_rate"`
}

// Fetch retrieves the current quote. Mid is (buy+sell)/2.
func (c *Client) Fetch(ctx context.Context) (*domain.RateQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rate feed returned invalid JSON: %w", err)
	}

	buy, err := parseRateValue(body.BuyRate)
	if err != nil {
		return nil, fmt.Errorf("invalid buy_rate: %w", err)
	}
	sell, err := parseRateValue(body.SellRate)
	if err != nil {
		return nil, fmt.Errorf("invalid sell_rate: %w", err)
	}

	two := decimal.NewFromInt(2)
	return &domain.RateQuote{
		Buy:       buy,
		Sell:      sell,
		Mid:       buy.Add(sell).Div(two),
		Source:    c.url,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// parseRateValue normalizes a feed value ("89,500.5", 89500.5) into a
// decimal.
func parseRateValue(v any) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(v), ",", ""))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("rate must be positive, got %s", d)
	}
	return d, nil
}
