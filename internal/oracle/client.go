package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forca/trading/internal/model"
)

// Client fetches quotes from the market-data service over HTTP
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient is constructor. The timeout bounds every quote request
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CurrentPrice returns the latest price of symbol
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote/%s", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", model.ErrPriceUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", model.ErrPriceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: quote service returned %d for %s",
			model.ErrPriceUnavailable, resp.StatusCode, symbol)
	}

	var quote model.Quote
	if err = json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", model.ErrPriceUnavailable, err)
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no positive price for %s", model.ErrPriceUnavailable, symbol)
	}
	return quote.Price, nil
}
