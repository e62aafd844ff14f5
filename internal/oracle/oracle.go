// Package oracle resolves current market prices for ticker symbols
package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Oracle answers the current price of a symbol. Implementations report
// model.ErrPriceUnavailable when they cannot answer; the ledger never retries
type Oracle interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
