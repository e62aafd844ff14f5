package service

import (
	"github.com/shopspring/decimal"

	"github.com/forca/trading/internal/model"
)

var hundred = decimal.NewFromInt(100)

// MarginRequired is the fraction of notional value reserved from the balance
// while a position is open, rounded to cents to match the ledger columns
func MarginRequired(price decimal.Decimal, quantity int32, marginPct decimal.Decimal) decimal.Decimal {
	notional := price.Mul(decimal.NewFromInt32(quantity))
	return notional.Mul(marginPct).Div(hundred).Round(2)
}

// RealizedPnL shows how much a position earned or lost between its entry
// price and the current price
func RealizedPnL(side model.Side, entryPrice, currentPrice decimal.Decimal, quantity int32) decimal.Decimal {
	qty := decimal.NewFromInt32(quantity)
	if side == model.Buy {
		return currentPrice.Sub(entryPrice).Mul(qty)
	}
	return entryPrice.Sub(currentPrice).Mul(qty)
}
