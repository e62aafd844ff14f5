// Package model holds the entities of the demo-trading ledger
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Reverse returns the offsetting side
func (s Side) Reverse() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Status is the lifecycle state of a position
type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// Account is one demo account per user. Balance is the spendable and
// marginable cash, mutated only by the ledger
type Account struct {
	ID      int64           `json:"demo_id"`
	OwnerID int64           `json:"user_id"`
	Balance decimal.Decimal `json:"allocated_amount"`
}

// Position is one simulated trade record. Immutable after insert except for
// Status, which flips OPEN -> CLOSED exactly once. The offsetting record
// inserted at close time points back to the original via ClosesID
type Position struct {
	ID         int64           `json:"transaction_id"`
	AccountID  int64           `json:"demo_id"`
	Side       Side            `json:"transaction_type"`
	Symbol     string          `json:"stock_symbol"`
	Quantity   int32           `json:"quantity"`
	EntryPrice decimal.Decimal `json:"price"`
	MarginHeld decimal.Decimal `json:"margin_held"`
	Status     Status          `json:"status"`
	ClosesID   *int64          `json:"closes_transaction_id,omitempty"`
	OpenedAt   time.Time       `json:"timestamp"`
}

// Quote is the current market price of a symbol
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Update time.Time       `json:"update"`
}
