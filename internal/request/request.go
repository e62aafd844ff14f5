// Package request has structs
package request

import (
	"github.com/forca/trading/internal/model"
	"github.com/shopspring/decimal"
)

// OpenPositionService stores parameters for opening a position in the service
type OpenPositionService struct {
	OwnerID  int64
	Side     model.Side
	Symbol   string
	Quantity int32
}

// OpenPositionRepository stores parameters for opening a position in the
// repository. MarginRequired is debited from the account balance in the same
// unit of work that inserts the position
type OpenPositionRepository struct {
	AccountID      int64
	Side           model.Side
	Symbol         string
	Quantity       int32
	EntryPrice     decimal.Decimal
	MarginRequired decimal.Decimal
}

// ClosePositionRepository stores fields when closing a position.
// NetBalanceChange is the margin return plus realized profit or loss
type ClosePositionRepository struct {
	PositionID       int64
	AccountID        int64
	ClosePrice       decimal.Decimal
	NetBalanceChange decimal.Decimal
}
