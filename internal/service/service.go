// Package service has the business logic of the demo-trading ledger
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/forca/trading/internal/model"
	"github.com/forca/trading/internal/oracle"
	"github.com/forca/trading/internal/request"
)

// minInitialAmount matches the smallest allocation the account form accepts
var minInitialAmount = decimal.NewFromInt(100)

// Repository is the account store the ledger writes through. Open and close
// are single units of work serialized per account; partial application of a
// trade must never be observable
type Repository interface {
	GetAccount(ctx context.Context, ownerID int64) (*model.Account, error)
	CreateAccount(ctx context.Context, ownerID int64, initial decimal.Decimal) (*model.Account, error)
	DeleteAccount(ctx context.Context, ownerID int64) error
	GetPosition(ctx context.Context, positionID int64) (*model.Position, error)
	ListOpenPositions(ctx context.Context, accountID int64) ([]*model.Position, error)
	ListPositions(ctx context.Context, accountID int64) ([]*model.Position, error)
	OpenPosition(ctx context.Context, req *request.OpenPositionRepository) (int64, error)
	ClosePosition(ctx context.Context, req *request.ClosePositionRepository) (*model.Position, error)
}

// Service implements the position ledger
type Service struct {
	rep       Repository
	oracle    oracle.Oracle
	marginPct decimal.Decimal
}

// NewService is constructor. marginPercentage is the margin hold in percent
// of notional value, e.g. 10
func NewService(rep Repository, orc oracle.Oracle, marginPercentage int) *Service {
	return &Service{
		rep:       rep,
		oracle:    orc,
		marginPct: decimal.NewFromInt(int64(marginPercentage)),
	}
}

// CreateAccount provisions a demo account on the user's first trading action
func (s *Service) CreateAccount(ctx context.Context, ownerID int64, initial decimal.Decimal) (*model.Account, error) {
	if initial.LessThan(minInitialAmount) {
		return nil, fmt.Errorf("%w: minimum is %s", model.ErrInvalidAmount, minInitialAmount)
	}
	account, err := s.rep.CreateAccount(ctx, ownerID, initial.Round(2))
	if err != nil {
		return nil, err
	}
	log.Infof("created demo account %d for user %d with %s", account.ID, ownerID, account.Balance)
	return account, nil
}

// GetAccount returns the demo account of an owner
func (s *Service) GetAccount(ctx context.Context, ownerID int64) (*model.Account, error) {
	return s.rep.GetAccount(ctx, ownerID)
}

// DeleteAccount removes the account and all its positions
func (s *Service) DeleteAccount(ctx context.Context, ownerID int64) error {
	if err := s.rep.DeleteAccount(ctx, ownerID); err != nil {
		return err
	}
	log.Infof("deleted demo account of user %d", ownerID)
	return nil
}

// OpenPosition opens a position for the owner's account. Returns id of the
// position. The margin hold is checked against the balance and debited from
// it in one unit of work; no state changes on any failure
func (s *Service) OpenPosition(ctx context.Context, r *request.OpenPositionService) (int64, error) {
	if r.Quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidTrade)
	}
	if r.Side != model.Buy && r.Side != model.Sell {
		return 0, fmt.Errorf("%w: side must be BUY or SELL", model.ErrInvalidTrade)
	}
	if r.Symbol == "" {
		return 0, fmt.Errorf("%w: symbol is required", model.ErrInvalidTrade)
	}

	account, err := s.rep.GetAccount(ctx, r.OwnerID)
	if err != nil {
		return 0, err
	}

	price, err := s.oracle.CurrentPrice(ctx, r.Symbol)
	if err != nil {
		return 0, err
	}

	margin := MarginRequired(price, r.Quantity, s.marginPct)
	// Fast fail on a stale balance; the repository re-checks under the
	// account row lock
	if account.Balance.LessThan(margin) {
		return 0, model.ErrInsufficientMargin
	}

	id, err := s.rep.OpenPosition(ctx, &request.OpenPositionRepository{
		AccountID:      account.ID,
		Side:           r.Side,
		Symbol:         r.Symbol,
		Quantity:       r.Quantity,
		EntryPrice:     price,
		MarginRequired: margin,
	})
	if err != nil {
		return 0, err
	}
	log.Infof("account %d opened position %d: %s %d %s at %s, margin %s",
		account.ID, id, r.Side, r.Quantity, r.Symbol, price, margin)
	return id, nil
}

// ClosePosition closes an open position at the current price. It returns the
// offsetting record. The margin hold returns to the balance together with the
// realized profit or loss
func (s *Service) ClosePosition(ctx context.Context, ownerID, positionID int64) (*model.Position, error) {
	account, err := s.rep.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	position, err := s.rep.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if position.AccountID != account.ID {
		return nil, model.ErrPositionNotFound
	}
	if position.Status == model.Closed {
		return nil, model.ErrAlreadyClosed
	}

	price, err := s.oracle.CurrentPrice(ctx, position.Symbol)
	if err != nil {
		return nil, err
	}

	pnl := RealizedPnL(position.Side, position.EntryPrice, price, position.Quantity)
	net := pnl.Add(position.MarginHeld)

	offsetting, err := s.rep.ClosePosition(ctx, &request.ClosePositionRepository{
		PositionID:       position.ID,
		AccountID:        position.AccountID,
		ClosePrice:       price,
		NetBalanceChange: net,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("account %d closed position %d at %s, pnl %s, returned margin %s",
		account.ID, position.ID, price, pnl, position.MarginHeld)
	return offsetting, nil
}

// ListOpenPositions returns the open positions of the owner's account
func (s *Service) ListOpenPositions(ctx context.Context, ownerID int64) ([]*model.Position, error) {
	account, err := s.rep.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.rep.ListOpenPositions(ctx, account.ID)
}

// ListPositions returns the full transaction history of the owner's account
func (s *Service) ListPositions(ctx context.Context, ownerID int64) ([]*model.Position, error) {
	account, err := s.rep.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.rep.ListPositions(ctx, account.ID)
}

// HoldingsValue sums the unrealized value change of every open position at
// current prices. Pure read, recomputed on each call
func (s *Service) HoldingsValue(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	account, err := s.rep.GetAccount(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	positions, err := s.rep.ListOpenPositions(ctx, account.ID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, position := range positions {
		price, err := s.oracle.CurrentPrice(ctx, position.Symbol)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(RealizedPnL(position.Side, position.EntryPrice, price, position.Quantity))
	}
	return total, nil
}

// CurrentPrice resolves the current price of a symbol for display
func (s *Service) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return s.oracle.CurrentPrice(ctx, symbol)
}
