// Package repository stores demo accounts and positions in postgres
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forca/trading/internal/model"
	"github.com/forca/trading/internal/request"
)

const uniqueViolation = "23505"

// Repository works with postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository is constructor
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAccount returns the demo account of an owner
func (r *Repository) GetAccount(ctx context.Context, ownerID int64) (*model.Account, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT demo_id, user_id, allocated_amount::text FROM demo_accounts WHERE user_id = $1", ownerID)
	return scanAccount(row)
}

// CreateAccount provisions a demo account with an initial amount.
// One account per owner
func (r *Repository) CreateAccount(ctx context.Context, ownerID int64, initial decimal.Decimal) (*model.Account, error) {
	row := r.pool.QueryRow(ctx,
		"INSERT INTO demo_accounts (user_id, allocated_amount) VALUES ($1, $2) RETURNING demo_id",
		ownerID, initial.String())
	var id int64
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, model.ErrDuplicateAccount
		}
		return nil, connErr("create account", err)
	}
	return &model.Account{ID: id, OwnerID: ownerID, Balance: initial}, nil
}

// DeleteAccount removes the account and, by cascade, its positions
func (r *Repository) DeleteAccount(ctx context.Context, ownerID int64) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM demo_accounts WHERE user_id = $1", ownerID)
	if err != nil {
		return connErr("delete account", err)
	}
	if ct.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// GetPosition returns one position by id
func (r *Repository) GetPosition(ctx context.Context, positionID int64) (*model.Position, error) {
	row := r.pool.QueryRow(ctx, selectPosition+" WHERE transaction_id = $1", positionID)
	position, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPositionNotFound
		}
		return nil, connErr("get position", err)
	}
	return position, nil
}

// ListOpenPositions returns all open positions of an account in insertion order
func (r *Repository) ListOpenPositions(ctx context.Context, accountID int64) ([]*model.Position, error) {
	return r.listPositions(ctx,
		selectPosition+" WHERE demo_id = $1 AND status = 'OPEN' ORDER BY transaction_id", accountID)
}

// ListPositions returns the full transaction history of an account
func (r *Repository) ListPositions(ctx context.Context, accountID int64) ([]*model.Position, error) {
	return r.listPositions(ctx, selectPosition+" WHERE demo_id = $1 ORDER BY transaction_id", accountID)
}

// OpenPosition inserts an open position and debits the margin hold as one
// unit of work. The account row is locked so that the margin check cannot
// race another trade on the same account
func (r *Repository) OpenPosition(ctx context.Context, req *request.OpenPositionRepository) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, connErr("open position", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	balance, err := lockBalance(ctx, tx, req.AccountID)
	if err != nil {
		return 0, err
	}
	if balance.LessThan(req.MarginRequired) {
		return 0, model.ErrInsufficientMargin
	}

	var id int64
	err = tx.QueryRow(ctx,
		"INSERT INTO transactions (demo_id, transaction_type, stock_symbol, quantity, price, margin_held) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING transaction_id",
		req.AccountID, string(req.Side), req.Symbol, req.Quantity,
		req.EntryPrice.String(), req.MarginRequired.String()).Scan(&id)
	if err != nil {
		return 0, connErr("open position", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE demo_accounts SET allocated_amount = allocated_amount - $1 WHERE demo_id = $2",
		req.MarginRequired.String(), req.AccountID)
	if err != nil {
		return 0, connErr("open position", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, connErr("open position", err)
	}
	return id, nil
}

// ClosePosition flips the original position to CLOSED, inserts the reversed
// offsetting record and credits the net balance change, all as one unit of
// work. A second close of the same position fails on the guarded update
func (r *Repository) ClosePosition(ctx context.Context, req *request.ClosePositionRepository) (*model.Position, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, connErr("close position", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = lockBalance(ctx, tx, req.AccountID); err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx,
		"UPDATE transactions SET status = 'CLOSED' WHERE transaction_id = $1 AND status = 'OPEN'",
		req.PositionID)
	if err != nil {
		return nil, connErr("close position", err)
	}
	if ct.RowsAffected() == 0 {
		var status string
		err = tx.QueryRow(ctx,
			"SELECT status FROM transactions WHERE transaction_id = $1", req.PositionID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPositionNotFound
		}
		if err != nil {
			return nil, connErr("close position", err)
		}
		return nil, model.ErrAlreadyClosed
	}

	original, err := scanPosition(tx.QueryRow(ctx, selectPosition+" WHERE transaction_id = $1", req.PositionID))
	if err != nil {
		return nil, connErr("close position", err)
	}

	row := tx.QueryRow(ctx,
		"INSERT INTO transactions (demo_id, transaction_type, stock_symbol, quantity, price, margin_held, status, closes_transaction_id) "+
			"VALUES ($1, $2, $3, $4, $5, 0, 'CLOSED', $6) RETURNING transaction_id, timestamp",
		req.AccountID, string(original.Side.Reverse()), original.Symbol, original.Quantity,
		req.ClosePrice.String(), req.PositionID)
	offsetting := model.Position{
		AccountID:  req.AccountID,
		Side:       original.Side.Reverse(),
		Symbol:     original.Symbol,
		Quantity:   original.Quantity,
		EntryPrice: req.ClosePrice,
		MarginHeld: decimal.Zero,
		Status:     model.Closed,
		ClosesID:   &req.PositionID,
	}
	if err = row.Scan(&offsetting.ID, &offsetting.OpenedAt); err != nil {
		return nil, connErr("close position", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE demo_accounts SET allocated_amount = allocated_amount + $1 WHERE demo_id = $2",
		req.NetBalanceChange.String(), req.AccountID)
	if err != nil {
		return nil, connErr("close position", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, connErr("close position", err)
	}
	return &offsetting, nil
}

const selectPosition = "SELECT transaction_id, demo_id, transaction_type, stock_symbol, quantity, " +
	"price::text, margin_held::text, status, closes_transaction_id, timestamp FROM transactions"

func (r *Repository) listPositions(ctx context.Context, query string, accountID int64) ([]*model.Position, error) {
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, connErr("list positions", err)
	}
	defer rows.Close()

	var positions []*model.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, connErr("list positions", err)
		}
		positions = append(positions, position)
	}
	if err = rows.Err(); err != nil {
		return nil, connErr("list positions", err)
	}
	return positions, nil
}

// lockBalance takes the row lock that serializes all balance mutations on one
// account for the duration of the surrounding transaction
func lockBalance(ctx context.Context, tx pgx.Tx, accountID int64) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx,
		"SELECT allocated_amount::text FROM demo_accounts WHERE demo_id = $1 FOR UPDATE", accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, model.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, connErr("lock account", err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock account: %w", err)
	}
	return balance, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		account model.Account
		raw     string
	)
	err := row.Scan(&account.ID, &account.OwnerID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, connErr("get account", err)
	}
	if account.Balance, err = decimal.NewFromString(raw); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

func scanPosition(row pgx.Row) (*model.Position, error) {
	var (
		position  model.Position
		side      string
		status    string
		rawPrice  string
		rawMargin string
	)
	err := row.Scan(&position.ID, &position.AccountID, &side, &position.Symbol,
		&position.Quantity, &rawPrice, &rawMargin, &status, &position.ClosesID, &position.OpenedAt)
	if err != nil {
		return nil, err
	}
	position.Side = model.Side(side)
	position.Status = model.Status(status)
	if position.EntryPrice, err = decimal.NewFromString(rawPrice); err != nil {
		return nil, err
	}
	if position.MarginHeld, err = decimal.NewFromString(rawMargin); err != nil {
		return nil, err
	}
	return &position, nil
}

func connErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, model.ErrConnectionFailed, err)
}
