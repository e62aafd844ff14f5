package model

import "errors"

// Operation results reported to the caller. None of them is retried
// automatically anywhere in the ledger.
var (
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrPositionNotFound   = errors.New("position not found")
	ErrAlreadyClosed      = errors.New("position already closed")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidTrade       = errors.New("invalid trade request")
	ErrInvalidAmount      = errors.New("invalid initial amount")
)
