package service

import "errors"

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidRange      = errors.New("invalid range")
	ErrInvalidUser       = errors.New("invalid user")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrGameAlreadyActive = errors.New("a dice game is already active in this room")
	ErrNoActiveGame      = errors.New("no active dice game in this room")
	ErrSelfJoin          = errors.New("cannot join your own dice game")
	ErrInvalidRate       = errors.New("interest rate must be between 0 and 1")
	ErrInvalidPeriod     = errors.New("interest period is too short")
	ErrReadOnly          = errors.New("ledger view is read-only")
	ErrInvalidRoom       = errors.New("invalid room")
	ErrDiceClosed        = errors.New("dice games are closed")
	ErrAmountOverflow    = errors.New("amount exceeds the largest supported value")
)
