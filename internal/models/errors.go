package models

import "errors"

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrLedgerWriteFailure = errors.New("ledger write failure")
	ErrAlreadyClaimed     = errors.New("code already claimed")
	ErrInvalidCode        = errors.New("invalid code")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrNoBonusDue         = errors.New("no bonus due to credit")
	ErrNoClaimAmount      = errors.New("no claim amount set")
)
