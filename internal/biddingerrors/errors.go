package biddingerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAuctionExists       = errors.New("auction already exists")
	ErrNoBids              = errors.New("no bids found for auction")
	// ErrConcurrencyConflict signals a locking bug: two writers disagreed on one entity
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// validation errors
var (
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidAuction = errors.New("invalid auction")
	ErrInvalidProof   = errors.New("invalid proof reference")
	ErrInvalidReview  = errors.New("invalid review")
	ErrForbiddenActor = errors.New("actor not allowed for this action")
	ErrMissingReason  = errors.New("cancellation reason required")
)

// ErrSelfBid is a validation error: sellers cannot bid on their own auction
var ErrSelfBid = fmt.Errorf("%w: seller cannot bid on own auction", ErrInvalidBid)

// state machine errors
var (
	ErrInvalidTransition = errors.New("invalid transition")
)
