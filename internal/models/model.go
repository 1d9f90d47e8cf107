package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionActive    AuctionStatus = "active"
	AuctionEnded     AuctionStatus = "ended"
	AuctionCancelled AuctionStatus = "cancelled"
)

// RejectedKind tells a bidder why a bid was not admitted
type RejectedKind string

const (
	RejectedAuctionClosed RejectedKind = "auction_closed"
	RejectedBidTooLow     RejectedKind = "bid_too_low"
)

// CloseOutcome describes how an auction concluded
type CloseOutcome string

const (
	OutcomeSold      CloseOutcome = "sold"
	OutcomeUnsold    CloseOutcome = "unsold"
	OutcomeCancelled CloseOutcome = "cancelled"
)

// Auction is the price ladder and close time of one listed item.
// Version increases on every mutation so that stale snapshots can be discarded by storage.
type Auction struct {
	AuctionID       string           `json:"auction_id"`
	SellerID        string           `json:"seller_id"`
	Title           string           `json:"title"`
	StartPrice      decimal.Decimal  `json:"start_price"`
	CurrentPrice    decimal.Decimal  `json:"current_price"`
	StepPrice       decimal.Decimal  `json:"step_price"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	AutoExtend      bool             `json:"auto_extend"`
	ExtensionCount  int              `json:"extension_count"`
	HighestBidderID string           `json:"highest_bidder_id,omitempty"`
	BidCount        int              `json:"bid_count"`
	Status          AuctionStatus    `json:"status"`
	WinnerID        string           `json:"winner_id,omitempty"`
	FinalPrice      decimal.Decimal  `json:"final_price"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	Settled         bool             `json:"settled"` // close side effects (transaction, AuctionClosed) done
	Version         int64            `json:"version"`
}

// MinimumNextBid returns the lowest amount the next bid must reach
func (a Auction) MinimumNextBid() decimal.Decimal {
	if a.BidCount == 0 {
		return a.StartPrice
	}
	return a.CurrentPrice.Add(a.StepPrice)
}

// BuyNowAvailable reports whether a buy-now price is still below reach of normal bidding
func (a Auction) BuyNowAvailable() bool {
	return a.BuyNowPrice != nil && a.BuyNowPrice.GreaterThan(a.CurrentPrice)
}

// Outcome classifies a closed auction
func (a Auction) Outcome() CloseOutcome {
	switch {
	case a.Status == AuctionCancelled:
		return OutcomeCancelled
	case a.WinnerID != "":
		return OutcomeSold
	}
	return OutcomeUnsold
}

// Clone returns a deep copy safe to hand out of a critical section
func (a Auction) Clone() Auction {
	c := a
	if a.BuyNowPrice != nil {
		p := *a.BuyNowPrice
		c.BuyNowPrice = &p
	}
	if a.ClosedAt != nil {
		t := *a.ClosedAt
		c.ClosedAt = &t
	}
	return c
}

// Bid is an accepted bid; rejected bids are never stored
type Bid struct {
	BidID      string          `json:"bid_id"`
	Seq        int             `json:"seq"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	AcceptedAt time.Time       `json:"accepted_at"`
	BuyNow     bool            `json:"buy_now"`
}
