package bidding

import (
	"time"

	"auction-escrow/internal/models"
	"auction-escrow/utils"

	"github.com/shopspring/decimal"
)

// Policy holds the auction rules that are configured rather than stored per auction
type Policy struct {
	// ExtensionWindow is both the anti-snipe trigger and the amount of time granted
	ExtensionWindow time.Duration
	// MaxExtensions caps extensions per auction; 0 means unbounded
	MaxExtensions int
}

// DefaultPolicy extends by five minutes without a cap
func DefaultPolicy() Policy {
	return Policy{ExtensionWindow: 5 * time.Minute}
}

// admission is the decision for one bid against one auction snapshot
type admission struct {
	accepted   bool
	rejection  models.RejectedKind
	minimumBid decimal.Decimal
	bid        models.Bid
	auction    models.Auction // the auction after the decision
	extended   bool
	closing    bool // buy-now reached; the auction ended with this bid
}

// admit applies the bidding rules in order: closed, too low, buy-now, normal.
// It is pure; the caller holds the auction lock and installs the result.
func admit(a models.Auction, bidderID string, amount decimal.Decimal, now time.Time, p Policy) admission {
	d := admission{minimumBid: a.MinimumNextBid(), auction: a}

	if a.Status != models.AuctionActive || !now.Before(a.EndTime) {
		d.rejection = models.RejectedAuctionClosed
		return d
	}
	if amount.LessThan(d.minimumBid) {
		d.rejection = models.RejectedBidTooLow
		return d
	}

	next := a.Clone()
	price := amount
	if next.BuyNowAvailable() && amount.GreaterThanOrEqual(*next.BuyNowPrice) {
		price = *next.BuyNowPrice
		d.closing = true
	}

	next.CurrentPrice = price
	next.HighestBidderID = bidderID
	next.BidCount++
	next.Version++

	d.bid = models.Bid{
		BidID:      utils.GenerateID(),
		Seq:        next.BidCount,
		AuctionID:  next.AuctionID,
		BidderID:   bidderID,
		Amount:     price,
		AcceptedAt: now.UTC(),
		BuyNow:     d.closing,
	}

	if d.closing {
		retire(&next, models.AuctionEnded, now)
	} else if extendable(next, now, p) {
		next.EndTime = now.Add(p.ExtensionWindow).UTC()
		next.ExtensionCount++
		d.extended = true
	}

	d.accepted = true
	d.auction = next
	return d
}

func extendable(a models.Auction, now time.Time, p Policy) bool {
	if !a.AutoExtend || p.ExtensionWindow <= 0 {
		return false
	}
	if p.MaxExtensions > 0 && a.ExtensionCount >= p.MaxExtensions {
		return false
	}
	return a.EndTime.Sub(now) < p.ExtensionWindow
}

// retire moves an active auction to status and fixes the winner.
// A sold auction gets its transaction id here so that every later settlement attempt reuses it.
func retire(a *models.Auction, status models.AuctionStatus, now time.Time) {
	a.Status = status
	closedAt := now.UTC()
	a.ClosedAt = &closedAt
	if status == models.AuctionEnded && a.HighestBidderID != "" {
		a.WinnerID = a.HighestBidderID
		a.FinalPrice = a.CurrentPrice
		a.TransactionID = utils.GenerateID()
	}
}
