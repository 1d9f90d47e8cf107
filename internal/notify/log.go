package notify

import (
	"context"

	"auction-escrow/internal/events"
	"auction-escrow/utils"
)

// LogNotifier writes every engine event to the structured log
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev events.Event) {
	switch e := ev.(type) {
	case events.BidAccepted:
		utils.Info("bid accepted", map[string]any{
			"auction_id":    e.After.AuctionID,
			"bid_id":        e.Bid.BidID,
			"bidder_id":     e.Bid.BidderID,
			"amount":        e.Bid.Amount.String(),
			"current_price": e.After.CurrentPrice.String(),
			"end_time":      e.After.EndTime,
			"extended":      e.After.EndTime.After(e.Before.EndTime),
		})
	case events.BidRejected:
		utils.Info("bid rejected", map[string]any{
			"auction_id":  e.Auction.AuctionID,
			"bidder_id":   e.BidderID,
			"amount":      e.Amount.String(),
			"reason":      string(e.Reason),
			"minimum_bid": e.MinimumBid.String(),
		})
	case events.AuctionClosed:
		utils.Info("auction closed", map[string]any{
			"auction_id":     e.Auction.AuctionID,
			"outcome":        string(e.Outcome),
			"winner_id":      e.WinnerID,
			"amount":         e.Amount.String(),
			"transaction_id": e.TransactionID,
		})
	case events.TransactionTransitioned:
		utils.Info("transaction transitioned", map[string]any{
			"transaction_id": e.After.TransactionID,
			"action":         e.Action,
			"actor_id":       e.ActorID,
			"from":           string(e.Before.Status),
			"to":             string(e.After.Status),
		})
	}
}
