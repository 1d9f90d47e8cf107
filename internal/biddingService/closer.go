package bidding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/events"
	"auction-escrow/internal/models"
	"auction-escrow/internal/statestore"
	"auction-escrow/utils"

	"github.com/shopspring/decimal"
)

// CloseResult describes a close attempt. Closed is false while the auction is still running.
type CloseResult struct {
	Closed        bool                `json:"closed"`
	Outcome       models.CloseOutcome `json:"outcome,omitempty"`
	WinnerID      string              `json:"winner_id,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Auction       models.Auction      `json:"auction"`
}

func resultOf(a models.Auction) CloseResult {
	if a.Status == models.AuctionActive {
		return CloseResult{Auction: a}
	}
	return CloseResult{
		Closed:        true,
		Outcome:       a.Outcome(),
		WinnerID:      a.WinnerID,
		Amount:        a.FinalPrice,
		TransactionID: a.TransactionID,
		Auction:       a,
	}
}

// CloseIfDue ends an auction whose end time has passed, fixes the winner and
// opens the escrow transaction. The winner is decided once; calling again
// returns the same result, and retries settlement if an earlier attempt failed.
func (s *BiddingService) CloseIfDue(ctx context.Context, auctionID string) (CloseResult, error) {
	if auctionID == "" {
		return CloseResult{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	entry, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return CloseResult{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	now := s.clock.Now()

	entry.Lock()
	a := &entry.Value.Auction
	if a.Status == models.AuctionActive {
		if now.Before(a.EndTime) {
			res := resultOf(a.Clone())
			entry.Unlock()
			return res, nil
		}
		retire(a, models.AuctionEnded, now)
		a.Version++
	}
	snapshot, pending, claimed := claimSettlement(&entry.Value)
	unsaved := snapshot.Settled && !entry.Value.Saved
	entry.Unlock()

	if !claimed {
		if unsaved {
			if err := s.saveSettled(ctx, entry, snapshot); err != nil {
				return resultOf(snapshot), err
			}
		}
		return resultOf(snapshot), nil
	}
	return s.settle(ctx, entry, snapshot, pending, now)
}

// CancelAuction withdraws an active auction that has not received any bid.
// Only the seller may cancel; cancelling twice is a no-op.
func (s *BiddingService) CancelAuction(ctx context.Context, auctionID, sellerID string) (CloseResult, error) {
	if auctionID == "" || sellerID == "" {
		return CloseResult{}, fmt.Errorf("service: %w - missing auctionID or sellerID", biddingerrors.ErrInvalidAuction)
	}
	entry, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return CloseResult{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	now := s.clock.Now()

	entry.Lock()
	a := &entry.Value.Auction
	if a.SellerID != sellerID {
		entry.Unlock()
		return CloseResult{}, fmt.Errorf("service: cancel %s: %w - only the seller may cancel", auctionID, biddingerrors.ErrForbiddenActor)
	}
	switch {
	case a.Status == models.AuctionCancelled:
	case a.Status != models.AuctionActive || !now.Before(a.EndTime):
		entry.Unlock()
		return CloseResult{}, fmt.Errorf("service: cancel %s: %w - auction already ended", auctionID, biddingerrors.ErrInvalidTransition)
	case a.BidCount > 0:
		entry.Unlock()
		return CloseResult{}, fmt.Errorf("service: cancel %s: %w - auction has bids", auctionID, biddingerrors.ErrInvalidTransition)
	default:
		retire(a, models.AuctionCancelled, now)
		a.Version++
	}
	snapshot, pending, claimed := claimSettlement(&entry.Value)
	unsaved := snapshot.Settled && !entry.Value.Saved
	entry.Unlock()

	if !claimed {
		if unsaved {
			if err := s.saveSettled(ctx, entry, snapshot); err != nil {
				return resultOf(snapshot), err
			}
		}
		return resultOf(snapshot), nil
	}
	return s.settle(ctx, entry, snapshot, pending, now)
}

// DueAuctions lists auctions that need CloseIfDue: ended by time but still
// active, retired without completed settlement, or settled without the
// settled snapshot reaching storage.
func (s *BiddingService) DueAuctions(ctx context.Context) ([]string, error) {
	now := s.clock.Now()
	stored, err := s.repo.ListDueAuctions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list due auctions: %w", err)
	}

	due := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		due[id] = struct{}{}
	}
	for _, id := range s.store.Keys() {
		entry, ok := s.store.Peek(id)
		if !ok {
			continue
		}
		entry.Lock()
		a := entry.Value.Auction
		pending := (a.Status == models.AuctionActive && !now.Before(a.EndTime)) ||
			(a.Status != models.AuctionActive && !a.Settled && !entry.Value.Settling) ||
			(a.Settled && !entry.Value.Saved)
		done := a.Settled && entry.Value.Saved
		entry.Unlock()
		if pending {
			due[id] = struct{}{}
		}
		if done {
			s.store.Evict(id, entry)
		}
	}

	ids := make([]string, 0, len(due))
	for id := range due {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// claimSettlement marks a retired auction as being settled by the caller.
// It returns false when settlement already finished or another goroutine owns it.
// Caller holds the lock.
func claimSettlement(st *auctionState) (models.Auction, []models.Bid, bool) {
	if st.Auction.Settled || st.Settling {
		return st.Auction.Clone(), nil, false
	}
	st.Settling = true
	return st.Auction.Clone(), unpersisted(st), true
}

// settle runs the side effects of a retired auction: it stores the final
// snapshot, opens the transaction of a sold auction, then emits AuctionClosed.
// On failure the claim is released so that the next close attempt retries.
func (s *BiddingService) settle(ctx context.Context, entry *statestore.Entry[auctionState], a models.Auction, pending []models.Bid, now time.Time) (CloseResult, error) {
	fail := func(err error) (CloseResult, error) {
		entry.Lock()
		entry.Value.Settling = false
		entry.Unlock()
		return resultOf(a), err
	}

	if err := s.persist(ctx, entry, a, pending); err != nil {
		return fail(fmt.Errorf("service: failed to persist closed auction %s: %w", a.AuctionID, err))
	}

	if a.Outcome() == models.OutcomeSold {
		_, err := s.opener.Open(ctx, models.Transaction{
			TransactionID: a.TransactionID,
			AuctionID:     a.AuctionID,
			BuyerID:       a.WinnerID,
			SellerID:      a.SellerID,
			Amount:        a.FinalPrice,
			CreatedAt:     closedAt(a, now),
		})
		if err != nil {
			if errors.Is(err, biddingerrors.ErrConcurrencyConflict) {
				utils.Error("service: auction already has a different transaction", map[string]any{
					"auction_id":     a.AuctionID,
					"transaction_id": a.TransactionID,
				})
			}
			return fail(fmt.Errorf("service: failed to open transaction for auction %s: %w", a.AuctionID, err))
		}
	}

	entry.Lock()
	entry.Value.Settling = false
	entry.Value.Auction.Settled = true
	entry.Value.Auction.Version++
	settled := entry.Value.Auction.Clone()
	entry.Unlock()

	if err := s.saveSettled(ctx, entry, settled); err != nil {
		// DueAuctions keeps listing the auction until CloseIfDue saves it
		utils.Error("service: failed to persist settled flag", map[string]any{
			"auction_id": a.AuctionID,
			"error":      err.Error(),
		})
	}

	res := resultOf(settled)
	s.notifier.Notify(ctx, events.AuctionClosed{
		At:            closedAt(settled, now),
		Auction:       settled,
		Outcome:       res.Outcome,
		WinnerID:      res.WinnerID,
		Amount:        res.Amount,
		TransactionID: res.TransactionID,
	})
	utils.Info("auction closed", map[string]any{
		"auction_id":     settled.AuctionID,
		"outcome":        string(res.Outcome),
		"winner_id":      res.WinnerID,
		"amount":         res.Amount.String(),
		"transaction_id": res.TransactionID,
		"bid_count":      settled.BidCount,
	})
	return res, nil
}

// saveSettled writes the settled snapshot. Once it is stored the entry is
// dropped from the cache; a later read reloads the same state from storage.
func (s *BiddingService) saveSettled(ctx context.Context, entry *statestore.Entry[auctionState], a models.Auction) error {
	if err := s.repo.SaveAuction(ctx, a); err != nil {
		return fmt.Errorf("service: failed to persist settled auction %s: %w", a.AuctionID, err)
	}
	entry.Lock()
	entry.Value.Saved = true
	entry.Unlock()
	s.store.Evict(a.AuctionID, entry)
	return nil
}

func closedAt(a models.Auction, fallback time.Time) time.Time {
	if a.ClosedAt != nil {
		return *a.ClosedAt
	}
	return fallback.UTC()
}
