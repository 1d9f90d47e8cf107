package bidding

import (
	"context"
	"fmt"
	"time"

	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/clock"
	"auction-escrow/internal/events"
	"auction-escrow/internal/models"
	"auction-escrow/internal/repository"
	"auction-escrow/internal/statestore"
	"auction-escrow/utils"

	"github.com/shopspring/decimal"
)

// TransactionOpener creates the escrow transaction of a sold auction.
// Open must be idempotent for the same TransactionID.
type TransactionOpener interface {
	Open(ctx context.Context, tx models.Transaction) (models.Transaction, error)
}

// auctionState is everything the engine keeps for one auction behind its lock
type auctionState struct {
	Auction   models.Auction
	Bids      []models.Bid // accepted bids in Seq order
	Persisted int          // Bids[:Persisted] are known to be in storage
	Settling  bool         // a goroutine is running the close side effects
	Saved     bool         // the settled snapshot is in storage
}

// BiddingService admits bids and closes auctions.
// Every auction has its own lock: the decision for a bid or a close is made and
// installed under it, and storage and notification happen after it is released.
type BiddingService struct {
	repo     repository.AuctionDB
	store    *statestore.Store[auctionState]
	clock    clock.Clock
	opener   TransactionOpener
	notifier events.Notifier
	policy   Policy
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opener TransactionOpener, clk clock.Clock, notifier events.Notifier, policy Policy) *BiddingService {
	if clk == nil {
		clk = clock.Real{}
	}
	if notifier == nil {
		notifier = events.Nop{}
	}
	s := &BiddingService{
		repo:     repo,
		clock:    clk,
		opener:   opener,
		notifier: notifier,
		policy:   policy,
	}
	s.store = statestore.New[auctionState](s.load)
	return s
}

// NewAuction is the seller's listing request
type NewAuction struct {
	AuctionID   string // optional, generated when empty
	SellerID    string
	Title       string
	StartPrice  decimal.Decimal
	StepPrice   decimal.Decimal
	BuyNowPrice *decimal.Decimal
	EndTime     time.Time
	AutoExtend  bool
}

// BidOutcome is the result of SubmitBid. A rejected bid is an outcome, not an error.
type BidOutcome struct {
	Accepted   bool                `json:"accepted"`
	Bid        models.Bid          `json:"bid"`
	Rejection  models.RejectedKind `json:"rejection,omitempty"`
	MinimumBid decimal.Decimal     `json:"minimum_bid"`
	Extended   bool                `json:"extended"`
	Auction    models.Auction      `json:"auction"`
	Closed     bool                `json:"closed"`
	Close      *CloseResult        `json:"close,omitempty"`
}

// CreateAuction validates and lists a new auction
func (s *BiddingService) CreateAuction(ctx context.Context, req NewAuction) (models.Auction, error) {
	now := s.clock.Now()
	if err := validateAuction(req, now); err != nil {
		return models.Auction{}, err
	}

	a := models.Auction{
		AuctionID:    req.AuctionID,
		SellerID:     req.SellerID,
		Title:        req.Title,
		StartPrice:   req.StartPrice,
		CurrentPrice: req.StartPrice,
		StepPrice:    req.StepPrice,
		StartTime:    now.UTC(),
		EndTime:      req.EndTime.UTC(),
		AutoExtend:   req.AutoExtend,
		Status:       models.AuctionActive,
		Version:      1,
	}
	if a.AuctionID == "" {
		a.AuctionID = utils.GenerateID()
	}
	if req.BuyNowPrice != nil {
		p := *req.BuyNowPrice
		a.BuyNowPrice = &p
	}

	if err := s.repo.CreateAuction(ctx, a); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction %s: %w", a.AuctionID, err)
	}
	s.store.Put(a.AuctionID, auctionState{Auction: a.Clone()})

	utils.Info("auction created", map[string]any{
		"auction_id":  a.AuctionID,
		"seller_id":   a.SellerID,
		"start_price": a.StartPrice.String(),
		"end_time":    a.EndTime,
	})
	return a, nil
}

func validateAuction(req NewAuction, now time.Time) error {
	switch {
	case req.SellerID == "":
		return fmt.Errorf("service: %w - missing sellerID", biddingerrors.ErrInvalidAuction)
	case !req.StartPrice.IsPositive():
		return fmt.Errorf("service: %w - start price must be positive", biddingerrors.ErrInvalidAuction)
	case !req.StepPrice.IsPositive():
		return fmt.Errorf("service: %w - step price must be positive", biddingerrors.ErrInvalidAuction)
	case req.BuyNowPrice != nil && !req.BuyNowPrice.GreaterThan(req.StartPrice):
		return fmt.Errorf("service: %w - buy-now price must exceed the start price", biddingerrors.ErrInvalidAuction)
	case !req.EndTime.After(now):
		return fmt.Errorf("service: %w - end time must be in the future", biddingerrors.ErrInvalidAuction)
	}
	return nil
}

// SubmitBid decides a bid under the auction lock. Business-rule rejections
// come back as an outcome with Accepted false; errors are reserved for
// invalid input and unknown auctions.
func (s *BiddingService) SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (BidOutcome, error) {
	if auctionID == "" || bidderID == "" {
		return BidOutcome{}, fmt.Errorf("service: %w - missing auctionID or bidderID", biddingerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return BidOutcome{}, fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}

	entry, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return BidOutcome{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	now := s.clock.Now()

	entry.Lock()
	st := &entry.Value
	if st.Auction.SellerID == bidderID {
		entry.Unlock()
		return BidOutcome{}, fmt.Errorf("service: %w", biddingerrors.ErrSelfBid)
	}
	before := st.Auction.Clone()
	d := admit(before, bidderID, amount, now, s.policy)
	var pending []models.Bid
	if d.accepted {
		st.Auction = d.auction.Clone()
		st.Bids = append(st.Bids, d.bid)
		pending = unpersisted(st)
		if d.closing {
			st.Settling = true
		}
	}
	entry.Unlock()

	if !d.accepted {
		s.notifier.Notify(ctx, events.BidRejected{
			At:         now.UTC(),
			Auction:    before,
			BidderID:   bidderID,
			Amount:     amount,
			Reason:     d.rejection,
			MinimumBid: d.minimumBid,
		})
		utils.Debug("bid rejected", map[string]any{
			"auction_id":  auctionID,
			"bidder_id":   bidderID,
			"amount":      amount.String(),
			"reason":      string(d.rejection),
			"minimum_bid": d.minimumBid.String(),
		})
		return BidOutcome{
			Rejection:  d.rejection,
			MinimumBid: d.minimumBid,
			Auction:    before,
			Closed:     d.rejection == models.RejectedAuctionClosed,
		}, nil
	}

	out := BidOutcome{
		Accepted:   true,
		Bid:        d.bid,
		MinimumBid: d.minimumBid,
		Extended:   d.extended,
		Auction:    d.auction,
		Closed:     d.closing,
	}

	if !d.closing {
		// a failed write is logged and repaired by the next write for this auction
		if err := s.persist(ctx, entry, d.auction, pending); err != nil {
			utils.Error("service: failed to persist accepted bid", map[string]any{
				"auction_id": auctionID,
				"bid_id":     d.bid.BidID,
				"error":      err.Error(),
			})
		}
	}

	s.notifier.Notify(ctx, events.BidAccepted{At: now.UTC(), Bid: d.bid, Before: before, After: d.auction.Clone()})
	utils.Info("bid accepted", map[string]any{
		"auction_id": auctionID,
		"bid_id":     d.bid.BidID,
		"bidder_id":  bidderID,
		"amount":     d.bid.Amount.String(),
		"extended":   d.extended,
		"buy_now":    d.closing,
	})

	if d.closing {
		res, err := s.settle(ctx, entry, d.auction, pending, now)
		if err != nil {
			// the auction is closed regardless; the sweeper retries settlement
			utils.Error("service: buy-now settlement failed", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
			res = resultOf(d.auction)
		}
		out.Close = &res
		out.Auction = res.Auction
	}
	return out, nil
}

// GetAuction returns the current auction snapshot
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	entry, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	entry.Lock()
	defer entry.Unlock()
	return entry.Value.Auction.Clone(), nil
}

// GetBids returns all accepted bids for an auction in acceptance order
func (s *BiddingService) GetBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	entry, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	entry.Lock()
	defer entry.Unlock()
	return append([]models.Bid{}, entry.Value.Bids...), nil
}

// GetWinningBid returns the highest accepted bid, which is always the latest one
func (s *BiddingService) GetWinningBid(ctx context.Context, auctionID string) (models.Bid, error) {
	bids, err := s.GetBids(ctx, auctionID)
	if err != nil {
		return models.Bid{}, err
	}
	if len(bids) == 0 {
		return models.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return bids[len(bids)-1], nil
}

// load rebuilds an auction's state from storage on a cache miss
func (s *BiddingService) load(ctx context.Context, auctionID string) (auctionState, error) {
	a, err := s.repo.LoadAuction(ctx, auctionID)
	if err != nil {
		return auctionState{}, err
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return auctionState{}, err
	}
	return auctionState{Auction: a, Bids: bids, Persisted: len(bids), Saved: a.Settled}, nil
}

// unpersisted copies the bids not yet known to be stored; caller holds the lock
func unpersisted(st *auctionState) []models.Bid {
	if st.Persisted >= len(st.Bids) {
		return nil
	}
	return append([]models.Bid(nil), st.Bids[st.Persisted:]...)
}

// persist appends pending bids, then saves the snapshot. Both writes are
// idempotent, so concurrent callers may race on the same bids safely.
func (s *BiddingService) persist(ctx context.Context, entry *statestore.Entry[auctionState], a models.Auction, pending []models.Bid) error {
	for _, b := range pending {
		if err := s.repo.AppendBid(ctx, b); err != nil {
			return fmt.Errorf("append bid %s: %w", b.BidID, err)
		}
	}
	if n := len(pending); n > 0 {
		entry.Lock()
		if last := pending[n-1].Seq; last > entry.Value.Persisted {
			entry.Value.Persisted = last
		}
		entry.Unlock()
	}
	if err := s.repo.SaveAuction(ctx, a); err != nil {
		return fmt.Errorf("save auction %s: %w", a.AuctionID, err)
	}
	return nil
}
