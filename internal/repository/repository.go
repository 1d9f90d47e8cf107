package repository

import (
	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the auction and bid storage used by the bidding engine.
// SaveAuction must ignore snapshots whose Version is not newer than the stored one.
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction models.Auction) error
	LoadAuction(ctx context.Context, auctionID string) (models.Auction, error)
	SaveAuction(ctx context.Context, auction models.Auction) error
	AppendBid(ctx context.Context, bid models.Bid) error
	GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error)
	ListDueAuctions(ctx context.Context, now time.Time) ([]string, error)
}

// TransactionDB defines settlement storage used by the escrow state machine.
// CreateTransaction is idempotent for the same TransactionID.
type TransactionDB interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) error
	LoadTransaction(ctx context.Context, transactionID string) (models.Transaction, error)
	SaveTransaction(ctx context.Context, tx models.Transaction) error
}

// ReputationDB stores per-user reputation scores
type ReputationDB interface {
	AdjustReputation(ctx context.Context, userID string, delta int) (int, error)
	GetReputation(ctx context.Context, userID string) (int, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of all storage interfaces
type MemoryRepo struct {
	mu           sync.RWMutex
	auctions     map[string]models.Auction     // key: auctionID
	bids         map[string][]models.Bid       // key: auctionID -> append-only bid log
	transactions map[string]models.Transaction // key: transactionID
	byAuction    map[string]string             // key: auctionID -> transactionID
	reputation   map[string]int                // key: userID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:     make(map[string]models.Auction),
		bids:         make(map[string][]models.Bid),
		transactions: make(map[string]models.Transaction),
		byAuction:    make(map[string]string),
		reputation:   make(map[string]int),
	}
}

// CreateAuction stores a newly listed auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w", biddingerrors.ErrInvalidAuction)
	}
	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	r.auctions[auction.AuctionID] = auction.Clone()
	return nil
}

// LoadAuction returns the stored auction
func (r *MemoryRepo) LoadAuction(_ context.Context, auctionID string) (models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return models.Auction{}, fmt.Errorf("load auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a.Clone(), nil
}

// SaveAuction overwrites the stored auction when the snapshot is newer
func (r *MemoryRepo) SaveAuction(_ context.Context, auction models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[auction.AuctionID]
	if !ok {
		return fmt.Errorf("save auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if auction.Version <= stored.Version {
		return nil
	}
	r.auctions[auction.AuctionID] = auction.Clone()
	return nil
}

// AppendBid adds an accepted bid to the auction's bid log.
// Re-appending a BidID already in the log is a no-op.
func (r *MemoryRepo) AppendBid(_ context.Context, bid models.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	for _, b := range r.bids[bid.AuctionID] {
		if b.BidID == bid.BidID {
			return nil
		}
	}
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	return nil
}

// GetBidsByAuction returns the bid log ordered by submission sequence
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	bids := append([]models.Bid(nil), r.bids[auctionID]...)
	sort.Slice(bids, func(i, j int) bool { return bids[i].Seq < bids[j].Seq })
	return bids, nil
}

// ListDueAuctions returns active auctions whose end time has passed and
// retired auctions whose close was not settled yet
func (r *MemoryRepo) ListDueAuctions(_ context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, a := range r.auctions {
		due := a.Status == models.AuctionActive && !now.Before(a.EndTime)
		if due || (a.Status != models.AuctionActive && !a.Settled) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateTransaction stores a new transaction; one auction owns at most one transaction
func (r *MemoryRepo) CreateTransaction(_ context.Context, tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byAuction[tx.AuctionID]; ok {
		if existing == tx.TransactionID {
			return nil
		}
		return fmt.Errorf("create transaction %s for auction %s (existing %s): %w",
			tx.TransactionID, tx.AuctionID, existing, biddingerrors.ErrConcurrencyConflict)
	}
	r.transactions[tx.TransactionID] = tx.Clone()
	r.byAuction[tx.AuctionID] = tx.TransactionID
	return nil
}

// LoadTransaction returns the stored transaction
func (r *MemoryRepo) LoadTransaction(_ context.Context, transactionID string) (models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[transactionID]
	if !ok {
		return models.Transaction{}, fmt.Errorf("load transaction %s: %w", transactionID, biddingerrors.ErrTransactionNotFound)
	}
	return tx.Clone(), nil
}

// SaveTransaction overwrites the stored transaction when the snapshot is newer
func (r *MemoryRepo) SaveTransaction(_ context.Context, tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transactions[tx.TransactionID]
	if !ok {
		return fmt.Errorf("save transaction %s: %w", tx.TransactionID, biddingerrors.ErrTransactionNotFound)
	}
	if tx.Version <= stored.Version {
		return nil
	}
	r.transactions[tx.TransactionID] = tx.Clone()
	return nil
}

// AdjustReputation adds delta to the user's score and returns the new score
func (r *MemoryRepo) AdjustReputation(_ context.Context, userID string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reputation[userID] += delta
	return r.reputation[userID], nil
}

// GetReputation returns the user's score, zero for unknown users
func (r *MemoryRepo) GetReputation(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reputation[userID], nil
}
