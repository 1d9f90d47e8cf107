package events

import (
	"context"
	"sync"
	"time"

	"auction-escrow/internal/models"

	"github.com/shopspring/decimal"
)

// Kind names an event type on the wire
type Kind string

const (
	KindBidAccepted             Kind = "BidAccepted"
	KindBidRejected             Kind = "BidRejected"
	KindAuctionClosed           Kind = "AuctionClosed"
	KindTransactionTransitioned Kind = "TransactionTransitioned"
)

// Event is the closed set of engine notifications.
// Only the types in this package implement it.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
	sealed()
}

// BidAccepted is emitted after a bid changed the auction
type BidAccepted struct {
	At     time.Time      `json:"at"`
	Bid    models.Bid     `json:"bid"`
	Before models.Auction `json:"before"`
	After  models.Auction `json:"after"`
}

// BidRejected is emitted for business-rule rejections; the auction is unchanged
type BidRejected struct {
	At         time.Time           `json:"at"`
	Auction    models.Auction      `json:"auction"`
	BidderID   string              `json:"bidder_id"`
	Amount     decimal.Decimal     `json:"amount"`
	Reason     models.RejectedKind `json:"reason"`
	MinimumBid decimal.Decimal     `json:"minimum_bid"`
}

// AuctionClosed is emitted once per auction, when it leaves the active state
type AuctionClosed struct {
	At            time.Time           `json:"at"`
	Auction       models.Auction      `json:"auction"`
	Outcome       models.CloseOutcome `json:"outcome"`
	WinnerID      string              `json:"winner_id,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	TransactionID string              `json:"transaction_id,omitempty"`
}

// TransactionTransitioned is emitted whenever a settlement action changes a transaction
type TransactionTransitioned struct {
	At      time.Time          `json:"at"`
	Action  string             `json:"action"`
	ActorID string             `json:"actor_id"`
	Before  models.Transaction `json:"before"`
	After   models.Transaction `json:"after"`
}

func (e BidAccepted) Kind() Kind             { return KindBidAccepted }
func (e BidRejected) Kind() Kind             { return KindBidRejected }
func (e AuctionClosed) Kind() Kind           { return KindAuctionClosed }
func (e TransactionTransitioned) Kind() Kind { return KindTransactionTransitioned }

func (e BidAccepted) OccurredAt() time.Time             { return e.At }
func (e BidRejected) OccurredAt() time.Time             { return e.At }
func (e AuctionClosed) OccurredAt() time.Time           { return e.At }
func (e TransactionTransitioned) OccurredAt() time.Time { return e.At }

func (BidAccepted) sealed()             {}
func (BidRejected) sealed()             {}
func (AuctionClosed) sealed()           {}
func (TransactionTransitioned) sealed() {}

// Notifier receives engine events. Implementations must be safe for concurrent use
// and must not call back into the engine synchronously.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Multi fans an event out to several notifiers in order
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Recorder keeps events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of one kind
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind() == k {
			out = append(out, ev)
		}
	}
	return out
}
