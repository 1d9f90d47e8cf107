package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/clock"
	"auction-escrow/internal/events"
	"auction-escrow/internal/models"
	"auction-escrow/internal/proofs"
	"auction-escrow/internal/reputation"
	"auction-escrow/internal/repository"
	"auction-escrow/internal/statestore"
	"auction-escrow/utils"
)

// Action names a settlement step; it is carried on TransactionTransitioned events
type Action string

const (
	ActionSubmitPayment   Action = "submit_payment"
	ActionConfirmAndShip  Action = "confirm_and_ship"
	ActionConfirmDelivery Action = "confirm_delivery"
	ActionSubmitReview    Action = "submit_review"
	ActionCancel          Action = "cancel"
)

// Machine drives transactions through payment, shipping, delivery and review.
// Each transaction is mutated only under its own entry lock; storage, the
// reputation ledger and notifications are called after the lock is released.
type Machine struct {
	repo     repository.TransactionDB
	store    *statestore.Store[models.Transaction]
	clock    clock.Clock
	proofs   proofs.Resolver
	ledger   reputation.Ledger
	notifier events.Notifier
}

// NewMachine wires the state machine to its collaborators
func NewMachine(repo repository.TransactionDB, clk clock.Clock, resolver proofs.Resolver, ledger reputation.Ledger, notifier events.Notifier) *Machine {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Machine{
		repo:     repo,
		store:    statestore.New[models.Transaction](repo.LoadTransaction),
		clock:    clk,
		proofs:   resolver,
		ledger:   ledger,
		notifier: notifier,
	}
}

// Open registers the transaction of a won auction in payment_pending.
// Opening the same TransactionID again returns the existing transaction.
func (m *Machine) Open(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.TransactionID == "" || tx.AuctionID == "" || tx.BuyerID == "" || tx.SellerID == "" {
		return models.Transaction{}, fmt.Errorf("escrow: open: %w - missing identifiers", biddingerrors.ErrInvalidAuction)
	}
	if tx.BuyerID == tx.SellerID {
		return models.Transaction{}, fmt.Errorf("escrow: open: %w - buyer is the seller", biddingerrors.ErrInvalidAuction)
	}
	if !tx.Amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("escrow: open: %w - non-positive amount", biddingerrors.ErrInvalidAuction)
	}

	tx.Status = models.TxPaymentPending
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = m.clock.Now().UTC()
	}
	tx.Version = 1

	if err := m.repo.CreateTransaction(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("escrow: failed to create transaction %s: %w", tx.TransactionID, err)
	}

	// read back through the store: a retried Open must see any progress already made
	entry, err := m.store.Get(ctx, tx.TransactionID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("escrow: open %s: %w", tx.TransactionID, err)
	}
	opened := m.snapshot(entry)

	utils.Info("transaction opened", map[string]any{
		"transaction_id": opened.TransactionID,
		"auction_id":     opened.AuctionID,
		"buyer_id":       opened.BuyerID,
		"seller_id":      opened.SellerID,
		"amount":         opened.Amount.String(),
		"status":         string(opened.Status),
	})
	return opened, nil
}

// Get returns the current transaction
func (m *Machine) Get(ctx context.Context, transactionID string) (models.Transaction, error) {
	entry, err := m.store.Get(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("escrow: get %s: %w", transactionID, err)
	}
	return m.snapshot(entry), nil
}

// ProofURLs resolves the stored payment and shipping references, empty when absent
func (m *Machine) ProofURLs(ctx context.Context, tx models.Transaction) (payment, shipping string, err error) {
	if tx.PaymentProofRef != "" {
		if payment, err = m.proofs.Resolve(ctx, tx.PaymentProofRef); err != nil {
			return "", "", err
		}
	}
	if tx.ShippingProofRef != "" {
		if shipping, err = m.proofs.Resolve(ctx, tx.ShippingProofRef); err != nil {
			return "", "", err
		}
	}
	return payment, shipping, nil
}

// step mutates tx in place and reports whether it transitioned.
// Returning false with a nil error means an identical retry: nothing changes.
type step func(tx *models.Transaction, now time.Time) (bool, error)

// apply runs one action under the transaction's lock, then persists, notifies
// and settles reputation using the decided outcome.
func (m *Machine) apply(ctx context.Context, transactionID, actorID string, action Action, fn step) (models.Transaction, error) {
	entry, err := m.store.Get(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("escrow: %s %s: %w", action, transactionID, err)
	}
	now := m.clock.Now()

	entry.Lock()
	before := entry.Value.Clone()
	after := before.Clone()
	transitioned, err := fn(&after, now)
	if err != nil {
		entry.Unlock()
		return before, fmt.Errorf("escrow: %s %s (status %s): %w", action, transactionID, before.Status, err)
	}
	// claim the reputation update under the lock so concurrent retries cannot apply it twice
	claimLedger := after.Status == models.TxCompleted && !after.ReputationApplied
	if claimLedger {
		after.ReputationApplied = true
	}
	if transitioned || claimLedger {
		after.Version++
		entry.Value = after.Clone()
	}
	entry.Unlock()

	// saves are versioned, so re-saving an unchanged snapshot on retry is harmless
	saveErr := m.repo.SaveTransaction(ctx, after)
	if saveErr != nil {
		utils.Error("escrow: failed to persist transaction", map[string]any{
			"transaction_id": transactionID,
			"action":         string(action),
			"version":        after.Version,
			"error":          saveErr.Error(),
		})
	}

	if transitioned {
		m.notifier.Notify(ctx, events.TransactionTransitioned{
			At:      now.UTC(),
			Action:  string(action),
			ActorID: actorID,
			Before:  before,
			After:   after.Clone(),
		})
	}

	if claimLedger {
		if err := m.ledger.Record(ctx, after.SellerID, after.Review.Rating); err != nil {
			after = m.releaseLedgerClaim(ctx, entry)
			return after, fmt.Errorf("escrow: %s %s: reputation update pending: %w", action, transactionID, err)
		}
	}

	if saveErr != nil {
		return after, fmt.Errorf("escrow: %s %s: failed to persist: %w", action, transactionID, saveErr)
	}
	return after, nil
}

// releaseLedgerClaim undoes the claim after a failed ledger call so that the next retry repeats it
func (m *Machine) releaseLedgerClaim(ctx context.Context, entry *statestore.Entry[models.Transaction]) models.Transaction {
	entry.Lock()
	entry.Value.ReputationApplied = false
	entry.Value.Version++
	tx := entry.Value.Clone()
	entry.Unlock()

	if err := m.repo.SaveTransaction(ctx, tx); err != nil {
		utils.Error("escrow: failed to persist released reputation claim", map[string]any{
			"transaction_id": tx.TransactionID,
			"error":          err.Error(),
		})
	}
	return tx
}

func (m *Machine) snapshot(entry *statestore.Entry[models.Transaction]) models.Transaction {
	entry.Lock()
	defer entry.Unlock()
	return entry.Value.Clone()
}

func (m *Machine) checkProof(ctx context.Context, ref string) error {
	if ref == "" {
		return fmt.Errorf("escrow: %w - empty reference", biddingerrors.ErrInvalidProof)
	}
	if _, err := m.proofs.Resolve(ctx, ref); err != nil {
		if errors.Is(err, biddingerrors.ErrInvalidProof) {
			return fmt.Errorf("escrow: %w", err)
		}
		return fmt.Errorf("escrow: %w - %v", biddingerrors.ErrInvalidProof, err)
	}
	return nil
}

func validateReview(r *models.Review) error {
	if r == nil {
		return fmt.Errorf("escrow: %w - review required", biddingerrors.ErrInvalidReview)
	}
	if r.Rating != 1 && r.Rating != -1 {
		return fmt.Errorf("escrow: %w - rating must be +1 or -1, got %d", biddingerrors.ErrInvalidReview, r.Rating)
	}
	return nil
}

func stamp(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}
