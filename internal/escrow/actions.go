package escrow

import (
	"context"
	"fmt"
	"time"

	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/models"
)

// SubmitPayment records the buyer's payment proof: payment_pending -> shipping_pending
func (m *Machine) SubmitPayment(ctx context.Context, transactionID, actorID, proofRef string) (models.Transaction, error) {
	if err := m.checkProof(ctx, proofRef); err != nil {
		return models.Transaction{}, err
	}

	return m.apply(ctx, transactionID, actorID, ActionSubmitPayment, func(tx *models.Transaction, now time.Time) (bool, error) {
		if err := requireBuyer(tx, actorID); err != nil {
			return false, err
		}
		switch {
		case tx.Status == models.TxPaymentPending:
			tx.PaymentProofRef = proofRef
			tx.PaidAt = stamp(now)
			tx.Status = models.TxShippingPending
			return true, nil
		case tx.Status == models.TxShippingPending && tx.PaymentProofRef == proofRef:
			return false, nil
		}
		return false, biddingerrors.ErrInvalidTransition
	})
}

// ConfirmAndShip records the seller's shipping proof. The status stays
// shipping_pending until the buyer confirms delivery.
func (m *Machine) ConfirmAndShip(ctx context.Context, transactionID, actorID, proofRef string) (models.Transaction, error) {
	if err := m.checkProof(ctx, proofRef); err != nil {
		return models.Transaction{}, err
	}

	return m.apply(ctx, transactionID, actorID, ActionConfirmAndShip, func(tx *models.Transaction, now time.Time) (bool, error) {
		if err := requireSeller(tx, actorID); err != nil {
			return false, err
		}
		if tx.Status != models.TxShippingPending {
			return false, biddingerrors.ErrInvalidTransition
		}
		switch tx.ShippingProofRef {
		case "":
			tx.ShippingProofRef = proofRef
			tx.ShippedAt = stamp(now)
			return true, nil
		case proofRef:
			return false, nil
		}
		return false, fmt.Errorf("%w - already shipped with another proof", biddingerrors.ErrInvalidTransition)
	})
}

// ConfirmDelivery marks the shipped item as received: shipping_pending -> delivered,
// or straight to completed when the buyer attaches a review.
func (m *Machine) ConfirmDelivery(ctx context.Context, transactionID, actorID string, review *models.Review) (models.Transaction, error) {
	if review != nil {
		if err := validateReview(review); err != nil {
			return models.Transaction{}, err
		}
	}

	return m.apply(ctx, transactionID, actorID, ActionConfirmDelivery, func(tx *models.Transaction, now time.Time) (bool, error) {
		if err := requireBuyer(tx, actorID); err != nil {
			return false, err
		}
		switch tx.Status {
		case models.TxShippingPending:
			if tx.ShippingProofRef == "" {
				return false, fmt.Errorf("%w - item not shipped yet", biddingerrors.ErrInvalidTransition)
			}
			tx.DeliveredAt = stamp(now)
			if review == nil {
				tx.Status = models.TxDelivered
				return true, nil
			}
			complete(tx, review, now)
			return true, nil
		case models.TxDelivered:
			if review == nil {
				return false, nil
			}
		case models.TxCompleted:
			if sameReview(tx.Review, review) {
				return false, nil
			}
		}
		return false, biddingerrors.ErrInvalidTransition
	})
}

// SubmitReview rates the seller after delivery: delivered -> completed
func (m *Machine) SubmitReview(ctx context.Context, transactionID, actorID string, review models.Review) (models.Transaction, error) {
	if err := validateReview(&review); err != nil {
		return models.Transaction{}, err
	}

	return m.apply(ctx, transactionID, actorID, ActionSubmitReview, func(tx *models.Transaction, now time.Time) (bool, error) {
		if err := requireBuyer(tx, actorID); err != nil {
			return false, err
		}
		switch tx.Status {
		case models.TxDelivered:
			complete(tx, &review, now)
			return true, nil
		case models.TxCompleted:
			if sameReview(tx.Review, &review) {
				return false, nil
			}
		}
		return false, biddingerrors.ErrInvalidTransition
	})
}

// Cancel aborts a transaction that has not completed. Either party may cancel with a reason.
func (m *Machine) Cancel(ctx context.Context, transactionID, actorID, reason string) (models.Transaction, error) {
	if reason == "" {
		return models.Transaction{}, fmt.Errorf("escrow: %w", biddingerrors.ErrMissingReason)
	}

	return m.apply(ctx, transactionID, actorID, ActionCancel, func(tx *models.Transaction, now time.Time) (bool, error) {
		if actorID == "" || (actorID != tx.BuyerID && actorID != tx.SellerID) {
			return false, biddingerrors.ErrForbiddenActor
		}
		switch tx.Status {
		case models.TxPaymentPending, models.TxShippingPending, models.TxDelivered:
			tx.Status = models.TxCancelled
			tx.CancelledBy = actorID
			tx.CancelReason = reason
			tx.CancelledAt = stamp(now)
			return true, nil
		case models.TxCancelled:
			if tx.CancelledBy == actorID && tx.CancelReason == reason {
				return false, nil
			}
		}
		return false, biddingerrors.ErrInvalidTransition
	})
}

func complete(tx *models.Transaction, review *models.Review, now time.Time) {
	r := *review
	tx.Review = &r
	tx.CompletedAt = stamp(now)
	tx.Status = models.TxCompleted
}

func sameReview(stored, incoming *models.Review) bool {
	return stored != nil && incoming != nil && *stored == *incoming
}

func requireBuyer(tx *models.Transaction, actorID string) error {
	if actorID == "" || actorID != tx.BuyerID {
		return fmt.Errorf("%w - only the buyer may do this", biddingerrors.ErrForbiddenActor)
	}
	return nil
}

func requireSeller(tx *models.Transaction, actorID string) error {
	if actorID == "" || actorID != tx.SellerID {
		return fmt.Errorf("%w - only the seller may do this", biddingerrors.ErrForbiddenActor)
	}
	return nil
}
