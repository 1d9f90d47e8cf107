package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is a step of the settlement workflow
type TransactionStatus string

const (
	TxPaymentPending  TransactionStatus = "payment_pending"
	TxShippingPending TransactionStatus = "shipping_pending"
	TxDelivered       TransactionStatus = "delivered"
	TxCompleted       TransactionStatus = "completed"
	TxCancelled       TransactionStatus = "cancelled"
)

// Terminal reports whether no further action can change the status
func (s TransactionStatus) Terminal() bool {
	return s == TxCompleted || s == TxCancelled
}

// Review is the buyer's feedback on the seller
type Review struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Transaction is the settlement between the winning bidder and the seller
type Transaction struct {
	TransactionID     string            `json:"transaction_id"`
	AuctionID         string            `json:"auction_id"`
	BuyerID           string            `json:"buyer_id"`
	SellerID          string            `json:"seller_id"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            TransactionStatus `json:"status"`
	PaymentProofRef   string            `json:"payment_proof_ref,omitempty"`
	ShippingProofRef  string            `json:"shipping_proof_ref,omitempty"`
	Review            *Review           `json:"review,omitempty"`
	CancelledBy       string            `json:"cancelled_by,omitempty"`
	CancelReason      string            `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	ShippedAt         *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	ReputationApplied bool              `json:"reputation_applied"`
	Version           int64             `json:"version"`
}

// Clone returns a deep copy of the transaction
func (t Transaction) Clone() Transaction {
	c := t
	if t.Review != nil {
		r := *t.Review
		c.Review = &r
	}
	c.PaidAt = cloneTime(t.PaidAt)
	c.ShippedAt = cloneTime(t.ShippedAt)
	c.DeliveredAt = cloneTime(t.DeliveredAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
