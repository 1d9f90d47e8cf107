package helpers

import (
	"time"

	"auction-escrow/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs. Amounts are decimals and accept JSON numbers or strings.

type CreateAuctionRequest struct {
	AuctionID   string           `json:"auction_id"`
	SellerID    string           `json:"seller_id" binding:"required"`
	Title       string           `json:"title"`
	StartPrice  decimal.Decimal  `json:"start_price"`
	StepPrice   decimal.Decimal  `json:"step_price"`
	BuyNowPrice *decimal.Decimal `json:"buy_now_price"`
	EndTime     time.Time        `json:"end_time"`
	AutoExtend  bool             `json:"auto_extend"`
}

type CancelAuctionRequest struct {
	SellerID string `json:"seller_id" binding:"required"`
}

type PlaceBidRequest struct {
	AuctionID string          `json:"auction_id" binding:"required"`
	BidderID  string          `json:"bidder_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	BidID      string          `json:"bid_id"`
	Seq        int             `json:"seq"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	BuyNow     bool            `json:"buy_now"`
	AcceptedAt string          `json:"accepted_at"`
}

// BidOutcomeResponse is returned for accepted and rejected bids alike
type BidOutcomeResponse struct {
	Accepted   bool                `json:"accepted"`
	Bid        *BidResponse        `json:"bid,omitempty"`
	Reason     models.RejectedKind `json:"reason,omitempty"`
	MinimumBid decimal.Decimal     `json:"minimum_bid"`
	Extended   bool                `json:"extended"`
	Closed     bool                `json:"closed"`
	Auction    models.Auction      `json:"auction"`
}

type ProofRequest struct {
	ActorID  string `json:"actor_id" binding:"required"`
	ProofRef string `json:"proof_ref" binding:"required"`
}

type ReviewRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type DeliveryRequest struct {
	ActorID string         `json:"actor_id" binding:"required"`
	Review  *ReviewPayload `json:"review"`
}

type ReviewPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CancelTransactionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Reason  string `json:"reason"`
}

// TransactionResponse adds resolved proof URLs to the stored transaction
type TransactionResponse struct {
	models.Transaction
	PaymentProofURL  string `json:"payment_proof_url,omitempty"`
	ShippingProofURL string `json:"shipping_proof_url,omitempty"`
}

type ReputationResponse struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// NewBidResponse converts a stored bid to its wire form
func NewBidResponse(bid models.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		Seq:        bid.Seq,
		AuctionID:  bid.AuctionID,
		BidderID:   bid.BidderID,
		Amount:     bid.Amount,
		BuyNow:     bid.BuyNow,
		AcceptedAt: bid.AcceptedAt.UTC().Format(time.RFC3339Nano),
	}
}
