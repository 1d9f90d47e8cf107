package handler

import (
	"context"
	"net/http"

	bidding "auction-escrow/internal/biddingService"
	"auction-escrow/internal/models"
	"auction-escrow/services/helpers"
	"auction-escrow/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	CreateAuction(ctx context.Context, req bidding.NewAuction) (models.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (models.Auction, error)
	CancelAuction(ctx context.Context, auctionID, sellerID string) (bidding.CloseResult, error)
	CloseIfDue(ctx context.Context, auctionID string) (bidding.CloseResult, error)
	SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (bidding.BidOutcome, error)
	GetBids(ctx context.Context, auctionID string) ([]models.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (models.Bid, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), bidding.NewAuction{
		AuctionID:   req.AuctionID,
		SellerID:    req.SellerID,
		Title:       req.Title,
		StartPrice:  req.StartPrice,
		StepPrice:   req.StepPrice,
		BuyNowPrice: req.BuyNowPrice,
		EndTime:     req.EndTime,
		AutoExtend:  req.AutoExtend,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{
			"seller_id": req.SellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  auction.SellerID,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", "error retrieving auction", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, auction, "auction retrieved successfully")
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *BiddingHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	res, err := h.service.CancelAuction(c.Request.Context(), auctionID, req.SellerID)
	if err != nil {
		helpers.RespondError(c, "CancelAuctionHandler", "failed to cancel auction", err, map[string]any{
			"auction_id": auctionID,
			"seller_id":  req.SellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, res, "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{"auction_id": auctionID})
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close
func (h *BiddingHandler) CloseAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	res, err := h.service.CloseIfDue(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "CloseAuctionHandler", "failed to close auction", err, map[string]any{"auction_id": auctionID})
		return
	}

	if !res.Closed {
		utils.JSONResponse(c, http.StatusOK, res, "auction still open")
		return
	}
	utils.JSONResponse(c, http.StatusOK, res, "auction closed")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed", map[string]any{
		"auction_id":     auctionID,
		"outcome":        string(res.Outcome),
		"transaction_id": res.TransactionID,
	})
}

// RecordBidHandler handles POST /bids
func (h *BiddingHandler) RecordBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	out, err := h.service.SubmitBid(c.Request.Context(), req.AuctionID, req.BidderID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "RecordBidHandler", "failed to record bid", err, map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
		})
		return
	}

	resp := helpers.BidOutcomeResponse{
		Accepted:   out.Accepted,
		Reason:     out.Rejection,
		MinimumBid: out.MinimumBid,
		Extended:   out.Extended,
		Closed:     out.Closed,
		Auction:    out.Auction,
	}

	if !out.Accepted {
		// a rejected bid is an answer, not a failure
		utils.JSONRejection(c, http.StatusConflict, resp, string(out.Rejection))
		utils.Info("RecordBidHandler: bid rejected", map[string]any{
			"auction_id":  req.AuctionID,
			"bidder_id":   req.BidderID,
			"amount":      req.Amount.String(),
			"reason":      string(out.Rejection),
			"minimum_bid": out.MinimumBid.String(),
		})
		return
	}

	bid := helpers.NewBidResponse(out.Bid)
	resp.Bid = &bid

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBids(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByAuctionHandler", "error retrieving bids", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetWinningBidHandler", "winning bid error", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}
