package handler

import (
	"context"
	"net/http"

	"auction-escrow/internal/models"
	"auction-escrow/services/helpers"
	"auction-escrow/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=escrow_handler.go -destination=mock_escrow_service.go -package=handler

type EscrowServiceInterface interface {
	Get(ctx context.Context, transactionID string) (models.Transaction, error)
	ProofURLs(ctx context.Context, tx models.Transaction) (string, string, error)
	SubmitPayment(ctx context.Context, transactionID, actorID, proofRef string) (models.Transaction, error)
	ConfirmAndShip(ctx context.Context, transactionID, actorID, proofRef string) (models.Transaction, error)
	ConfirmDelivery(ctx context.Context, transactionID, actorID string, review *models.Review) (models.Transaction, error)
	SubmitReview(ctx context.Context, transactionID, actorID string, review models.Review) (models.Transaction, error)
	Cancel(ctx context.Context, transactionID, actorID, reason string) (models.Transaction, error)
}

type ReputationReader interface {
	Score(ctx context.Context, userID string) (int, error)
}

type EscrowHandler struct {
	service    EscrowServiceInterface
	reputation ReputationReader
}

func NewEscrowHandler(service EscrowServiceInterface, reputation ReputationReader) *EscrowHandler {
	return &EscrowHandler{service: service, reputation: reputation}
}

// GetTransactionHandler handles GET /transactions/:transaction_id
func (h *EscrowHandler) GetTransactionHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	tx, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		helpers.RespondError(c, "GetTransactionHandler", "error retrieving transaction", err, map[string]any{"transaction_id": id})
		return
	}
	h.respond(c, "GetTransactionHandler", http.StatusOK, tx, "transaction retrieved successfully")
}

// SubmitPaymentHandler handles POST /transactions/:transaction_id/payment
func (h *EscrowHandler) SubmitPaymentHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	var req helpers.ProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitPaymentHandler", err)
		return
	}

	tx, err := h.service.SubmitPayment(c.Request.Context(), id, req.ActorID, req.ProofRef)
	if err != nil {
		helpers.RespondError(c, "SubmitPaymentHandler", "failed to submit payment", err, map[string]any{
			"transaction_id": id,
			"actor_id":       req.ActorID,
		})
		return
	}
	h.respond(c, "SubmitPaymentHandler", http.StatusOK, tx, "payment recorded")
}

// ConfirmShipmentHandler handles POST /transactions/:transaction_id/shipment
func (h *EscrowHandler) ConfirmShipmentHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	var req helpers.ProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ConfirmShipmentHandler", err)
		return
	}

	tx, err := h.service.ConfirmAndShip(c.Request.Context(), id, req.ActorID, req.ProofRef)
	if err != nil {
		helpers.RespondError(c, "ConfirmShipmentHandler", "failed to confirm shipment", err, map[string]any{
			"transaction_id": id,
			"actor_id":       req.ActorID,
		})
		return
	}
	h.respond(c, "ConfirmShipmentHandler", http.StatusOK, tx, "shipment recorded")
}

// ConfirmDeliveryHandler handles POST /transactions/:transaction_id/delivery
func (h *EscrowHandler) ConfirmDeliveryHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	var req helpers.DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ConfirmDeliveryHandler", err)
		return
	}

	var review *models.Review
	if req.Review != nil {
		review = &models.Review{Rating: req.Review.Rating, Comment: req.Review.Comment}
	}

	tx, err := h.service.ConfirmDelivery(c.Request.Context(), id, req.ActorID, review)
	if err != nil {
		helpers.RespondError(c, "ConfirmDeliveryHandler", "failed to confirm delivery", err, map[string]any{
			"transaction_id": id,
			"actor_id":       req.ActorID,
		})
		return
	}
	h.respond(c, "ConfirmDeliveryHandler", http.StatusOK, tx, "delivery confirmed")
}

// SubmitReviewHandler handles POST /transactions/:transaction_id/review
func (h *EscrowHandler) SubmitReviewHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	var req helpers.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitReviewHandler", err)
		return
	}

	tx, err := h.service.SubmitReview(c.Request.Context(), id, req.ActorID, models.Review{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		helpers.RespondError(c, "SubmitReviewHandler", "failed to submit review", err, map[string]any{
			"transaction_id": id,
			"actor_id":       req.ActorID,
		})
		return
	}
	h.respond(c, "SubmitReviewHandler", http.StatusOK, tx, "review recorded")
}

// CancelTransactionHandler handles POST /transactions/:transaction_id/cancel
func (h *EscrowHandler) CancelTransactionHandler(c *gin.Context) {
	id := c.Param("transaction_id")
	var req helpers.CancelTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelTransactionHandler", err)
		return
	}

	tx, err := h.service.Cancel(c.Request.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		helpers.RespondError(c, "CancelTransactionHandler", "failed to cancel transaction", err, map[string]any{
			"transaction_id": id,
			"actor_id":       req.ActorID,
		})
		return
	}
	h.respond(c, "CancelTransactionHandler", http.StatusOK, tx, "transaction cancelled")
}

// GetReputationHandler handles GET /users/:user_id/reputation
func (h *EscrowHandler) GetReputationHandler(c *gin.Context) {
	userID := c.Param("user_id")
	score, err := h.reputation.Score(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "GetReputationHandler", "error retrieving reputation", err, map[string]any{"user_id": userID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.ReputationResponse{UserID: userID, Score: score}, "reputation retrieved successfully")
}

// respond attaches proof URLs; a reference that no longer resolves is logged and left out
func (h *EscrowHandler) respond(c *gin.Context, handlerName string, status int, tx models.Transaction, message string) {
	resp := helpers.TransactionResponse{Transaction: tx}
	payment, shipping, err := h.service.ProofURLs(c.Request.Context(), tx)
	if err != nil {
		utils.Warn(handlerName+": failed to resolve proof URLs", map[string]any{
			"transaction_id": tx.TransactionID,
			"error":          err.Error(),
		})
	} else {
		resp.PaymentProofURL = payment
		resp.ShippingProofURL = shipping
	}

	utils.JSONResponse(c, status, resp, message)
	helpers.LogSuccess(handlerName, message, map[string]any{
		"transaction_id": tx.TransactionID,
		"status":         string(tx.Status),
	})
}
