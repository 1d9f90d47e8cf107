package server

import (
	biddinghandler "auction-escrow/services/bidding/handler"
	escrowhandler "auction-escrow/services/escrow/handler"

	"github.com/gin-gonic/gin"
)

// Services bundles what the router dispatches to
type Services struct {
	Bidding    biddinghandler.BiddingServiceInterface
	Escrow     escrowhandler.EscrowServiceInterface
	Reputation escrowhandler.ReputationReader
	// Events serves the websocket feed; nil disables /ws
	Events gin.HandlerFunc
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := biddinghandler.NewBiddingHandler(svc.Bidding)
	escrowHandler := escrowhandler.NewEscrowHandler(svc.Escrow, svc.Reputation)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", biddingHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/close", biddingHandler.CloseAuctionHandler)
		auctions.POST("/:auction_id/cancel", biddingHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", biddingHandler.GetWinningBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", biddingHandler.RecordBidHandler)
	}

	transactions := router.Group("/transactions")
	{
		transactions.GET("/:transaction_id", escrowHandler.GetTransactionHandler)
		transactions.POST("/:transaction_id/payment", escrowHandler.SubmitPaymentHandler)
		transactions.POST("/:transaction_id/shipment", escrowHandler.ConfirmShipmentHandler)
		transactions.POST("/:transaction_id/delivery", escrowHandler.ConfirmDeliveryHandler)
		transactions.POST("/:transaction_id/review", escrowHandler.SubmitReviewHandler)
		transactions.POST("/:transaction_id/cancel", escrowHandler.CancelTransactionHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/reputation", escrowHandler.GetReputationHandler)
	}

	if svc.Events != nil {
		router.GET("/ws", svc.Events)
	}

	return router
}
