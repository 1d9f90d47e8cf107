package integrationtests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"auction-escrow/internal/events"

	"github.com/stretchr/testify/require"
)

// RecordBidHandler Tests
func TestRecordBidHandler(t *testing.T) {
	tests := []struct {
		name       string
		request    any
		wantStatus int
		wantReason string
	}{
		{
			name:       "Valid_Bid",
			request:    map[string]any{"auction_id": "a1", "bidder_id": "user1", "amount": 100},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Below_Start_Price",
			request:    map[string]any{"auction_id": "a1", "bidder_id": "user1", "amount": "99.99"},
			wantStatus: http.StatusConflict,
			wantReason: "bid_too_low",
		},
		{
			name:       "Seller_Bids",
			request:    map[string]any{"auction_id": "a1", "bidder_id": "seller1", "amount": 150},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Unknown_Auction",
			request:    map[string]any{"auction_id": "nope", "bidder_id": "user1", "amount": 100},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Invalid_JSON",
			request:    "{auction_id: 'missing quotes', amount: 100}", // invalid JSON
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv(t)
			env.CreateAuction(t, "a1", "100", "10", start.Add(time.Hour), nil)

			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids", tt.request)
			require.Equal(t, tt.wantStatus, w.Code, "response: %v", resp)

			switch tt.wantStatus {
			case http.StatusCreated:
				bid := data(t, resp)["bid"].(map[string]any)
				require.Equal(t, "a1", bid["auction_id"])
				require.Equal(t, "user1", bid["bidder_id"])
				require.Equal(t, "100", bid["amount"])
				require.EqualValues(t, 1, bid["seq"])
				require.NotEmpty(t, bid["bid_id"])

				_, err := time.Parse(time.RFC3339Nano, bid["accepted_at"].(string))
				require.NoError(t, err)
			case http.StatusConflict:
				require.Equal(t, tt.wantReason, resp["reason"])
				require.Equal(t, "100", data(t, resp)["minimum_bid"])
			}
		})
	}
}

// A bid must beat the current price by at least the step
func TestBidStepRule(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "a1", "100", "10", start.Add(time.Hour), nil)

	_, code := env.Bid(t, "a1", "user1", "100")
	require.Equal(t, http.StatusCreated, code)

	resp, code := env.Bid(t, "a1", "user2", "105")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "bid_too_low", resp["reason"])
	require.Equal(t, "110", data(t, resp)["minimum_bid"])

	_, code = env.Bid(t, "a1", "user2", "130")
	require.Equal(t, http.StatusCreated, code)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user2", data(t, resp)["bidder_id"])
	require.Equal(t, "130", data(t, resp)["amount"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 2)

	require.Len(t, env.events.OfKind(events.KindBidAccepted), 2)
	require.Len(t, env.events.OfKind(events.KindBidRejected), 1)
}

// GetWinningBidHandler Tests
func TestGetWinningBidHandler(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "empty", "50", "5", start.Add(time.Hour), nil)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/empty/winning", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "no bids found for auction", resp["message"])

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/missing/winning", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/empty/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 0)
}

// From listing to completed settlement through the HTTP surface only
func TestAuctionToSettlement(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "a1", "100", "10", start.Add(time.Hour), nil)

	_, code := env.Bid(t, "a1", "buyer1", "120")
	require.Equal(t, http.StatusCreated, code)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/a1/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auction still open", resp["message"])

	env.clock.Advance(time.Hour)
	resp, code = env.Bid(t, "a1", "late", "500")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "auction_closed", resp["reason"])

	report := env.Sweep()
	require.Equal(t, 1, report.Closed)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	auction := data(t, resp)
	require.Equal(t, "ended", auction["status"])
	require.Equal(t, "buyer1", auction["winner_id"])
	require.Equal(t, "120", auction["final_price"])
	require.Equal(t, true, auction["settled"])
	txID := auction["transaction_id"].(string)
	require.NotEmpty(t, txID)

	// closing again is a no-op that reports the same winner
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/a1/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auction closed", resp["message"])
	require.Equal(t, txID, data(t, resp)["transaction_id"])
	require.Len(t, env.events.OfKind(events.KindAuctionClosed), 1)

	txURL := "/transactions/" + txID
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, txURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tx := data(t, resp)
	require.Equal(t, "payment_pending", tx["status"])
	require.Equal(t, "buyer1", tx["buyer_id"])
	require.Equal(t, "seller1", tx["seller_id"])
	require.Equal(t, "120", tx["amount"])

	// the seller cannot pay, and shipping before payment is out of order
	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/payment", map[string]any{"actor_id": "seller1", "proof_ref": "payments/r1.png"})
	require.Equal(t, http.StatusForbidden, w.Code)
	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/shipment", map[string]any{"actor_id": "seller1", "proof_ref": "shipping/t1.pdf"})
	require.Equal(t, http.StatusConflict, w.Code)
	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/payment", map[string]any{"actor_id": "buyer1", "proof_ref": "../etc/passwd"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/payment", map[string]any{"actor_id": "buyer1", "proof_ref": "payments/r1.png"})
	require.Equal(t, http.StatusOK, w.Code)
	tx = data(t, resp)
	require.Equal(t, "shipping_pending", tx["status"])
	require.Equal(t, "https://proofs.example.test/uploads/payments/r1.png", tx["payment_proof_url"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/shipment", map[string]any{"actor_id": "seller1", "proof_ref": "shipping/t1.pdf"})
	require.Equal(t, http.StatusOK, w.Code)
	tx = data(t, resp)
	require.Equal(t, "shipping_pending", tx["status"])
	require.Equal(t, "https://proofs.example.test/uploads/shipping/t1.pdf", tx["shipping_proof_url"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/delivery", map[string]any{"actor_id": "buyer1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "delivered", data(t, resp)["status"])

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/review", map[string]any{"actor_id": "buyer1", "rating": 3})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/review", map[string]any{"actor_id": "buyer1", "rating": 1, "comment": "as described"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "completed", data(t, resp)["status"])

	// a repeated review is idempotent and does not count twice
	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/review", map[string]any{"actor_id": "buyer1", "rating": 1, "comment": "as described"})
	require.Equal(t, http.StatusOK, w.Code)

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, txURL+"/cancel", map[string]any{"actor_id": "buyer1", "reason": "too late"})
	require.Equal(t, http.StatusConflict, w.Code)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/users/seller1/reputation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, data(t, resp)["score"])
}

func TestBuyNowClosesImmediately(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "bn", "100", "10", start.Add(time.Hour), map[string]any{"buy_now_price": "500"})

	resp, code := env.Bid(t, "bn", "buyer1", "650")
	require.Equal(t, http.StatusCreated, code)
	outcome := data(t, resp)
	require.Equal(t, true, outcome["closed"])
	bid := outcome["bid"].(map[string]any)
	require.Equal(t, "500", bid["amount"])
	require.Equal(t, true, bid["buy_now"])

	resp, code = env.Bid(t, "bn", "buyer2", "700")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "auction_closed", resp["reason"])

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/bn", nil)
	require.Equal(t, http.StatusOK, w.Code)
	auction := data(t, resp)
	require.Equal(t, "ended", auction["status"])
	require.Equal(t, "buyer1", auction["winner_id"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/transactions/"+auction["transaction_id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "500", data(t, resp)["amount"])

	// nothing left for the sweeper
	require.Equal(t, 0, env.Sweep().Closed)
}

func TestAntiSnipeExtension(t *testing.T) {
	env := SetupTestEnv(t)
	end := start.Add(10 * time.Minute)
	env.CreateAuction(t, "snipe", "100", "10", end, map[string]any{"auto_extend": true})

	env.clock.Advance(8 * time.Minute)
	resp, code := env.Bid(t, "snipe", "user1", "100")
	require.Equal(t, http.StatusCreated, code)
	outcome := data(t, resp)
	require.Equal(t, true, outcome["extended"])

	auction := outcome["auction"].(map[string]any)
	newEnd, err := time.Parse(time.RFC3339, auction["end_time"].(string))
	require.NoError(t, err)
	require.True(t, newEnd.Equal(start.Add(13*time.Minute)), "end time %s", newEnd)

	// the original end time has passed but the auction is still open
	env.clock.Advance(3 * time.Minute)
	require.Equal(t, 0, env.Sweep().Closed)
	_, code = env.Bid(t, "snipe", "user2", "110")
	require.Equal(t, http.StatusCreated, code)

	env.clock.Advance(time.Hour)
	require.Equal(t, 1, env.Sweep().Closed)
}

func TestUnsoldAndCancelledAuctions(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "quiet", "100", "10", start.Add(time.Minute), nil)
	env.CreateAuction(t, "pulled", "100", "10", start.Add(time.Hour), nil)

	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/pulled/cancel", map[string]any{"seller_id": "someone"})
	require.Equal(t, http.StatusForbidden, w.Code)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/pulled/cancel", map[string]any{"seller_id": "seller1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cancelled", data(t, resp)["outcome"])

	resp, code := env.Bid(t, "pulled", "user1", "200")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "auction_closed", resp["reason"])

	env.clock.Advance(time.Minute)
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/quiet/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	closed := data(t, resp)
	require.Equal(t, "unsold", closed["outcome"])
	require.Empty(t, closed["transaction_id"])
	require.Len(t, env.events.OfKind(events.KindAuctionClosed), 2)
}

func TestCreateAuctionValidation(t *testing.T) {
	env := SetupTestEnv(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"Zero_Start_Price", map[string]any{"seller_id": "s", "start_price": 0, "step_price": 1, "end_time": start.Add(time.Hour)}, http.StatusBadRequest},
		{"Negative_Step", map[string]any{"seller_id": "s", "start_price": 1, "step_price": -1, "end_time": start.Add(time.Hour)}, http.StatusBadRequest},
		{"Ends_In_Past", map[string]any{"seller_id": "s", "start_price": 1, "step_price": 1, "end_time": start.Add(-time.Hour)}, http.StatusBadRequest},
		{"Buy_Now_Below_Start", map[string]any{"seller_id": "s", "start_price": 10, "step_price": 1, "buy_now_price": 5, "end_time": start.Add(time.Hour)}, http.StatusBadRequest},
		{"Missing_Seller", map[string]any{"start_price": 1, "step_price": 1, "end_time": start.Add(time.Hour)}, http.StatusBadRequest},
		{"Generated_ID", map[string]any{"seller_id": "s", "start_price": "0.50", "step_price": "0.05", "end_time": start.Add(time.Hour)}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, "response: %v", resp)
			if tt.wantStatus == http.StatusCreated {
				require.NotEmpty(t, data(t, resp)["auction_id"])
			}
		})
	}

	env.CreateAuction(t, "dup", "1", "1", start.Add(time.Hour), nil)
	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions", map[string]any{
		"auction_id": "dup", "seller_id": "s", "start_price": 1, "step_price": 1, "end_time": start.Add(time.Hour),
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

// Concurrent bidders through the router: each accepted bid beats the previous one by the step
func TestConcurrentBidsOverHTTP(t *testing.T) {
	env := SetupTestEnv(t)
	env.CreateAuction(t, "hot", "10", "1", start.Add(time.Hour), nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		body, err := json.Marshal(map[string]any{
			"auction_id": "hot",
			"bidder_id":  fmt.Sprintf("user%d", i),
			"amount":     10 + i,
		})
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			ExecuteRequest(env.router, http.MethodPost, "/bids", body)
		}()
	}
	wg.Wait()

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/hot/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	require.NotEmpty(t, bids)

	var prev float64
	for i, raw := range bids {
		bid := raw.(map[string]any)
		require.EqualValues(t, i+1, bid["seq"])
		var amount float64
		_, err := fmt.Sscan(bid["amount"].(string), &amount)
		require.NoError(t, err)
		if i > 0 {
			require.GreaterOrEqual(t, amount, prev+1)
		}
		prev = amount
	}

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/hot/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	winning := data(t, resp)
	last := bids[len(bids)-1].(map[string]any)
	require.Equal(t, last["bid_id"], winning["bid_id"])
}
