package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-escrow/internal/biddingService"
	"auction-escrow/internal/clock"
	"auction-escrow/internal/escrow"
	"auction-escrow/internal/events"
	"auction-escrow/internal/proofs"
	"auction-escrow/internal/repository"
	"auction-escrow/internal/reputation"
	"auction-escrow/internal/scheduler"
	"auction-escrow/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// testEnv is the full server wired on an in-memory repository and a manual clock
type testEnv struct {
	router   *gin.Engine
	clock    *clock.Manual
	repo     *repository.MemoryRepo
	events   *events.Recorder
	bidding  *bidding.BiddingService
	sweeper  *scheduler.Sweeper
	escrow   *escrow.Machine
	ledger   *reputation.RepoLedger
	resolver *proofs.URLResolver
}

// SetupTestEnv initializes the router with in-memory repository for integration testing.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		clock:  clock.NewManual(start),
		repo:   repository.NewMemoryRepo(),
		events: events.NewRecorder(),
	}

	var err error
	env.resolver, err = proofs.NewURLResolver("https://proofs.example.test/uploads")
	require.NoError(t, err)

	env.ledger = reputation.NewRepoLedger(env.repo)
	env.escrow = escrow.NewMachine(env.repo, env.clock, env.resolver, env.ledger, env.events)
	env.bidding = bidding.NewBiddingService(env.repo, env.escrow, env.clock, env.events, bidding.DefaultPolicy())
	env.sweeper = scheduler.NewSweeper(env.bidding, env.clock, scheduler.DefaultConfig())
	env.router = server.SetupRouter(server.Services{
		Bidding:    env.bidding,
		Escrow:     env.escrow,
		Reputation: env.ledger,
	})
	return env
}

// Sweep runs one pass of the close sweeper
func (e *testEnv) Sweep() scheduler.Report {
	return e.sweeper.Sweep(context.Background())
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(router, method, url, reqBody)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data returns the envelope payload as an object
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response data should be an object: %v", resp)
	return d
}

// CreateAuction posts an auction ending at end and fails the test on error
func (e *testEnv) CreateAuction(t *testing.T, id, startPrice, stepPrice string, end time.Time, extra map[string]any) {
	t.Helper()
	req := map[string]any{
		"auction_id":  id,
		"seller_id":   "seller1",
		"title":       "item " + id,
		"start_price": startPrice,
		"step_price":  stepPrice,
		"end_time":    end.Format(time.RFC3339),
	}
	for k, v := range extra {
		req[k] = v
	}
	resp, w := ExecuteRequestAndParse(t, e.router, "POST", "/auctions", req)
	require.Equal(t, 201, w.Code, "create auction: %v", resp)
}

// Bid posts a bid and returns the parsed envelope
func (e *testEnv) Bid(t *testing.T, auctionID, bidderID, amount string) (map[string]any, int) {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, e.router, "POST", "/bids", map[string]any{
		"auction_id": auctionID,
		"bidder_id":  bidderID,
		"amount":     amount,
	})
	return resp, w.Code
}
