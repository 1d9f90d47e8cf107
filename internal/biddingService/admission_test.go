package bidding

import (
	"testing"
	"time"

	"auction-escrow/internal/models"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

var opened = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func listing() models.Auction {
	return models.Auction{
		AuctionID:    "a1",
		SellerID:     "seller1",
		StartPrice:   dec(100),
		CurrentPrice: dec(100),
		StepPrice:    dec(10),
		StartTime:    opened,
		EndTime:      opened.Add(time.Hour),
		Status:       models.AuctionActive,
		Version:      1,
	}
}

func TestAdmit_FirstBidMayMatchStartPrice(t *testing.T) {
	res := admit(listing(), "u1", dec(100), opened.Add(time.Minute), DefaultPolicy())

	check.True(t, res.accepted)
	check.Equal(t, 1, res.bid.Seq)
	check.Equal(t, "u1", res.auction.HighestBidderID)
	check.Equal(t, 1, res.auction.BidCount)
	check.Equal(t, int64(2), res.auction.Version)
	check.True(t, res.auction.CurrentPrice.Equal(dec(100)))
	check.False(t, res.extended)
	check.False(t, res.closing)
}

func TestAdmit_StepRule(t *testing.T) {
	a := listing()
	a.BidCount = 1
	a.HighestBidderID = "u1"

	low := admit(a, "u2", dec(105), opened.Add(time.Minute), DefaultPolicy())
	check.False(t, low.accepted)
	check.Equal(t, models.RejectedBidTooLow, low.rejection)
	check.True(t, low.minimumBid.Equal(dec(110)))
	// rejected bids leave the auction untouched
	check.Equal(t, int64(1), low.auction.Version)
	check.Equal(t, "u1", low.auction.HighestBidderID)

	exact := admit(a, "u2", dec(110), opened.Add(time.Minute), DefaultPolicy())
	check.True(t, exact.accepted)
	check.True(t, exact.auction.CurrentPrice.Equal(dec(110)))
}

func TestAdmit_FractionalAmounts(t *testing.T) {
	a := listing()
	a.StepPrice = decimal.RequireFromString("0.10")
	a.CurrentPrice = decimal.RequireFromString("100.20")
	a.BidCount = 2

	res := admit(a, "u2", decimal.RequireFromString("100.29"), opened, DefaultPolicy())
	check.Equal(t, models.RejectedBidTooLow, res.rejection)
	check.Equal(t, "100.3", res.minimumBid.String())

	res = admit(a, "u2", decimal.RequireFromString("100.30"), opened, DefaultPolicy())
	check.True(t, res.accepted)
}

func TestAdmit_ClosedBeforeTooLow(t *testing.T) {
	a := listing()

	atEnd := admit(a, "u1", dec(1), a.EndTime, DefaultPolicy())
	check.Equal(t, models.RejectedAuctionClosed, atEnd.rejection)

	a.Status = models.AuctionCancelled
	cancelled := admit(a, "u1", dec(500), opened, DefaultPolicy())
	check.Equal(t, models.RejectedAuctionClosed, cancelled.rejection)
}

func TestAdmit_AntiSnipe(t *testing.T) {
	a := listing()
	a.AutoExtend = true
	p := Policy{ExtensionWindow: 5 * time.Minute}

	early := admit(a, "u1", dec(100), a.EndTime.Add(-10*time.Minute), p)
	check.False(t, early.extended)
	check.Equal(t, a.EndTime, early.auction.EndTime)

	late := a.EndTime.Add(-2 * time.Minute)
	res := admit(a, "u1", dec(100), late, p)
	check.True(t, res.extended)
	check.Equal(t, late.Add(5*time.Minute), res.auction.EndTime)
	check.Equal(t, 1, res.auction.ExtensionCount)

	a.AutoExtend = false
	off := admit(a, "u1", dec(100), late, p)
	check.False(t, off.extended)
}

func TestAdmit_ExtensionCap(t *testing.T) {
	a := listing()
	a.AutoExtend = true
	p := Policy{ExtensionWindow: 5 * time.Minute, MaxExtensions: 2}

	now := a.EndTime.Add(-time.Minute)
	for i, amount := range []int64{100, 110, 120} {
		res := admit(a, "u1", dec(amount), now, p)
		check.True(t, res.accepted)
		check.Equal(t, i < 2, res.extended)
		a = res.auction
		now = a.EndTime.Add(-time.Minute)
	}
	check.Equal(t, 2, a.ExtensionCount)
}

func TestAdmit_BuyNow(t *testing.T) {
	a := listing()
	buyNow := dec(300)
	a.BuyNowPrice = &buyNow

	res := admit(a, "u1", dec(450), opened.Add(time.Minute), DefaultPolicy())
	check.True(t, res.accepted)
	check.True(t, res.closing)
	check.True(t, res.bid.BuyNow)
	check.True(t, res.bid.Amount.Equal(dec(300)))
	check.True(t, res.auction.CurrentPrice.Equal(dec(300)))
	check.Equal(t, models.AuctionEnded, res.auction.Status)
	check.Equal(t, "u1", res.auction.WinnerID)
	check.True(t, res.auction.FinalPrice.Equal(dec(300)))
	check.NotEqual(t, "", res.auction.TransactionID)
	check.NotNil(t, res.auction.ClosedAt)

	// below the buy-now price it is an ordinary bid
	normal := admit(a, "u1", dec(200), opened.Add(time.Minute), DefaultPolicy())
	check.False(t, normal.closing)
	check.Equal(t, models.AuctionActive, normal.auction.Status)
}

func TestAdmit_StepCheckedBeforeBuyNow(t *testing.T) {
	a := listing()
	buyNow := dec(105)
	a.BuyNowPrice = &buyNow
	a.BidCount = 1

	low := admit(a, "u2", dec(106), opened, DefaultPolicy())
	check.Equal(t, models.RejectedBidTooLow, low.rejection)

	res := admit(a, "u2", dec(110), opened, DefaultPolicy())
	check.True(t, res.closing)
	check.True(t, res.auction.CurrentPrice.Equal(dec(105)))
}

func TestAdmit_BuyNowDoesNotExtend(t *testing.T) {
	a := listing()
	a.AutoExtend = true
	buyNow := dec(300)
	a.BuyNowPrice = &buyNow

	res := admit(a, "u1", dec(300), a.EndTime.Add(-time.Minute), DefaultPolicy())
	check.True(t, res.closing)
	check.False(t, res.extended)
	check.Equal(t, 0, res.auction.ExtensionCount)
}
