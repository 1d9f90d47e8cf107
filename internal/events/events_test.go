package events

import (
	"context"
	"testing"
	"time"

	"auction-escrow/internal/models"

	"github.com/stretchr/testify/require"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	t.Parallel()

	first, second := NewRecorder(), NewRecorder()
	m := Multi{first, Nop{}, second}

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Notify(context.Background(), BidAccepted{At: at})
	m.Notify(context.Background(), AuctionClosed{At: at, Outcome: models.OutcomeUnsold})

	for _, r := range []*Recorder{first, second} {
		evs := r.Events()
		require.Len(t, evs, 2)
		require.Equal(t, KindBidAccepted, evs[0].Kind())
		require.Equal(t, KindAuctionClosed, evs[1].Kind())
		require.Equal(t, at, evs[1].OccurredAt())
	}
}

func TestRecorder_OfKind(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Notify(context.Background(), BidRejected{Reason: models.RejectedBidTooLow})
	r.Notify(context.Background(), TransactionTransitioned{Action: "cancel"})
	r.Notify(context.Background(), BidRejected{Reason: models.RejectedAuctionClosed})

	rejected := r.OfKind(KindBidRejected)
	require.Len(t, rejected, 2)
	require.Equal(t, models.RejectedAuctionClosed, rejected[1].(BidRejected).Reason)
	require.Len(t, r.OfKind(KindTransactionTransitioned), 1)
	require.Empty(t, r.OfKind(KindBidAccepted))
}
