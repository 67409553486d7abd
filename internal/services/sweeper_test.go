package services

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/store"
)

func TestSweepFinalizesExpiredItems(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	bids := NewBidService(st, nil)
	sweeper := NewSweeperService(st)

	noBids := seedForwardItem(t, st, "alice", "100.00", listedAt, listedAt.Add(time.Hour))
	withBid := seedForwardItem(t, st, "alice", "50.00", listedAt, listedAt.Add(time.Hour))
	running := seedForwardItem(t, st, "alice", "75.00", listedAt, listedAt.Add(48*time.Hour))

	_, err := bids.PlaceBid(ctx, withBid.ID, "bob", dec("52.50"), listedAt.Add(time.Minute))
	check.Nil(t, err)

	now := listedAt.Add(2 * time.Hour)
	flipped, err := sweeper.Sweep(ctx, now)
	check.Nil(t, err)
	check.Equal(t, 2, flipped)

	// Terminal state only; price, winner, and history are untouched.
	stored, err := st.Get(ctx, noBids.ID)
	check.Nil(t, err)
	check.False(t, stored.IsActive)
	check.Equal(t, models.ItemStatusEndedNoBids, models.StatusOf(stored))
	check.Equal(t, "100.00", stored.CurrentPrice.StringFixed(2))

	stored, err = st.Get(ctx, withBid.ID)
	check.Nil(t, err)
	check.False(t, stored.IsActive)
	check.Equal(t, models.ItemStatusEndedWon, models.StatusOf(stored))
	check.Equal(t, "bob", *stored.CurrentBidderID)
	check.Equal(t, "52.50", stored.CurrentPrice.StringFixed(2))
	check.Equal(t, 1, len(stored.Bids))

	stored, err = st.Get(ctx, running.ID)
	check.Nil(t, err)
	check.True(t, stored.IsActive)
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	sweeper := NewSweeperService(st)

	seedForwardItem(t, st, "alice", "100.00", listedAt, listedAt.Add(time.Hour))
	now := listedAt.Add(2 * time.Hour)

	flipped, err := sweeper.Sweep(ctx, now)
	check.Nil(t, err)
	check.Equal(t, 1, flipped)

	flipped, err = sweeper.Sweep(ctx, now.Add(time.Minute))
	check.Nil(t, err)
	check.Equal(t, 0, flipped)
}

// A Dutch item that reaches its end time without a bid ends unsold; the
// sweeper never applies decay or picks a winner.
func TestSweepDutchExpiresUnsold(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	sweeper := NewSweeperService(st)

	item := seedDutchItem(t, st, "alice", "100.00", "10", 5, listedAt, listedAt.Add(time.Hour))

	flipped, err := sweeper.Sweep(ctx, listedAt.Add(2*time.Hour))
	check.Nil(t, err)
	check.Equal(t, 1, flipped)

	stored, err := st.Get(ctx, item.ID)
	check.Nil(t, err)
	check.False(t, stored.IsActive)
	check.Nil(t, stored.CurrentBidderID)
	check.Equal(t, models.ItemStatusEndedNoBids, models.StatusOf(stored))
	check.Equal(t, "100.00", stored.CurrentPrice.StringFixed(2))
}
