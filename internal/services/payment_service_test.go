package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/donneypr/eecs4413-auction/internal/auction"
	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/store"
)

func seedWonItem(t *testing.T, st store.Store, seller, winner, price string, endedAt time.Time) *models.AuctionItem {
	t.Helper()
	w := winner
	item := &models.AuctionItem{
		ID:                    uuid.New(),
		SellerID:              seller,
		Name:                  "Vintage Amplifier",
		Kind:                  models.AuctionKindForward,
		StartingPrice:         decimal.RequireFromString("100.00"),
		CurrentPrice:          decimal.RequireFromString(price),
		CurrentBidderID:       &w,
		EndTime:               endedAt,
		IsActive:              false,
		StandardShippingCost:  decimal.RequireFromString("10.00"),
		ExpeditedShippingCost: decimal.RequireFromString("25.00"),
		CreatedAt:             endedAt.Add(-24 * time.Hour),
	}
	if err := st.Create(context.Background(), item); err != nil {
		t.Fatalf("failed to seed won item: %v", err)
	}
	return item
}

func validCard() ProcessPaymentParams {
	return ProcessPaymentParams{
		Method:         "Credit Card",
		CardNumber:     "4111 1111 1111 1111",
		NameOnCard:     "Bob Winner",
		ExpirationDate: "12/28",
		SecurityCode:   "123",
	}
}

func TestGetSettlement(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)

	active := seedForwardItem(t, st, "alice", "100.00", listedAt, listedAt.Add(48*time.Hour))
	_, err := svc.GetSettlement(ctx, active.ID)
	check.True(t, auction.IsCode(err, auction.CodeNotSettleable))

	unsold := seedForwardItem(t, st, "alice", "100.00", listedAt, listedAt.Add(time.Hour))
	snapshot, err := st.Get(ctx, unsold.ID)
	check.Nil(t, err)
	snapshot.IsActive = false
	check.Nil(t, st.Apply(ctx, snapshot, nil))
	_, err = svc.GetSettlement(ctx, unsold.ID)
	check.True(t, auction.IsCode(err, auction.CodeNotSettleable))

	won := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))
	settlement, err := svc.GetSettlement(ctx, won.ID)
	check.Nil(t, err)
	check.Equal(t, won.ID, settlement.ItemID)
	check.Equal(t, "bob", settlement.WinnerID)
	check.Equal(t, "500.00", settlement.WinningAmount.StringFixed(2))
	check.Equal(t, "10.00", settlement.StandardShippingCost.StringFixed(2))
	check.Equal(t, "25.00", settlement.ExpeditedShippingCost.StringFixed(2))

	// The settlement record never changes once the item has ended.
	again, err := svc.GetSettlement(ctx, won.ID)
	check.Nil(t, err)
	check.Equal(t, settlement.WinnerID, again.WinnerID)
	check.True(t, settlement.WinningAmount.Equal(again.WinningAmount))

	_, err = svc.GetSettlement(ctx, uuid.New())
	check.True(t, auction.IsCode(err, auction.CodeNotFound))
}

func TestGetPaymentOptionsWinnerOnly(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))

	_, err := svc.GetPaymentOptions(ctx, item.ID, "mallory")
	check.True(t, auction.IsCode(err, auction.CodeForbidden))

	options, err := svc.GetPaymentOptions(ctx, item.ID, "bob")
	check.Nil(t, err)
	check.Equal(t, "510.00", options.TotalIfStandard.StringFixed(2))
	check.Equal(t, "535.00", options.TotalIfExpedited.StringFixed(2))
	check.Equal(t, "bob", options.WinnerID)
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))
	paidAt := listedAt.Add(2 * time.Hour)

	receipt, err := svc.ProcessPayment(ctx, item.ID, "bob", validCard(), paidAt)
	check.Nil(t, err)
	check.Equal(t, "500.00", receipt.WinningBid.StringFixed(2))
	check.Equal(t, "10.00", receipt.ShippingCost.StringFixed(2))
	check.Equal(t, "510.00", receipt.TotalPaid.StringFixed(2))
	check.False(t, receipt.Expedited)
	check.Equal(t, "1111", receipt.CardEndingIn)
	check.True(t, strings.HasPrefix(receipt.ConfirmationNumber, "PAY-"))
	check.Equal(t, len("PAY-")+8, len(receipt.ConfirmationNumber))
	check.True(t, receipt.PaidAt.Equal(paidAt))

	payment, err := st.GetCompletedPayment(ctx, item.ID)
	check.Nil(t, err)
	check.Equal(t, models.PaymentStatusCompleted, payment.Status)
	check.Equal(t, "510.00", payment.TotalAmount.StringFixed(2))
	check.Equal(t, receipt.ConfirmationNumber, payment.ConfirmationNumber)
}

func TestProcessPaymentExpeditedShipping(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))

	params := validCard()
	params.ExpeditedShipping = true
	receipt, err := svc.ProcessPayment(ctx, item.ID, "bob", params, listedAt.Add(2*time.Hour))
	check.Nil(t, err)
	check.True(t, receipt.Expedited)
	check.Equal(t, "35.00", receipt.ShippingCost.StringFixed(2))
	check.Equal(t, "535.00", receipt.TotalPaid.StringFixed(2))
}

func TestProcessPaymentRejections(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	paidAt := listedAt.Add(2 * time.Hour)

	active := seedForwardItem(t, st, "alice", "100.00", listedAt, listedAt.Add(48*time.Hour))
	_, err := svc.ProcessPayment(ctx, active.ID, "bob", validCard(), paidAt)
	check.True(t, auction.IsCode(err, auction.CodeNotSettleable))

	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))

	_, err = svc.ProcessPayment(ctx, item.ID, "mallory", validCard(), paidAt)
	check.True(t, auction.IsCode(err, auction.CodeForbidden))

	short := validCard()
	short.CardNumber = "1234"
	_, err = svc.ProcessPayment(ctx, item.ID, "bob", short, paidAt)
	check.True(t, auction.IsCode(err, auction.CodeInvalidConfig))

	letters := validCard()
	letters.CardNumber = "4111 1111 1111 111a"
	_, err = svc.ProcessPayment(ctx, item.ID, "bob", letters, paidAt)
	check.True(t, auction.IsCode(err, auction.CodeInvalidConfig))

	anonymous := validCard()
	anonymous.NameOnCard = ""
	_, err = svc.ProcessPayment(ctx, item.ID, "bob", anonymous, paidAt)
	check.True(t, auction.IsCode(err, auction.CodeInvalidConfig))

	// No failed attempt above left a payment behind.
	_, err = st.GetCompletedPayment(ctx, item.ID)
	check.True(t, errors.Is(err, store.ErrNotFound))
}

func TestProcessPaymentTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))

	_, err := svc.ProcessPayment(ctx, item.ID, "bob", validCard(), listedAt.Add(2*time.Hour))
	check.Nil(t, err)

	_, err = svc.ProcessPayment(ctx, item.ID, "bob", validCard(), listedAt.Add(3*time.Hour))
	check.True(t, auction.IsCode(err, auction.CodeAlreadyPaid))

	_, err = svc.GetPaymentOptions(ctx, item.ID, "bob")
	check.True(t, auction.IsCode(err, auction.CodeAlreadyPaid))
}

// Two payments racing past the already-paid check must still settle exactly
// once; the loser hits the store's uniqueness guard.
func TestProcessPaymentConcurrentDoubleCharge(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)
	item := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(time.Hour))
	paidAt := listedAt.Add(2 * time.Hour)

	const attempts = 2
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int
	var rejections []error

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessPayment(ctx, item.ID, "bob", validCard(), paidAt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rejections = append(rejections, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	check.Equal(t, 1, successes)
	check.Equal(t, attempts-1, len(rejections))
	for _, err := range rejections {
		check.True(t, auction.IsCode(err, auction.CodeAlreadyPaid))
	}

	payment, err := st.GetCompletedPayment(ctx, item.ID)
	check.Nil(t, err)
	check.Equal(t, "510.00", payment.TotalAmount.StringFixed(2))
}

func TestListWonItems(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, st)

	unpaidItem := seedWonItem(t, st, "alice", "bob", "500.00", listedAt.Add(2*time.Hour))
	paidItem := seedWonItem(t, st, "carol", "bob", "80.00", listedAt.Add(time.Hour))
	seedWonItem(t, st, "alice", "dave", "60.00", listedAt.Add(time.Hour))
	seedForwardItem(t, st, "alice", "10.00", listedAt, listedAt.Add(48*time.Hour))

	_, err := svc.ProcessPayment(ctx, paidItem.ID, "bob", validCard(), listedAt.Add(3*time.Hour))
	check.Nil(t, err)

	unpaid, paid, err := svc.ListWonItems(ctx, "bob")
	check.Nil(t, err)

	check.Equal(t, 1, len(unpaid))
	check.Equal(t, unpaidItem.ID, unpaid[0].ItemID)
	check.False(t, unpaid[0].Paid)

	check.Equal(t, 1, len(paid))
	check.Equal(t, paidItem.ID, paid[0].ItemID)
	check.True(t, paid[0].Paid)
	check.Equal(t, "90.00", paid[0].TotalPaid.StringFixed(2))
	check.NotNil(t, paid[0].PaidAt)
	check.True(t, strings.HasPrefix(paid[0].ConfirmationNumber, "PAY-"))
}
