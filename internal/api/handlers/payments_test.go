package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/store"
)

func seedWonItem(t *testing.T, st *store.MemoryStore, winner string) *models.AuctionItem {
	t.Helper()
	w := winner
	item := &models.AuctionItem{
		ID:                    uuid.New(),
		SellerID:              "alice",
		Name:                  "Vintage Amplifier",
		Kind:                  models.AuctionKindForward,
		StartingPrice:         decimal.RequireFromString("100.00"),
		CurrentPrice:          decimal.RequireFromString("500.00"),
		CurrentBidderID:       &w,
		EndTime:               time.Now().UTC().Add(-time.Hour),
		IsActive:              false,
		StandardShippingCost:  decimal.RequireFromString("10.00"),
		ExpeditedShippingCost: decimal.RequireFromString("25.00"),
	}
	if err := st.Create(context.Background(), item); err != nil {
		t.Fatalf("failed to seed won item: %v", err)
	}
	return item
}

func TestPaymentEndpoints(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)
	item := seedWonItem(t, st, "bob")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/payments/"+item.ID.String()+"/settlement", "bob", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for settlement, got %d", resp.StatusCode)
	}
	var settlement models.Settlement
	decodeJSON(t, resp, &settlement)
	if settlement.WinnerID != "bob" || settlement.WinningAmount.StringFixed(2) != "500.00" {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/payments/"+item.ID.String()+"/details", "mallory", nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-winner details, got %d", resp.StatusCode)
	}

	payBody := fiber.Map{
		"expedited_shipping": true,
		"card_number":        "4111 1111 1111 1111",
		"name_on_card":       "Bob Winner",
		"expiration_date":    "12/28",
		"security_code":      "123",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/payments/"+item.ID.String()+"/pay", "bob", payBody)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for payment, got %d", resp.StatusCode)
	}
	var payResp struct {
		Success bool `json:"success"`
		Receipt struct {
			TotalPaid          decimal.Decimal `json:"total_paid"`
			ConfirmationNumber string          `json:"confirmation_number"`
		} `json:"receipt"`
	}
	decodeJSON(t, resp, &payResp)
	if !payResp.Success {
		t.Fatal("expected payment success")
	}
	if payResp.Receipt.TotalPaid.StringFixed(2) != "535.00" {
		t.Fatalf("expected total 535.00, got %s", payResp.Receipt.TotalPaid.StringFixed(2))
	}
	if payResp.Receipt.ConfirmationNumber == "" {
		t.Fatal("expected a confirmation number")
	}

	resp = doJSON(t, app, http.MethodPost, "/api/v1/payments/"+item.ID.String()+"/pay", "bob", payBody)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for double payment, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/payments/my-won-items", "bob", nil)
	var won struct {
		Unpaid []struct{} `json:"unpaid_items"`
		Paid   []struct {
			ItemName string `json:"item_name"`
		} `json:"paid_items"`
	}
	decodeJSON(t, resp, &won)
	if len(won.Unpaid) != 0 || len(won.Paid) != 1 {
		t.Fatalf("expected 0 unpaid / 1 paid, got %d/%d", len(won.Unpaid), len(won.Paid))
	}
}

func TestSettlementOfActiveItem(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)

	item := &models.AuctionItem{
		ID:            uuid.New(),
		SellerID:      "alice",
		Name:          "Estate Painting",
		Kind:          models.AuctionKindForward,
		StartingPrice: decimal.RequireFromString("40.00"),
		CurrentPrice:  decimal.RequireFromString("40.00"),
		EndTime:       time.Now().UTC().Add(time.Hour),
		IsActive:      true,
	}
	if err := st.Create(context.Background(), item); err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/payments/"+item.ID.String()+"/settlement", "bob", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for active item settlement, got %d", resp.StatusCode)
	}
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &body)
	if body.Code != "NOT_SETTLEABLE" {
		t.Fatalf("expected NOT_SETTLEABLE, got %s", body.Code)
	}
}
