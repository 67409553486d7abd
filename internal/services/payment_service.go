/**
 * @description
 * Payment handoff for won auctions: exposes the stable settlement record,
 * winner-only payment options, and a simulated card payment that issues a
 * confirmation number. Card details are validated but never persisted.
 *
 * @dependencies
 * - backend store, auction (taxonomy), models
 * - github.com/google/uuid: confirmation numbers
 */

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/auction"
	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService consumes finalized winner/price state to settle auctions.
type PaymentService struct {
	Items    store.Store
	Payments store.PaymentStore
}

// NewPaymentService creates the payment handoff service.
func NewPaymentService(items store.Store, payments store.PaymentStore) *PaymentService {
	return &PaymentService{Items: items, Payments: payments}
}

// GetSettlement returns the stable winner/amount record of an ended auction.
// It rejects with NotSettleable while the item is active or ended with no
// bidder, and never changes once the item has ended.
func (s *PaymentService) GetSettlement(ctx context.Context, itemID uuid.UUID) (*models.Settlement, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.IsActive {
		return nil, auction.New(auction.CodeNotSettleable, "auction is still active")
	}
	if item.CurrentBidderID == nil {
		return nil, auction.New(auction.CodeNotSettleable, "auction ended with no bids")
	}

	return &models.Settlement{
		ItemID:                item.ID,
		WinnerID:              *item.CurrentBidderID,
		WinningAmount:         item.CurrentPrice,
		StandardShippingCost:  item.StandardShippingCost,
		ExpeditedShippingCost: item.ExpeditedShippingCost,
	}, nil
}

// PaymentOptions shows the winner their shipping choices and totals.
type PaymentOptions struct {
	ItemID                uuid.UUID       `json:"item_id"`
	ItemName              string          `json:"item_name"`
	WinningBid            decimal.Decimal `json:"winning_bid"`
	WinnerID              string          `json:"winner_id"`
	StandardShippingCost  decimal.Decimal `json:"standard_shipping_cost"`
	ExpeditedShippingCost decimal.Decimal `json:"expedited_shipping_cost"`
	TotalIfStandard       decimal.Decimal `json:"total_if_standard"`
	TotalIfExpedited      decimal.Decimal `json:"total_if_expedited"`
}

// GetPaymentOptions returns payment details for a won item. Only the winner
// may see them, and only before the item has been paid for.
func (s *PaymentService) GetPaymentOptions(ctx context.Context, itemID uuid.UUID, callerID string) (*PaymentOptions, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPayable(ctx, item, callerID); err != nil {
		return nil, err
	}

	standardTotal := item.CurrentPrice.Add(item.StandardShippingCost)
	return &PaymentOptions{
		ItemID:                item.ID,
		ItemName:              item.Name,
		WinningBid:            item.CurrentPrice,
		WinnerID:              *item.CurrentBidderID,
		StandardShippingCost:  item.StandardShippingCost,
		ExpeditedShippingCost: item.ExpeditedShippingCost,
		TotalIfStandard:       standardTotal,
		TotalIfExpedited:      standardTotal.Add(item.ExpeditedShippingCost),
	}, nil
}

// ProcessPaymentParams carries the winner's payment submission. Card fields
// are used for validation only and are never stored.
type ProcessPaymentParams struct {
	ExpeditedShipping bool
	Method            string
	CardNumber        string
	NameOnCard        string
	ExpirationDate    string
	SecurityCode      string
}

// Receipt is returned to the winner after a successful payment.
type Receipt struct {
	PaymentID          uuid.UUID       `json:"payment_id"`
	ItemName           string          `json:"item_name"`
	WinningBid         decimal.Decimal `json:"winning_bid"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Expedited          bool            `json:"expedited"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	PaidAt             time.Time       `json:"paid_at"`
	ConfirmationNumber string          `json:"confirmation_number"`
	Method             string          `json:"method"`
	CardEndingIn       string          `json:"card_ending_in"`
}

// ProcessPayment settles a won item with a simulated card charge.
func (s *PaymentService) ProcessPayment(ctx context.Context, itemID uuid.UUID, callerID string, params ProcessPaymentParams, now time.Time) (*Receipt, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPayable(ctx, item, callerID); err != nil {
		return nil, err
	}
	if err := validateCard(params); err != nil {
		return nil, err
	}

	method := params.Method
	if method == "" {
		method = "Credit Card"
	}

	shippingCost := item.StandardShippingCost
	if params.ExpeditedShipping {
		shippingCost = shippingCost.Add(item.ExpeditedShippingCost)
	}
	total := item.CurrentPrice.Add(shippingCost)

	paidAt := now
	payment := &models.Payment{
		ID:                        uuid.New(),
		ItemID:                    item.ID,
		BuyerID:                   callerID,
		WinningBidAmount:          item.CurrentPrice,
		StandardShippingCost:      item.StandardShippingCost,
		ExpeditedShippingSelected: params.ExpeditedShipping,
		ExpeditedShippingCost:     expeditedPortion(item, params.ExpeditedShipping),
		TotalAmount:               total,
		Status:                    models.PaymentStatusCompleted,
		Method:                    method,
		ConfirmationNumber:        newConfirmationNumber(),
		PaidAt:                    &paidAt,
	}

	if err := s.Payments.CreatePayment(ctx, payment); err != nil {
		// checkPayable ran outside the write; a racing payment that committed
		// in between trips the store's uniqueness guard instead.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, auction.New(auction.CodeAlreadyPaid, "this item has already been paid for")
		}
		return nil, auction.StorageUnavailable(err)
	}

	return &Receipt{
		PaymentID:          payment.ID,
		ItemName:           item.Name,
		WinningBid:         item.CurrentPrice,
		ShippingCost:       shippingCost,
		Expedited:          params.ExpeditedShipping,
		TotalPaid:          total,
		PaidAt:             paidAt,
		ConfirmationNumber: payment.ConfirmationNumber,
		Method:             method,
		CardEndingIn:       lastFourDigits(params.CardNumber),
	}, nil
}

// WonItem summarizes a won auction and its payment state.
type WonItem struct {
	ItemID             uuid.UUID       `json:"item_id"`
	ItemName           string          `json:"item_name"`
	WinningBid         decimal.Decimal `json:"winning_bid"`
	WonAt              time.Time       `json:"won_at"`
	Paid               bool            `json:"paid"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	TotalPaid          decimal.Decimal `json:"total_paid,omitempty"`
	ConfirmationNumber string          `json:"confirmation_number,omitempty"`
}

// ListWonItems returns the caller's won items split into unpaid and paid.
func (s *PaymentService) ListWonItems(ctx context.Context, callerID string) (unpaid, paid []WonItem, err error) {
	items, err := s.Items.ListWonByBidder(ctx, callerID)
	if err != nil {
		return nil, nil, auction.StorageUnavailable(err)
	}

	unpaid = make([]WonItem, 0)
	paid = make([]WonItem, 0)
	for i := range items {
		item := &items[i]
		won := WonItem{
			ItemID:     item.ID,
			ItemName:   item.Name,
			WinningBid: item.CurrentPrice,
			WonAt:      item.EndTime,
		}

		payment, err := s.Payments.GetCompletedPayment(ctx, item.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				unpaid = append(unpaid, won)
				continue
			}
			return nil, nil, auction.StorageUnavailable(err)
		}

		won.Paid = true
		won.PaidAt = payment.PaidAt
		won.TotalPaid = payment.TotalAmount
		won.ConfirmationNumber = payment.ConfirmationNumber
		paid = append(paid, won)
	}
	return unpaid, paid, nil
}

func (s *PaymentService) getItem(ctx context.Context, itemID uuid.UUID) (*models.AuctionItem, error) {
	item, err := s.Items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
		}
		return nil, auction.StorageUnavailable(err)
	}
	return item, nil
}

// checkPayable enforces ended + won + caller-is-winner + not-yet-paid.
func (s *PaymentService) checkPayable(ctx context.Context, item *models.AuctionItem, callerID string) error {
	if item.IsActive {
		return auction.New(auction.CodeNotSettleable, "auction is still active")
	}
	if item.CurrentBidderID == nil {
		return auction.New(auction.CodeNotSettleable, "auction ended with no bids")
	}
	if *item.CurrentBidderID != callerID {
		return auction.New(auction.CodeForbidden, "only the winner can pay for this item")
	}

	if _, err := s.Payments.GetCompletedPayment(ctx, item.ID); err == nil {
		return auction.New(auction.CodeAlreadyPaid, "this item has already been paid for")
	} else if !errors.Is(err, store.ErrNotFound) {
		return auction.StorageUnavailable(err)
	}
	return nil
}

func validateCard(params ProcessPaymentParams) error {
	digits := strings.ReplaceAll(params.CardNumber, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return auction.New(auction.CodeInvalidConfig, "card number must be 12-19 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return auction.New(auction.CodeInvalidConfig, "card number must contain only digits")
		}
	}
	if params.NameOnCard == "" || params.ExpirationDate == "" || params.SecurityCode == "" {
		return auction.New(auction.CodeInvalidConfig, "cardholder name, expiration date, and security code are required")
	}
	return nil
}

func expeditedPortion(item *models.AuctionItem, selected bool) decimal.Decimal {
	if selected {
		return item.ExpeditedShippingCost
	}
	return decimal.Zero
}

// lastFourDigits is kept for receipts; the full PAN is never stored or logged.
func lastFourDigits(cardNumber string) string {
	digits := strings.ReplaceAll(cardNumber, " ", "")
	return digits[len(digits)-4:]
}

func newConfirmationNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "PAY-" + hex[:8]
}
