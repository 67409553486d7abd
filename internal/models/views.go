/**
 * @description
 * Public read projections of auction state returned by the API.
 * Built from a consistent (item, bid history) snapshot; never written back.
 *
 * @dependencies
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is the derived lifecycle state of an item. It is never stored;
// it follows from is_active and current_bidder_id.
type ItemStatus string

const (
	ItemStatusActive      ItemStatus = "ACTIVE"
	ItemStatusEndedWon    ItemStatus = "ENDED_WON"
	ItemStatusEndedNoBids ItemStatus = "ENDED_NO_BIDS"
)

// BidView is one public entry of an item's bid history.
type BidView struct {
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
}

// ItemView is the public state of an auction item.
type ItemView struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Kind            AuctionKind     `json:"kind"`
	SellerID        string          `json:"seller_id"`
	StartingPrice   decimal.Decimal `json:"starting_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	CurrentBidderID *string         `json:"current_bidder_id"`
	EndTime         time.Time       `json:"end_time"`
	IsActive        bool            `json:"is_active"`
	Status          ItemStatus      `json:"status"`

	StandardShippingCost  decimal.Decimal `json:"standard_shipping_cost"`
	ExpeditedShippingCost decimal.Decimal `json:"expedited_shipping_cost"`

	BidCount int       `json:"bid_count"`
	Bids     []BidView `json:"bids"`

	CreatedAt time.Time `json:"created_at"`
}

// viewHistoryTail caps the bid history returned on item views.
const viewHistoryTail = 10

// StatusOf derives the lifecycle state of an item.
func StatusOf(item *AuctionItem) ItemStatus {
	if item.IsActive {
		return ItemStatusActive
	}
	if item.CurrentBidderID != nil {
		return ItemStatusEndedWon
	}
	return ItemStatusEndedNoBids
}

// NewItemView builds the public projection from an item snapshot.
// item.Bids must already be loaded in chronological order.
func NewItemView(item *AuctionItem) *ItemView {
	tail := item.Bids
	if len(tail) > viewHistoryTail {
		tail = tail[len(tail)-viewHistoryTail:]
	}
	bids := make([]BidView, 0, len(tail))
	for _, b := range tail {
		bids = append(bids, BidView{
			BidderID: b.BidderID,
			Amount:   b.Amount,
			PlacedAt: b.PlacedAt,
		})
	}

	return &ItemView{
		ID:                    item.ID,
		Name:                  item.Name,
		Description:           item.Description,
		Kind:                  item.Kind,
		SellerID:              item.SellerID,
		StartingPrice:         item.StartingPrice,
		CurrentPrice:          item.CurrentPrice,
		CurrentBidderID:       item.CurrentBidderID,
		EndTime:               item.EndTime,
		IsActive:              item.IsActive,
		Status:                StatusOf(item),
		StandardShippingCost:  item.StandardShippingCost,
		ExpeditedShippingCost: item.ExpeditedShippingCost,
		BidCount:              len(item.Bids),
		Bids:                  bids,
		CreatedAt:             item.CreatedAt,
	}
}

// Settlement is the stable winner/amount record of an ended auction,
// consumed by payment processing. It never changes once the item has ended.
type Settlement struct {
	ItemID                uuid.UUID       `json:"item_id"`
	WinnerID              string          `json:"winner_id"`
	WinningAmount         decimal.Decimal `json:"winning_amount"`
	StandardShippingCost  decimal.Decimal `json:"standard_shipping_cost"`
	ExpeditedShippingCost decimal.Decimal `json:"expedited_shipping_cost"`
}
