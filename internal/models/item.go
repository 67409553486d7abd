/**
 * @description
 * AuctionItem and Bid database models.
 * Maps to the 'auction_items' and 'bids' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AuctionKind defines the pricing direction of an auction
type AuctionKind string

const (
	AuctionKindForward AuctionKind = "FORWARD"
	AuctionKindDutch   AuctionKind = "DUTCH"
)

// AuctionItem represents a single listed item and its live price/winner state.
// All mutations to price, bidder, and active flag go through the store's
// conditional write keyed on Version.
type AuctionItem struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	SellerID    string      `gorm:"column:seller_id;type:varchar(64);not null;index:idx_items_seller" json:"seller_id"`
	Name        string      `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	Kind        AuctionKind `gorm:"column:kind;type:varchar(8);not null" json:"kind"`

	StartingPrice   decimal.Decimal `gorm:"column:starting_price;type:numeric(10,2);not null" json:"starting_price"`
	CurrentPrice    decimal.Decimal `gorm:"column:current_price;type:numeric(10,2);not null" json:"current_price"`
	CurrentBidderID *string         `gorm:"column:current_bidder_id;type:varchar(64)" json:"current_bidder_id"`

	EndTime  time.Time `gorm:"column:end_time;not null;index:idx_items_end_time" json:"end_time"`
	IsActive bool      `gorm:"column:is_active;not null;default:true;index:idx_items_active" json:"is_active"`

	// Dutch-only decay parameters; all three set together or all absent.
	DecreasePercent         *decimal.Decimal `gorm:"column:decrease_percent;type:numeric(5,2)" json:"decrease_percent,omitempty"`
	DecreaseIntervalMinutes *int             `gorm:"column:decrease_interval_minutes" json:"decrease_interval_minutes,omitempty"`
	LastPriceUpdate         *time.Time       `gorm:"column:last_price_update" json:"last_price_update,omitempty"`

	StandardShippingCost  decimal.Decimal `gorm:"column:standard_shipping_cost;type:numeric(10,2);not null;default:0" json:"standard_shipping_cost"`
	ExpeditedShippingCost decimal.Decimal `gorm:"column:expedited_shipping_cost;type:numeric(10,2);not null;default:0" json:"expedited_shipping_cost"`

	// Optimistic concurrency token. Persisted alongside price/bidder and
	// last_price_update so a crash mid-retry cannot re-apply a stale decay.
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_items_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	// Associations
	Bids []Bid `gorm:"foreignKey:ItemID" json:"-"`
}

// TableName overrides the table name used by AuctionItem to `auction_items`
func (AuctionItem) TableName() string {
	return "auction_items"
}

// BeforeCreate ensures UUID is generated if not present
func (i *AuctionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsDutch reports whether the item carries the Dutch decay parameters.
func (i *AuctionItem) IsDutch() bool {
	return i.Kind == AuctionKindDutch
}

// HasDecayParams reports whether all Dutch decay fields are present.
func (i *AuctionItem) HasDecayParams() bool {
	return i.DecreasePercent != nil && i.DecreaseIntervalMinutes != nil && i.LastPriceUpdate != nil
}

// Bid is a single entry of an item's append-only bid history.
// Insertion order is chronological and authoritative for audit queries.
type Bid struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ItemID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_bids_item" json:"item_id"`
	BidderID string          `gorm:"column:bidder_id;type:varchar(64);not null;index:idx_bids_bidder" json:"bidder_id"`
	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	PlacedAt time.Time       `gorm:"column:placed_at;not null" json:"placed_at"`
}

// TableName overrides the table name used by Bid to `bids`
func (Bid) TableName() string {
	return "bids"
}

// BeforeCreate ensures UUID is generated if not present
func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
