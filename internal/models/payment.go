/**
 * @description
 * Payment database model.
 * Maps to the 'payments' table in PostgreSQL.
 * Records the settlement of a won auction; card data is never stored.
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

// PaymentStatus defines the state of a payment in our system
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment represents the settlement record of a won auction item
type Payment struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	// The partial unique index is the durable at-most-one-completed-payment
	// guard; concurrent double payments surface as a duplicate-key error.
	ItemID  uuid.UUID `gorm:"type:uuid;not null;index:idx_payments_item;uniqueIndex:idx_payments_item_completed,where:status = 'COMPLETED'" json:"item_id"`
	BuyerID string    `gorm:"column:buyer_id;type:varchar(64);not null;index:idx_payments_buyer" json:"buyer_id"`

	WinningBidAmount          decimal.Decimal `gorm:"column:winning_bid_amount;type:numeric(10,2);not null" json:"winning_bid_amount"`
	StandardShippingCost      decimal.Decimal `gorm:"column:standard_shipping_cost;type:numeric(10,2);not null" json:"standard_shipping_cost"`
	ExpeditedShippingSelected bool            `gorm:"column:expedited_shipping_selected;not null;default:false" json:"expedited_shipping_selected"`
	ExpeditedShippingCost     decimal.Decimal `gorm:"column:expedited_shipping_cost;type:numeric(10,2);not null;default:0" json:"expedited_shipping_cost"`
	TotalAmount               decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`

	Status             PaymentStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index:idx_payments_status" json:"status"`
	Method             string        `gorm:"column:method;type:varchar(50)" json:"method"`
	ConfirmationNumber string        `gorm:"column:confirmation_number;type:varchar(100);uniqueIndex" json:"confirmation_number"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`

	// Associations
	Item AuctionItem `gorm:"foreignKey:ItemID" json:"-"`
}

// TableName overrides the table name used by Payment to `payments`
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate ensures UUID is generated if not present
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
