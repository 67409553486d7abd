/**
 * @description
 * AuctionItem Store contract: durable state of items and their bid history
 * with atomic read-modify-write semantics keyed by item id.
 *
 * Writes are optimistic: callers read an item (carrying its version), compute
 * the new state, and Apply it conditionally on the version being unchanged.
 * A lost race surfaces as ErrVersionConflict and the caller re-reads and
 * retries within its own bound.
 *
 * @dependencies
 * - github.com/google/uuid
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the item id does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrVersionConflict indicates the item changed since it was read.
	ErrVersionConflict = errors.New("item version conflict")
	// ErrAlreadyExists indicates a uniqueness guard rejected the write.
	ErrAlreadyExists = errors.New("record already exists")
)

// Store owns auction item state. Implementations guarantee that Apply is
// atomic per item: the conditional state write and the bid-history append
// commit together or not at all.
type Store interface {
	// Create persists a new item.
	Create(ctx context.Context, item *models.AuctionItem) error

	// Get returns the item with its bid history loaded chronologically.
	Get(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error)

	// Apply writes the item's mutable state (price, bidder, active flag,
	// end time, last price update) conditionally on item.Version matching the
	// stored version, appending bid (if non-nil) in the same atomic unit.
	// On success the item's version is advanced in place.
	Apply(ctx context.Context, item *models.AuctionItem, bid *models.Bid) error

	// Delete removes an item conditionally on its version. Callers enforce
	// the pre-bid-only rule before calling.
	Delete(ctx context.Context, id uuid.UUID, version int64) error

	// ListActive returns active items, newest first.
	ListActive(ctx context.Context, limit int) ([]models.AuctionItem, error)

	// ListExpiredActive returns items still flagged active whose end time has
	// passed at `now`.
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error)

	// ListByBidder returns every item carrying at least one bid by bidderID,
	// ordered by item creation time, newest first, with history loaded.
	ListByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error)

	// ListWonByBidder returns ended items whose winner is bidderID, most
	// recently ended first.
	ListWonByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error)
}

// PaymentStore owns the settlement payment records.
type PaymentStore interface {
	// CreatePayment persists a payment record. At most one COMPLETED payment
	// may exist per item; a second one is rejected with ErrAlreadyExists even
	// under concurrent writers.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetCompletedPayment returns the completed payment for an item, or
	// ErrNotFound if the item has not been paid for.
	GetCompletedPayment(ctx context.Context, itemID uuid.UUID) (*models.Payment, error)
}
