/**
 * @description
 * GORM/PostgreSQL implementation of the auction item store.
 * The conditional write is a single UPDATE ... WHERE id = ? AND version = ?
 * that bumps the version, with the bid-history insert in the same transaction.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: Postgres error code inspection
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// GormStore persists auction items in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Postgres-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates/updates the auction tables.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.AuctionItem{}, &models.Bid{}, &models.Payment{})
}

func (s *GormStore) Create(ctx context.Context, item *models.AuctionItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	var item models.AuctionItem
	err := s.db.WithContext(ctx).
		Preload("Bids", sortBidHistory).
		First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) Apply(ctx context.Context, item *models.AuctionItem, bid *models.Bid) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.AuctionItem{}).
			Where("id = ? AND version = ?", item.ID, item.Version).
			Updates(map[string]interface{}{
				"current_price":     item.CurrentPrice,
				"current_bidder_id": item.CurrentBidderID,
				"end_time":          item.EndTime,
				"is_active":         item.IsActive,
				"last_price_update": item.LastPriceUpdate,
				"version":           item.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.AuctionItem{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		if bid != nil {
			return tx.Create(bid).Error
		}
		return nil
	})
	if err != nil {
		// Serialization failures behave like a lost optimistic race: the
		// caller re-reads and retries.
		if isRetryablePgError(err) {
			return ErrVersionConflict
		}
		return err
	}

	item.Version++
	if bid != nil {
		item.Bids = append(item.Bids, *bid)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND version = ?", id, version).
		Delete(&models.AuctionItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.AuctionItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *GormStore) ListActive(ctx context.Context, limit int) ([]models.AuctionItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var items []models.AuctionItem
	err := s.db.WithContext(ctx).
		Preload("Bids", sortBidHistory).
		Where("is_active = ?", true).
		Order("created_at DESC, id").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *GormStore) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	if limit <= 0 {
		limit = 500
	}
	var items []models.AuctionItem
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND end_time < ?", true, now).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *GormStore) ListByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error) {
	var items []models.AuctionItem
	err := s.db.WithContext(ctx).
		Preload("Bids", sortBidHistory).
		Joins("JOIN bids ON bids.item_id = auction_items.id").
		Where("bids.bidder_id = ?", bidderID).
		Group("auction_items.id").
		Order("auction_items.created_at DESC, auction_items.id").
		Find(&items).Error
	return items, err
}

func (s *GormStore) ListWonByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error) {
	var items []models.AuctionItem
	err := s.db.WithContext(ctx).
		Preload("Bids", sortBidHistory).
		Where("current_bidder_id = ? AND is_active = ?", bidderID, false).
		Order("end_time DESC, id").
		Find(&items).Error
	return items, err
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	err := s.db.WithContext(ctx).Create(payment).Error
	// The partial unique index on payments(item_id) for COMPLETED rows turns
	// a concurrent double payment into a duplicate-key error.
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *GormStore) GetCompletedPayment(ctx context.Context, itemID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND status = ?", itemID, models.PaymentStatusCompleted).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func sortBidHistory(db *gorm.DB) *gorm.DB {
	return db.Order("placed_at ASC, id")
}

// isRetryablePgError reports Postgres serialization/deadlock failures
// (40001, 40P01) that are safe to retry from a fresh read.
func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isUniqueViolation reports a Postgres unique constraint failure (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
