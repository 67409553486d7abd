/**
 * @description
 * Item lifecycle service: creation, public reads, listings, and pre-bid
 * deletion. Read paths perform the lazy expiry flip and Dutch decay refresh
 * through the same conditional write the bid engine uses, so a stale item is
 * never more than one read or bid away from its true state.
 *
 * @dependencies
 * - backend store, pricing, auction (taxonomy), models
 * - github.com/redis/go-redis/v9: active listing cache
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/auction"
	"github.com/donneypr/eecs4413-auction/internal/logger"
	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/pricing"
	"github.com/donneypr/eecs4413-auction/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// CacheKeyActiveItems caches the public active-items listing.
	CacheKeyActiveItems = "items:active"

	defaultListCacheTTL = 15 * time.Second

	// maxReadRefreshRetries bounds the lazy flip/decay loop on reads.
	maxReadRefreshRetries = 3
)

// ItemService owns item creation, reads, and deletion.
type ItemService struct {
	Store    store.Store
	Redis    *redis.Client // optional; listing cache is best effort
	CacheTTL time.Duration
}

// NewItemService creates the item lifecycle service.
func NewItemService(st store.Store, rdb *redis.Client, cacheTTL time.Duration) *ItemService {
	if cacheTTL <= 0 {
		cacheTTL = defaultListCacheTTL
	}
	return &ItemService{Store: st, Redis: rdb, CacheTTL: cacheTTL}
}

// CreateItemParams carries the seller's listing request.
type CreateItemParams struct {
	SellerID    string
	Name        string
	Description string
	Kind        models.AuctionKind

	StartingPrice decimal.Decimal
	EndTime       time.Time

	// Dutch-only; must both be set for Dutch and absent for Forward.
	DecreasePercent         *decimal.Decimal
	DecreaseIntervalMinutes *int

	StandardShippingCost  decimal.Decimal
	ExpeditedShippingCost decimal.Decimal
}

// CreateItem validates the listing configuration and persists a new active
// item priced at its starting price.
func (s *ItemService) CreateItem(ctx context.Context, params CreateItemParams, now time.Time) (*models.ItemView, error) {
	if params.SellerID == "" {
		return nil, auction.New(auction.CodeInvalidConfig, "seller identity is required")
	}
	if params.Name == "" {
		return nil, auction.New(auction.CodeInvalidConfig, "item name is required")
	}
	if !pricing.ValidAmount(params.StartingPrice) {
		return nil, auction.New(auction.CodeInvalidConfig, "starting price must be positive with at most cent precision")
	}
	if params.StandardShippingCost.IsNegative() || params.ExpeditedShippingCost.IsNegative() {
		return nil, auction.New(auction.CodeInvalidConfig, "shipping costs cannot be negative")
	}
	if !params.EndTime.After(now) {
		return nil, auction.New(auction.CodeInvalidConfig, "end time must be in the future")
	}

	item := &models.AuctionItem{
		ID:                    uuid.New(),
		SellerID:              params.SellerID,
		Name:                  params.Name,
		Description:           params.Description,
		Kind:                  params.Kind,
		StartingPrice:         params.StartingPrice,
		CurrentPrice:          params.StartingPrice,
		EndTime:               params.EndTime,
		IsActive:              true,
		StandardShippingCost:  params.StandardShippingCost,
		ExpeditedShippingCost: params.ExpeditedShippingCost,
		CreatedAt:             now,
	}

	switch params.Kind {
	case models.AuctionKindForward:
		if params.DecreasePercent != nil || params.DecreaseIntervalMinutes != nil {
			return nil, auction.New(auction.CodeInvalidConfig, "forward auctions do not take decay parameters")
		}

	case models.AuctionKindDutch:
		if params.DecreasePercent == nil || params.DecreaseIntervalMinutes == nil {
			return nil, auction.New(auction.CodeInvalidConfig, "dutch auctions require both decrease percent and decrease interval")
		}
		if !params.DecreasePercent.IsPositive() || params.DecreasePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return nil, auction.New(auction.CodeInvalidConfig, "decrease percent must be between 0 and 100 exclusive")
		}
		if *params.DecreaseIntervalMinutes <= 0 {
			return nil, auction.New(auction.CodeInvalidConfig, "decrease interval must be positive")
		}
		percent := *params.DecreasePercent
		interval := *params.DecreaseIntervalMinutes
		lpu := now
		item.DecreasePercent = &percent
		item.DecreaseIntervalMinutes = &interval
		item.LastPriceUpdate = &lpu

	default:
		return nil, auction.New(auction.CodeInvalidConfig, "unknown auction kind %q", params.Kind)
	}

	if err := s.Store.Create(ctx, item); err != nil {
		return nil, auction.StorageUnavailable(err)
	}

	s.invalidateActiveList(ctx)
	return models.NewItemView(item), nil
}

// GetPublicState returns the item's public view after applying the lazy
// expiry flip and any pending Dutch decay. Losing a refresh race to a
// concurrent bid is fine; the re-read observes the committed state.
func (s *ItemService) GetPublicState(ctx context.Context, itemID uuid.UUID, now time.Time) (*models.ItemView, error) {
	for attempt := 0; attempt < maxReadRefreshRetries; attempt++ {
		item, err := s.Store.Get(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
			}
			return nil, auction.StorageUnavailable(err)
		}

		if !item.IsActive {
			return models.NewItemView(item), nil
		}

		if pricing.HasExpired(item, now) {
			item.IsActive = false
			if err := s.Store.Apply(ctx, item, nil); err != nil {
				if errors.Is(err, store.ErrVersionConflict) {
					continue
				}
				if errors.Is(err, store.ErrNotFound) {
					return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
				}
				return nil, auction.StorageUnavailable(err)
			}
			s.invalidateActiveList(ctx)
			return models.NewItemView(item), nil
		}

		if item.Kind == models.AuctionKindDutch {
			decayed := pricing.DutchPriceAt(item, now)
			if !decayed.Equal(item.CurrentPrice) {
				item.CurrentPrice = decayed
				lpu := now
				item.LastPriceUpdate = &lpu
				if err := s.Store.Apply(ctx, item, nil); err != nil {
					if errors.Is(err, store.ErrVersionConflict) {
						continue
					}
					if errors.Is(err, store.ErrNotFound) {
						return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
					}
					return nil, auction.StorageUnavailable(err)
				}
			}
		}

		return models.NewItemView(item), nil
	}

	// Heavy contention means another writer is keeping the item fresh;
	// return the committed state as-is.
	item, err := s.Store.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
		}
		return nil, auction.StorageUnavailable(err)
	}
	return models.NewItemView(item), nil
}

// ListActiveItems returns active listings, preferring Cache -> DB.
func (s *ItemService) ListActiveItems(ctx context.Context, now time.Time) ([]*models.ItemView, error) {
	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, CacheKeyActiveItems).Result()
		if err == nil {
			var views []*models.ItemView
			if err := json.Unmarshal([]byte(val), &views); err == nil {
				// Cached entries can outlive an item's end time within the
				// TTL; never serve one as active. The store flip itself
				// happens on the next uncached read or bid.
				live := views[:0]
				for _, view := range views {
					if !now.After(view.EndTime) {
						live = append(live, view)
					}
				}
				return live, nil
			}
			// If unmarshal fails, fall through to DB
		}
	}

	items, err := s.Store.ListActive(ctx, 100)
	if err != nil {
		return nil, auction.StorageUnavailable(err)
	}

	views := make([]*models.ItemView, 0, len(items))
	for i := range items {
		item := &items[i]
		// Lazy refresh listings too; losing a race just leaves the flip to
		// the next read or bid.
		if item.IsActive && pricing.HasExpired(item, now) {
			item.IsActive = false
			if err := s.Store.Apply(ctx, item, nil); err != nil && !errors.Is(err, store.ErrVersionConflict) {
				logger.Error("Failed to flip expired item %s during listing: %v", item.ID, err)
			}
			continue
		}
		if item.IsActive && item.Kind == models.AuctionKindDutch {
			decayed := pricing.DutchPriceAt(item, now)
			if !decayed.Equal(item.CurrentPrice) {
				item.CurrentPrice = decayed
				lpu := now
				item.LastPriceUpdate = &lpu
				if err := s.Store.Apply(ctx, item, nil); err != nil && !errors.Is(err, store.ErrVersionConflict) {
					logger.Error("Failed to refresh dutch price for item %s during listing: %v", item.ID, err)
				}
			}
		}
		views = append(views, models.NewItemView(item))
	}

	if s.Redis != nil {
		data, err := json.Marshal(views)
		if err != nil {
			logger.Error("Failed to marshal active items for cache: %v", err)
		} else if err := s.Redis.Set(ctx, CacheKeyActiveItems, data, s.CacheTTL).Err(); err != nil {
			logger.Error("Failed to cache active items: %v", err)
		}
	}

	return views, nil
}

// ListUserBids returns every item the bidder has bid on, ordered by item
// creation time, newest first. This is a read-only projection of the bid
// history, not part of the state machine.
func (s *ItemService) ListUserBids(ctx context.Context, bidderID string) ([]*models.ItemView, error) {
	items, err := s.Store.ListByBidder(ctx, bidderID)
	if err != nil {
		return nil, auction.StorageUnavailable(err)
	}
	views := make([]*models.ItemView, 0, len(items))
	for i := range items {
		views = append(views, models.NewItemView(&items[i]))
	}
	return views, nil
}

// DeleteItem removes a listing. Only the seller may delete, and only before
// any bid has been placed.
func (s *ItemService) DeleteItem(ctx context.Context, itemID uuid.UUID, callerID string) error {
	item, err := s.Store.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auction.New(auction.CodeNotFound, "item %s not found", itemID)
		}
		return auction.StorageUnavailable(err)
	}

	if item.SellerID != callerID {
		return auction.New(auction.CodeForbidden, "only the seller can delete a listing")
	}
	if len(item.Bids) > 0 || item.CurrentBidderID != nil {
		return auction.New(auction.CodeNotDeletable, "items with bid history cannot be deleted")
	}

	if err := s.Store.Delete(ctx, itemID, item.Version); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return auction.New(auction.CodeNotFound, "item %s not found", itemID)
		case errors.Is(err, store.ErrVersionConflict):
			return auction.New(auction.CodeConflict, "item changed while deleting, please retry")
		default:
			return auction.StorageUnavailable(err)
		}
	}

	s.invalidateActiveList(ctx)
	return nil
}

func (s *ItemService) invalidateActiveList(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, CacheKeyActiveItems).Err(); err != nil {
		logger.Error("Failed to invalidate active items cache: %v", err)
	}
}
