/**
 * @description
 * Bid Engine: the per-item auction state machine.
 * Validates and applies bids under the store's optimistic atomicity guarantee,
 * decides auction termination, and decides the winner. All precondition checks
 * and the acceptance write happen against one read snapshot; a version race
 * re-runs the whole sequence against a fresh read, bounded by maxBidRetries.
 *
 * @dependencies
 * - backend store, pricing, auction (taxonomy), models
 * - github.com/redis/go-redis/v9: accepted-bid event publication
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
	// BidEventChannel carries accepted-bid events to the live feed.
	BidEventChannel = "auctions:bid_events"

	// maxBidRetries bounds the optimistic retry loop before surfacing Conflict.
	maxBidRetries = 5
)

// BidEvent is published to Redis after every accepted bid.
type BidEvent struct {
	ItemID       uuid.UUID          `json:"item_id"`
	Kind         models.AuctionKind `json:"kind"`
	BidderID     string             `json:"bidder_id"`
	Amount       decimal.Decimal    `json:"amount"`
	CurrentPrice decimal.Decimal    `json:"current_price"`
	IsActive     bool               `json:"is_active"`
	PlacedAt     time.Time          `json:"placed_at"`
}

// BidService validates and applies bids.
type BidService struct {
	Store store.Store
	Redis *redis.Client // optional; bid events are best effort
}

// NewBidService creates the bid engine.
func NewBidService(st store.Store, rdb *redis.Client) *BidService {
	return &BidService{Store: st, Redis: rdb}
}

// PlaceBid runs the admission checks in spec order and commits the bid as a
// single atomic unit keyed on the item's version. Rejections return taxonomy
// errors; only exhausted retries surface Conflict.
func (s *BidService) PlaceBid(ctx context.Context, itemID uuid.UUID, bidderID string, amount decimal.Decimal, now time.Time) (*models.ItemView, error) {
	for attempt := 0; attempt < maxBidRetries; attempt++ {
		item, err := s.Store.Get(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
			}
			return nil, auction.StorageUnavailable(err)
		}

		// Terminal states are frozen forever.
		if !item.IsActive {
			return nil, auction.New(auction.CodeAuctionEnded, "auction has ended")
		}

		// Expired but still flagged active: perform the expiry transition as
		// a side effect, then reject. A lost race means another writer got
		// there first; re-read and re-evaluate.
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
			return nil, auction.New(auction.CodeAuctionEnded, "auction has ended")
		}

		if bidderID == item.SellerID {
			return nil, auction.New(auction.CodeSelfBidForbidden, "sellers cannot bid on their own items")
		}

		if !pricing.ValidAmount(amount) {
			return nil, auction.New(auction.CodeInvalidAmount, "bid amount must be positive with at most cent precision")
		}

		switch item.Kind {
		case models.AuctionKindForward:
			minimum := pricing.ForwardMinimumBid(item)
			if amount.LessThan(minimum) {
				return nil, auction.BidTooLow(&minimum, item.CurrentPrice)
			}

		case models.AuctionKindDutch:
			// Persist any pending decay as its own atomic step before judging
			// the bid. Decay alone never ends a Dutch item.
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
			if amount.LessThan(item.CurrentPrice) {
				return nil, auction.BidTooLow(nil, item.CurrentPrice)
			}
			// Dutch auctions end the instant a bid is accepted.
			item.IsActive = false
			item.EndTime = now

		default:
			return nil, auction.New(auction.CodeInvalidConfig, "unknown auction kind %q", item.Kind)
		}

		bidder := bidderID
		item.CurrentPrice = amount
		item.CurrentBidderID = &bidder

		bid := &models.Bid{
			ID:       uuid.New(),
			ItemID:   item.ID,
			BidderID: bidderID,
			Amount:   amount,
			PlacedAt: now,
		}

		if err := s.Store.Apply(ctx, item, bid); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil, auction.New(auction.CodeNotFound, "item %s not found", itemID)
			}
			return nil, auction.StorageUnavailable(err)
		}

		s.publishBidEvent(ctx, item, bid)
		s.invalidateActiveList(ctx)
		return models.NewItemView(item), nil
	}

	return nil, auction.New(auction.CodeConflict, "item is receiving concurrent updates, please retry")
}

// publishBidEvent notifies the live feed. Failures never fail the bid.
func (s *BidService) publishBidEvent(ctx context.Context, item *models.AuctionItem, bid *models.Bid) {
	if s.Redis == nil {
		return
	}
	event := BidEvent{
		ItemID:       item.ID,
		Kind:         item.Kind,
		BidderID:     bid.BidderID,
		Amount:       bid.Amount,
		CurrentPrice: item.CurrentPrice,
		IsActive:     item.IsActive,
		PlacedAt:     bid.PlacedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal bid event for item %s: %v", item.ID, err)
		return
	}
	if err := s.Redis.Publish(ctx, BidEventChannel, payload).Err(); err != nil {
		logger.Error("Failed to publish bid event for item %s: %v", item.ID, err)
	}
}

// invalidateActiveList drops the cached active-items listing after a state
// change so browsers see fresh prices within one request.
func (s *BidService) invalidateActiveList(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, CacheKeyActiveItems).Err(); err != nil {
		logger.Error("Failed to invalidate active items cache: %v", err)
	}
}
