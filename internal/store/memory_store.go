/**
 * @description
 * In-memory implementation of the auction item store with the same
 * optimistic-concurrency semantics as the Postgres store. Used by tests the
 * way miniredis stands in for Redis, keeping engine tests deterministic and
 * database-free.
 *
 * @dependencies
 * - standard "sync"
 * - github.com/google/uuid
 */

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/google/uuid"
)

// MemoryStore keeps items and bid history in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*models.AuctionItem
	bids     map[uuid.UUID][]models.Bid
	payments map[uuid.UUID][]models.Payment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[uuid.UUID]*models.AuctionItem),
		bids:     make(map[uuid.UUID][]models.Bid),
		payments: make(map[uuid.UUID][]models.Payment),
	}
}

func (s *MemoryStore) Create(ctx context.Context, item *models.AuctionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	stored := cloneItem(item)
	stored.Bids = nil
	s.items[item.ID] = stored
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	item := cloneItem(stored)
	item.Bids = append([]models.Bid(nil), s.bids[id]...)
	return item, nil
}

func (s *MemoryStore) Apply(ctx context.Context, item *models.AuctionItem, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != item.Version {
		return ErrVersionConflict
	}

	next := cloneItem(item)
	next.Bids = nil
	next.Version = stored.Version + 1
	s.items[item.ID] = next

	if bid != nil {
		if bid.ID == uuid.Nil {
			bid.ID = uuid.New()
		}
		s.bids[item.ID] = append(s.bids[item.ID], *bid)
	}

	item.Version = next.Version
	if bid != nil {
		item.Bids = append(item.Bids, *bid)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != version {
		return ErrVersionConflict
	}
	delete(s.items, id)
	delete(s.bids, id)
	return nil
}

func (s *MemoryStore) ListActive(ctx context.Context, limit int) ([]models.AuctionItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.AuctionItem
	for id, stored := range s.items {
		if !stored.IsActive {
			continue
		}
		item := cloneItem(stored)
		item.Bids = append([]models.Bid(nil), s.bids[id]...)
		items = append(items, *item)
	}
	sortNewestFirst(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryStore) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	if limit <= 0 {
		limit = 500
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.AuctionItem
	for _, stored := range s.items {
		if stored.IsActive && now.After(stored.EndTime) {
			items = append(items, *cloneItem(stored))
		}
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *MemoryStore) ListByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.AuctionItem
	for id, stored := range s.items {
		history := s.bids[id]
		matched := false
		for _, b := range history {
			if b.BidderID == bidderID {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		item := cloneItem(stored)
		item.Bids = append([]models.Bid(nil), history...)
		items = append(items, *item)
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *MemoryStore) ListWonByBidder(ctx context.Context, bidderID string) ([]models.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.AuctionItem
	for id, stored := range s.items {
		if stored.IsActive || stored.CurrentBidderID == nil || *stored.CurrentBidderID != bidderID {
			continue
		}
		item := cloneItem(stored)
		item.Bids = append([]models.Bid(nil), s.bids[id]...)
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndTime.Equal(items[j].EndTime) {
			return items[i].EndTime.After(items[j].EndTime)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same guard the Postgres partial unique index provides: at most one
	// COMPLETED payment per item, checked and written under one lock.
	if payment.Status == models.PaymentStatusCompleted {
		for _, p := range s.payments[payment.ItemID] {
			if p.Status == models.PaymentStatusCompleted {
				return ErrAlreadyExists
			}
		}
	}

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	s.payments[payment.ItemID] = append(s.payments[payment.ItemID], *payment)
	return nil
}

func (s *MemoryStore) GetCompletedPayment(ctx context.Context, itemID uuid.UUID) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments[itemID] {
		if p.Status == models.PaymentStatusCompleted {
			payment := p
			return &payment, nil
		}
	}
	return nil, ErrNotFound
}

func sortNewestFirst(items []models.AuctionItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}

// cloneItem copies an item so callers never share mutable state with the
// store. Decimal values are immutable and safe to share.
func cloneItem(src *models.AuctionItem) *models.AuctionItem {
	item := *src
	if src.CurrentBidderID != nil {
		v := *src.CurrentBidderID
		item.CurrentBidderID = &v
	}
	if src.DecreasePercent != nil {
		v := *src.DecreasePercent
		item.DecreasePercent = &v
	}
	if src.DecreaseIntervalMinutes != nil {
		v := *src.DecreaseIntervalMinutes
		item.DecreaseIntervalMinutes = &v
	}
	if src.LastPriceUpdate != nil {
		v := *src.LastPriceUpdate
		item.LastPriceUpdate = &v
	}
	return &item
}
