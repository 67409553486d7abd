/**
 * @description
 * Lifecycle Sweeper: finalizes items whose end time has passed with no
 * intervening bid or read. Only ever moves items from Active to Ended; it
 * never touches price, winner, or history. The sweeper is cleanup, not the
 * enforcer — every bid and read path re-checks expiry under the same atomic
 * unit, so losing a race here is harmless.
 *
 * @dependencies
 * - backend store, logger
 */

package services

import (
	"context"
	"errors"
	"time"

	"github.com/donneypr/eecs4413-auction/internal/logger"
	"github.com/donneypr/eecs4413-auction/internal/store"
)

// SweeperService flips expired items to their terminal state.
type SweeperService struct {
	Store store.Store
}

// NewSweeperService creates the sweeper.
func NewSweeperService(st store.Store) *SweeperService {
	return &SweeperService{Store: st}
}

// Sweep finalizes every expired-active item, returning the number of items
// flipped. Idempotent: already-ended items are never revisited.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	items, err := s.Store.ListExpiredActive(ctx, now, 500)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range items {
		item := &items[i]
		item.IsActive = false
		if err := s.Store.Apply(ctx, item, nil); err != nil {
			// A concurrent bid or read already settled this item.
			if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			logger.Error("Sweeper failed to finalize item %s: %v", item.ID, err)
			continue
		}
		flipped++
	}
	return flipped, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flipped, err := s.Sweep(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("Sweep failed: %v", err)
				continue
			}
			if flipped > 0 {
				logger.Info("Sweeper finalized %d expired auction(s)", flipped)
			}
		}
	}
}
