/**
 * @description
 * Price Engine: pure, stateless price math for auctions.
 * Computes Dutch decay, Forward minimum bids, and expiry.
 * All monetary values are decimals rounded to cents; float arithmetic is
 * never used for money.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package pricing

import (
	"time"

	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2

var (
	// MinPrice is the absolute lower bound of any price in the system.
	MinPrice = decimal.New(1, -2) // 0.01

	dutchFloorRatio = decimal.New(10, -2)  // 0.10 of the starting price
	forwardStep     = decimal.New(105, -2) // next bid must be >= 1.05x current
	oneHundred      = decimal.NewFromInt(100)
)

// DutchFloor returns the lowest price a Dutch item may decay to:
// 10% of the starting price, but never below MinPrice.
func DutchFloor(item *models.AuctionItem) decimal.Decimal {
	floor := item.StartingPrice.Mul(dutchFloorRatio).Round(monetaryPrecision)
	if floor.LessThan(MinPrice) {
		return MinPrice
	}
	return floor
}

// DutchPriceAt computes the decay-adjusted price of a Dutch item at `now`.
//
// The computation is a pure function of (currentPrice, lastPriceUpdate, now):
// calling it twice with the same inputs yields the same result, so it never
// double-decays. The caller is responsible for persisting the returned price
// together with lastPriceUpdate=now exactly once per decay application.
func DutchPriceAt(item *models.AuctionItem, now time.Time) decimal.Decimal {
	if !item.HasDecayParams() {
		return item.CurrentPrice
	}
	if !now.After(*item.LastPriceUpdate) {
		return item.CurrentPrice
	}

	interval := time.Duration(*item.DecreaseIntervalMinutes) * time.Minute
	if interval <= 0 {
		return item.CurrentPrice
	}

	// Integer duration division == floor(elapsedMinutes / intervalMinutes).
	intervals := int64(now.Sub(*item.LastPriceUpdate) / interval)
	if intervals <= 0 {
		return item.CurrentPrice
	}

	keep := oneHundred.Sub(*item.DecreasePercent).Div(oneHundred)
	factor := keep.Pow(decimal.NewFromInt(intervals))
	candidate := item.CurrentPrice.Mul(factor).Round(monetaryPrecision)

	if floor := DutchFloor(item); candidate.LessThan(floor) {
		return floor
	}
	return candidate
}

// ForwardMinimumBid returns the minimum acceptable next bid on a Forward item.
// Only meaningful while the item is active.
func ForwardMinimumBid(item *models.AuctionItem) decimal.Decimal {
	return item.CurrentPrice.Mul(forwardStep).Round(monetaryPrecision)
}

// HasExpired reports whether the item's end time has passed at `now`.
func HasExpired(item *models.AuctionItem, now time.Time) bool {
	return now.After(item.EndTime)
}

// ValidAmount reports whether a submitted bid amount is positive and has at
// most cent precision.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(monetaryPrecision))
}
