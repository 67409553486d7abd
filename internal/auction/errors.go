/**
 * @description
 * Error taxonomy shared by the bid engine, item lifecycle, payments, and the
 * HTTP layer. Every code is recoverable by the caller; Conflict is retryable
 * without caller-visible state change, StorageUnavailable is surfaced as-is
 * and never retried by the engine.
 *
 * @dependencies
 * - standard "errors"
 * - github.com/shopspring/decimal
 */

package auction

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifies a rejection or failure class.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidConfig      Code = "INVALID_CONFIG"
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeSelfBidForbidden   Code = "SELF_BID_FORBIDDEN"
	CodeAuctionEnded       Code = "AUCTION_ENDED"
	CodeBidTooLow          Code = "BID_TOO_LOW"
	CodeConflict           Code = "CONFLICT"
	CodeNotSettleable      Code = "NOT_SETTLEABLE"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Supplemental codes for the payment/deletion surface.
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotDeletable Code = "NOT_DELETABLE"
	CodeAlreadyPaid  Code = "ALREADY_PAID"
)

// Error carries a taxonomy code plus optional pricing context for BidTooLow.
type Error struct {
	Code         Code
	Message      string
	Minimum      *decimal.Decimal
	CurrentPrice *decimal.Decimal
	cause        error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a taxonomy error.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// BidTooLow creates a rejection carrying the current price and, for Forward
// auctions, the minimum acceptable bid.
func BidTooLow(minimum *decimal.Decimal, current decimal.Decimal) *Error {
	msg := fmt.Sprintf("bid is below the current price of %s", current.StringFixed(2))
	if minimum != nil {
		msg = fmt.Sprintf("bid is below the minimum of %s", minimum.StringFixed(2))
	}
	return &Error{
		Code:         CodeBidTooLow,
		Message:      msg,
		Minimum:      minimum,
		CurrentPrice: &current,
	}
}

// StorageUnavailable wraps a durability-layer failure. It is not retried by
// the engine to avoid duplicate-apply risk.
func StorageUnavailable(err error) *Error {
	return &Error{Code: CodeStorageUnavailable, Message: "storage unavailable", cause: err}
}

// CodeOf returns the taxonomy code of err, or "" if err is not a taxonomy error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
