/**
 * @description
 * Maps the auction error taxonomy onto HTTP responses.
 * Every taxonomy code is recoverable by the caller; only unclassified
 * failures become 500s.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend auction (taxonomy)
 */

package handlers

import (
	"errors"

	"github.com/donneypr/eecs4413-auction/internal/auction"
	"github.com/donneypr/eecs4413-auction/internal/logger"
	"github.com/gofiber/fiber/v2"
)

func statusForCode(code auction.Code) int {
	switch code {
	case auction.CodeNotFound:
		return fiber.StatusNotFound
	case auction.CodeInvalidConfig, auction.CodeInvalidAmount, auction.CodeBidTooLow,
		auction.CodeAuctionEnded, auction.CodeNotSettleable:
		return fiber.StatusBadRequest
	case auction.CodeSelfBidForbidden, auction.CodeForbidden:
		return fiber.StatusForbidden
	case auction.CodeConflict, auction.CodeNotDeletable, auction.CodeAlreadyPaid:
		return fiber.StatusConflict
	case auction.CodeStorageUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError renders a taxonomy error, attaching pricing context when present.
func respondError(c *fiber.Ctx, err error) error {
	var e *auction.Error
	if errors.As(err, &e) {
		body := fiber.Map{
			"code":  e.Code,
			"error": e.Message,
		}
		if e.Minimum != nil {
			body["minimum"] = e.Minimum
		}
		if e.CurrentPrice != nil {
			body["current_price"] = e.CurrentPrice
		}
		return c.Status(statusForCode(e.Code)).JSON(body)
	}

	logger.Error("Unclassified handler error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
