/**
 * @description
 * Bid placement API handler. Thin wrapper over the bid engine; all admission
 * rules and atomicity live in services.BidService.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend services
 */

package handlers

import (
	"time"

	"github.com/donneypr/eecs4413-auction/internal/api/middleware"
	"github.com/donneypr/eecs4413-auction/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	Service *services.BidService
}

func NewBidHandler(service *services.BidService) *BidHandler {
	return &BidHandler{Service: service}
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBid submits a bid on an item for the authenticated caller
// POST /api/v1/items/:id/bids
func (h *BidHandler) PlaceBid(c *fiber.Ctx) error {
	bidderID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	view, err := h.Service.PlaceBid(c.Context(), itemID, bidderID, req.Amount, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
