/**
 * @description
 * Auction item API handlers: listing creation, public reads, deletion, and
 * the caller's bid history projection.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend services, models
 */

package handlers

import (
	"time"

	"github.com/donneypr/eecs4413-auction/internal/api/middleware"
	"github.com/donneypr/eecs4413-auction/internal/models"
	"github.com/donneypr/eecs4413-auction/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemHandler struct {
	Service *services.ItemService
}

func NewItemHandler(service *services.ItemService) *ItemHandler {
	return &ItemHandler{Service: service}
}

type createItemRequest struct {
	Name                    string           `json:"name"`
	Description             string           `json:"description"`
	Kind                    string           `json:"kind"`
	StartingPrice           decimal.Decimal  `json:"starting_price"`
	EndTime                 time.Time        `json:"end_time"`
	DecreasePercent         *decimal.Decimal `json:"decrease_percent"`
	DecreaseIntervalMinutes *int             `json:"decrease_interval_minutes"`
	StandardShippingCost    decimal.Decimal  `json:"standard_shipping_cost"`
	ExpeditedShippingCost   decimal.Decimal  `json:"expedited_shipping_cost"`
}

// CreateItem lists a new auction item for the authenticated seller
// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	sellerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	view, err := h.Service.CreateItem(c.Context(), services.CreateItemParams{
		SellerID:                sellerID,
		Name:                    req.Name,
		Description:             req.Description,
		Kind:                    models.AuctionKind(req.Kind),
		StartingPrice:           req.StartingPrice,
		EndTime:                 req.EndTime,
		DecreasePercent:         req.DecreasePercent,
		DecreaseIntervalMinutes: req.DecreaseIntervalMinutes,
		StandardShippingCost:    req.StandardShippingCost,
		ExpeditedShippingCost:   req.ExpeditedShippingCost,
	}, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListActiveItems returns the browsable active listings
// GET /api/v1/items
func (h *ItemHandler) ListActiveItems(c *fiber.Ctx) error {
	views, err := h.Service.ListActiveItems(c.Context(), time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// GetItem returns the public state of one item
// GET /api/v1/items/:id
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	view, err := h.Service.GetPublicState(c.Context(), itemID, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// DeleteItem removes a pre-bid listing owned by the caller
// DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	if err := h.Service.DeleteItem(c.Context(), itemID, callerID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMyBids returns every item the caller has bid on, newest listing first
// GET /api/v1/user/bids
func (h *ItemHandler) ListMyBids(c *fiber.Ctx) error {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	views, err := h.Service.ListUserBids(c.Context(), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}
