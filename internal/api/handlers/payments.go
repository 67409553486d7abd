/**
 * @description
 * Payment API handlers: settlement lookup, winner payment options, the
 * simulated card payment, and the caller's won-items overview.
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
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

// GetSettlement returns the stable winner/amount record of an ended auction
// GET /api/v1/payments/:id/settlement
func (h *PaymentHandler) GetSettlement(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	settlement, err := h.Service.GetSettlement(c.Context(), itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settlement)
}

// GetPaymentDetails returns shipping options and totals for a won item
// GET /api/v1/payments/:id/details
func (h *PaymentHandler) GetPaymentDetails(c *fiber.Ctx) error {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	options, err := h.Service.GetPaymentOptions(c.Context(), itemID, callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(options)
}

type processPaymentRequest struct {
	ExpeditedShipping bool   `json:"expedited_shipping"`
	Method            string `json:"payment_method"`
	CardNumber        string `json:"card_number"`
	NameOnCard        string `json:"name_on_card"`
	ExpirationDate    string `json:"expiration_date"`
	SecurityCode      string `json:"security_code"`
}

// ProcessPayment settles a won item with a simulated card charge
// POST /api/v1/payments/:id/pay
func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	var req processPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	receipt, err := h.Service.ProcessPayment(c.Context(), itemID, callerID, services.ProcessPaymentParams{
		ExpeditedShipping: req.ExpeditedShipping,
		Method:            req.Method,
		CardNumber:        req.CardNumber,
		NameOnCard:        req.NameOnCard,
		ExpirationDate:    req.ExpirationDate,
		SecurityCode:      req.SecurityCode,
	}, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment processed successfully",
		"receipt": receipt,
	})
}

// ListMyWonItems returns the caller's won items split paid/unpaid
// GET /api/v1/payments/my-won-items
func (h *PaymentHandler) ListMyWonItems(c *fiber.Ctx) error {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	unpaid, paid, err := h.Service.ListWonItems(c.Context(), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"unpaid_items": unpaid,
		"paid_items":   paid,
	})
}
