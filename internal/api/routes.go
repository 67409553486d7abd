/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/store
 */

package api

import (
	"log"

	"github.com/donneypr/eecs4413-auction/internal/api/handlers"
	"github.com/donneypr/eecs4413-auction/internal/api/middleware"
	"github.com/donneypr/eecs4413-auction/internal/config"
	"github.com/donneypr/eecs4413-auction/internal/services"
	"github.com/donneypr/eecs4413-auction/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, st store.Store, payments store.PaymentStore, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// We don't panic here to allow app to start in dev modes without valid keys,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	itemService := services.NewItemService(st, rdb, cfg.Auction.ListCacheTTL)
	bidService := services.NewBidService(st, rdb)
	paymentService := services.NewPaymentService(st, payments)

	// 3. Initialize Handlers
	itemHandler := handlers.NewItemHandler(itemService)
	bidHandler := handlers.NewBidHandler(bidService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Item Routes
	items := v1.Group("/items")
	items.Get("/", itemHandler.ListActiveItems)
	if rdb != nil {
		hub := services.NewBidStreamHub(rdb, services.BidEventChannel)
		streamHandler := handlers.NewStreamHandler(hub)
		items.Get("/stream", streamHandler.StreamBids)
	}
	items.Get("/:id", itemHandler.GetItem)
	items.Post("/", middleware.Protected(), itemHandler.CreateItem)
	items.Delete("/:id", middleware.Protected(), itemHandler.DeleteItem)
	items.Post("/:id/bids", middleware.Protected(), bidHandler.PlaceBid)

	// User Routes (Protected)
	user := v1.Group("/user", middleware.Protected())
	user.Get("/bids", itemHandler.ListMyBids)

	// Payment Routes (Protected)
	pay := v1.Group("/payments", middleware.Protected())
	pay.Get("/my-won-items", paymentHandler.ListMyWonItems)
	pay.Get("/:id/settlement", paymentHandler.GetSettlement)
	pay.Get("/:id/details", paymentHandler.GetPaymentDetails)
	pay.Post("/:id/pay", paymentHandler.ProcessPayment)
}
