/**
 * @description
 * Live bid feed over SSE. Each connection subscribes to the shared
 * BidStreamHub rather than opening its own Redis subscription.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend services
 */

package handlers

import (
	"bufio"
	"fmt"

	"github.com/donneypr/eecs4413-auction/internal/services"
	"github.com/gofiber/fiber/v2"
)

type StreamHandler struct {
	Hub *services.BidStreamHub
}

func NewStreamHandler(hub *services.BidStreamHub) *StreamHandler {
	return &StreamHandler{Hub: hub}
}

// StreamBids streams accepted-bid events over SSE
// GET /api/v1/items/stream
func (h *StreamHandler) StreamBids(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()

	events, unsubscribe := h.Hub.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case payload, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
