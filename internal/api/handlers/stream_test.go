package handlers

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/donneypr/eecs4413-auction/internal/services"
)

func TestStreamBids(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	defer redisClient.Close()

	hub := services.NewBidStreamHub(redisClient, services.BidEventChannel)
	handler := NewStreamHandler(hub)

	app := fiber.New()
	app.Get("/api/v1/items/stream", handler.StreamBids)

	// Serve the Fiber app over an in-memory listener; a plain net/http client
	// dials it through a custom transport.
	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()
	go func() {
		_ = app.Listener(ln)
	}()

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Publish until the stream picks it up; the subscriber only registers
	// once the HTTP request reaches the handler.
	payload := `{"item_id":"f7b7c9a0-0000-4000-8000-000000000001","bidder_id":"bob","amount":210,"is_active":true}`
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = redisClient.Publish(context.Background(), services.BidEventChannel, payload).Err()
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://auction.local/api/v1/items/stream", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("failed to call SSE endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case <-timeout:
			t.Fatal("timed out waiting for SSE data")
		default:
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("failed to read SSE line: %v", err)
			}
			if strings.HasPrefix(line, "data:") {
				if !strings.Contains(line, `"bob"`) {
					t.Fatalf("unexpected SSE payload: %s", line)
				}
				return
			}
		}
	}
}
