/**
 * @description
 * Sweeper Service Entry Point.
 * Responsible for finalizing auctions whose end time has passed with no
 * intervening bid or read. Runs on a fixed interval until signalled to stop.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 * - backend/internal/store
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/donneypr/eecs4413-auction/internal/config"
	"github.com/donneypr/eecs4413-auction/internal/db"
	"github.com/donneypr/eecs4413-auction/internal/logger"
	"github.com/donneypr/eecs4413-auction/internal/services"
	"github.com/donneypr/eecs4413-auction/internal/store"
)

func main() {
	logger.Info("🔥 Starting Auction Sweeper...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DB
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	// 3. Initialize Services
	itemStore := store.NewGormStore(pgDB)
	sweeper := services.NewSweeperService(itemStore)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Run until signalled
	go sweeper.Run(ctx, cfg.Auction.SweepInterval)

	logger.Info("Sweeper running every %s. Press Ctrl+C to exit.", cfg.Auction.SweepInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down sweeper...")
	cancel()
}
