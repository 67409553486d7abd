package config

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auctions")
	t.Setenv("GO_ENV", "test")

	cfg, err := Load()
	check.Nil(t, err)
	check.Equal(t, "8080", cfg.Server.Port)
	check.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	check.Equal(t, 30*time.Second, cfg.Auction.SweepInterval)
	check.Equal(t, 15*time.Second, cfg.Auction.ListCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auctions")
	t.Setenv("GO_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "5")
	t.Setenv("LIST_CACHE_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	check.Nil(t, err)
	check.Equal(t, "9090", cfg.Server.Port)
	check.Equal(t, 5*time.Second, cfg.Auction.SweepInterval)
	// Malformed values fall back to the default.
	check.Equal(t, 15*time.Second, cfg.Auction.ListCacheTTL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GO_ENV", "test")

	_, err := Load()
	check.NotNil(t, err)
}
