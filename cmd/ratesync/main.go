// Command ratesync refreshes asset prices from the currency and metal feeds.
// With -seed it first upserts the baseline asset catalogue.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/zakati/internal/config"
	"github.com/MrJamesThe3rd/zakati/internal/database"
	ledgerStore "github.com/MrJamesThe3rd/zakati/internal/ledger/store"
	"github.com/MrJamesThe3rd/zakati/internal/logging"
	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
)

func main() {
	var (
		seed     = flag.Bool("seed", false, "upsert the baseline asset catalogue before refreshing")
		currency = flag.Bool("currency", true, "refresh currency prices")
		metal    = flag.Bool("metal", true, "refresh gold and silver prices")
	)

	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	store := ledgerStore.New(db)

	if *seed {
		created, updated, err := pricefeed.Seed(ctx, store)
		if err != nil {
			slog.Error("failed to seed assets", "error", err)
			os.Exit(1)
		}

		slog.Info("assets seeded", "created", created, "updated", updated)
	}

	client := &http.Client{Timeout: cfg.PriceFeed.Timeout}

	var feeds []pricefeed.Feed

	if *currency {
		feeds = append(feeds, pricefeed.NewCurrencyFeed(client, cfg.PriceFeed.CurrencyURL))
	}

	if *metal {
		if cfg.PriceFeed.MetalAPIKey == "" {
			slog.Warn("PRICEFEED_METAL_API_KEY is not set, skipping metal prices")
		} else {
			feeds = append(feeds, pricefeed.NewMetalFeed(client, cfg.PriceFeed.MetalURL, cfg.PriceFeed.MetalAPIKey))
		}
	}

	results, err := pricefeed.NewService(store).RefreshAll(ctx, feeds...)

	for _, res := range results {
		for _, c := range res.Updated {
			slog.Info("price updated", "feed", res.Feed, "code", c.Code, "old", c.Old, "new", c.New)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
