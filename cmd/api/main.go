package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/zakati/internal/alias"
	aliasStore "github.com/MrJamesThe3rd/zakati/internal/alias/store"
	"github.com/MrJamesThe3rd/zakati/internal/config"
	"github.com/MrJamesThe3rd/zakati/internal/database"
	"github.com/MrJamesThe3rd/zakati/internal/export"
	zakatiHttp "github.com/MrJamesThe3rd/zakati/internal/http"
	aliasHandler "github.com/MrJamesThe3rd/zakati/internal/http/alias"
	assetHandler "github.com/MrJamesThe3rd/zakati/internal/http/asset"
	exportHandler "github.com/MrJamesThe3rd/zakati/internal/http/export"
	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	importHandler "github.com/MrJamesThe3rd/zakati/internal/http/importcsv"
	ratesHandler "github.com/MrJamesThe3rd/zakati/internal/http/rates"
	snapshotHandler "github.com/MrJamesThe3rd/zakati/internal/http/snapshot"
	transferHandler "github.com/MrJamesThe3rd/zakati/internal/http/transfer"
	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/zakati/internal/ledger/store"
	"github.com/MrJamesThe3rd/zakati/internal/logging"
	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg.Log))

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	params, err := cfg.ZakatParams()
	if err != nil {
		slog.Error("failed to load zakat params", "error", err)
		os.Exit(1)
	}

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

	receipts, err := cfg.ReceiptStore()
	if err != nil {
		slog.Error("invalid receipt store", "error", err)
		os.Exit(1)
	}

	store := ledgerStore.New(db)
	client := &http.Client{Timeout: cfg.PriceFeed.Timeout}

	var (
		ledgerService = ledger.NewService(store, receipts)
		zakatService  = zakat.NewService(store, params)
		aliasService  = alias.NewService(aliasStore.New(db), store)
		importService = importer.NewService(aliasService, time.UTC)
		priceService  = pricefeed.NewService(store)
		exportService = export.NewService(ledgerService,
			&http.Client{Timeout: cfg.Export.Timeout}, receipts, cfg.Export.ReceiptToken)
	)

	handlers := zakatiHttp.Handlers{
		Transfers: transferHandler.NewHandler(ledgerService),
		Zakat:     snapshotHandler.NewHandler(zakatService),
		Assets:    assetHandler.NewHandler(ledgerService),
		Import:    importHandler.NewHandler(importService, ledgerService),
		Aliases:   aliasHandler.NewHandler(aliasService),
		Rates: ratesHandler.NewHandler(priceService,
			pricefeed.NewCurrencyFeed(client, cfg.PriceFeed.CurrencyURL),
			pricefeed.NewMetalFeed(client, cfg.PriceFeed.MetalURL, cfg.PriceFeed.MetalAPIKey),
		),
		Export: exportHandler.NewHandler(exportService),
	}

	router := zakatiHttp.New(handlers, auth.NewVerifier(cfg.Auth.JWTSecret), zakatiHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
