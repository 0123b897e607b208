// Command remind posts today's zakat reminders for every active user.
// It is meant to run once a day from cron or a scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/zakati/internal/config"
	"github.com/MrJamesThe3rd/zakati/internal/database"
	ledgerStore "github.com/MrJamesThe3rd/zakati/internal/ledger/store"
	"github.com/MrJamesThe3rd/zakati/internal/logging"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
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

	var sender notify.Sender = notify.LogSender{}

	if cfg.Discord.Token != "" && cfg.Discord.ChannelID != "" {
		discord, err := notify.NewDiscordSender(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			slog.Error("failed to set up discord", "error", err)
			os.Exit(1)
		}

		sender = discord
	}

	store := ledgerStore.New(db)
	svc := notify.NewService(store, zakat.NewService(store, params), sender, notify.NewLocalizer(cfg.Discord.Language))

	sum, err := svc.Run(ctx)
	slog.Info("reminders sent", "users", sum.Users, "notified", sum.Notified, "failed", sum.Failed)

	if err != nil {
		slog.Error("some reminders failed", "error", err)
		os.Exit(1)
	}
}
