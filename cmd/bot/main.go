package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sahilkl/filegate/internal/config"
	"github.com/sahilkl/filegate/internal/gate"
	"github.com/sahilkl/filegate/internal/payments"
	"github.com/sahilkl/filegate/internal/redeem"
	"github.com/sahilkl/filegate/internal/shortener"
	"github.com/sahilkl/filegate/internal/storage"
	"github.com/sahilkl/filegate/internal/sweep"
	"github.com/sahilkl/filegate/internal/telegram"
	"github.com/sahilkl/filegate/internal/verify"
	"github.com/sahilkl/filegate/internal/webhook"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.AdminID == 0 {
		log.Error("ADMIN_ID is required")
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Domain services
	verifySvc := verify.New(store, log)
	shortenerClient := shortener.NewClient(log)
	accessGate := gate.New(store, verifySvc, shortenerClient, cfg.BotUsername, cfg.AdminID, log)
	redeemEngine := redeem.New(store, log)
	reconciler := payments.New(store, log)

	// Initialize telegram bot
	bot, err := telegram.New(cfg, store, accessGate, verifySvc, redeemEngine, reconciler, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start webhook server
	webhookServer := webhook.NewServer(reconciler, bot.Delivery().PaymentConfirmed, cfg.WebhookSecret, log)
	go func() {
		if err := webhookServer.Start(ctx, cfg.WebhookPort); err != nil && err != http.ErrServerClosed {
			log.Error("webhook server", "error", err)
		}
	}()

	// Start background sweeper
	sweeper := sweep.New(store, bot.Delivery(), log)
	go sweeper.Start(ctx, time.Duration(cfg.SweepIntervalSeconds)*time.Second)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	bot.Start(ctx)
}
