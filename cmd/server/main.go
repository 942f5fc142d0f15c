package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coinpulse/internal/api"
	"coinpulse/internal/assist"
	"coinpulse/internal/catalog"
	"coinpulse/internal/db"
	"coinpulse/internal/market"
	"coinpulse/internal/notify"
	"coinpulse/internal/realtime"
	"coinpulse/internal/store"
	"coinpulse/internal/tracker"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	var (
		addr     = flag.String("addr", envOr("ADDR", ":8080"), "server listen address")
		dbPath   = flag.String("db", envOr("DB_PATH", "./coinpulse.db"), "sqlite database file")
		interval = flag.Duration("interval", 60*time.Second, "price refresh interval")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sqlDB, err := db.Open(*dbPath)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.NewSQLiteStore(sqlDB, logger)
	provider := market.NewProvider(envOr("PRICE_API_URL", ""), os.Getenv("COINGECKO_API_KEY"))
	cat := catalog.New(envOr("CATALOG_API_URL", ""))
	hub := realtime.NewHub()
	notifier := notify.NewNotifier(logger, &notify.LogSender{Logger: logger}, &notify.HubSender{Hub: hub})

	var assistant api.Asker
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		a, err := assist.New(ctx, key, logger)
		if err != nil {
			logger.Warn("assistant disabled", zap.Error(err))
		} else {
			assistant = a
		}
	} else {
		logger.Info("GEMINI_API_KEY not set, assistant disabled")
	}

	tr := tracker.New(ctx, st, provider, cat, notifier, hub, logger)
	apiServer := api.NewServer(tr, cat, assistant, hub, logger)

	// Catalog loads in the background; until it lands, display names
	// degrade to raw asset ids.
	go func() {
		if err := cat.Load(ctx); err != nil {
			logger.Warn("catalog load failed", zap.Error(err))
			return
		}
		logger.Info("catalog loaded", zap.Int("entries", cat.Size()))
	}()

	stopPolling := tr.StartPolling(ctx, *interval)
	defer stopPolling()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		stopPolling()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("coinpulse listening", zap.String("addr", *addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
