package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/domwatch/dominance-bot/internal/command"
	"github.com/domwatch/dominance-bot/internal/config"
	"github.com/domwatch/dominance-bot/internal/market"
	"github.com/domwatch/dominance-bot/internal/metrics"
	"github.com/domwatch/dominance-bot/internal/monitor"
	"github.com/domwatch/dominance-bot/internal/portfolio"
	"github.com/domwatch/dominance-bot/internal/store"
	"github.com/domwatch/dominance-bot/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional .env for local runs; real deployments set the environment.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg := config.FromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migration failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")
	} else {
		st = store.NewFileStore(cfg.BookFile, cfg.SettingsFile)
		slog.Info("using flat-file store", "book", cfg.BookFile, "settings", cfg.SettingsFile)
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Settings manager ---
	manager := config.NewManager(cfg, st)
	if err := manager.Load(ctx); err != nil {
		slog.Warn("settings overrides unavailable, using environment values", "err", err)
	}
	settings := manager.Settings()
	slog.Info("configuration loaded",
		"interval_hours", settings.IntervalHours,
		"min_threshold", settings.MinThreshold,
		"max_threshold", settings.MaxThreshold,
		"send_info", settings.SendInfo,
		"admins", len(cfg.AdminIDs),
	)

	// --- Market data ---
	client := market.NewClient("")
	var prices market.PriceSource = client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		prices = market.NewCachedPrices(client, rdb, 5*time.Minute)
		slog.Info("Redis quote cache enabled")
	}

	// --- Portfolio ledger ---
	ledger := portfolio.NewService(st, client, prices)

	// --- Telegram ---
	var api *tgbotapi.BotAPI
	var notifier monitor.Notifier = monitor.DiscardNotifier{}
	if cfg.TelegramToken != "" {
		var err error
		api, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			slog.Error("telegram authorization failed", "err", err)
			os.Exit(1)
		}
		notifier = telegram.NewNotifier(api)
		slog.Info("telegram bot authorized", "bot", api.Self.UserName)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, notifications disabled")
	}

	// --- Monitor and scheduler ---
	mon := monitor.New(client, notifier, manager, "usdt")
	scheduler := monitor.NewScheduler(mon)
	go scheduler.Run(ctx, settings.Interval())

	// --- Command loop ---
	router := command.NewRouter(ledger, mon, manager, scheduler)
	if api != nil {
		bot := telegram.NewBot(api, router)
		go bot.Run(ctx)
	}

	// --- Ops server ---
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"dominance-bot"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         cfg.OpsAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("ops server listening", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down dominance-bot...")
	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("dominance-bot stopped")
}
