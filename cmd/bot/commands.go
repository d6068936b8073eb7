package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/yourname/owe-bot/internal/bot"
	"github.com/yourname/owe-bot/internal/config"
	"github.com/yourname/owe-bot/internal/db"
	"github.com/yourname/owe-bot/internal/engine"
	"github.com/yourname/owe-bot/internal/ledger"
	"github.com/yourname/owe-bot/internal/logging"
	"github.com/yourname/owe-bot/internal/repo"
	"github.com/yourname/owe-bot/internal/session"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "owe-bot",
		Short:        "Telegram bot that keeps track of who owes you what",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	load := func() (config.Config, *slog.Logger, error) {
		cfg, err := config.Load()
		if err != nil {
			return config.Config{}, nil, err
		}
		if logLevel != "" {
			if cfg.LogLevel, err = config.ParseLogLevel(logLevel); err != nil {
				return config.Config{}, nil, fmt.Errorf("--log-level: %w", err)
			}
		}
		log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(log)
		return cfg, log, nil
	}

	root.AddCommand(serveCmd(load), migrateCmd(load))
	return root
}

type loader func() (config.Config, *slog.Logger, error)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll Telegram for updates and answer them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			if cfg.BotToken == "" {
				return errors.New("BOT_TOKEN is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrate needs STORAGE=%s", config.StoragePostgres)
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.ApplyMigrations(cmd.Context(), pool, db.Migrations())
			if err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied", "files", applied)
			return nil
		},
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ledger.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repo.NewMemory(), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	// Run migrations automatically on start
	applied, err := db.ApplyMigrations(ctx, pool, db.Migrations())
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	if len(applied) > 0 {
		log.Info("migrations applied", "files", applied)
	}
	return repo.NewStore(pool), pool.Close, nil
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}
	botAPI.Debug = false

	sessions := session.NewStore(cfg.SessionTTL)
	go sessions.Run(ctx, cfg.SessionSweepEvery, func(n int) {
		log.Debug("expired sessions removed", "count", n)
	})

	eng := engine.New(ledger.New(store), sessions, log.With("component", "engine"))
	h := bot.NewHandler(botAPI, eng, bot.NewRenderer(loc), log.With("component", "bot"))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollTimeout
	updates := botAPI.GetUpdatesChan(u)

	log.Info("bot started", "username", botAPI.Self.UserName, "storage", cfg.Storage)

	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			h.Wait()
			log.Info("shutdown")
			return nil
		case upd, ok := <-updates:
			if !ok {
				h.Wait()
				return nil
			}
			h.Dispatch(ctx, upd)
		}
	}
}
