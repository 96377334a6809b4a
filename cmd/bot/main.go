package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/daniel11609/schuldenbot/internal/config"
	"github.com/daniel11609/schuldenbot/internal/debts"
	"github.com/daniel11609/schuldenbot/internal/notify"
	"github.com/daniel11609/schuldenbot/internal/scheduler"
	"github.com/daniel11609/schuldenbot/internal/storage"
	"github.com/daniel11609/schuldenbot/internal/telegram"
)

func main() {
	zlog, _ := zap.NewDevelopment()
	defer zlog.Sync()
	logger := zlog.Sugar()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("failed to load configuration", "err", err)
	}

	repo, err := storage.NewRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalw("failed to create repository", "err", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalw("failed to run migrations", "err", err)
	}

	store, err := storage.NewStore(ctx, repo)
	if err != nil {
		logger.Fatalw("failed to load store", "err", err)
	}

	client, err := telegram.NewClient(cfg.Token, logger)
	if err != nil {
		logger.Fatalw("failed to create telegram client", "err", err)
	}

	dispatcher := notify.NewDispatcher(client, store, logger)
	reminders := scheduler.NewService(store, dispatcher, cfg.ReminderSpec(), logger)
	service := debts.NewService(store, reminders, dispatcher, logger)

	bot, err := telegram.NewBot(client, store, service, logger)
	if err != nil {
		logger.Fatalw("failed to create telegram bot", "err", err)
	}

	// Re-attach reminder jobs for every accepted, unpaid debt that survived
	// the restart.
	reminders.Reconcile()
	reminders.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := bot.Run(ctx); err != nil {
			logger.Fatalw("failed to run telegram bot", "err", err)
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Infof("graceful shutdown with signal %v", sig)
		reminders.Stop()
		cancel()
		<-done
	}()
	<-done
}
