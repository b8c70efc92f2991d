package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tutorlink/appointments/internal/app"
	"github.com/tutorlink/appointments/internal/config"
	"github.com/tutorlink/appointments/internal/notify"
	"github.com/tutorlink/appointments/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramToken, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
		notifier = tn
	}

	repo := repository.NewAppointmentRepository(pool)
	sweeper := app.NewSweeper(repo, notifier, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	logger.Info("Appointment engine started",
		zap.String("environment", cfg.Environment),
		zap.Bool("notifications", cfg.TelegramToken != ""),
	)

	<-ctx.Done()
	logger.Info("Shutting down")
}
