package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/merchantkit/fulfillment_ledger/internal/core/services"
	"github.com/merchantkit/fulfillment_ledger/internal/jobs"
	"github.com/merchantkit/fulfillment_ledger/internal/platform/cache"
	"github.com/merchantkit/fulfillment_ledger/internal/repositories/database/pgsql"
	"github.com/merchantkit/fulfillment_ledger/pkg/config"
	"github.com/merchantkit/fulfillment_ledger/pkg/database"
)

const (
	// Reservation sweeps run every minute; expiry is already lazy on the read
	// path, the sweep just keeps the table tidy.
	sweepCronSpec = "* * * * *"

	// Recurring templates are date-granular; the hourly pass catches
	// templates created due same-day without waiting for midnight.
	recurringCronSpec = "5 * * * *"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, cache.NoopCache{})

	sweepTask, err := jobs.NewReservationSweepTask(jobs.ReservationSweepPayload{Limit: cfg.ReservationSweepLimit})
	if err != nil {
		logger.Error("Failed to build sweep task", slog.String("error", err.Error()))
		os.Exit(1)
	}
	recurringTask, err := jobs.NewRecurringRunTask()
	if err != nil {
		logger.Error("Failed to build recurring task", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReservationSweep, Handler: jobs.NewReservationSweepHandler(serviceContainer.Reservation, logger)},
			{Type: jobs.TaskRecurringRun, Handler: jobs.NewRecurringRunHandler(serviceContainer.Recurring, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: sweepCronSpec, Task: sweepTask},
			{Spec: recurringCronSpec, Task: recurringTask},
		},
	})
	if err != nil {
		logger.Error("Failed to build worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Worker starting", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Worker stopped.")
}
