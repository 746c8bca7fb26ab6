package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskReservationSweep expires stale checkout holds.
	TaskReservationSweep = "reservation:sweep"

	// TaskRecurringRun generates entries from due recurring templates.
	TaskRecurringRun = "recurring:run"
)

// SystemActor is stamped on audit fields for scheduler-driven writes.
const SystemActor = "scheduler"

// ReservationSweepPayload bounds one sweep pass.
type ReservationSweepPayload struct {
	Limit int `json:"limit"`
}

// NewReservationSweepTask constructs the sweep task.
func NewReservationSweepTask(payload ReservationSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationSweep, data), nil
}

// NewReservationSweepHandler processes TaskReservationSweep tasks.
func NewReservationSweepHandler(reservationSvc portssvc.ReservationSvcFacade, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReservationSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Limit <= 0 {
			payload.Limit = 500
		}

		ctx = middleware.WithLogger(ctx, logger.With(slog.String("task", TaskReservationSweep)))
		swept, err := reservationSvc.SweepExpired(ctx, payload.Limit)
		if err != nil {
			return err
		}
		if swept > 0 {
			logger.Info("Reservation sweep pass complete", slog.Int64("swept", swept))
		}
		return nil
	}
}

// RecurringRunPayload carries nothing today; the run examines everything due
// at execution time.
type RecurringRunPayload struct{}

// NewRecurringRunTask constructs the recurring run task.
func NewRecurringRunTask() (*asynq.Task, error) {
	data, err := json.Marshal(RecurringRunPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecurringRun, data), nil
}

// NewRecurringRunHandler processes TaskRecurringRun tasks.
func NewRecurringRunHandler(recurringSvc portssvc.RecurringSvcFacade, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		ctx = middleware.WithLogger(ctx, logger.With(slog.String("task", TaskRecurringRun)))
		summary, err := recurringSvc.RunDue(ctx, time.Now().UTC(), SystemActor)
		if err != nil {
			return err
		}
		logger.Info("Recurring run pass complete",
			slog.Int("examined", summary.Examined),
			slog.Int("posted", summary.Posted),
			slog.Int("drafted", summary.Drafted),
			slog.Int("skipped", summary.Skipped))
		return nil
	}
}
