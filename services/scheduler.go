package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the background jobs: opening registrations whose date has
// come and looking for started tournaments without a bracket snapshot. It
// never records results.
type Scheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

type SchedulerConfig struct {
	Interval           time.Duration
	SnapshotAutoRepair bool
}

func NewScheduler(tournaments TournamentService, cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, logger: logger}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func(ctx context.Context) {
			opened, err := tournaments.AutoOpenRegistrations(ctx)
			if err != nil {
				logger.Error("[Scheduler] registration opener failed", slog.Any("error", err))
			}
			if opened > 0 {
				logger.Info("[Scheduler] registrations opened", slog.Int("count", opened))
			}
		}),
		gocron.WithName("open-registrations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule registration opener: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func(ctx context.Context) {
			missing, err := tournaments.CheckSnapshots(ctx, cfg.SnapshotAutoRepair)
			if err != nil {
				logger.Error("[Scheduler] snapshot check failed", slog.Any("error", err))
				return
			}
			if len(missing) > 0 {
				logger.Warn("[Scheduler] tournaments without bracket snapshot",
					slog.Int("count", len(missing)),
					slog.Bool("repair", cfg.SnapshotAutoRepair))
			}
		}),
		gocron.WithName("check-snapshots"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule snapshot check: %w", err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.sched.Jobs())))
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
