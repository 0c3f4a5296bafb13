package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Maintenance runs the periodic analytics jobs: retention cleanup and
// pruning of the collect limiter.
type Maintenance struct {
	scheduler gocron.Scheduler
	store     *Store
	handler   *Handler
	retention time.Duration
	log       *zap.Logger
}

// StartMaintenance schedules retention cleanup once a day (first run
// immediately) and limiter pruning every minute. retentionDays <= 0
// disables cleanup.
func StartMaintenance(store *Store, h *Handler, retentionDays int, log *zap.Logger) (*Maintenance, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	m := &Maintenance{
		scheduler: s,
		store:     store,
		handler:   h,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log.Named("analytics"),
	}

	if retentionDays > 0 {
		if _, err := s.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(m.cleanup),
			gocron.WithName("analytics-retention"),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule retention job: %w", err)
		}
	}
	if h != nil {
		if _, err := s.NewJob(
			gocron.DurationJob(h.collectLimiter.window),
			gocron.NewTask(h.collectLimiter.prune),
			gocron.WithName("analytics-limiter-prune"),
		); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule limiter job: %w", err)
		}
	}

	s.Start()
	return m, nil
}

func (m *Maintenance) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cutoff := time.Now().Add(-m.retention)
	n, err := m.store.CleanupOldVisits(ctx, cutoff)
	if err != nil {
		m.log.Error("retention cleanup", zap.Error(err))
		return
	}
	m.log.Info("retention cleanup", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *Maintenance) Stop() error {
	return m.scheduler.Shutdown()
}
