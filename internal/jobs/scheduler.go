package jobs

import (
	"context"
	"fmt"
	"time"

	"videoearn/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Reconciler is the part of the reconcile service the scheduler drives.
type Reconciler interface {
	All(ctx context.Context) (*service.ReconcileSummary, error)
}

// Scheduler runs background jobs. Reconciliation runs daily on a cron
// expression evaluated in the business time zone.
type Scheduler struct {
	sched      gocron.Scheduler
	reconciler Reconciler
	timeout    time.Duration
	log        *logrus.Logger
}

func NewScheduler(reconciler Reconciler, loc *time.Location, log *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{sched: sched, reconciler: reconciler, timeout: 30 * time.Minute, log: log}, nil
}

// ScheduleReconcile registers the reconciliation job on a 5-field cron expression.
func (s *Scheduler) ScheduleReconcile(expr string) error {
	_, err := s.sched.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(s.RunReconcile),
		gocron.WithName("reconcile_balances"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", expr, err)
	}
	return nil
}

// RunReconcile runs one reconciliation pass.
func (s *Scheduler) RunReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	sum, err := s.reconciler.All(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled reconciliation failed")
		return
	}
	if sum.Drifted > 0 {
		s.log.WithField("drifted_ids", sum.DriftedIDs).Warn("accounts with balance drift")
	}
}

func (s *Scheduler) Start() { s.sched.Start() }

func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }
