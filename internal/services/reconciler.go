package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler periodically recounts every job's candidates. The cached
// candidateCount projection is eventually consistent; this closes the
// window left by concurrent creates racing the post-create recount.
type Reconciler struct {
	cron   *cron.Cron
	jobs   *JobService
	logger *zap.Logger
}

func NewReconciler(jobs *JobService, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		cron:   cron.New(),
		jobs:   jobs,
		logger: logger,
	}
}

// Start schedules reconciliation using a cron spec such as "@every 5m".
func (r *Reconciler) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		start := time.Now()
		if err := r.jobs.ReconcileCandidateCounts(ctx); err != nil {
			r.logger.Error("candidate count reconciliation run failed", zap.Error(err))
			return
		}
		r.logger.Debug("candidate counts reconciled", zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("count reconciler started", zap.String("schedule", schedule))
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
