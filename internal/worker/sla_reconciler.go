package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/service"
)

const reconcileLockKey = "helpdesk:sla:reconcile"

// Sweeper runs one SLA reconciliation pass.
type Sweeper interface {
	ReconcileNow(ctx context.Context) (*service.ReconcileResult, error)
}

// Locker grants a short-lived lock so only one replica sweeps per tick.
type Locker interface {
	Enabled() bool
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, func(context.Context) error, error)
}

// SLAReconciler periodically refreshes cached SLA statuses.
type SLAReconciler struct {
	sweeper  Sweeper
	locker   Locker
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	lockTTL  time.Duration
}

// NewSLAReconciler builds a reconciler. locker and metrics may be nil.
func NewSLAReconciler(sweeper Sweeper, locker Locker, metrics *observability.Metrics, logger *zap.Logger, interval, lockTTL time.Duration) *SLAReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = interval
	}
	return &SLAReconciler{
		sweeper:  sweeper,
		locker:   locker,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Start runs the reconciler on its own goroutine. The returned channel is
// closed once Run has returned, which includes any sweep still in flight
// when ctx was cancelled.
func (r *SLAReconciler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return done
}

// Run sweeps once per interval until ctx is cancelled.
func (r *SLAReconciler) Run(ctx context.Context) {
	r.logger.Info("sla reconciler started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("sla reconciler stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs a single sweep, guarded by the distributed lock when one
// is configured. Failures are logged and retried on the next tick.
func (r *SLAReconciler) Tick(ctx context.Context) {
	start := time.Now()

	if r.locker != nil && r.locker.Enabled() {
		acquired, release, err := r.locker.TryLock(ctx, reconcileLockKey, r.lockTTL)
		if err != nil {
			r.logger.Warn("sla reconcile lock failed", zap.Error(err))
			r.metrics.RecordSweep(observability.SweepResultFailure, 0, time.Since(start))
			return
		}
		if !acquired {
			r.logger.Debug("sla reconcile skipped, lock held elsewhere")
			r.metrics.RecordSweep(observability.SweepResultSkipped, 0, time.Since(start))
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("sla reconcile unlock failed", zap.Error(err))
			}
		}()
	}

	result, err := r.sweeper.ReconcileNow(ctx)
	if err != nil {
		r.logger.Warn("sla reconcile failed", zap.Error(err))
		r.metrics.RecordSweep(observability.SweepResultFailure, 0, time.Since(start))
		return
	}
	r.metrics.RecordSweep(observability.SweepResultSuccess, result.Updated, time.Since(start))
}
