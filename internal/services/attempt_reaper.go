package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AttemptReaper periodically cancels payment attempts whose page was
// abandoned without any terminal signal.
type AttemptReaper struct {
	payments *PaymentService
	interval time.Duration
	maxAge   time.Duration
	log      *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewAttemptReaper(payments *PaymentService, interval, maxAge time.Duration, log *zap.Logger) *AttemptReaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttemptReaper{
		payments: payments,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is done.
func (r *AttemptReaper) Start(ctx context.Context) {
	defer close(r.done)
	if r.interval <= 0 || r.maxAge <= 0 {
		r.log.Error("Attempt reaper not started: interval and max age must be positive",
			zap.Duration("interval", r.interval), zap.Duration("max_age", r.maxAge))
		return
	}
	r.log.Info("Attempt reaper started", zap.Duration("interval", r.interval), zap.Duration("max_age", r.maxAge))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *AttemptReaper) sweep(ctx context.Context) {
	n, err := r.payments.ExpirePending(ctx, r.maxAge)
	if err != nil {
		r.log.Error("Attempt sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("Expired abandoned payment attempts", zap.Int("count", n))
	}
}

// Stop ends the loop and waits for it to return.
func (r *AttemptReaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	<-r.done
}
