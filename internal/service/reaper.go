package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredSessionDeleter is the part of the session store the reaper needs.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper periodically deletes expired session rows.
type Reaper struct {
	store         ExpiredSessionDeleter
	interval      time.Duration
	deleteTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger
}

// NewReaper constructs a Reaper. deleteTimeout bounds a single deletion, including one
// still running when shutdown starts; zero means the interval.
func NewReaper(store ExpiredSessionDeleter, interval, deleteTimeout time.Duration, log *zap.Logger) *Reaper {
	if deleteTimeout <= 0 {
		deleteTimeout = interval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reaper{
		store:         store,
		interval:      interval,
		deleteTimeout: deleteTimeout,
		now:           time.Now,
		log:           log,
	}
}

// Run deletes expired sessions every interval until ctx is cancelled.
// A deletion in flight when ctx is cancelled runs to completion or to deleteTimeout.
func (r *Reaper) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("session reaper started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("session reaper stopped")
			return nil
		case <-t.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deleteTimeout)
	defer cancel()

	start := time.Now()
	n, err := r.store.DeleteExpired(dctx, r.now())
	if err != nil {
		r.log.Error("delete expired sessions", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("expired sessions deleted", zap.Int64("count", n), zap.Duration("dur", time.Since(start)))
	}
}
