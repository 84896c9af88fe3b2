package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Retention prunes samples past the retention horizon on its own, longer
// schedule, independent of the polling cycle.
type Retention struct {
	samples  *SampleStore
	period   time.Duration
	interval time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetention creates a retention job keeping `period` of history and
// running every `interval`.
func NewRetention(samples *SampleStore, period, interval time.Duration, logger *zap.Logger) *Retention {
	return &Retention{
		samples:  samples,
		period:   period,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the pruning loop. Returns without blocking.
func (r *Retention) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(r.ctx); err != nil {
					r.logger.Warn("retention pruning failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop signals the job to stop and waits for completion.
func (r *Retention) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// RunOnce prunes samples older than the retention horizon and returns the
// number deleted. Idempotent: a second run over the same data deletes
// nothing.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-r.period)
	deleted, err := r.samples.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		samplesPruned.Add(float64(deleted))
		r.logger.Info("pruned old samples",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}
