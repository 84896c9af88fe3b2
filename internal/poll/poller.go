package poll

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/event"
	"github.com/fleetmon/fleetmon/internal/registry"
)

// Poller drives periodic full-fleet poll cycles: for every device it
// probes reachability, fetches the four metrics, evaluates alert rules,
// appends a Sample, and overwrites the device's cached status. Per-device
// work runs on a bounded worker pool; a cycle always produces exactly one
// Sample per device.
type Poller struct {
	devices *registry.DeviceStore
	samples *SampleStore
	prober  Prober
	fetcher *Fetcher
	eval    *Evaluator
	bus     *event.Bus
	cfg     Config
	logger  *zap.Logger

	inFlight atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPoller wires the polling pipeline together.
func NewPoller(devices *registry.DeviceStore, samples *SampleStore, prober Prober, fetcher *Fetcher, bus *event.Bus, cfg Config, logger *zap.Logger) *Poller {
	return &Poller{
		devices: devices,
		samples: samples,
		prober:  prober,
		fetcher: fetcher,
		eval:    NewEvaluator(cfg.CPUThreshold, cfg.TemperatureThreshold),
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start begins the polling loop: one cycle immediately, then one per
// interval. Returns without blocking; call Stop to shut down.
func (p *Poller) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		p.runCycleLogged()

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
				p.runCycleLogged()
			}
		}
	}()
}

// Stop signals the poller to stop and waits for the in-flight cycle.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Poller) runCycleLogged() {
	if err := p.RunCycle(p.ctx); err != nil {
		p.logger.Error("poll cycle failed", zap.Error(err))
	}
}

// RunCycle executes one full-fleet poll cycle. If a previous cycle is
// still in flight the new trigger is skipped with a warning rather than
// queued, bounding memory and connection growth. Only a roster load
// failure aborts a cycle; per-device failures are isolated.
func (p *Poller) RunCycle(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		pollCyclesSkipped.Inc()
		p.logger.Warn("previous poll cycle still running, skipping this trigger")
		return nil
	}
	defer p.inFlight.Store(false)

	started := time.Now()

	devices, err := p.devices.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: load device roster: %v", ErrConfiguration, err)
	}
	if len(devices) == 0 {
		p.logger.Debug("no devices registered, nothing to poll")
		return nil
	}

	workers := p.cfg.MaxWorkers
	if workers <= 0 || workers > len(devices) {
		workers = len(devices)
	}

	// Semaphore-based worker pool.
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var alerts atomic.Int64

dispatch:
	for i := range devices {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(d registry.Device) {
			defer wg.Done()
			defer func() { <-sem }()
			if p.pollDevice(ctx, d) {
				alerts.Add(1)
			}
		}(devices[i])
	}
	wg.Wait()

	elapsed := time.Since(started)
	pollCyclesTotal.Inc()
	pollCycleDuration.Observe(elapsed.Seconds())

	p.logger.Info("poll cycle completed",
		zap.Int("devices", len(devices)),
		zap.Int64("alerts", alerts.Load()),
		zap.Duration("elapsed", elapsed),
	)
	if elapsed > p.cfg.Interval {
		p.logger.Warn("poll cycle exceeded interval, fleet or timeouts may be too large",
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", p.cfg.Interval),
		)
	}

	if p.bus != nil {
		p.bus.PublishAsync(ctx, event.Event{
			Topic:     TopicCycleCompleted,
			Source:    "poll",
			Timestamp: time.Now().UTC(),
			Payload: CycleSummary{
				Devices:  len(devices),
				Alerts:   int(alerts.Load()),
				Duration: elapsed,
			},
		})
	}
	return nil
}

// pollDevice runs one device's probe-fetch-evaluate-store pipeline and
// reports whether an alert was triggered. Errors are logged, never
// returned: a cycle's contract is a best-effort Sample for every device.
func (p *Poller) pollDevice(ctx context.Context, d registry.Device) bool {
	devicesPolled.Inc()

	// previous_status is the cached value from before this cycle's
	// update; the evaluator's down-transition rule depends on it.
	previous := d.Status

	status, metrics := p.collect(ctx, d)

	triggered, message := p.eval.Evaluate(previous, status, metrics)
	if triggered && d.Maintenance {
		// Devices under maintenance are still sampled, but never alert.
		p.logger.Debug("alert suppressed by maintenance flag",
			zap.String("device_id", d.ID),
			zap.String("message", message),
		)
		triggered, message = false, ""
	}

	now := time.Now().UTC()
	sample := &Sample{
		DeviceID:       d.ID,
		CapturedAt:     now,
		Status:         status,
		Metrics:        metrics,
		AlertTriggered: triggered,
		AlertMessage:   message,
	}
	if err := p.samples.AppendSample(ctx, sample); err != nil {
		p.logger.Warn("failed to append sample",
			zap.String("device_id", d.ID),
			zap.Error(err),
		)
	}

	// The sample is appended before the cache is overwritten so the
	// history never reflects a status the evaluator did not see.
	if err := p.devices.UpdateStatusAndMetrics(ctx, d.ID, status, metrics, now); err != nil {
		p.logger.Warn("failed to update device cache",
			zap.String("device_id", d.ID),
			zap.Error(err),
		)
	}

	if triggered {
		alertsTriggered.Inc()
		p.logger.Warn("alert triggered",
			zap.String("device_id", d.ID),
			zap.String("device_name", d.Name),
			zap.String("message", message),
		)
		if p.bus != nil {
			p.bus.PublishAsync(ctx, event.Event{
				Topic:     TopicAlertTriggered,
				Source:    "poll",
				Timestamp: now,
				Payload: AlertEvent{
					DeviceID:   d.ID,
					DeviceName: d.Name,
					Message:    message,
					Timestamp:  now,
				},
			})
		}
	}
	return triggered
}

// collect probes reachability and fetches metrics under the per-device
// deadline. A device that exceeds its budget is abandoned: partial
// results are discarded and its status recorded as Unknown.
func (p *Poller) collect(ctx context.Context, d registry.Device) (registry.Status, registry.Metrics) {
	budget := p.cfg.DeviceBudget()
	dctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		status  registry.Status
		metrics registry.Metrics
	}
	done := make(chan result, 1)

	go func() {
		var r result
		r.status = p.prober.Probe(dctx, d.Address)
		r.metrics = p.fetcher.FetchAll(dctx, d)
		done <- r
	}()

	select {
	case r := <-done:
		return r.status, r.metrics
	case <-dctx.Done():
		devicesAbandoned.Inc()
		p.logger.Warn("device poll abandoned after deadline",
			zap.String("device_id", d.ID),
			zap.String("address", d.Address),
			zap.Duration("budget", budget),
		)
		return registry.StatusUnknown, registry.Metrics{}
	}
}
