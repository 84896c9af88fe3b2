package poll

import (
	"context"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// Prober determines a device's reachability. Implementations must return
// within the configured timeout plus a small constant; there are no
// retries at this layer.
type Prober interface {
	// Probe returns Up if the address answered a liveness probe, Down if
	// it did not within the timeout, and Unknown only for a malformed
	// address or a prober-internal error.
	Probe(ctx context.Context, address string) registry.Status
}

// ICMPProber probes reachability with a single ICMP echo.
type ICMPProber struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewICMPProber creates an ICMP prober with the given per-probe timeout.
func NewICMPProber(timeout time.Duration, logger *zap.Logger) *ICMPProber {
	return &ICMPProber{timeout: timeout, logger: logger}
}

func (p *ICMPProber) Probe(ctx context.Context, address string) registry.Status {
	pinger, err := probing.NewPinger(address)
	if err != nil {
		p.logger.Debug("failed to create pinger", zap.String("address", address), zap.Error(err))
		return registry.StatusUnknown
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	// Run with context for cancellation support.
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		runErr = pinger.Run()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		pinger.Stop()
		<-done
	}

	if runErr != nil {
		// Socket or resolver failure, not an unanswered probe.
		p.logger.Debug("ping failed", zap.String("address", address), zap.Error(runErr))
		return registry.StatusUnknown
	}

	if pinger.Statistics().PacketsRecv > 0 {
		return registry.StatusUp
	}
	return registry.StatusDown
}
