package poll

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/registry"
)

func TestICMPProber_MalformedAddress(t *testing.T) {
	p := NewICMPProber(100*time.Millisecond, zap.NewNop())
	if got := p.Probe(context.Background(), ""); got != registry.StatusUnknown {
		t.Errorf("Probe(\"\") = %q, want Unknown for a malformed address", got)
	}
}
