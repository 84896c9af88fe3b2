package poll

import (
	"testing"
	"time"
)

func TestDeviceBudget(t *testing.T) {
	cfg := Config{
		PingTimeout: 2 * time.Second,
		SNMPTimeout: 2 * time.Second,
		SNMPRetries: 1,
	}
	// 2s ping + 4 metrics * (2s * 2 attempts) + 1s slack.
	want := 19 * time.Second
	if got := cfg.DeviceBudget(); got != want {
		t.Errorf("DeviceBudget() = %v, want %v", got, want)
	}

	noRetries := Config{
		PingTimeout: time.Second,
		SNMPTimeout: time.Second,
		SNMPRetries: 0,
	}
	want = 6 * time.Second
	if got := noRetries.DeviceBudget(); got != want {
		t.Errorf("DeviceBudget() with no retries = %v, want %v", got, want)
	}
}

func TestConfigOIDs(t *testing.T) {
	cfg := DefaultConfig()
	oids := cfg.OIDs()
	if oids.CPUUsage != cfg.OIDCPUUsage || oids.Temperature != cfg.OIDTemperature ||
		oids.Latency != cfg.OIDLatency || oids.Bandwidth != cfg.OIDBandwidth {
		t.Errorf("OIDs() = %+v, does not match config", oids)
	}
	if oids.CPUUsage == "" {
		t.Error("default CPU OID must not be empty")
	}
}
