package poll

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// fakeMetricClient serves canned per-OID values or errors.
type fakeMetricClient struct {
	mu     sync.Mutex
	values map[string]float64
	errs   map[string]error
	calls  []string
}

func (c *fakeMetricClient) Query(_ context.Context, _ Target, oid string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, oid)
	if err, ok := c.errs[oid]; ok {
		return 0, err
	}
	if v, ok := c.values[oid]; ok {
		return v, nil
	}
	return 0, ErrTransport
}

func testOIDs() OIDSet {
	return OIDSet{
		CPUUsage:    "1.1",
		Temperature: "1.2",
		Latency:     "1.3",
		Bandwidth:   "1.4",
	}
}

func testFetchDevice() registry.Device {
	return registry.Device{
		ID:          "dev-1",
		Address:     "192.0.2.1",
		Community:   "public",
		SNMPVersion: "2c",
	}
}

func TestFetchAll_AllPresent(t *testing.T) {
	client := &fakeMetricClient{values: map[string]float64{
		"1.1": 55, "1.2": 40, "1.3": 12.5, "1.4": 940,
	}}
	f := NewFetcher(client, testOIDs(), zap.NewNop())

	m := f.FetchAll(context.Background(), testFetchDevice())

	if m.CPUUsage == nil || *m.CPUUsage != 55 {
		t.Errorf("CPUUsage = %v, want 55", m.CPUUsage)
	}
	if m.Latency == nil || *m.Latency != 12.5 {
		t.Errorf("Latency = %v, want 12.5", m.Latency)
	}
	if len(client.calls) != 4 {
		t.Errorf("client calls = %d, want 4", len(client.calls))
	}
}

func TestFetchAll_FailureIsolatedPerMetric(t *testing.T) {
	client := &fakeMetricClient{
		values: map[string]float64{"1.1": 55, "1.3": 12.5, "1.4": 940},
		errs:   map[string]error{"1.2": ErrTransportTimeout},
	}
	f := NewFetcher(client, testOIDs(), zap.NewNop())

	m := f.FetchAll(context.Background(), testFetchDevice())

	if m.Temperature != nil {
		t.Errorf("Temperature = %v, want nil after fetch failure", *m.Temperature)
	}
	// The other three metrics must be unaffected.
	if m.CPUUsage == nil || m.Latency == nil || m.Bandwidth == nil {
		t.Errorf("metrics = %+v, want cpu/latency/bandwidth present", m)
	}
	if len(client.calls) != 4 {
		t.Errorf("client calls = %d, want 4 (no early abort)", len(client.calls))
	}
}

func TestFetchAll_AllFailedYieldsEmptyMetrics(t *testing.T) {
	client := &fakeMetricClient{errs: map[string]error{
		"1.1": ErrTransport, "1.2": ErrTransport, "1.3": ErrTransport, "1.4": ErrTransport,
	}}
	f := NewFetcher(client, testOIDs(), zap.NewNop())

	m := f.FetchAll(context.Background(), testFetchDevice())

	if m.CPUUsage != nil || m.Temperature != nil || m.Latency != nil || m.Bandwidth != nil {
		t.Errorf("metrics = %+v, want all absent", m)
	}
}

func TestFetchAll_CanceledContextSkipsQueries(t *testing.T) {
	client := &fakeMetricClient{values: map[string]float64{"1.1": 55}}
	f := NewFetcher(client, testOIDs(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := f.FetchAll(ctx, testFetchDevice())

	if len(client.calls) != 0 {
		t.Errorf("client calls = %d, want 0 after cancellation", len(client.calls))
	}
	if m.CPUUsage != nil {
		t.Error("metrics must be absent after cancellation")
	}
}

func TestSNMPClient_RejectsUnsupportedVersion(t *testing.T) {
	c := NewSNMPClient(161, 0, 0)
	_, err := c.Query(context.Background(), Target{Address: "192.0.2.1", Version: "3"}, "1.1")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestPDUToFloat(t *testing.T) {
	tests := []struct {
		name    string
		pdu     gosnmp.SnmpPDU
		want    float64
		wantErr bool
	}{
		{
			name: "integer",
			pdu:  gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 42},
			want: 42,
		},
		{
			name: "gauge32",
			pdu:  gosnmp.SnmpPDU{Type: gosnmp.Gauge32, Value: uint(87)},
			want: 87,
		},
		{
			name: "numeric string",
			pdu:  gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("36.5")},
			want: 36.5,
		},
		{
			name:    "non-numeric string",
			pdu:     gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("FastEthernet0/1")},
			wantErr: true,
		},
		{
			name:    "no such object",
			pdu:     gosnmp.SnmpPDU{Type: gosnmp.NoSuchObject},
			wantErr: true,
		},
		{
			name: "opaque float",
			pdu:  gosnmp.SnmpPDU{Type: gosnmp.OpaqueFloat, Value: float32(1.5)},
			want: 1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pduToFloat(tt.pdu)
			if tt.wantErr {
				if !errors.Is(err, ErrNotNumeric) {
					t.Fatalf("err = %v, want ErrNotNumeric", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("pduToFloat: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}
