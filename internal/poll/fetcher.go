package poll

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// Target identifies one SNMP endpoint and its credentials.
type Target struct {
	Address   string
	Community string
	Version   string // "1" or "2c"
}

// MetricClient is the abstract metric query capability. A failed query
// returns an error; the value is only meaningful when err is nil.
type MetricClient interface {
	Query(ctx context.Context, target Target, oid string) (float64, error)
}

// OIDSet names the OID for each of the four fleet metrics.
type OIDSet struct {
	CPUUsage    string
	Temperature string
	Latency     string
	Bandwidth   string
}

// SNMPClient queries single OIDs over SNMP using gosnmp.
type SNMPClient struct {
	port    uint16
	timeout time.Duration
	retries int
}

// NewSNMPClient creates a client with the given per-query timeout and
// transport-level retry count.
func NewSNMPClient(port uint16, timeout time.Duration, retries int) *SNMPClient {
	return &SNMPClient{port: port, timeout: timeout, retries: retries}
}

func (c *SNMPClient) Query(ctx context.Context, target Target, oid string) (float64, error) {
	g := &gosnmp.GoSNMP{
		Target:    target.Address,
		Port:      c.port,
		Community: target.Community,
		Timeout:   c.timeout,
		Retries:   c.retries,
		Context:   ctx,
	}

	switch target.Version {
	case "1":
		g.Version = gosnmp.Version1
	case "2c", "":
		g.Version = gosnmp.Version2c
	default:
		return 0, fmt.Errorf("%w: unsupported SNMP version %q", ErrConfiguration, target.Version)
	}

	if err := g.Connect(); err != nil {
		return 0, fmt.Errorf("%w: connect %s: %v", ErrTransport, target.Address, err)
	}
	defer func() { _ = g.Conn.Close() }()

	result, err := g.Get([]string{oid})
	if err != nil {
		if strings.Contains(err.Error(), "timeout") {
			return 0, fmt.Errorf("%w: %s %s", ErrTransportTimeout, target.Address, oid)
		}
		return 0, fmt.Errorf("%w: get %s %s: %v", ErrTransport, target.Address, oid, err)
	}
	if len(result.Variables) == 0 {
		return 0, fmt.Errorf("%w: empty response for %s", ErrTransport, oid)
	}

	return pduToFloat(result.Variables[0])
}

// pduToFloat converts an SNMP PDU value to a float64. Non-numeric values
// (and NoSuchObject/NoSuchInstance responses) yield ErrNotNumeric.
func pduToFloat(pdu gosnmp.SnmpPDU) (float64, error) {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, pdu.Type)

	case gosnmp.OctetString:
		// Some agents expose gauges as decimal strings.
		s := strings.TrimSpace(string(pdu.Value.([]byte)))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
		}
		return v, nil

	case gosnmp.OpaqueFloat:
		return float64(pdu.Value.(float32)), nil

	case gosnmp.OpaqueDouble:
		return pdu.Value.(float64), nil

	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Counter64,
		gosnmp.Gauge32, gosnmp.Uinteger32, gosnmp.TimeTicks:
		return float64(gosnmp.ToBigInt(pdu.Value).Int64()), nil

	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, pdu.Type)
	}
}

// Fetcher retrieves the four fleet metrics for a device, isolating
// failure per metric: one failed fetch never aborts the others.
type Fetcher struct {
	client MetricClient
	oids   OIDSet
	logger *zap.Logger
}

// NewFetcher creates a Fetcher over the given metric client.
func NewFetcher(client MetricClient, oids OIDSet, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, oids: oids, logger: logger}
}

// FetchAll queries the four metrics for a device independently. Absent
// fields in the returned Metrics mean that fetch failed; that is a valid
// outcome, not an error.
func (f *Fetcher) FetchAll(ctx context.Context, d registry.Device) registry.Metrics {
	target := Target{Address: d.Address, Community: d.Community, Version: d.SNMPVersion}

	return registry.Metrics{
		CPUUsage:    f.fetchOne(ctx, target, d.ID, "cpu_usage", f.oids.CPUUsage),
		Temperature: f.fetchOne(ctx, target, d.ID, "temperature", f.oids.Temperature),
		Latency:     f.fetchOne(ctx, target, d.ID, "latency", f.oids.Latency),
		Bandwidth:   f.fetchOne(ctx, target, d.ID, "bandwidth", f.oids.Bandwidth),
	}
}

func (f *Fetcher) fetchOne(ctx context.Context, target Target, deviceID, metric, oid string) *float64 {
	if ctx.Err() != nil {
		return nil
	}
	v, err := f.client.Query(ctx, target, oid)
	if err != nil {
		metricFetchFailures.WithLabelValues(metric).Inc()
		f.logger.Debug("metric fetch failed",
			zap.String("device_id", deviceID),
			zap.String("metric", metric),
			zap.Error(err),
		)
		return nil
	}
	return &v
}
