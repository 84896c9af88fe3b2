// Package registry maintains the device fleet roster: identity, network
// address, SNMP credentials, and the per-device cached status and metric
// values overwritten by each poll cycle.
package registry

import "time"

// Status is the cached reachability state of a device.
type Status string

const (
	StatusUp      Status = "Up"
	StatusDown    Status = "Down"
	StatusUnknown Status = "Unknown"
)

// Valid reports whether s is one of the three enumerated statuses.
func (s Status) Valid() bool {
	return s == StatusUp || s == StatusDown || s == StatusUnknown
}

// Metrics holds the four optional gauge values collected from a device.
// A nil field means the metric could not be fetched this cycle.
type Metrics struct {
	CPUUsage    *float64 `json:"cpu_usage,omitempty"`   // percent
	Temperature *float64 `json:"temperature,omitempty"` // degrees Celsius
	Latency     *float64 `json:"latency,omitempty"`     // milliseconds
	Bandwidth   *float64 `json:"bandwidth,omitempty"`   // Mbps
}

// Device is one monitored network device. Address and SerialNumber are
// unique within the fleet. The metric fields are a derived cache holding
// the last-known values; the sample history is the source of truth.
type Device struct {
	ID           string    `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Model        string    `json:"model,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	Status       Status    `json:"status"`
	Maintenance  bool      `json:"maintenance"`
	Community    string    `json:"community"`
	SNMPVersion  string    `json:"snmp_version"` // "1", "2c", or "3"
	Metrics      Metrics   `json:"metrics"`
	LastUpdated  time.Time `json:"last_updated"`
}
