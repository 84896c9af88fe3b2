package poll

import "time"

// Config holds the polling pipeline settings. Values map onto the "poll"
// section of the config file.
type Config struct {
	Interval             time.Duration `mapstructure:"interval"`
	PingTimeout          time.Duration `mapstructure:"ping_timeout"`
	SNMPTimeout          time.Duration `mapstructure:"snmp_timeout"`
	SNMPRetries          int           `mapstructure:"snmp_retries"`
	SNMPPort             uint16        `mapstructure:"snmp_port"`
	MaxWorkers           int           `mapstructure:"max_workers"`
	CPUThreshold         float64       `mapstructure:"cpu_threshold"`
	TemperatureThreshold float64       `mapstructure:"temperature_threshold"`
	RetentionPeriod      time.Duration `mapstructure:"retention_period"`
	RetentionInterval    time.Duration `mapstructure:"retention_interval"`
	OIDCPUUsage          string        `mapstructure:"oid_cpu_usage"`
	OIDTemperature       string        `mapstructure:"oid_temperature"`
	OIDLatency           string        `mapstructure:"oid_latency"`
	OIDBandwidth         string        `mapstructure:"oid_bandwidth"`
}

// DefaultConfig returns the polling defaults. The OIDs target the UCD-SNMP
// and IF-MIB objects the fleet's devices expose.
func DefaultConfig() Config {
	return Config{
		Interval:             300 * time.Second,
		PingTimeout:          2 * time.Second,
		SNMPTimeout:          2 * time.Second,
		SNMPRetries:          1,
		SNMPPort:             161,
		MaxWorkers:           50,
		CPUThreshold:         90,
		TemperatureThreshold: 80,
		RetentionPeriod:      30 * 24 * time.Hour,
		RetentionInterval:    24 * time.Hour,
		OIDCPUUsage:          "1.3.6.1.4.1.2021.11.10.0",
		OIDTemperature:       "1.3.6.1.4.1.2021.13.16.0",
		OIDLatency:           "1.3.6.1.2.1.31.1.1.1.10.1",
		OIDBandwidth:         "1.3.6.1.2.1.31.1.1.1.15.1",
	}
}

// OIDs returns the configured metric OID set.
func (c Config) OIDs() OIDSet {
	return OIDSet{
		CPUUsage:    c.OIDCPUUsage,
		Temperature: c.OIDTemperature,
		Latency:     c.OIDLatency,
		Bandwidth:   c.OIDBandwidth,
	}
}

// DeviceBudget is the wall-clock deadline for one device's poll: the ping
// timeout plus the worst case for four metric fetches, with some slack.
// A worker past this deadline is abandoned and its device recorded Unknown.
func (c Config) DeviceBudget() time.Duration {
	perFetch := c.SNMPTimeout * time.Duration(c.SNMPRetries+1)
	return c.PingTimeout + 4*perFetch + time.Second
}
