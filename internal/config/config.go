// Package config loads the fleetmon configuration via Viper and builds
// the process-wide zap logger from it.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig builds a Viper instance with fleetmon defaults applied and,
// when present, values from a YAML config file layered on top. If
// configPath is empty, "fleetmon.yaml" is searched in the working
// directory, ./configs, and /etc/fleetmon.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.dsn", "./data/fleetmon.db")
	v.SetDefault("metrics.addr", ":9153")

	// Polling pipeline defaults
	v.SetDefault("poll.interval", "300s")
	v.SetDefault("poll.ping_timeout", "2s")
	v.SetDefault("poll.snmp_timeout", "2s")
	v.SetDefault("poll.snmp_retries", 1)
	v.SetDefault("poll.snmp_port", 161)
	v.SetDefault("poll.max_workers", 50)
	v.SetDefault("poll.cpu_threshold", 90.0)
	v.SetDefault("poll.temperature_threshold", 80.0)
	v.SetDefault("poll.retention_period", "720h")
	v.SetDefault("poll.retention_interval", "24h")
	v.SetDefault("poll.oid_cpu_usage", "1.3.6.1.4.1.2021.11.10.0")
	v.SetDefault("poll.oid_temperature", "1.3.6.1.4.1.2021.13.16.0")
	v.SetDefault("poll.oid_latency", "1.3.6.1.2.1.31.1.1.1.10.1")
	v.SetDefault("poll.oid_bandwidth", "1.3.6.1.2.1.31.1.1.1.15.1")

	// Notification defaults
	v.SetDefault("notify.timezone", "UTC")
	v.SetDefault("notify.subject_prefix", "Alert for ")
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.from", "fleetmon@localhost")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fleetmon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/fleetmon")
	}

	// Environment variable support: FM_POLL_INTERVAL=60s
	v.SetEnvPrefix("FM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
