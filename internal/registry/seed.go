package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// seedDevice is the config-file shape of a device entry under "devices".
type seedDevice struct {
	SerialNumber string `mapstructure:"serial_number"`
	Name         string `mapstructure:"name"`
	Address      string `mapstructure:"address"`
	Model        string `mapstructure:"model"`
	Branch       string `mapstructure:"branch"`
	Community    string `mapstructure:"community"`
	SNMPVersion  string `mapstructure:"snmp_version"`
}

// SeedFromConfig inserts devices declared in the config file into the
// roster. Entries whose serial number already exists are skipped, so the
// config acts as a declarative baseline rather than an overwrite.
func SeedFromConfig(ctx context.Context, v *viper.Viper, s *DeviceStore, logger *zap.Logger) error {
	var entries []seedDevice
	if err := v.UnmarshalKey("devices", &entries); err != nil {
		return fmt.Errorf("unmarshal devices config: %w", err)
	}

	for _, e := range entries {
		if e.SerialNumber == "" || e.Address == "" {
			logger.Warn("skipping device entry without serial_number or address",
				zap.String("name", e.Name),
			)
			continue
		}

		existing, err := s.GetDeviceBySerial(ctx, e.SerialNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if e.Community == "" {
			e.Community = "public"
		}
		if e.SNMPVersion == "" {
			e.SNMPVersion = "2c"
		}

		d := &Device{
			ID:           uuid.NewString(),
			SerialNumber: e.SerialNumber,
			Name:         e.Name,
			Address:      e.Address,
			Model:        e.Model,
			Branch:       e.Branch,
			Status:       StatusUnknown,
			Community:    e.Community,
			SNMPVersion:  e.SNMPVersion,
			LastUpdated:  time.Now().UTC(),
		}
		if err := s.InsertDevice(ctx, d); err != nil {
			return err
		}
		logger.Info("device seeded from config",
			zap.String("device_id", d.ID),
			zap.String("serial", d.SerialNumber),
			zap.String("address", d.Address),
		)
	}
	return nil
}
