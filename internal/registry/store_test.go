package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/store"
)

func testStore(t *testing.T) *DeviceStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, "registry", Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDeviceStore(db.DB())
}

func testDevice(id, serial, addr string) *Device {
	return &Device{
		ID:           id,
		SerialNumber: serial,
		Name:         "switch-" + serial,
		Address:      addr,
		Status:       StatusUnknown,
		Community:    "public",
		SNMPVersion:  "2c",
		LastUpdated:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestInsertDevice_AndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	d := testDevice("dev-1", "SN-001", "192.168.1.10")
	if err := s.InsertDevice(ctx, d); err != nil {
		t.Fatalf("InsertDevice: %v", err)
	}

	got, err := s.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got == nil {
		t.Fatal("GetDevice returned nil, want device")
	}
	if got.SerialNumber != "SN-001" {
		t.Errorf("SerialNumber = %q, want %q", got.SerialNumber, "SN-001")
	}
	if got.Status != StatusUnknown {
		t.Errorf("Status = %q, want %q", got.Status, StatusUnknown)
	}
	if got.Metrics.CPUUsage != nil {
		t.Errorf("CPUUsage = %v, want nil", *got.Metrics.CPUUsage)
	}
}

func TestInsertDevice_DuplicateAddressRejected(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertDevice(ctx, testDevice("dev-1", "SN-001", "192.168.1.10")); err != nil {
		t.Fatalf("first InsertDevice: %v", err)
	}
	err := s.InsertDevice(ctx, testDevice("dev-2", "SN-002", "192.168.1.10"))
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate address")
	}
}

func TestUpdateStatusAndMetrics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertDevice(ctx, testDevice("dev-1", "SN-001", "192.168.1.10")); err != nil {
		t.Fatalf("InsertDevice: %v", err)
	}

	cpu := 42.5
	at := time.Now().UTC().Truncate(time.Second)
	err := s.UpdateStatusAndMetrics(ctx, "dev-1", StatusUp, Metrics{CPUUsage: &cpu}, at)
	if err != nil {
		t.Fatalf("UpdateStatusAndMetrics: %v", err)
	}

	got, err := s.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.Status != StatusUp {
		t.Errorf("Status = %q, want %q", got.Status, StatusUp)
	}
	if got.Metrics.CPUUsage == nil || *got.Metrics.CPUUsage != 42.5 {
		t.Errorf("CPUUsage = %v, want 42.5", got.Metrics.CPUUsage)
	}
	// Absent metrics overwrite the cache with NULL.
	if got.Metrics.Temperature != nil {
		t.Errorf("Temperature = %v, want nil", *got.Metrics.Temperature)
	}
}

func TestUpdateStatusAndMetrics_RejectsInvalidStatus(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.UpdateStatusAndMetrics(ctx, "dev-1", Status("Flapping"), Metrics{}, time.Now())
	if err == nil || !strings.Contains(err.Error(), "invalid device status") {
		t.Fatalf("err = %v, want invalid status error", err)
	}
}

func TestSetMaintenance(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertDevice(ctx, testDevice("dev-1", "SN-001", "192.168.1.10")); err != nil {
		t.Fatalf("InsertDevice: %v", err)
	}
	if err := s.SetMaintenance(ctx, "dev-1", true); err != nil {
		t.Fatalf("SetMaintenance: %v", err)
	}

	got, err := s.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if !got.Maintenance {
		t.Error("Maintenance = false, want true")
	}
}

func TestSeedFromConfig(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v := viper.New()
	v.Set("devices", []map[string]any{
		{"serial_number": "SN-100", "name": "edge-1", "address": "10.0.0.1"},
		{"serial_number": "SN-101", "name": "edge-2", "address": "10.0.0.2", "community": "private"},
		{"name": "no-serial", "address": "10.0.0.3"}, // skipped
	})

	if err := SeedFromConfig(ctx, v, s, zap.NewNop()); err != nil {
		t.Fatalf("SeedFromConfig: %v", err)
	}

	devices, err := s.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}

	// Seeding again must not duplicate.
	if err := SeedFromConfig(ctx, v, s, zap.NewNop()); err != nil {
		t.Fatalf("second SeedFromConfig: %v", err)
	}
	devices, err = s.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("len(devices) after reseed = %d, want 2", len(devices))
	}
}
