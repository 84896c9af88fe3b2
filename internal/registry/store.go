package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DeviceStore provides database access to the device roster.
type DeviceStore struct {
	db *sql.DB
}

// NewDeviceStore creates a DeviceStore backed by the given database.
func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

const deviceColumns = `id, serial_number, name, address, model, branch, status,
	maintenance, community, snmp_version, cpu_usage, temperature, latency,
	bandwidth, last_updated`

// InsertDevice inserts a new device into the roster.
func (s *DeviceStore) InsertDevice(ctx context.Context, d *Device) error {
	maintenance := 0
	if d.Maintenance {
		maintenance = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (
			id, serial_number, name, address, model, branch, status,
			maintenance, community, snmp_version, cpu_usage, temperature,
			latency, bandwidth, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SerialNumber, d.Name, d.Address, d.Model, d.Branch,
		string(d.Status), maintenance, d.Community, d.SNMPVersion,
		nullFloat(d.Metrics.CPUUsage), nullFloat(d.Metrics.Temperature),
		nullFloat(d.Metrics.Latency), nullFloat(d.Metrics.Bandwidth),
		d.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// GetDevice returns a device by ID. Returns nil, nil if not found.
func (s *DeviceStore) GetDevice(ctx context.Context, id string) (*Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

// GetDeviceBySerial returns a device by serial number. Returns nil, nil if not found.
func (s *DeviceStore) GetDeviceBySerial(ctx context.Context, serial string) (*Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE serial_number = ?`, serial)
	d, err := scanDevice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get device by serial: %w", err)
	}
	return d, nil
}

// ListDevices returns the full fleet ordered by serial number.
func (s *DeviceStore) ListDevices(ctx context.Context) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY serial_number`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// UpdateStatusAndMetrics overwrites a device's cached status and last-known
// metric values in one statement. Called once per device per poll cycle.
func (s *DeviceStore) UpdateStatusAndMetrics(ctx context.Context, id string, status Status, m Metrics, at time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("invalid device status %q", status)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE devices SET status = ?, cpu_usage = ?, temperature = ?,
			latency = ?, bandwidth = ?, last_updated = ?
		WHERE id = ?`,
		string(status), nullFloat(m.CPUUsage), nullFloat(m.Temperature),
		nullFloat(m.Latency), nullFloat(m.Bandwidth), at, id,
	)
	if err != nil {
		return fmt.Errorf("update device status: %w", err)
	}
	return nil
}

// SetMaintenance toggles a device's maintenance flag.
func (s *DeviceStore) SetMaintenance(ctx context.Context, id string, maintenance bool) error {
	m := 0
	if maintenance {
		m = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE devices SET maintenance = ? WHERE id = ?`, m, id)
	if err != nil {
		return fmt.Errorf("set maintenance: %w", err)
	}
	return nil
}

// DeleteDevice removes a device from the roster.
func (s *DeviceStore) DeleteDevice(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (*Device, error) {
	var d Device
	var status string
	var maintenance int
	var cpu, temp, lat, bw sql.NullFloat64
	err := row.Scan(
		&d.ID, &d.SerialNumber, &d.Name, &d.Address, &d.Model, &d.Branch,
		&status, &maintenance, &d.Community, &d.SNMPVersion,
		&cpu, &temp, &lat, &bw, &d.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	d.Maintenance = maintenance != 0
	d.Metrics.CPUUsage = floatPtr(cpu)
	d.Metrics.Temperature = floatPtr(temp)
	d.Metrics.Latency = floatPtr(lat)
	d.Metrics.Bandwidth = floatPtr(bw)
	return &d, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
