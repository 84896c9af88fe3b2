package poll

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// SampleStore provides append-only access to the sample history. The
// retention policy (DeleteSamplesBefore) is the only delete path.
type SampleStore struct {
	db *sql.DB
}

// NewSampleStore creates a SampleStore backed by the given database.
func NewSampleStore(db *sql.DB) *SampleStore {
	return &SampleStore{db: db}
}

// AppendSample inserts one sample. Samples from different devices may be
// appended concurrently; there is no cross-device locking.
func (s *SampleStore) AppendSample(ctx context.Context, sm *Sample) error {
	triggered := 0
	if sm.AlertTriggered {
		triggered = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (
			device_id, captured_at, status, cpu_usage, temperature,
			latency, bandwidth, alert_triggered, alert_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sm.DeviceID, sm.CapturedAt, string(sm.Status),
		nullFloat(sm.Metrics.CPUUsage), nullFloat(sm.Metrics.Temperature),
		nullFloat(sm.Metrics.Latency), nullFloat(sm.Metrics.Bandwidth),
		triggered, sm.AlertMessage,
	)
	if err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	sm.ID, _ = res.LastInsertId()
	return nil
}

// ListSamples returns samples for a device, newest first. If limit <= 0,
// defaults to 100.
func (s *SampleStore) ListSamples(ctx context.Context, deviceID string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, captured_at, status, cpu_usage, temperature,
			latency, bandwidth, alert_triggered, alert_message
		FROM samples WHERE device_id = ? ORDER BY captured_at DESC LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		sm, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		samples = append(samples, *sm)
	}
	return samples, rows.Err()
}

// LatestSample returns the most recent sample for a device. Returns
// nil, nil if the device has no history.
func (s *SampleStore) LatestSample(ctx context.Context, deviceID string) (*Sample, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, device_id, captured_at, status, cpu_usage, temperature,
			latency, bandwidth, alert_triggered, alert_message
		FROM samples WHERE device_id = ? ORDER BY captured_at DESC LIMIT 1`,
		deviceID,
	)
	sm, err := scanSample(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest sample: %w", err)
	}
	return sm, nil
}

// ListAlerts returns samples with a triggered alert captured after the
// given time, newest first.
func (s *SampleStore) ListAlerts(ctx context.Context, since time.Time) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, captured_at, status, cpu_usage, temperature,
			latency, bandwidth, alert_triggered, alert_message
		FROM samples WHERE alert_triggered = 1 AND captured_at >= ?
		ORDER BY captured_at DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		sm, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		samples = append(samples, *sm)
	}
	return samples, rows.Err()
}

// DeleteSamplesBefore deletes all samples older than cutoff and returns
// the number of rows removed. Deleting already-deleted rows is a no-op,
// so the pruning job is safe to run repeatedly or concurrently.
func (s *SampleStore) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM samples WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old samples: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (*Sample, error) {
	var sm Sample
	var status string
	var triggered int
	var cpu, temp, lat, bw sql.NullFloat64
	err := row.Scan(
		&sm.ID, &sm.DeviceID, &sm.CapturedAt, &status,
		&cpu, &temp, &lat, &bw, &triggered, &sm.AlertMessage,
	)
	if err != nil {
		return nil, err
	}
	sm.Status = registry.Status(status)
	sm.AlertTriggered = triggered != 0
	sm.Metrics.CPUUsage = floatPtr(cpu)
	sm.Metrics.Temperature = floatPtr(temp)
	sm.Metrics.Latency = floatPtr(lat)
	sm.Metrics.Bandwidth = floatPtr(bw)
	return &sm, nil
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
