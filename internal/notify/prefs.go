// Package notify matches alert events to subscribed operators and sends
// email within each operator's configured notification hours.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fleetmon/fleetmon/internal/store"
)

// Preference is one operator's notification configuration. Hours are in
// the dispatcher's reporting time zone, 0-23. ResendIntervalMinutes is
// the minimum gap between two notifications for the same device to the
// same operator; zero disables the guard.
type Preference struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Emails                []string  `json:"emails"`
	Hours                 []int     `json:"hours"`
	ResendIntervalMinutes int       `json:"resend_interval_minutes"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// InHours reports whether the given hour is in the preference's window.
func (p *Preference) InHours(hour int) bool {
	for _, h := range p.Hours {
		if h == hour {
			return true
		}
	}
	return false
}

// Migrations returns the schema migrations for notification preferences.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create notification preferences table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS notification_preferences (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL UNIQUE,
					emails TEXT NOT NULL,
					hours TEXT NOT NULL,
					resend_interval_minutes INTEGER NOT NULL DEFAULT 30,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`)
				return err
			},
		},
	}
}

// PrefStore provides database access to notification preferences. The
// user-facing configuration surface writes them; the dispatcher only
// reads.
type PrefStore struct {
	db *sql.DB
}

// NewPrefStore creates a PrefStore backed by the given database.
func NewPrefStore(db *sql.DB) *PrefStore {
	return &PrefStore{db: db}
}

// Upsert inserts or replaces the preference for a user.
func (s *PrefStore) Upsert(ctx context.Context, p *Preference) error {
	emailsJSON, err := json.Marshal(p.Emails)
	if err != nil {
		return fmt.Errorf("marshal emails: %w", err)
	}
	hoursJSON, err := json.Marshal(p.Hours)
	if err != nil {
		return fmt.Errorf("marshal hours: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (
			id, user_id, emails, hours, resend_interval_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			emails = excluded.emails,
			hours = excluded.hours,
			resend_interval_minutes = excluded.resend_interval_minutes,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, string(emailsJSON), string(hoursJSON),
		p.ResendIntervalMinutes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// List returns all notification preferences.
func (s *PrefStore) List(ctx context.Context) ([]Preference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, emails, hours, resend_interval_minutes, created_at, updated_at
		FROM notification_preferences ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var p Preference
		var emailsJSON, hoursJSON string
		if err := rows.Scan(
			&p.ID, &p.UserID, &emailsJSON, &hoursJSON,
			&p.ResendIntervalMinutes, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan preference row: %w", err)
		}
		if err := json.Unmarshal([]byte(emailsJSON), &p.Emails); err != nil {
			return nil, fmt.Errorf("unmarshal emails: %w", err)
		}
		if err := json.Unmarshal([]byte(hoursJSON), &p.Hours); err != nil {
			return nil, fmt.Errorf("unmarshal hours: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Delete removes the preference for a user.
func (s *PrefStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notification_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
