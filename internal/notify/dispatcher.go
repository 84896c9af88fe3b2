package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/event"
	"github.com/fleetmon/fleetmon/internal/poll"
)

// Dispatcher delivers alert events to every email address of every
// operator whose notification-hours window contains the current hour.
// The reference clock and time zone are injected so the hour check is
// deterministic under test, never ambient machine-local time.
type Dispatcher struct {
	prefs         *PrefStore
	mailer        Mailer
	location      *time.Location
	now           func() time.Time
	subjectPrefix string
	logger        *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time // device_id + "\x00" + user_id -> last successful send
}

// NewDispatcher creates a dispatcher evaluating notification windows in
// the given location. If now is nil, time.Now is used.
func NewDispatcher(prefs *PrefStore, mailer Mailer, location *time.Location, now func() time.Time, subjectPrefix string, logger *zap.Logger) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &Dispatcher{
		prefs:         prefs,
		mailer:        mailer,
		location:      location,
		now:           now,
		subjectPrefix: subjectPrefix,
		logger:        logger,
		lastSent:      make(map[string]time.Time),
	}
}

// Subscribe registers the dispatcher on the bus for alert events.
// Returns the unsubscribe function.
func (d *Dispatcher) Subscribe(bus *event.Bus) func() {
	return bus.Subscribe(poll.TopicAlertTriggered, d.HandleAlertEvent)
}

// HandleAlertEvent is the bus handler for poll.TopicAlertTriggered.
func (d *Dispatcher) HandleAlertEvent(ctx context.Context, e event.Event) {
	alert, ok := e.Payload.(poll.AlertEvent)
	if !ok {
		d.logger.Warn("unexpected payload type for alert event",
			zap.String("topic", e.Topic),
		)
		return
	}
	d.Dispatch(ctx, alert)
}

// Dispatch delivers one alert to all eligible recipients. A failure for
// one recipient never blocks delivery to the others.
func (d *Dispatcher) Dispatch(ctx context.Context, alert poll.AlertEvent) {
	prefs, err := d.prefs.List(ctx)
	if err != nil {
		d.logger.Warn("failed to load notification preferences", zap.Error(err))
		return
	}
	if len(prefs) == 0 {
		return
	}

	hour := d.now().In(d.location).Hour()
	subject := d.subjectPrefix + alert.DeviceName

	for i := range prefs {
		pref := &prefs[i]
		if !pref.InHours(hour) {
			continue
		}
		if d.recentlyNotified(alert.DeviceID, pref) {
			d.logger.Debug("notification suppressed by resend interval",
				zap.String("device_id", alert.DeviceID),
				zap.String("user_id", pref.UserID),
			)
			continue
		}

		delivered := false
		for _, email := range pref.Emails {
			if err := d.mailer.Send(ctx, email, subject, alert.Message); err != nil {
				notificationsFailed.Inc()
				d.logger.Warn("notification delivery failed",
					zap.String("device_id", alert.DeviceID),
					zap.String("user_id", pref.UserID),
					zap.String("email", email),
					zap.Error(err),
				)
				continue
			}
			notificationsSent.Inc()
			delivered = true
			d.logger.Debug("notification delivered",
				zap.String("device_id", alert.DeviceID),
				zap.String("email", email),
			)
		}
		if delivered {
			d.markNotified(alert.DeviceID, pref.UserID)
		}
	}
}

// recentlyNotified reports whether this (device, user) pair was notified
// within the preference's resend interval. State is in-memory only: a
// restart re-arms all guards, which errs on the side of notifying.
func (d *Dispatcher) recentlyNotified(deviceID string, pref *Preference) bool {
	if pref.ResendIntervalMinutes <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lastSent[deviceID+"\x00"+pref.UserID]
	if !ok {
		return false
	}
	return d.now().Sub(last) < time.Duration(pref.ResendIntervalMinutes)*time.Minute
}

func (d *Dispatcher) markNotified(deviceID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSent[deviceID+"\x00"+userID] = d.now()
}
