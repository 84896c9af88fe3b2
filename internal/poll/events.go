package poll

import "time"

// Event topics published by the polling pipeline.
const (
	TopicAlertTriggered = "poll.alert.triggered"
	TopicCycleCompleted = "poll.cycle.completed"
)

// AlertEvent is the payload published on TopicAlertTriggered. It lives for
// one poll cycle; the alert flag and message are also persisted on the
// device's Sample for history.
type AlertEvent struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// CycleSummary is the payload published on TopicCycleCompleted.
type CycleSummary struct {
	Devices  int           `json:"devices"`
	Alerts   int           `json:"alerts"`
	Duration time.Duration `json:"duration"`
}
