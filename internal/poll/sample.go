package poll

import (
	"time"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// Sample is one immutable measurement record for one device, produced
// exactly once per poll cycle. Metrics are independently optional because
// each fetch can fail on its own. Samples are never updated in place;
// retention pruning is the only destructor.
type Sample struct {
	ID             int64            `json:"id"`
	DeviceID       string           `json:"device_id"`
	CapturedAt     time.Time        `json:"captured_at"`
	Status         registry.Status  `json:"status"`
	Metrics        registry.Metrics `json:"metrics"`
	AlertTriggered bool             `json:"alert_triggered"`
	AlertMessage   string           `json:"alert_message,omitempty"`
}
