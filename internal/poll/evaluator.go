package poll

import (
	"fmt"
	"strings"

	"github.com/fleetmon/fleetmon/internal/registry"
)

// Evaluator derives alert conditions from a status transition and the
// metrics of a freshly captured sample. It is a pure function of its
// inputs: the caller supplies previous as the device's cached status read
// before this cycle's update.
type Evaluator struct {
	CPUThreshold         float64
	TemperatureThreshold float64
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cpuThreshold, temperatureThreshold float64) *Evaluator {
	return &Evaluator{
		CPUThreshold:         cpuThreshold,
		TemperatureThreshold: temperatureThreshold,
	}
}

// Evaluate applies the alert rules independently and concatenates the
// resulting messages. Absent metrics never trigger: a fetch failure is
// not an alert condition.
func (e *Evaluator) Evaluate(previous, next registry.Status, m registry.Metrics) (bool, string) {
	var parts []string

	if previous != registry.StatusDown && next == registry.StatusDown {
		parts = append(parts, "device is down")
	}
	if m.CPUUsage != nil && *m.CPUUsage > e.CPUThreshold {
		parts = append(parts, fmt.Sprintf("high CPU usage (%.1f%%)", *m.CPUUsage))
	}
	if m.Temperature != nil && *m.Temperature > e.TemperatureThreshold {
		parts = append(parts, fmt.Sprintf("high temperature (%.1f°C)", *m.Temperature))
	}

	if len(parts) == 0 {
		return false, ""
	}
	return true, strings.Join(parts, "; ")
}
