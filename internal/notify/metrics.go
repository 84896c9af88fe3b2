package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	notificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_notifications_sent_total",
		Help: "Alert emails delivered successfully.",
	})
	notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_notifications_failed_total",
		Help: "Alert email deliveries that failed.",
	})
)

func init() {
	prometheus.MustRegister(notificationsSent, notificationsFailed)
}
