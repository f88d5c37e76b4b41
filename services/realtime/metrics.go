package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sceneminds",
		Subsystem: "realtime",
		Name:      "active_connections",
		Help:      "Currently registered subscriber connections.",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sceneminds",
		Subsystem: "realtime",
		Name:      "broadcasts_total",
		Help:      "Messages broadcast to subscribers.",
	})

	reapedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sceneminds",
		Subsystem: "realtime",
		Name:      "reaped_connections_total",
		Help:      "Connections force-closed for idleness.",
	})

	droppedTasks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sceneminds",
		Subsystem: "realtime",
		Name:      "dropped_tasks_total",
		Help:      "Dispatch tasks dropped because the dispatcher was stopped or saturated.",
	})

	commandTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sceneminds",
		Subsystem: "realtime",
		Name:      "command_timeouts_total",
		Help:      "Host commands that hit their deadline unanswered.",
	})
)
