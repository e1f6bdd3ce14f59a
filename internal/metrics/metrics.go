package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the number of open websocket sessions.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Number of currently open websocket connections.",
	})

	// MessagesSent counts messages successfully persisted.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Total messages persisted by the dispatch pipeline.",
	})

	// MessagesDelivered counts messages pushed to a reachable recipient.
	MessagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_delivered_total",
		Help: "Total messages pushed live to a connected recipient.",
	})

	// MessagesFailed counts persistence failures reported back to senders.
	MessagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_failed_total",
		Help: "Total messages that failed to persist.",
	})
)
