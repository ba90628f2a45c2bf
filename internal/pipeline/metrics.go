package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resmeter_transport_messages_total",
			Help: "Messages accepted from a transport, by source.",
		},
		[]string{"source"}, // samples, fixes, serial
	)
	messagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resmeter_transport_messages_rejected_total",
			Help: "Messages that could not be decoded, by source.",
		},
		[]string{"source"},
	)
	statusClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resmeter_status_clients",
		Help: "Connected websocket status subscribers.",
	})
	statusDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resmeter_status_dropped_total",
		Help: "Status updates dropped for slow websocket subscribers.",
	})
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resmeter_api_requests_total",
			Help: "Control API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)
