package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_messages_received",
	Help: "Number of message create events received from the gateway",
})

var messagesFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_messages_failed",
	Help: "Number of messages automod failed to process",
})

var handlersInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "aegis_handlers_inflight",
	Help: "Number of message handlers currently running",
})
