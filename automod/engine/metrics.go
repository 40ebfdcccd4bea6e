package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "automod_message_duration_sec",
	Help: "Total duration of automod message processing",
}, []string{"decision"})

var messageProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_message_processed",
	Help: "Number of messages processed, by decision",
}, []string{"decision"})

var messageSkipCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_message_skipped",
	Help: "Number of messages exempt from automod",
}, []string{"reason"})

var messageErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_message_errors",
	Help: "Number of messages which failed processing",
}, []string{"stage"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_actions",
	Help: "Number of moderation actions completed",
}, []string{"action"})

var actionErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_action_errors",
	Help: "Number of moderation actions abandoned part-way",
}, []string{"action"})

var notifyErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_notify_errors",
	Help: "Number of failed mod-log notifications",
})
