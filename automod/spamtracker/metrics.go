package spamtracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var trackedUsers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "automod_spam_tracked_users",
	Help: "Number of (guild, user) pairs currently tracked for message velocity",
})
