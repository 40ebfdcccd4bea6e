package configcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_config_cache_hits",
	Help: "Number of guild config lookups served from cache",
})

var cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_config_cache_misses",
	Help: "Number of guild config lookups that went to the store",
})

var cacheErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_config_cache_errors",
	Help: "Number of failed guild config loads",
})
