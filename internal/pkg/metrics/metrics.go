package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickgate_ticks_total",
		Help: "The total number of normalized quotes received per venue",
	}, []string{"venue"})

	NBBOUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickgate_nbbo_updates_total",
		Help: "NBBO aggregate emissions per symbol",
	}, []string{"symbol"})

	FeedReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickgate_feed_reconnects_total",
		Help: "Websocket reconnection attempts per venue",
	}, []string{"venue"})

	FeedUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tickgate_feed_up",
		Help: "1 when the venue connection is established, 0 otherwise",
	}, []string{"venue"})

	ShutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickgate_feed_shutdown_errors_total",
		Help: "Feed shutdown tasks that completed with an error",
	}, []string{"feed"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tickgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
