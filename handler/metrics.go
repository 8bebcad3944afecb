package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runagent",
		Name:      "chat_requests_total",
		Help:      "Chat requests by model slot and outcome.",
	}, []string{"model", "outcome"})

	upstreamSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "runagent",
		Name:      "upstream_duration_seconds",
		Help:      "Time spent waiting for the upstream agent, by model slot.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"model"})
)
