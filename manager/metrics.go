package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queuedGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "runagent",
		Name:      "queued_requests",
		Help:      "Chat requests waiting for a concurrency slot.",
	}, []string{"model"})

	processingGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "runagent",
		Name:      "processing_requests",
		Help:      "Chat requests currently calling the upstream agent.",
	}, []string{"model"})
)
