package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	StructureLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "structscan",
			Subsystem: "structure",
			Name:      "latency_seconds",
			Help:      "Latency of structure endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	StructureErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "structscan",
			Subsystem: "structure",
			Name:      "errors_total",
			Help:      "Errors by structure endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(StructureLatency, StructureErrors)
	})
}
