package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProbesTotal      *prometheus.CounterVec
	ProbeDuration    *prometheus.HistogramVec
	ReadingsIngested *prometheus.CounterVec
	IngestFailures   *prometheus.CounterVec
	BusPublishErrors prometheus.Counter
)

func Init(subsystem string) {
	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iot",
			Subsystem: subsystem,
			Name:      "probes_total",
			Help:      fmt.Sprintf("Health probes issued by %s, by service and status", subsystem),
		},
		[]string{"service", "status"},
	)

	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iot",
			Subsystem: subsystem,
			Name:      "probe_duration_seconds",
			Help:      fmt.Sprintf("Health probe round-trip time in %s", subsystem),
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	ReadingsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iot",
			Subsystem: subsystem,
			Name:      "readings_ingested_total",
			Help:      fmt.Sprintf("Sensor readings persisted by %s", subsystem),
		},
		[]string{"topic"},
	)

	IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iot",
			Subsystem: subsystem,
			Name:      "ingest_failures_total",
			Help:      fmt.Sprintf("Messages %s dropped during ingestion", subsystem),
		},
		[]string{"topic", "reason"},
	)

	BusPublishErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "iot",
			Subsystem: subsystem,
			Name:      "bus_publish_errors_total",
			Help:      fmt.Sprintf("Fire-and-forget publishes that failed in %s", subsystem),
		},
	)

	prometheus.MustRegister(ProbesTotal, ProbeDuration, ReadingsIngested, IngestFailures, BusPublishErrors)
}

func StartServer(port string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			panic("metrics server failed: " + err.Error())
		}
	}()
}
