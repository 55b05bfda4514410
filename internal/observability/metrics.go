package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	bridgeCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "bridge",
		Name:      "calls_total",
		Help:      "Number of bridge operations grouped by operation and outcome.",
	}, []string{"operation", "outcome"})

	lastReadGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "healthbridge",
		Subsystem: "bridge",
		Name:      "last_read_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful read per record type.",
	}, []string{"record_type"})

	lastIngestGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "healthbridge",
		Subsystem: "store",
		Name:      "last_record_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record written to the device store.",
	}, []string{"record_type"})
)

func init() {
	prometheus.MustRegister(bridgeCallCounter, lastReadGauge, lastIngestGauge)
}

// RecordBridgeCall counts one bridge operation.
func RecordBridgeCall(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	bridgeCallCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordReadWatermark updates the read watermark gauge for a record type.
func RecordReadWatermark(recordType string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastReadGauge.WithLabelValues(recordType).Set(float64(ts.Unix()))
}

// RecordIngestWatermark updates the store write watermark gauge.
func RecordIngestWatermark(recordType string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastIngestGauge.WithLabelValues(recordType).Set(float64(ts.Unix()))
}
