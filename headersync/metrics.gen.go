package headersync

import (
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		RequestsSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "requests_sent",
			Help:      "Number of header requests sent, by sync mode.",
		}, append(labels, "mode")).With(labelsAndValues...),
		HeadersAccepted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "headers_accepted",
			Help:      "Number of headers accepted into staged batches.",
		}, labels).With(labelsAndValues...),
		InvalidHeaders: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "invalid_headers",
			Help:      "Number of response elements that failed to decode or validate.",
		}, labels).With(labelsAndValues...),
		ChainBreaks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "chain_breaks",
			Help:      "Number of responses cut short by a continuity break.",
		}, labels).With(labelsAndValues...),
		BatchesStaged: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_staged",
			Help:      "Number of batches staged in the pending store.",
		}, labels).With(labelsAndValues...),
		BatchesDropped: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_dropped",
			Help:      "Number of accepted batches dropped because the pending store was busy.",
		}, labels).With(labelsAndValues...),
		PendingBatches: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_batches",
			Help:      "Number of batches waiting in the pending store.",
		}, labels).With(labelsAndValues...),
		Peers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "peers",
			Help:      "Number of connected peers.",
		}, labels).With(labelsAndValues...),
		StalledPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "stalled_peers",
			Help:      "Number of peers whose outstanding request exceeded the stall timeout.",
		}, labels).With(labelsAndValues...),
		SyncSpeed: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sync_speed",
			Help:      "Observed import rate (headers per second).",
		}, labels).With(labelsAndValues...),
		Syncing: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "syncing",
			Help:      "Whether or not a node is header syncing. 1 if yes, 0 if no.",
		}, labels).With(labelsAndValues...),
	}
}

func NopMetrics() *Metrics {
	return &Metrics{
		RequestsSent:    discard.NewCounter(),
		HeadersAccepted: discard.NewCounter(),
		InvalidHeaders:  discard.NewCounter(),
		ChainBreaks:     discard.NewCounter(),
		BatchesStaged:   discard.NewCounter(),
		BatchesDropped:  discard.NewCounter(),
		PendingBatches:  discard.NewGauge(),
		Peers:           discard.NewGauge(),
		StalledPeers:    discard.NewGauge(),
		SyncSpeed:       discard.NewGauge(),
		Syncing:         discard.NewGauge(),
	}
}
