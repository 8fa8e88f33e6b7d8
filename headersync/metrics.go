package headersync

import (
	"github.com/go-kit/kit/metrics"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "headersync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of header requests sent, by sync mode.
	RequestsSent metrics.Counter

	// Number of headers accepted into staged batches.
	HeadersAccepted metrics.Counter

	// Number of response elements that failed to decode or validate.
	InvalidHeaders metrics.Counter

	// Number of responses cut short by a continuity break.
	ChainBreaks metrics.Counter

	// Number of batches staged in the pending store.
	BatchesStaged metrics.Counter

	// Number of accepted batches dropped because the pending store was busy.
	BatchesDropped metrics.Counter

	// Number of batches waiting in the pending store.
	PendingBatches metrics.Gauge

	// Number of connected peers.
	Peers metrics.Gauge

	// Number of peers whose outstanding request exceeded the stall timeout.
	StalledPeers metrics.Gauge

	// Observed import rate (headers per second).
	SyncSpeed metrics.Gauge

	// Whether or not a node is header syncing. 1 if yes, 0 if no.
	Syncing metrics.Gauge
}
