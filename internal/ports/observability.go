package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	RecordRejected(key domain.QualifiedKey, p domain.Polarity, err error)
}

type Field struct {
	Key   string
	Value any
}

// Metric names understood by the Prometheus adapter. Unknown names are ignored.
const (
	MetricExports          = "lyceum_exports_total"
	MetricExportRejected   = "lyceum_export_rejected_total"
	MetricExportSkipped    = "lyceum_export_skipped_total"
	MetricQueueDropped     = "lyceum_export_queue_dropped_total"
	MetricLedgerRecords    = "lyceum_ledger_records_total"
	MetricReconcileRemove  = "lyceum_reconcile_remove_total"
	MetricReconcileAdd     = "lyceum_reconcile_add_total"
	MetricReconcileMatch   = "lyceum_reconcile_match_total"
	MetricReconcileApplied = "lyceum_reconcile_applied_total"

	GaugeQueueLength = "lyceum_export_queue_length"

	HistExportLatency = "lyceum_export_latency_seconds"
)
