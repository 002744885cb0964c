package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

var _ ports.Observability = (*PromObs)(nil)

// PromObs logs through zap and keeps Prometheus metrics keyed by the names
// in ports. Metric names it does not know are ignored.
type PromObs struct {
	log      *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer and a nil logger discards log output.
func NewPromObs(log *zap.Logger, reg prometheus.Registerer) (*PromObs, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	exports := counter(ports.MetricExports, "Limit exports accepted by the instrument.")
	rejected := counter(ports.MetricExportRejected, "Limit exports rejected by validation or the gateway.")
	skipped := counter(ports.MetricExportSkipped, "Limit exports skipped because the polarity is disabled.")
	dropped := counter(ports.MetricQueueDropped, "Queued exports dropped when a run was aborted.")
	ledger := counter(ports.MetricLedgerRecords, "Channel limits written to the export ledger.")
	remove := counter(ports.MetricReconcileRemove, "Family entries resolved by removal.")
	add := counter(ports.MetricReconcileAdd, "Family entries resolved by adding a placeholder result.")
	match := counter(ports.MetricReconcileMatch, "Family entries resolved by matching a live result.")
	applied := counter(ports.MetricReconcileApplied, "Live results updated from a loaded family.")

	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.GaugeQueueLength,
		Help: "Current number of exports waiting in the queue.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.HistExportLatency,
		Help:    "Time from validation to the last channel write of one export.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	for _, c := range []prometheus.Collector{exports, rejected, skipped, dropped, ledger, remove, add, match, applied, queueGauge, latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PromObs{
		log: log,
		counters: map[string]prometheus.Counter{
			ports.MetricExports:          exports,
			ports.MetricExportRejected:   rejected,
			ports.MetricExportSkipped:    skipped,
			ports.MetricQueueDropped:     dropped,
			ports.MetricLedgerRecords:    ledger,
			ports.MetricReconcileRemove:  remove,
			ports.MetricReconcileAdd:     add,
			ports.MetricReconcileMatch:   match,
			ports.MetricReconcileApplied: applied,
		},
		gauges: map[string]prometheus.Gauge{
			ports.GaugeQueueLength: queueGauge,
		},
		histos: map[string]prometheus.Observer{
			ports.HistExportLatency: latency,
		},
	}, nil
}

// Logger returns the underlying zap logger.
func (p *PromObs) Logger() *zap.Logger { return p.log }

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(zapFields(fields), zap.Error(err), zap.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordRejected(key domain.QualifiedKey, pol domain.Polarity, err error) {
	p.log.Warn("export_rejected",
		zap.String("key", string(key)),
		zap.Stringer("polarity", pol),
		zap.Error(err),
	)
}

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
