package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/export"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// ErrAborted is returned by ExportAll when a missing graph stops the run
// under the "abort" policy.
var ErrAborted = errors.New("export run aborted")

// Rejection is one (Result, Polarity) export that did not reach the instrument.
type Rejection struct {
	Key      domain.QualifiedKey
	Polarity domain.Polarity
	Err      error
}

// Report summarises an ExportAll run.
type Report struct {
	Exported int
	Skipped  int
	Dropped  int
	Rejected []Rejection
}

// Exporter validates limits and pushes them through the gateway, then writes
// what the instrument accepted to the ledger. Stored results are never
// modified by an export.
type Exporter struct {
	gw       ports.Gateway
	ledger   ports.ExportLedger
	q        ports.ExportQueue
	val      *export.Validator
	pol      ports.Policy
	obs      ports.Observability
	notifier ports.Notifier
	now      func() time.Time
	nextID   ports.JobID
}

func NewExporter(gw ports.Gateway, ledger ports.ExportLedger, q ports.ExportQueue, pol ports.Policy, obs ports.Observability, notifier ports.Notifier) *Exporter {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &Exporter{
		gw:       gw,
		ledger:   ledger,
		q:        q,
		val:      export.NewValidator(pol.ElideLeadingZero, obs),
		pol:      pol,
		obs:      obs,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetApplyToAll switches whether channel 0's XY curve is sent to every channel.
func (x *Exporter) SetApplyToAll(on bool) { x.pol.ApplyToAll = on }

// Export pushes polarity p of r. A disabled polarity is skipped with a log
// line and no error.
func (x *Exporter) Export(r *domain.Result, p domain.Polarity) error {
	if r == nil {
		return &domain.NotFoundError{Kind: domain.ResultNotFound}
	}
	if !r.Enabled(p) {
		x.skipDisabled(r, p)
		return nil
	}
	if err := x.exportOne(r, p); err != nil {
		x.reject(r, p, err)
		return err
	}
	return nil
}

// ExportAll queues one job per enabled polarity of every result and drains
// the queue in order. Rejected jobs are reported and the run continues,
// except for a missing graph under the "abort" policy, which drops the jobs
// still queued and returns ErrAborted alongside the report.
func (x *Exporter) ExportAll(results []*domain.Result) (Report, error) {
	var rep Report

	for _, r := range results {
		for _, p := range []domain.Polarity{domain.Upper, domain.Lower} {
			if !r.Enabled(p) {
				x.skipDisabled(r, p)
				rep.Skipped++
				continue
			}
			x.nextID++
			job := ports.ExportJob{ID: x.nextID, Result: r, Polarity: p}
			for !x.q.Enqueue(job) {
				if err := x.drain(&rep); err != nil {
					return rep, err
				}
			}
			x.obs.SetGauge(ports.GaugeQueueLength, float64(x.q.Len()))
		}
	}

	for x.q.Len() > 0 {
		if err := x.drain(&rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (x *Exporter) drain(rep *Report) error {
	batch := x.q.DequeueBatch(x.pol.MaxBatchSize)
	defer x.obs.SetGauge(ports.GaugeQueueLength, float64(x.q.Len()))

	for i, job := range batch {
		err := x.exportOne(job.Result, job.Polarity)
		if err == nil {
			rep.Exported++
			continue
		}
		x.reject(job.Result, job.Polarity, err)
		rep.Rejected = append(rep.Rejected, Rejection{Key: job.Result.Key(), Polarity: job.Polarity, Err: err})

		if x.pol.OnGraphMissing == "abort" && errors.Is(err, domain.ErrGraphNotFound) {
			dropped := len(batch) - i - 1 + len(x.q.DequeueBatch(0))
			rep.Dropped += dropped
			x.obs.IncCounter(ports.MetricQueueDropped, float64(dropped))
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
	}
	return nil
}

func (x *Exporter) exportOne(r *domain.Result, p domain.Polarity) error {
	start := time.Now()

	payload, err := x.val.Prepare(r, p, x.pol.ApplyToAll)
	if err != nil {
		if kind, ok := domain.ValidationKindOf(err); ok {
			x.notifier.ValidationFailed(kind)
		}
		return err
	}
	if len(payload.Channels) == 0 {
		x.obs.LogInfo("export_nothing_to_send",
			ports.Field{Key: "key", Value: string(payload.Key)},
			ports.Field{Key: "polarity", Value: p.String()},
		)
		return nil
	}

	if err := x.gw.ShowMeasurement(payload.SignalPathIndex, payload.MeasurementIndex); err != nil {
		return fmt.Errorf("show measurement %d/%d: %w", payload.SignalPathIndex, payload.MeasurementIndex, err)
	}
	g, err := x.gw.Graph(payload.ResultName)
	if err != nil {
		return fmt.Errorf("graph %q: %w", payload.ResultName, err)
	}
	if !graphMatches(g, payload.ValueType) {
		return &domain.NotFoundError{Kind: domain.GraphNotFound, Name: fmt.Sprintf("%s (%s)", payload.ResultName, payload.ValueType)}
	}

	for _, ch := range payload.Channels {
		if payload.ValueType == domain.ValueTypeMeter {
			err = g.SetLimitMeter(p, ch.Channel, ch.Value)
		} else {
			err = g.SetLimitXY(p, ch.Channel, ch.X, ch.Y)
		}
		if err != nil {
			return fmt.Errorf("set %s limit channel %d: %w", p, ch.Channel, err)
		}
	}

	records := payload.Records(x.now())
	if x.ledger != nil {
		if err := x.ledger.Record(records); err != nil {
			x.obs.LogError("ledger_record_failed", err, ports.Field{Key: "ledger", Value: x.ledger.Name()})
		} else {
			x.obs.IncCounter(ports.MetricLedgerRecords, float64(len(records)))
		}
	}

	x.obs.ObserveLatency(ports.HistExportLatency, time.Since(start).Seconds())
	x.obs.IncCounter(ports.MetricExports, 1)
	return nil
}

func graphMatches(g ports.Graph, vt domain.ValueType) bool {
	if vt == domain.ValueTypeMeter {
		return g.IsMeterGraph()
	}
	return g.IsXYGraph()
}

func (x *Exporter) skipDisabled(r *domain.Result, p domain.Polarity) {
	x.obs.IncCounter(ports.MetricExportSkipped, 1)
	x.obs.LogInfo("export_skipped_disabled",
		ports.Field{Key: "key", Value: string(r.Key())},
		ports.Field{Key: "polarity", Value: p.String()},
	)
}

func (x *Exporter) reject(r *domain.Result, p domain.Polarity, err error) {
	x.obs.IncCounter(ports.MetricExportRejected, 1)
	x.obs.RecordRejected(r.Key(), p, err)
}
