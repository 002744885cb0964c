package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	obs, err := NewPromObs(nil, reg)
	if err != nil {
		t.Fatalf("new obs: %v", err)
	}

	obs.IncCounter(ports.MetricExports, 5)
	if got := testutil.ToFloat64(obs.counters[ports.MetricExports]); got != 5 {
		t.Fatalf("expected exports counter 5, got %f", got)
	}

	obs.IncCounter(ports.MetricQueueDropped, 2)
	if got := testutil.ToFloat64(obs.counters[ports.MetricQueueDropped]); got != 2 {
		t.Fatalf("expected queue drop counter 2, got %f", got)
	}

	obs.IncCounter("not_a_metric", 1)

	obs.SetGauge(ports.GaugeQueueLength, 42)
	if got := testutil.ToFloat64(obs.gauges[ports.GaugeQueueLength]); got != 42 {
		t.Fatalf("expected queue gauge 42, got %f", got)
	}

	obs.ObserveLatency(ports.HistExportLatency, 0.5)
	hCollector := obs.histos[ports.HistExportLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 11 {
		t.Fatalf("expected 11 registered metrics, got %d (err=%v)", n, err)
	}
}

func TestPromObsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromObs(nil, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromObs(nil, reg); err == nil {
		t.Fatalf("expected second registration on the same registry to fail")
	}
}

func TestPromObsLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs, err := NewPromObs(zap.New(core), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new obs: %v", err)
	}

	obs.LogInfo("export_skipped_disabled", ports.Field{Key: "key", Value: "SP|M|R"})
	obs.LogError("ledger_record_failed", errors.New("db down"))
	obs.RecordRejected("SP|M|R", domain.Lower, errors.New("graph missing"))

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["key"] != "SP|M|R" {
		t.Fatalf("expected key field, got %v", entries[0].ContextMap())
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["error"] != "db down" {
		t.Fatalf("unexpected error entry: %+v", entries[1])
	}
	rej := entries[2].ContextMap()
	if entries[2].Level != zapcore.WarnLevel || rej["polarity"] != "lower" {
		t.Fatalf("unexpected rejection entry: %v", rej)
	}
}
