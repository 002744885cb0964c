package lyceum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/instrument"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

func levelResult() *Result {
	r := NewResult(0, 0, 0, "SP1", "FR", "Level", ValueTypeXY, 2)
	r.Upper.Enabled = true
	return r
}

func peakResult() *Result {
	r := NewResult(0, 1, 0, "SP1", "THD", "Peak", ValueTypeMeter, 1)
	r.Upper.Enabled = true
	r.Upper.Meter[0] = 0.5
	return r
}

func newTestSession(t *testing.T, cfg *Config, opts ...SessionOption) *Session {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts = append([]SessionOption{WithRegisterer(prometheus.NewRegistry())}, opts...)
	s, err := NewSession(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func insertCurve(t *testing.T, s *Session, ch int, pts ...LimitPoint) {
	t.Helper()
	for _, pt := range pts {
		if _, err := s.Insert(ch, NoAnchor, false, pt); err != nil {
			t.Fatalf("insert %+v: %v", pt, err)
		}
	}
}

func TestSessionEditAndExport(t *testing.T) {
	level := levelResult()
	mem := instrument.FromResults([]*Result{level})

	var recorded []ExportRecord
	led := NewCallbackLedger("test", func(batch []ExportRecord) error {
		recorded = append(recorded, batch...)
		return nil
	})

	s := newTestSession(t, nil, WithResults(level), WithGateway(mem), WithLedger(led))
	if err := s.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, s, 0, XY(0, 0), XY(100, -3), XY(1000, -3))

	if err := s.Export(level.Key(), Upper); err != nil {
		t.Fatalf("export: %v", err)
	}

	g, ok := mem.Find(0, 0, "Level")
	if !ok {
		t.Fatalf("graph missing from instrument")
	}
	got, ok := g.Limit(Upper, 0)
	if !ok {
		t.Fatalf("channel 0 upper limit not written")
	}
	if len(got.X) != 2 || got.X[0] != 100 || got.X[1] != 1000 {
		t.Fatalf("expected leading zero elided, got %v", got.X)
	}
	if len(recorded) != 2 {
		t.Fatalf("expected one ledger record per channel, got %d", len(recorded))
	}

	pts, err := s.Channel(0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("export must not change the buffer, got %d points", len(pts))
	}

	if err := s.Export(level.Key(), Lower); err != nil {
		t.Fatalf("disabled polarity should be skipped, got %v", err)
	}
	if _, ok := g.Limit(Lower, 0); ok {
		t.Fatalf("disabled lower limit was written")
	}
}

func TestSessionDefaultLedgerByDriver(t *testing.T) {
	for _, tc := range []struct {
		driver string
		want   string
	}{
		{"none", "nop"},
		{"postgres", "postgres"},
		{"influx", "influx"},
	} {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Ledger.Driver = tc.driver
			cfg.Ledger.DSN = "postgres://lyceum@127.0.0.1:1/limits?sslmode=disable"
			cfg.Ledger.URL = "http://127.0.0.1:1"
			cfg.Ledger.Bucket = "limits"

			s := newTestSession(t, cfg)
			if got := s.ledger.Name(); got != tc.want {
				t.Fatalf("driver %s: expected %s ledger, got %s", tc.driver, tc.want, got)
			}
			if (s.db != nil) != (tc.driver == "postgres") {
				t.Fatalf("driver %s: unexpected postgres pool %v", tc.driver, s.db)
			}
		})
	}
}

func TestSessionInfluxLedger(t *testing.T) {
	var writes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/write" {
			writes.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Ledger.Driver = "influx"
	cfg.Ledger.URL = srv.URL
	cfg.Ledger.Org = "lab"
	cfg.Ledger.Bucket = "limits"

	peak := peakResult()
	s := newTestSession(t, cfg, WithResults(peak), WithGateway(instrument.FromResults([]*Result{peak})))
	if err := s.Export(peak.Key(), Upper); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := writes.Load(); got != 1 {
		t.Fatalf("expected one influx write, got %d", got)
	}
}

func TestSessionExportRejectsNonSequentialX(t *testing.T) {
	level := levelResult()
	mem := instrument.FromResults([]*Result{level})
	s := newTestSession(t, nil, WithResults(level), WithGateway(mem))

	if err := s.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, s, 0, XY(100, 1), XY(50, 1))

	err := s.Export(level.Key(), Upper)
	if !errors.Is(err, domain.ErrNonSequentialX) {
		t.Fatalf("expected NonSequentialX, got %v", err)
	}
	g, _ := mem.Find(0, 0, "Level")
	if _, ok := g.Limit(Upper, 0); ok {
		t.Fatalf("rejected limit reached the instrument")
	}
}

func TestSessionInsertReading(t *testing.T) {
	for _, tc := range []struct {
		reading   string
		propagate bool
	}{
		{"direct", false},
		{"inverted", true},
	} {
		t.Run(tc.reading, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Editor.InsertReading = tc.reading

			level := levelResult()
			s := newTestSession(t, cfg, WithResults(level))
			if err := s.Select(level.Key(), true); err != nil {
				t.Fatalf("select: %v", err)
			}
			insertCurve(t, s, 0, XY(10, 1))

			other, err := s.Channel(1)
			if err != nil {
				t.Fatalf("channel: %v", err)
			}
			if got := len(other) == 1; got != tc.propagate {
				t.Fatalf("channel 1 has %d points, propagate=%v", len(other), tc.propagate)
			}
		})
	}
}

func TestSessionWithoutGateway(t *testing.T) {
	level := levelResult()
	s := newTestSession(t, nil, WithResults(level))

	if err := s.Export(level.Key(), Upper); !errors.Is(err, ErrNoGateway) {
		t.Fatalf("expected ErrNoGateway, got %v", err)
	}
	if _, err := s.ExportAll(); !errors.Is(err, ErrNoGateway) {
		t.Fatalf("expected ErrNoGateway from ExportAll, got %v", err)
	}
	if err := s.Select(NewKey("SP1", "FR", "Nope"), true); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected ResultNotFound, got %v", err)
	}
	if _, _, err := s.Selected(); !errors.Is(err, domain.ErrNoActiveResultSelected) {
		t.Fatalf("expected NoActiveResultSelected, got %v", err)
	}
}

func TestSessionDefaultMetricsRegistry(t *testing.T) {
	s, err := NewSession(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Gatherer() == nil {
		t.Fatalf("expected a private registry")
	}
	if _, err := NewSession(DefaultConfig()); err != nil {
		t.Fatalf("second session must not collide on metrics: %v", err)
	}
}

func TestSaveOpenAndReconcile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family")

	level := levelResult()
	src := newTestSession(t, nil, WithResults(level, peakResult()))
	if err := src.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, src, 0, XY(0, 0), XY(100, -3), XY(1000, -3))
	if err := src.SaveFamily(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	opened, err := Open(DefaultConfig(), path, WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(opened.Results()) != 2 {
		t.Fatalf("expected 2 results from file, got %d", len(opened.Results()))
	}

	// The live session knows Level but not Peak.
	liveLevel := levelResult()
	live := newTestSession(t, nil, WithResults(liveLevel))
	if err := live.Select(liveLevel.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}

	prompted := 0
	n, err := live.Reconcile(path+".lyc", prompterFunc(func(e LimitFamilyEntry, _ []string) (Resolution, error) {
		prompted++
		if e.Key() != NewKey("SP1", "THD", "Peak") {
			t.Fatalf("unexpected prompt for %s", e.Key())
		}
		return Resolution{Action: ActionRemove}, nil
	}))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if prompted != 1 || n != 1 {
		t.Fatalf("expected 1 prompt and 1 adopted row, got %d and %d", prompted, n)
	}

	// The file carries no channel split, so the curve lands in every channel.
	for ch := 0; ch < 2; ch++ {
		pts, err := live.Channel(ch)
		if err != nil {
			t.Fatalf("channel %d: %v", ch, err)
		}
		if len(pts) != 3 {
			t.Fatalf("channel %d: expected reloaded curve of 3 points, got %d", ch, len(pts))
		}
	}

	eng, err := live.LoadFamily(path)
	if err != nil {
		t.Fatalf("load family: %v", err)
	}
	if missing := eng.Missing(); len(missing) != 1 {
		t.Fatalf("a fresh reconciliation should report Peak again, got %v", missing)
	}
}

type prompterFunc func(LimitFamilyEntry, []string) (Resolution, error)

func (f prompterFunc) Prompt(e LimitFamilyEntry, labels []string) (Resolution, error) {
	return f(e, labels)
}

func orphanFamily(t *testing.T, dir string) string {
	t.Helper()
	orphan := NewResult(0, 0, 1, "SP1", "FR", "Orphan", ValueTypeXY, 1)
	orphan.Upper.Enabled = true
	orphan.Upper.X = []float64{10, 20, 30}
	orphan.Upper.Y = []float64{-1, -2, -3}
	zed := NewResult(0, 0, 2, "SP1", "FR", "Zed", ValueTypeXY, 1)

	path := filepath.Join(dir, "orphans")
	src := newTestSession(t, nil, WithResults(orphan, zed))
	if err := src.SaveFamily(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestReconcileFailureKeepsMatchedLimits(t *testing.T) {
	path := orphanFamily(t, t.TempDir())

	level := levelResult()
	live := newTestSession(t, nil, WithResults(level))
	if err := live.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, live, 0, XY(1, 1), XY(2, 2))

	calls := 0
	_, err := live.Reconcile(path, prompterFunc(func(LimitFamilyEntry, []string) (Resolution, error) {
		calls++
		if calls == 1 {
			return Resolution{Action: ActionMatch, Label: level.Label()}, nil
		}
		return Resolution{}, errors.New("operator closed the dialog")
	}))
	if err == nil {
		t.Fatalf("expected the prompter error")
	}

	pts, err := live.Channel(0)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if len(pts) != 3 || pts[0].X != 10 {
		t.Fatalf("edit buffer not reloaded after match: %+v", pts)
	}

	if err := live.Update(0, 0, XY(5, -1)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := level.Upper.X[:3]; got[0] != 5 || got[1] != 20 || got[2] != 30 {
		t.Fatalf("matched limits lost on the next edit: %v", level.Upper.X)
	}
}

func TestLoadFamilyMatchReloadsSelection(t *testing.T) {
	path := orphanFamily(t, t.TempDir())

	level := levelResult()
	live := newTestSession(t, nil, WithResults(level))
	if err := live.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, live, 0, XY(1, 1))

	eng, err := live.LoadFamily(path)
	if err != nil {
		t.Fatalf("load family: %v", err)
	}
	if _, err := eng.Match(NewKey("SP1", "FR", "Orphan"), level.Label()); err != nil {
		t.Fatalf("match: %v", err)
	}

	pts, err := live.Channel(1)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if len(pts) != 3 || pts[2].X != 30 {
		t.Fatalf("expected the matched curve in the buffer, got %+v", pts)
	}
}

func TestOpenKeepsPerChannelCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo")

	level := levelResult()
	src := newTestSession(t, nil, WithResults(level))
	if err := src.Select(level.Key(), true); err != nil {
		t.Fatalf("select: %v", err)
	}
	insertCurve(t, src, 0, XY(0, 0), XY(100, -3))
	insertCurve(t, src, 1, XY(0, 0), XY(50, -6))
	if err := src.SaveFamily(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Family.XYChannels = 2
	mem := instrument.NewMemory()
	mem.AddGraph(0, 0, "Level", ValueTypeXY)
	opened, err := Open(cfg, path, WithRegisterer(prometheus.NewRegistry()), WithGateway(mem))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = opened.Close(context.Background()) })

	if err := opened.Export(level.Key(), Upper); err != nil {
		t.Fatalf("export after open: %v", err)
	}
	g, _ := mem.Find(0, 0, "Level")
	for ch, want := range []float64{100, 50} {
		got, ok := g.Limit(Upper, ch)
		if !ok || len(got.X) != 1 || got.X[0] != want {
			t.Fatalf("channel %d: expected X=[%v], got %+v", ch, want, got)
		}
	}
}
