package lyceum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/ledger"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/lyc"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/observability"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/opcua"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/queue"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/editor"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/pipeline"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/reconcile"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// ErrNoGateway is returned by export calls when no instrument is configured.
var ErrNoGateway = errors.New("lyceum: no instrument gateway configured")

// SessionOption customizes the dependencies used by Session.
type SessionOption func(*sessionOverrides)

type sessionOverrides struct {
	gateway       Gateway
	ledger        ExportLedger
	observability Observability
	notifier      Notifier
	registerer    prometheus.Registerer
	logger        *zap.Logger
	results       []*Result
}

// WithGateway injects the instrument gateway. Without it the OPC UA adapter
// is built from Config.OPCUA when an endpoint is set.
func WithGateway(gw Gateway) SessionOption {
	return func(o *sessionOverrides) {
		o.gateway = gw
	}
}

// WithLedger overrides the ledger selected by Config.Ledger.
func WithLedger(l ExportLedger) SessionOption {
	return func(o *sessionOverrides) {
		o.ledger = l
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) SessionOption {
	return func(o *sessionOverrides) {
		o.observability = obs
	}
}

// WithNotifier receives curve and validation notifications for a presentation layer.
func WithNotifier(n Notifier) SessionOption {
	return func(o *sessionOverrides) {
		o.notifier = n
	}
}

// WithRegisterer registers the default Prometheus metrics on reg instead of
// a private registry.
func WithRegisterer(reg prometheus.Registerer) SessionOption {
	return func(o *sessionOverrides) {
		o.registerer = reg
	}
}

// WithLogger sets the zap logger used by the default observability backend.
func WithLogger(log *zap.Logger) SessionOption {
	return func(o *sessionOverrides) {
		o.logger = log
	}
}

// WithResults seeds the live result set, as a snapshot of the instrument.
func WithResults(results ...*Result) SessionOption {
	return func(o *sessionOverrides) {
		o.results = append(o.results, results...)
	}
}

// Session owns the live result set, the edit buffer and the export path.
// Entry points are serialized by a mutex; callers on several goroutines
// still see one writer at a time.
type Session struct {
	mu sync.Mutex

	cfg      *Config
	policy   ports.Policy
	set      *domain.ResultSet
	ctx      *editor.Context
	editor   *editor.Editor
	exporter *pipeline.Exporter
	gateway  Gateway
	opc      *opcua.Gateway
	ledger   ExportLedger
	pg       *ledger.PostgresLedger
	influx   *ledger.InfluxLedger
	db       *sql.DB
	obs      Observability
	gatherer prometheus.Gatherer
	ser      *lyc.Serializer
	files    ports.FamilyStore
}

// NewSession wires the default adapters (OPC UA gateway, Postgres or no-op
// ledger, Prometheus and zap observability, .lyc file store). SessionOption
// values override any of them.
func NewSession(cfg *Config, opts ...SessionOption) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides sessionOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	set, err := domain.NewResultSet(overrides.results...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		policy: cfg.Policy(),
		set:    set,
		ser:    lyc.NewSerializer(true),
	}
	s.files = lyc.NewFileStore(s.ser, cfg.Family.KeepBackup)

	s.obs = overrides.observability
	if s.obs == nil {
		reg := overrides.registerer
		if reg == nil {
			private := prometheus.NewRegistry()
			reg, s.gatherer = private, private
		} else if g, ok := reg.(prometheus.Gatherer); ok {
			s.gatherer = g
		}
		prom, err := observability.NewPromObs(overrides.logger, reg)
		if err != nil {
			return nil, err
		}
		s.obs = prom
	}

	s.gateway = overrides.gateway
	if s.gateway == nil && cfg.OPCUA.Endpoint != "" {
		s.opc, err = opcua.NewGateway(cfg.OPCUA)
		if err != nil {
			return nil, fmt.Errorf("opcua config: %w", err)
		}
		s.gateway = s.opc
	}

	s.ledger = overrides.ledger
	if s.ledger == nil {
		if s.ledger, err = s.defaultLedger(); err != nil {
			return nil, err
		}
	}

	s.ctx = editor.NewContext(nil)
	s.editor = editor.NewEditor(s.ctx, overrides.notifier)
	s.editor.SetApplyToAll(s.policy.ApplyToAll)
	if s.gateway != nil {
		s.exporter = pipeline.NewExporter(s.gateway, s.ledger, queue.NewMemQueue(s.policy.MaxQueueLen), s.policy, s.obs, overrides.notifier)
	}
	return s, nil
}

// Open starts a session whose live results are snapshotted from the family
// file at path, as if the instrument had been configured from it.
func Open(cfg *Config, path string, opts ...SessionOption) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f, err := lyc.NewFileStore(nil, false).Load(lyc.WithExt(path))
	if err != nil {
		return nil, err
	}
	set, err := domain.SnapshotFromFamily(f, cfg.Family.XYChannels)
	if err != nil {
		return nil, err
	}
	return NewSession(cfg, append(opts, WithResults(set.Rows()...))...)
}

func (s *Session) defaultLedger() (ExportLedger, error) {
	lc := s.cfg.Ledger
	switch lc.Driver {
	case "postgres":
		db, err := ledger.OpenPostgres(lc.DSN)
		if err != nil {
			return nil, err
		}
		pg, err := ledger.NewPostgresLedger(db, lc.Table)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.db, s.pg = db, pg
		return pg, nil
	case "influx":
		s.influx = ledger.NewInfluxLedger(lc.URL, lc.Token, lc.Org, lc.Bucket, lc.Table)
		return s.influx, nil
	default:
		return ledger.Nop{}, nil
	}
}

// Connect opens the OPC UA session and prepares the ledger table when the
// defaults are in use. Injected adapters are left alone.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pg != nil {
		if err := s.pg.EnsureSchema(); err != nil {
			return fmt.Errorf("ledger schema: %w", err)
		}
	}
	if s.opc != nil {
		if err := s.opc.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the OPC UA session and the ledger connections.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.opc != nil {
		if err := s.opc.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.influx != nil {
		s.influx.Close()
	}
	return errors.Join(errs...)
}

func (s *Session) Config() *Config { return s.cfg }

// Gatherer returns the registry holding the default metrics, or nil when
// metrics were routed elsewhere.
func (s *Session) Gatherer() prometheus.Gatherer { return s.gatherer }

func (s *Session) Observability() Observability { return s.obs }

// Results returns the live rows in display order.
func (s *Session) Results() []*Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Rows()
}

// Select makes (key, upper) the edited curve, flushing the previous one.
func (s *Session) Select(key QualifiedKey, upper bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.set.ByKey(key)
	if !ok {
		return &domain.NotFoundError{Kind: domain.ResultNotFound, Name: string(key)}
	}
	return s.ctx.Select(r, upper)
}

// Selected returns the edited result and polarity.
func (s *Session) Selected() (*Result, Polarity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.ctx.Result()
	if err != nil {
		return nil, Upper, err
	}
	return r, s.ctx.Polarity(), nil
}

// Editor exposes the curve editor. Calls made through it bypass the
// session mutex.
func (s *Session) Editor() *editor.Editor { return s.editor }

func (s *Session) SetApplyToAll(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.ApplyToAll = on
	s.editor.SetApplyToAll(on)
	if s.exporter != nil {
		s.exporter.SetApplyToAll(on)
	}
}

func (s *Session) Channel(ch int) ([]LimitPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Store().Channel(ch)
}

// Insert adds pt next to row anchor of channel ch using the configured
// apply-to-all reading.
func (s *Session) Insert(ch, anchor int, before bool, pt LimitPoint) (PointID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy.InsertReading == "inverted" {
		return s.editor.InsertPointInverted(ch, anchor, before, pt)
	}
	return s.editor.InsertPoint(ch, anchor, before, pt)
}

func (s *Session) Update(ch, row int, pt LimitPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.UpdatePoint(ch, row, pt)
}

func (s *Session) Delete(ch int, ids []PointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.DeletePoints(ch, ids)
}

// Export pushes polarity p of the result at key to the instrument.
func (s *Session) Export(key QualifiedKey, p Polarity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exporter == nil {
		return ErrNoGateway
	}
	r, ok := s.set.ByKey(key)
	if !ok {
		return &domain.NotFoundError{Kind: domain.ResultNotFound, Name: string(key)}
	}
	return s.exporter.Export(r, p)
}

// ExportAll pushes every enabled limit of every live result.
func (s *Session) ExportAll() (ExportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exporter == nil {
		return ExportReport{}, ErrNoGateway
	}
	return s.exporter.ExportAll(s.set.Rows())
}

// Family snapshots the live results as a limit family.
func (s *Session) Family() *LimitFamily {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ser.Serialize(s.set.Rows())
}

// SaveFamily writes the live results to path, adding .lyc when path has no
// extension.
func (s *Session) SaveFamily(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.Save(lyc.WithExt(path), s.ser.Serialize(s.set.Rows()))
}

// LoadFamily reads the family at path and returns a reconciliation against
// the live results. Resolutions made through it mutate the live result set
// outside the session mutex; use Reconcile for a guarded run. When a
// resolution rewrites the selected result, the edit buffer is reloaded.
func (s *Session) LoadFamily(path string) (*Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eng, err := s.newReconciliation(path)
	if err != nil {
		return nil, err
	}
	eng.OnAdopt(func(r *Result) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if st := s.ctx.Store(); st.Loaded() && st.Result() == r {
			s.reloadSelection()
		}
	})
	return eng, nil
}

// Reconcile loads the family at path, asks p about every missing entry and
// then adopts the file's limits into the matching live rows. It returns how
// many rows took limits from the file.
func (s *Session) Reconcile(path string, p Prompter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eng, err := s.newReconciliation(path)
	if err != nil {
		return 0, err
	}
	// Matches made before a failing prompt stay applied, so the buffer is
	// reloaded on every exit.
	defer s.reloadSelection()

	if err := eng.Run(p); err != nil {
		return 0, err
	}
	return eng.Apply()
}

func (s *Session) newReconciliation(path string) (*reconcile.Engine, error) {
	f, err := s.files.Load(lyc.WithExt(path))
	if err != nil {
		return nil, err
	}
	eng := reconcile.NewEngine(f, s.set, s.obs)
	eng.SetXYChannels(s.cfg.Family.XYChannels)
	return eng, nil
}

// reloadSelection refreshes the edit buffer after its result was changed
// underneath it. The buffer was flushed after its last edit, so nothing is
// lost.
func (s *Session) reloadSelection() {
	st := s.ctx.Store()
	if !st.Loaded() {
		return
	}
	if err := st.Load(st.Result(), st.Polarity()); err != nil {
		s.obs.LogError("reload selection failed", err)
		st.Reset()
	}
}
