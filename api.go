package lyceum

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	base "github.com/joshlevylabs/Klippel-Lyceum-sub000/pkg/lyceum"
)

// Re-exported errors for convenience.
var (
	ErrNoGateway           = base.ErrNoGateway
	ErrChannelLedgerClosed = base.ErrChannelLedgerClosed
)

// Type aliases so consumers can import github.com/joshlevylabs/Klippel-Lyceum-sub000 directly.
type (
	Config           = base.Config
	Policy           = base.Policy
	OPCUAConfig      = base.OPCUAConfig
	EditorConfig     = base.EditorConfig
	ExportConfig     = base.ExportConfig
	LedgerConfig     = base.LedgerConfig
	FamilyConfig     = base.FamilyConfig
	LogConfig        = base.LogConfig
	MetricsConfig    = base.MetricsConfig
	Session          = base.Session
	SessionOption    = base.SessionOption
	Result           = base.Result
	ResultSet        = base.ResultSet
	LimitPoint       = base.LimitPoint
	PointID          = base.PointID
	Polarity         = base.Polarity
	ValueType        = base.ValueType
	QualifiedKey     = base.QualifiedKey
	LimitFamily      = base.LimitFamily
	LimitFamilyEntry = base.LimitFamilyEntry
	ExportRecord     = base.ExportRecord
	ExportReport     = base.ExportReport
	Gateway          = base.Gateway
	Graph            = base.Graph
	ExportLedger     = base.ExportLedger
	Observability    = base.Observability
	Field            = base.Field
	Notifier         = base.Notifier
	Prompter         = base.Prompter
	Resolution       = base.Resolution
	Action           = base.Action
	Reconciliation   = base.Reconciliation
	RecordBatchFunc  = base.RecordBatchFunc
)

const (
	Upper = base.Upper
	Lower = base.Lower

	ValueTypeXY    = base.ValueTypeXY
	ValueTypeMeter = base.ValueTypeMeter

	ActionRemove = base.ActionRemove
	ActionAdd    = base.ActionAdd
	ActionMatch  = base.ActionMatch

	NoAnchor = base.NoAnchor
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Session construction and options.
func NewSession(cfg *Config, opts ...SessionOption) (*Session, error) {
	return base.NewSession(cfg, opts...)
}

func Open(cfg *Config, path string, opts ...SessionOption) (*Session, error) {
	return base.Open(cfg, path, opts...)
}

func WithGateway(gw Gateway) SessionOption {
	return base.WithGateway(gw)
}

func WithLedger(l ExportLedger) SessionOption {
	return base.WithLedger(l)
}

func WithObservability(obs Observability) SessionOption {
	return base.WithObservability(obs)
}

func WithNotifier(n Notifier) SessionOption {
	return base.WithNotifier(n)
}

func WithRegisterer(reg prometheus.Registerer) SessionOption {
	return base.WithRegisterer(reg)
}

func WithLogger(log *zap.Logger) SessionOption {
	return base.WithLogger(log)
}

func WithResults(results ...*Result) SessionOption {
	return base.WithResults(results...)
}

// Domain helpers.
func NewKey(signalPath, measurement, result string) QualifiedKey {
	return base.NewKey(signalPath, measurement, result)
}

func NewResult(spIdx, mIdx, rIdx int, signalPath, measurement, result string, vt ValueType, channels int) *Result {
	return base.NewResult(spIdx, mIdx, rIdx, signalPath, measurement, result, vt, channels)
}

func XY(x, y float64) LimitPoint { return base.XY(x, y) }

func Meter(v float64) LimitPoint { return base.Meter(v) }

// Ledger adapters.
func NewCallbackLedger(name string, fn RecordBatchFunc) ExportLedger {
	return base.NewCallbackLedger(name, fn)
}

func NewChannelLedger(name string, buffer int) (ExportLedger, <-chan []ExportRecord, func()) {
	return base.NewChannelLedger(name, buffer)
}
