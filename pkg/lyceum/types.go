package lyceum

import (
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/editor"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/pipeline"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/reconcile"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// Result is one checked measurement result with its upper and lower limits.
type Result = domain.Result

// ResultSet is the ordered collection of live results.
type ResultSet = domain.ResultSet

// LimitPoint is one XY point or Meter scalar in the edit buffer.
type LimitPoint = domain.LimitPoint

// PointID identifies a point for the lifetime of the edit buffer.
type PointID = domain.PointID

type (
	Polarity         = domain.Polarity
	ValueType        = domain.ValueType
	QualifiedKey     = domain.QualifiedKey
	LimitFamily      = domain.LimitFamily
	LimitFamilyEntry = domain.LimitFamilyEntry
	ExportRecord     = domain.ExportRecord
)

const (
	Upper = domain.Upper
	Lower = domain.Lower

	ValueTypeXY    = domain.ValueTypeXY
	ValueTypeMeter = domain.ValueTypeMeter
)

// NoAnchor appends an inserted point at the end of the channel.
const NoAnchor = editor.NoAnchor

// Gateway is the instrument's limit-graph surface.
type Gateway = ports.Gateway

// Graph is one result graph on the instrument.
type Graph = ports.Graph

// ExportLedger records every channel limit the instrument accepted.
type ExportLedger = ports.ExportLedger

// Observability emits logs and metrics about exports and reconciliation.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Notifier receives curve change and validation notifications.
type Notifier = ports.Notifier

// Prompter resolves one missing family entry at a time.
type Prompter = ports.Prompter

type (
	Resolution = ports.Resolution
	Action     = ports.Action
)

const (
	ActionRemove = ports.ActionRemove
	ActionAdd    = ports.ActionAdd
	ActionMatch  = ports.ActionMatch
)

// Reconciliation walks a loaded family's missing keys.
type Reconciliation = reconcile.Engine

// ExportReport summarises an ExportAll run.
type ExportReport = pipeline.Report

// NewKey builds the "<signal path>|<measurement>|<result>" key.
func NewKey(signalPath, measurement, result string) QualifiedKey {
	return domain.NewKey(signalPath, measurement, result)
}

// NewResult returns a result with empty limits.
func NewResult(spIdx, mIdx, rIdx int, signalPath, measurement, result string, vt ValueType, channels int) *Result {
	return domain.NewResult(spIdx, mIdx, rIdx, signalPath, measurement, result, vt, channels)
}

func XY(x, y float64) LimitPoint { return domain.NewXYPoint(x, y) }

func Meter(v float64) LimitPoint { return domain.NewMeterPoint(v) }
