package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ValueType is the kind of limit a result carries. The string values are the
// ones written to .lyc files.
type ValueType string

const (
	ValueTypeXY    ValueType = "XY Values"
	ValueTypeMeter ValueType = "Meter Values"
)

func (v ValueType) Valid() bool {
	return v == ValueTypeXY || v == ValueTypeMeter
}

// Polarity selects the upper or lower limit of a result.
type Polarity int

const (
	Upper Polarity = iota
	Lower
)

func (p Polarity) String() string {
	if p == Lower {
		return "lower"
	}
	return "upper"
}

// PolarityOf maps the "editing upper limit" flag to a Polarity.
func PolarityOf(upper bool) Polarity {
	if upper {
		return Upper
	}
	return Lower
}

// Limit is one polarity's persisted limit data. X/Y hold every channel's
// points concatenated; Meter holds one scalar per channel, NaN meaning unset.
type Limit struct {
	Enabled bool
	X       []float64
	Y       []float64
	Meter   []float64

	// segments records how many XY points each channel contributed to X/Y at
	// the last flush. Runtime only; never persisted.
	segments []int
}

// Result is one checked measurement result snapshotted from the instrument.
type Result struct {
	ID uuid.UUID

	SignalPathIndex  int
	MeasurementIndex int
	ResultIndex      int

	SignalPathName  string
	MeasurementName string
	ResultName      string

	ValueType    ValueType
	ChannelCount int

	Upper Limit
	Lower Limit
}

// NewResult returns a result with a fresh ID and empty limits.
func NewResult(spIdx, mIdx, rIdx int, signalPath, measurement, result string, vt ValueType, channels int) *Result {
	r := &Result{
		ID:               uuid.New(),
		SignalPathIndex:  spIdx,
		MeasurementIndex: mIdx,
		ResultIndex:      rIdx,
		SignalPathName:   signalPath,
		MeasurementName:  measurement,
		ResultName:       result,
		ValueType:        vt,
		ChannelCount:     channels,
	}
	r.clearLimits()
	return r
}

func (r *Result) Key() QualifiedKey {
	return NewKey(r.SignalPathName, r.MeasurementName, r.ResultName)
}

// Label is the display label used when a user picks a row by name.
func (r *Result) Label() string {
	return fmt.Sprintf("%s > %s > %s", r.SignalPathName, r.MeasurementName, r.ResultName)
}

func (r *Result) Limit(p Polarity) *Limit {
	if p == Lower {
		return &r.Lower
	}
	return &r.Upper
}

func (r *Result) Enabled(p Polarity) bool {
	return r.Limit(p).Enabled
}

// ChannelPoints splits the persisted arrays of polarity p into per-channel
// point lists. Meter results yield exactly one point per channel.
//
// XY arrays are split by the segment lengths recorded at the last flush.
// Without them (data fresh from a file or the instrument) the arrays are cut
// wherever X descends; if that yields exactly one run per channel, each run
// is that channel's curve. Otherwise the flattened curve is deduplicated by
// (x, y) and handed to every channel.
func (r *Result) ChannelPoints(p Polarity) [][]LimitPoint {
	n := r.ChannelCount
	if n < 0 {
		n = 0
	}
	lim := r.Limit(p)
	out := make([][]LimitPoint, n)

	if r.ValueType == ValueTypeMeter {
		for ch := 0; ch < n; ch++ {
			v := math.NaN()
			if ch < len(lim.Meter) {
				v = lim.Meter[ch]
			}
			out[ch] = []LimitPoint{NewMeterPoint(v)}
		}
		return out
	}

	pts := xyPoints(lim.X, lim.Y)
	if segmentsCover(lim.segments, n, len(pts)) {
		off := 0
		for ch, size := range lim.segments {
			out[ch] = append([]LimitPoint(nil), pts[off:off+size]...)
			off += size
		}
		return out
	}

	if runs := ascendingRuns(pts); len(runs) == n {
		for ch, run := range runs {
			out[ch] = DedupPairs(run)
		}
		return out
	}

	curve := DedupPairs(pts)
	for ch := 0; ch < n; ch++ {
		out[ch] = append([]LimitPoint(nil), curve...)
	}
	return out
}

// ascendingRuns cuts pts into maximal runs of non-decreasing X.
func ascendingRuns(pts []LimitPoint) [][]LimitPoint {
	if len(pts) == 0 {
		return nil
	}
	var runs [][]LimitPoint
	start := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].X < pts[i-1].X {
			runs = append(runs, pts[start:i])
			start = i
		}
	}
	return append(runs, pts[start:])
}

// SetChannelPoints writes per-channel point lists back into polarity p's
// persisted arrays. Point identities are not persisted.
func (r *Result) SetChannelPoints(p Polarity, channels [][]LimitPoint) {
	lim := r.Limit(p)

	if r.ValueType == ValueTypeMeter {
		lim.Meter = make([]float64, len(channels))
		for ch, pts := range channels {
			if len(pts) == 0 {
				lim.Meter[ch] = math.NaN()
				continue
			}
			lim.Meter[ch] = pts[0].Value
		}
		return
	}

	total := 0
	for _, pts := range channels {
		total += len(pts)
	}
	xs := make([]float64, 0, total)
	ys := make([]float64, 0, total)
	segs := make([]int, len(channels))
	for ch, pts := range channels {
		for _, pt := range pts {
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
		segs[ch] = len(pts)
	}
	lim.X, lim.Y, lim.segments = xs, ys, segs
}

// Entry converts the result into its limit family record. Arrays irrelevant
// to the value type are left nil; relevant ones are never nil.
func (r *Result) Entry() LimitFamilyEntry {
	e := LimitFamilyEntry{
		SignalPathName:    r.SignalPathName,
		MeasurementName:   r.MeasurementName,
		ResultName:        r.ResultName,
		ValueType:         r.ValueType,
		UpperLimitEnabled: r.Upper.Enabled,
		LowerLimitEnabled: r.Lower.Enabled,
	}
	if r.ValueType == ValueTypeMeter {
		e.MeterUpper = padNaN(r.Upper.Meter, r.ChannelCount)
		e.MeterLower = padNaN(r.Lower.Meter, r.ChannelCount)
		return e
	}
	e.XUpper = cloneFloats(r.Upper.X)
	e.YUpper = cloneFloats(r.Upper.Y)
	e.XLower = cloneFloats(r.Lower.X)
	e.YLower = cloneFloats(r.Lower.Y)
	return e
}

// Adopt overwrites the result's limit flags and arrays with a family entry's.
// The entry must carry the same value type.
func (r *Result) Adopt(e LimitFamilyEntry) error {
	if e.ValueType != r.ValueType {
		return Invalid(ValueTypeMismatch, -1, -1, "%s carries %q, row %s is %q", e.Key(), e.ValueType, r.Key(), r.ValueType)
	}
	r.Upper = Limit{Enabled: e.UpperLimitEnabled}
	r.Lower = Limit{Enabled: e.LowerLimitEnabled}
	if r.ValueType == ValueTypeMeter {
		r.Upper.Meter = cloneFloats(e.MeterUpper)
		r.Lower.Meter = cloneFloats(e.MeterLower)
		return nil
	}
	r.Upper.X, r.Upper.Y = cloneFloats(e.XUpper), cloneFloats(e.YUpper)
	r.Lower.X, r.Lower.Y = cloneFloats(e.XLower), cloneFloats(e.YLower)
	return nil
}

func (r *Result) clearLimits() {
	if r.ValueType == ValueTypeMeter {
		r.Upper.Meter = make([]float64, max(r.ChannelCount, 0))
		r.Lower.Meter = make([]float64, max(r.ChannelCount, 0))
		return
	}
	r.Upper.X, r.Upper.Y = []float64{}, []float64{}
	r.Lower.X, r.Lower.Y = []float64{}, []float64{}
}

func xyPoints(xs, ys []float64) []LimitPoint {
	n := min(len(xs), len(ys))
	out := make([]LimitPoint, n)
	for i := 0; i < n; i++ {
		out[i] = NewXYPoint(xs[i], ys[i])
	}
	return out
}

func segmentsCover(segs []int, channels, total int) bool {
	if len(segs) != channels || channels == 0 {
		return false
	}
	sum := 0
	for _, s := range segs {
		if s < 0 {
			return false
		}
		sum += s
	}
	return sum == total
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return []float64{}
	}
	return append([]float64{}, in...)
}

func padNaN(in []float64, n int) []float64 {
	out := cloneFloats(in)
	for len(out) < n {
		out = append(out, math.NaN())
	}
	return out
}
