package domain

// LimitFamilyEntry is the persisted form of one result's limits, keyed by
// its names instead of the instrument's runtime indices.
type LimitFamilyEntry struct {
	SignalPathName  string
	MeasurementName string
	ResultName      string
	ValueType       ValueType

	UpperLimitEnabled bool
	LowerLimitEnabled bool

	MeterUpper []float64
	MeterLower []float64
	XUpper     []float64
	XLower     []float64
	YUpper     []float64
	YLower     []float64
}

func (e LimitFamilyEntry) Key() QualifiedKey {
	return NewKey(e.SignalPathName, e.MeasurementName, e.ResultName)
}

// Label matches Result.Label for the same names.
func (e LimitFamilyEntry) Label() string {
	return e.SignalPathName + " > " + e.MeasurementName + " > " + e.ResultName
}

// LimitFamily is the ordered collection of entries exchanged as one file.
type LimitFamily struct {
	Entries []LimitFamilyEntry
}

func (f *LimitFamily) Keys() KeySet {
	s := make(KeySet, len(f.Entries))
	for _, e := range f.Entries {
		s.Add(e.Key())
	}
	return s
}

func (f *LimitFamily) Entry(k QualifiedKey) (LimitFamilyEntry, bool) {
	for _, e := range f.Entries {
		if e.Key() == k {
			return e, true
		}
	}
	return LimitFamilyEntry{}, false
}

// FamilyFromResults maps each result to its entry, preserving order.
func FamilyFromResults(results []*Result) *LimitFamily {
	f := &LimitFamily{Entries: make([]LimitFamilyEntry, 0, len(results))}
	for _, r := range results {
		f.Entries = append(f.Entries, r.Entry())
	}
	return f
}

// Placeholder materialises a new result row for an entry that has no live
// counterpart. Runtime indices are unknown (-1) and the limit data is empty
// (XY) or zeroed (Meter). XY rows get xyChannels channels, Meter rows one per
// stored scalar.
func Placeholder(e LimitFamilyEntry, xyChannels int) *Result {
	channels := max(xyChannels, 1)
	if e.ValueType == ValueTypeMeter {
		channels = max(1, len(e.MeterUpper), len(e.MeterLower))
	}
	return NewResult(-1, -1, -1, e.SignalPathName, e.MeasurementName, e.ResultName, e.ValueType, channels)
}

// SnapshotFromFamily builds a live result collection straight from a family,
// as if the instrument had been configured from it. Signal paths and
// measurements are indexed by first appearance; XY results get xyChannels
// channels, Meter results one channel per stored scalar.
func SnapshotFromFamily(f *LimitFamily, xyChannels int) (*ResultSet, error) {
	if xyChannels < 1 {
		xyChannels = 1
	}
	set := &ResultSet{}
	spIdx := map[string]int{}
	mIdx := map[string]map[string]int{}
	rIdx := map[string]int{}

	for _, e := range f.Entries {
		sp, ok := spIdx[e.SignalPathName]
		if !ok {
			sp = len(spIdx)
			spIdx[e.SignalPathName] = sp
			mIdx[e.SignalPathName] = map[string]int{}
		}
		m, ok := mIdx[e.SignalPathName][e.MeasurementName]
		if !ok {
			m = len(mIdx[e.SignalPathName])
			mIdx[e.SignalPathName][e.MeasurementName] = m
		}
		mk := e.SignalPathName + keySeparator + e.MeasurementName
		ri := rIdx[mk]
		rIdx[mk] = ri + 1

		channels := xyChannels
		if e.ValueType == ValueTypeMeter {
			channels = max(1, len(e.MeterUpper), len(e.MeterLower))
		}
		r := NewResult(sp, m, ri, e.SignalPathName, e.MeasurementName, e.ResultName, e.ValueType, channels)
		if err := r.Adopt(e); err != nil {
			return nil, err
		}
		if err := set.Append(r); err != nil {
			return nil, err
		}
	}
	return set, nil
}
