package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xyOf(pts []LimitPoint) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func TestChannelPointsSplitsBySegments(t *testing.T) {
	r := NewResult(0, 0, 0, "SP", "FR", "Level", ValueTypeXY, 2)
	r.SetChannelPoints(Upper, [][]LimitPoint{
		{NewXYPoint(10, 1), NewXYPoint(20, 2)},
		{NewXYPoint(10, 1)},
	})

	assert.Equal(t, []float64{10, 20, 10}, r.Upper.X)
	chs := r.ChannelPoints(Upper)
	require.Len(t, chs, 2)
	assert.Equal(t, [][2]float64{{10, 1}, {20, 2}}, xyOf(chs[0]))
	assert.Equal(t, [][2]float64{{10, 1}}, xyOf(chs[1]))
}

func TestChannelPointsWithoutSegmentsDedupsIntoEveryChannel(t *testing.T) {
	r := NewResult(0, 0, 0, "SP", "FR", "Level", ValueTypeXY, 3)
	r.Upper.X = []float64{10, 20, 10, 20}
	r.Upper.Y = []float64{1, 2, 1, 2}

	chs := r.ChannelPoints(Upper)
	require.Len(t, chs, 3)
	for _, ch := range chs {
		assert.Equal(t, [][2]float64{{10, 1}, {20, 2}}, xyOf(ch))
	}
}

func TestChannelPointsWithoutSegmentsSplitsAtDescents(t *testing.T) {
	r := NewResult(0, 0, 0, "SP", "FR", "Level", ValueTypeXY, 2)
	r.Upper.X = []float64{0, 100, 100, 0, 50}
	r.Upper.Y = []float64{0, -3, -3, 0, -6}

	chs := r.ChannelPoints(Upper)
	require.Len(t, chs, 2)
	assert.Equal(t, [][2]float64{{0, 0}, {100, -3}}, xyOf(chs[0]))
	assert.Equal(t, [][2]float64{{0, 0}, {50, -6}}, xyOf(chs[1]))
}

func TestMeterChannelPoints(t *testing.T) {
	r := NewResult(0, 0, 0, "SP", "THD", "Peak", ValueTypeMeter, 3)
	r.Upper.Meter = []float64{0.5, math.NaN()}

	chs := r.ChannelPoints(Upper)
	require.Len(t, chs, 3)
	assert.Equal(t, 0.5, chs[0][0].Value)
	assert.True(t, math.IsNaN(chs[1][0].Value))
	assert.True(t, math.IsNaN(chs[2][0].Value), "missing scalars read as NaN")

	r.SetChannelPoints(Upper, [][]LimitPoint{{NewMeterPoint(1)}, {}, {NewMeterPoint(3)}})
	assert.Equal(t, 1.0, r.Upper.Meter[0])
	assert.True(t, math.IsNaN(r.Upper.Meter[1]))
	assert.Equal(t, 3.0, r.Upper.Meter[2])
}

func TestEntryAndAdopt(t *testing.T) {
	r := NewResult(0, 0, 0, "SP", "THD", "Peak", ValueTypeMeter, 2)
	r.Upper.Enabled = true
	r.Upper.Meter = []float64{0.5}

	e := r.Entry()
	assert.Nil(t, e.XUpper)
	require.Len(t, e.MeterUpper, 2)
	assert.True(t, math.IsNaN(e.MeterUpper[1]))
	assert.Equal(t, "SP > THD > Peak", e.Label())
	assert.Equal(t, r.Label(), e.Label())

	other := NewResult(1, 1, 1, "SP", "THD", "Peak", ValueTypeMeter, 2)
	require.NoError(t, other.Adopt(e))
	assert.True(t, other.Upper.Enabled)
	assert.Equal(t, 0.5, other.Upper.Meter[0])

	e.MeterUpper[0] = 9
	assert.Equal(t, 0.5, other.Upper.Meter[0], "adopted arrays are copies")

	xy := NewResult(0, 0, 0, "SP", "THD", "Peak", ValueTypeXY, 2)
	err := xy.Adopt(e)
	assert.ErrorIs(t, err, ErrValueTypeMismatch)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResultSet(t *testing.T) {
	a := NewResult(0, 0, 0, "SP", "FR", "A", ValueTypeXY, 1)
	b := NewResult(0, 0, 1, "SP", "FR", "B", ValueTypeXY, 1)
	set, err := NewResultSet(a, b)
	require.NoError(t, err)

	err = set.Append(NewResult(5, 5, 5, "SP", "FR", "A", ValueTypeMeter, 1))
	assert.ErrorIs(t, err, ErrDuplicateResultKey)
	assert.Equal(t, 2, set.Len())

	c := NewResult(0, 0, 2, "SP", "FR", "C", ValueTypeXY, 1)
	require.NoError(t, set.Insert(-4, c))
	first, ok := set.At(0)
	require.True(t, ok)
	assert.Same(t, c, first)

	got, ok := set.ByLabel("SP > FR > B")
	require.True(t, ok)
	assert.Same(t, b, got)
	got, ok = set.ByID(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = set.At(3)
	assert.False(t, ok)
	assert.Equal(t, []QualifiedKey{NewKey("SP", "FR", "A"), NewKey("SP", "FR", "B"), NewKey("SP", "FR", "C")}, set.Keys().Sorted())
}

func TestDifferenceIsSortedAndDirectional(t *testing.T) {
	a := NewKeySet(NewKey("s", "m", "z"), NewKey("s", "m", "a"), NewKey("s", "m", "shared"))
	b := NewKeySet(NewKey("s", "m", "shared"), NewKey("s", "m", "only-b"))

	assert.Equal(t, []QualifiedKey{NewKey("s", "m", "a"), NewKey("s", "m", "z")}, Difference(a, b))
	assert.Equal(t, []QualifiedKey{NewKey("s", "m", "only-b")}, Difference(b, a))
	assert.Empty(t, Difference(a, a))

	sp, m, r, ok := NewKey("Path", "Meas", "Res").Parts()
	require.True(t, ok)
	assert.Equal(t, []string{"Path", "Meas", "Res"}, []string{sp, m, r})
	_, _, _, ok = QualifiedKey("broken").Parts()
	assert.False(t, ok)
}

func TestDedupPairsKeepsFirstSeenOrder(t *testing.T) {
	in := []LimitPoint{NewXYPoint(3, 1), NewXYPoint(1, 1), NewXYPoint(3, 1), NewXYPoint(3, 2)}
	assert.Equal(t, [][2]float64{{3, 1}, {1, 1}, {3, 2}}, xyOf(DedupPairs(in)))
}

func TestSnapshotFromFamily(t *testing.T) {
	f := &LimitFamily{Entries: []LimitFamilyEntry{
		{SignalPathName: "SP1", MeasurementName: "FR", ResultName: "Level", ValueType: ValueTypeXY,
			UpperLimitEnabled: true, XUpper: []float64{0, 100}, YUpper: []float64{0, -3}},
		{SignalPathName: "SP1", MeasurementName: "THD", ResultName: "Peak", ValueType: ValueTypeMeter,
			MeterUpper: []float64{1, 2, 3}},
		{SignalPathName: "SP2", MeasurementName: "FR", ResultName: "Level", ValueType: ValueTypeXY},
	}}

	set, err := SnapshotFromFamily(f, 2)
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	level, _ := set.At(0)
	assert.Equal(t, 2, level.ChannelCount)
	assert.True(t, level.Upper.Enabled)
	peak, _ := set.At(1)
	assert.Equal(t, [3]int{0, 1, 0}, [3]int{peak.SignalPathIndex, peak.MeasurementIndex, peak.ResultIndex})
	assert.Equal(t, 3, peak.ChannelCount)
	sp2, _ := set.At(2)
	assert.Equal(t, 1, sp2.SignalPathIndex)
	assert.Equal(t, 0, sp2.MeasurementIndex)

	f.Entries = append(f.Entries, f.Entries[0])
	_, err = SnapshotFromFamily(f, 2)
	assert.ErrorIs(t, err, ErrDuplicateResultKey)
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(LimitFamilyEntry{SignalPathName: "SP", MeasurementName: "THD", ResultName: "Peak",
		ValueType: ValueTypeMeter, MeterLower: []float64{1, 2}}, 4)
	assert.Equal(t, -1, p.SignalPathIndex)
	assert.Equal(t, 2, p.ChannelCount, "meter rows size from their scalars")
	assert.Equal(t, []float64{0, 0}, p.Upper.Meter)

	xy := Placeholder(LimitFamilyEntry{SignalPathName: "SP", MeasurementName: "FR", ResultName: "Level",
		ValueType: ValueTypeXY}, 4)
	assert.Equal(t, 4, xy.ChannelCount)
	assert.Equal(t, 1, Placeholder(xy.Entry(), 0).ChannelCount)
}
