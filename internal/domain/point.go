package domain

import "math"

// PointID is a stable synthetic identity handed out by the curve store's
// arena when a point is created. It never changes while the point lives.
type PointID uint64

// LimitPoint is one row of a limit curve. XY curves use X and Y; Meter
// curves carry their scalar in Value.
type LimitPoint struct {
	ID    PointID
	X     float64
	Y     float64
	Value float64
}

func NewXYPoint(x, y float64) LimitPoint { return LimitPoint{X: x, Y: y} }

func NewMeterPoint(v float64) LimitPoint { return LimitPoint{Value: v} }

// SamePair reports whether two XY points share an identical (x, y) pair.
func (p LimitPoint) SamePair(o LimitPoint) bool {
	return p.X == o.X && p.Y == o.Y
}

// Finite reports whether the coordinates relevant to vt are usable numbers.
func (p LimitPoint) Finite(vt ValueType) bool {
	if vt == ValueTypeMeter {
		return isFinite(p.Value)
	}
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type pair struct{ x, y float64 }

// DedupPairs drops points whose (x, y) pair was already seen, keeping the
// first occurrence and the original order.
func DedupPairs(points []LimitPoint) []LimitPoint {
	seen := make(map[pair]struct{}, len(points))
	out := make([]LimitPoint, 0, len(points))
	for _, p := range points {
		k := pair{p.X, p.Y}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
