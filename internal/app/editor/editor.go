package editor

import (
	"errors"
	"math"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// NoAnchor inserts at the end of the channel.
const NoAnchor = -1

// Editor applies user edits to the selected curve. Every successful edit is
// flushed into the result before the call returns.
type Editor struct {
	ctx        *Context
	notifier   ports.Notifier
	applyToAll bool
}

func NewEditor(ctx *Context, notifier ports.Notifier) *Editor {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &Editor{ctx: ctx, notifier: notifier}
}

// SetApplyToAll turns propagation of inserts and updates to every channel
// on or off.
func (e *Editor) SetApplyToAll(on bool) { e.applyToAll = on }

func (e *Editor) ApplyToAll() bool { return e.applyToAll }

func (e *Editor) Context() *Context { return e.ctx }

// BlankPoint is the point inserted when the user adds a row without values.
func BlankPoint(vt domain.ValueType) domain.LimitPoint {
	if vt == domain.ValueTypeMeter {
		return domain.NewMeterPoint(0)
	}
	return domain.NewXYPoint(0, 0)
}

// InsertPoint inserts pt into channel ch before or after row anchor, or at
// the end when anchor is NoAnchor. With apply-to-all on, the same point is
// inserted at the same row of every channel; channels that are too short
// get it appended. The returned ID is the one given to ch's copy.
func (e *Editor) InsertPoint(ch, anchor int, before bool, pt domain.LimitPoint) (domain.PointID, error) {
	return e.insert(ch, anchor, before, pt, e.applyToAll)
}

// InsertPointInverted is InsertPoint with the apply-to-all flag read the
// other way round: propagation happens when the flag is off.
func (e *Editor) InsertPointInverted(ch, anchor int, before bool, pt domain.LimitPoint) (domain.PointID, error) {
	return e.insert(ch, anchor, before, pt, !e.applyToAll)
}

func (e *Editor) insert(ch, anchor int, before bool, pt domain.LimitPoint, propagate bool) (domain.PointID, error) {
	s := e.ctx.Store()
	if err := s.checkChannel(ch); err != nil {
		return 0, e.fail(err)
	}
	r := s.Result()
	if r.ValueType == domain.ValueTypeMeter {
		return 0, e.fail(domain.Invalid(domain.UnsupportedForMeter, ch, anchor, "meter curves hold one value per channel"))
	}
	if !pt.Finite(r.ValueType) {
		return 0, e.fail(domain.Invalid(domain.InvalidNumericInput, ch, anchor, "point (%v, %v) is not a finite number", pt.X, pt.Y))
	}

	n := len(s.channels[ch])
	row := n
	if anchor != NoAnchor {
		if anchor < 0 || anchor >= n {
			return 0, e.fail(domain.Invalid(domain.InvalidRowIndex, ch, anchor, "anchor row %d outside [0, %d)", anchor, n))
		}
		row = anchor
		if !before {
			row++
		}
	}

	id := s.insertAt(ch, row, pt)
	changed := []int{ch}
	if propagate {
		for other := range s.channels {
			if other == ch {
				continue
			}
			s.insertAt(other, row, pt)
			changed = append(changed, other)
		}
	}
	return id, e.commit(changed)
}

// UpdatePoint replaces the point at row in channel ch. The point keeps its
// ID. With apply-to-all on, the same row of every other channel that has it
// is overwritten too.
func (e *Editor) UpdatePoint(ch, row int, pt domain.LimitPoint) error {
	s := e.ctx.Store()
	if err := s.checkChannel(ch); err != nil {
		return e.fail(err)
	}
	r := s.Result()
	if !pt.Finite(r.ValueType) {
		return e.fail(domain.Invalid(domain.InvalidNumericInput, ch, row, "new value is not a finite number"))
	}
	if n := len(s.channels[ch]); row < 0 || row >= n {
		return e.fail(domain.Invalid(domain.InvalidRowIndex, ch, row, "row %d outside [0, %d)", row, n))
	}

	s.replaceAt(ch, row, pt)
	changed := []int{ch}
	if e.applyToAll {
		for other := range s.channels {
			if other == ch || row >= len(s.channels[other]) {
				continue
			}
			s.replaceAt(other, row, pt)
			changed = append(changed, other)
		}
	}
	return e.commit(changed)
}

// DeletePoints removes exactly the points whose IDs are in ids from channel
// ch, keeping the others in order. Meter points are cleared to NaN instead
// since a meter channel always has one slot. Unknown IDs fail the whole call.
func (e *Editor) DeletePoints(ch int, ids []domain.PointID) error {
	s := e.ctx.Store()
	if err := s.checkChannel(ch); err != nil {
		return e.fail(err)
	}
	if len(ids) == 0 {
		return nil
	}

	drop := make(map[domain.PointID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	pts := s.channels[ch]
	found := 0
	for _, p := range pts {
		if _, ok := drop[p.ID]; ok {
			found++
		}
	}
	if found != len(drop) {
		return e.fail(&domain.NotFoundError{Kind: domain.PointNotFound, Name: "channel point"})
	}

	if s.Result().ValueType == domain.ValueTypeMeter {
		for row, p := range pts {
			if _, ok := drop[p.ID]; ok {
				s.replaceAt(ch, row, domain.NewMeterPoint(math.NaN()))
			}
		}
		return e.commit([]int{ch})
	}

	kept := make([]domain.LimitPoint, 0, len(pts)-found)
	for _, p := range pts {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	s.setChannel(ch, kept)
	return e.commit([]int{ch})
}

// DeleteRows deletes the points currently at the given rows of channel ch.
func (e *Editor) DeleteRows(ch int, rows []int) error {
	s := e.ctx.Store()
	if err := s.checkChannel(ch); err != nil {
		return e.fail(err)
	}
	pts := s.channels[ch]
	ids := make([]domain.PointID, 0, len(rows))
	for _, row := range rows {
		if row < 0 || row >= len(pts) {
			return e.fail(domain.Invalid(domain.InvalidRowIndex, ch, row, "row %d outside [0, %d)", row, len(pts)))
		}
		ids = append(ids, pts[row].ID)
	}
	return e.DeletePoints(ch, ids)
}

func (e *Editor) commit(changed []int) error {
	if err := e.ctx.Store().Flush(); err != nil {
		return err
	}
	for _, ch := range changed {
		e.notifier.CurveChanged(ch)
	}
	return nil
}

func (e *Editor) fail(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		e.notifier.ValidationFailed(ve.Kind)
	}
	return err
}
