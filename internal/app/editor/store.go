// Package editor holds the in-memory curve buffer for the result being
// edited and the operations that mutate it.
package editor

import (
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

// Store is the per-channel point buffer for one (Result, Polarity). Every
// point gets a PointID from the store's arena when it enters the buffer.
type Store struct {
	result   *domain.Result
	polarity domain.Polarity
	channels [][]domain.LimitPoint
	nextID   domain.PointID
	dirty    bool
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces the buffer with the persisted limit of r for polarity p.
// XY channels are deduplicated by (x, y), first occurrence wins. The store
// is left untouched when r cannot be loaded.
func (s *Store) Load(r *domain.Result, p domain.Polarity) error {
	if r == nil {
		return &domain.NotFoundError{Kind: domain.ResultNotFound}
	}
	if r.ChannelCount < 1 {
		return domain.Invalid(domain.InvalidChannelIndex, r.ChannelCount, -1, "%s has %d channels", r.Key(), r.ChannelCount)
	}
	if !r.ValueType.Valid() {
		return domain.Invalid(domain.ValueTypeMismatch, -1, -1, "%s has value type %q", r.Key(), r.ValueType)
	}

	loaded := r.ChannelPoints(p)
	for ch, pts := range loaded {
		if r.ValueType == domain.ValueTypeXY {
			pts = domain.DedupPairs(pts)
		}
		for i := range pts {
			pts[i].ID = s.allocID()
		}
		loaded[ch] = pts
	}

	s.result, s.polarity, s.channels = r, p, loaded
	s.dirty = false
	return nil
}

// Loaded reports whether a result is in the buffer.
func (s *Store) Loaded() bool { return s.result != nil }

func (s *Store) Result() *domain.Result { return s.result }

func (s *Store) Polarity() domain.Polarity { return s.polarity }

func (s *Store) ChannelCount() int { return len(s.channels) }

func (s *Store) Dirty() bool { return s.dirty }

// Channel returns a copy of channel ch's points in order.
func (s *Store) Channel(ch int) ([]domain.LimitPoint, error) {
	if err := s.checkChannel(ch); err != nil {
		return nil, err
	}
	return append([]domain.LimitPoint(nil), s.channels[ch]...), nil
}

// Flush writes the buffer back into the loaded result's persisted arrays.
func (s *Store) Flush() error {
	if s.result == nil {
		return &domain.StateError{Kind: domain.NoActiveResultSelected}
	}
	s.result.SetChannelPoints(s.polarity, s.channels)
	s.dirty = false
	return nil
}

// Reset drops the loaded result without flushing.
func (s *Store) Reset() {
	s.result = nil
	s.channels = nil
	s.dirty = false
}

func (s *Store) allocID() domain.PointID {
	s.nextID++
	return s.nextID
}

func (s *Store) checkChannel(ch int) error {
	if s.result == nil {
		return &domain.StateError{Kind: domain.NoActiveResultSelected}
	}
	if ch < 0 || ch >= len(s.channels) {
		return domain.Invalid(domain.InvalidChannelIndex, ch, -1, "channel %d outside [0, %d)", ch, len(s.channels))
	}
	return nil
}

func (s *Store) insertAt(ch, row int, p domain.LimitPoint) domain.PointID {
	p.ID = s.allocID()
	pts := s.channels[ch]
	row = min(max(row, 0), len(pts))
	pts = append(pts, domain.LimitPoint{})
	copy(pts[row+1:], pts[row:])
	pts[row] = p
	s.channels[ch] = pts
	s.dirty = true
	return p.ID
}

func (s *Store) replaceAt(ch, row int, p domain.LimitPoint) {
	p.ID = s.channels[ch][row].ID
	s.channels[ch][row] = p
	s.dirty = true
}

func (s *Store) setChannel(ch int, pts []domain.LimitPoint) {
	s.channels[ch] = pts
	s.dirty = true
}
