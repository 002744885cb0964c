package domain

import "github.com/google/uuid"

// ResultSet is the session's ordered checked-result collection. Qualified
// keys are unique within it.
type ResultSet struct {
	rows []*Result
}

func NewResultSet(results ...*Result) (*ResultSet, error) {
	s := &ResultSet{rows: make([]*Result, 0, len(results))}
	for _, r := range results {
		if err := s.Append(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResultSet) Len() int { return len(s.rows) }

// Rows returns the results in row order. The slice is a copy; the results
// are shared.
func (s *ResultSet) Rows() []*Result {
	return append([]*Result(nil), s.rows...)
}

func (s *ResultSet) At(row int) (*Result, bool) {
	if row < 0 || row >= len(s.rows) {
		return nil, false
	}
	return s.rows[row], true
}

func (s *ResultSet) Append(r *Result) error {
	return s.Insert(len(s.rows), r)
}

// Insert places r at row, clamped to [0, Len()].
func (s *ResultSet) Insert(row int, r *Result) error {
	if _, ok := s.ByKey(r.Key()); ok {
		return &StateError{Kind: DuplicateResultKey, Detail: string(r.Key())}
	}
	row = min(max(row, 0), len(s.rows))
	s.rows = append(s.rows, nil)
	copy(s.rows[row+1:], s.rows[row:])
	s.rows[row] = r
	return nil
}

func (s *ResultSet) ByKey(k QualifiedKey) (*Result, bool) {
	for _, r := range s.rows {
		if r.Key() == k {
			return r, true
		}
	}
	return nil, false
}

func (s *ResultSet) ByLabel(label string) (*Result, bool) {
	for _, r := range s.rows {
		if r.Label() == label {
			return r, true
		}
	}
	return nil, false
}

func (s *ResultSet) ByID(id uuid.UUID) (*Result, bool) {
	for _, r := range s.rows {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

func (s *ResultSet) Keys() KeySet {
	ks := make(KeySet, len(s.rows))
	for _, r := range s.rows {
		ks.Add(r.Key())
	}
	return ks
}

func (s *ResultSet) Labels() []string {
	out := make([]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Label()
	}
	return out
}
