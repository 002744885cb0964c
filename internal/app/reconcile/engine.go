// Package reconcile repairs a loaded limit family against the live result
// set: keys recorded in the file but absent from the session are resolved one
// at a time by removing, adding or matching them.
package reconcile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// Outcome records how one missing key was resolved.
type Outcome struct {
	Key    domain.QualifiedKey
	Action ports.Action
	Row    int
	Label  string
}

type Engine struct {
	family     *domain.LimitFamily
	set        *domain.ResultSet
	tracked    domain.KeySet
	added      domain.KeySet
	matched    map[uuid.UUID]domain.QualifiedKey
	xyChannels int
	onAdopt    func(*domain.Result)
	history    []Outcome
	obs        ports.Observability
}

// NewEngine starts tracking every key in family against set. set is mutated
// by Add and Match.
func NewEngine(family *domain.LimitFamily, set *domain.ResultSet, obs ports.Observability) *Engine {
	return &Engine{
		family:     family,
		set:        set,
		tracked:    family.Keys(),
		added:      domain.NewKeySet(),
		matched:    map[uuid.UUID]domain.QualifiedKey{},
		xyChannels: 1,
		obs:        obs,
	}
}

// SetXYChannels sets the channel count given to XY rows created by Add.
func (e *Engine) SetXYChannels(n int) { e.xyChannels = max(n, 1) }

// OnAdopt registers fn to run after a live result took limits from the file,
// through Match or Apply.
func (e *Engine) OnAdopt(fn func(*domain.Result)) { e.onAdopt = fn }

// Missing returns the tracked file keys with no live result, sorted.
func (e *Engine) Missing() []domain.QualifiedKey {
	return domain.Difference(e.tracked, e.set.Keys())
}

// Pending returns the family entries behind Missing, in the same order.
func (e *Engine) Pending() []domain.LimitFamilyEntry {
	keys := e.Missing()
	out := make([]domain.LimitFamilyEntry, 0, len(keys))
	for _, k := range keys {
		if entry, ok := e.family.Entry(k); ok {
			out = append(out, entry)
		}
	}
	return out
}

// History lists resolutions in the order they were applied.
func (e *Engine) History() []Outcome {
	return append([]Outcome(nil), e.history...)
}

// Remove discards the file entry for key.
func (e *Engine) Remove(key domain.QualifiedKey) error {
	if _, err := e.missingEntry(key); err != nil {
		return err
	}
	e.tracked.Remove(key)
	e.record(Outcome{Key: key, Action: ports.ActionRemove})
	return nil
}

// Add inserts a placeholder result named after the entry at row. Its limit
// data is empty, not taken from the file.
func (e *Engine) Add(key domain.QualifiedKey, row int) (*domain.Result, error) {
	entry, err := e.missingEntry(key)
	if err != nil {
		return nil, err
	}
	r := domain.Placeholder(entry, e.xyChannels)
	if err := e.set.Insert(row, r); err != nil {
		return nil, err
	}
	e.added.Add(key)
	e.record(Outcome{Key: key, Action: ports.ActionAdd, Row: row})
	return r, nil
}

// Match copies the entry's limits onto the live result whose display label
// is label and stops tracking key. A matched result keeps those limits:
// Apply will not overwrite it with the file entry for its own key.
func (e *Engine) Match(key domain.QualifiedKey, label string) (*domain.Result, error) {
	entry, err := e.missingEntry(key)
	if err != nil {
		return nil, err
	}
	r, ok := e.set.ByLabel(label)
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.ResultNotFound, Name: label}
	}
	if err := r.Adopt(entry); err != nil {
		return nil, err
	}
	e.matched[r.ID] = key
	e.adopted(r)
	e.tracked.Remove(key)
	e.record(Outcome{Key: key, Action: ports.ActionMatch, Label: label})
	return r, nil
}

// Resolve applies res to key.
func (e *Engine) Resolve(key domain.QualifiedKey, res ports.Resolution) error {
	switch res.Action {
	case ports.ActionRemove:
		return e.Remove(key)
	case ports.ActionAdd:
		_, err := e.Add(key, res.Row)
		return err
	case ports.ActionMatch:
		_, err := e.Match(key, res.Label)
		return err
	default:
		return fmt.Errorf("reconcile %s: unknown action %d", key, res.Action)
	}
}

// Run asks p about each missing entry in key order until none is left. It
// stops at the first prompt or resolution error; resolutions made before it
// stay applied.
func (e *Engine) Run(p ports.Prompter) error {
	for {
		missing := e.Missing()
		if len(missing) == 0 {
			return nil
		}
		key := missing[0]
		entry, err := e.missingEntry(key)
		if err != nil {
			return err
		}
		res, err := p.Prompt(entry, e.set.Labels())
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", key, err)
		}
		if err := e.Resolve(key, res); err != nil {
			return fmt.Errorf("reconcile %s: %w", key, err)
		}
	}
}

// Apply copies every still-tracked file entry onto the live result with the
// same key, skipping placeholders created by Add and results that were the
// target of a Match. Value types are checked for all entries before any
// result is touched. It returns the number of results updated.
func (e *Engine) Apply() (int, error) {
	type pair struct {
		r     *domain.Result
		entry domain.LimitFamilyEntry
	}
	var todo []pair
	for _, entry := range e.family.Entries {
		k := entry.Key()
		if !e.tracked.Has(k) || e.added.Has(k) {
			continue
		}
		r, ok := e.set.ByKey(k)
		if !ok {
			continue
		}
		if from, ok := e.matched[r.ID]; ok {
			if e.obs != nil {
				e.obs.LogInfo("kept matched limits",
					ports.Field{Key: "key", Value: string(k)},
					ports.Field{Key: "matched_from", Value: string(from)},
				)
			}
			continue
		}
		if r.ValueType != entry.ValueType {
			return 0, domain.Invalid(domain.ValueTypeMismatch, -1, -1, "%s carries %q, live result is %q", k, entry.ValueType, r.ValueType)
		}
		todo = append(todo, pair{r, entry})
	}
	for _, p := range todo {
		if err := p.r.Adopt(p.entry); err != nil {
			return 0, err
		}
		e.adopted(p.r)
	}
	if e.obs != nil {
		e.obs.IncCounter(ports.MetricReconcileApplied, float64(len(todo)))
	}
	return len(todo), nil
}

func (e *Engine) missingEntry(key domain.QualifiedKey) (domain.LimitFamilyEntry, error) {
	if !e.tracked.Has(key) {
		return domain.LimitFamilyEntry{}, &domain.NotFoundError{Kind: domain.ResultNotFound, Name: string(key)}
	}
	if _, live := e.set.ByKey(key); live {
		return domain.LimitFamilyEntry{}, &domain.StateError{Kind: domain.DuplicateResultKey, Detail: string(key) + " is already live"}
	}
	entry, ok := e.family.Entry(key)
	if !ok {
		return domain.LimitFamilyEntry{}, &domain.NotFoundError{Kind: domain.ResultNotFound, Name: string(key)}
	}
	return entry, nil
}

func (e *Engine) adopted(r *domain.Result) {
	if e.onAdopt != nil {
		e.onAdopt(r)
	}
}

func (e *Engine) record(o Outcome) {
	e.history = append(e.history, o)
	if e.obs == nil {
		return
	}
	switch o.Action {
	case ports.ActionRemove:
		e.obs.IncCounter(ports.MetricReconcileRemove, 1)
	case ports.ActionAdd:
		e.obs.IncCounter(ports.MetricReconcileAdd, 1)
	case ports.ActionMatch:
		e.obs.IncCounter(ports.MetricReconcileMatch, 1)
	}
	e.obs.LogInfo("reconciled family entry",
		ports.Field{Key: "key", Value: string(o.Key)},
		ports.Field{Key: "action", Value: o.Action.String()},
	)
}
