package editor

import (
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

// Context tracks which (Result, Polarity) the store represents. It is passed
// to whoever edits; there is no process-wide selection.
type Context struct {
	store *Store
	upper bool
}

func NewContext(store *Store) *Context {
	if store == nil {
		store = NewStore()
	}
	return &Context{store: store, upper: true}
}

// Select flushes the outgoing result if it has unflushed edits, then loads
// r's upper (upper=true) or lower limit. On a load failure the previous
// selection stays active.
func (c *Context) Select(r *domain.Result, upper bool) error {
	if c.store.Loaded() && c.store.Dirty() {
		if err := c.store.Flush(); err != nil {
			return err
		}
	}
	if err := c.store.Load(r, domain.PolarityOf(upper)); err != nil {
		return err
	}
	c.upper = upper
	return nil
}

// Result returns the selected result or a NoActiveResultSelected error.
func (c *Context) Result() (*domain.Result, error) {
	if !c.store.Loaded() {
		return nil, &domain.StateError{Kind: domain.NoActiveResultSelected}
	}
	return c.store.Result(), nil
}

func (c *Context) EditingUpper() bool { return c.upper }

func (c *Context) Polarity() domain.Polarity { return domain.PolarityOf(c.upper) }

func (c *Context) Store() *Store { return c.store }
