package lyceum

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

// ErrChannelLedgerClosed is returned when a channel ledger is written to after being closed.
var ErrChannelLedgerClosed = errors.New("lyceum: channel ledger closed")

// RecordBatchFunc is invoked with every batch of accepted channel limits.
type RecordBatchFunc func([]ExportRecord) error

// NewCallbackLedger adapts a RecordBatchFunc into an ExportLedger so callers
// can plug arbitrary functions without defining structs.
func NewCallbackLedger(name string, fn RecordBatchFunc) ExportLedger {
	if name == "" {
		name = "callback"
	}
	return &callbackLedger{name: name, fn: fn}
}

// NewChannelLedger exposes batches via a channel; it returns the ledger, the
// read-only channel, and a close function that the caller should invoke
// during shutdown.
func NewChannelLedger(name string, buffer int) (ExportLedger, <-chan []ExportRecord, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []ExportRecord, buffer)
	l := &channelLedger{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return l, ch, func() { l.close() }
}

type callbackLedger struct {
	name string
	fn   RecordBatchFunc
}

func (l *callbackLedger) Record(records []*domain.ExportRecord) error {
	if l.fn == nil {
		return fmt.Errorf("callback ledger %q: nil handler", l.name)
	}
	if len(records) == 0 {
		return nil
	}
	return l.fn(copyRecords(records))
}

func (l *callbackLedger) Name() string { return l.name }

type channelLedger struct {
	name   string
	ch     chan []ExportRecord
	closed chan struct{}
	once   sync.Once
}

func (l *channelLedger) Record(records []*domain.ExportRecord) error {
	select {
	case <-l.closed:
		return ErrChannelLedgerClosed
	default:
	}

	if len(records) == 0 {
		return nil
	}

	batch := copyRecords(records)

	select {
	case <-l.closed:
		return ErrChannelLedgerClosed
	case l.ch <- batch:
		return nil
	}
}

func (l *channelLedger) Name() string { return l.name }

func (l *channelLedger) close() {
	l.once.Do(func() {
		close(l.closed)
		close(l.ch)
	})
}

func copyRecords(records []*domain.ExportRecord) []ExportRecord {
	out := make([]ExportRecord, len(records))
	for i, r := range records {
		out[i] = *r
		out[i].X = append([]float64(nil), r.X...)
		out[i].Y = append([]float64(nil), r.Y...)
	}
	return out
}
