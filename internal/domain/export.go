package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChannelPayload is what the gateway receives for one channel.
type ChannelPayload struct {
	Channel int
	X       []float64
	Y       []float64
	Value   float64
}

// ExportPayload is a validated, ready-to-send limit for one (Result, Polarity).
// SkippedChannels lists Meter channels left out because their scalar is NaN.
type ExportPayload struct {
	ResultID         uuid.UUID
	Key              QualifiedKey
	ResultName       string
	SignalPathIndex  int
	MeasurementIndex int
	Polarity         Polarity
	ValueType        ValueType
	Channels         []ChannelPayload
	SkippedChannels  []int
}

// ExportRecord is one channel limit accepted by the instrument.
type ExportRecord struct {
	Key        QualifiedKey
	Polarity   Polarity
	ValueType  ValueType
	Channel    int
	X          []float64
	Y          []float64
	Value      float64
	ExportedAt time.Time
}

// Records flattens the payload into ledger records stamped with at.
func (p *ExportPayload) Records(at time.Time) []*ExportRecord {
	out := make([]*ExportRecord, 0, len(p.Channels))
	for _, ch := range p.Channels {
		out = append(out, &ExportRecord{
			Key:        p.Key,
			Polarity:   p.Polarity,
			ValueType:  p.ValueType,
			Channel:    ch.Channel,
			X:          ch.X,
			Y:          ch.Y,
			Value:      ch.Value,
			ExportedAt: at,
		})
	}
	return out
}
