// Package export turns a result's stored limit into a payload the instrument
// gateway can take, enforcing what must hold before anything is sent.
package export

import (
	"math"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

type Validator struct {
	elideLeadingZero bool
	obs              ports.Observability
}

func NewValidator(elideLeadingZero bool, obs ports.Observability) *Validator {
	return &Validator{elideLeadingZero: elideLeadingZero, obs: obs}
}

// NonDecreasing reports whether xs never goes down. On failure it returns
// the index i with xs[i] > xs[i+1].
func NonDecreasing(xs []float64) (int, bool) {
	for i := 0; i+1 < len(xs); i++ {
		if xs[i] > xs[i+1] {
			return i, false
		}
	}
	return -1, true
}

// Prepare validates polarity p of r and builds its export payload. Any
// violation rejects the whole payload; r is never modified.
//
// With applyToAll the first channel's curve is the shared curve and is sent
// to every channel.
func (v *Validator) Prepare(r *domain.Result, p domain.Polarity, applyToAll bool) (*domain.ExportPayload, error) {
	if r == nil {
		return nil, &domain.NotFoundError{Kind: domain.ResultNotFound}
	}
	payload := &domain.ExportPayload{
		ResultID:         r.ID,
		Key:              r.Key(),
		ResultName:       r.ResultName,
		SignalPathIndex:  r.SignalPathIndex,
		MeasurementIndex: r.MeasurementIndex,
		Polarity:         p,
		ValueType:        r.ValueType,
	}
	channels := r.ChannelPoints(p)

	switch r.ValueType {
	case domain.ValueTypeMeter:
		for ch, pts := range channels {
			val := pts[0].Value
			if math.IsNaN(val) {
				payload.SkippedChannels = append(payload.SkippedChannels, ch)
				v.logInfo("meter limit unset, channel skipped",
					ports.Field{Key: "key", Value: string(r.Key())},
					ports.Field{Key: "polarity", Value: p.String()},
					ports.Field{Key: "channel", Value: ch},
				)
				continue
			}
			if math.IsInf(val, 0) {
				return nil, domain.Invalid(domain.InvalidNumericInput, ch, 0, "%s %s limit is infinite", r.Key(), p)
			}
			payload.Channels = append(payload.Channels, domain.ChannelPayload{Channel: ch, Value: val})
		}
		return payload, nil

	case domain.ValueTypeXY:
		if applyToAll && len(channels) > 0 {
			shared := channels[0]
			for ch := range channels {
				channels[ch] = shared
			}
		}
		for ch, pts := range channels {
			cp, err := v.xyChannel(r, p, ch, pts)
			if err != nil {
				return nil, err
			}
			payload.Channels = append(payload.Channels, cp)
		}
		return payload, nil

	default:
		return nil, domain.Invalid(domain.ValueTypeMismatch, -1, -1, "%s has value type %q", r.Key(), r.ValueType)
	}
}

func (v *Validator) xyChannel(r *domain.Result, p domain.Polarity, ch int, pts []domain.LimitPoint) (domain.ChannelPayload, error) {
	xs := make([]float64, 0, len(pts))
	ys := make([]float64, 0, len(pts))
	for row, pt := range pts {
		if !pt.Finite(domain.ValueTypeXY) {
			return domain.ChannelPayload{}, domain.Invalid(domain.InvalidNumericInput, ch, row, "%s %s channel %d row %d is not finite", r.Key(), p, ch, row)
		}
		xs = append(xs, pt.X)
		ys = append(ys, pt.Y)
	}
	if at, ok := NonDecreasing(xs); !ok {
		return domain.ChannelPayload{}, domain.Invalid(domain.NonSequentialX, ch, at+1,
			"%s %s channel %d: x[%d]=%g > x[%d]=%g", r.Key(), p, ch, at, xs[at], at+1, xs[at+1])
	}
	if v.elideLeadingZero && len(xs) > 0 && xs[0] == 0 && ys[0] == 0 {
		xs, ys = xs[1:], ys[1:]
	}
	return domain.ChannelPayload{Channel: ch, X: xs, Y: ys}, nil
}

func (v *Validator) logInfo(msg string, fields ...ports.Field) {
	if v.obs != nil {
		v.obs.LogInfo(msg, fields...)
	}
}
