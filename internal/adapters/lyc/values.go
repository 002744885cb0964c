package lyc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// nanToken is how an unset scalar is spelled on disk. Null is accepted too.
const nanToken = "NaN"

// limitValues is a float array whose NaN elements survive JSON.
type limitValues []float64

func (v limitValues) MarshalJSON() ([]byte, error) {
	out := make([]any, len(v))
	for i, f := range v {
		if math.IsNaN(f) {
			out[i] = nanToken
			continue
		}
		out[i] = f
	}
	return json.Marshal(out)
}

func (v *limitValues) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}
	out := make(limitValues, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		if bytes.Equal(r, []byte("null")) || bytes.Equal(r, []byte(`"`+nanToken+`"`)) {
			out[i] = math.NaN()
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	*v = out
	return nil
}
