// Package lyc reads and writes limit family files (.lyc): a JSON array with
// one object per checked result.
package lyc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

// Ext is the limit family file extension.
const Ext = ".lyc"

type wireEntry struct {
	SignalPathName    string `json:"SignalPathName" validate:"required"`
	MeasurementName   string `json:"MeasurementName" validate:"required"`
	ResultName        string `json:"ResultName" validate:"required"`
	UpperLimitEnabled bool   `json:"UpperLimitEnabled"`
	LowerLimitEnabled bool   `json:"LowerLimitEnabled"`

	MeterUpperLimitValues  limitValues `json:"MeterUpperLimitValues,omitempty"`
	MeterLowerLimitValues  limitValues `json:"MeterLowerLimitValues,omitempty"`
	XValueUpperLimitValues limitValues `json:"XValueUpperLimitValues,omitempty"`
	XValueLowerLimitValues limitValues `json:"XValueLowerLimitValues,omitempty"`
	YValueUpperLimitValues limitValues `json:"YValueUpperLimitValues,omitempty"`
	YValueLowerLimitValues limitValues `json:"YValueLowerLimitValues,omitempty"`

	ResultValueType string `json:"ResultValueType" validate:"valuetype"`
}

// Serializer converts between live results, limit families and .lyc bytes.
type Serializer struct {
	validate *validator.Validate
	indent   bool
}

func NewSerializer(indent bool) *Serializer {
	v := validator.New()
	_ = v.RegisterValidation("valuetype", validateValueType)
	v.RegisterStructValidation(validatePairedArrays, wireEntry{})
	return &Serializer{validate: v, indent: indent}
}

func validateValueType(fl validator.FieldLevel) bool {
	return domain.ValueType(fl.Field().String()).Valid()
}

// validatePairedArrays rejects XY entries whose X and Y arrays differ in length.
func validatePairedArrays(sl validator.StructLevel) {
	e := sl.Current().Interface().(wireEntry)
	if domain.ValueType(e.ResultValueType) != domain.ValueTypeXY {
		return
	}
	if len(e.XValueUpperLimitValues) != len(e.YValueUpperLimitValues) {
		sl.ReportError(e.YValueUpperLimitValues, "YValueUpperLimitValues", "YValueUpperLimitValues", "pairedlen", "")
	}
	if len(e.XValueLowerLimitValues) != len(e.YValueLowerLimitValues) {
		sl.ReportError(e.YValueLowerLimitValues, "YValueLowerLimitValues", "YValueLowerLimitValues", "pairedlen", "")
	}
}

// Serialize maps each result to its family entry.
func (s *Serializer) Serialize(results []*domain.Result) *domain.LimitFamily {
	return domain.FamilyFromResults(results)
}

// Marshal encodes a family as a .lyc JSON array.
func (s *Serializer) Marshal(f *domain.LimitFamily) ([]byte, error) {
	out := make([]wireEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		out = append(out, toWire(e))
	}
	if s.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// Deserialize parses a .lyc file. Any defect fails the whole file with a
// MalformedLimitFamilyFile error; no partial family is returned.
func (s *Serializer) Deserialize(data []byte) (*domain.LimitFamily, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(fmt.Errorf("expected a JSON array"))
	}

	var wire []wireEntry
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, malformed(err)
	}

	f := &domain.LimitFamily{Entries: make([]domain.LimitFamilyEntry, 0, len(wire))}
	seen := make(domain.KeySet, len(wire))
	for i, w := range wire {
		if err := s.validate.Struct(w); err != nil {
			return nil, malformed(fmt.Errorf("entry %d: %w", i, err))
		}
		e := fromWire(w)
		if seen.Has(e.Key()) {
			return nil, malformed(fmt.Errorf("entry %d: duplicate key %q", i, e.Key()))
		}
		seen.Add(e.Key())
		f.Entries = append(f.Entries, e)
	}
	return f, nil
}

func malformed(err error) error {
	return &domain.SerializationError{Kind: domain.MalformedLimitFamilyFile, Err: err}
}

func toWire(e domain.LimitFamilyEntry) wireEntry {
	w := wireEntry{
		SignalPathName:    e.SignalPathName,
		MeasurementName:   e.MeasurementName,
		ResultName:        e.ResultName,
		UpperLimitEnabled: e.UpperLimitEnabled,
		LowerLimitEnabled: e.LowerLimitEnabled,
		ResultValueType:   string(e.ValueType),
	}
	if e.ValueType == domain.ValueTypeMeter {
		w.MeterUpperLimitValues = e.MeterUpper
		w.MeterLowerLimitValues = e.MeterLower
		return w
	}
	w.XValueUpperLimitValues = e.XUpper
	w.XValueLowerLimitValues = e.XLower
	w.YValueUpperLimitValues = e.YUpper
	w.YValueLowerLimitValues = e.YLower
	return w
}

// fromWire keeps only the arrays relevant to the value type; those are
// never nil, the others always are.
func fromWire(w wireEntry) domain.LimitFamilyEntry {
	e := domain.LimitFamilyEntry{
		SignalPathName:    w.SignalPathName,
		MeasurementName:   w.MeasurementName,
		ResultName:        w.ResultName,
		ValueType:         domain.ValueType(w.ResultValueType),
		UpperLimitEnabled: w.UpperLimitEnabled,
		LowerLimitEnabled: w.LowerLimitEnabled,
	}
	if e.ValueType == domain.ValueTypeMeter {
		e.MeterUpper = nonNil(w.MeterUpperLimitValues)
		e.MeterLower = nonNil(w.MeterLowerLimitValues)
		return e
	}
	e.XUpper = nonNil(w.XValueUpperLimitValues)
	e.XLower = nonNil(w.XValueLowerLimitValues)
	e.YUpper = nonNil(w.YValueUpperLimitValues)
	e.YLower = nonNil(w.YValueLowerLimitValues)
	return e
}

func nonNil(v limitValues) []float64 {
	if v == nil {
		return []float64{}
	}
	return []float64(v)
}
