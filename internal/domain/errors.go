package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every typed error below matches its class sentinel through
// errors.Is, so callers can branch on the class without caring about the kind.
var (
	ErrValidation    = errors.New("lyceum: validation failed")
	ErrNotFound      = errors.New("lyceum: not found")
	ErrState         = errors.New("lyceum: invalid state")
	ErrSerialization = errors.New("lyceum: serialization failed")
)

// ValidationKind enumerates the ways an edit or export can be rejected.
type ValidationKind int

const (
	NonSequentialX ValidationKind = iota + 1
	InvalidChannelIndex
	InvalidRowIndex
	InvalidNumericInput
	UnsupportedForMeter
	ValueTypeMismatch
)

func (k ValidationKind) String() string {
	switch k {
	case NonSequentialX:
		return "non_sequential_x"
	case InvalidChannelIndex:
		return "invalid_channel_index"
	case InvalidRowIndex:
		return "invalid_row_index"
	case InvalidNumericInput:
		return "invalid_numeric_input"
	case UnsupportedForMeter:
		return "unsupported_for_meter"
	case ValueTypeMismatch:
		return "value_type_mismatch"
	default:
		return "unknown"
	}
}

// ValidationError blocks a single edit or export call. The session continues.
type ValidationError struct {
	Kind    ValidationKind
	Channel int
	Row     int
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation: %s", e.Kind)
	}
	return fmt.Sprintf("validation: %s: %s", e.Kind, e.Detail)
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Invalid builds a ValidationError of the given kind.
func Invalid(kind ValidationKind, channel, row int, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Channel: channel, Row: row, Detail: fmt.Sprintf(format, args...)}
}

// NotFoundKind enumerates lookups that can come back empty.
type NotFoundKind int

const (
	GraphNotFound NotFoundKind = iota + 1
	ResultNotFound
	MeasurementNotFound
	PointNotFound
)

func (k NotFoundKind) String() string {
	switch k {
	case GraphNotFound:
		return "graph_not_found"
	case ResultNotFound:
		return "result_not_found"
	case MeasurementNotFound:
		return "measurement_not_found"
	case PointNotFound:
		return "point_not_found"
	default:
		return "unknown"
	}
}

type NotFoundError struct {
	Kind NotFoundKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %q", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(*NotFoundError)
	return ok && t.Kind == e.Kind
}

// StateKind enumerates session states that make an operation meaningless.
type StateKind int

const (
	NoActiveResultSelected StateKind = iota + 1
	DuplicateResultKey
)

func (k StateKind) String() string {
	switch k {
	case NoActiveResultSelected:
		return "no_active_result_selected"
	case DuplicateResultKey:
		return "duplicate_result_key"
	default:
		return "unknown"
	}
}

type StateError struct {
	Kind   StateKind
	Detail string
}

func (e *StateError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("state: %s", e.Kind)
	}
	return fmt.Sprintf("state: %s: %s", e.Kind, e.Detail)
}

func (e *StateError) Is(target error) bool {
	if target == ErrState {
		return true
	}
	t, ok := target.(*StateError)
	return ok && t.Kind == e.Kind
}

// SerializationKind enumerates limit family file failures.
type SerializationKind int

const (
	MalformedLimitFamilyFile SerializationKind = iota + 1
)

func (k SerializationKind) String() string {
	if k == MalformedLimitFamilyFile {
		return "malformed_limit_family_file"
	}
	return "unknown"
}

// SerializationError aborts a whole import. It wraps the decoder or
// validator error that caused it.
type SerializationError struct {
	Kind SerializationKind
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("serialization: %s", e.Kind)
	}
	return fmt.Sprintf("serialization: %s: %v", e.Kind, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool {
	if target == ErrSerialization {
		return true
	}
	t, ok := target.(*SerializationError)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNonSequentialX      = &ValidationError{Kind: NonSequentialX}
	ErrInvalidChannelIndex = &ValidationError{Kind: InvalidChannelIndex}
	ErrInvalidRowIndex     = &ValidationError{Kind: InvalidRowIndex}
	ErrInvalidNumericInput = &ValidationError{Kind: InvalidNumericInput}
	ErrUnsupportedForMeter = &ValidationError{Kind: UnsupportedForMeter}
	ErrValueTypeMismatch   = &ValidationError{Kind: ValueTypeMismatch}

	ErrGraphNotFound       = &NotFoundError{Kind: GraphNotFound}
	ErrResultNotFound      = &NotFoundError{Kind: ResultNotFound}
	ErrMeasurementNotFound = &NotFoundError{Kind: MeasurementNotFound}
	ErrPointNotFound       = &NotFoundError{Kind: PointNotFound}

	ErrNoActiveResultSelected = &StateError{Kind: NoActiveResultSelected}
	ErrDuplicateResultKey     = &StateError{Kind: DuplicateResultKey}

	ErrMalformedLimitFamilyFile = &SerializationError{Kind: MalformedLimitFamilyFile}
)

// ValidationKindOf extracts the kind of a validation error anywhere in err's chain.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}
