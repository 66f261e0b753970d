package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies a codec failure.
type Kind uint8

const (
	KindFraming Kind = iota + 1
	KindValidation
	KindIntegrity
	KindConstruction
)

var (
	ErrFraming      = errors.New("protocol: framing error")
	ErrValidation   = errors.New("protocol: validation error")
	ErrIntegrity    = errors.New("protocol: integrity error")
	ErrConstruction = errors.New("protocol: construction error")
)

var (
	ErrShortBuffer        = errors.New("protocol: short buffer")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes")
	ErrInvalidHeader      = errors.New("protocol: invalid header")
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrOutOfRange         = errors.New("protocol: value out of range")
	ErrUnknownEnum        = errors.New("protocol: value outside enumeration")
	ErrConstMismatch      = errors.New("protocol: constant mismatch")
	ErrInvalidUTF8        = errors.New("protocol: invalid utf-8")
	ErrChecksumMismatch   = errors.New("protocol: checksum mismatch")
	ErrBadSentinel        = errors.New("protocol: footer is not a sentinel")
	ErrShapeNotAllowed    = errors.New("protocol: shape not allowed")
	ErrMissingSuccess     = errors.New("protocol: success flag required")
	ErrNoDefaultShape     = errors.New("protocol: no default shape")
	ErrPayloadTooLarge    = errors.New("protocol: payload too large")
	ErrMissingField       = errors.New("protocol: missing field")
	ErrFieldTypeMismatch  = errors.New("protocol: field type mismatch")
	ErrUnknownField       = errors.New("protocol: unknown field")
)

func (k Kind) String() string {
	switch k {
	case KindFraming:
		return "framing"
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	case KindConstruction:
		return "construction"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindFraming:
		return ErrFraming
	case KindValidation:
		return ErrValidation
	case KindIntegrity:
		return ErrIntegrity
	case KindConstruction:
		return ErrConstruction
	default:
		return nil
	}
}

// Error is a classified codec failure. It matches its kind sentinel and the
// wrapped cause with errors.Is.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("protocol: %s: field=%s: %s", e.Kind, e.Field, e.Reason)
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, or 0 when err is not a codec error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func newError(kind Kind, cause error, field, format string, args ...any) error {
	return &Error{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...), Err: cause}
}

func Framingf(cause error, field, format string, args ...any) error {
	return newError(KindFraming, cause, field, format, args...)
}

func Validationf(cause error, field, format string, args ...any) error {
	return newError(KindValidation, cause, field, format, args...)
}

func Integrityf(cause error, field, format string, args ...any) error {
	return newError(KindIntegrity, cause, field, format, args...)
}

func Constructionf(cause error, field, format string, args ...any) error {
	return newError(KindConstruction, cause, field, format, args...)
}
