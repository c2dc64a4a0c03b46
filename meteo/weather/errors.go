package weather

import (
	"errors"
	"fmt"
)

// Kind classifies a failed lookup.
type Kind uint8

const (
	// KindUnknown covers failures that are neither transport nor payload related,
	// including non-200 provider responses.
	KindUnknown Kind = iota
	// KindConnection means the provider could not be reached or timed out.
	KindConnection
	// KindParse means the provider answered with a malformed or incomplete payload.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by every failed Client call.
type Error struct {
	Kind Kind
	// Op is the lookup that failed: "by_city" or "by_coordinates".
	Op string
	// StatusCode is set for non-200 provider responses.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("weather %s: %s error", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err. Errors not produced by this
// package are reported as KindUnknown.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindUnknown
}
