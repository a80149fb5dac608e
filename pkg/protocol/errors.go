package protocol

import (
	"errors"
	"fmt"

	"xeth-go/pkg/protocol/spec"
)

// These use errors.New so callers can match them with errors.Is through a
// *DecodeError.
var (
	ErrTruncated       = errors.New("protocol: truncated message")
	ErrNotAMessage     = errors.New("protocol: not a message")
	ErrVersionMismatch = errors.New("protocol: version mismatch")
	ErrUnknownKind     = errors.New("protocol: unknown kind")
	ErrMalformed       = errors.New("protocol: malformed message")

	ErrKindMismatch    = errors.New("protocol: kind does not match message layout")
	ErrTooManyNextHops = errors.New("protocol: too many next hops")
	ErrNameTooLong     = errors.New("protocol: interface name too long")
	ErrMalformedName   = errors.New("protocol: interface name contains NUL")
)

// DecodeError describes why a buffer was rejected. Err is one of the
// sentinel errors above.
type DecodeError struct {
	Err     error
	Kind    spec.Kind
	Version uint8
	// Len is the buffer length, Want the length the header implies.
	Len  int
	Want int
}

func (e *DecodeError) Error() string {
	switch e.Err {
	case ErrUnknownKind:
		return fmt.Sprintf("%v %d", e.Err, uint8(e.Kind))
	case ErrVersionMismatch:
		return fmt.Sprintf("%v: got %d, want %d", e.Err, e.Version, MsgVersion)
	case ErrTruncated, ErrMalformed:
		if e.Want == SizeofHeader && e.Len < SizeofHeader {
			return fmt.Sprintf("%v: length %d, want %d", e.Err, e.Len, e.Want)
		}
		return fmt.Sprintf("%v: %s length %d, want %d", e.Err, e.Kind, e.Len, e.Want)
	default:
		return e.Err.Error()
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnknownKind returns the raw kind byte of an ErrUnknownKind failure.
func UnknownKind(err error) (uint8, bool) {
	var de *DecodeError
	if errors.As(err, &de) && de.Err == ErrUnknownKind {
		return uint8(de.Kind), true
	}
	return 0, false
}
