// Package qerr defines the single error class the recovery core is
// allowed to surface externally: a malformed ACK frame (spec.md §7 kind
// 2). It is grounded on the teacher's qerr/quic_error.go, trimmed to the
// one error code this core ever raises.
package qerr

import "fmt"

// ErrorCode is a QUIC transport error code.
type ErrorCode uint64

const (
	// NoError is never itself raised; it exists for completeness of the
	// error-code space, matching qerr/error_codes.go.
	NoError ErrorCode = 0x0
	// ProtocolViolation is raised for a malformed ACK frame: an
	// underflowing or inverted range during AckRangeDecoder expansion
	// (spec.md §4.2, §7 kind 2).
	ProtocolViolation ErrorCode = 0xa
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case ProtocolViolation:
		return "PROTOCOL_VIOLATION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// TransportError pairs a QUIC transport error code with a human-readable
// reason, grounded on qerr.QuicError. The connection layer is
// responsible for closing the connection with this error (spec.md §7);
// the recovery core only constructs and returns it.
type TransportError struct {
	ErrorCode    ErrorCode
	ErrorMessage string
}

// New constructs a TransportError, mirroring qerr.Error(code, msg).
func New(code ErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, ErrorMessage: msg}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorMessage)
}
