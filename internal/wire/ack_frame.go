// Package wire holds the pre-parsed wire-frame shapes the recovery core
// consumes. Parsing bytes into these types is explicitly out of scope
// for the core (spec.md §1); this package only defines the shapes.
package wire

import "github.com/flowcore/qrecovery/internal/protocol"

// AckRange is one inclusive [Smallest, Largest] packet-number range
// asserted as acknowledged, grounded on the teacher's
// internal/wire/ack_range.go (there named FirstPacketNumber/
// LastPacketNumber; renamed here to match the more common
// Smallest/Largest naming used by the teacher's own ack_frame_test.go
// assertions).
type AckRange struct {
	Smallest protocol.PacketNumber
	Largest  protocol.PacketNumber
}

// ECNCounts carries the optional ECN block of an ACK frame.
type ECNCounts struct {
	ECT0, ECT1, ECNCE uint64
}

// AckFrame is the pre-parsed representation of a QUIC ACK frame, per
// spec.md §6. AckDelay is the raw, unscaled microsecond value carried on
// the wire; the core is responsible for applying the peer's
// ack_delay_exponent (spec.md §4.3.1 step 4).
type AckFrame struct {
	LargestAcked   protocol.PacketNumber
	AckDelay       uint64 // raw microseconds, unscaled
	FirstAckBlock  uint64
	Blocks         []AckBlock // gap/length blocks, in the order transmitted
	ECN            *ECNCounts
}

// AckBlock is one (gap, length) pair in the wire encoding described by
// spec.md §4.2, grounded on the gap/length parsing exercised by the
// teacher's internal/wire/ack_frame_test.go ("parses an ACK frame that
// has a single block").
type AckBlock struct {
	Gap    uint64
	Length uint64
}
