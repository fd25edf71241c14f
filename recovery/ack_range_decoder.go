package recovery

import (
	"fmt"

	"github.com/flowcore/qrecovery/internal/protocol"
	"github.com/flowcore/qrecovery/internal/qerr"
	"github.com/flowcore/qrecovery/internal/wire"
)

// Range is one inclusive [Smallest, Largest] packet-number range decoded
// from an AckFrame, matching internal/wire.AckRange's field naming.
type Range = wire.AckRange

// DecodeAckRanges implements spec.md §4.2: expand an ACK frame's
// largest_acknowledged/first_ack_block plus its (gap, length) blocks
// into a set of inclusive packet-number ranges, in descending order (the
// order the wire blocks are transmitted in, grounded on
// internal/wire/ack_frame_test.go "parses an ACK frame that has a single
// block"/"...multiple blocks").
//
// Any underflow (a block's length or gap value driving x below zero) or
// inversion is returned as a malformed-ACK error (spec.md §7 kind 2); the
// caller must not mutate any detector state before this returns.
func DecodeAckRanges(frame *wire.AckFrame) ([]Range, error) {
	largest := frame.LargestAcked
	if frame.FirstAckBlock > uint64(largest) {
		return nil, malformedAck("first ack block %d exceeds largest acked %d", frame.FirstAckBlock, largest)
	}

	x := largest
	smallest := x - protocol.PacketNumber(frame.FirstAckBlock)
	ranges := []Range{{Smallest: smallest, Largest: x}}

	if smallest == 0 && len(frame.Blocks) > 0 {
		return nil, malformedAck("first ack block leaves no room for further gap blocks")
	}
	// x <- x - first_ack_block - 1
	x = smallest - 1

	for _, block := range frame.Blocks {
		if uint64(x) < block.Gap+1 {
			return nil, malformedAck("gap %d underflows at x=%d", block.Gap, x)
		}
		x = x - protocol.PacketNumber(block.Gap) - 1
		if uint64(x) < block.Length {
			return nil, malformedAck("length %d underflows at x=%d", block.Length, x)
		}
		lo := x - protocol.PacketNumber(block.Length)
		ranges = append(ranges, Range{Smallest: lo, Largest: x})
		if lo == 0 {
			x = 0
		} else {
			x = lo - 1
		}
	}

	if err := checkNonOverlapping(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

// checkNonOverlapping enforces spec.md §9's resolution of the "overlapping
// ACK ranges" open question: treat overlap as malformed rather than
// silently deduplicating. Ranges arrive in descending order, so overlap
// is detected by comparing each range's Largest against the previous
// range's Smallest.
func checkNonOverlapping(ranges []Range) error {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Largest >= ranges[i-1].Smallest {
			return malformedAck("ack range %d overlaps or inverts range %d", i, i-1)
		}
	}
	return nil
}

func malformedAck(format string, args ...interface{}) *qerr.TransportError {
	return qerr.New(qerr.ProtocolViolation, fmt.Sprintf("malformed ACK frame: "+format, args...))
}
