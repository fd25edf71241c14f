package recovery

import (
	"github.com/flowcore/qrecovery/internal/protocol"
)

// SentPacketTable is the ordered `packet_number -> PacketInfo` map of
// spec.md §3, one per packet-number space. It is grounded directly on
// the teacher's internal/ackhandler/sent_packet_history.go: an
// offset-indexed slice where index i holds packet number `first+i`, nil
// entries mark removed packets, and a leading run of nils is trimmed
// after every removal so the slice does not grow unboundedly. Caller
// contract (spec.md §5): packet numbers are inserted in strictly
// increasing order.
type SentPacketTable struct {
	packets []*PacketInfo

	// numOutstanding counts non-nil entries with InFlight set, mirroring
	// the teacher's numOutstanding/HasOutstandingPackets pair.
	numOutstanding int

	highestPacketNumber protocol.PacketNumber
	hasHighest          bool
}

// NewSentPacketTable returns an empty table.
func NewSentPacketTable() *SentPacketTable {
	return &SentPacketTable{packets: make([]*PacketInfo, 0, 32)}
}

// Insert adds info, keyed by info.PacketNumber. info.PacketNumber must be
// strictly greater than every previously inserted packet number in this
// table (spec.md §5 ordering guarantee); violating this is a programming
// error and panics, matching the teacher's own
// "non-sequential packet number use" panic.
func (t *SentPacketTable) Insert(info *PacketInfo) {
	pn := info.PacketNumber
	if t.hasHighest && pn <= t.highestPacketNumber {
		panic("recovery: non-sequential packet number use")
	}
	start := t.highestPacketNumber + 1
	if !t.hasHighest {
		start = pn
	}
	for p := start; p < pn; p++ {
		t.packets = append(t.packets, nil)
	}
	t.packets = append(t.packets, info)
	if info.InFlight {
		t.numOutstanding++
	}
	t.highestPacketNumber = pn
	t.hasHighest = true
}

// Get returns the tracked descriptor for pn, if any.
func (t *SentPacketTable) Get(pn protocol.PacketNumber) (*PacketInfo, bool) {
	idx, ok := t.index(pn)
	if !ok {
		return nil, false
	}
	p := t.packets[idx]
	if p == nil {
		return nil, false
	}
	return p, true
}

// Remove deletes the descriptor for pn, if tracked, and reports whether
// it was present.
func (t *SentPacketTable) Remove(pn protocol.PacketNumber) (*PacketInfo, bool) {
	idx, ok := t.index(pn)
	if !ok {
		return nil, false
	}
	p := t.packets[idx]
	if p == nil {
		return nil, false
	}
	if p.InFlight {
		t.numOutstanding--
	}
	t.packets[idx] = nil
	t.trimLeading(idx)
	return p, true
}

// Iterate visits every tracked descriptor in ascending packet-number
// order. cb returns false to stop early, matching loss detection's need
// to stop at the first packet number beyond largest_acked (spec.md
// §4.3.2).
func (t *SentPacketTable) Iterate(cb func(*PacketInfo) bool) {
	for _, p := range t.packets {
		if p == nil {
			continue
		}
		if !cb(p) {
			return
		}
	}
}

// HasOutstandingPackets reports whether any tracked descriptor has
// InFlight set.
func (t *SentPacketTable) HasOutstandingPackets() bool { return t.numOutstanding > 0 }

// Len returns the number of live (non-removed) descriptors tracked.
func (t *SentPacketTable) Len() int {
	n := 0
	for _, p := range t.packets {
		if p != nil {
			n++
		}
	}
	return n
}

// Reset clears the table entirely, matching LossDetector.reset() (spec.md
// §4.3, §5).
func (t *SentPacketTable) Reset() {
	t.packets = t.packets[:0]
	t.numOutstanding = 0
	t.highestPacketNumber = 0
	t.hasHighest = false
}

func (t *SentPacketTable) index(pn protocol.PacketNumber) (int, bool) {
	if len(t.packets) == 0 {
		return 0, false
	}
	first := t.firstPacketNumber()
	if pn < first {
		return 0, false
	}
	idx := int(pn - first)
	if idx > len(t.packets)-1 {
		return 0, false
	}
	return idx, true
}

func (t *SentPacketTable) firstPacketNumber() protocol.PacketNumber {
	return t.highestPacketNumber - protocol.PacketNumber(len(t.packets)-1)
}

// trimLeading drops a leading run of nil entries so the slice does not
// retain dead space forever, mirroring the teacher's cleanupStart.
func (t *SentPacketTable) trimLeading(fromIdx int) {
	for fromIdx > 0 {
		fromIdx--
		if t.packets[fromIdx] != nil {
			break
		}
	}
	if fromIdx != 0 {
		return
	}
	for i, p := range t.packets {
		if p != nil {
			t.packets = t.packets[i:]
			return
		}
	}
	t.packets = t.packets[:0]
}
