package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowcore/qrecovery/internal/protocol"
)

func TestSentPacketTableInsertAndIterate(t *testing.T) {
	table := NewSentPacketTable()
	table.Insert(&PacketInfo{PacketNumber: 1, InFlight: true})
	table.Insert(&PacketInfo{PacketNumber: 3, InFlight: true})
	table.Insert(&PacketInfo{PacketNumber: 4, InFlight: true})

	var seen []protocol.PacketNumber
	table.Iterate(func(p *PacketInfo) bool {
		seen = append(seen, p.PacketNumber)
		return true
	})
	require.Equal(t, []protocol.PacketNumber{1, 3, 4}, seen)
	require.Equal(t, 3, table.Len())
}

func TestSentPacketTableInsertPanicsOnNonIncreasingPacketNumber(t *testing.T) {
	table := NewSentPacketTable()
	table.Insert(&PacketInfo{PacketNumber: 5})
	require.Panics(t, func() {
		table.Insert(&PacketInfo{PacketNumber: 5})
	})
	require.Panics(t, func() {
		table.Insert(&PacketInfo{PacketNumber: 4})
	})
}

func TestSentPacketTableRemove(t *testing.T) {
	table := NewSentPacketTable()
	table.Insert(&PacketInfo{PacketNumber: 1, InFlight: true})
	table.Insert(&PacketInfo{PacketNumber: 2, InFlight: true})
	table.Insert(&PacketInfo{PacketNumber: 3, InFlight: true})

	removed, ok := table.Remove(2)
	require.True(t, ok)
	require.Equal(t, protocol.PacketNumber(2), removed.PacketNumber)
	require.Equal(t, 2, table.Len())

	_, ok = table.Get(2)
	require.False(t, ok)

	_, ok = table.Remove(2)
	require.False(t, ok)
}

func TestSentPacketTableHasOutstandingPackets(t *testing.T) {
	table := NewSentPacketTable()
	require.False(t, table.HasOutstandingPackets())

	table.Insert(&PacketInfo{PacketNumber: 1, InFlight: true})
	require.True(t, table.HasOutstandingPackets())

	table.Remove(1)
	require.False(t, table.HasOutstandingPackets())
}

func TestSentPacketTableTrimsLeadingRemovedEntries(t *testing.T) {
	table := NewSentPacketTable()
	for pn := protocol.PacketNumber(1); pn <= 5; pn++ {
		table.Insert(&PacketInfo{PacketNumber: pn, InFlight: true, TimeSent: time.Unix(int64(pn), 0)})
	}
	table.Remove(1)
	table.Remove(2)

	var seen []protocol.PacketNumber
	table.Iterate(func(p *PacketInfo) bool {
		seen = append(seen, p.PacketNumber)
		return true
	})
	require.Equal(t, []protocol.PacketNumber{3, 4, 5}, seen)

	p, ok := table.Get(3)
	require.True(t, ok)
	require.Equal(t, protocol.PacketNumber(3), p.PacketNumber)
}

func TestSentPacketTableReset(t *testing.T) {
	table := NewSentPacketTable()
	table.Insert(&PacketInfo{PacketNumber: 1, InFlight: true})
	table.Reset()
	require.Equal(t, 0, table.Len())
	require.False(t, table.HasOutstandingPackets())

	table.Insert(&PacketInfo{PacketNumber: 1, InFlight: true})
	require.Equal(t, 1, table.Len())
}
