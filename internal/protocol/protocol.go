// Package protocol holds the small value types and constants shared by
// the recovery core: packet numbers, byte counts, packet-number spaces,
// encryption levels and key phases.
package protocol

import "time"

// PacketNumber is a QUIC packet number. It is monotonically increasing
// within a single PacketNumberSpace.
type PacketNumber uint64

// InvalidPacketNumber is used as a sentinel for "no packet number yet".
const InvalidPacketNumber PacketNumber = ^PacketNumber(0)

// ByteCount counts bytes sent or received.
type ByteCount uint64

// PacketNumberSpace identifies one of the three independent packet
// number contexts a QUIC connection maintains.
type PacketNumberSpace uint8

const (
	PNSpaceInitial PacketNumberSpace = iota
	PNSpaceHandshake
	PNSpaceApplicationData

	numPacketNumberSpaces = int(PNSpaceApplicationData) + 1
)

func (s PacketNumberSpace) String() string {
	switch s {
	case PNSpaceInitial:
		return "Initial"
	case PNSpaceHandshake:
		return "Handshake"
	case PNSpaceApplicationData:
		return "ApplicationData"
	default:
		return "Invalid"
	}
}

// NumSpaces is the number of packet-number spaces, for sizing
// array-indexed-by-space state.
const NumSpaces = numPacketNumberSpaces

// EncryptionLevel identifies which keys protected a packet. It maps
// onto a PacketNumberSpace via PNSpace below.
type EncryptionLevel uint8

const (
	EncryptionInitial EncryptionLevel = iota
	EncryptionHandshake
	Encryption0RTT
	Encryption1RTT
	EncryptionVersionNegotiation
)

func (e EncryptionLevel) String() string {
	switch e {
	case EncryptionInitial:
		return "Initial"
	case EncryptionHandshake:
		return "Handshake"
	case Encryption0RTT:
		return "0-RTT"
	case Encryption1RTT:
		return "1-RTT"
	case EncryptionVersionNegotiation:
		return "Version Negotiation"
	default:
		return "unknown"
	}
}

// PNSpace maps an encryption level onto its packet-number space. 0-RTT
// and 1-RTT packets share the ApplicationData space.
func (e EncryptionLevel) PNSpace() PacketNumberSpace {
	switch e {
	case EncryptionInitial:
		return PNSpaceInitial
	case EncryptionHandshake:
		return PNSpaceHandshake
	default:
		return PNSpaceApplicationData
	}
}

// KeyPhase identifies which 1-RTT key generation is in use.
type KeyPhase uint8

const (
	KeyPhaseHandshake KeyPhase = iota
	KeyPhaseZero
	KeyPhaseOne
)

// Perspective is which end of the connection we are.
type Perspective uint8

const (
	PerspectiveServer Perspective = iota
	PerspectiveClient
)

// Packet-type, opaque to the core beyond the VersionNegotiation check
// (spec.md §3, PacketInfo.packet_type).
type PacketType uint8

const (
	PacketTypeInitial PacketType = iota
	PacketTypeHandshake
	PacketType0RTT
	PacketType1RTT
	PacketTypeRetry
	PacketTypeVersionNegotiation
)

// Tunable constants (spec.md §3 Configuration, §4.1).
const (
	// TimerGranularity is the system timer granularity floor applied to
	// derived timeouts (k_granularity in spec.md).
	TimerGranularity = time.Millisecond

	// DefaultInitialRTT is used before any RTT sample has been observed
	// (k_initial_rtt in spec.md).
	DefaultInitialRTT = 333 * time.Millisecond

	// DefaultMaxAckDelay is the default peer-advertised max_ack_delay,
	// used until a transport parameter updates it.
	DefaultMaxAckDelay = 25 * time.Millisecond

	// DefaultPacketThreshold is the default reorder tolerance before a
	// packet-number gap is declared lost (spec.md §3).
	DefaultPacketThreshold = 3

	// DefaultTimeThreshold is the default multiplier applied to
	// max(latest_rtt, smoothed_rtt) to form the loss delay.
	DefaultTimeThreshold = 9.0 / 8

	// LossDetectionTickInterval is the period of the single recurring
	// tick the loss-detection timer is polled against (spec.md §4.3.3).
	LossDetectionTickInterval = 25 * time.Millisecond
)
