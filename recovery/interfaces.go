package recovery

import (
	"time"

	"github.com/flowcore/qrecovery/internal/congestion"
	"github.com/flowcore/qrecovery/internal/protocol"
	"github.com/flowcore/qrecovery/internal/scheduler"
	"github.com/flowcore/qrecovery/internal/wire"
)

// CongestionController, Pinger and Padder are re-exported from
// internal/congestion so callers only need to import this package to
// wire a LossDetector together (spec.md §6 Consumed).
type CongestionController = congestion.Controller
type Pinger = congestion.Pinger
type Padder = congestion.Padder

// RttConfig is the Configuration collaborator of spec.md §3/§6: a plain
// struct handed in by the caller, not something the core loads itself
// (loading it from the environment is cmd/qrecdemo's job, via
// envconfig — see SPEC_FULL.md's Configuration section).
type RttConfig struct {
	PacketThreshold uint32
	TimeThreshold   float64
	Granularity     time.Duration
	InitialRTT      time.Duration
}

// DefaultRttConfig returns the spec.md §3 defaults.
func DefaultRttConfig() RttConfig {
	return RttConfig{
		PacketThreshold: protocol.DefaultPacketThreshold,
		TimeThreshold:   protocol.DefaultTimeThreshold,
		Granularity:     protocol.TimerGranularity,
		InitialRTT:      protocol.DefaultInitialRTT,
	}
}

// KeyInfo answers whether a given key phase's encryption/decryption keys
// are installed (spec.md §6).
type KeyInfo interface {
	IsEncryptionKeyAvailable(phase protocol.KeyPhase) bool
	IsDecryptionKeyAvailable(phase protocol.KeyPhase) bool
}

// Direction is which way a connection was established, used by
// ConnectionInfo.Direction (spec.md §6).
type Direction uint8

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
)

// ConnectionInfo exposes the small amount of connection identity the
// core needs: its direction (to decide client-without-1-RTT-key status,
// spec.md §4.3.3) and an id for logging, plus the address-validation
// flag from the address-validation-aware timer gating SUPPLEMENTED
// FEATURE (SPEC_FULL.md).
type ConnectionInfo interface {
	Direction() Direction
	ConnectionID() string
	// AddressValidated reports whether the peer's address has been
	// validated. Only meaningful for DirectionIncoming connections;
	// DirectionOutgoing connections should always return true.
	AddressValidated() bool
}

// Event identifies a Context callback (spec.md §6).
type Event uint8

const (
	EventPacketLost Event = iota
)

// Context is the callback sink for detector-triggered events, per
// spec.md §6 (`Context: trigger(event, &descriptor)`).
type Context interface {
	Trigger(event Event, info *PacketInfo)
}

// Scheduler is re-exported from internal/scheduler so callers only need
// to import this package.
type Scheduler = scheduler.Scheduler

// AckFrame is re-exported from internal/wire for callers of
// LossDetector.HandleFrame.
type AckFrame = wire.AckFrame
