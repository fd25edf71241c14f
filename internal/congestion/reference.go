// Package congestion provides a minimal reference implementation of the
// collaborators spec.md §1 and §6 declare out of scope: the congestion
// controller, and the pinger/padder probe-sending helpers. None of this
// is specified by spec.md — congestion control is explicitly a non-goal
// — but the recovery core's public contract calls these interfaces
// directly, so tests and the demo binary need a concrete instance to
// wire against.
//
// Call shapes are grounded on the teacher's internal/ackhandler's use of
// its congestion.SendAlgorithmWithDebugInfos (OnPacketSent/OnPacketAcked/
// OnPacketsLost) and its pacing primitives (HasPacingBudget/TimeUntilSend),
// reduced to exactly what LossDetector calls (spec.md §6 Consumed).
// Pacing/credit bookkeeping uses golang.org/x/time/rate, the same family
// of primitive the teacher's own congestion package hand-rolls pacing
// budgets with.
package congestion

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/flowcore/qrecovery/internal/protocol"
)

// Descriptor is the minimal view of a sent packet the congestion
// controller needs, mirroring the read-only borrowed view spec.md §3
// promises external readers during callbacks.
type Descriptor struct {
	PacketNumber protocol.PacketNumber
	SentBytes    protocol.ByteCount
	InFlight     bool
}

// Controller is the CongestionController collaborator of spec.md §6.
type Controller interface {
	OnPacketSent(sentBytes protocol.ByteCount)
	OnPacketAcked(d *Descriptor)
	OnPacketsLost(lost map[protocol.PacketNumber]*Descriptor)
	ProcessECN(d *Descriptor, ect0, ect1, ecnce uint64)
	AddExtraCredit()
}

// Pinger is the probe-sending collaborator that injects a PING.
type Pinger interface {
	Request(level protocol.EncryptionLevel)
}

// Padder is the probe-sending collaborator that injects PADDING.
type Padder interface {
	Request(level protocol.EncryptionLevel)
}

// ReferenceController is a simple token-bucket-paced stand-in for a real
// congestion controller (e.g. NewReno or Cubic, which quic-go implements
// at a scale well beyond this core's declared scope). It tracks bytes in
// flight and holds a rate.Limiter that AddExtraCredit (spec.md §4.3.5)
// draws on, but makes no claim to implementing an actual
// congestion-avoidance algorithm.
type ReferenceController struct {
	mu            sync.Mutex
	bytesInFlight protocol.ByteCount
	limiter       *rate.Limiter
}

// NewReferenceController returns a controller pacing at the given
// byte rate with the given burst size.
func NewReferenceController(bytesPerSecond float64, burst int) *ReferenceController {
	return &ReferenceController{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
	}
}

func (c *ReferenceController) OnPacketSent(sentBytes protocol.ByteCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesInFlight += sentBytes
}

func (c *ReferenceController) OnPacketAcked(d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.SentBytes <= c.bytesInFlight {
		c.bytesInFlight -= d.SentBytes
	} else {
		c.bytesInFlight = 0
	}
}

func (c *ReferenceController) OnPacketsLost(lost map[protocol.PacketNumber]*Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range lost {
		if d.SentBytes <= c.bytesInFlight {
			c.bytesInFlight -= d.SentBytes
		} else {
			c.bytesInFlight = 0
		}
	}
}

func (c *ReferenceController) ProcessECN(*Descriptor, uint64, uint64, uint64) {}

// AddExtraCredit takes one token from the limiter, if one is available
// (rate.Limiter.AllowN). Nothing else in the controller consults the
// limiter, so the call does not change BytesInFlight or grant any extra
// sending allowance.
func (c *ReferenceController) AddExtraCredit() {
	c.limiter.AllowN(time.Now(), 1)
}

// BytesInFlight reports the current congestion-window occupancy, for
// tests and the demo's status output.
func (c *ReferenceController) BytesInFlight() protocol.ByteCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesInFlight
}

// RecordingPinger/RecordingPadder are simple test/demo doubles that
// remember every request they were asked to make.
type RecordingPinger struct {
	mu       sync.Mutex
	Requests []protocol.EncryptionLevel
}

func (p *RecordingPinger) Request(level protocol.EncryptionLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, level)
}

type RecordingPadder struct {
	mu       sync.Mutex
	Requests []protocol.EncryptionLevel
}

func (p *RecordingPadder) Request(level protocol.EncryptionLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, level)
}
