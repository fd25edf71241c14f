// Package recovery implements the loss-detection and RTT-estimation
// core of a QUIC endpoint: LossDetector orchestrates on-send bookkeeping,
// ACK processing, loss detection, and timer arming across the three
// packet-number spaces; RttMeasure (internal/utils.RTTStats) maintains
// the smoothed RTT this all depends on.
//
// Control flow is grounded almost line for line on the teacher's
// internal/ackhandler/sent_packet_handler.go: ReceivedAck ->
// detectAndRemoveAckedPackets -> detectAndRemoveLostPackets ->
// setLossDetectionTimer, and OnLossDetectionTimeout ->
// onVerifiedLossDetectionTimeout, generalized from quic-go's concrete
// Framer/cryptoSetup/congestion.SendAlgorithmWithDebugInfos collaborators
// to the explicit interfaces this core declares in interfaces.go.
package recovery

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowcore/qrecovery/internal/congestion"
	"github.com/flowcore/qrecovery/internal/metrics"
	"github.com/flowcore/qrecovery/internal/protocol"
	"github.com/flowcore/qrecovery/internal/utils"
	"github.com/flowcore/qrecovery/internal/wire"
)

// perSpaceState is the triplicated, array-indexed-by-space state spec.md
// §3/§9 calls for ("an implementer should prefer a fixed-size array or
// tuple over three separately named fields").
type perSpaceState struct {
	table        SentPacketTable
	largestAcked protocol.PacketNumber
	lossTime     time.Time
}

// LossDetector is the core of this module: spec.md §4.3's public
// contract, under the single-mutex concurrency model of §5.
type LossDetector struct {
	mu     sync.Mutex
	spaces [protocol.NumSpaces]perSpaceState

	rtt              *utils.RTTStats
	config           RttConfig
	ackDelayExponent uint8

	timeOfLastSentAckEliciting time.Time
	timeOfLastSentCrypto       time.Time
	alarmAt                    time.Time

	ackElicitingOutstanding atomic.Int64
	cryptoOutstanding       atomic.Int64

	congestionController CongestionController
	pinger               Pinger
	padder               Padder
	keys                 KeyInfo
	conn                 ConnectionInfo
	ctx                  Context
	scheduler            Scheduler
	gauges               *metrics.OutstandingGauges
	logger               *utils.Logger

	generators *GeneratorRegistry
}

// NewLossDetector constructs a LossDetector and immediately registers
// its recurring 25ms tick with scheduler (spec.md §4.3.3's "underlying
// mechanism is a recurring 25ms tick"). gauges and logger may be nil.
func NewLossDetector(
	config RttConfig,
	congestionController CongestionController,
	pinger Pinger,
	padder Padder,
	keys KeyInfo,
	conn ConnectionInfo,
	ctx Context,
	scheduler Scheduler,
	gauges *metrics.OutstandingGauges,
	logger *utils.Logger,
) *LossDetector {
	d := &LossDetector{
		rtt:                  utils.NewRTTStats(),
		config:               config,
		congestionController: congestionController,
		pinger:               pinger,
		padder:               padder,
		keys:                 keys,
		conn:                 conn,
		ctx:                  ctx,
		scheduler:            scheduler,
		gauges:               gauges,
		logger:               logger,
		generators:           NewGeneratorRegistry(),
	}
	d.rtt.SetInitialRTT(config.InitialRTT)
	for s := range d.spaces {
		d.spaces[s].table = *NewSentPacketTable()
	}
	scheduler.Start(protocol.LossDetectionTickInterval, d.onTick)
	return d
}

// Generators returns the frame-generator registry callers use to obtain
// a GeneratorHandle before building a FrameRecord for OnPacketSent.
func (d *LossDetector) Generators() *GeneratorRegistry { return d.generators }

// AckElicitingOutstanding is a lock-free read of the shared counter
// (spec.md §5 "Atomics for readers").
func (d *LossDetector) AckElicitingOutstanding() int64 {
	return d.ackElicitingOutstanding.Load()
}

// CryptoOutstanding is a lock-free read of the shared counter.
func (d *LossDetector) CryptoOutstanding() int64 {
	return d.cryptoOutstanding.Load()
}

// RTT exposes the RttMeasure subsystem for read access (SmoothedRTT,
// MinRTT, etc.); callers must not mutate it directly.
func (d *LossDetector) RTT() *utils.RTTStats { return d.rtt }

// LargestAckedPacketNumber implements spec.md §4.3's read accessor.
func (d *LossDetector) LargestAckedPacketNumber(space protocol.PacketNumberSpace) protocol.PacketNumber {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spaces[space].largestAcked
}

// UpdateAckDelayExponent implements spec.md §4.3
// update_ack_delay_exponent.
func (d *LossDetector) UpdateAckDelayExponent(exp uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ackDelayExponent = exp
}

// OnPacketSent implements spec.md §4.3 on_packet_sent.
func (d *LossDetector) OnPacketSent(info *PacketInfo, inFlight bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if info.PacketType == protocol.PacketTypeVersionNegotiation {
		return
	}
	info.InFlight = inFlight

	st := &d.spaces[info.PNSpace]
	st.table.Insert(info)
	d.incrementCounters(info)

	if !inFlight {
		return
	}
	if info.IsCryptoPacket {
		d.timeOfLastSentCrypto = info.TimeSent
	}
	if info.AckEliciting {
		d.timeOfLastSentAckEliciting = info.TimeSent
	}
	d.congestionController.OnPacketSent(info.SentBytes)
	d.setLossDetectionTimer()
}

// HandleFrame implements spec.md §4.3 handle_frame: it dispatches ACK
// frames to onAckReceived. Any other frame type is outside this
// component's declared interests (spec.md §6); receiving one is a
// programming error and panics, matching the teacher's own
// panic("BUG: ...") style for internal contract violations.
func (d *LossDetector) HandleFrame(level protocol.EncryptionLevel, frame interface{}, now time.Time) error {
	ack, ok := frame.(*wire.AckFrame)
	if !ok {
		panic("recovery: LossDetector.HandleFrame received a non-ACK frame")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onAckReceived(level, ack, now)
}

// onAckReceived implements spec.md §4.3.1, under d.mu.
func (d *LossDetector) onAckReceived(level protocol.EncryptionLevel, ack *wire.AckFrame, now time.Time) error {
	space := level.PNSpace()
	st := &d.spaces[space]

	// Decode before mutating any state, so a malformed ACK (spec.md §7
	// kind 2) leaves the detector untouched.
	ranges, err := DecodeAckRanges(ack)
	if err != nil {
		return err
	}

	if ack.LargestAcked > st.largestAcked {
		st.largestAcked = ack.LargestAcked
	}

	var newlyAcked []*PacketInfo
	st.table.Iterate(func(p *PacketInfo) bool {
		if p.PacketNumber > ack.LargestAcked {
			return false
		}
		if inAckRanges(ranges, p.PacketNumber) {
			newlyAcked = append(newlyAcked, p)
		}
		return true
	})
	if len(newlyAcked) == 0 {
		return nil
	}

	largestAckedDescriptor, hasLargest := st.table.Get(ack.LargestAcked)
	if hasLargest {
		anyAckEliciting := largestAckedDescriptor.AckEliciting
		if !anyAckEliciting {
			for _, p := range newlyAcked {
				if p.AckEliciting {
					anyAckEliciting = true
					break
				}
			}
		}
		if anyAckEliciting {
			latest := now.Sub(largestAckedDescriptor.TimeSent)
			delay := time.Duration(ack.AckDelay<<d.ackDelayExponent) * time.Microsecond
			d.rtt.UpdateRTT(latest, delay)
			if d.logger != nil && d.logger.Debug() {
				d.logger.WithSpace(space).Debugf("updated RTT: %s (rttvar %s)", d.rtt.SmoothedRTT(), d.rtt.MeanDeviation())
			}
		}
		if ack.ECN != nil {
			d.congestionController.ProcessECN(toDescriptor(largestAckedDescriptor), ack.ECN.ECT0, ack.ECN.ECT1, ack.ECN.ECNCE)
		}
	}

	for _, p := range newlyAcked {
		if p.InFlight {
			d.congestionController.OnPacketAcked(toDescriptor(p))
		}
		for _, fr := range p.Frames {
			if gen, ok := fr.live(); ok {
				gen.OnFrameAcked(fr.FrameID)
			}
		}
		if removed, ok := st.table.Remove(p.PacketNumber); ok {
			d.decrementCounters(removed)
		}
	}

	d.runLossDetection(space, now)

	d.rtt.SetCryptoCount(0)
	d.rtt.SetPTOCount(0)

	d.setLossDetectionTimer()
	return nil
}

// inAckRanges reports whether pn falls in one of ranges, which are
// sorted in strictly descending order (spec.md §4.2's expansion order).
func inAckRanges(ranges []wire.AckRange, pn protocol.PacketNumber) bool {
	for _, r := range ranges {
		if pn > r.Largest {
			return false
		}
		if pn >= r.Smallest {
			return true
		}
	}
	return false
}

func toDescriptor(p *PacketInfo) *congestion.Descriptor {
	return &congestion.Descriptor{PacketNumber: p.PacketNumber, SentBytes: p.SentBytes, InFlight: p.InFlight}
}

// runLossDetection implements spec.md §4.3.2, under d.mu.
func (d *LossDetector) runLossDetection(space protocol.PacketNumberSpace, now time.Time) {
	st := &d.spaces[space]

	maxRTT := d.rtt.LatestRTT()
	if d.rtt.SmoothedRTT() > maxRTT {
		maxRTT = d.rtt.SmoothedRTT()
	}
	lossDelay := time.Duration(d.config.TimeThreshold * float64(maxRTT))
	// spec.md §9 Open Question: the source uses min(..., k_granularity)
	// here, where the IETF recovery draft pseudocode uses max(...).
	// Preserved verbatim per spec.md §4.3.2's explicit instruction.
	if lossDelay > d.config.Granularity {
		lossDelay = d.config.Granularity
	}
	lostSendTime := now.Add(-lossDelay)

	var lostPN protocol.PacketNumber
	if st.largestAcked >= protocol.PacketNumber(d.config.PacketThreshold) {
		lostPN = st.largestAcked - protocol.PacketNumber(d.config.PacketThreshold)
	}

	st.lossTime = time.Time{}
	var marked []*PacketInfo
	var reportedLost []*PacketInfo
	st.table.Iterate(func(p *PacketInfo) bool {
		if p.PacketNumber > st.largestAcked {
			return false
		}
		if p.TimeSent.Before(lostSendTime) || p.PacketNumber < lostPN {
			marked = append(marked, p)
			if p.InFlight {
				reportedLost = append(reportedLost, p)
			}
		} else {
			candidate := p.TimeSent.Add(lossDelay)
			if st.lossTime.IsZero() || candidate.Before(st.lossTime) {
				st.lossTime = candidate
			}
		}
		return true
	})

	if len(marked) == 0 {
		return
	}

	if len(reportedLost) > 0 {
		lostMap := make(map[protocol.PacketNumber]*congestion.Descriptor, len(reportedLost))
		for _, p := range reportedLost {
			lostMap[p.PacketNumber] = toDescriptor(p)
		}
		d.congestionController.OnPacketsLost(lostMap)
	}
	for _, p := range marked {
		if d.ctx != nil {
			d.ctx.Trigger(EventPacketLost, p)
		}
		d.retransmitLostPacket(p)
		if removed, ok := st.table.Remove(p.PacketNumber); ok {
			d.decrementCounters(removed)
		}
	}
}

// retransmitLostPacket implements spec.md §4.3.2 _retransmit_lost_packet:
// call each frame's generator's on_frame_lost, if the generator is
// still live.
func (d *LossDetector) retransmitLostPacket(p *PacketInfo) {
	for _, fr := range p.Frames {
		if gen, ok := fr.live(); ok {
			gen.OnFrameLost(fr.FrameID)
		}
	}
}

// clientWithout1RTTKey implements spec.md §4.3.3's definition: "A client
// is without a 1-RTT key iff its connection direction is outgoing AND
// neither PHASE_0 nor PHASE_1 has both encryption and decryption keys
// installed."
func (d *LossDetector) clientWithout1RTTKey() bool {
	if d.conn.Direction() != DirectionOutgoing {
		return false
	}
	phase0 := d.keys.IsEncryptionKeyAvailable(protocol.KeyPhaseZero) && d.keys.IsDecryptionKeyAvailable(protocol.KeyPhaseZero)
	phase1 := d.keys.IsEncryptionKeyAvailable(protocol.KeyPhaseOne) && d.keys.IsDecryptionKeyAvailable(protocol.KeyPhaseOne)
	return !phase0 && !phase1
}

// addressValidationBlocksPTO implements the address-validation-aware
// timer gating SUPPLEMENTED FEATURE (SPEC_FULL.md): an unvalidated
// server's timer falls through to crypto/idle handling rather than
// arming a bare PTO alarm.
func (d *LossDetector) addressValidationBlocksPTO() bool {
	return d.conn.Direction() == DirectionIncoming && !d.conn.AddressValidated()
}

// earliestLossTime finds the earliest non-zero loss_time across spaces,
// ties broken by Initial < Handshake < ApplicationData (spec.md §4.3.3).
func (d *LossDetector) earliestLossTime() (protocol.PacketNumberSpace, time.Time, bool) {
	var best time.Time
	var bestSpace protocol.PacketNumberSpace
	found := false
	for s := 0; s < protocol.NumSpaces; s++ {
		lt := d.spaces[s].lossTime
		if lt.IsZero() {
			continue
		}
		if !found || lt.Before(best) {
			best = lt
			bestSpace = protocol.PacketNumberSpace(s)
			found = true
		}
	}
	return bestSpace, best, found
}

// setLossDetectionTimer implements spec.md §4.3.3, under d.mu.
func (d *LossDetector) setLossDetectionTimer() {
	if _, t, ok := d.earliestLossTime(); ok {
		d.alarmAt = t
		return
	}
	if d.cryptoOutstanding.Load() > 0 || d.clientWithout1RTTKey() {
		d.alarmAt = d.timeOfLastSentCrypto.Add(d.rtt.HandshakeRetransmitTimeout())
		return
	}
	if d.ackElicitingOutstanding.Load() == 0 || d.addressValidationBlocksPTO() {
		d.alarmAt = time.Time{}
		return
	}
	d.alarmAt = d.timeOfLastSentAckEliciting.Add(d.rtt.CurrentPTOPeriod())
}

// onTick is the Scheduler callback (spec.md §4.3.3's "underlying
// mechanism"): if now >= loss_detection_alarm_at != 0, clear the alarm
// and invoke onLossDetectionTimeout. A tick that observes a stale or
// unset alarm is a no-op (spec.md §7 kind 4).
func (d *LossDetector) onTick(now time.Time) {
	d.mu.Lock()
	if d.alarmAt.IsZero() || now.Before(d.alarmAt) {
		d.mu.Unlock()
		return
	}
	d.alarmAt = time.Time{}
	d.onLossDetectionTimeout(now)
	d.mu.Unlock()
}

// onLossDetectionTimeout implements spec.md §4.3.4, under d.mu.
func (d *LossDetector) onLossDetectionTimeout(now time.Time) {
	if space, _, ok := d.earliestLossTime(); ok {
		d.runLossDetection(space, now)
		d.setLossDetectionTimer()
		return
	}

	if d.cryptoOutstanding.Load() > 0 {
		for s := 0; s < protocol.NumSpaces; s++ {
			st := &d.spaces[protocol.PacketNumberSpace(s)]
			var cryptoPackets []*PacketInfo
			st.table.Iterate(func(p *PacketInfo) bool {
				if p.IsCryptoPacket {
					cryptoPackets = append(cryptoPackets, p)
				}
				return true
			})
			if len(cryptoPackets) == 0 {
				continue
			}
			lostMap := make(map[protocol.PacketNumber]*congestion.Descriptor, len(cryptoPackets))
			for _, p := range cryptoPackets {
				d.retransmitLostPacket(p)
				if p.InFlight {
					lostMap[p.PacketNumber] = toDescriptor(p)
				}
				if removed, ok := st.table.Remove(p.PacketNumber); ok {
					d.decrementCounters(removed)
				}
			}
			if len(lostMap) > 0 {
				d.congestionController.OnPacketsLost(lostMap)
			}
		}
		d.rtt.SetCryptoCount(d.rtt.CryptoCount() + 1)
		d.setLossDetectionTimer()
		return
	}

	if d.clientWithout1RTTKey() {
		if d.keys.IsEncryptionKeyAvailable(protocol.KeyPhaseHandshake) {
			d.sendPacket(protocol.EncryptionHandshake, false)
		} else {
			d.sendPacket(protocol.EncryptionInitial, true)
		}
		d.rtt.SetCryptoCount(d.rtt.CryptoCount() + 1)
		d.setLossDetectionTimer()
		return
	}

	d.sendPacket(protocol.Encryption1RTT, false)
	d.sendPacket(protocol.Encryption1RTT, false)
	d.rtt.SetPTOCount(d.rtt.PTOCount() + 1)
	d.setLossDetectionTimer()
}

// sendPacket implements spec.md §4.3.5 _send_packet.
func (d *LossDetector) sendPacket(level protocol.EncryptionLevel, padded bool) {
	if padded {
		d.padder.Request(level)
	} else {
		d.pinger.Request(level)
	}
	d.congestionController.AddExtraCredit()
}

// ResetSpaceForRetry implements the ResetForRetry-style SUPPLEMENTED
// FEATURE (SPEC_FULL.md): requeues every outstanding Initial-space
// packet's frames and clears the space, matching the teacher's
// sentPacketHandler.ResetForRetry.
func (d *LossDetector) ResetSpaceForRetry() {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := &d.spaces[protocol.PNSpaceInitial]
	st.table.Iterate(func(p *PacketInfo) bool {
		d.retransmitLostPacket(p)
		d.decrementCounters(p)
		return true
	})
	st.table.Reset()
	st.lossTime = time.Time{}
	st.largestAcked = 0
}

// Reset implements spec.md §4.3 reset(): cancel the timer, zero
// per-space state and counters, and reset RttMeasure.
func (d *LossDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for s := range d.spaces {
		d.spaces[s].table.Reset()
		d.spaces[s].largestAcked = 0
		d.spaces[s].lossTime = time.Time{}
	}
	d.timeOfLastSentAckEliciting = time.Time{}
	d.timeOfLastSentCrypto = time.Time{}
	d.alarmAt = time.Time{}
	d.ackElicitingOutstanding.Store(0)
	d.cryptoOutstanding.Store(0)
	if d.gauges != nil {
		d.gauges.AckEliciting.Set(0)
		d.gauges.Crypto.Set(0)
	}
	d.rtt.Reset()
}

// Close cancels the recurring tick, matching spec.md §5's shutdown
// contract: "a shutdown event cancels the tick and drops the timer
// handle; no pending callbacks may fire afterward."
func (d *LossDetector) Close() {
	d.scheduler.Stop()
}

func (d *LossDetector) incrementCounters(p *PacketInfo) {
	if p.AckEliciting {
		n := d.ackElicitingOutstanding.Add(1)
		if d.gauges != nil {
			d.gauges.AckEliciting.Set(float64(n))
		}
	}
	if p.IsCryptoPacket {
		n := d.cryptoOutstanding.Add(1)
		if d.gauges != nil {
			d.gauges.Crypto.Set(float64(n))
		}
	}
}

func (d *LossDetector) decrementCounters(p *PacketInfo) {
	if p.AckEliciting {
		n := d.ackElicitingOutstanding.Add(-1)
		if n < 0 {
			panic("recovery: BUG: negative ack_eliciting_outstanding")
		}
		if d.gauges != nil {
			d.gauges.AckEliciting.Set(float64(n))
		}
	}
	if p.IsCryptoPacket {
		n := d.cryptoOutstanding.Add(-1)
		if n < 0 {
			panic("recovery: BUG: negative crypto_outstanding")
		}
		if d.gauges != nil {
			d.gauges.Crypto.Set(float64(n))
		}
	}
}
