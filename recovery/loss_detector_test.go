package recovery

import (
	"time"

	"go.uber.org/mock/gomock"

	"github.com/flowcore/qrecovery/internal/protocol"
	"github.com/flowcore/qrecovery/internal/wire"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeScheduler is a hand-rolled Scheduler test double: it captures the
// tick callback and lets a test fire it at a chosen instant, avoiding
// gomock's function-argument matching entirely.
type fakeScheduler struct {
	fn      func(now time.Time)
	stopped bool
}

func (s *fakeScheduler) Start(_ time.Duration, fn func(now time.Time)) { s.fn = fn }
func (s *fakeScheduler) Stop()                                         { s.stopped = true }
func (s *fakeScheduler) fire(now time.Time)                            { s.fn(now) }

// spyGenerator is a FrameGenerator test double recording every callback
// it receives.
type spyGenerator struct {
	acked []uint64
	lost  []uint64
}

func (g *spyGenerator) OnFrameAcked(id uint64) { g.acked = append(g.acked, id) }
func (g *spyGenerator) OnFrameLost(id uint64)  { g.lost = append(g.lost, id) }

func newPacket(pn protocol.PacketNumber, space protocol.PacketNumberSpace, sentAt time.Time, ackEliciting, crypto bool, frames ...FrameRecord) *PacketInfo {
	return &PacketInfo{
		PacketNumber:   pn,
		PNSpace:        space,
		PacketType:     protocol.PacketType1RTT,
		TimeSent:       sentAt,
		AckEliciting:   ackEliciting,
		IsCryptoPacket: crypto,
		SentBytes:      100,
		Frames:         frames,
	}
}

func ackFrame(largest protocol.PacketNumber, firstBlock uint64, blocks ...wire.AckBlock) *wire.AckFrame {
	return &wire.AckFrame{LargestAcked: largest, FirstAckBlock: firstBlock, Blocks: blocks}
}

// detectorHarness bundles a LossDetector with its mocked collaborators
// for assertions.
type detectorHarness struct {
	detector  *LossDetector
	cc        *MockCongestionController
	pinger    *MockPinger
	padder    *MockPadder
	scheduler *fakeScheduler

	pings    []protocol.EncryptionLevel
	paddings []protocol.EncryptionLevel
	lostBy   []map[protocol.PacketNumber]*congestionDescriptor
	ackedBy  []*congestionDescriptor
}

func newHarness(ctrl *gomock.Controller, direction Direction, hasOneRTTKeys, addressValidated bool) *detectorHarness {
	h := &detectorHarness{scheduler: &fakeScheduler{}}

	h.cc = NewMockCongestionController(ctrl)
	h.cc.EXPECT().OnPacketSent(gomock.Any()).AnyTimes()
	h.cc.EXPECT().AddExtraCredit().AnyTimes()
	h.cc.EXPECT().ProcessECN(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	h.cc.EXPECT().OnPacketAcked(gomock.Any()).Do(func(d *congestionDescriptor) {
		h.ackedBy = append(h.ackedBy, d)
	}).AnyTimes()
	h.cc.EXPECT().OnPacketsLost(gomock.Any()).Do(func(lost map[protocol.PacketNumber]*congestionDescriptor) {
		h.lostBy = append(h.lostBy, lost)
	}).AnyTimes()

	h.pinger = NewMockPinger(ctrl)
	h.pinger.EXPECT().Request(gomock.Any()).Do(func(level protocol.EncryptionLevel) {
		h.pings = append(h.pings, level)
	}).AnyTimes()

	h.padder = NewMockPadder(ctrl)
	h.padder.EXPECT().Request(gomock.Any()).Do(func(level protocol.EncryptionLevel) {
		h.paddings = append(h.paddings, level)
	}).AnyTimes()

	keys := NewMockKeyInfo(ctrl)
	keys.EXPECT().IsEncryptionKeyAvailable(gomock.Any()).Return(hasOneRTTKeys).AnyTimes()
	keys.EXPECT().IsDecryptionKeyAvailable(gomock.Any()).Return(hasOneRTTKeys).AnyTimes()

	conn := NewMockConnectionInfo(ctrl)
	conn.EXPECT().Direction().Return(direction).AnyTimes()
	conn.EXPECT().ConnectionID().Return("test-conn").AnyTimes()
	conn.EXPECT().AddressValidated().Return(addressValidated).AnyTimes()

	ctx := NewMockContext(ctrl)
	ctx.EXPECT().Trigger(gomock.Any(), gomock.Any()).AnyTimes()

	h.detector = NewLossDetector(DefaultRttConfig(), h.cc, h.pinger, h.padder, keys, conn, ctx, h.scheduler, nil, nil)
	return h
}

var _ = ginkgo.Describe("LossDetector", func() {
	var (
		ctrl *gomock.Controller
		t0   time.Time
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	ginkgo.Context("sending packets", func() {
		ginkgo.It("tracks outstanding ack-eliciting and crypto packets", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceApplicationData, t0, true, false), true)
			Expect(h.detector.AckElicitingOutstanding()).To(Equal(int64(1)))
			Expect(h.detector.CryptoOutstanding()).To(Equal(int64(0)))

			h.detector.OnPacketSent(newPacket(2, protocol.PNSpaceInitial, t0, true, true), true)
			Expect(h.detector.AckElicitingOutstanding()).To(Equal(int64(2)))
			Expect(h.detector.CryptoOutstanding()).To(Equal(int64(1)))
		})

		ginkgo.It("ignores version negotiation packets entirely", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			p := newPacket(1, protocol.PNSpaceInitial, t0, true, false)
			p.PacketType = protocol.PacketTypeVersionNegotiation
			h.detector.OnPacketSent(p, true)
			Expect(h.detector.AckElicitingOutstanding()).To(BeZero())
		})
	})

	ginkgo.Context("handling an ACK", func() {
		ginkgo.It("acks a single in-flight packet, updates RTT, and removes it", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			gen := &spyGenerator{}
			handle := h.detector.Generators().Register(gen)

			p := newPacket(1, protocol.PNSpaceApplicationData, t0, true, false, NewFrameRecord(42, handle))
			h.detector.OnPacketSent(p, true)

			// spec.md scenario 1 ("single packet, single ACK"): a 30ms
			// sample against a detector still on its SetInitialRTT seed
			// must be treated as the first real measurement, not blended
			// against the seed.
			now := t0.Add(30 * time.Millisecond)
			err := h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(1, 0), now)
			Expect(err).NotTo(HaveOccurred())

			Expect(h.detector.AckElicitingOutstanding()).To(BeZero())
			Expect(h.detector.RTT().LatestRTT()).To(Equal(30 * time.Millisecond))
			Expect(h.detector.RTT().SmoothedRTT()).To(Equal(30 * time.Millisecond))
			Expect(h.detector.RTT().MeanDeviation()).To(Equal(15 * time.Millisecond))
			Expect(gen.acked).To(Equal([]uint64{42}))
			Expect(h.ackedBy).To(HaveLen(1))
			Expect(h.ackedBy[0].PacketNumber).To(Equal(protocol.PacketNumber(1)))
		})

		ginkgo.It("returns an error and changes nothing for a malformed ACK", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceApplicationData, t0, true, false), true)

			before := h.detector.AckElicitingOutstanding()
			// first_ack_block (21) exceeds largest_acked (20): malformed.
			_, err := DecodeAckRanges(ackFrame(20, 21))
			Expect(err).To(HaveOccurred())

			err = h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(20, 21), t0.Add(time.Millisecond))
			Expect(err).To(HaveOccurred())
			Expect(h.detector.AckElicitingOutstanding()).To(Equal(before))
		})

		ginkgo.It("ignores an ACK that newly acknowledges nothing", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceApplicationData, t0, true, false), true)
			err := h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(1, 0), t0.Add(5*time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.detector.AckElicitingOutstanding()).To(BeZero())

			// Repeating the same ACK now acknowledges nothing new.
			err = h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(1, 0), t0.Add(10*time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	ginkgo.Context("packet-threshold loss detection", func() {
		ginkgo.It("declares an old, unacked packet lost once later packets clear the threshold", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			gen := &spyGenerator{}
			handle := h.detector.Generators().Register(gen)

			// All five packets are sent within microseconds of each other
			// and acked 1ms after t0. loss_delay is
			// min(time_threshold*RTT, k_granularity); the ~1ms RTT sample
			// makes it the full 1ms k_granularity, so no packet is old
			// enough to be lost by time, which isolates the
			// packet-threshold path from the time-threshold one.
			for pn := protocol.PacketNumber(1); pn <= 5; pn++ {
				frame := NewFrameRecord(uint64(pn), handle)
				h.detector.OnPacketSent(newPacket(pn, protocol.PNSpaceApplicationData, t0.Add(time.Duration(pn)*time.Microsecond), true, false, frame), true)
			}

			// Ack only packet 5: packets 2,3,4 sit within the packet
			// threshold window, but packet 1 is more than packet_threshold
			// (3) behind largest_acked (5) and is declared lost.
			err := h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(5, 0), t0.Add(time.Millisecond))
			Expect(err).NotTo(HaveOccurred())

			Expect(gen.lost).To(Equal([]uint64{1}))
			Expect(h.lostBy).To(HaveLen(1))
			Expect(h.lostBy[0]).To(HaveKey(protocol.PacketNumber(1)))
			// ack-eliciting outstanding: started at 5, -1 acked, -1 lost.
			Expect(h.detector.AckElicitingOutstanding()).To(Equal(int64(3)))
		})
	})

	ginkgo.Context("time-threshold loss detection", func() {
		ginkgo.It("declares a packet lost once the loss-detection timer fires after its loss delay elapses", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			gen := &spyGenerator{}
			handle := h.detector.Generators().Register(gen)

			p1 := newPacket(1, protocol.PNSpaceApplicationData, t0, true, false, NewFrameRecord(1, handle))
			h.detector.OnPacketSent(p1, true)
			p2 := newPacket(2, protocol.PNSpaceApplicationData, t0.Add(50*time.Microsecond), true, false, NewFrameRecord(2, handle))
			h.detector.OnPacketSent(p2, true)

			// Ack packet 2 only, 800us after t0: the 750us RTT sample
			// gives loss_delay = min(9/8*750us, 1ms) = 843.75us, so packet 1
			// is within both the packet-number threshold (only 2 packets
			// exist) and loss_delay of now. It is not immediately declared
			// lost; instead its projected loss_time is recorded.
			ackTime := t0.Add(800 * time.Microsecond)
			err := h.detector.HandleFrame(protocol.Encryption1RTT, ackFrame(2, 0), ackTime)
			Expect(err).NotTo(HaveOccurred())
			Expect(gen.lost).To(BeEmpty())

			// Firing the tick well past the recorded loss_time (which
			// re-evaluates loss detection at the new, much later "now")
			// declares packet 1 lost via the timer path.
			h.scheduler.fire(t0.Add(2 * time.Second))
			Expect(gen.lost).To(Equal([]uint64{1}))
		})
	})

	ginkgo.Context("probe timeout", func() {
		ginkgo.It("sends two 1-RTT PING probes when the PTO alarm fires with no loss pending", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceApplicationData, t0, true, false), true)

			ptoPeriod := h.detector.RTT().CurrentPTOPeriod()
			h.scheduler.fire(t0.Add(ptoPeriod + time.Second))

			Expect(h.pings).To(Equal([]protocol.EncryptionLevel{protocol.Encryption1RTT, protocol.Encryption1RTT}))
			Expect(h.detector.RTT().PTOCount()).To(Equal(uint32(1)))
		})
	})

	ginkgo.Context("client-without-1-RTT-key anti-deadlock probe", func() {
		ginkgo.It("sends an Initial PADDING probe once no crypto packet remains outstanding", func() {
			h := newHarness(ctrl, DirectionOutgoing, false, true)

			p := newPacket(1, protocol.PNSpaceInitial, t0, true, true)
			h.detector.OnPacketSent(p, true)

			ackTime := t0.Add(50 * time.Millisecond)
			err := h.detector.HandleFrame(protocol.EncryptionInitial, ackFrame(1, 0), ackTime)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.detector.CryptoOutstanding()).To(BeZero())

			handshakeTimeout := h.detector.RTT().HandshakeRetransmitTimeout()
			h.scheduler.fire(t0.Add(handshakeTimeout + time.Second))

			Expect(h.paddings).To(Equal([]protocol.EncryptionLevel{protocol.EncryptionInitial}))
			Expect(h.detector.RTT().CryptoCount()).To(Equal(uint32(1)))
		})
	})

	ginkgo.Context("ResetSpaceForRetry", func() {
		ginkgo.It("requeues every outstanding Initial packet's frames and clears the space", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			gen := &spyGenerator{}
			handle := h.detector.Generators().Register(gen)

			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceInitial, t0, true, true, NewFrameRecord(7, handle)), true)
			h.detector.OnPacketSent(newPacket(2, protocol.PNSpaceInitial, t0, true, true, NewFrameRecord(8, handle)), true)

			h.detector.ResetSpaceForRetry()

			Expect(gen.lost).To(ConsistOf(uint64(7), uint64(8)))
			Expect(h.detector.CryptoOutstanding()).To(BeZero())
			Expect(h.detector.LargestAckedPacketNumber(protocol.PNSpaceInitial)).To(BeZero())
		})
	})

	ginkgo.Context("Reset", func() {
		ginkgo.It("zeroes every space, the counters, and RttMeasure", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.OnPacketSent(newPacket(1, protocol.PNSpaceApplicationData, t0, true, false), true)
			h.detector.RTT().UpdateRTT(100*time.Millisecond, 0)

			h.detector.Reset()

			Expect(h.detector.AckElicitingOutstanding()).To(BeZero())
			Expect(h.detector.CryptoOutstanding()).To(BeZero())
			Expect(h.detector.RTT().SmoothedRTT()).To(BeZero())
		})
	})

	ginkgo.Context("shutdown", func() {
		ginkgo.It("stops the scheduler", func() {
			h := newHarness(ctrl, DirectionOutgoing, true, true)
			h.detector.Close()
			Expect(h.scheduler.stopped).To(BeTrue())
		})
	})
})
