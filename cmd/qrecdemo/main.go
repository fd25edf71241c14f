// Command qrecdemo wires a LossDetector against the reference
// congestion controller and the recording pinger/padder doubles, then
// drives a short synthetic send/ack sequence and prints the resulting
// RTT and outstanding-packet state. It exists to exercise the full
// wire-up (config, logging, metrics, congestion, scheduler) the way a
// real endpoint would assemble one, not as a production server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mstoykov/envconfig"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowcore/qrecovery/internal/congestion"
	"github.com/flowcore/qrecovery/internal/metrics"
	"github.com/flowcore/qrecovery/internal/protocol"
	"github.com/flowcore/qrecovery/internal/scheduler"
	"github.com/flowcore/qrecovery/internal/utils"
	"github.com/flowcore/qrecovery/internal/wire"
	"github.com/flowcore/qrecovery/recovery"
)

// envConfig mirrors the overridable fields of recovery.RttConfig,
// following the teacher's envconfig-tagged Config struct pattern
// (internal/output/influxdb.Config / cloudapi.Config).
type envConfig struct {
	PacketThreshold uint32        `envconfig:"QRECOVERY_PACKET_THRESHOLD"`
	TimeThreshold   float64       `envconfig:"QRECOVERY_TIME_THRESHOLD"`
	InitialRTT      time.Duration `envconfig:"QRECOVERY_INITIAL_RTT"`
}

func loadConfig() recovery.RttConfig {
	cfg := recovery.DefaultRttConfig()
	var ec envConfig
	if err := envconfig.Process("", &ec, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "qrecdemo: ignoring invalid environment config: %v\n", err)
		return cfg
	}
	if ec.PacketThreshold != 0 {
		cfg.PacketThreshold = ec.PacketThreshold
	}
	if ec.TimeThreshold != 0 {
		cfg.TimeThreshold = ec.TimeThreshold
	}
	if ec.InitialRTT != 0 {
		cfg.InitialRTT = ec.InitialRTT
	}
	return cfg
}

type demoConnection struct{}

func (demoConnection) Direction() recovery.Direction { return recovery.DirectionOutgoing }
func (demoConnection) ConnectionID() string          { return "demo" }
func (demoConnection) AddressValidated() bool        { return true }

type demoKeys struct{}

func (demoKeys) IsEncryptionKeyAvailable(protocol.KeyPhase) bool { return true }
func (demoKeys) IsDecryptionKeyAvailable(protocol.KeyPhase) bool { return true }

type demoContext struct{ logger *utils.Logger }

func (c demoContext) Trigger(event recovery.Event, info *recovery.PacketInfo) {
	if event == recovery.EventPacketLost {
		c.logger.Infof("packet %d declared lost", info.PacketNumber)
	}
}

type loggingGenerator struct{ logger *utils.Logger }

func (g *loggingGenerator) OnFrameAcked(frameID uint64) { g.logger.Debugf("frame %d acked", frameID) }
func (g *loggingGenerator) OnFrameLost(frameID uint64)  { g.logger.Debugf("frame %d lost", frameID) }

func main() {
	logger := utils.NewLogger(utils.LevelFromEnv(), "demo")
	gauges := metrics.NewOutstandingGauges(prometheus.NewRegistry())
	cc := congestion.NewReferenceController(1<<20, 10)
	pinger := &congestion.RecordingPinger{}
	padder := &congestion.RecordingPadder{}
	sched := scheduler.NewTickerScheduler()

	detector := recovery.NewLossDetector(
		loadConfig(), cc, pinger, padder,
		demoKeys{}, demoConnection{}, demoContext{logger: logger},
		sched, gauges, logger,
	)
	defer detector.Close()

	gen := &loggingGenerator{logger: logger}
	now := time.Now()
	for pn := protocol.PacketNumber(1); pn <= 3; pn++ {
		handle := detector.Generators().Register(gen)
		detector.OnPacketSent(&recovery.PacketInfo{
			PacketNumber: pn,
			PNSpace:      protocol.PNSpaceApplicationData,
			PacketType:   protocol.PacketType1RTT,
			TimeSent:     now.Add(time.Duration(pn) * time.Millisecond),
			AckEliciting: true,
			SentBytes:    1200,
			Frames:       []recovery.FrameRecord{recovery.NewFrameRecord(uint64(pn), handle)},
		}, true)
	}

	ackTime := now.Add(20 * time.Millisecond)
	ack := &wire.AckFrame{LargestAcked: 3, FirstAckBlock: 2}
	if err := detector.HandleFrame(protocol.Encryption1RTT, ack, ackTime); err != nil {
		fmt.Fprintf(os.Stderr, "qrecdemo: ack processing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("smoothed RTT: %s\n", detector.RTT().SmoothedRTT())
	fmt.Printf("ack-eliciting outstanding: %d\n", detector.AckElicitingOutstanding())
	fmt.Printf("bytes in flight: %d\n", cc.BytesInFlight())
	fmt.Printf("ping probes requested: %d, padding probes requested: %d\n", len(pinger.Requests), len(padder.Requests))
}
