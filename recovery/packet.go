package recovery

import (
	"time"

	"github.com/flowcore/qrecovery/internal/protocol"
)

// FrameGenerator is the frame-generator registry collaborator of
// spec.md §3/§6: the component that produced a frame and wants to know
// if it was acked or lost.
type FrameGenerator interface {
	OnFrameAcked(frameID uint64)
	OnFrameLost(frameID uint64)
}

// GeneratorHandle is a weak reference to a FrameGenerator, implemented
// as an index-plus-generation handle rather than a language-level weak
// pointer (spec.md §9 names both options: "use a weak handle (index +
// generation, or a weak reference)"). GeneratorRegistry below owns the
// strong references; a handle whose generation has been retired
// silently reports itself as dead, breaking the latent generator<->
// detector cycle without either side holding the other alive.
type GeneratorHandle struct {
	registry *GeneratorRegistry
	slot     int
	gen      uint64
}

func (h GeneratorHandle) live() (FrameGenerator, bool) {
	if h.registry == nil {
		return nil, false
	}
	return h.registry.resolve(h.slot, h.gen)
}

// GeneratorRegistry holds the strong references to frame generators.
// Callers register a generator once per packet-send and get back a
// GeneratorHandle; when the generator is done (e.g. the connection
// tears it down), Retire invalidates every handle pointing at it.
type GeneratorRegistry struct {
	entries []generatorEntry
}

type generatorEntry struct {
	generator FrameGenerator
	gen       uint64
}

// NewGeneratorRegistry returns an empty registry.
func NewGeneratorRegistry() *GeneratorRegistry { return &GeneratorRegistry{} }

// Register returns a handle to gen. The returned handle stays live until
// Retire is called with the same handle.
func (r *GeneratorRegistry) Register(gen FrameGenerator) GeneratorHandle {
	slot := len(r.entries)
	r.entries = append(r.entries, generatorEntry{generator: gen, gen: 1})
	return GeneratorHandle{registry: r, slot: slot, gen: 1}
}

func (r *GeneratorRegistry) resolve(slot int, gen uint64) (FrameGenerator, bool) {
	if slot < 0 || slot >= len(r.entries) {
		return nil, false
	}
	e := r.entries[slot]
	if e.gen != gen || e.gen == 0 {
		return nil, false
	}
	return e.generator, true
}

// Retire drops the strong reference held for h, so future resolves
// against it (and any handle sharing its slot/generation) fail.
func (r *GeneratorRegistry) Retire(h GeneratorHandle) {
	if h.slot < 0 || h.slot >= len(r.entries) {
		return
	}
	if r.entries[h.slot].gen != h.gen {
		return
	}
	r.entries[h.slot] = generatorEntry{}
}

// FrameRecord is one frame carried by a sent packet: an opaque frame
// identifier plus a weak reference to the generator that produced it
// (spec.md §3 PacketInfo.frames).
type FrameRecord struct {
	FrameID   uint64
	generator GeneratorHandle
}

// NewFrameRecord records a frame with a live generator reference.
func NewFrameRecord(frameID uint64, handle GeneratorHandle) FrameRecord {
	return FrameRecord{FrameID: frameID, generator: handle}
}

// NewFrameRecordWithoutGenerator records a frame with no generator
// (spec.md §3 allows the weak reference to be absent).
func NewFrameRecordWithoutGenerator(frameID uint64) FrameRecord {
	return FrameRecord{FrameID: frameID}
}

func (f FrameRecord) live() (FrameGenerator, bool) {
	return f.generator.live()
}

// PacketInfo describes a locally-sent packet, per spec.md §3.
type PacketInfo struct {
	PacketNumber   protocol.PacketNumber
	PNSpace        protocol.PacketNumberSpace
	PacketType     protocol.PacketType
	TimeSent       time.Time
	AckEliciting   bool
	InFlight       bool
	IsCryptoPacket bool
	SentBytes      protocol.ByteCount
	Frames         []FrameRecord
}
