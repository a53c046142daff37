// Package bus implements the CPU-visible address router and the
// master-tick orchestrator that interleaves the PPU, CPU, APU, DMA, and
// mapper every dot.
package bus

import (
	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/clock"
	"nescore/internal/cpu"
	"nescore/internal/dma"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/openbus"
	"nescore/internal/ppu"
)

// Bus connects every NES component and owns the one piece of memory none
// of them owns individually: the 2KB of internal CPU RAM.
type Bus struct {
	Clock *clock.Clock
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.InputState
	Cart  *cartridge.Cartridge

	ram     [0x0800]uint8
	openBus *openbus.Latch
	dma     *dma.DMA
	ppuMem  *memory.PPUMemory

	frameCount uint64
}

// New creates a Bus with no cartridge loaded; CPU-space reads above
// $4020 read open bus until LoadCartridge attaches one.
func New() *Bus {
	b := &Bus{
		Clock:   clock.New(),
		PPU:     ppu.New(),
		APU:     apu.New(),
		Input:   input.NewInputState(),
		openBus: openbus.New(),
	}
	b.dma = dma.New(b, oamSink{b.PPU}, dmcSink{b.APU})
	b.CPU = cpu.New(b)
	b.PPU.SetNMICallback(func() {})
	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)
	b.PPU.SetA12Callback(func(ppuCycle uint64) {
		if b.Cart != nil {
			b.Cart.PPUA12Rising(ppuCycle)
		}
	})
	return b
}

// oamSink adapts *ppu.PPU to dma.OAMSink.
type oamSink struct{ p *ppu.PPU }

func (s oamSink) WriteOAM(index uint8, value uint8) { s.p.WriteOAM(index, value) }

// dmcSink adapts *apu.APU to dma.DMCSink.
type dmcSink struct{ a *apu.APU }

func (s dmcSink) DeliverDMCByte(value uint8) { s.a.DeliverDMCByte(value) }

// LoadCartridge attaches a parsed cartridge, builds the PPU's own memory
// space with the cartridge's mirroring mode, and resets the CPU so PC
// loads from the new reset vector.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cart = cart
	b.ppuMem = memory.NewPPUMemory(cartAdapter{cart}, mirrorModeOf(cart.Mirror()))
	b.PPU.SetMemory(b.ppuMem)
	b.PowerOn()
}

// cartAdapter adapts *cartridge.Cartridge to memory.CartridgeInterface.
type cartAdapter struct{ c *cartridge.Cartridge }

func (a cartAdapter) PPUReadCHR(addr uint16) uint8          { return a.c.PPUReadCHR(addr) }
func (a cartAdapter) PPUWriteCHR(addr uint16, value uint8) { a.c.PPUWriteCHR(addr, value) }

func mirrorModeOf(m cartridge.MirrorMode) memory.MirrorMode {
	switch m {
	case cartridge.MirrorVertical:
		return memory.MirrorVertical
	case cartridge.MirrorSingleLower:
		return memory.MirrorSingleScreen0
	case cartridge.MirrorSingleUpper:
		return memory.MirrorSingleScreen1
	case cartridge.MirrorFourScreen:
		return memory.MirrorFourScreen
	default:
		return memory.MirrorHorizontal
	}
}

// PowerOn resets every component to its power-up state.
func (b *Bus) PowerOn() {
	b.Clock.PowerOn()
	b.CPU.PowerOn()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.openBus.Reset()
	for i := range b.ram {
		b.ram[i] = 0
	}
	b.frameCount = 0
}

// Reset applies a console RESET: CPU/PPU/APU/cartridge reset without
// rewinding the master clock or clearing RAM, matching real hardware.
func (b *Bus) Reset() {
	b.Clock.Reset()
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	if b.Cart != nil {
		b.Cart.Reset()
	}
}

func (b *Bus) handleFrameComplete() {
	b.frameCount++
	b.openBus.TickFrame()
}

// Read implements cpu.Bus and dma.Reader: the full CPU address decode.
func (b *Bus) Read(addr uint16) uint8 {
	var value uint8
	switch {
	case addr < 0x2000:
		value = b.ram[addr&0x07FF]
	case addr < 0x4000:
		reg := 0x2000 + (addr & 0x0007)
		value = b.PPU.ReadRegister(reg)
	case addr == 0x4015:
		value = b.APU.ReadStatus()
	case addr == 0x4016:
		value = (b.openBus.Value() &^ 0x01) | b.Input.Read(0x4016)
	case addr == 0x4017:
		value = (b.openBus.Value() &^ 0x41) | b.Input.Read(0x4017)
	case addr < 0x4020:
		value = b.openBus.Value()
	default:
		if b.Cart != nil {
			value = b.Cart.CPUReadPRG(addr)
		} else {
			value = b.openBus.Value()
		}
	}
	b.openBus.Drive(value)
	return value
}

// Write implements cpu.Bus: the full CPU address decode, write side.
func (b *Bus) Write(addr uint16, value uint8) {
	b.openBus.Drive(value)
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = value
	case addr < 0x4000:
		reg := 0x2000 + (addr & 0x0007)
		b.PPU.WriteRegister(reg, value)
	case addr == 0x4014:
		b.dma.RequestOAM(value, b.CPU.Cycles&1)
	case addr == 0x4016:
		b.Input.Write(0x4016, value)
	case addr < 0x4018:
		b.APU.WriteRegister(addr, value)
	case addr < 0x4020:
		// APU/IO test-mode registers, not implemented.
	default:
		if b.Cart != nil {
			b.Cart.CPUWritePRG(addr, value)
		}
	}
}

// Tick advances the system by one master tick (one PPU dot, one third of
// a CPU cycle). It is the single entry point the front-end drives.
func (b *Bus) Tick() {
	b.PPU.Step()
	b.Clock.Tick()

	if b.Clock.IsCPUBoundary() {
		b.tickCPUCycle()
	}
}

func (b *Bus) tickCPUCycle() {
	parity := b.Clock.CPUParity()

	if addr, ok := b.APU.DMCNeedsFetch(); ok {
		b.dma.RequestDMC(addr)
	}

	if b.dma.Active() {
		b.dma.Tick(parity)
	} else {
		b.CPU.SetNMILine(b.PPU.NMILine())
		b.CPU.SetIRQLine(b.irqLineAsserted())
		b.CPU.Step()
	}

	b.APU.Step()
}

// irqLineAsserted is the OR of every maskable IRQ source: the APU frame
// counter, the DMC channel, and the cartridge mapper.
func (b *Bus) irqLineAsserted() bool {
	asserted := b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ()
	if b.Cart != nil {
		asserted = asserted || b.Cart.TickIRQ()
	}
	return asserted
}

// EmulateFrame runs the system until one full PPU frame has completed.
func (b *Bus) EmulateFrame() {
	target := b.frameCount + 1
	for b.frameCount < target {
		b.Tick()
	}
}

// EmulateCPUCycles runs the system for exactly n CPU cycles (DMA-stolen
// cycles count toward n, matching the CPU's own notion of elapsed time).
// Driven off Clock.CPUCycle rather than CPU.Cycles: the latter only
// advances inside CPU.Step and freezes for the whole duration of any DMA
// transfer, while the clock's derived CPU cycle keeps counting every
// master tick regardless of who owns the CPU slot.
func (b *Bus) EmulateCPUCycles(n uint64) {
	target := b.Clock.CPUCycle() + n
	for b.Clock.CPUCycle() < target {
		b.Tick()
	}
}

// GetFrameBuffer returns the current PPU frame buffer.
func (b *Bus) GetFrameBuffer() [256 * 240]uint32 {
	return b.PPU.GetFrameBuffer()
}

// GetAudioSamples drains the APU's pending sample buffer.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the APU's target audio sample rate.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetFrameCount returns the number of completed frames.
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// SetControllerButtons sets all eight button states for controller 1 or 2
// (1-indexed, matching how front-ends commonly address ports).
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// GetInputState exposes the controller ports for front-ends that need to
// read back the currently latched button state (e.g. to seed an input
// mailbox before the first frame).
func (b *Bus) GetInputState() *input.InputState {
	return b.Input
}

// Step advances the system by one master tick. It is an alias for Tick,
// kept for callers that think in terms of single steps rather than the
// dot-level Tick name.
func (b *Bus) Step() {
	b.Tick()
}

// GetCycleCount returns the number of CPU cycles elapsed so far, including
// cycles stolen by OAM/DMC DMA. Derived from the master clock rather than
// CPU.Cycles, which only advances while the CPU itself owns the bus.
func (b *Bus) GetCycleCount() uint64 {
	return b.Clock.CPUCycle()
}

// CPUState is a read-only snapshot of CPU registers for debugging and
// front-end display; it is not the serialization format used by
// internal/snapshot.
type CPUState struct {
	A, X, Y, SP      uint8
	PC               uint16
	C, Z, I, D, V, N bool
	Cycles           uint64
}

// GetCPUState returns the CPU's current register state for debugging.
func (b *Bus) GetCPUState() CPUState {
	s := b.CPU.Snapshot()
	return CPUState{A: s.A, X: s.X, Y: s.Y, SP: s.SP, PC: s.PC, C: s.C, Z: s.Z, I: s.I, D: s.D, V: s.V, N: s.N, Cycles: s.Cycles}
}

// PPUState is a read-only snapshot of PPU timing/registers for debugging.
type PPUState struct {
	Scanline, Cycle int
	FrameCount      uint64
	PPUCtrl         uint8
	PPUMask         uint8
	PPUStatus       uint8
}

// GetPPUState returns the PPU's current timing and register state for
// debugging.
func (b *Bus) GetPPUState() PPUState {
	s := b.PPU.Snapshot()
	return PPUState{Scanline: s.Scanline, Cycle: s.Cycle, FrameCount: s.FrameCount, PPUCtrl: s.PPUCtrl, PPUMask: s.PPUMask, PPUStatus: s.PPUStatus}
}

// RunToInstructionBoundary ticks the system until the CPU's microstep
// queue is empty, i.e. the next Tick that lands on a CPU cycle will begin
// fetching a new opcode rather than continuing one in flight. Snapshotting
// mid-instruction would lose the in-flight microstep closures, so
// internal/snapshot calls this before reading component state.
func (b *Bus) RunToInstructionBoundary() {
	for !b.CPU.AtInstructionBoundary() {
		b.Tick()
	}
}

// State is the serializable state of the entire machine: every
// subsystem's own State value, plus the CPU-internal RAM the bus owns
// directly. It does not include the PPU frame buffer or APU's queued
// audio samples, which are host-facing output rather than machine state.
type State struct {
	Clock      uint64
	CPU        cpu.State
	PPU        ppu.State
	PPUMemory  memory.State
	APU        apu.State
	Input      input.InputStateSnapshot
	DMA        dma.State
	Cartridge  cartridge.State
	RAM        [0x0800]uint8
	FrameCount uint64
}

// Snapshot captures the entire machine's state. The CPU must be at an
// instruction boundary; call RunToInstructionBoundary first.
func (b *Bus) Snapshot() State {
	s := State{
		Clock:      b.Clock.Snapshot(),
		CPU:        b.CPU.Snapshot(),
		PPU:        b.PPU.Snapshot(),
		APU:        b.APU.Snapshot(),
		Input:      b.Input.Snapshot(),
		DMA:        b.dma.Snapshot(),
		RAM:        b.ram,
		FrameCount: b.frameCount,
	}
	if b.ppuMem != nil {
		s.PPUMemory = b.ppuMem.Snapshot()
	}
	if b.Cart != nil {
		s.Cartridge = b.Cart.Snapshot()
	}
	return s
}

// Restore puts the entire machine back into a previously captured state.
// The same cartridge must already be loaded (LoadCartridge called with
// the same ROM) before Restore runs.
func (b *Bus) Restore(s State) {
	b.Clock.Restore(s.Clock)
	b.CPU.Restore(s.CPU)
	b.PPU.Restore(s.PPU)
	b.APU.Restore(s.APU)
	b.Input.Restore(s.Input)
	b.dma.Restore(s.DMA)
	b.ram = s.RAM
	b.frameCount = s.FrameCount
	if b.ppuMem != nil {
		b.ppuMem.Restore(s.PPUMemory)
	}
	if b.Cart != nil {
		b.Cart.Restore(s.Cartridge)
	}
}
