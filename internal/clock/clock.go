// Package clock implements the master tick counter shared by every NES
// component. One master tick equals one PPU dot, equal to one third of a
// CPU cycle.
package clock

const (
	// DotsPerScanline is the number of PPU dots in one scanline.
	DotsPerScanline = 341
	// ScanlinesPerFrame is the number of scanlines in one NTSC frame.
	ScanlinesPerFrame = 262
	// PreRenderScanline is the pre-render (dummy) scanline index.
	PreRenderScanline = 261
	// PostRenderScanline is the idle scanline right after the visible area.
	PostRenderScanline = 240
	// VBlankStartScanline is the first scanline of vertical blank.
	VBlankStartScanline = 241
	// DotsPerCPUCycle is the PPU:CPU clock ratio (3:1 on NTSC).
	DotsPerCPUCycle = 3
	// DotsPerFrame is the number of dots in an ordinary (even) frame.
	DotsPerFrame = ScanlinesPerFrame * DotsPerScanline
)

// Clock tracks the monotonic master tick counter and derives the
// (scanline, dot) position and CPU-cycle parity from it.
type Clock struct {
	ppuCycles uint64
}

// New creates a Clock starting at ppu_cycles == 0.
func New() *Clock {
	return &Clock{}
}

// Snapshot captures the master tick counter.
func (c *Clock) Snapshot() uint64 { return c.ppuCycles }

// Restore rewinds the master tick counter to a previously captured value.
func (c *Clock) Restore(ppuCycles uint64) { c.ppuCycles = ppuCycles }

// Reset is the console RESET hook for the clock and leaves it unchanged.
// RESET does not rewind ppu_cycles on real hardware (only power-on does);
// callers that need a full rewind use PowerOn.
func (c *Clock) Reset() {}

// PowerOn rewinds the master counter to zero.
func (c *Clock) PowerOn() {
	c.ppuCycles = 0
}

// Tick advances the master counter by one dot.
func (c *Clock) Tick() {
	c.ppuCycles++
}

// PPUCycles returns the monotonic master tick count.
func (c *Clock) PPUCycles() uint64 {
	return c.ppuCycles
}

// Scanline returns the current scanline (0..261).
func (c *Clock) Scanline() int {
	return int((c.ppuCycles / DotsPerScanline) % ScanlinesPerFrame)
}

// Dot returns the current dot within the scanline (0..340).
func (c *Clock) Dot() int {
	return int(c.ppuCycles % DotsPerScanline)
}

// CPUCycle returns the CPU cycle number derived from the master counter.
func (c *Clock) CPUCycle() uint64 {
	return c.ppuCycles / DotsPerCPUCycle
}

// CPUParity returns the parity (even/odd) of the current CPU cycle. Used
// by OAM DMA alignment (spec S3) and the DMC NTSC repeat-read bug.
func (c *Clock) CPUParity() uint64 {
	return c.CPUCycle() & 1
}

// IsCPUBoundary reports whether the tick just advanced onto a CPU-cycle
// boundary (every third master tick).
func (c *Clock) IsCPUBoundary() bool {
	return c.ppuCycles%DotsPerCPUCycle == 0
}

// AtWarmupThreshold reports whether the PPU warm-up window (29658 CPU
// cycles, i.e. 88974 master ticks) has elapsed.
func (c *Clock) AtWarmupThreshold() bool {
	return c.ppuCycles >= 88974
}
