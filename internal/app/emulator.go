// Package app provides emulator integration for the main application.
package app

import (
	"fmt"
	"time"

	"nescore/internal/bus"
)

// Emulator drives the system bus one NES frame at a time on behalf of the
// application's render loop. It owns no emulation state of its own — the
// bus is the single source of truth — only the run/pause lifecycle and
// basic timing diagnostics the front-end surfaces to the user.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	running       bool
	frameCount    uint64
	lastFrameTime time.Duration
	lastResetTime time.Time
}

// NewEmulator creates an emulator bound to an already-constructed bus.
func NewEmulator(bus *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:    bus,
		config: config,
	}
	e.Reset()
	return e
}

// Reset clears the emulator's own diagnostics. It does not touch the bus;
// callers reset the machine itself via Bus.PowerOn/Reset.
func (e *Emulator) Reset() {
	e.frameCount = 0
	e.lastFrameTime = 0
	e.lastResetTime = time.Now()
}

// Start resumes frame pumping.
func (e *Emulator) Start() {
	e.running = true
}

// Stop pauses frame pumping; the bus retains its state.
func (e *Emulator) Stop() {
	e.running = false
}

// IsRunning reports whether Update will advance the bus.
func (e *Emulator) IsRunning() bool {
	return e.running
}

// Update advances the bus by exactly one NES frame, driven by the bus's
// own frame-completion signal (so odd-frame short pre-render scanlines are
// accounted for automatically) rather than a fixed CPU-cycle count.
func (e *Emulator) Update() error {
	if !e.running {
		return nil
	}
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	start := time.Now()
	e.bus.EmulateFrame()
	e.lastFrameTime = time.Since(start)
	e.frameCount++

	return nil
}

// GetFrameCount returns the number of frames this emulator has pumped
// since the last Reset.
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetLastFrameTime returns the wall-clock time the most recent Update
// spent inside the bus.
func (e *Emulator) GetLastFrameTime() time.Duration {
	return e.lastFrameTime
}

// GetUptime returns the time elapsed since the last Reset.
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// StepInstruction advances the bus by a single master tick; used by
// instruction-level debug stepping.
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}
	e.bus.Step()
	return nil
}

// GetCPUState returns the current CPU state for debugging.
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPPUState returns the current PPU state for debugging.
func (e *Emulator) GetPPUState() bus.PPUState {
	if e.bus == nil {
		return bus.PPUState{}
	}
	return e.bus.GetPPUState()
}

// Cleanup stops the emulator. The bus and its components are cleaned up
// by their owners; the emulator holds no resources of its own.
func (e *Emulator) Cleanup() error {
	e.Stop()
	return nil
}
