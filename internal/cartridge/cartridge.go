// Package cartridge implements iNES ROM loading and the mapper tagged
// union (NROM, MMC3) that extends the 6502/2C02 address spaces with bank
// switching and cartridge IRQ generation.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// MirrorMode is the nametable mirroring arrangement exposed by the
// cartridge (fixed for NROM, switchable at runtime for MMC3).
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleLower
	MirrorSingleUpper
	MirrorFourScreen
)

// Kind tags the closed set of supported mappers. Dispatch is a single
// switch over Kind rather than a dynamic interface call, per the
// tagged-union design the spec calls for.
type Kind uint8

const (
	KindNROM Kind = iota
	KindMMC3
)

// Load-time error taxonomy (spec §7).
var (
	ErrBadMagic          = errors.New("cartridge: invalid iNES magic")
	ErrTruncatedPRG      = errors.New("cartridge: truncated PRG ROM data")
	ErrTruncatedCHR      = errors.New("cartridge: truncated CHR ROM data")
	ErrTruncatedTrainer  = errors.New("cartridge: truncated trainer data")
	ErrZeroPRG           = errors.New("cartridge: PRG ROM size is zero")
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper number")
)

const (
	prgBankSize = 16384
	chrBankSize = 8192
)

// iNESHeader is the 16-byte iNES/NES 2.0 file header.
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

func (h iNESHeader) isNES20() bool {
	return h.Flags7&0x0C == 0x08
}

func (h iNESHeader) mapperNumber() uint8 {
	return (h.Flags6 >> 4) | (h.Flags7 & 0xF0)
}

// Cartridge owns the PRG/CHR ROM arena (read once, sliced by mappers, never
// copied) and the active mapper.
type Cartridge struct {
	prgROM []uint8
	chrROM []uint8
	sram   [0x2000]uint8

	mapperID   uint8
	mapperKind Kind
	mirror     MirrorMode
	hasBattery bool
	hasCHRRAM  bool

	nrom *nromMapper
	mmc3 *mmc3Mapper
}

// LoadFromFile reads and parses an iNES ROM file from disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadFromReader(file)
}

// LoadFromReader parses an iNES (1.0 or 2.0) image from r.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedPRG, err)
		}
		return nil, err
	}
	if string(header.Magic[:]) != "NES\x1A" {
		return nil, ErrBadMagic
	}
	if header.PRGROMSize == 0 {
		return nil, ErrZeroPRG
	}

	cart := &Cartridge{
		mapperID:   header.mapperNumber(),
		hasBattery: header.Flags6&0x02 != 0,
	}

	switch {
	case header.Flags6&0x08 != 0:
		cart.mirror = MirrorFourScreen
	case header.Flags6&0x01 != 0:
		cart.mirror = MirrorVertical
	default:
		cart.mirror = MirrorHorizontal
	}

	if header.Flags6&0x04 != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedTrainer, err)
		}
	}

	// NES 2.0 (flags7 bits 2-3 == 0b10) uses the same 16KB/8KB unit sizes
	// for the byte values we read here; submapper/extended-size fields
	// are out of scope (spec Non-goals: no NES 2.0 submappers beyond
	// NROM/MMC3), so recognizing the format is enough to avoid
	// misreading a header NROM/MMC3 don't need more from.
	_ = header.isNES20()

	prgSize := int(header.PRGROMSize) * prgBankSize
	cart.prgROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedPRG, err)
	}

	chrSize := int(header.CHRROMSize) * chrBankSize
	if chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedCHR, err)
		}
	} else {
		cart.chrROM = make([]uint8, chrBankSize)
		cart.hasCHRRAM = true
	}

	if err := cart.attachMapper(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (c *Cartridge) attachMapper() error {
	switch c.mapperID {
	case 0:
		c.mapperKind = KindNROM
		c.nrom = newNROMMapper(c)
	case 4:
		c.mapperKind = KindMMC3
		c.mmc3 = newMMC3Mapper(c)
	default:
		return fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, c.mapperID)
	}
	return nil
}

// Kind reports which tagged variant is active.
func (c *Cartridge) Kind() Kind { return c.mapperKind }

// Mirror reports the current nametable mirroring mode. MMC3 can change
// this at runtime via its mirroring register; NROM's is fixed from the
// header.
func (c *Cartridge) Mirror() MirrorMode {
	switch c.mapperKind {
	case KindMMC3:
		return c.mmc3.mirror()
	default:
		return c.mirror
	}
}

// HasBattery reports whether the cartridge declares battery-backed SRAM.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// SRAM exposes the 8KB PRG-RAM/SRAM region for snapshot/battery persistence.
func (c *Cartridge) SRAM() []uint8 { return c.sram[:] }

// CPUReadPRG dispatches a CPU-space read ($4020-$FFFF) to the active
// mapper variant. The switch is the tagged-union dispatch point; there
// is no virtual call indirection.
func (c *Cartridge) CPUReadPRG(addr uint16) uint8 {
	switch c.mapperKind {
	case KindNROM:
		return c.nrom.readPRG(addr)
	case KindMMC3:
		return c.mmc3.readPRG(addr)
	default:
		return 0
	}
}

// CPUWritePRG dispatches a CPU-space write to the active mapper variant.
func (c *Cartridge) CPUWritePRG(addr uint16, value uint8) {
	switch c.mapperKind {
	case KindNROM:
		c.nrom.writePRG(addr, value)
	case KindMMC3:
		c.mmc3.writePRG(addr, value)
	}
}

// PPUReadCHR dispatches a PPU-space pattern-table read ($0000-$1FFF).
func (c *Cartridge) PPUReadCHR(addr uint16) uint8 {
	switch c.mapperKind {
	case KindNROM:
		return c.nrom.readCHR(addr)
	case KindMMC3:
		return c.mmc3.readCHR(addr)
	default:
		return 0
	}
}

// PPUWriteCHR dispatches a PPU-space pattern-table write.
func (c *Cartridge) PPUWriteCHR(addr uint16, value uint8) {
	switch c.mapperKind {
	case KindNROM:
		c.nrom.writeCHR(addr, value)
	case KindMMC3:
		c.mmc3.writeCHR(addr, value)
	}
}

// TickIRQ is polled once per CPU cycle by the tick orchestrator; it
// returns the level of the mapper's IRQ line, true on every poll for as
// long as the mapper holds an IRQ pending.
func (c *Cartridge) TickIRQ() bool {
	if c.mapperKind == KindMMC3 {
		return c.mmc3.irqPending
	}
	return false
}

// AcknowledgeIRQ clears any mapper-asserted IRQ once the CPU has serviced
// it. NROM has no IRQ source and ignores this.
func (c *Cartridge) AcknowledgeIRQ() {
	if c.mapperKind == KindMMC3 {
		c.mmc3.irqPending = false
	}
}

// PPUA12Rising is invoked by the PPU engine whenever a PPU memory access
// causes VRAM address bit 12 to transition 0->1. ppuCycle is the master
// tick timestamp of the access, used for MMC3's edge-detection filter.
// Only MMC3 cares.
func (c *Cartridge) PPUA12Rising(ppuCycle uint64) {
	if c.mapperKind == KindMMC3 {
		c.mmc3.a12Rising(ppuCycle)
	}
}

// Reset is the console RESET hook for the cartridge. It changes nothing:
// bank registers and IRQ state persist across reset on real MMC3
// hardware.
func (c *Cartridge) Reset() {}

// State is the serializable runtime state of a cartridge: PRG-RAM/SRAM
// contents, CHR-RAM contents (when present), and whichever mapper's own
// bank/IRQ registers are active. PRG/CHR ROM contents are not included;
// they are reloaded from the same ROM file the snapshot was taken against.
type State struct {
	SRAM   [0x2000]uint8
	CHRRAM []uint8 // only populated when HasCHRRAM is true
	MMC3   *mmc3State
}

// Snapshot captures SRAM, CHR-RAM (if writable), and the active mapper's
// own register state.
func (c *Cartridge) Snapshot() State {
	s := State{SRAM: c.sram}
	if c.hasCHRRAM {
		s.CHRRAM = append([]uint8(nil), c.chrROM...)
	}
	if c.mapperKind == KindMMC3 {
		mmc3 := c.mmc3.snapshot()
		s.MMC3 = &mmc3
	}
	return s
}

// Restore replaces SRAM, CHR-RAM, and mapper register state. The
// cartridge must already be the same ROM the snapshot was taken from
// (same PRG/CHR ROM slices, same mapper kind).
func (c *Cartridge) Restore(s State) {
	c.sram = s.SRAM
	if c.hasCHRRAM && s.CHRRAM != nil {
		copy(c.chrROM, s.CHRRAM)
	}
	if c.mapperKind == KindMMC3 && s.MMC3 != nil {
		c.mmc3.restore(*s.MMC3)
	}
}
