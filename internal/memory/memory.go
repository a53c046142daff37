// Package memory implements the PPU's own address space: pattern-table
// passthrough to the cartridge, nametable VRAM with mirroring, and
// palette RAM. CPU-visible address decoding lives in internal/bus.
package memory

// PPUMemory represents the PPU's memory space ($0000-$3FFF).
type PPUMemory struct {
	vram       [0x1000]uint8 // 4KB VRAM (nametables)
	paletteRAM [32]uint8     // 32 bytes palette RAM
	cartridge  CartridgeInterface
	mirroring  MirrorMode
}

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// CartridgeInterface defines the interface for cartridge CHR access.
type CartridgeInterface interface {
	PPUReadCHR(address uint16) uint8
	PPUWriteCHR(address uint16, value uint8)
}

// State is the serializable VRAM/palette content of a PPUMemory; the
// mirroring mode and cartridge link are reattached by the bus on load
// rather than round-tripped here.
type State struct {
	VRAM       [0x1000]uint8
	PaletteRAM [32]uint8
}

// Snapshot captures nametable and palette RAM contents.
func (m *PPUMemory) Snapshot() State {
	return State{VRAM: m.vram, PaletteRAM: m.paletteRAM}
}

// Restore replaces nametable and palette RAM contents.
func (m *PPUMemory) Restore(s State) {
	m.vram = s.VRAM
	m.paletteRAM = s.PaletteRAM
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(cart CartridgeInterface, mirroring MirrorMode) *PPUMemory {
	mem := &PPUMemory{
		cartridge: cart,
		mirroring: mirroring,
	}

	// Background color positions (0x00, 0x04, 0x08, 0x0C) power up black.
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}

	return mem
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF // Mask to 14-bit address space

	switch {
	case address < 0x2000:
		// Pattern Tables ($0000-$1FFF) - CHR ROM/RAM
		return pm.cartridge.PPUReadCHR(address)

	case address < 0x3000:
		// Nametables ($2000-$2FFF)
		return pm.readNametable(address)

	case address < 0x3F00:
		// Nametable mirrors ($3000-$3EFF)
		return pm.readNametable(address - 0x1000)

	default:
		// Palette RAM ($3F00-$3F1F) and its mirrors ($3F20-$3FFF)
		return pm.readPalette(address)
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF // Mask to 14-bit address space

	switch {
	case address < 0x2000:
		pm.cartridge.PPUWriteCHR(address, value)

	case address < 0x3000:
		pm.writeNametable(address, value)

	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)

	default:
		pm.writePalette(address, value)
	}
}

// readNametable reads from nametable with mirroring
func (pm *PPUMemory) readNametable(address uint16) uint8 {
	index := pm.getNametableIndex(address)
	return pm.vram[index]
}

// writeNametable writes to nametable with mirroring
func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	index := pm.getNametableIndex(address)
	pm.vram[index] = value
}

// getNametableIndex calculates the actual VRAM index based on mirroring mode
func (pm *PPUMemory) getNametableIndex(address uint16) uint16 {
	address &= 0x0FFF                // Keep only nametable bits
	nametable := (address >> 10) & 3 // Which nametable (0-3)
	offset := address & 0x3FF        // Offset within nametable

	switch pm.mirroring {
	case MirrorHorizontal:
		// $2000-$23FF and $2400-$27FF map to first 1KB
		// $2800-$2BFF and $2C00-$2FFF map to second 1KB
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset

	case MirrorVertical:
		// $2000-$23FF and $2800-$2BFF map to first 1KB
		// $2400-$27FF and $2C00-$2FFF map to second 1KB
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset

	case MirrorSingleScreen0:
		return offset

	case MirrorSingleScreen1:
		return 0x400 + offset

	case MirrorFourScreen:
		// Each nametable has its own 1KB (requires 4KB VRAM)
		return uint16(nametable)*0x400 + offset

	default:
		return offset
	}
}

// readPalette reads from palette RAM with mirroring
func (pm *PPUMemory) readPalette(address uint16) uint8 {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	return pm.paletteRAM[index]
}

// writePalette writes to palette RAM with mirroring
func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	pm.paletteRAM[index] = value
}
