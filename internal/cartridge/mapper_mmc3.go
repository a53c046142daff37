package cartridge

// A12FilterCycles is the width, in PPU dots, of the A12 edge-detection
// filter: rising edges that follow a previous rising edge by fewer than
// this many PPU cycles are treated as bus noise from the same fetch
// group and are not clocked into the scanline counter. Spec §4.5/§9
// documents real hardware as "6-8 PPU cycles"; 8 is chosen and exposed
// as a constant per the spec's own suggestion.
const A12FilterCycles = 8

// mmc3Mapper implements mapper 4 (MMC3): two switchable + one fixed 8KB
// PRG bank, six CHR banks (2x2KB + 4x1KB), a scanline IRQ counter clocked
// by PPU address-line A12 rising edges, and a software-switchable
// mirroring mode.
type mmc3Mapper struct {
	cart *Cartridge

	prgROM []uint8
	chrMem []uint8
	prgRAM [0x2000]uint8

	prgBanks uint8 // 8KB PRG bank count
	chrIsRAM bool

	bankSelect uint8 // which of R0-R7 the next $8001/$9FFF write updates
	prgMode    uint8 // bit 6 of $8000
	chrMode    uint8 // bit 7 of $8000
	regs       [8]uint8

	mirrorH    bool // true = horizontal, false = vertical; ignored if fourScreen
	fourScreen bool

	prgRAMEnabled      bool
	prgRAMWriteProtect bool

	irqLatch      uint8
	irqCounter    uint8
	irqReloadFlag bool
	irqEnabled    bool
	irqPending    bool

	lastA12Rise uint64
	haveLastA12 bool
}

func newMMC3Mapper(cart *Cartridge) *mmc3Mapper {
	m := &mmc3Mapper{
		cart:          cart,
		prgRAM:        [0x2000]uint8{},
		prgBanks:      uint8(len(cart.prgROM) / 0x2000),
		prgRAMEnabled: true,
		fourScreen:    cart.mirror == MirrorFourScreen,
	}
	m.prgROM = cart.prgROM
	if len(cart.chrROM) > 0 && !cart.hasCHRRAM {
		m.chrMem = cart.chrROM
	} else {
		m.chrMem = cart.chrROM // already allocated as 8KB RAM by the loader
		m.chrIsRAM = true
	}
	return m
}

func (m *mmc3Mapper) mirror() MirrorMode {
	if m.fourScreen {
		return MirrorFourScreen
	}
	if m.mirrorH {
		return MirrorHorizontal
	}
	return MirrorVertical
}

func (m *mmc3Mapper) readPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled {
			return m.prgRAM[addr-0x6000]
		}
		return 0
	case addr >= 0x8000 && addr < 0xA000:
		return m.prgByte(m.bankAt8000(), addr-0x8000)
	case addr >= 0xA000 && addr < 0xC000:
		return m.prgByte(m.regs[7]&0x3F, addr-0xA000)
	case addr >= 0xC000 && addr < 0xE000:
		return m.prgByte(m.bankAtC000(), addr-0xC000)
	case addr >= 0xE000:
		return m.prgByte(m.fixedLastBank(), addr-0xE000)
	default:
		return 0
	}
}

func (m *mmc3Mapper) bankAt8000() uint8 {
	if m.prgMode == 0 {
		return m.regs[6] & 0x3F
	}
	return m.fixedSecondLastBank()
}

func (m *mmc3Mapper) bankAtC000() uint8 {
	if m.prgMode == 0 {
		return m.fixedSecondLastBank()
	}
	return m.regs[6] & 0x3F
}

func (m *mmc3Mapper) fixedLastBank() uint8 {
	if m.prgBanks == 0 {
		return 0
	}
	return m.prgBanks - 1
}

func (m *mmc3Mapper) fixedSecondLastBank() uint8 {
	if m.prgBanks < 2 {
		return 0
	}
	return m.prgBanks - 2
}

func (m *mmc3Mapper) prgByte(bank uint8, offset uint16) uint8 {
	addr := uint32(bank)*0x2000 + uint32(offset)
	if int(addr) < len(m.prgROM) {
		return m.prgROM[addr]
	}
	return 0
}

func (m *mmc3Mapper) writePRG(addr uint16, value uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled && !m.prgRAMWriteProtect {
			m.prgRAM[addr-0x6000] = value
		}
	case addr >= 0x8000 && addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = value & 0x07
			m.prgMode = (value >> 6) & 0x01
			m.chrMode = (value >> 7) & 0x01
		} else {
			m.regs[m.bankSelect] = value
		}
	case addr >= 0xA000 && addr < 0xC000:
		if addr&1 == 0 {
			if !m.fourScreen {
				m.mirrorH = value&0x01 != 0
			}
		} else {
			m.prgRAMWriteProtect = value&0x40 != 0
			m.prgRAMEnabled = value&0x80 != 0
		}
	case addr >= 0xC000 && addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = value
		} else {
			m.irqReloadFlag = true
		}
	case addr >= 0xE000:
		if addr&1 == 0 {
			// $E000: disable IRQs and acknowledge any pending one.
			m.irqEnabled = false
			m.irqPending = false
		} else {
			// $E001: enable IRQs. Also acknowledges any IRQ latched
			// before the enable write — the TMNT II class of bugs
			// the spec calls out comes from skipping this clear.
			m.irqEnabled = true
			m.irqPending = false
		}
	}
}

func (m *mmc3Mapper) readCHR(addr uint16) uint8 {
	return m.chrByte(addr)
}

func (m *mmc3Mapper) writeCHR(addr uint16, value uint8) {
	if !m.chrIsRAM {
		return
	}
	offset := m.chrOffset(addr)
	if int(offset) < len(m.chrMem) {
		m.chrMem[offset] = value
	}
}

func (m *mmc3Mapper) chrByte(addr uint16) uint8 {
	offset := m.chrOffset(addr)
	if int(offset) < len(m.chrMem) {
		return m.chrMem[offset]
	}
	return 0
}

// chrOffset computes the byte offset into chrMem for a PPU pattern-table
// address, honoring the CHR A12-inversion bit (chrMode).
func (m *mmc3Mapper) chrOffset(addr uint16) uint32 {
	addr &= 0x1FFF
	if m.chrMode == 0 {
		switch {
		case addr < 0x0800:
			return uint32(m.regs[0]&0xFE)*0x400 + uint32(addr)
		case addr < 0x1000:
			return uint32(m.regs[1]&0xFE)*0x400 + uint32(addr-0x0800)
		case addr < 0x1400:
			return uint32(m.regs[2])*0x400 + uint32(addr-0x1000)
		case addr < 0x1800:
			return uint32(m.regs[3])*0x400 + uint32(addr-0x1400)
		case addr < 0x1C00:
			return uint32(m.regs[4])*0x400 + uint32(addr-0x1800)
		default:
			return uint32(m.regs[5])*0x400 + uint32(addr-0x1C00)
		}
	}
	switch {
	case addr < 0x0400:
		return uint32(m.regs[2])*0x400 + uint32(addr)
	case addr < 0x0800:
		return uint32(m.regs[3])*0x400 + uint32(addr-0x0400)
	case addr < 0x0C00:
		return uint32(m.regs[4])*0x400 + uint32(addr-0x0800)
	case addr < 0x1000:
		return uint32(m.regs[5])*0x400 + uint32(addr-0x0C00)
	case addr < 0x1800:
		return uint32(m.regs[0]&0xFE)*0x400 + uint32(addr-0x1000)
	default:
		return uint32(m.regs[1]&0xFE)*0x400 + uint32(addr-0x1800)
	}
}

// a12Rising is called by the PPU on every VRAM-address bit-12 0->1
// transition caused by a pattern/CHR fetch. Edges within A12FilterCycles
// of the previous accepted edge are bus noise from the same fetch group
// and are ignored, matching real MMC3's RC-filtered A12 input.
func (m *mmc3Mapper) a12Rising(ppuCycle uint64) {
	if m.haveLastA12 && ppuCycle-m.lastA12Rise < A12FilterCycles {
		return
	}
	m.haveLastA12 = true
	m.lastA12Rise = ppuCycle
	m.clockScanlineCounter()
}

func (m *mmc3Mapper) clockScanlineCounter() {
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqLatch
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// mmc3State is the serializable register state of an MMC3 mapper.
type mmc3State struct {
	PRGRAM [0x2000]uint8

	BankSelect uint8
	PRGMode    uint8
	CHRMode    uint8
	Regs       [8]uint8

	MirrorH    bool
	FourScreen bool

	PRGRAMEnabled      bool
	PRGRAMWriteProtect bool

	IRQLatch      uint8
	IRQCounter    uint8
	IRQReloadFlag bool
	IRQEnabled    bool
	IRQPending    bool

	LastA12Rise uint64
	HaveLastA12 bool
}

func (m *mmc3Mapper) snapshot() mmc3State {
	return mmc3State{
		PRGRAM: m.prgRAM,
		BankSelect: m.bankSelect, PRGMode: m.prgMode, CHRMode: m.chrMode, Regs: m.regs,
		MirrorH: m.mirrorH, FourScreen: m.fourScreen,
		PRGRAMEnabled: m.prgRAMEnabled, PRGRAMWriteProtect: m.prgRAMWriteProtect,
		IRQLatch: m.irqLatch, IRQCounter: m.irqCounter, IRQReloadFlag: m.irqReloadFlag,
		IRQEnabled: m.irqEnabled, IRQPending: m.irqPending,
		LastA12Rise: m.lastA12Rise, HaveLastA12: m.haveLastA12,
	}
}

func (m *mmc3Mapper) restore(s mmc3State) {
	m.prgRAM = s.PRGRAM
	m.bankSelect, m.prgMode, m.chrMode, m.regs = s.BankSelect, s.PRGMode, s.CHRMode, s.Regs
	m.mirrorH, m.fourScreen = s.MirrorH, s.FourScreen
	m.prgRAMEnabled, m.prgRAMWriteProtect = s.PRGRAMEnabled, s.PRGRAMWriteProtect
	m.irqLatch, m.irqCounter, m.irqReloadFlag = s.IRQLatch, s.IRQCounter, s.IRQReloadFlag
	m.irqEnabled, m.irqPending = s.IRQEnabled, s.IRQPending
	m.lastA12Rise, m.haveLastA12 = s.LastA12Rise, s.HaveLastA12
}
