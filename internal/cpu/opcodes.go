package cpu

// AddressingMode names the operand-fetch shape an opcode uses. Cycle
// counts and bus-access patterns are derived from this plus category,
// never hand-specified per opcode.
type AddressingMode uint8

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect // JMP (abs) only
	IndexedIndirect
	IndirectIndexed
)

// category groups opcodes by the shape of their microstep tail: how many
// bus cycles follow address resolution and what they do with the byte.
type category uint8

const (
	catImplied category = iota
	catAccumulator
	catRead
	catWrite
	catWriteHi // unstable stores keyed on the address high byte (SHA/SHX/SHY/TAS)
	catRMW
	catBranch
	catJMP
	catJMPIndirect
	catJSR
	catRTS
	catRTI
	catBRK
	catPush
	catPull
	catJam
)

type opEntry struct {
	mnemonic string
	mode     AddressingMode
	cat      category
	illegal  bool

	read    readFn
	write   writeFn
	writeHi writeHiFn
	rmw     rmwFn
	impl    implFn
}

// opcodeTable is the full 256-entry 6502 decode table: 151 documented and
// 105 undocumented opcodes, matching the commonly published NMOS 6502
// matrix including JAM/KIL halting opcodes.
var opcodeTable = [256]opEntry{
	0x00: {mnemonic: "BRK", mode: Implied, cat: catBRK},
	0x01: {mnemonic: "ORA", mode: IndexedIndirect, cat: catRead, read: opORA},
	0x02: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x03: {mnemonic: "SLO", mode: IndexedIndirect, cat: catRMW, rmw: opSLO, illegal: true},
	0x04: {mnemonic: "NOP", mode: ZeroPage, cat: catRead, read: opNOPRead, illegal: true},
	0x05: {mnemonic: "ORA", mode: ZeroPage, cat: catRead, read: opORA},
	0x06: {mnemonic: "ASL", mode: ZeroPage, cat: catRMW, rmw: opASL},
	0x07: {mnemonic: "SLO", mode: ZeroPage, cat: catRMW, rmw: opSLO, illegal: true},
	0x08: {mnemonic: "PHP", mode: Implied, cat: catPush},
	0x09: {mnemonic: "ORA", mode: Immediate, cat: catRead, read: opORA},
	0x0A: {mnemonic: "ASL", mode: Accumulator, cat: catAccumulator, impl: opASLAcc},
	0x0B: {mnemonic: "ANC", mode: Immediate, cat: catRead, read: opANC, illegal: true},
	0x0C: {mnemonic: "NOP", mode: Absolute, cat: catRead, read: opNOPRead, illegal: true},
	0x0D: {mnemonic: "ORA", mode: Absolute, cat: catRead, read: opORA},
	0x0E: {mnemonic: "ASL", mode: Absolute, cat: catRMW, rmw: opASL},
	0x0F: {mnemonic: "SLO", mode: Absolute, cat: catRMW, rmw: opSLO, illegal: true},

	0x10: {mnemonic: "BPL", mode: Relative, cat: catBranch},
	0x11: {mnemonic: "ORA", mode: IndirectIndexed, cat: catRead, read: opORA},
	0x12: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x13: {mnemonic: "SLO", mode: IndirectIndexed, cat: catRMW, rmw: opSLO, illegal: true},
	0x14: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0x15: {mnemonic: "ORA", mode: ZeroPageX, cat: catRead, read: opORA},
	0x16: {mnemonic: "ASL", mode: ZeroPageX, cat: catRMW, rmw: opASL},
	0x17: {mnemonic: "SLO", mode: ZeroPageX, cat: catRMW, rmw: opSLO, illegal: true},
	0x18: {mnemonic: "CLC", mode: Implied, cat: catImplied, impl: opCLC},
	0x19: {mnemonic: "ORA", mode: AbsoluteY, cat: catRead, read: opORA},
	0x1A: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0x1B: {mnemonic: "SLO", mode: AbsoluteY, cat: catRMW, rmw: opSLO, illegal: true},
	0x1C: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0x1D: {mnemonic: "ORA", mode: AbsoluteX, cat: catRead, read: opORA},
	0x1E: {mnemonic: "ASL", mode: AbsoluteX, cat: catRMW, rmw: opASL},
	0x1F: {mnemonic: "SLO", mode: AbsoluteX, cat: catRMW, rmw: opSLO, illegal: true},

	0x20: {mnemonic: "JSR", mode: Absolute, cat: catJSR},
	0x21: {mnemonic: "AND", mode: IndexedIndirect, cat: catRead, read: opAND},
	0x22: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x23: {mnemonic: "RLA", mode: IndexedIndirect, cat: catRMW, rmw: opRLA, illegal: true},
	0x24: {mnemonic: "BIT", mode: ZeroPage, cat: catRead, read: opBIT},
	0x25: {mnemonic: "AND", mode: ZeroPage, cat: catRead, read: opAND},
	0x26: {mnemonic: "ROL", mode: ZeroPage, cat: catRMW, rmw: opROL},
	0x27: {mnemonic: "RLA", mode: ZeroPage, cat: catRMW, rmw: opRLA, illegal: true},
	0x28: {mnemonic: "PLP", mode: Implied, cat: catPull},
	0x29: {mnemonic: "AND", mode: Immediate, cat: catRead, read: opAND},
	0x2A: {mnemonic: "ROL", mode: Accumulator, cat: catAccumulator, impl: opROLAcc},
	0x2B: {mnemonic: "ANC", mode: Immediate, cat: catRead, read: opANC, illegal: true},
	0x2C: {mnemonic: "BIT", mode: Absolute, cat: catRead, read: opBIT},
	0x2D: {mnemonic: "AND", mode: Absolute, cat: catRead, read: opAND},
	0x2E: {mnemonic: "ROL", mode: Absolute, cat: catRMW, rmw: opROL},
	0x2F: {mnemonic: "RLA", mode: Absolute, cat: catRMW, rmw: opRLA, illegal: true},

	0x30: {mnemonic: "BMI", mode: Relative, cat: catBranch},
	0x31: {mnemonic: "AND", mode: IndirectIndexed, cat: catRead, read: opAND},
	0x32: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x33: {mnemonic: "RLA", mode: IndirectIndexed, cat: catRMW, rmw: opRLA, illegal: true},
	0x34: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0x35: {mnemonic: "AND", mode: ZeroPageX, cat: catRead, read: opAND},
	0x36: {mnemonic: "ROL", mode: ZeroPageX, cat: catRMW, rmw: opROL},
	0x37: {mnemonic: "RLA", mode: ZeroPageX, cat: catRMW, rmw: opRLA, illegal: true},
	0x38: {mnemonic: "SEC", mode: Implied, cat: catImplied, impl: opSEC},
	0x39: {mnemonic: "AND", mode: AbsoluteY, cat: catRead, read: opAND},
	0x3A: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0x3B: {mnemonic: "RLA", mode: AbsoluteY, cat: catRMW, rmw: opRLA, illegal: true},
	0x3C: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0x3D: {mnemonic: "AND", mode: AbsoluteX, cat: catRead, read: opAND},
	0x3E: {mnemonic: "ROL", mode: AbsoluteX, cat: catRMW, rmw: opROL},
	0x3F: {mnemonic: "RLA", mode: AbsoluteX, cat: catRMW, rmw: opRLA, illegal: true},

	0x40: {mnemonic: "RTI", mode: Implied, cat: catRTI},
	0x41: {mnemonic: "EOR", mode: IndexedIndirect, cat: catRead, read: opEOR},
	0x42: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x43: {mnemonic: "SRE", mode: IndexedIndirect, cat: catRMW, rmw: opSRE, illegal: true},
	0x44: {mnemonic: "NOP", mode: ZeroPage, cat: catRead, read: opNOPRead, illegal: true},
	0x45: {mnemonic: "EOR", mode: ZeroPage, cat: catRead, read: opEOR},
	0x46: {mnemonic: "LSR", mode: ZeroPage, cat: catRMW, rmw: opLSR},
	0x47: {mnemonic: "SRE", mode: ZeroPage, cat: catRMW, rmw: opSRE, illegal: true},
	0x48: {mnemonic: "PHA", mode: Implied, cat: catPush},
	0x49: {mnemonic: "EOR", mode: Immediate, cat: catRead, read: opEOR},
	0x4A: {mnemonic: "LSR", mode: Accumulator, cat: catAccumulator, impl: opLSRAcc},
	0x4B: {mnemonic: "ALR", mode: Immediate, cat: catRead, read: opALR, illegal: true},
	0x4C: {mnemonic: "JMP", mode: Absolute, cat: catJMP},
	0x4D: {mnemonic: "EOR", mode: Absolute, cat: catRead, read: opEOR},
	0x4E: {mnemonic: "LSR", mode: Absolute, cat: catRMW, rmw: opLSR},
	0x4F: {mnemonic: "SRE", mode: Absolute, cat: catRMW, rmw: opSRE, illegal: true},

	0x50: {mnemonic: "BVC", mode: Relative, cat: catBranch},
	0x51: {mnemonic: "EOR", mode: IndirectIndexed, cat: catRead, read: opEOR},
	0x52: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x53: {mnemonic: "SRE", mode: IndirectIndexed, cat: catRMW, rmw: opSRE, illegal: true},
	0x54: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0x55: {mnemonic: "EOR", mode: ZeroPageX, cat: catRead, read: opEOR},
	0x56: {mnemonic: "LSR", mode: ZeroPageX, cat: catRMW, rmw: opLSR},
	0x57: {mnemonic: "SRE", mode: ZeroPageX, cat: catRMW, rmw: opSRE, illegal: true},
	0x58: {mnemonic: "CLI", mode: Implied, cat: catImplied, impl: opCLI},
	0x59: {mnemonic: "EOR", mode: AbsoluteY, cat: catRead, read: opEOR},
	0x5A: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0x5B: {mnemonic: "SRE", mode: AbsoluteY, cat: catRMW, rmw: opSRE, illegal: true},
	0x5C: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0x5D: {mnemonic: "EOR", mode: AbsoluteX, cat: catRead, read: opEOR},
	0x5E: {mnemonic: "LSR", mode: AbsoluteX, cat: catRMW, rmw: opLSR},
	0x5F: {mnemonic: "SRE", mode: AbsoluteX, cat: catRMW, rmw: opSRE, illegal: true},

	0x60: {mnemonic: "RTS", mode: Implied, cat: catRTS},
	0x61: {mnemonic: "ADC", mode: IndexedIndirect, cat: catRead, read: opADC},
	0x62: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x63: {mnemonic: "RRA", mode: IndexedIndirect, cat: catRMW, rmw: opRRA, illegal: true},
	0x64: {mnemonic: "NOP", mode: ZeroPage, cat: catRead, read: opNOPRead, illegal: true},
	0x65: {mnemonic: "ADC", mode: ZeroPage, cat: catRead, read: opADC},
	0x66: {mnemonic: "ROR", mode: ZeroPage, cat: catRMW, rmw: opROR},
	0x67: {mnemonic: "RRA", mode: ZeroPage, cat: catRMW, rmw: opRRA, illegal: true},
	0x68: {mnemonic: "PLA", mode: Implied, cat: catPull},
	0x69: {mnemonic: "ADC", mode: Immediate, cat: catRead, read: opADC},
	0x6A: {mnemonic: "ROR", mode: Accumulator, cat: catAccumulator, impl: opRORAcc},
	0x6B: {mnemonic: "ARR", mode: Immediate, cat: catRead, read: opARR, illegal: true},
	0x6C: {mnemonic: "JMP", mode: Indirect, cat: catJMPIndirect},
	0x6D: {mnemonic: "ADC", mode: Absolute, cat: catRead, read: opADC},
	0x6E: {mnemonic: "ROR", mode: Absolute, cat: catRMW, rmw: opROR},
	0x6F: {mnemonic: "RRA", mode: Absolute, cat: catRMW, rmw: opRRA, illegal: true},

	0x70: {mnemonic: "BVS", mode: Relative, cat: catBranch},
	0x71: {mnemonic: "ADC", mode: IndirectIndexed, cat: catRead, read: opADC},
	0x72: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x73: {mnemonic: "RRA", mode: IndirectIndexed, cat: catRMW, rmw: opRRA, illegal: true},
	0x74: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0x75: {mnemonic: "ADC", mode: ZeroPageX, cat: catRead, read: opADC},
	0x76: {mnemonic: "ROR", mode: ZeroPageX, cat: catRMW, rmw: opROR},
	0x77: {mnemonic: "RRA", mode: ZeroPageX, cat: catRMW, rmw: opRRA, illegal: true},
	0x78: {mnemonic: "SEI", mode: Implied, cat: catImplied, impl: opSEI},
	0x79: {mnemonic: "ADC", mode: AbsoluteY, cat: catRead, read: opADC},
	0x7A: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0x7B: {mnemonic: "RRA", mode: AbsoluteY, cat: catRMW, rmw: opRRA, illegal: true},
	0x7C: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0x7D: {mnemonic: "ADC", mode: AbsoluteX, cat: catRead, read: opADC},
	0x7E: {mnemonic: "ROR", mode: AbsoluteX, cat: catRMW, rmw: opROR},
	0x7F: {mnemonic: "RRA", mode: AbsoluteX, cat: catRMW, rmw: opRRA, illegal: true},

	0x80: {mnemonic: "NOP", mode: Immediate, cat: catRead, read: opNOPRead, illegal: true},
	0x81: {mnemonic: "STA", mode: IndexedIndirect, cat: catWrite, write: opSTA},
	0x82: {mnemonic: "NOP", mode: Immediate, cat: catRead, read: opNOPRead, illegal: true},
	0x83: {mnemonic: "SAX", mode: IndexedIndirect, cat: catWrite, write: opSAX, illegal: true},
	0x84: {mnemonic: "STY", mode: ZeroPage, cat: catWrite, write: opSTY},
	0x85: {mnemonic: "STA", mode: ZeroPage, cat: catWrite, write: opSTA},
	0x86: {mnemonic: "STX", mode: ZeroPage, cat: catWrite, write: opSTX},
	0x87: {mnemonic: "SAX", mode: ZeroPage, cat: catWrite, write: opSAX, illegal: true},
	0x88: {mnemonic: "DEY", mode: Implied, cat: catImplied, impl: opDEY},
	0x89: {mnemonic: "NOP", mode: Immediate, cat: catRead, read: opNOPRead, illegal: true},
	0x8A: {mnemonic: "TXA", mode: Implied, cat: catImplied, impl: opTXA},
	0x8B: {mnemonic: "XAA", mode: Immediate, cat: catRead, read: opXAA, illegal: true},
	0x8C: {mnemonic: "STY", mode: Absolute, cat: catWrite, write: opSTY},
	0x8D: {mnemonic: "STA", mode: Absolute, cat: catWrite, write: opSTA},
	0x8E: {mnemonic: "STX", mode: Absolute, cat: catWrite, write: opSTX},
	0x8F: {mnemonic: "SAX", mode: Absolute, cat: catWrite, write: opSAX, illegal: true},

	0x90: {mnemonic: "BCC", mode: Relative, cat: catBranch},
	0x91: {mnemonic: "STA", mode: IndirectIndexed, cat: catWrite, write: opSTA},
	0x92: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0x93: {mnemonic: "SHA", mode: IndirectIndexed, cat: catWriteHi, writeHi: opSHAHi, illegal: true},
	0x94: {mnemonic: "STY", mode: ZeroPageX, cat: catWrite, write: opSTY},
	0x95: {mnemonic: "STA", mode: ZeroPageX, cat: catWrite, write: opSTA},
	0x96: {mnemonic: "STX", mode: ZeroPageY, cat: catWrite, write: opSTX},
	0x97: {mnemonic: "SAX", mode: ZeroPageY, cat: catWrite, write: opSAX, illegal: true},
	0x98: {mnemonic: "TYA", mode: Implied, cat: catImplied, impl: opTYA},
	0x99: {mnemonic: "STA", mode: AbsoluteY, cat: catWrite, write: opSTA},
	0x9A: {mnemonic: "TXS", mode: Implied, cat: catImplied, impl: opTXS},
	0x9B: {mnemonic: "TAS", mode: AbsoluteY, cat: catWriteHi, writeHi: opTASHi, illegal: true},
	0x9C: {mnemonic: "SHY", mode: AbsoluteX, cat: catWriteHi, writeHi: opSHYHi, illegal: true},
	0x9D: {mnemonic: "STA", mode: AbsoluteX, cat: catWrite, write: opSTA},
	0x9E: {mnemonic: "SHX", mode: AbsoluteY, cat: catWriteHi, writeHi: opSHXHi, illegal: true},
	0x9F: {mnemonic: "SHA", mode: AbsoluteY, cat: catWriteHi, writeHi: opSHAHi, illegal: true},

	0xA0: {mnemonic: "LDY", mode: Immediate, cat: catRead, read: opLDY},
	0xA1: {mnemonic: "LDA", mode: IndexedIndirect, cat: catRead, read: opLDA},
	0xA2: {mnemonic: "LDX", mode: Immediate, cat: catRead, read: opLDX},
	0xA3: {mnemonic: "LAX", mode: IndexedIndirect, cat: catRead, read: opLAX, illegal: true},
	0xA4: {mnemonic: "LDY", mode: ZeroPage, cat: catRead, read: opLDY},
	0xA5: {mnemonic: "LDA", mode: ZeroPage, cat: catRead, read: opLDA},
	0xA6: {mnemonic: "LDX", mode: ZeroPage, cat: catRead, read: opLDX},
	0xA7: {mnemonic: "LAX", mode: ZeroPage, cat: catRead, read: opLAX, illegal: true},
	0xA8: {mnemonic: "TAY", mode: Implied, cat: catImplied, impl: opTAY},
	0xA9: {mnemonic: "LDA", mode: Immediate, cat: catRead, read: opLDA},
	0xAA: {mnemonic: "TAX", mode: Implied, cat: catImplied, impl: opTAX},
	0xAB: {mnemonic: "LXA", mode: Immediate, cat: catRead, read: opLXA, illegal: true},
	0xAC: {mnemonic: "LDY", mode: Absolute, cat: catRead, read: opLDY},
	0xAD: {mnemonic: "LDA", mode: Absolute, cat: catRead, read: opLDA},
	0xAE: {mnemonic: "LDX", mode: Absolute, cat: catRead, read: opLDX},
	0xAF: {mnemonic: "LAX", mode: Absolute, cat: catRead, read: opLAX, illegal: true},

	0xB0: {mnemonic: "BCS", mode: Relative, cat: catBranch},
	0xB1: {mnemonic: "LDA", mode: IndirectIndexed, cat: catRead, read: opLDA},
	0xB2: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0xB3: {mnemonic: "LAX", mode: IndirectIndexed, cat: catRead, read: opLAX, illegal: true},
	0xB4: {mnemonic: "LDY", mode: ZeroPageX, cat: catRead, read: opLDY},
	0xB5: {mnemonic: "LDA", mode: ZeroPageX, cat: catRead, read: opLDA},
	0xB6: {mnemonic: "LDX", mode: ZeroPageY, cat: catRead, read: opLDX},
	0xB7: {mnemonic: "LAX", mode: ZeroPageY, cat: catRead, read: opLAX, illegal: true},
	0xB8: {mnemonic: "CLV", mode: Implied, cat: catImplied, impl: opCLV},
	0xB9: {mnemonic: "LDA", mode: AbsoluteY, cat: catRead, read: opLDA},
	0xBA: {mnemonic: "TSX", mode: Implied, cat: catImplied, impl: opTSX},
	0xBB: {mnemonic: "LAS", mode: AbsoluteY, cat: catRead, read: opLAS, illegal: true},
	0xBC: {mnemonic: "LDY", mode: AbsoluteX, cat: catRead, read: opLDY},
	0xBD: {mnemonic: "LDA", mode: AbsoluteX, cat: catRead, read: opLDA},
	0xBE: {mnemonic: "LDX", mode: AbsoluteY, cat: catRead, read: opLDX},
	0xBF: {mnemonic: "LAX", mode: AbsoluteY, cat: catRead, read: opLAX, illegal: true},

	0xC0: {mnemonic: "CPY", mode: Immediate, cat: catRead},
	0xC1: {mnemonic: "CMP", mode: IndexedIndirect, cat: catRead},
	0xC2: {mnemonic: "NOP", mode: Immediate, cat: catRead, read: opNOPRead, illegal: true},
	0xC3: {mnemonic: "DCP", mode: IndexedIndirect, cat: catRMW, rmw: opDCP, illegal: true},
	0xC4: {mnemonic: "CPY", mode: ZeroPage, cat: catRead},
	0xC5: {mnemonic: "CMP", mode: ZeroPage, cat: catRead},
	0xC6: {mnemonic: "DEC", mode: ZeroPage, cat: catRMW, rmw: opDEC},
	0xC7: {mnemonic: "DCP", mode: ZeroPage, cat: catRMW, rmw: opDCP, illegal: true},
	0xC8: {mnemonic: "INY", mode: Implied, cat: catImplied, impl: opINY},
	0xC9: {mnemonic: "CMP", mode: Immediate, cat: catRead},
	0xCA: {mnemonic: "DEX", mode: Implied, cat: catImplied, impl: opDEX},
	0xCB: {mnemonic: "AXS", mode: Immediate, cat: catRead, read: opAXS, illegal: true},
	0xCC: {mnemonic: "CPY", mode: Absolute, cat: catRead},
	0xCD: {mnemonic: "CMP", mode: Absolute, cat: catRead},
	0xCE: {mnemonic: "DEC", mode: Absolute, cat: catRMW, rmw: opDEC},
	0xCF: {mnemonic: "DCP", mode: Absolute, cat: catRMW, rmw: opDCP, illegal: true},

	0xD0: {mnemonic: "BNE", mode: Relative, cat: catBranch},
	0xD1: {mnemonic: "CMP", mode: IndirectIndexed, cat: catRead},
	0xD2: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0xD3: {mnemonic: "DCP", mode: IndirectIndexed, cat: catRMW, rmw: opDCP, illegal: true},
	0xD4: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0xD5: {mnemonic: "CMP", mode: ZeroPageX, cat: catRead},
	0xD6: {mnemonic: "DEC", mode: ZeroPageX, cat: catRMW, rmw: opDEC},
	0xD7: {mnemonic: "DCP", mode: ZeroPageX, cat: catRMW, rmw: opDCP, illegal: true},
	0xD8: {mnemonic: "CLD", mode: Implied, cat: catImplied, impl: opCLD},
	0xD9: {mnemonic: "CMP", mode: AbsoluteY, cat: catRead},
	0xDA: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0xDB: {mnemonic: "DCP", mode: AbsoluteY, cat: catRMW, rmw: opDCP, illegal: true},
	0xDC: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0xDD: {mnemonic: "CMP", mode: AbsoluteX, cat: catRead},
	0xDE: {mnemonic: "DEC", mode: AbsoluteX, cat: catRMW, rmw: opDEC},
	0xDF: {mnemonic: "DCP", mode: AbsoluteX, cat: catRMW, rmw: opDCP, illegal: true},

	0xE0: {mnemonic: "CPX", mode: Immediate, cat: catRead},
	0xE1: {mnemonic: "SBC", mode: IndexedIndirect, cat: catRead, read: opSBC},
	0xE2: {mnemonic: "NOP", mode: Immediate, cat: catRead, read: opNOPRead, illegal: true},
	0xE3: {mnemonic: "ISB", mode: IndexedIndirect, cat: catRMW, rmw: opISB, illegal: true},
	0xE4: {mnemonic: "CPX", mode: ZeroPage, cat: catRead},
	0xE5: {mnemonic: "SBC", mode: ZeroPage, cat: catRead, read: opSBC},
	0xE6: {mnemonic: "INC", mode: ZeroPage, cat: catRMW, rmw: opINC},
	0xE7: {mnemonic: "ISB", mode: ZeroPage, cat: catRMW, rmw: opISB, illegal: true},
	0xE8: {mnemonic: "INX", mode: Implied, cat: catImplied, impl: opINX},
	0xE9: {mnemonic: "SBC", mode: Immediate, cat: catRead, read: opSBC},
	0xEA: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP},
	0xEB: {mnemonic: "SBC", mode: Immediate, cat: catRead, read: opSBC, illegal: true},
	0xEC: {mnemonic: "CPX", mode: Absolute, cat: catRead},
	0xED: {mnemonic: "SBC", mode: Absolute, cat: catRead, read: opSBC},
	0xEE: {mnemonic: "INC", mode: Absolute, cat: catRMW, rmw: opINC},
	0xEF: {mnemonic: "ISB", mode: Absolute, cat: catRMW, rmw: opISB, illegal: true},

	0xF0: {mnemonic: "BEQ", mode: Relative, cat: catBranch},
	0xF1: {mnemonic: "SBC", mode: IndirectIndexed, cat: catRead, read: opSBC},
	0xF2: {mnemonic: "JAM", mode: Implied, cat: catJam, illegal: true},
	0xF3: {mnemonic: "ISB", mode: IndirectIndexed, cat: catRMW, rmw: opISB, illegal: true},
	0xF4: {mnemonic: "NOP", mode: ZeroPageX, cat: catRead, read: opNOPRead, illegal: true},
	0xF5: {mnemonic: "SBC", mode: ZeroPageX, cat: catRead, read: opSBC},
	0xF6: {mnemonic: "INC", mode: ZeroPageX, cat: catRMW, rmw: opINC},
	0xF7: {mnemonic: "ISB", mode: ZeroPageX, cat: catRMW, rmw: opISB, illegal: true},
	0xF8: {mnemonic: "SED", mode: Implied, cat: catImplied, impl: opSED},
	0xF9: {mnemonic: "SBC", mode: AbsoluteY, cat: catRead, read: opSBC},
	0xFA: {mnemonic: "NOP", mode: Implied, cat: catImplied, impl: opNOP, illegal: true},
	0xFB: {mnemonic: "ISB", mode: AbsoluteY, cat: catRMW, rmw: opISB, illegal: true},
	0xFC: {mnemonic: "NOP", mode: AbsoluteX, cat: catRead, read: opNOPRead, illegal: true},
	0xFD: {mnemonic: "SBC", mode: AbsoluteX, cat: catRead, read: opSBC},
	0xFE: {mnemonic: "INC", mode: AbsoluteX, cat: catRMW, rmw: opINC},
	0xFF: {mnemonic: "ISB", mode: AbsoluteX, cat: catRMW, rmw: opISB, illegal: true},
}

func init() {
	bindCompareFamily()
}

// bindCompareFamily fills in the read funcs for CMP/CPX/CPY variants,
// which key off a specific register and so aren't expressed as
// package-level function values in the table literal above.
func bindCompareFamily() {
	for _, op := range []uint8{0xC1, 0xC5, 0xC9, 0xCD, 0xD1, 0xD5, 0xD9, 0xDD} {
		e := opcodeTable[op]
		e.read = cmpA
		opcodeTable[op] = e
	}
	for _, op := range []uint8{0xE0, 0xE4, 0xEC} {
		e := opcodeTable[op]
		e.read = cmpX
		opcodeTable[op] = e
	}
	for _, op := range []uint8{0xC0, 0xC4, 0xCC} {
		e := opcodeTable[op]
		e.read = cmpY
		opcodeTable[op] = e
	}
}

func cmpA(c *CPU, v uint8) {
	result := c.A - v
	c.C = c.A >= v
	c.setZN(result)
}

func cmpX(c *CPU, v uint8) {
	result := c.X - v
	c.C = c.X >= v
	c.setZN(result)
}

func cmpY(c *CPU, v uint8) {
	result := c.Y - v
	c.C = c.Y >= v
	c.setZN(result)
}
