// Package cpu implements a cycle-accurate Ricoh 2A03 (6502-derived) CPU
// core. Unlike a whole-instruction interpreter, each opcode is decomposed
// into a queue of one-bus-access microsteps so that Step can be called
// exactly once per CPU cycle and interleaved with DMA at cycle
// granularity, per the tick orchestrator's contract.
package cpu

const (
	stackBase   = 0x0100
	nmiVectAddr = 0xFFFA
	rstVectAddr = 0xFFFC
	irqVectAddr = 0xFFFE
)

// Bus is the CPU-space memory interface: open-bus behavior, mapper
// dispatch, and PPU/APU register decoding all live behind it.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

// microOp is a single bus access plus whatever register-level work
// happens alongside it on real hardware. It may enqueue further microOps
// on the CPU it's given, which is how instructions whose cycle count
// depends on runtime state (a page-crossing indexed load, say) grow
// their own tail without the decoder needing to predict the count.
type microOp func(c *CPU)

type intKind uint8

const (
	intNMI intKind = iota
	intIRQ
	intBRK
)

// CPU is a single 2A03 core. It holds no pointer to PPU/APU/mapper state
// directly; all of that is reached through Bus.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16

	C, Z, I, D, V, N bool

	bus     Bus
	variant Variant

	queue []microOp
	qi    int

	nmiLinePrev bool
	nmiPending  bool
	irqLine     bool

	jammed bool

	Cycles uint64 // total CPU cycles executed, for diagnostics/snapshots
}

// New creates a CPU wired to bus, using the NTSC unstable-opcode variant.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, variant: VariantNTSC, SP: 0xFD}
}

// SetVariant selects the die revision used for the unstable unofficial
// opcode group (LXA, XAA, SHA, SHX, SHY, LAS, ANC).
func (c *CPU) SetVariant(v Variant) { c.variant = v }

// AtInstructionBoundary reports whether the microstep queue is empty, i.e.
// the next Step call will fetch a new opcode (or service a pending
// interrupt) rather than continue an instruction already in flight. The
// queue holds closures that cannot be serialized, so State a CPU mid
// instruction and losing the rest of the queue would corrupt it on
// restore; callers that snapshot state must run the CPU up to a boundary
// first.
func (c *CPU) AtInstructionBoundary() bool {
	return len(c.queue) == 0 && !c.jammed
}

// State is the serializable register/flag snapshot of a CPU at an
// instruction boundary.
type State struct {
	A, X, Y, SP uint8
	PC          uint16
	C, Z, I, D, V, N bool
	Variant     Variant
	NMILinePrev bool
	NMIPending  bool
	IRQLine     bool
	Jammed      bool
	Cycles      uint64
}

// Snapshot captures the CPU's architectural state. The caller must ensure
// AtInstructionBoundary is true; Snapshot does not enforce it since the
// bus orchestrator is in the best position to run to a boundary first.
func (c *CPU) Snapshot() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC,
		C: c.C, Z: c.Z, I: c.I, D: c.D, V: c.V, N: c.N,
		Variant:     c.variant,
		NMILinePrev: c.nmiLinePrev,
		NMIPending:  c.nmiPending,
		IRQLine:     c.irqLine,
		Jammed:      c.jammed,
		Cycles:      c.Cycles,
	}
}

// Restore puts the CPU back into a previously captured state, always at
// a fresh instruction boundary with an empty microstep queue.
func (c *CPU) Restore(s State) {
	c.A, c.X, c.Y, c.SP, c.PC = s.A, s.X, s.Y, s.SP, s.PC
	c.C, c.Z, c.I, c.D, c.V, c.N = s.C, s.Z, s.I, s.D, s.V, s.N
	c.variant = s.Variant
	c.nmiLinePrev = s.NMILinePrev
	c.nmiPending = s.NMIPending
	c.irqLine = s.IRQLine
	c.jammed = s.Jammed
	c.Cycles = s.Cycles
	c.queue = c.queue[:0]
	c.qi = 0
}

// PowerOn resets the CPU to its power-up register state and loads PC
// from the reset vector. Unlike NMI/IRQ/BRK, RESET is not modeled as a
// per-cycle microstep sequence: nothing else on the bus observes CPU
// state during those 7 cycles, so the sequence is applied atomically
// here, before CPU stepping resumes.
func (c *CPU) PowerOn() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.C, c.Z, c.V, c.N = false, false, false, false
	c.D = false
	c.I = true
	c.jammed = false
	c.queue = c.queue[:0]
	c.qi = 0
	c.nmiPending = false
	c.nmiLinePrev = false
	c.irqLine = false
	for i := 0; i < 5; i++ {
		c.bus.Read(c.PC)
	}
	lo := uint16(c.bus.Read(rstVectAddr))
	hi := uint16(c.bus.Read(rstVectAddr + 1))
	c.PC = hi<<8 | lo
	c.Cycles += 7
}

// Reset applies the console RESET-button sequence: registers are NOT
// reinitialized (SP is decremented by 3 as if pushes happened, without
// writing, since RESET holds the bus read-only), I is set, and PC is
// reloaded from the reset vector.
func (c *CPU) Reset() {
	c.jammed = false
	c.queue = c.queue[:0]
	c.qi = 0
	c.nmiPending = false
	c.nmiLinePrev = false
	for i := 0; i < 3; i++ {
		c.bus.Read(c.PC)
	}
	c.SP -= 3
	c.I = true
	lo := uint16(c.bus.Read(rstVectAddr))
	hi := uint16(c.bus.Read(rstVectAddr + 1))
	c.PC = hi<<8 | lo
	c.Cycles += 7
}

// SetNMILine reports the current level of the PPU's NMI output.
// nmi_line is edge-detected: a rising transition (PPU signal going
// active) latches a pending NMI that is serviced once the in-flight
// instruction finishes, and cleared the instant its vector is fetched.
func (c *CPU) SetNMILine(asserted bool) {
	if asserted && !c.nmiLinePrev {
		c.nmiPending = true
	}
	c.nmiLinePrev = asserted
}

// SetIRQLine reports the current OR of every IRQ source (mapper, APU
// frame counter, DMC). IRQ is level-sensitive: it is serviced whenever
// the line is held and I is clear, with no latching.
func (c *CPU) SetIRQLine(asserted bool) { c.irqLine = asserted }

// Jammed reports whether the CPU executed a JAM/KIL opcode and halted.
func (c *CPU) Jammed() bool { return c.jammed }

func (c *CPU) read(addr uint16) uint8 {
	c.Cycles++
	return c.bus.Read(addr)
}

func (c *CPU) write(addr uint16, v uint8) {
	c.Cycles++
	c.bus.Write(addr, v)
}

func (c *CPU) push(v uint8) {
	c.write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.read(stackBase + uint16(c.SP))
}

func (c *CPU) statusByte() uint8 {
	var s uint8
	if c.N {
		s |= 0x80
	}
	if c.V {
		s |= 0x40
	}
	s |= 0x20
	if c.D {
		s |= 0x08
	}
	if c.I {
		s |= 0x04
	}
	if c.Z {
		s |= 0x02
	}
	if c.C {
		s |= 0x01
	}
	return s
}

func (c *CPU) setStatusByte(s uint8) {
	c.N = s&0x80 != 0
	c.V = s&0x40 != 0
	c.D = s&0x08 != 0
	c.I = s&0x04 != 0
	c.Z = s&0x02 != 0
	c.C = s&0x01 != 0
}

func (c *CPU) enqueue(op microOp) { c.queue = append(c.queue, op) }

// Step advances the CPU by exactly one CPU cycle (not one master tick;
// the tick orchestrator calls this only on the cycles it hands to the
// CPU rather than a DMA unit). Each call consumes or produces exactly
// one bus access.
func (c *CPU) Step() {
	if c.jammed {
		c.read(c.PC)
		return
	}
	if len(c.queue) == 0 {
		c.enqueue(func(cc *CPU) { cc.fetchStep() })
	}
	op := c.queue[c.qi]
	c.qi++
	op(c)
	if c.qi >= len(c.queue) {
		c.queue = c.queue[:0]
		c.qi = 0
	}
}

// fetchStep is cycle 1 of the next instruction or interrupt sequence:
// interrupts are polled at instruction boundaries, NMI before IRQ.
func (c *CPU) fetchStep() {
	if c.nmiPending {
		c.nmiPending = false
		c.read(c.PC)
		c.beginInterrupt(intNMI, false)
		return
	}
	if c.irqLine && !c.I {
		c.read(c.PC)
		c.beginInterrupt(intIRQ, false)
		return
	}
	opcode := c.read(c.PC)
	c.PC++
	e := opcodeTable[opcode]
	if e.cat == catBRK {
		c.beginInterrupt(intBRK, true)
		return
	}
	c.beginOperand(e)
}

// beginInterrupt enqueues cycles 2-7 of the 7-cycle interrupt sequence.
// Cycle 1 (a dummy read of PC, or the BRK opcode fetch already performed
// by fetchStep) has already happened by the time this is called.
func (c *CPU) beginInterrupt(kind intKind, brk bool) {
	if brk {
		c.enqueue(func(cc *CPU) { cc.read(cc.PC); cc.PC++ })
	} else {
		c.enqueue(func(cc *CPU) { cc.read(cc.PC) })
	}
	c.enqueue(func(cc *CPU) { cc.push(uint8(cc.PC >> 8)) })
	c.enqueue(func(cc *CPU) { cc.push(uint8(cc.PC & 0xFF)) })
	c.enqueue(func(cc *CPU) {
		s := cc.statusByte()
		if brk {
			s |= 0x10
		} else {
			s &^= 0x10
		}
		cc.push(s)
	})
	var vector uint16
	var lo uint8
	c.enqueue(func(cc *CPU) {
		switch kind {
		case intNMI:
			vector = nmiVectAddr
		default: // intIRQ, intBRK: NMI may hijack the vector fetch here
			vector = irqVectAddr
			if cc.nmiPending {
				vector = nmiVectAddr
				cc.nmiPending = false
			}
		}
		lo = cc.read(vector)
	})
	c.enqueue(func(cc *CPU) {
		hi := cc.read(vector + 1)
		cc.PC = uint16(hi)<<8 | uint16(lo)
		cc.I = true
	})
}

// addrTail is invoked once an effective address has been resolved. baseHi
// is the un-indexed high byte of the address, which the unstable
// SHA/SHX/SHY/TAS stores combine with a register instead of the real
// (possibly carried) address.
type addrTail func(cc *CPU, ea uint16, baseHi uint8)

// beginOperand enqueues the remaining cycles of the opcode whose first
// byte fetchStep already consumed.
func (c *CPU) beginOperand(e opEntry) {
	switch e.cat {
	case catImplied, catAccumulator:
		c.enqueue(func(cc *CPU) {
			cc.read(cc.PC)
			e.impl(cc)
		})
	case catRead:
		if e.mode == Immediate {
			c.enqueue(func(cc *CPU) {
				v := cc.read(cc.PC)
				cc.PC++
				e.read(cc, v)
			})
			return
		}
		c.enqueueAddressed(e.mode, false, func(cc *CPU, ea uint16, _ uint8) {
			v := cc.read(ea)
			e.read(cc, v)
		})
	case catWrite:
		c.enqueueAddressed(e.mode, true, func(cc *CPU, ea uint16, _ uint8) {
			cc.write(ea, e.write(cc))
		})
	case catWriteHi:
		c.enqueueAddressed(e.mode, true, func(cc *CPU, ea uint16, baseHi uint8) {
			cc.write(ea, e.writeHi(cc, baseHi))
		})
	case catRMW:
		c.enqueueAddressed(e.mode, true, func(cc *CPU, ea uint16, _ uint8) {
			v := cc.read(ea)
			cc.enqueue(func(cc2 *CPU) { cc2.write(ea, v) })
			cc.enqueue(func(cc2 *CPU) { cc2.write(ea, e.rmw(cc2, v)) })
		})
	case catBranch:
		c.beginBranch(e)
	case catJMP:
		c.enqueue(func(cc *CPU) {
			lo := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				hi := cc2.read(cc2.PC)
				cc2.PC++
				cc2.PC = uint16(hi)<<8 | uint16(lo)
			})
		})
	case catJMPIndirect:
		c.enqueue(func(cc *CPU) {
			lo := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				hi := cc2.read(cc2.PC)
				cc2.PC++
				ptr := uint16(hi)<<8 | uint16(lo)
				cc2.enqueue(func(cc3 *CPU) {
					tlo := cc3.read(ptr)
					cc3.enqueue(func(cc4 *CPU) {
						// Page-wrap bug: the high-byte fetch never
						// carries into the pointer's high byte.
						hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
						thi := cc4.read(hiAddr)
						cc4.PC = uint16(thi)<<8 | uint16(tlo)
					})
				})
			})
		})
	case catJSR:
		c.enqueue(func(cc *CPU) {
			lo := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				cc2.read(stackBase + uint16(cc2.SP)) // internal stack peek
				cc2.enqueue(func(cc3 *CPU) { cc3.push(uint8(cc3.PC >> 8)) })
				cc2.enqueue(func(cc3 *CPU) { cc3.push(uint8(cc3.PC & 0xFF)) })
				cc2.enqueue(func(cc3 *CPU) {
					hi := cc3.read(cc3.PC)
					cc3.PC = uint16(hi)<<8 | uint16(lo)
				})
			})
		})
	case catRTS:
		c.enqueue(func(cc *CPU) { cc.read(cc.PC) })
		c.enqueue(func(cc *CPU) { cc.read(stackBase + uint16(cc.SP)) })
		c.enqueue(func(cc *CPU) {
			lo := cc.pop()
			cc.enqueue(func(cc2 *CPU) {
				hi := cc2.pop()
				cc2.PC = uint16(hi)<<8 | uint16(lo)
				cc2.enqueue(func(cc3 *CPU) { cc3.read(cc3.PC); cc3.PC++ })
			})
		})
	case catRTI:
		c.enqueue(func(cc *CPU) { cc.read(cc.PC) })
		c.enqueue(func(cc *CPU) { cc.read(stackBase + uint16(cc.SP)) })
		c.enqueue(func(cc *CPU) {
			cc.setStatusByte(cc.pop())
			cc.enqueue(func(cc2 *CPU) {
				lo := cc2.pop()
				cc2.enqueue(func(cc3 *CPU) {
					hi := cc3.pop()
					cc3.PC = uint16(hi)<<8 | uint16(lo)
				})
			})
		})
	case catPush:
		c.enqueue(func(cc *CPU) { cc.read(cc.PC) })
		c.enqueue(func(cc *CPU) {
			if e.mnemonic == "PHP" {
				cc.push(cc.statusByte() | 0x30)
			} else {
				cc.push(cc.A)
			}
		})
	case catPull:
		c.enqueue(func(cc *CPU) { cc.read(cc.PC) })
		c.enqueue(func(cc *CPU) { cc.read(stackBase + uint16(cc.SP)) })
		c.enqueue(func(cc *CPU) {
			v := cc.pop()
			if e.mnemonic == "PLP" {
				cc.setStatusByte(v)
			} else {
				cc.A = v
				cc.setZN(cc.A)
			}
		})
	case catJam:
		c.enqueue(func(cc *CPU) { opJAM(cc) })
	}
}

// enqueueAddressed resolves the effective address for one of the eight
// memory addressing modes and hands it to tail. alwaysExtra forces the
// indexed-addressing fixup cycle that read instructions only pay when
// the index addition actually crosses a page; write and read-modify-
// write instructions always pay it on real hardware.
func (c *CPU) enqueueAddressed(mode AddressingMode, alwaysExtra bool, tail addrTail) {
	switch mode {
	case ZeroPage:
		c.enqueue(func(cc *CPU) {
			addr := uint16(cc.read(cc.PC))
			cc.PC++
			cc.enqueue(func(cc2 *CPU) { tail(cc2, addr, 0) })
		})
	case ZeroPageX, ZeroPageY:
		c.enqueue(func(cc *CPU) {
			base := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				cc2.read(uint16(base))
				idx := cc2.X
				if mode == ZeroPageY {
					idx = cc2.Y
				}
				addr := uint16(base + idx)
				cc2.enqueue(func(cc3 *CPU) { tail(cc3, addr, 0) })
			})
		})
	case Absolute:
		c.enqueue(func(cc *CPU) {
			lo := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				hi := cc2.read(cc2.PC)
				cc2.PC++
				addr := uint16(hi)<<8 | uint16(lo)
				cc2.enqueue(func(cc3 *CPU) { tail(cc3, addr, hi) })
			})
		})
	case AbsoluteX, AbsoluteY:
		c.enqueue(func(cc *CPU) {
			lo := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				hi := cc2.read(cc2.PC)
				cc2.PC++
				idx := cc2.X
				if mode == AbsoluteY {
					idx = cc2.Y
				}
				sum := uint16(lo) + uint16(idx)
				crossed := sum > 0xFF
				addr := (uint16(hi)<<8 | uint16(lo)) + uint16(idx)
				uncorrected := uint16(hi)<<8 | (sum & 0xFF)
				if crossed || alwaysExtra {
					cc2.enqueue(func(cc3 *CPU) {
						cc3.read(uncorrected)
						cc3.enqueue(func(cc4 *CPU) { tail(cc4, addr, hi) })
					})
				} else {
					cc2.enqueue(func(cc3 *CPU) { tail(cc3, addr, hi) })
				}
			})
		})
	case IndexedIndirect:
		c.enqueue(func(cc *CPU) {
			zp := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				cc2.read(uint16(zp))
				ptr := zp + cc2.X
				cc2.enqueue(func(cc3 *CPU) {
					lo := cc3.read(uint16(ptr))
					cc3.enqueue(func(cc4 *CPU) {
						hi := cc4.read(uint16(ptr + 1))
						addr := uint16(hi)<<8 | uint16(lo)
						cc4.enqueue(func(cc5 *CPU) { tail(cc5, addr, hi) })
					})
				})
			})
		})
	case IndirectIndexed:
		c.enqueue(func(cc *CPU) {
			zp := cc.read(cc.PC)
			cc.PC++
			cc.enqueue(func(cc2 *CPU) {
				lo := cc2.read(uint16(zp))
				cc2.enqueue(func(cc3 *CPU) {
					hi := cc3.read(uint16(zp + 1))
					sum := uint16(lo) + uint16(cc3.Y)
					crossed := sum > 0xFF
					addr := (uint16(hi)<<8 | uint16(lo)) + uint16(cc3.Y)
					uncorrected := uint16(hi)<<8 | (sum & 0xFF)
					if crossed || alwaysExtra {
						cc3.enqueue(func(cc4 *CPU) {
							cc4.read(uncorrected)
							cc4.enqueue(func(cc5 *CPU) { tail(cc5, addr, hi) })
						})
					} else {
						cc3.enqueue(func(cc4 *CPU) { tail(cc4, addr, hi) })
					}
				})
			})
		})
	}
}

// beginBranch implements the three possible relative-branch cycle
// counts: 2 (not taken), 3 (taken, no page cross) or 4 (taken, page
// cross on the PC+offset addition).
func (c *CPU) beginBranch(e opEntry) {
	c.enqueue(func(cc *CPU) {
		offset := int8(cc.read(cc.PC))
		cc.PC++
		if !cc.branchTaken(e.mnemonic) {
			return
		}
		cc.enqueue(func(cc2 *CPU) {
			cc2.read(cc2.PC)
			oldPC := cc2.PC
			target := uint16(int32(oldPC) + int32(offset))
			cc2.PC = target
			if oldPC&0xFF00 != target&0xFF00 {
				cc2.enqueue(func(cc3 *CPU) { cc3.read(cc3.PC) })
			}
		})
	})
}

func (c *CPU) branchTaken(mnemonic string) bool {
	switch mnemonic {
	case "BPL":
		return !c.N
	case "BMI":
		return c.N
	case "BVC":
		return !c.V
	case "BVS":
		return c.V
	case "BCC":
		return !c.C
	case "BCS":
		return c.C
	case "BNE":
		return !c.Z
	case "BEQ":
		return c.Z
	}
	return false
}
