package cpu

// Variant names the die revision that parameterizes the unstable unofficial
// opcodes (LXA, XAA/ANE, SHA, SHX, SHY, LAS, ANC). Real silicon differs
// across Ricoh 2A03/2A07 batches; NTSC and PAL consoles both shipped the
// revision whose magic constants are given below.
type Variant struct {
	Name string

	LXAMagic   uint8
	XAAMagic   uint8
	SHAAndMask uint8
	SHXAndMask uint8
	SHYAndMask uint8
	LASAndMask uint8
	ANEAndMask uint8
	ANCAndMask uint8
}

// VariantNTSC is the rp2a03g revision used by NTSC consoles.
var VariantNTSC = Variant{
	Name:       "rp2a03g",
	LXAMagic:   0xEE,
	XAAMagic:   0x00,
	SHAAndMask: 0xFF,
	SHXAndMask: 0xFF,
	SHYAndMask: 0xFF,
	LASAndMask: 0xFF,
	ANEAndMask: 0xEF,
	ANCAndMask: 0xFF,
}

// VariantPAL is the rp2a07 revision used by PAL consoles. The magic
// constants happen to match VariantNTSC's for every unstable opcode the
// core implements, but the two are kept as distinct named values since
// nothing about the model guarantees they must agree.
var VariantPAL = Variant{
	Name:       "rp2a07",
	LXAMagic:   0xEE,
	XAAMagic:   0x00,
	SHAAndMask: 0xFF,
	SHXAndMask: 0xFF,
	SHYAndMask: 0xFF,
	LASAndMask: 0xFF,
	ANEAndMask: 0xEF,
	ANCAndMask: 0xFF,
}
