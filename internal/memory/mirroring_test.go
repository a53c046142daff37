package memory

import "testing"

type mockCHRCartridge struct {
	chr [0x2000]uint8
}

func (c *mockCHRCartridge) PPUReadCHR(address uint16) uint8     { return c.chr[address&0x1FFF] }
func (c *mockCHRCartridge) PPUWriteCHR(address uint16, v uint8) { c.chr[address&0x1FFF] = v }

type nametableMirrorTest struct {
	addr1 uint16
	addr2 uint16
	name  string
}

func TestPPUMemoryMirroring_Nametables(t *testing.T) {
	cart := &mockCHRCartridge{}

	mirrorModes := []struct {
		mode  MirrorMode
		name  string
		tests []nametableMirrorTest
	}{
		{
			mode: MirrorHorizontal,
			name: "Horizontal Mirroring",
			tests: []nametableMirrorTest{
				{0x2000, 0x2400, "NT0 and NT1"},
				{0x2800, 0x2C00, "NT2 and NT3"},
				{0x2100, 0x2500, "NT0 and NT1 offset"},
				{0x2900, 0x2D00, "NT2 and NT3 offset"},
			},
		},
		{
			mode: MirrorVertical,
			name: "Vertical Mirroring",
			tests: []nametableMirrorTest{
				{0x2000, 0x2800, "NT0 and NT2"},
				{0x2400, 0x2C00, "NT1 and NT3"},
				{0x2100, 0x2900, "NT0 and NT2 offset"},
				{0x2500, 0x2D00, "NT1 and NT3 offset"},
			},
		},
		{
			mode: MirrorSingleScreen0,
			name: "Single Screen 0",
			tests: []nametableMirrorTest{
				{0x2000, 0x2400, "All to screen 0"},
				{0x2000, 0x2800, "All to screen 0"},
				{0x2000, 0x2C00, "All to screen 0"},
				{0x2400, 0x2800, "All to screen 0"},
			},
		},
		{
			mode: MirrorSingleScreen1,
			name: "Single Screen 1",
			tests: []nametableMirrorTest{
				{0x2000, 0x2400, "All to screen 1"},
				{0x2000, 0x2800, "All to screen 1"},
				{0x2000, 0x2C00, "All to screen 1"},
				{0x2400, 0x2800, "All to screen 1"},
			},
		},
	}

	for _, mm := range mirrorModes {
		t.Run(mm.name, func(t *testing.T) {
			ppu := NewPPUMemory(cart, mm.mode)

			for _, test := range mm.tests {
				t.Run(test.name, func(t *testing.T) {
					value := uint8(0x55)
					ppu.Write(test.addr1, value)

					result1 := ppu.Read(test.addr1)
					result2 := ppu.Read(test.addr2)
					if result1 != value {
						t.Errorf("Read(%04X) = %02X, want %02X", test.addr1, result1, value)
					}
					if result2 != value {
						t.Errorf("Mirrored Read(%04X) = %02X, want %02X", test.addr2, result2, value)
					}

					newValue := uint8(0x77)
					ppu.Write(test.addr2, newValue)

					result1 = ppu.Read(test.addr1)
					result2 = ppu.Read(test.addr2)
					if result1 != newValue {
						t.Errorf("After mirror write: Read(%04X) = %02X, want %02X", test.addr1, result1, newValue)
					}
					if result2 != newValue {
						t.Errorf("After mirror write: Read(%04X) = %02X, want %02X", test.addr2, result2, newValue)
					}
				})
			}
		})
	}
}

func TestPPUMemoryMirroring_FourScreenIsIndependent(t *testing.T) {
	cart := &mockCHRCartridge{}
	ppu := NewPPUMemory(cart, MirrorFourScreen)

	ppu.Write(0x2000, 0x55)
	ppu.Write(0x2400, 0x77)

	if got := ppu.Read(0x2000); got != 0x55 {
		t.Fatalf("NT0 = %#02x, want 0x55", got)
	}
	if got := ppu.Read(0x2400); got != 0x77 {
		t.Fatalf("NT1 = %#02x, want 0x77 (four-screen nametables must be independent)", got)
	}
}

func TestPPUMemoryMirroring_NametableToMirror(t *testing.T) {
	cart := &mockCHRCartridge{}
	ppu := NewPPUMemory(cart, MirrorHorizontal)

	nametableMirrors := []struct {
		baseAddr   uint16
		mirrorAddr uint16
		name       string
	}{
		{0x2000, 0x3000, "Nametable 0 start"},
		{0x23FF, 0x33FF, "Nametable 0 end"},
		{0x2400, 0x3400, "Nametable 1 start"},
		{0x27FF, 0x37FF, "Nametable 1 end"},
		{0x2800, 0x3800, "Nametable 2 start"},
		{0x2BFF, 0x3BFF, "Nametable 2 end"},
		{0x2C00, 0x3C00, "Nametable 3 start"},
		{0x2EFF, 0x3EFF, "Nametable 3 end"},
	}

	for _, nm := range nametableMirrors {
		t.Run(nm.name, func(t *testing.T) {
			value := uint8(nm.baseAddr & 0xFF)
			ppu.Write(nm.baseAddr, value)

			result := ppu.Read(nm.mirrorAddr)
			if result != value {
				t.Errorf("Mirror read: Read(%04X) = %02X, want %02X", nm.mirrorAddr, result, value)
			}

			newValue := uint8(value + 1)
			ppu.Write(nm.mirrorAddr, newValue)

			result = ppu.Read(nm.baseAddr)
			if result != newValue {
				t.Errorf("After mirror write: Read(%04X) = %02X, want %02X", nm.baseAddr, result, newValue)
			}
		})
	}
}

func TestPPUMemoryMirroring_Palette(t *testing.T) {
	cart := &mockCHRCartridge{}
	ppu := NewPPUMemory(cart, MirrorHorizontal)

	paletteAddresses := []uint16{
		0x3F00, 0x3F01, 0x3F02, 0x3F03,
		0x3F10, 0x3F11, 0x3F12, 0x3F13,
		0x3F1F,
	}

	for _, baseAddr := range paletteAddresses {
		t.Run("Palette mirror", func(t *testing.T) {
			value := uint8(baseAddr & 0xFF)
			ppu.Write(baseAddr, value)

			for mirrorAddr := baseAddr + 0x20; mirrorAddr <= 0x3FFF; mirrorAddr += 0x20 {
				result := ppu.Read(mirrorAddr)
				if result != value {
					t.Errorf("Palette mirror: Read(%04X) = %02X, want %02X", mirrorAddr, result, value)
				}

				newValue := uint8(value + 1)
				ppu.Write(mirrorAddr, newValue)

				result = ppu.Read(baseAddr)
				if result != newValue {
					t.Errorf("After palette mirror write: Read(%04X) = %02X, want %02X", baseAddr, result, newValue)
				}

				ppu.Write(baseAddr, value)
			}
		})
	}
}

func TestPPUMemoryMirroring_PaletteBackgroundColors(t *testing.T) {
	cart := &mockCHRCartridge{}
	ppu := NewPPUMemory(cart, MirrorHorizontal)

	backgroundMirrors := []struct {
		bgAddr     uint16
		spriteAddr uint16
		name       string
	}{
		{0x3F00, 0x3F10, "Universal background color"},
		{0x3F04, 0x3F14, "Background palette 1 color 0"},
		{0x3F08, 0x3F18, "Background palette 2 color 0"},
		{0x3F0C, 0x3F1C, "Background palette 3 color 0"},
	}

	for _, bm := range backgroundMirrors {
		t.Run(bm.name, func(t *testing.T) {
			value := uint8(0x25)
			ppu.Write(bm.bgAddr, value)

			result := ppu.Read(bm.spriteAddr)
			if result != value {
				t.Errorf("Background mirror: Read(%04X) = %02X, want %02X", bm.spriteAddr, result, value)
			}

			newValue := uint8(0x36)
			ppu.Write(bm.spriteAddr, newValue)

			result = ppu.Read(bm.bgAddr)
			if result != newValue {
				t.Errorf("After sprite write: Read(%04X) = %02X, want %02X", bm.bgAddr, result, newValue)
			}
		})
	}
}
