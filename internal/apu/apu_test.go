package apu

import "testing"

func TestChannelEnableGatesLengthCounters(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01) // enable pulse1 only
	a.WriteRegister(0x4003, 0x08) // pulse1 length load, starts its length counter

	if !a.IsChannelEnabled(0) {
		t.Fatal("pulse1 should be enabled")
	}
	if a.IsChannelEnabled(1) {
		t.Fatal("pulse2 should be disabled")
	}

	status := a.ReadStatus()
	if status&0x01 == 0 {
		t.Errorf("status bit0 (pulse1 length > 0) not set: %#02x", status)
	}
	if status&0x02 != 0 {
		t.Errorf("status bit1 (pulse2 length) should be clear: %#02x", status)
	}
}

func TestDisablingChannelClearsLengthCounter(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4003, 0x08)
	if a.ReadStatus()&0x01 == 0 {
		t.Fatal("pulse1 length counter should be running")
	}

	a.WriteRegister(0x4015, 0x00) // disable all channels
	if a.ReadStatus()&0x01 != 0 {
		t.Error("disabling pulse1 should force its length counter to 0")
	}
}

func TestReadStatusClearsFrameIRQFlag(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00) // 4-step mode, IRQ enabled (bit6 clear)

	// Run the frame counter through a full 4-step sequence to raise the IRQ.
	for i := 0; i < 30000; i++ {
		a.Step()
	}
	if !a.GetFrameIRQ() {
		t.Skip("frame IRQ not raised within budget; timing constants may differ")
	}

	status := a.ReadStatus()
	if status&0x40 == 0 {
		t.Fatal("status should report the frame IRQ before it is read")
	}
	if a.GetFrameIRQ() {
		t.Error("reading $4015 should clear the frame IRQ flag")
	}
}

func TestWriteFrameCounterFiveStepModeClearsIRQImmediately(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00)
	for i := 0; i < 30000; i++ {
		a.Step()
	}
	a.WriteRegister(0x4017, 0xC0) // 5-step mode, bit6 (IRQ inhibit) set
	if a.GetFrameIRQ() {
		t.Error("selecting 5-step mode with IRQ inhibit set should clear any pending frame IRQ")
	}
}

func TestPulseTimerLowHighCombineInto11Bits(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4002, 0xFF) // timer low
	a.WriteRegister(0x4003, 0x07) // timer high bits (3 bits) + length load
	if a.pulse1.timer != 0x7FF {
		t.Fatalf("pulse1 timer = %#03x, want 0x7FF", a.pulse1.timer)
	}
}

func TestGetChannelOutputZeroWhenDisabled(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x00)
	if out := a.GetChannelOutput(0); out != 0 {
		t.Errorf("disabled channel output = %d, want 0", out)
	}
}

func TestSampleRateRoundTrip(t *testing.T) {
	a := New()
	a.SetSampleRate(48000)
	if got := a.GetSampleRate(); got != 48000 {
		t.Errorf("GetSampleRate() = %d, want 48000", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x400B, 0x04)
	for i := 0; i < 5000; i++ {
		a.Step()
	}
	saved := a.Snapshot()

	other := New()
	other.Restore(saved)
	if other.ReadStatus() != a.ReadStatus() {
		t.Errorf("restored status = %#02x, want %#02x", other.ReadStatus(), a.ReadStatus())
	}
}

func TestDMCNeedsFetchAfterSampleStart(t *testing.T) {
	a := New()
	a.WriteRegister(0x4012, 0x00) // sample address $C000
	a.WriteRegister(0x4013, 0x01) // sample length
	a.WriteRegister(0x4015, 0x10) // enable DMC, starts the sample

	addr, ok := a.DMCNeedsFetch()
	if !ok {
		t.Fatal("DMC should request its first byte once enabled with a nonzero sample")
	}
	if addr != 0xC000 {
		t.Errorf("DMC fetch address = %#04x, want 0xC000", addr)
	}
}
