package cia

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func (b *bench) setTime(hr, min, sec, tenth uint8) {
	b.cia.Write(TODHR, hr)
	b.cia.Write(TODMIN, min)
	b.cia.Write(TODSEC, sec)
	b.cia.Write(TOD10TH, tenth)
}

func (b *bench) readTime() [4]uint8 {
	return [4]uint8{
		b.cia.Read(TODHR),
		b.cia.Read(TODMIN),
		b.cia.Read(TODSEC),
		b.cia.Read(TOD10TH),
	}
}

// With a 1000 Hz master clock and 50 Hz input in 50 Hz mode, a tenth of a
// second lasts 100 cycles.
func (b *bench) advanceTenths(n int) {
	for range n {
		b.cia.AdvanceTOD(100)
	}
}

func TestTODCounting(t *testing.T) {
	b := newBench(t, Diagnostics{})
	b.tick()
	b.cia.Write(CRA, craTOD50)
	b.setTime(0x01, 0x00, 0x00, 0x00)

	b.advanceTenths(25)
	if diff := cmp.Diff([4]uint8{0x01, 0x00, 0x02, 0x05}, b.readTime()); diff != "" {
		t.Errorf("time mismatch (-want +got):\n%s", diff)
	}
}

func TestTOD60HzDivider(t *testing.T) {
	b := newBench(t, Diagnostics{})
	b.tick()
	b.setTime(0x01, 0x00, 0x00, 0x00)

	// 60 Hz mode on a 50 Hz input: a tenth needs 6 pulses of 20 cycles.
	b.cia.AdvanceTOD(119)
	if got := b.cia.Read(TOD10TH); got != 0 {
		t.Errorf("tenths after 119 cycles = %d, want 0", got)
	}
	b.cia.AdvanceTOD(1)
	if got := b.cia.Read(TOD10TH); got != 1 {
		t.Errorf("tenths after 120 cycles = %d, want 1", got)
	}
}

func TestTODRollover(t *testing.T) {
	tests := []struct {
		name string
		from [4]uint8
		want [4]uint8
	}{
		{"seconds", [4]uint8{0x01, 0x00, 0x09, 0x09}, [4]uint8{0x01, 0x00, 0x10, 0x00}},
		{"minutes", [4]uint8{0x01, 0x00, 0x59, 0x09}, [4]uint8{0x01, 0x01, 0x00, 0x00}},
		{"hours", [4]uint8{0x09, 0x59, 0x59, 0x09}, [4]uint8{0x10, 0x00, 0x00, 0x00}},
		{"AM to PM", [4]uint8{0x11, 0x59, 0x59, 0x09}, [4]uint8{0x92, 0x00, 0x00, 0x00}},
		{"12 PM to 1 PM", [4]uint8{0x92, 0x59, 0x59, 0x09}, [4]uint8{0x81, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBench(t, Diagnostics{})
			b.tick()
			b.cia.Write(CRA, craTOD50)

			// Writing 12 to the hours register flips AM/PM.
			hr := tt.from[0]
			if hr&0x1F == 0x12 {
				hr ^= 0x80
			}
			b.setTime(hr, tt.from[1], tt.from[2], tt.from[3])
			b.advanceTenths(1)
			if diff := cmp.Diff(tt.want, b.readTime()); diff != "" {
				t.Errorf("time mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTODReadLatch(t *testing.T) {
	b := newBench(t, Diagnostics{})
	b.tick()
	b.cia.Write(CRA, craTOD50)
	b.setTime(0x01, 0x00, 0x00, 0x00)

	if got := b.cia.Read(TODHR); got != 0x01 {
		t.Fatalf("hours = %02X, want 01", got)
	}
	b.advanceTenths(15)
	if got := b.cia.Read(TODSEC); got != 0x00 {
		t.Errorf("latched seconds = %02X, want 00", got)
	}
	if got := b.cia.Read(TOD10TH); got != 0x00 {
		t.Errorf("latched tenths = %02X, want 00", got)
	}
	if got := b.cia.Read(TODSEC); got != 0x01 {
		t.Errorf("seconds after unlatch = %02X, want 01", got)
	}
}

func TestTODWriteStops(t *testing.T) {
	b := newBench(t, Diagnostics{})
	b.tick()
	b.cia.Write(CRA, craTOD50)
	b.setTime(0x01, 0x00, 0x00, 0x00)
	b.advanceTenths(3)

	b.cia.Write(TODHR, 0x02)
	b.advanceTenths(10)
	if got := b.cia.Read(TODSEC); got != 0x00 {
		t.Errorf("clock advanced while stopped: seconds = %02X", got)
	}
	b.cia.Write(TOD10TH, 0)
	b.advanceTenths(10)
	if got := b.cia.Read(TODSEC); got != 0x01 {
		t.Errorf("seconds after restart = %02X, want 01", got)
	}
}

func TestTODAlarm(t *testing.T) {
	b := newBench(t, Diagnostics{})
	b.tick()
	b.cia.Write(CRA, craTOD50)
	b.cia.Write(ICR, 0x80|icrTOD)

	b.setTime(0x01, 0x00, 0x00, 0x00)
	b.cia.Write(CRB, crbAlarm)
	b.cia.Write(TOD10TH, 0x02)
	b.cia.Write(TODSEC, 0x01)
	b.cia.Write(TODMIN, 0x00)
	b.cia.Write(TODHR, 0x01)
	b.cia.Write(CRB, 0)

	b.advanceTenths(11)
	if got := b.cia.Peek(ICR); got != 0 {
		t.Fatalf("ICR = %02X before the alarm time", got)
	}
	b.advanceTenths(1)
	if b.irq.asserted {
		t.Fatalf("alarm raised before the next tick")
	}
	b.tick()
	if !b.irq.asserted {
		t.Fatalf("alarm not raised")
	}
	if got := b.cia.Read(ICR); got != icrIRQ|icrTOD {
		t.Errorf("ICR = %02X, want %02X", got, icrIRQ|icrTOD)
	}
}
