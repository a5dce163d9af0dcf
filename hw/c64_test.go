package hw

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"c64core/hw/cpu"
	"c64core/hw/iec"
	"c64core/hw/mem"
	"c64core/hw/snapshot"
	"c64core/hw/vic"
)

// spriteProg turns the screen on, enables sprite 0 on line $60 and loops.
var spriteProg = []byte{
	0xA9, 0x1B, // E000 LDA #$1B
	0x8D, 0x11, 0xD0, // E002 STA $D011
	0xA9, 0x01, // E005 LDA #$01
	0x8D, 0x15, 0xD0, // E007 STA $D015
	0xA9, 0x60, // E00A LDA #$60
	0x8D, 0x01, 0xD0, // E00C STA $D001
	0x4C, 0x0F, 0xE0, // E00F JMP $E00F
}

// nmiHandler increments $02.
var nmiHandler = []byte{
	0xE6, 0x02, // E0E0 INC $02
	0x40, // E0E2 RTI
}

// testROMs returns firmware images with prog at $E000. The NMI handler is at
// $E0E0 and the IRQ handler returns immediately.
func testROMs(prog []byte) mem.ROMs {
	kernal := make([]byte, mem.KernalSize)
	copy(kernal, prog)
	copy(kernal[0xE0:], nmiHandler)
	kernal[0xF0] = 0x40 // E0F0 RTI

	put16 := func(addr, val uint16) {
		kernal[addr-0xE000] = uint8(val)
		kernal[addr-0xE000+1] = uint8(val >> 8)
	}
	put16(cpu.NMIVector, 0xE0E0)
	put16(cpu.ResetVector, 0xE000)
	put16(cpu.IRQVector, 0xE0F0)

	return mem.ROMs{
		Basic:  make([]byte, mem.BasicSize),
		Kernal: kernal,
		Char:   make([]byte, mem.CharSize),
	}
}

type notes struct {
	list []Notification
}

func (n *notes) Notify(x Notification) {
	if x.Kind != NotifyFrameDone {
		n.list = append(n.list, x)
	}
}

func (n *notes) kinds() []NotificationKind {
	var kinds []NotificationKind
	for _, x := range n.list {
		kinds = append(kinds, x.Kind)
	}
	return kinds
}

func newTestC64(tb testing.TB, std vic.Standard, prog []byte) (*C64, *notes) {
	tb.Helper()
	c := New(Config{Standard: std, ROMs: testROMs(prog)})
	n := &notes{}
	c.SetNotifier(n)
	if err := c.PowerOn(); err != nil {
		tb.Fatalf("PowerOn() = %v", err)
	}
	return c, n
}

func runUntil(tb testing.TB, c *C64, limit int, cond func() bool) {
	tb.Helper()
	for range limit {
		c.ExecuteOneTick()
		if cond() {
			return
		}
	}
	tb.Fatalf("condition not reached after %d ticks", limit)
}

func TestPowerStates(t *testing.T) {
	roms := testROMs(spriteProg)
	roms.Char = nil
	c := New(Config{Standard: vic.PAL, ROMs: roms})
	if c.State() != Idle {
		t.Fatalf("State() = %s, want idle", c.State())
	}
	if err := c.PowerOn(); !errors.Is(err, mem.ErrMissingROM) {
		t.Fatalf("PowerOn() = %v, want ErrMissingROM", err)
	}
	if c.State() != Idle {
		t.Fatalf("State() = %s after failed power on, want idle", c.State())
	}

	c, _ = newTestC64(t, vic.PAL, spriteProg)
	if c.State() != Running {
		t.Fatalf("State() = %s, want running", c.State())
	}
	if err := c.PowerOn(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PowerOn() = %v, want ErrInvalidState", err)
	}
	if err := c.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resume() = %v, want ErrInvalidState", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}

	// Single step while paused.
	now := c.Clock.Now()
	c.ExecuteOneTick()
	if c.State() != Paused {
		t.Errorf("State() = %s after single tick, want paused", c.State())
	}
	if got := c.Clock.Now(); got != now+1 {
		t.Errorf("clock = %d after single tick, want %d", got, now+1)
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	c.ExecuteOneFrame()
	c.ExecuteOneFrame()
	c.Halt()
	if c.State() != Idle {
		t.Errorf("State() = %s after halt, want idle", c.State())
	}

	if err := c.PowerOn(); err != nil {
		t.Fatalf("PowerOn() after halt = %v", err)
	}
	if c.Line() != 0 || c.Cycle() != 1 {
		t.Errorf("raster %d:%d after power cycle, want 0:1", c.Line(), c.Cycle())
	}
	if c.Clock.Now() != 0 || c.Frame != 0 {
		t.Errorf("clock %d frame %d after power cycle, want 0 0", c.Clock.Now(), c.Frame)
	}
	for range vic.PAL.CyclesPerFrame() {
		c.ExecuteOneTick()
	}
	if c.Line() != 0 || c.Frame != 1 {
		t.Errorf("line %d frame %d one frame after power cycle, want 0 1", c.Line(), c.Frame)
	}
	c.PowerOff()
	if c.State() != Idle {
		t.Errorf("State() = %s after power off, want idle", c.State())
	}
}

func TestFramePeriod(t *testing.T) {
	for _, std := range []vic.Standard{vic.PAL, vic.NTSC} {
		t.Run(std.String(), func(t *testing.T) {
			c, _ := newTestC64(t, std, spriteProg)
			n := std.CyclesPerFrame()
			for i := range n {
				if c.Frame != 0 {
					t.Fatalf("frame completed after %d ticks, want %d", i, n)
				}
				c.ExecuteOneTick()
			}
			if c.Frame != 1 || c.Line() != 0 || c.Cycle() != 1 {
				t.Errorf("after %d ticks: frame %d line %d cycle %d, want 1 0 1", n, c.Frame, c.Line(), c.Cycle())
			}

			if r := c.ExecuteOneFrame(); r != StopNone {
				t.Fatalf("ExecuteOneFrame() = %s", r)
			}
			if got := c.Clock.Now(); got != 2*n {
				t.Errorf("clock = %d after two frames, want %d", got, 2*n)
			}
		})
	}
}

func TestScanline(t *testing.T) {
	c, _ := newTestC64(t, vic.NTSC, spriteProg)
	c.ExecuteOneScanline()
	c.ExecuteOneScanline()
	if c.Line() != 2 || c.Cycle() != 1 {
		t.Errorf("line %d cycle %d, want 2 1", c.Line(), c.Cycle())
	}
	if got := c.Clock.Now(); got != 2*65 {
		t.Errorf("clock = %d, want %d", got, 2*65)
	}
}

func TestBusStallGatesCPU(t *testing.T) {
	c, _ := newTestC64(t, vic.PAL, spriteProg)

	stalled := 0
	for range vic.PAL.CyclesPerFrame() {
		before := c.CPU.Cycles
		c.ExecuteOneTick()
		want := before + 1
		if c.BusStalled() {
			want = before
			stalled++
		}
		if c.CPU.Cycles != want {
			t.Fatalf("line %d cycle %d: CPU cycles = %d, want %d (stall %03X)",
				c.Line(), c.Cycle(), c.CPU.Cycles, want, c.VIC.BusStallMask())
		}
	}
	if stalled == 0 {
		t.Errorf("the CPU was never stalled during a frame with bad lines")
	}
}

func checkRoundTrip(t *testing.T, c *C64) {
	t.Helper()

	data, err := c.SaveSnapshot()
	if err != nil {
		t.Fatalf("SaveSnapshot() = %v", err)
	}
	var want snapshot.Machine
	c.SaveState(&want)

	c2, _ := newTestC64(t, c.Standard(), spriteProg)
	if err := c2.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot() = %v", err)
	}
	var got snapshot.Machine
	c2.SaveState(&got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch after load (-want +got):\n%s", diff)
	}

	// Both machines go on identically.
	for range 2000 {
		c.ExecuteOneTick()
		c2.ExecuteOneTick()
	}
	c.SaveState(&want)
	c2.SaveState(&got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("machines diverged (-want +got):\n%s", diff)
	}
}

func TestSnapshotMidBadLine(t *testing.T) {
	c, _ := newTestC64(t, vic.PAL, spriteProg)
	runUntil(t, c, 30000, func() bool { return c.Line() == 0x33 && c.Cycle() == 30 })
	if !c.VIC.BadLine() || !c.BusStalled() {
		t.Fatalf("line $33 cycle 30: bad line %t, stalled %t, want both", c.VIC.BadLine(), c.BusStalled())
	}
	checkRoundTrip(t, c)
}

func TestSnapshotMidSpriteDMA(t *testing.T) {
	c, _ := newTestC64(t, vic.PAL, spriteProg)
	runUntil(t, c, 30000, func() bool {
		return c.VIC.SpriteDMA()&1 != 0 && c.VIC.BusStallMask()&1 != 0
	})
	checkRoundTrip(t, c)
}

func TestSnapshotIntegrity(t *testing.T) {
	c, _ := newTestC64(t, vic.PAL, spriteProg)
	c.ExecuteOneFrame()
	data, err := c.SaveSnapshot()
	if err != nil {
		t.Fatalf("SaveSnapshot() = %v", err)
	}

	ntsc, _ := newTestC64(t, vic.NTSC, spriteProg)
	ntsc.ExecuteOneScanline()
	var before, after snapshot.Machine
	ntsc.SaveState(&before)
	if err := ntsc.LoadSnapshot(data); !errors.Is(err, snapshot.ErrSnapshotStandard) {
		t.Errorf("LoadSnapshot() = %v, want ErrSnapshotStandard", err)
	}
	ntsc.SaveState(&after)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("machine modified by failed load (-want +got):\n%s", diff)
	}

	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-2] ^= 0xFF
	if err := c.LoadSnapshot(corrupt); !errors.Is(err, snapshot.ErrSnapshotChecksum) {
		t.Errorf("LoadSnapshot(corrupt) = %v, want ErrSnapshotChecksum", err)
	}
}

func TestSetStandard(t *testing.T) {
	c, n := newTestC64(t, vic.PAL, spriteProg)
	c.ExecuteOneScanline()
	if err := c.SetStandard(vic.NTSC); !errors.Is(err, ErrStandardSwitch) {
		t.Fatalf("SetStandard() mid frame = %v, want ErrStandardSwitch", err)
	}

	c.ExecuteOneFrame()
	if err := c.SetStandard(vic.NTSC); err != nil {
		t.Fatalf("SetStandard() = %v", err)
	}
	if c.VIC.Standard() != vic.NTSC || c.State() != Running {
		t.Errorf("VIC standard %s, state %s, want NTSC running", c.VIC.Standard(), c.State())
	}
	if diff := cmp.Diff([]NotificationKind{NotifyStandard}, n.kinds()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}

	c.ExecuteOneFrame()
	if got, want := c.Clock.Now(), vic.PAL.CyclesPerFrame()+vic.NTSC.CyclesPerFrame(); got != want {
		t.Errorf("clock = %d, want %d", got, want)
	}
}

func TestCIA2PortA(t *testing.T) {
	c, _ := newTestC64(t, vic.PAL, spriteProg)

	c.Mem.Write8(0xDD02, 0x3F)
	c.Mem.Write8(0xDD00, 0x01)
	if got := c.Mem.VICBank(); got != 2 {
		t.Errorf("VICBank() = %d, want 2", got)
	}

	c.Mem.Write8(0xDD00, 0x08|0x03)
	if !c.IEC.High(iec.ATN) {
		t.Errorf("ATN pulled before the bus update")
	}
	c.ExecuteOneTick()
	if c.IEC.High(iec.ATN) {
		t.Errorf("ATN released, want pulled")
	}
	if got := c.Mem.VICBank(); got != 0 {
		t.Errorf("VICBank() = %d, want 0", got)
	}

	// Bits 6-7 read the CLK and DATA lines.
	if got := c.Mem.Read8(0xDD00) & 0xC0; got != 0xC0 {
		t.Errorf("CLK/DATA in = %02X, want C0", got)
	}
	c.Mem.Write8(0xDD00, 0x20)
	c.ExecuteOneTick()
	if got := c.Mem.Read8(0xDD00) & 0xC0; got != 0x40 {
		t.Errorf("CLK/DATA in = %02X, want 40", got)
	}
}
