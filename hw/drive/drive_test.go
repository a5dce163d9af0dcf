package drive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"c64core/hw/iec"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

const palHz = 985248

type diskEvent struct {
	ID       int
	Inserted bool
}

type harness struct {
	clock sched.Clock
	s     *sched.Scheduler
	bus   *iec.Bus
	d     *Drive

	host   iec.Line
	events []diskEvent
}

func (h *harness) DiskChanged(id int, inserted bool) {
	h.events = append(h.events, diskEvent{id, inserted})
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{}
	h.s = sched.New(&h.clock, sched.Diagnostics{})
	h.bus = iec.New(h.s, false)
	h.s.Register(sched.IEC, h.bus.HandleEvent)
	h.d = New(8, cfg, palHz, h.bus, h.s, h)
	h.s.Register(sched.DC8, h.d.HandleEvent)
	return h
}

func (h *harness) tick() {
	h.clock.Advance()
	if h.s.NextTrigger <= h.clock.Now() {
		h.s.ProcessDue(h.clock.Now())
	}
	h.d.Execute()
}

func (h *harness) run(n int) {
	for range n {
		h.tick()
	}
}

func (h *harness) hostPull(l iec.Line)    { h.host |= l; h.bus.SetHost(h.host) }
func (h *harness) hostRelease(l iec.Line) { h.host &^= l; h.bus.SetHost(h.host) }

var errTimeout = errors.New("timeout")

// waitData waits for the DATA line to reach the given level.
func (h *harness) waitData(high bool, maxCycles int) error {
	for range maxCycles {
		if h.bus.High(iec.DATA) == high {
			return nil
		}
		h.tick()
	}
	return errTimeout
}

// sendByte sends b the way the Kernal does. CLK must be held by the host.
func (h *harness) sendByte(t *testing.T, b uint8, eoi bool) {
	t.Helper()
	h.hostRelease(iec.CLK)
	if err := h.waitData(true, 2000); err != nil {
		t.Fatalf("byte %02X: listener not ready: %v", b, err)
	}
	if eoi {
		if err := h.waitData(false, 1000); err != nil {
			t.Fatalf("byte %02X: no EOI acknowledge: %v", b, err)
		}
		if err := h.waitData(true, 1000); err != nil {
			t.Fatalf("byte %02X: EOI acknowledge stuck: %v", b, err)
		}
	}
	h.hostPull(iec.CLK)
	h.run(20)
	for i := range 8 {
		if b&(1<<i) == 0 {
			h.hostPull(iec.DATA)
		}
		h.run(20)
		h.hostRelease(iec.CLK)
		h.run(20)
		h.hostPull(iec.CLK)
		h.hostRelease(iec.DATA)
	}
	h.run(2)
	if err := h.waitData(false, 1000); err != nil {
		t.Fatalf("byte %02X: not acknowledged: %v", b, err)
	}
}

func (h *harness) sendCommand(t *testing.T, cmds ...uint8) {
	t.Helper()
	h.hostPull(iec.ATN | iec.CLK)
	if err := h.waitData(false, 1000); err != nil {
		t.Fatalf("device not present: %v", err)
	}
	for _, c := range cmds {
		h.sendByte(t, c, false)
	}
	h.hostRelease(iec.ATN)
	h.run(50)
}

func (h *harness) sendData(t *testing.T, data string) {
	t.Helper()
	for i := range len(data) {
		h.sendByte(t, data[i], i == len(data)-1)
	}
}

func TestOpenFile(t *testing.T) {
	h := newHarness(t, Config{Connected: true})

	h.sendCommand(t, cmdListen|8, cmdOpen|0)
	h.sendData(t, "$")
	h.sendCommand(t, cmdUnlisten)
	h.hostRelease(iec.CLK)
	h.run(100)

	if got := h.d.Channel(0); got != "$" {
		t.Errorf("channel 0 = %q, want %q", got, "$")
	}
	if !h.d.Spinning() {
		t.Errorf("motor off after open")
	}
	if h.d.BusLines() != 0 {
		t.Errorf("drive still pulls %03b", h.d.BusLines())
	}
}

func TestCommandChannel(t *testing.T) {
	h := newHarness(t, Config{Connected: true})

	h.sendCommand(t, cmdListen|8, cmdData|15)
	h.sendData(t, "I0")
	h.sendCommand(t, cmdUnlisten)

	if got := h.d.Command(); got != "I0" {
		t.Errorf("command = %q, want %q", got, "I0")
	}
	if h.d.Spinning() {
		t.Errorf("motor on after command")
	}
}

func TestOtherDevice(t *testing.T) {
	h := newHarness(t, Config{Connected: true})

	// Every device acknowledges bytes under ATN.
	h.sendCommand(t, cmdListen|9, cmdOpen|2)
	if h.d.BusLines() != 0 {
		t.Errorf("drive pulls %03b after a command for another device", h.d.BusLines())
	}
	if h.d.ser.listening {
		t.Errorf("drive 8 listening to drive 9 commands")
	}
}

func TestNotPresent(t *testing.T) {
	h := newHarness(t, Config{})
	h.hostPull(iec.ATN | iec.CLK)
	if err := h.waitData(false, 2000); err == nil {
		t.Errorf("disconnected drive answered ATN")
	}
}

func TestVirtualTime(t *testing.T) {
	h := newHarness(t, Config{Connected: true})
	h.run(palHz)
	if h.d.Elapsed != ClockHz {
		t.Errorf("drive ran %d cycles in one second, want %d", h.d.Elapsed, ClockHz)
	}
}

func TestRotation(t *testing.T) {
	h := newHarness(t, Config{Connected: true})
	h.d.Seek(1)
	h.d.setMotor(true)

	// 52 sixteenths of µs per bit cell in zone 3.
	for range 13 {
		h.d.cycle()
	}
	if _, bit := h.d.Head(); bit != 4 {
		t.Errorf("head at bit %d, want 4", bit)
	}

	h.d.Seek(40)
	if trk, _ := h.d.Head(); trk != NumTracks {
		t.Errorf("head at track %d, want %d", trk, NumTracks)
	}

	// Idle motor stops.
	for range spinDown {
		h.d.cycle()
	}
	if h.d.Spinning() {
		t.Errorf("motor still on after %d idle cycles", spinDown)
	}
}

func blankDisk(t *testing.T, name string) *Disk {
	t.Helper()
	img := make([]byte, D64Size)
	d, err := ParseD64(img)
	if err != nil {
		t.Fatal(err)
	}
	bam, _ := d.Sector(18, 0)
	for i := range 16 {
		bam[0x90+i] = 0xA0
	}
	copy(bam[0x90:], name)
	return d
}

func TestParseD64(t *testing.T) {
	if _, err := ParseD64(make([]byte, 1000)); !errors.Is(err, ErrDiskFormat) {
		t.Errorf("ParseD64(1000 bytes) = %v, want ErrDiskFormat", err)
	}
	if _, err := ParseD64(make([]byte, d64SizeErrs)); err != nil {
		t.Errorf("ParseD64 with error bytes: %v", err)
	}

	d := blankDisk(t, "GAMES")
	if got := d.Name(); got != "GAMES" {
		t.Errorf("Name() = %q, want GAMES", got)
	}
	if _, err := d.Sector(18, 19); err == nil {
		t.Errorf("Sector(18, 19) succeeded, track 18 has 19 sectors")
	}
	if _, err := d.Sector(35, 16); err != nil {
		t.Errorf("Sector(35, 16): %v", err)
	}

	// Track 18 starts after 17 tracks of 21 sectors.
	s, _ := d.Sector(18, 0)
	s[0] = 0x12
	if got := d.Bytes()[17*21*SectorSize]; got != 0x12 {
		t.Errorf("image byte = %02X, want 12", got)
	}
}

func TestDiskChange(t *testing.T) {
	cfg := Config{Connected: true, EjectDelayMs: 1, SwapDelayMs: 2, InsertDelayMs: 3}
	h := newHarness(t, cfg)

	type step struct {
		Status Insertion
		WP     bool
		Tick   int64
	}
	var steps []step
	watch := func(n int) {
		prev := h.d.Insertion()
		for range n {
			h.tick()
			if st := h.d.Insertion(); st != prev {
				steps = append(steps, step{st, h.d.WriteProtected(), h.clock.Now()})
				prev = st
			}
		}
	}

	ms := int64(palHz / 1000)

	h.d.InsertDisk(blankDisk(t, "ONE"), true)
	watch(10000)
	want := []step{
		{PartiallyInserted, true, 1},
		{FullyInserted, true, 1 + 3*ms},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Fatalf("insert mismatch (-want +got):\n%s", diff)
	}

	steps = nil
	start := h.clock.Now()
	h.d.InsertDisk(blankDisk(t, "TWO"), false)
	h.d.InsertDisk(blankDisk(t, "THREE"), false) // ignored, a change is in progress
	watch(20000)
	want = []step{
		{PartiallyEjected, true, start + 1},
		{FullyEjected, false, start + 1 + ms},
		{PartiallyInserted, true, start + 1 + 3*ms},
		{FullyInserted, false, start + 1 + 6*ms},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Fatalf("swap mismatch (-want +got):\n%s", diff)
	}
	if got := h.d.Disk().Name(); got != "TWO" {
		t.Errorf("disk name = %q, want TWO", got)
	}

	h.d.EjectDisk()
	watch(10000)
	if h.d.Insertion() != FullyEjected || h.d.Disk() != nil {
		t.Errorf("disk not ejected: %s", h.d.Insertion())
	}

	wantEvents := []diskEvent{{8, true}, {8, false}, {8, true}, {8, false}}
	if diff := cmp.Diff(wantEvents, h.events); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadState(t *testing.T) {
	h1 := newHarness(t, Config{Connected: true})
	h1.d.InsertDisk(blankDisk(t, "SAVED"), false)
	h1.run(palHz * 2)
	h1.sendCommand(t, cmdListen|8, cmdOpen|2)
	h1.sendData(t, "FILE")

	var st snapshot.Drive
	h1.d.SaveState(&st)

	h2 := newHarness(t, Config{})
	if err := h2.d.LoadState(&st); err != nil {
		t.Fatal(err)
	}
	if got := h2.d.Disk().Name(); got != "SAVED" {
		t.Errorf("disk name = %q, want SAVED", got)
	}

	var st2 snapshot.Drive
	h2.d.SaveState(&st2)
	if diff := cmp.Diff(st, st2); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	st.Disk = st.Disk[:10]
	if err := h2.d.LoadState(&st); !errors.Is(err, ErrDiskFormat) {
		t.Errorf("LoadState with truncated disk = %v, want ErrDiskFormat", err)
	}
}
