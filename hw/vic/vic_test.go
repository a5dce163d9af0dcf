package vic

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"c64core/hw/snapshot"
)

type testMem struct {
	ram   [0x4000]uint8
	color [0x400]uint8
}

func (m *testMem) VICRead(addr uint16) uint8 { return m.ram[addr&0x3FFF] }
func (m *testMem) ColorRAM(off uint16) uint8 { return m.color[off&0x3FF] }

type testLine struct{ asserted bool }

func (l *testLine) SetLine(asserted bool) { l.asserted = asserted }

type testStall struct{ mask uint16 }

func (s *testStall) SetBusStall(mask uint16) { s.mask = mask }

type bench struct {
	mem   *testMem
	irq   *testLine
	stall *testStall
	vic   *VIC

	// next cycle to execute
	line, cycle int
}

func newBench(tb testing.TB, std Standard) *bench {
	tb.Helper()
	b := &bench{
		mem:   &testMem{},
		irq:   &testLine{},
		stall: &testStall{},
		cycle: 1,
	}
	b.vic = New(Config{Standard: std}, b.mem, b.irq, b.stall)
	return b
}

// step executes the next raster cycle and the end of line/frame hooks, the
// way the dispatch loop does.
func (b *bench) step() {
	b.vic.Execute(b.line, b.cycle)
	b.cycle++
	if b.cycle > b.vic.Standard().CyclesPerLine() {
		b.vic.EndScanline()
		b.cycle = 1
		b.line++
		if b.line == b.vic.Standard().LinesPerFrame() {
			b.vic.EndFrame()
			b.line = 0
		}
	}
}

// runTo executes cycles until (line, cycle) is the next one to execute.
func (b *bench) runTo(line, cycle int) {
	for b.line != line || b.cycle != cycle {
		b.step()
	}
}

func (b *bench) frame() {
	for range b.vic.Standard().CyclesPerFrame() {
		b.step()
	}
}

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestKindTablesTotal(t *testing.T) {
	for _, std := range []Standard{PAL, NTSC} {
		t.Run(std.String(), func(t *testing.T) {
			seen := make(map[CycleKind]int)
			for c := 1; c <= std.CyclesPerLine(); c++ {
				k := KindOf(std, c)
				if k == CycleInvalid {
					t.Fatalf("cycle %d has no procedure", c)
				}
				seen[k]++
			}
			if got := seen[CycleCanvas]; got != 36 {
				t.Errorf("canvas cycles = %d, want 36", got)
			}
			mustPanic(t, "cycle 0", func() { KindOf(std, 0) })
			mustPanic(t, "past line end", func() { KindOf(std, std.CyclesPerLine()+1) })
		})
	}

	if got := KindOf(NTSC, 65); got != Cycle65 {
		t.Errorf("NTSC cycle 65 = %s, want Cycle65", got)
	}
	if got := KindOf(PAL, 55); got != Cycle55 {
		t.Errorf("PAL cycle 55 = %s, want Cycle55", got)
	}
}

func TestBadLineCondition(t *testing.T) {
	tests := []struct {
		y       uint16
		yscroll uint8
		den30   bool
		want    bool
	}{
		{0x30, 0, true, true},
		{0x2F, 7, true, false},
		{0xF7, 7, true, true},
		{0xF8, 0, true, false},
		{0x33, 3, false, false},
		{0x34, 3, true, false},
		{0x133, 3, true, false},
	}
	for _, tt := range tests {
		if got := BadLineCondition(tt.y, tt.yscroll, tt.den30); got != tt.want {
			t.Errorf("BadLineCondition(%#x, %d, %t) = %t, want %t", tt.y, tt.yscroll, tt.den30, got, tt.want)
		}
	}
}

func TestBadLines(t *testing.T) {
	b := newBench(t, PAL)
	b.vic.Write(CTRL1, 0x1B)

	var lines []int
	stalled := 0
	for range PAL.CyclesPerFrame() {
		line, cycle := b.line, b.cycle
		b.step()
		if cycle == 20 && b.vic.BadLine() {
			lines = append(lines, line)
		}
		if line == 0x33 && b.vic.BusStallMask()&stallMask != 0 {
			stalled++
		}
	}

	var want []int
	for y := 0x33; y <= 0xF7; y += 8 {
		want = append(want, y)
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("bad lines mismatch (-want +got):\n%s", diff)
	}
	if stalled != 43 {
		t.Errorf("stalled cycles on a bad line = %d, want 43", stalled)
	}
}

func TestNoBadLinesWithoutDEN(t *testing.T) {
	b := newBench(t, PAL)
	b.vic.Write(CTRL1, 0x0B)
	for range PAL.CyclesPerFrame() {
		b.step()
		if b.vic.BadLine() {
			t.Fatalf("bad line %d with display disabled", b.line)
		}
	}
}

type toggle struct {
	Line  int
	Value bool
}

func TestBorderFlipFlops(t *testing.T) {
	tests := []struct {
		name         string
		ctrl1, ctrl2 uint8
		top, bottom  int
	}{
		{"25 rows 40 columns", 0x1B, 0x08, 51, 251},
		{"24 rows 38 columns", 0x13, 0x00, 55, 247},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBench(t, PAL)
			b.vic.Write(CTRL1, tt.ctrl1)
			b.vic.Write(CTRL2, tt.ctrl2)

			var vertical []toggle
			mainToggles := make(map[int]int)
			prevV, prevM := b.vic.VerticalFF(), b.vic.MainFF()
			for range PAL.CyclesPerFrame() {
				line := b.line
				b.step()
				if v := b.vic.VerticalFF(); v != prevV {
					vertical = append(vertical, toggle{line, v})
					prevV = v
				}
				if m := b.vic.MainFF(); m != prevM {
					mainToggles[line]++
					prevM = m
				}
			}

			wantV := []toggle{{tt.top, false}, {tt.bottom, true}}
			if diff := cmp.Diff(wantV, vertical); diff != "" {
				t.Errorf("vertical flip-flop mismatch (-want +got):\n%s", diff)
			}
			wantM := make(map[int]int)
			for y := tt.top; y < tt.bottom; y++ {
				wantM[y] = 2
			}
			if diff := cmp.Diff(wantM, mainToggles); diff != "" {
				t.Errorf("main flip-flop mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRasterIRQ(t *testing.T) {
	tests := []struct {
		std                 Standard
		raster              uint16
		wantLine, wantCycle int
	}{
		{PAL, 100, 100, 1},
		{PAL, 0, 0, 2},
		{PAL, 300, 300, 1},
		{NTSC, 0, 0, 2},
		{NTSC, 200, 200, 1},
	}
	for _, tt := range tests {
		b := newBench(t, tt.std)
		b.vic.Write(IMR, irqRaster)
		b.vic.Write(RASTER, uint8(tt.raster))
		b.vic.Write(CTRL1, 0x1B|uint8(tt.raster>>8)<<7)

		gotLine, gotCycle := -1, -1
		for range tt.std.CyclesPerFrame() {
			line, cycle := b.line, b.cycle
			b.step()
			if b.irq.asserted {
				gotLine, gotCycle = line, cycle
				break
			}
		}
		if gotLine != tt.wantLine || gotCycle != tt.wantCycle {
			t.Errorf("%s raster %d: irq at line %d cycle %d, want line %d cycle %d",
				tt.std, tt.raster, gotLine, gotCycle, tt.wantLine, tt.wantCycle)
		}
	}
}

func TestRasterIRQAcknowledge(t *testing.T) {
	b := newBench(t, PAL)
	b.vic.Write(IMR, irqRaster)
	b.vic.Write(RASTER, 100)
	b.runTo(100, 2)
	if !b.irq.asserted {
		t.Fatal("raster interrupt not raised")
	}
	if got := b.vic.Read(IRR); got != 0xF1 {
		t.Errorf("IRR = %02X, want F1", got)
	}

	b.vic.Write(IRR, irqRaster)
	if !b.irq.asserted {
		t.Errorf("line released before the next cycle")
	}
	b.step()
	if b.irq.asserted {
		t.Errorf("line still asserted after acknowledge")
	}
	if got := b.vic.Peek(IRR); got != 0x70 {
		t.Errorf("IRR = %02X, want 70", got)
	}
}

func TestSpriteDMALines(t *testing.T) {
	b := newBench(t, PAL)
	b.vic.Write(SPREN, 0x01)
	b.vic.Write(SPR0X+1, 100)

	var lines []int
	for range PAL.CyclesPerFrame() {
		line := b.line
		b.step()
		if b.vic.BusStallMask()&0x01 != 0 && (len(lines) == 0 || lines[len(lines)-1] != line) {
			lines = append(lines, line)
		}
	}

	var want []int
	for y := 100; y <= 120; y++ {
		want = append(want, y)
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("sprite DMA lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSpriteBusWindow(t *testing.T) {
	tests := []struct {
		std  Standard
		want []int
	}{
		{PAL, []int{55, 56, 57, 58, 59}},
		{NTSC, []int{56, 57, 58, 59, 60}},
	}
	for _, tt := range tests {
		t.Run(tt.std.String(), func(t *testing.T) {
			b := newBench(t, tt.std)
			b.vic.Write(SPREN, 0x01)
			b.vic.Write(SPR0X+1, 100)
			b.runTo(100, 1)

			var cycles []int
			for b.line == 100 {
				cycle := b.cycle
				b.step()
				if b.stall.mask&0x01 != 0 {
					cycles = append(cycles, cycle)
				}
			}
			if diff := cmp.Diff(tt.want, cycles); diff != "" {
				t.Errorf("BA window mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// setupSprites places sprites 0 and 1 on top of each other, with solid
// data at $2000.
func setupSprites(b *bench) {
	b.vic.Write(MEMPTR, 0x14)
	b.mem.ram[0x7F8] = 0x80
	b.mem.ram[0x7F9] = 0x80
	for i := range 63 {
		b.mem.ram[0x2000+i] = 0xFF
	}
	b.vic.Write(SPREN, 0x03)
	b.vic.Write(SPR0X, 100)
	b.vic.Write(SPR0X+1, 60)
	b.vic.Write(SPR0X+2, 100)
	b.vic.Write(SPR0X+3, 60)
}

func TestSpriteSpriteCollision(t *testing.T) {
	b := newBench(t, PAL)
	setupSprites(b)
	b.vic.Write(IMR, irqSprSpr)
	b.frame()

	if got := b.vic.Peek(SSCOLL); got != 0x03 {
		t.Errorf("sprite-sprite collisions = %02X, want 03", got)
	}
	if got := b.vic.Peek(SBCOLL); got != 0x00 {
		t.Errorf("sprite-background collisions = %02X, want 00", got)
	}
	if !b.irq.asserted {
		t.Errorf("collision interrupt not raised")
	}

	if got := b.vic.Read(SSCOLL); got != 0x03 {
		t.Errorf("read = %02X, want 03", got)
	}
	b.step()
	if got := b.vic.Peek(SSCOLL); got != 0x00 {
		t.Errorf("register not cleared by read: %02X", got)
	}
}

func TestSpriteBackgroundCollision(t *testing.T) {
	b := newBench(t, PAL)
	setupSprites(b)
	b.vic.Write(CTRL1, 0x1B)
	b.vic.Write(CTRL2, 0x08)
	for i := range 8 {
		b.mem.ram[0x1000+i] = 0xFF
	}
	b.frame()

	if got := b.vic.Peek(SBCOLL); got != 0x03 {
		t.Errorf("sprite-background collisions = %02X, want 03", got)
	}
	if got := b.vic.Peek(IRR) & irqSprBg; got == 0 {
		t.Errorf("sprite-background interrupt source not latched")
	}
}

func TestCanvasPixels(t *testing.T) {
	b := newBench(t, PAL)
	b.vic.Write(CTRL1, 0x1B)
	b.vic.Write(CTRL2, 0x08)
	b.vic.Write(MEMPTR, 0x14)
	b.vic.Write(BORDER, 14)
	b.vic.Write(BG0, 6)
	b.mem.ram[0x400] = 1
	b.mem.color[0] = 1
	for i := range 8 {
		b.mem.ram[0x1008+i] = 0xFF
	}
	b.frame()

	w := FrameWidth(PAL)
	f := b.vic.Frame()
	pix := func(y, x int) uint8 { return f[y*w+x] }

	for x := 136; x < 144; x++ {
		if got := pix(51, x); got != 1 {
			t.Errorf("pixel (%d,51) = %d, want 1", x, got)
		}
	}
	if got := pix(51, 144); got != 6 {
		t.Errorf("background pixel = %d, want 6", got)
	}
	if got := pix(51, 128); got != 14 {
		t.Errorf("left border pixel = %d, want 14", got)
	}
	if got := pix(50, 136); got != 14 {
		t.Errorf("top border pixel = %d, want 14", got)
	}
}

func TestLightPen(t *testing.T) {
	b := newBench(t, PAL)
	b.runTo(100, 31)
	b.vic.SetLightPen(true)

	if got := b.vic.Peek(LPY); got != 100 {
		t.Errorf("LPY = %d, want 100", got)
	}
	if got := b.vic.Peek(LPX); got != 66 {
		t.Errorf("LPX = %d, want 66", got)
	}
	if got := b.vic.Peek(IRR) & irqLP; got == 0 {
		t.Errorf("light pen interrupt source not latched")
	}

	// Only one trigger per frame.
	b.vic.SetLightPen(false)
	b.runTo(120, 1)
	b.vic.SetLightPen(true)
	if got := b.vic.Peek(LPY); got != 100 {
		t.Errorf("LPY after second trigger = %d, want 100", got)
	}
}

func TestRegisterReads(t *testing.T) {
	tests := []struct {
		name string
		off  uint16
		val  uint8
		want uint8
	}{
		{"control 2", CTRL2, 0x08, 0xC8},
		{"memory pointers", MEMPTR, 0x14, 0x15},
		{"interrupt mask", IMR, 0x01, 0xF1},
		{"border color", BORDER, 0x0E, 0xFE},
		{"sprite X MSB", MSBX, 0xA5, 0xA5},
		{"unused", 0x2F, 0x12, 0xFF},
		{"unused last", 0x3F, 0x12, 0xFF},
		{"mirror", 0x40 + BORDER, 0x03, 0xF3},
	}
	for _, tt := range tests {
		b := newBench(t, PAL)
		b.vic.Write(tt.off, tt.val)
		if got := b.vic.Peek(tt.off); got != tt.want {
			t.Errorf("%s: read %02X, want %02X", tt.name, got, tt.want)
		}
	}

	b := newBench(t, PAL)
	if got := b.vic.Peek(IRR); got != 0x70 {
		t.Errorf("IRR at power-on = %02X, want 70", got)
	}
}

func TestSaveLoadState(t *testing.T) {
	a := newBench(t, PAL)
	setupSprites(a)
	a.vic.Write(SPR0X+1, 0x30)
	a.vic.Write(CTRL1, 0x1B)
	a.vic.Write(IMR, irqRaster|irqSprSpr)
	a.vic.Write(RASTER, 0x40)
	a.runTo(0x33, 30)
	if !a.vic.BadLine() || a.vic.SpriteDMA() == 0 {
		t.Fatalf("not in a bad line with sprite DMA")
	}

	var st snapshot.VIC
	a.vic.SaveState(&st)

	b := newBench(t, PAL)
	b.mem = a.mem
	b.vic.mem = a.mem
	b.vic.LoadState(&st)
	b.line, b.cycle = a.line, a.cycle

	var st2 snapshot.VIC
	b.vic.SaveState(&st2)
	if diff := cmp.Diff(st, st2); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}
	if b.stall.mask != a.stall.mask || b.irq.asserted != a.irq.asserted {
		t.Errorf("outputs not restored")
	}

	for range 2 {
		a.frame()
		b.frame()
	}
	a.vic.SaveState(&st)
	b.vic.SaveState(&st2)
	if diff := cmp.Diff(st, st2); diff != "" {
		t.Errorf("state diverged (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.vic.Frame(), b.vic.Frame()); diff != "" {
		t.Errorf("frames diverged (-a +b):\n%s", diff)
	}
}

func TestNTSCFrame(t *testing.T) {
	b := newBench(t, NTSC)
	setupSprites(b)
	b.vic.Write(CTRL1, 0x1B)
	b.frame()
	if b.line != 0 || b.cycle != 1 {
		t.Fatalf("frame ended at line %d cycle %d", b.line, b.cycle)
	}
	if got := b.vic.Peek(SSCOLL); got != 0x03 {
		t.Errorf("sprite-sprite collisions = %02X, want 03", got)
	}
}
