// Package vic emulates the MOS 6569 (PAL) and 6567 (NTSC) video chips.
//
// The chip is driven one master clock cycle at a time. Every cycle of a
// scanline maps to a CycleKind through a per-standard table, and a single
// state-machine function per video standard performs the memory accesses,
// flip-flop updates and drawing of that cycle. Effects that real hardware
// applies with a delay go through a small typed action pipeline processed at
// the end of each cycle.
package vic

import (
	"fmt"

	"c64core/emu/log"
)

// Standard is the video standard of the machine.
type Standard uint8

const (
	PAL Standard = iota
	NTSC
)

func (s Standard) String() string {
	switch s {
	case PAL:
		return "PAL"
	case NTSC:
		return "NTSC"
	}
	return fmt.Sprintf("Standard(%d)", s)
}

// CyclesPerLine returns the number of master clock cycles per scanline.
func (s Standard) CyclesPerLine() int {
	if s == NTSC {
		return 65
	}
	return 63
}

// LinesPerFrame returns the number of scanlines per frame.
func (s Standard) LinesPerFrame() int {
	if s == NTSC {
		return 263
	}
	return 312
}

// ClockHz returns the master clock frequency.
func (s Standard) ClockHz() int64 {
	if s == NTSC {
		return 1022727
	}
	return 985248
}

// PowerHz returns the power line frequency feeding the TOD clocks.
func (s Standard) PowerHz() int64 {
	if s == NTSC {
		return 60
	}
	return 50
}

// CyclesPerFrame returns the number of master clock cycles per frame.
func (s Standard) CyclesPerFrame() int64 {
	return int64(s.CyclesPerLine() * s.LinesPerFrame())
}

// Memory is the view of the address space seen by the video chip.
type Memory interface {
	// VICRead reads from the 16K bank currently selected by CIA2.
	VICRead(addr uint16) uint8
	// ColorRAM returns the color nibble at off (0x000-0x3FF).
	ColorRAM(off uint16) uint8
}

// IRQLine is the interrupt output of the chip.
type IRQLine interface {
	SetLine(asserted bool)
}

// BusStall is the BA output of the chip. Bits 0-7 are set while sprite n
// DMA is claiming the bus, bit 8 during bad lines.
type BusStall interface {
	SetBusStall(mask uint16)
}

type Diagnostics struct {
	TraceIRQ  bool // log interrupt sources
	TraceRegs bool // log register writes
	NoSprites bool // don't draw sprites
}

type Config struct {
	Standard Standard
	Diag     Diagnostics
}

// Comparison values of the border flip-flops.
const (
	top24     = 55
	bottom24  = 247
	top25     = 51
	bottom25  = 251
	left38    = 31
	right38   = 335
	left40    = 24
	right40   = 344
	firstDMA  = 0x30
	lastDMA   = 0xF7
	stallMask = 0x100
)

// Control register bits
const (
	ctrl1YScroll = 0x07
	ctrl1RSEL    = 0x08
	ctrl1DEN     = 0x10
	ctrl1BMM     = 0x20
	ctrl1ECM     = 0x40
	ctrl1RST8    = 0x80
	ctrl2XScroll = 0x07
	ctrl2CSEL    = 0x08
	ctrl2MCM     = 0x10
)

// Interrupt sources
const (
	irqRaster = 0x01
	irqSprBg  = 0x02
	irqSprSpr = 0x04
	irqLP     = 0x08
)

// Color register indices (from $D020).
const (
	colBorder = 0
	colBG0    = 1
	colMM0    = 5
	colMM1    = 6
	colSpr0   = 7
)

type registers struct {
	SprX       [8]uint16
	SprY       [8]uint8
	Ctrl1      uint8
	Ctrl2      uint8
	MemPtr     uint8
	RasterCmp  uint16
	SprEnable  uint8
	SprExpandY uint8
	SprExpandX uint8
	SprPrio    uint8
	SprMC      uint8
	Colors     [15]uint8
}

type sprite struct {
	Ptr     uint16 // data pointer fetched by the p-access
	MC      uint8  // data counter
	MCBase  uint8
	Data    uint32 // 24-bit shift register
	Chunks  [3]uint8
	ExpFlop bool // horizontal expansion
	MCFlop  bool // multicolor pixel pair
	ColBits uint8
	Left    uint8 // pixels left to shift out
}

// shifter is the graphics shift register and the character/color data
// latched with it.
type shifter struct {
	Data      uint8
	Chr       uint8
	Col       uint8
	CanLoad   bool
	MCFlop    bool
	ColorBits uint8
}

// gData is the result of a g-access.
type gData struct {
	Data uint8
	Chr  uint8
	Col  uint8
}

type VIC struct {
	cfg   Config
	mem   Memory
	irq   IRQLine
	stall BusStall

	kinds   []CycleKind
	baTable []uint8 // sprite DMA bus claim per cycle

	reg registers

	line  int // scanline being executed
	cycle int // raster cycle being executed

	xCounter    uint16
	yCounter    uint16
	irr, imr    uint8
	irqLine     bool
	rasterMatch bool

	vc, vcBase   uint16
	rc, vmli     uint8
	displayState bool
	badLine      bool
	den30        bool // DEN was set at some point in line $30
	refresh      uint8

	mainFF, verticalFF bool

	busStall   uint16
	baLowSince int64
	cycles     int64

	matrix    [40]uint8
	colorLine [40]uint8
	gpipe     [2]gData
	gnow      gData
	sr        shifter

	spr           [8]sprite
	spriteDMA     uint8
	spriteDisplay uint8
	expansionFF   uint8
	spriteActive  uint8
	spriteArmed   uint8
	sprSprColl    uint8
	sprBgColl     uint8

	lpLine      bool
	lpTriggered bool
	lpx, lpy    uint8

	delay actionPipe

	// pixel pipeline of the cycle being drawn
	pixFg  [8]bool
	pixCol [8]uint8

	front, back []uint8
}

func New(cfg Config, mem Memory, irq IRQLine, stall BusStall) *VIC {
	v := &VIC{
		cfg:     cfg,
		mem:     mem,
		irq:     irq,
		stall:   stall,
		kinds:   kindTables[cfg.Standard],
		baTable: spriteBATables[cfg.Standard],
	}
	size := FrameWidth(cfg.Standard) * cfg.Standard.LinesPerFrame()
	v.front = make([]uint8, size)
	v.back = make([]uint8, size)
	v.Reset()
	return v
}

// Reset puts the chip in its power-on state.
func (v *VIC) Reset() {
	v.reg = registers{}
	v.line, v.cycle = 0, 1
	v.xCounter = 0
	v.yCounter = uint16(v.cfg.Standard.LinesPerFrame() - 1)
	v.irr, v.imr = 0, 0
	v.rasterMatch = false
	v.vc, v.vcBase, v.rc, v.vmli = 0, 0, 0, 0
	v.displayState, v.badLine, v.den30 = false, false, false
	v.refresh = 0xFF
	v.mainFF, v.verticalFF = true, true
	v.baLowSince, v.cycles = 0, 0
	v.matrix, v.colorLine = [40]uint8{}, [40]uint8{}
	v.gpipe = [2]gData{}
	v.sr = shifter{}
	v.spr = [8]sprite{}
	v.spriteDMA, v.spriteDisplay, v.expansionFF = 0, 0, 0xFF
	v.spriteActive, v.spriteArmed = 0, 0
	v.sprSprColl, v.sprBgColl = 0, 0
	v.lpLine, v.lpTriggered = false, false
	v.lpx, v.lpy = 0, 0
	v.delay = actionPipe{}
	v.setBusStall(0)
	if v.irqLine {
		v.irqLine = false
		v.irq.SetLine(false)
	}
	clear(v.front)
	clear(v.back)
}

func (v *VIC) Standard() Standard { return v.cfg.Standard }

// FrameWidth returns the width in pixels of the frame buffer. Frames hold 8
// pixels per cycle for every scanline, blanked areas included.
func FrameWidth(std Standard) int { return std.CyclesPerLine() * 8 }

// Frame returns the last completed frame, one palette index per pixel. The
// slice is only valid until the next frame completes.
func (v *VIC) Frame() []uint8 { return v.front }

func (v *VIC) YCounter() uint16     { return v.yCounter }
func (v *VIC) XCounter() uint16     { return v.xCounter }
func (v *VIC) BadLine() bool        { return v.badLine }
func (v *VIC) DisplayState() bool   { return v.displayState }
func (v *VIC) MainFF() bool         { return v.mainFF }
func (v *VIC) VerticalFF() bool     { return v.verticalFF }
func (v *VIC) BusStallMask() uint16 { return v.busStall }
func (v *VIC) IRQ() bool            { return v.irqLine }
func (v *VIC) SpriteDMA() uint8     { return v.spriteDMA }

// Execute runs raster cycle cycle (1-based) of scanline line.
func (v *VIC) Execute(line, cycle int) {
	v.line, v.cycle = line, cycle
	kind := v.kindOf(cycle)
	switch v.cfg.Standard {
	case PAL:
		v.runPAL(kind)
	case NTSC:
		v.runNTSC(kind)
	}
	v.cycles++
}

// EndScanline is called after the last cycle of every scanline. The
// vertical border flip-flop is updated in the last cycle of every line.
func (v *VIC) EndScanline() {
	v.checkVertical()
}

// EndFrame is called after the last scanline of every frame.
func (v *VIC) EndFrame() {
	v.front, v.back = v.back, v.front
}

func (v *VIC) setBusStall(mask uint16) {
	if mask != 0 && v.busStall == 0 {
		v.baLowSince = v.cycles
	}
	if mask != v.busStall {
		v.busStall = mask
		v.stall.SetBusStall(mask)
	}
}

// baLowFor3 reports whether BA has been low for at least 3 cycles, the
// condition for the chip to own the bus during the second clock phase.
func (v *VIC) baLowFor3() bool {
	return v.busStall != 0 && v.cycles-v.baLowSince >= 3
}

// updateBA drives BA for the current cycle. canvas is true in the cycles
// where a bad line claims the bus.
func (v *VIC) updateBA(canvas bool) {
	mask := uint16(v.baTable[v.cycle] & v.spriteDMA)
	if canvas && v.badLine {
		mask |= stallMask
	}
	v.setBusStall(mask)
}

func (v *VIC) triggerIRQ(source uint8) {
	if v.irr&source == 0 && v.cfg.Diag.TraceIRQ {
		log.ModVIC.DebugZ("irq").
			Hex8("source", source).
			Int("line", v.line).
			Int("cycle", v.cycle).
			End()
	}
	v.irr |= source
	v.delay.push(action{UpdateIRQ: true})
}

func (v *VIC) updateIRQLine() {
	asserted := v.irr&v.imr != 0
	if asserted != v.irqLine {
		v.irqLine = asserted
		v.irq.SetLine(asserted)
	}
}

// SetLightPen drives the light pen input. The input is active low: a
// negative edge latches the beam position, once per frame.
func (v *VIC) SetLightPen(pressed bool) {
	if pressed && !v.lpLine && !v.lpTriggered {
		v.lpx = uint8((v.xCounter + 4) >> 1)
		v.lpy = uint8(v.yCounter)
		v.lpTriggered = true
		v.triggerIRQ(irqLP)
	}
	v.lpLine = pressed
}
