// Package cpu emulates the MOS 6510 processor of the C64.
//
// The processor is clocked by the machine one cycle at a time through Tick.
// The number of cycles of an instruction, page crossing and branch penalties
// included, is known when the instruction starts; its bus accesses take
// place in its last cycle. Interrupt lines are sampled during the
// second-to-last cycle of each instruction, as the real chip does.
package cpu

import (
	"io"

	"c64core/emu/log"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Bus is the address space seen by the processor.
type Bus interface {
	Read8(addr uint16) uint8
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Debugger is notified of the processor activity.
type Debugger interface {
	// Trace is called before the instruction at pc executes.
	Trace(pc uint16)
	WatchRead(addr uint16)
	WatchWrite(addr uint16, val uint8)
	Interrupt(prevpc, curpc uint16, nmi bool)
	// Jam is called when the processor locks up on opcode.
	Jam(pc uint16, opcode uint8)
}

// IntSource identifies a device driving one of the interrupt lines.
type IntSource uint8

const (
	IntCIA IntSource = 1 << iota
	IntVIC
	IntExpansion
	IntRestore
	IntDebugger
)

type state uint8

const (
	stFetch state = iota
	stInstr
	stIRQ
	stNMI
)

type CPU struct {
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// Cycles is the number of cycles the processor has run.
	Cycles int64

	bus    Bus
	dbg    Debugger
	tracer *tracer

	irqLines IntSource
	nmiLines IntSource
	nmiEdge  bool // negative edge on NMI, not serviced yet

	state   state
	opcode  uint8
	left    int // cycles left in the current instruction
	irqPoll bool
	nmiPoll bool

	jammed bool
}

// New creates a processor connected to bus. Reset must be called before
// running it.
func New(bus Bus) *CPU {
	return &CPU{
		bus: bus,
		dbg: nopDebugger{},
	}
}

// Reset performs a hardware reset: registers are cleared and the program
// counter is loaded from the reset vector.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = Interrupt | Reserved
	c.PC = uint16(c.bus.Peek8(ResetVector)) | uint16(c.bus.Peek8(ResetVector+1))<<8
	c.irqLines, c.nmiLines, c.nmiEdge = 0, 0, false
	c.state, c.left = stFetch, 0
	c.irqPoll, c.nmiPoll = false, false
	c.jammed = false
	c.dbg.Trace(c.PC)
}

// Tick runs one cycle.
func (c *CPU) Tick() {
	c.Cycles++
	if c.jammed {
		return
	}
	if c.left == 0 {
		c.begin()
	}
	c.left--
	if c.left == 1 {
		c.irqPoll = c.irqLines != 0 && !c.P.has(Interrupt)
		c.nmiPoll = c.nmiEdge
	}
	if c.left == 0 {
		c.complete()
	}
}

// AtBoundary reports whether the processor is between two instructions.
func (c *CPU) AtBoundary() bool { return c.left == 0 }

// StepInstruction runs cycles until the current (or next) instruction has
// completed and returns the number of cycles it took.
func (c *CPU) StepInstruction() int {
	n := 0
	for {
		c.Tick()
		n++
		if c.left == 0 || c.jammed {
			return n
		}
	}
}

func (c *CPU) begin() {
	switch {
	case c.nmiPoll:
		c.nmiEdge = false
		c.state, c.left = stNMI, 7
	case c.irqPoll:
		c.state, c.left = stIRQ, 7
	default:
		c.opcode = c.bus.Peek8(c.PC)
		if c.tracer != nil {
			c.traceOp()
		}
		c.state = stInstr
		c.left = c.cycleCount(c.opcode)
	}
	c.irqPoll, c.nmiPoll = false, false
}

func (c *CPU) complete() {
	switch c.state {
	case stNMI:
		c.interrupt(NMIVector, true)
	case stIRQ:
		c.interrupt(IRQVector, false)
	case stInstr:
		c.execute(c.opcode)
	}
	c.state = stFetch
	if c.jammed {
		return
	}
	c.dbg.Trace(c.PC)
}

func (c *CPU) interrupt(vector uint16, nmi bool) {
	prev := c.PC
	c.push16(c.PC)
	c.push8(uint8(c.P&^Break | Reserved))
	c.P |= Interrupt
	c.PC = c.read16(vector)
	// The first instruction of the handler always runs.
	c.irqPoll, c.nmiPoll = false, false
	c.dbg.Interrupt(prev, c.PC, nmi)
}

func (c *CPU) jam() {
	c.jammed = true
	log.ModCPU.WarnZ("CPU jammed").
		Hex16("PC", c.PC-1).
		Hex8("opcode", c.opcode).
		End()
	c.dbg.Jam(c.PC-1, c.opcode)
}

// Jammed reports whether the processor has locked up on an illegal opcode.
func (c *CPU) Jammed() bool { return c.jammed }

// SetIRQ drives the IRQ line for source. The line is level sensitive.
func (c *CPU) SetIRQ(src IntSource, asserted bool) {
	if asserted {
		c.irqLines |= src
	} else {
		c.irqLines &^= src
	}
}

// SetNMI drives the NMI line for source. The line is edge triggered: only a
// transition from released to asserted is noticed.
func (c *CPU) SetNMI(src IntSource, asserted bool) {
	prev := c.nmiLines
	if asserted {
		c.nmiLines |= src
	} else {
		c.nmiLines &^= src
	}
	if prev == 0 && c.nmiLines != 0 {
		c.nmiEdge = true
	}
}

// Line is an interrupt output of a device wired to one of the processor
// interrupt inputs.
type Line struct {
	cpu *CPU
	src IntSource
	nmi bool
}

func (l Line) SetLine(asserted bool) {
	if l.nmi {
		l.cpu.SetNMI(l.src, asserted)
		return
	}
	l.cpu.SetIRQ(l.src, asserted)
}

// IRQLine returns the IRQ input as seen by source.
func (c *CPU) IRQLine(src IntSource) Line { return Line{cpu: c, src: src} }

// NMILine returns the NMI input as seen by source.
func (c *CPU) NMILine(src IntSource) Line { return Line{cpu: c, src: src, nmi: true} }

func (c *CPU) read(addr uint16) uint8 {
	val := c.bus.Read8(addr)
	c.dbg.WatchRead(addr)
	return val
}

func (c *CPU) write(addr uint16, val uint8) {
	c.bus.Write8(addr, val)
	c.dbg.WatchWrite(addr, val)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.read(addr)
	hi := c.read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) fetch8() uint8 {
	val := c.read(c.PC)
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	c.write(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.read(0x0100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* tracing / debugging */

// SetTraceOutput enables the execution trace, written to w. A nil w
// disables it.
func (c *CPU) SetTraceOutput(w io.Writer, pos Positioner) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, pos: pos}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}

func (c *CPU) traceOp() {
	c.tracer.write(c, cpuState{
		A:     c.A,
		X:     c.X,
		Y:     c.Y,
		P:     c.P,
		SP:    c.SP,
		PC:    c.PC,
		Clock: c.Cycles,
	})
}

type nopDebugger struct{}

func (nopDebugger) Trace(uint16)                   {}
func (nopDebugger) WatchRead(uint16)               {}
func (nopDebugger) WatchWrite(uint16, uint8)       {}
func (nopDebugger) Interrupt(uint16, uint16, bool) {}
func (nopDebugger) Jam(uint16, uint8)              {}
