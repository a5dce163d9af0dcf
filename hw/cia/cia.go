// Package cia emulates the MOS 6526 Complex Interface Adapter: two 16-bit
// interval timers, a time-of-day clock, a serial shift register, two 8-bit
// I/O ports and the interrupt logic tying them together.
//
// Register writes do not act immediately. They are recorded as pending
// actions in a pipeline that is shifted once per tick, which reproduces the
// latencies of the real chip (a started timer decrements on the next tick,
// an underflow reloads the counter and raises the interrupt one tick later).
package cia

import (
	"fmt"

	"c64core/emu/log"
	"c64core/hw/sched"
)

// IRQLine is the interrupt output of the chip. CIA1 drives the CPU IRQ line,
// CIA2 the NMI line.
type IRQLine interface {
	SetLine(asserted bool)
}

// Scheduler is the view of the event scheduler the chip needs to schedule
// its own executions.
type Scheduler interface {
	Now() int64
	ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64)
	Cancel(slot sched.Slot)
}

// Port is a device connected to one of the I/O ports.
type Port interface {
	// Read returns the levels of the port pins, given the output register
	// and data direction register of the chip.
	Read(out, ddr uint8) uint8
	// Write is called when the output or direction register changes.
	Write(out, ddr uint8)
}

type Diagnostics struct {
	NoSleep   bool // execute every tick, even when idle
	TraceRegs bool // log register accesses
}

type Config struct {
	Name    string
	Slot    sched.Slot
	ClockHz int64 // master clock frequency
	TODHz   int64 // TOD input frequency (power line)
	Diag    Diagnostics
}

// ICR bits
const (
	icrTA   = 0x01
	icrTB   = 0x02
	icrTOD  = 0x04
	icrSDR  = 0x08
	icrFLAG = 0x10
	icrIRQ  = 0x80
)

// CRA/CRB bits
const (
	crStart   = 0x01
	crPBOn    = 0x02
	crToggle  = 0x04
	crOneShot = 0x08
	crLoad    = 0x10
	craCNT    = 0x20
	craSPOut  = 0x40
	craTOD50  = 0x80
	crbMode   = 0x60
	crbAlarm  = 0x80
)

// minSleep is the minimum number of ticks worth going to sleep for.
const minSleep = 8

type CIA struct {
	cfg   Config
	sched Scheduler
	irq   IRQLine
	portA Port
	portB Port

	pra, prb   uint8
	ddra, ddrb uint8

	counterA, counterB uint16
	latchA, latchB     uint16

	cra, crb uint8
	imr, icr uint8
	irqLine  bool

	line pipeline
	feed actions

	pbToggle uint8 // PB6/PB7 in toggle mode
	pbPulse  uint8 // PB6/PB7 in pulse mode

	sdr        uint8
	serShift   uint8
	serCounter uint8
	serLoaded  bool

	tod tod

	lastExec int64 // last tick the chip was executed at
	sleeping bool
}

func New(cfg Config, s Scheduler, irq IRQLine) *CIA {
	if cfg.ClockHz <= 0 || cfg.TODHz <= 0 {
		panic(fmt.Sprintf("cia: %s: invalid clock configuration", cfg.Name))
	}
	c := &CIA{
		cfg:   cfg,
		sched: s,
		irq:   irq,
	}
	c.Reset()
	return c
}

// SetPorts connects devices to port A and B. nil leaves a port floating
// (pins pulled up).
func (c *CIA) SetPorts(a, b Port) {
	c.portA, c.portB = a, b
}

func (c *CIA) Name() string { return c.cfg.Name }

// Reset puts the chip in its power-on state and schedules its execution.
func (c *CIA) Reset() {
	c.pra, c.prb = 0, 0
	c.ddra, c.ddrb = 0, 0
	c.counterA, c.counterB = 0xFFFF, 0xFFFF
	c.latchA, c.latchB = 0xFFFF, 0xFFFF
	c.cra, c.crb = 0, 0
	c.imr, c.icr = 0, 0
	c.line = pipeline{}
	c.feed = actions{}
	c.pbToggle, c.pbPulse = 0, 0
	c.sdr, c.serShift, c.serCounter, c.serLoaded = 0, 0, 0, false
	c.tod.reset()

	if c.irqLine {
		c.irqLine = false
		c.irq.SetLine(false)
	}
	c.sleeping = false
	c.lastExec = c.sched.Now()
	c.sched.ScheduleAbs(c.cfg.Slot, c.lastExec+1, sched.CIAExecute, 0)
}

// HandleEvent services the events of the chip scheduler slot.
func (c *CIA) HandleEvent(id sched.EventID, _ int64) {
	switch id {
	case sched.CIAExecute:
		c.execute()
	case sched.CIAWakeup:
		now := c.sched.Now()
		c.catchUp(now - 1)
		c.sleeping = false
		c.execute()
	default:
		panic(fmt.Sprintf("cia: %s: unexpected event %s", c.cfg.Name, id))
	}
}

// execute runs the chip for the current tick.
func (c *CIA) execute() {
	c.line.shift(c.feed)
	out := c.line.stage(1)
	s0 := c.line.stage(0)

	// Timer A
	underflowA := false
	switch {
	case out.LoadA:
		c.counterA = c.latchA
	case out.CountA:
		if c.counterA != 0 {
			c.counterA--
		}
		underflowA = c.counterA == 0
	}

	if underflowA {
		s0.LoadA = true
		c.icr |= icrTA
		if c.imr&icrTA != 0 {
			s0.SetIRQ = true
		}
		if c.cra&crOneShot != 0 {
			c.cra &^= crStart
			c.feed.CountA = false
			s0.CountA = false
		}
		if c.cra&crPBOn != 0 {
			if c.cra&crToggle != 0 {
				c.pbToggle ^= 0x40
			} else {
				c.pbPulse |= 0x40
				s0.PB6Low = true
			}
		}
		if c.crb&crStart != 0 && c.crb&0x40 != 0 {
			s0.CountB = true
		}
		if c.cra&craSPOut != 0 {
			c.serialClock()
		}
	}

	// Timer B
	underflowB := false
	switch {
	case out.LoadB:
		c.counterB = c.latchB
	case out.CountB:
		if c.counterB != 0 {
			c.counterB--
		}
		underflowB = c.counterB == 0
	}

	if underflowB {
		s0.LoadB = true
		c.icr |= icrTB
		if c.imr&icrTB != 0 {
			s0.SetIRQ = true
		}
		if c.crb&crOneShot != 0 {
			c.crb &^= crStart
			c.feed.CountB = false
			s0.CountB = false
		}
		if c.crb&crPBOn != 0 {
			if c.crb&crToggle != 0 {
				c.pbToggle ^= 0x80
			} else {
				c.pbPulse |= 0x80
				s0.PB7Low = true
			}
		}
	}

	if out.PB6Low {
		c.pbPulse &^= 0x40
	}
	if out.PB7Low {
		c.pbPulse &^= 0x80
	}

	if c.line.stage(2).SerInt {
		c.icr |= icrSDR
		if c.imr&icrSDR != 0 {
			s0.SetIRQ = true
		}
	}

	if out.SetIRQ && !c.irqLine {
		c.irqLine = true
		c.irq.SetLine(true)
		if c.cfg.Diag.TraceRegs {
			log.ModCIA.DebugZ("irq").String("chip", c.cfg.Name).Hex8("icr", c.icr).End()
		}
	}

	now := c.sched.Now()
	c.lastExec = now
	if !c.cfg.Diag.NoSleep && c.trySleep(now) {
		return
	}
	c.sched.ScheduleAbs(c.cfg.Slot, now+1, sched.CIAExecute, 0)
}

// serialClock is called on each timer A underflow in output mode. A byte
// takes 16 underflows to shift out.
func (c *CIA) serialClock() {
	if c.serCounter == 0 {
		if !c.serLoaded {
			return
		}
		c.serLoaded = false
		c.serShift = c.sdr
		c.serCounter = 16
	}
	c.serCounter--
	if c.serCounter&1 == 0 {
		c.serShift <<= 1
	}
	if c.serCounter == 0 {
		c.line.stage(0).SerInt = true
	}
}

// trySleep puts the chip to sleep if nothing but steady counting can happen
// before the next timer underflow. It returns false if the chip must keep
// executing every tick.
func (c *CIA) trySleep(now int64) bool {
	if !c.line.steady(c.feed) {
		return false
	}

	wake := sched.Never
	if c.feed.CountA {
		wake = min(wake, now+int64(c.counterA))
	}
	if c.feed.CountB {
		wake = min(wake, now+int64(c.counterB))
	}
	if wake-now < minSleep {
		return false
	}

	c.sleeping = true
	if wake == sched.Never {
		c.sched.Cancel(c.cfg.Slot)
	} else {
		c.sched.ScheduleAbs(c.cfg.Slot, wake, sched.CIAWakeup, 0)
	}
	return true
}

// catchUp accounts for the ticks skipped while asleep, up to and including
// tick upto. While asleep, the pipeline is steady and counting timers just
// decrement.
func (c *CIA) catchUp(upto int64) {
	elapsed := upto - c.lastExec
	if elapsed <= 0 {
		return
	}
	if c.feed.CountA {
		c.counterA -= uint16(elapsed)
	}
	if c.feed.CountB {
		c.counterB -= uint16(elapsed)
	}
	c.line.fill(c.feed)
	c.lastExec = upto
}

// wakeUp brings a sleeping chip up to date with the current tick, during
// which it has already been executed, and resumes per-tick execution.
func (c *CIA) wakeUp() {
	if !c.sleeping {
		return
	}
	now := c.sched.Now()
	c.catchUp(now)
	c.sleeping = false
	c.sched.ScheduleAbs(c.cfg.Slot, now+1, sched.CIAExecute, 0)
}

// Sleeping reports whether the chip is currently idle.
func (c *CIA) Sleeping() bool { return c.sleeping }

// IRQ reports whether the interrupt output is asserted.
func (c *CIA) IRQ() bool { return c.irqLine }

// TriggerFlag signals a negative edge on the FLAG pin.
func (c *CIA) TriggerFlag() {
	c.raise(icrFLAG)
}

// raise sets an ICR bit from an asynchronous source (TOD, FLAG) and
// schedules the interrupt if unmasked.
func (c *CIA) raise(bit uint8) {
	c.wakeUp()
	c.icr |= bit
	if c.imr&bit != 0 {
		c.line.stage(0).SetIRQ = true
	}
}
