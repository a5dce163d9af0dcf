package hw

import (
	"fmt"
	"runtime/debug"

	"c64core/emu/log"
	"c64core/hw/cpu"
)

// RunFlag is a request to the run loop. Flags can be raised from any
// goroutine; they are checked once per tick.
type RunFlag uint32

const (
	FlagBreakpoint RunFlag = 1 << iota
	FlagWatchpoint
	FlagStop
	FlagCPUJam
	FlagStepInstruction
	FlagAutoSnapshot
	FlagUserSnapshot
	FlagExternalNMI
	FlagExternalBRK
)

// Signal raises flag f.
func (c *C64) Signal(f RunFlag) { c.flags.Or(uint32(f)) }

// SignalStop stops execution at the next instruction boundary.
func (c *C64) SignalStop() { c.Signal(FlagStop) }

// CancelStop withdraws a stop request not serviced yet.
func (c *C64) CancelStop() { c.takeFlag(FlagStop) }

// SignalStepInstruction stops execution once the next instruction has
// completed. ExecuteOneTick is the tick-level single step.
func (c *C64) SignalStepInstruction() { c.Signal(FlagStepInstruction) }

// SignalNMI pulses the NMI line.
func (c *C64) SignalNMI() { c.Signal(FlagExternalNMI) }

// SignalBRK asserts the IRQ line until the CPU takes the interrupt.
func (c *C64) SignalBRK() { c.Signal(FlagExternalBRK) }

// RequestSnapshot takes a snapshot at the next instruction boundary and
// posts it with a NotifyUserSnapshot notification.
func (c *C64) RequestSnapshot() { c.Signal(FlagUserSnapshot) }

func (c *C64) hasFlag(f RunFlag) bool { return c.flags.Load()&uint32(f) != 0 }

// takeFlag lowers f and reports whether it was raised.
func (c *C64) takeFlag(f RunFlag) bool { return c.flags.And(^uint32(f))&uint32(f) != 0 }

// tick advances the machine by one master clock cycle.
func (c *C64) tick() {
	c.Clock.Advance()
	now := c.Clock.Now()
	if c.Sched.NextTrigger <= now {
		c.Sched.ProcessDue(now)
	}

	c.VIC.Execute(c.line, c.cycle)

	c.ticked = c.stall == 0
	if c.ticked {
		c.CPU.Tick()
	}

	for _, d := range c.Drives {
		d.Execute()
	}

	c.cycle++
	if c.cycle > c.cfg.Standard.CyclesPerLine() {
		c.endScanline()
	}
}

func (c *C64) endScanline() {
	cpl := int64(c.cfg.Standard.CyclesPerLine())
	c.CIA1.AdvanceTOD(cpl)
	c.CIA2.AdvanceTOD(cpl)
	c.VIC.EndScanline()

	c.cycle = 1
	c.line++
	if c.line == c.cfg.Standard.LinesPerFrame() {
		c.endFrame()
	}
}

func (c *C64) endFrame() {
	c.VIC.EndFrame()
	c.samples = c.SID.EndFrame()
	c.line = 0
	c.Frame++
	c.notify(Notification{Kind: NotifyFrameDone, Data: c.Frame})
}

// step runs one tick and services the run loop flags. It reports whether
// execution must stop.
func (c *C64) step() (StopReason, bool) {
	c.tick()
	if c.flags.Load() == 0 {
		return StopNone, false
	}
	return c.serviceFlags()
}

func (c *C64) serviceFlags() (StopReason, bool) {
	if c.takeFlag(FlagExternalNMI) {
		c.CPU.SetNMI(cpu.IntDebugger, true)
		c.CPU.SetNMI(cpu.IntDebugger, false)
	}
	if c.takeFlag(FlagExternalBRK) {
		c.CPU.SetIRQ(cpu.IntDebugger, true)
	}

	// Everything else waits for the current instruction to complete.
	if !c.CPU.AtBoundary() && !c.CPU.Jammed() {
		return StopNone, false
	}

	if c.takeFlag(FlagAutoSnapshot) {
		c.takeSnapshot(NotifyAutoSnapshot)
	}
	if c.takeFlag(FlagUserSnapshot) {
		c.takeSnapshot(NotifyUserSnapshot)
	}

	switch {
	case c.takeFlag(FlagCPUJam):
		c.notify(Notification{Kind: NotifyCPUJam, Addr: c.mon.hit})
		return StopCPUJam, true
	case c.takeFlag(FlagBreakpoint):
		c.notify(Notification{Kind: NotifyBreakpoint, Addr: c.mon.hit})
		return StopBreakpoint, true
	case c.takeFlag(FlagWatchpoint):
		c.notify(Notification{Kind: NotifyWatchpoint, Addr: c.mon.watchHit})
		return StopWatchpoint, true
	case c.takeFlag(FlagStop):
		return StopRequested, true
	case c.ticked && c.hasFlag(FlagStepInstruction):
		c.takeFlag(FlagStepInstruction)
		return StopStepInstruction, true
	}
	return StopNone, false
}

// execute runs ticks until done returns true or a flag stops execution.
// Internal errors during execution leave the machine in an unknown state:
// it is hard reset.
func (c *C64) execute(done func() bool) (reason StopReason) {
	if c.state == Idle {
		panic("hw: machine is powered off")
	}
	paused := c.state == Paused
	c.state = Running
	defer func() {
		if paused {
			c.state = Paused
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			log.ModEmu.ErrorZ("internal error, hard reset").
				String("err", fmt.Sprint(r)).
				String("stack", string(debug.Stack())).
				End()
			c.Reset(true)
			c.notify(Notification{Kind: NotifyReset})
			reason = StopCorrupted
		}
	}()

	for {
		if r, stop := c.step(); stop {
			return r
		}
		if done() {
			return StopNone
		}
	}
}

// ExecuteOneTick runs a single tick. A paused machine stays paused.
func (c *C64) ExecuteOneTick() StopReason {
	return c.execute(func() bool { return true })
}

// ExecuteToInstructionBoundary runs until the CPU has completed an
// instruction.
func (c *C64) ExecuteToInstructionBoundary() StopReason {
	return c.execute(func() bool {
		return c.CPU.Jammed() || c.ticked && c.CPU.AtBoundary()
	})
}

// ExecuteOneScanline runs until the end of the current scanline.
func (c *C64) ExecuteOneScanline() StopReason {
	return c.execute(func() bool { return c.cycle == 1 })
}

// ExecuteOneFrame runs until the end of the current frame.
func (c *C64) ExecuteOneFrame() StopReason {
	return c.execute(func() bool { return c.cycle == 1 && c.line == 0 })
}

// Run runs until a flag stops execution.
func (c *C64) Run() StopReason {
	return c.execute(func() bool { return false })
}
