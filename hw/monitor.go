package hw

import "c64core/hw/cpu"

// addrSet is a set of 16-bit addresses.
type addrSet [0x10000 / 64]uint64

func (s *addrSet) add(addr uint16)      { s[addr>>6] |= 1 << (addr & 63) }
func (s *addrSet) del(addr uint16)      { s[addr>>6] &^= 1 << (addr & 63) }
func (s *addrSet) has(addr uint16) bool { return s[addr>>6]&(1<<(addr&63)) != 0 }

// monitor is the CPU debugger of the machine. It turns breakpoints,
// watchpoints and jams into run loop flags.
type monitor struct {
	c *C64

	breakpoints addrSet
	watchpoints addrSet
	nbreak      int
	nwatch      int

	hit      uint16 // last breakpoint or jam address
	watchHit uint16 // last watched address accessed
}

func (m *monitor) init(c *C64) {
	bp, wp, nb, nw := m.breakpoints, m.watchpoints, m.nbreak, m.nwatch
	*m = monitor{c: c, breakpoints: bp, watchpoints: wp, nbreak: nb, nwatch: nw}
}

func (m *monitor) Trace(pc uint16) {
	if m.nbreak != 0 && m.breakpoints.has(pc) {
		m.hit = pc
		m.c.Signal(FlagBreakpoint)
	}
}

func (m *monitor) WatchRead(addr uint16) {
	if m.nwatch != 0 && m.watchpoints.has(addr) {
		m.watchHit = addr
		m.c.Signal(FlagWatchpoint)
	}
}

func (m *monitor) WatchWrite(addr uint16, _ uint8) { m.WatchRead(addr) }

func (m *monitor) Interrupt(_, _ uint16, nmi bool) {
	if !nmi {
		m.c.CPU.SetIRQ(cpu.IntDebugger, false)
	}
}

func (m *monitor) Jam(pc uint16, _ uint8) {
	m.hit = pc
	m.c.Signal(FlagCPUJam)
}

// SetBreakpoint stops execution before the instruction at addr runs.
func (c *C64) SetBreakpoint(addr uint16) {
	if !c.mon.breakpoints.has(addr) {
		c.mon.breakpoints.add(addr)
		c.mon.nbreak++
	}
}

func (c *C64) ClearBreakpoint(addr uint16) {
	if c.mon.breakpoints.has(addr) {
		c.mon.breakpoints.del(addr)
		c.mon.nbreak--
	}
}

// SetWatchpoint stops execution after the instruction accessing addr.
func (c *C64) SetWatchpoint(addr uint16) {
	if !c.mon.watchpoints.has(addr) {
		c.mon.watchpoints.add(addr)
		c.mon.nwatch++
	}
}

func (c *C64) ClearWatchpoint(addr uint16) {
	if c.mon.watchpoints.has(addr) {
		c.mon.watchpoints.del(addr)
		c.mon.nwatch--
	}
}
