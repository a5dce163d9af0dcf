package cia

import (
	"fmt"

	"c64core/emu/log"
)

// Register offsets
const (
	PRA = iota
	PRB
	DDRA
	DDRB
	TALO
	TAHI
	TBLO
	TBHI
	TOD10TH
	TODSEC
	TODMIN
	TODHR
	SDR
	ICR
	CRA
	CRB
)

func portValue(p Port, out, ddr uint8) uint8 {
	if p == nil {
		return out | ^ddr
	}
	return p.Read(out, ddr)
}

func (c *CIA) readPA() uint8 {
	return portValue(c.portA, c.pra, c.ddra)
}

func (c *CIA) readPB() uint8 {
	v := portValue(c.portB, c.prb, c.ddrb)
	if c.cra&crPBOn != 0 {
		v = v&^0x40 | c.timerOut(c.cra, 0x40)
	}
	if c.crb&crPBOn != 0 {
		v = v&^0x80 | c.timerOut(c.crb, 0x80)
	}
	return v
}

func (c *CIA) timerOut(cr, bit uint8) uint8 {
	if cr&crToggle != 0 {
		return c.pbToggle & bit
	}
	return c.pbPulse & bit
}

// Read reads register off (0x00-0x0F), with side effects.
func (c *CIA) Read(off uint16) uint8 {
	c.wakeUp()

	var v uint8
	switch off {
	case PRA:
		v = c.readPA()
	case PRB:
		v = c.readPB()
	case TOD10TH:
		v = c.tod.read(0)
		c.tod.frozen = false
	case TODHR:
		if !c.tod.frozen {
			c.tod.latch = c.tod.time
			c.tod.frozen = true
		}
		v = c.tod.read(3)
	case ICR:
		v = c.icr
		if c.irqLine {
			v |= icrIRQ
			c.irqLine = false
			c.irq.SetLine(false)
		}
		c.icr = 0
		c.line.dropIRQ()
	default:
		v = c.Peek(off)
	}

	if c.cfg.Diag.TraceRegs {
		log.ModCIA.DebugZ("read").
			String("chip", c.cfg.Name).
			Hex8("reg", uint8(off)).
			Hex8("val", v).
			End()
	}
	return v
}

// Peek reads register off without side effects.
func (c *CIA) Peek(off uint16) uint8 {
	elapsed := uint16(0)
	if c.sleeping {
		elapsed = uint16(c.sched.Now() - c.lastExec)
	}

	switch off {
	case PRA:
		return c.readPA()
	case PRB:
		return c.readPB()
	case DDRA:
		return c.ddra
	case DDRB:
		return c.ddrb
	case TALO, TAHI:
		v := c.counterA
		if c.feed.CountA {
			v -= elapsed
		}
		if off == TALO {
			return uint8(v)
		}
		return uint8(v >> 8)
	case TBLO, TBHI:
		v := c.counterB
		if c.feed.CountB {
			v -= elapsed
		}
		if off == TBLO {
			return uint8(v)
		}
		return uint8(v >> 8)
	case TOD10TH, TODSEC, TODMIN, TODHR:
		return c.tod.read(int(off - TOD10TH))
	case SDR:
		return c.sdr
	case ICR:
		if c.irqLine {
			return c.icr | icrIRQ
		}
		return c.icr
	case CRA:
		return c.cra
	case CRB:
		return c.crb
	}
	panic(fmt.Sprintf("cia: %s: read from undefined register %#x", c.cfg.Name, off))
}

// Write writes val to register off (0x00-0x0F). Writing outside the register
// file is an internal error.
func (c *CIA) Write(off uint16, val uint8) {
	if off > CRB {
		panic(fmt.Sprintf("cia: %s: write to undefined register %#x", c.cfg.Name, off))
	}
	c.wakeUp()

	if c.cfg.Diag.TraceRegs {
		log.ModCIA.DebugZ("write").
			String("chip", c.cfg.Name).
			Hex8("reg", uint8(off)).
			Hex8("val", val).
			End()
	}

	s0 := c.line.stage(0)
	switch off {
	case PRA:
		c.pra = val
		c.notifyPA()
	case PRB:
		c.prb = val
		c.notifyPB()
	case DDRA:
		c.ddra = val
		c.notifyPA()
	case DDRB:
		c.ddrb = val
		c.notifyPB()
	case TALO:
		c.latchA = c.latchA&0xFF00 | uint16(val)
	case TAHI:
		c.latchA = c.latchA&0x00FF | uint16(val)<<8
		if c.cra&crStart == 0 {
			s0.LoadA = true
		}
	case TBLO:
		c.latchB = c.latchB&0xFF00 | uint16(val)
	case TBHI:
		c.latchB = c.latchB&0x00FF | uint16(val)<<8
		if c.crb&crStart == 0 {
			s0.LoadB = true
		}
	case TOD10TH, TODSEC, TODMIN, TODHR:
		c.writeTOD(int(off-TOD10TH), val)
	case SDR:
		c.sdr = val
		if c.cra&craSPOut != 0 {
			c.serLoaded = true
		}
	case ICR:
		if val&0x80 != 0 {
			c.imr |= val & 0x1F
		} else {
			c.imr &^= val & 0x1F
		}
		if c.imr&c.icr&0x1F != 0 && !c.irqLine {
			s0.SetIRQ = true
		}
	case CRA:
		c.writeCRA(val)
	case CRB:
		c.writeCRB(val)
	}
}

func (c *CIA) writeCRA(val uint8) {
	s0 := c.line.stage(0)

	counting := val&crStart != 0 && val&craCNT == 0
	if val&crStart != 0 && c.cra&crStart == 0 {
		c.pbToggle |= 0x40
	}
	s0.CountA = counting
	c.feed.CountA = counting

	if val&crLoad != 0 {
		s0.LoadA = true
	}
	if (val^c.cra)&craSPOut != 0 {
		c.serCounter = 0
		c.serLoaded = false
		for i := range pipelineDepth {
			c.line.stage(i).SerInt = false
		}
	}
	c.cra = val &^ crLoad
	c.notifyPB()
}

func (c *CIA) writeCRB(val uint8) {
	s0 := c.line.stage(0)

	counting := val&crStart != 0 && val&crbMode == 0
	if val&crStart != 0 && c.crb&crStart == 0 {
		c.pbToggle |= 0x80
	}
	s0.CountB = counting
	c.feed.CountB = counting

	if val&crLoad != 0 {
		s0.LoadB = true
	}
	c.crb = val &^ crLoad
	c.notifyPB()
}

func (c *CIA) notifyPA() {
	if c.portA != nil {
		c.portA.Write(c.pra, c.ddra)
	}
}

func (c *CIA) notifyPB() {
	if c.portB != nil {
		c.portB.Write(c.prb, c.ddrb)
	}
}
