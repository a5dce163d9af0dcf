package cia

import (
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

// SaveState brings the chip up to date and saves its state into st.
func (c *CIA) SaveState(st *snapshot.CIA) {
	c.wakeUp()

	st.PRA, st.PRB = c.pra, c.prb
	st.DDRA, st.DDRB = c.ddra, c.ddrb
	st.CounterA, st.CounterB = c.counterA, c.counterB
	st.LatchA, st.LatchB = c.latchA, c.latchB
	st.CRA, st.CRB = c.cra, c.crb
	st.IMR, st.ICR = c.imr, c.icr
	st.IRQ = c.irqLine
	for i := range pipelineDepth {
		st.Stages[i] = snapshot.CIAStage(*c.line.stage(i))
	}
	st.Feed = snapshot.CIAStage(c.feed)
	st.PBToggle, st.PBPulse = c.pbToggle, c.pbPulse
	st.SDR, st.SerShift, st.SerCounter, st.SerLoaded = c.sdr, c.serShift, c.serCounter, c.serLoaded
	st.TOD = snapshot.TOD{
		Time:    c.tod.time,
		Alarm:   c.tod.alarm,
		Latch:   c.tod.latch,
		Frozen:  c.tod.frozen,
		Stopped: c.tod.stopped,
		Acc:     c.tod.acc,
		Pulses:  c.tod.pulses,
	}
	st.LastExec = c.lastExec
	st.Sleeping = c.sleeping
}

// LoadState restores the chip from st. The scheduler slot of the chip is
// restored separately, along with all other slots.
func (c *CIA) LoadState(st *snapshot.CIA) {
	c.pra, c.prb = st.PRA, st.PRB
	c.ddra, c.ddrb = st.DDRA, st.DDRB
	c.counterA, c.counterB = st.CounterA, st.CounterB
	c.latchA, c.latchB = st.LatchA, st.LatchB
	c.cra, c.crb = st.CRA, st.CRB
	c.imr, c.icr = st.IMR, st.ICR
	c.line = pipeline{}
	for i := range pipelineDepth {
		*c.line.stage(i) = actions(st.Stages[i])
	}
	c.feed = actions(st.Feed)
	c.pbToggle, c.pbPulse = st.PBToggle, st.PBPulse
	c.sdr, c.serShift, c.serCounter, c.serLoaded = st.SDR, st.SerShift, st.SerCounter, st.SerLoaded
	c.tod = tod{
		time:    st.TOD.Time,
		alarm:   st.TOD.Alarm,
		latch:   st.TOD.Latch,
		frozen:  st.TOD.Frozen,
		stopped: st.TOD.Stopped,
		acc:     st.TOD.Acc,
		pulses:  st.TOD.Pulses,
	}
	c.lastExec = st.LastExec
	c.sleeping = st.Sleeping

	if c.irqLine != st.IRQ {
		c.irqLine = st.IRQ
		c.irq.SetLine(st.IRQ)
	}
	c.notifyPA()
	c.notifyPB()
}

// Slot returns the scheduler slot driving the chip.
func (c *CIA) Slot() sched.Slot { return c.cfg.Slot }
