package cpu

import "c64core/hw/snapshot"

func (c *CPU) SaveState(st *snapshot.CPU) {
	st.A, st.X, st.Y, st.SP = c.A, c.X, c.Y, c.SP
	st.PC = c.PC
	st.P = uint8(c.P)
	st.Cycles = c.Cycles
	st.IRQLines, st.NMILines, st.NMIEdge = uint8(c.irqLines), uint8(c.nmiLines), c.nmiEdge
	st.State, st.Opcode, st.Left = uint8(c.state), c.opcode, int32(c.left)
	st.IRQPoll, st.NMIPoll = c.irqPoll, c.nmiPoll
	st.Jammed = c.jammed
}

func (c *CPU) LoadState(st *snapshot.CPU) {
	c.A, c.X, c.Y, c.SP = st.A, st.X, st.Y, st.SP
	c.PC = st.PC
	c.P = P(st.P)
	c.Cycles = st.Cycles
	c.irqLines, c.nmiLines, c.nmiEdge = IntSource(st.IRQLines), IntSource(st.NMILines), st.NMIEdge
	c.state, c.opcode, c.left = state(st.State), st.Opcode, int(st.Left)
	c.irqPoll, c.nmiPoll = st.IRQPoll, st.NMIPoll
	c.jammed = st.Jammed
}
