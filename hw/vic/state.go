package vic

import "c64core/hw/snapshot"

// SaveState saves the chip state into st. Frame buffers are not saved.
func (v *VIC) SaveState(st *snapshot.VIC) {
	st.Regs = snapshot.VICRegs(v.reg)
	st.XCounter, st.YCounter = v.xCounter, v.yCounter
	st.IRR, st.IMR = v.irr, v.imr
	st.IRQ = v.irqLine
	st.RasterMatch = v.rasterMatch
	st.VC, st.VCBase, st.RC, st.VMLI = v.vc, v.vcBase, v.rc, v.vmli
	st.DisplayState, st.BadLine, st.DEN30 = v.displayState, v.badLine, v.den30
	st.Refresh = v.refresh
	st.MainFF, st.VerticalFF = v.mainFF, v.verticalFF
	st.BusStall, st.BALowSince, st.Cycles = v.busStall, v.baLowSince, v.cycles
	st.Matrix, st.ColorLine = v.matrix, v.colorLine
	for i := range v.gpipe {
		st.GPipe[i] = snapshot.VICGData(v.gpipe[i])
	}
	st.Shifter = snapshot.VICShifter(v.sr)
	for i := range v.spr {
		st.Sprites[i] = snapshot.VICSprite(v.spr[i])
	}
	st.SpriteDMA, st.SpriteDisplay = v.spriteDMA, v.spriteDisplay
	st.ExpansionFF, st.SpriteActive, st.SpriteArmed = v.expansionFF, v.spriteActive, v.spriteArmed
	st.SprSprColl, st.SprBgColl = v.sprSprColl, v.sprBgColl
	st.LPLine, st.LPTriggered, st.LPX, st.LPY = v.lpLine, v.lpTriggered, v.lpx, v.lpy
	st.Pending = snapshot.VICStage(v.delay.next)
}

// LoadState restores the chip from st. The IRQ and BA outputs are driven
// to the restored levels.
func (v *VIC) LoadState(st *snapshot.VIC) {
	v.reg = registers(st.Regs)
	v.xCounter, v.yCounter = st.XCounter, st.YCounter
	v.irr, v.imr = st.IRR, st.IMR
	v.rasterMatch = st.RasterMatch
	v.vc, v.vcBase, v.rc, v.vmli = st.VC, st.VCBase, st.RC, st.VMLI
	v.displayState, v.badLine, v.den30 = st.DisplayState, st.BadLine, st.DEN30
	v.refresh = st.Refresh
	v.mainFF, v.verticalFF = st.MainFF, st.VerticalFF
	v.matrix, v.colorLine = st.Matrix, st.ColorLine
	for i := range v.gpipe {
		v.gpipe[i] = gData(st.GPipe[i])
	}
	v.gnow = gData{}
	v.sr = shifter(st.Shifter)
	for i := range v.spr {
		v.spr[i] = sprite(st.Sprites[i])
	}
	v.spriteDMA, v.spriteDisplay = st.SpriteDMA, st.SpriteDisplay
	v.expansionFF, v.spriteActive, v.spriteArmed = st.ExpansionFF, st.SpriteActive, st.SpriteArmed
	v.sprSprColl, v.sprBgColl = st.SprSprColl, st.SprBgColl
	v.lpLine, v.lpTriggered, v.lpx, v.lpy = st.LPLine, st.LPTriggered, st.LPX, st.LPY
	v.delay.next = action(st.Pending)

	v.busStall = st.BusStall
	v.stall.SetBusStall(st.BusStall)
	v.baLowSince, v.cycles = st.BALowSince, st.Cycles
	v.irqLine = st.IRQ
	v.irq.SetLine(st.IRQ)
}
