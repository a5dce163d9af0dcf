package vic

import "c64core/emu/log"

// Register offsets
const (
	SPR0X   = 0x00
	MSBX    = 0x10
	CTRL1   = 0x11
	RASTER  = 0x12
	LPX     = 0x13
	LPY     = 0x14
	SPREN   = 0x15
	CTRL2   = 0x16
	SPREXPY = 0x17
	MEMPTR  = 0x18
	IRR     = 0x19
	IMR     = 0x1A
	SPRPRIO = 0x1B
	SPRMC   = 0x1C
	SPREXPX = 0x1D
	SSCOLL  = 0x1E
	SBCOLL  = 0x1F
	BORDER  = 0x20
	BG0     = 0x21
	SPR7COL = 0x2E
)

// Read reads register off (mirrored every 64 bytes), with side effects.
func (v *VIC) Read(off uint16) uint8 {
	off &= 0x3F
	val := v.Peek(off)
	switch off {
	case SSCOLL:
		v.delay.push(action{ClearSprSprColl: true})
	case SBCOLL:
		v.delay.push(action{ClearSprBgColl: true})
	}
	return val
}

// Peek reads register off without side effects.
func (v *VIC) Peek(off uint16) uint8 {
	off &= 0x3F
	switch {
	case off < MSBX:
		n := off >> 1
		if off&1 == 0 {
			return uint8(v.reg.SprX[n])
		}
		return v.reg.SprY[n]
	case off >= BORDER && off <= SPR7COL:
		return v.reg.Colors[off-BORDER] | 0xF0
	case off > SPR7COL:
		return 0xFF
	}

	switch off {
	case MSBX:
		var msb uint8
		for n := range 8 {
			msb |= uint8(v.reg.SprX[n]>>8) << n
		}
		return msb
	case CTRL1:
		return v.reg.Ctrl1&^ctrl1RST8 | uint8(v.yCounter>>1)&ctrl1RST8
	case RASTER:
		return uint8(v.yCounter)
	case LPX:
		return v.lpx
	case LPY:
		return v.lpy
	case SPREN:
		return v.reg.SprEnable
	case CTRL2:
		return v.reg.Ctrl2 | 0xC0
	case SPREXPY:
		return v.reg.SprExpandY
	case MEMPTR:
		return v.reg.MemPtr | 0x01
	case IRR:
		val := v.irr | 0x70
		if v.irqLine {
			val |= 0x80
		}
		return val
	case IMR:
		return v.imr | 0xF0
	case SPRPRIO:
		return v.reg.SprPrio
	case SPRMC:
		return v.reg.SprMC
	case SPREXPX:
		return v.reg.SprExpandX
	case SSCOLL:
		return v.sprSprColl
	case SBCOLL:
		return v.sprBgColl
	}
	return 0xFF
}

// Write writes val to register off (mirrored every 64 bytes).
func (v *VIC) Write(off uint16, val uint8) {
	off &= 0x3F
	if v.cfg.Diag.TraceRegs {
		log.ModVIC.DebugZ("write").
			Hex8("reg", uint8(off)).
			Hex8("val", val).
			Int("line", v.line).
			Int("cycle", v.cycle).
			End()
	}

	switch {
	case off < MSBX:
		n := off >> 1
		if off&1 == 0 {
			v.reg.SprX[n] = v.reg.SprX[n]&0x100 | uint16(val)
		} else {
			v.reg.SprY[n] = val
		}
		return
	case off >= BORDER && off <= SPR7COL:
		v.reg.Colors[off-BORDER] = val & 0x0F
		return
	}

	switch off {
	case MSBX:
		for n := range 8 {
			v.reg.SprX[n] = v.reg.SprX[n]&0xFF | uint16(val>>n&1)<<8
		}
	case CTRL1:
		v.reg.Ctrl1 = val
		v.reg.RasterCmp = v.reg.RasterCmp&0xFF | uint16(val&ctrl1RST8)<<1
		if v.yCounter == firstDMA && val&ctrl1DEN != 0 {
			v.den30 = true
		}
		v.updateBadLine()
		v.checkRasterIRQ()
	case RASTER:
		v.reg.RasterCmp = v.reg.RasterCmp&0x100 | uint16(val)
		v.checkRasterIRQ()
	case SPREN:
		v.reg.SprEnable = val
	case CTRL2:
		v.reg.Ctrl2 = val
	case SPREXPY:
		v.reg.SprExpandY = val
		v.expansionFF |= ^val
	case MEMPTR:
		v.reg.MemPtr = val
	case IRR:
		v.irr &^= val & 0x0F
		v.delay.push(action{UpdateIRQ: true})
	case IMR:
		v.imr = val & 0x0F
		v.delay.push(action{UpdateIRQ: true})
	case SPRPRIO:
		v.reg.SprPrio = val
	case SPRMC:
		v.reg.SprMC = val
	case SPREXPX:
		v.reg.SprExpandX = val
	}
}
