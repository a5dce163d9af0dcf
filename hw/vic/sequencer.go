package vic

// action is the set of effects pending until the end of the current cycle.
type action struct {
	UpdateIRQ       bool
	SetDisplayState bool
	ClearSprSprColl bool
	ClearSprBgColl  bool
}

func (a *action) merge(b action) {
	a.UpdateIRQ = a.UpdateIRQ || b.UpdateIRQ
	a.SetDisplayState = a.SetDisplayState || b.SetDisplayState
	a.ClearSprSprColl = a.ClearSprSprColl || b.ClearSprSprColl
	a.ClearSprBgColl = a.ClearSprBgColl || b.ClearSprBgColl
}

// actionPipe holds the effects requested since the end of the last cycle.
// Requests made by the chip itself take effect at the end of the cycle
// issuing them; requests made by register accesses at the end of the next
// one.
type actionPipe struct {
	next action
}

func (p *actionPipe) push(a action) { p.next.merge(a) }

func (p *actionPipe) take() action {
	a := p.next
	p.next = action{}
	return a
}

// BadLineCondition reports whether raster line y is a bad line: it is in
// the display window, its low 3 bits match the vertical scroll and the
// display was enabled during line $30.
func BadLineCondition(y uint16, yscroll uint8, den30 bool) bool {
	return den30 && y >= firstDMA && y <= lastDMA && uint8(y)&7 == yscroll&7
}

func (v *VIC) updateBadLine() {
	bl := BadLineCondition(v.yCounter, v.reg.Ctrl1&ctrl1YScroll, v.den30)
	if bl && !v.badLine {
		v.delay.push(action{SetDisplayState: true})
	}
	v.badLine = bl
}

func (v *VIC) beginScanline() {
	if v.line == 0 {
		// The raster counter wraps in cycle 2.
		v.vcBase = 0
		v.den30 = false
		v.lpTriggered = false
		return
	}
	v.yCounter = uint16(v.line)
	if v.yCounter == firstDMA && v.reg.Ctrl1&ctrl1DEN != 0 {
		v.den30 = true
	}
	v.updateBadLine()
	v.checkRasterIRQ()
}

func (v *VIC) rasterOverflow() {
	if v.line != 0 {
		return
	}
	v.yCounter = 0
	v.updateBadLine()
	v.checkRasterIRQ()
}

// checkRasterIRQ raises the raster interrupt on the rising edge of the
// raster compare match.
func (v *VIC) checkRasterIRQ() {
	match := v.yCounter == v.reg.RasterCmp
	if match && !v.rasterMatch {
		v.triggerIRQ(irqRaster)
	}
	v.rasterMatch = match
}

func (v *VIC) loadVC() {
	v.vc = v.vcBase
	v.vmli = 0
	if v.badLine {
		v.rc = 0
	}
}

func (v *VIC) updateRC() {
	if v.rc == 7 {
		v.vcBase = v.vc
		if !v.badLine {
			v.displayState = false
		}
	}
	if v.displayState {
		v.rc = (v.rc + 1) & 7
	}
}

func (v *VIC) topBottom() (uint16, uint16) {
	if v.reg.Ctrl1&ctrl1RSEL != 0 {
		return top25, bottom25
	}
	return top24, bottom24
}

func (v *VIC) checkVertical() {
	top, bottom := v.topBottom()
	switch {
	case v.yCounter == bottom:
		v.verticalFF = true
	case v.yCounter == top && v.reg.Ctrl1&ctrl1DEN != 0:
		v.verticalFF = false
	}
}

// checkLeft is called at the cycles where the X coordinate reaches one of
// the two left comparison values. Only the one selected by CSEL matters.
func (v *VIC) checkLeft(x uint16) {
	want := uint16(left38)
	if v.reg.Ctrl2&ctrl2CSEL != 0 {
		want = left40
	}
	if x != want {
		return
	}
	v.checkVertical()
	if !v.verticalFF {
		v.mainFF = false
	}
}

func (v *VIC) checkRight(x uint16) {
	want := uint16(right38)
	if v.reg.Ctrl2&ctrl2CSEL != 0 {
		want = right40
	}
	if x == want {
		v.mainFF = true
	}
}

func (v *VIC) videoMatrix() uint16 {
	return uint16(v.reg.MemPtr&0xF0) << 6
}

// cAccess reads the video matrix and color RAM during bad lines. The chip
// only owns the bus 3 cycles after BA went low; before that it reads $FF.
func (v *VIC) cAccess() {
	i := v.vmli % 40
	if !v.baLowFor3() {
		v.matrix[i] = 0xFF
		v.colorLine[i] = 0x0F
		return
	}
	v.matrix[i] = v.mem.VICRead(v.videoMatrix() | v.vc)
	v.colorLine[i] = v.mem.ColorRAM(v.vc) & 0x0F
}

func (v *VIC) gAccess() {
	ecm := v.reg.Ctrl1&ctrl1ECM != 0
	if !v.displayState {
		addr := uint16(0x3FFF)
		if ecm {
			addr = 0x39FF
		}
		v.gnow = gData{Data: v.mem.VICRead(addr)}
		return
	}

	i := v.vmli % 40
	chr, col := v.matrix[i], v.colorLine[i]
	var addr uint16
	if v.reg.Ctrl1&ctrl1BMM != 0 {
		addr = uint16(v.reg.MemPtr&0x08)<<10 | v.vc<<3 | uint16(v.rc)
	} else {
		addr = uint16(v.reg.MemPtr&0x0E)<<10 | uint16(chr)<<3 | uint16(v.rc)
	}
	if ecm {
		addr &= 0x39FF
	}
	v.gnow = gData{Data: v.mem.VICRead(addr), Chr: chr, Col: col}
	v.vc = (v.vc + 1) & 0x3FF
	v.vmli++
}

func (v *VIC) rAccess() {
	v.refresh--
}

func (v *VIC) iAccess() {}

func (v *VIC) pAccess(n int) {
	addr := v.videoMatrix() | 0x3F8 | uint16(n)
	v.spr[n].Ptr = uint16(v.mem.VICRead(addr)) << 6
}

func (v *VIC) sAccess(n, chunk int) {
	bit := uint8(1) << n
	if v.spriteDMA&bit == 0 {
		return
	}
	s := &v.spr[n]
	s.Chunks[chunk] = v.mem.VICRead(s.Ptr | uint16(s.MC))
	s.MC = (s.MC + 1) & 63
	if chunk == 2 {
		s.Data = uint32(s.Chunks[0])<<16 | uint32(s.Chunks[1])<<8 | uint32(s.Chunks[2])
		v.spriteArmed |= bit
	}
}

// spriteFetchA is the first cycle of the fetch window of sprite n: the
// pointer fetch followed by the first data byte.
func (v *VIC) spriteFetchA(n int) {
	v.pAccess(n)
	v.sAccess(n, 0)
}

func (v *VIC) spriteFetchB(n int) {
	v.sAccess(n, 1)
	v.sAccess(n, 2)
}

func (v *VIC) turnSpriteDMAOff() {
	for n := range 8 {
		bit := uint8(1) << n
		if v.expansionFF&bit == 0 {
			continue
		}
		s := &v.spr[n]
		s.MCBase = s.MC
		if s.MCBase == 63 {
			v.spriteDMA &^= bit
		}
	}
}

func (v *VIC) toggleExpansion() {
	v.expansionFF ^= v.reg.SprExpandY
}

// spriteYMatch returns the sprites whose Y coordinate matches the low 8 bits
// of the raster counter.
func (v *VIC) spriteYMatch() uint8 {
	var m uint8
	y := uint8(v.yCounter)
	for n := range 8 {
		if v.reg.SprY[n] == y {
			m |= 1 << n
		}
	}
	return m
}

func (v *VIC) turnSpriteDMAOn() {
	rising := v.reg.SprEnable & v.spriteYMatch() &^ v.spriteDMA
	if rising == 0 {
		return
	}
	v.spriteDMA |= rising
	for n := range 8 {
		if rising&(1<<n) != 0 {
			v.spr[n].MCBase = 0
		}
	}
	v.expansionFF &^= rising & v.reg.SprExpandY
}

func (v *VIC) turnSpritesOnOrOff() {
	for n := range v.spr {
		v.spr[n].MC = v.spr[n].MCBase
	}
	v.spriteDisplay |= v.spriteDMA & v.reg.SprEnable & v.spriteYMatch()
	v.spriteDisplay &= v.spriteDMA
}

// busCycle drives BA for the current cycle and performs the c-access of bad
// lines, which happens in the second clock phase.
func (v *VIC) busCycle(canvas bool) {
	v.updateBA(canvas)
	if canvas && v.badLine && v.cycle >= 15 {
		v.cAccess()
	}
}

func (v *VIC) endCycle() {
	if v.cycle == 14 {
		v.xCounter = 0
	} else {
		v.xCounter = (v.xCounter + 8) & 0x1FF
	}
	v.gpipe[1], v.gpipe[0] = v.gpipe[0], v.gnow
	v.gnow = gData{}

	a := v.delay.take()
	if a.SetDisplayState {
		v.displayState = true
	}
	if a.ClearSprSprColl {
		v.sprSprColl = 0
	}
	if a.ClearSprBgColl {
		v.sprBgColl = 0
	}
	if a.UpdateIRQ {
		v.updateIRQLine()
	}
}
