package vic

// Display modes, from the ECM, BMM and MCM bits.
const (
	modeStdText = iota
	modeMCText
	modeStdBitmap
	modeMCBitmap
	modeECMText
	modeInvalidText
	modeInvalidBitmap1
	modeInvalidBitmap2
)

func (v *VIC) displayMode() uint8 {
	return (v.reg.Ctrl1&(ctrl1ECM|ctrl1BMM) | v.reg.Ctrl2&ctrl2MCM) >> 4
}

// draw renders the 8 pixels of the current cycle into the back buffer.
func (v *VIC) draw() {
	v.drawCanvas()
	v.drawSprites()

	w := FrameWidth(v.cfg.Standard)
	off := v.line*w + (v.cycle-1)*8
	out := v.back[off : off+8]
	if v.mainFF {
		border := v.reg.Colors[colBorder] & 0x0F
		for i := range out {
			out[i] = border
		}
		return
	}
	copy(out, v.pixCol[:])
}

func (v *VIC) drawCanvas() {
	mode := v.displayMode()
	xscroll := int(v.reg.Ctrl2 & ctrl2XScroll)
	for i := range 8 {
		if i == xscroll && v.sr.CanLoad && !v.verticalFF {
			g := v.gpipe[1]
			v.sr.Data, v.sr.Chr, v.sr.Col = g.Data, g.Chr, g.Col
			v.sr.MCFlop = true
		}
		v.pixCol[i], v.pixFg[i] = v.canvasPixel(mode)
	}
}

func (v *VIC) multicolor(mode uint8) bool {
	switch mode {
	case modeMCText, modeInvalidText:
		return v.sr.Col&0x08 != 0
	case modeMCBitmap, modeInvalidBitmap2:
		return true
	}
	return false
}

// canvasPixel shifts one pixel out of the graphics shift register and
// returns its color and whether it is a foreground pixel.
func (v *VIC) canvasPixel(mode uint8) (uint8, bool) {
	sr := &v.sr
	var bits uint8
	if v.multicolor(mode) {
		if sr.MCFlop {
			sr.ColorBits = sr.Data >> 6
		}
		bits = sr.ColorBits
		sr.MCFlop = !sr.MCFlop
	} else {
		bits = (sr.Data >> 7) << 1
	}
	sr.Data <<= 1

	fg := bits&0x02 != 0
	c := &v.reg.Colors
	switch mode {
	case modeStdText:
		if fg {
			return sr.Col & 0x0F, true
		}
		return c[colBG0] & 0x0F, false
	case modeMCText:
		if sr.Col&0x08 == 0 {
			if fg {
				return sr.Col & 0x07, true
			}
			return c[colBG0] & 0x0F, false
		}
		if bits == 3 {
			return sr.Col & 0x07, true
		}
		return c[colBG0+int(bits)] & 0x0F, fg
	case modeStdBitmap:
		if fg {
			return sr.Chr >> 4, true
		}
		return sr.Chr & 0x0F, false
	case modeMCBitmap:
		switch bits {
		case 0:
			return c[colBG0] & 0x0F, false
		case 1:
			return sr.Chr >> 4, false
		case 2:
			return sr.Chr & 0x0F, true
		}
		return sr.Col & 0x0F, true
	case modeECMText:
		if fg {
			return sr.Col & 0x0F, true
		}
		return c[colBG0+int(sr.Chr>>6)] & 0x0F, false
	}
	// Invalid modes show black but still collide.
	return 0, fg
}

// drawSprites shifts the sprite shift registers for the 8 pixels of the
// cycle, detects collisions and composites the sprites over the canvas.
func (v *VIC) drawSprites() {
	for i := range 8 {
		x := (v.xCounter + uint16(i)) & 0x1FF
		var hits uint8
		winner := -1
		for n := range v.spr {
			if !v.spritePixel(n, x) {
				continue
			}
			hits |= 1 << n
			if winner < 0 {
				winner = n
			}
		}
		if hits == 0 {
			continue
		}

		if hits&(hits-1) != 0 {
			if v.sprSprColl == 0 {
				v.triggerIRQ(irqSprSpr)
			}
			v.sprSprColl |= hits
		}
		if v.pixFg[i] {
			if v.sprBgColl == 0 {
				v.triggerIRQ(irqSprBg)
			}
			v.sprBgColl |= hits
		}

		if v.cfg.Diag.NoSprites {
			continue
		}
		if v.reg.SprPrio&(1<<winner) == 0 || !v.pixFg[i] {
			v.pixCol[i] = v.spriteColor(winner)
		}
	}
}

// spritePixel advances the shift register of sprite n by one pixel at X
// coordinate x and reports whether the pixel is opaque.
func (v *VIC) spritePixel(n int, x uint16) bool {
	bit := uint8(1) << n
	s := &v.spr[n]
	expand := v.reg.SprExpandX&bit != 0

	if v.spriteActive&bit == 0 {
		if v.spriteDisplay&bit == 0 || v.spriteArmed&bit == 0 || x != v.reg.SprX[n] {
			return false
		}
		v.spriteActive |= bit
		v.spriteArmed &^= bit
		s.ExpFlop, s.MCFlop = true, true
		s.Left = 24
		if expand {
			s.Left = 48
		}
	}

	// Expanded sprites repeat every data pixel.
	if !expand || s.ExpFlop {
		switch {
		case v.reg.SprMC&bit == 0:
			s.ColBits = uint8(s.Data>>22) & 0x02
		case s.MCFlop:
			s.ColBits = uint8(s.Data>>22) & 0x03
		}
		s.Data = (s.Data << 1) & 0xFFFFFF
		s.MCFlop = !s.MCFlop
	}
	if expand {
		s.ExpFlop = !s.ExpFlop
	}

	opaque := s.ColBits != 0
	if s.Left--; s.Left == 0 {
		v.spriteActive &^= bit
	}
	return opaque
}

func (v *VIC) spriteColor(n int) uint8 {
	c := &v.reg.Colors
	switch v.spr[n].ColBits {
	case 1:
		return c[colMM0] & 0x0F
	case 3:
		return c[colMM1] & 0x0F
	}
	return c[colSpr0+n] & 0x0F
}
