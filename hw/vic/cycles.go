package vic

import "fmt"

//go:generate go tool stringer -type=CycleKind -output=cyclekind_string.go

// CycleKind identifies what the chip does during one raster cycle. Cycles 19
// to 54 all behave the same and share a kind.
type CycleKind uint8

const (
	CycleInvalid CycleKind = iota
	Cycle1
	Cycle2
	Cycle3
	Cycle4
	Cycle5
	Cycle6
	Cycle7
	Cycle8
	Cycle9
	Cycle10
	Cycle11
	Cycle12
	Cycle13
	Cycle14
	Cycle15
	Cycle16
	Cycle17
	Cycle18
	CycleCanvas
	Cycle55
	Cycle56
	Cycle57
	Cycle58
	Cycle59
	Cycle60
	Cycle61
	Cycle62
	Cycle63
	Cycle64
	Cycle65
)

var kindTables = [...][]CycleKind{
	PAL:  buildKinds(PAL),
	NTSC: buildKinds(NTSC),
}

func buildKinds(std Standard) []CycleKind {
	n := std.CyclesPerLine()
	kinds := make([]CycleKind, n+1)
	for c := 1; c <= n; c++ {
		switch {
		case c <= 18:
			kinds[c] = Cycle1 + CycleKind(c-1)
		case c <= 54:
			kinds[c] = CycleCanvas
		default:
			kinds[c] = Cycle55 + CycleKind(c-55)
		}
	}
	return kinds
}

// KindOf returns the kind of raster cycle cycle (1-based) for std.
func KindOf(std Standard, cycle int) CycleKind {
	kinds := kindTables[std]
	if cycle < 1 || cycle >= len(kinds) {
		panic(fmt.Sprintf("vic: %s: raster cycle %d out of range", std, cycle))
	}
	if kinds[cycle] == CycleInvalid {
		panic(fmt.Sprintf("vic: %s: malformed dispatch table at cycle %d", std, cycle))
	}
	return kinds[cycle]
}

func (v *VIC) kindOf(cycle int) CycleKind {
	if cycle < 1 || cycle >= len(v.kinds) || v.kinds[cycle] == CycleInvalid {
		return KindOf(v.cfg.Standard, cycle)
	}
	return v.kinds[cycle]
}

// First cycle of the two-cycle fetch window of each sprite (pointer and
// first data byte, then second and third data byte).
var spriteFetchStart = [...][8]int{
	PAL:  {58, 60, 62, 1, 3, 5, 7, 9},
	NTSC: {59, 61, 63, 65, 2, 4, 6, 8},
}

var spriteBATables = [...][]uint8{
	PAL:  buildSpriteBA(PAL),
	NTSC: buildSpriteBA(NTSC),
}

// buildSpriteBA computes, for each raster cycle, the sprites whose DMA
// claims the bus. BA goes low 3 cycles before the first fetch cycle of a
// sprite and stays low until the end of its second fetch cycle.
func buildSpriteBA(std Standard) []uint8 {
	n := std.CyclesPerLine()
	tbl := make([]uint8, n+1)
	for spr, first := range spriteFetchStart[std] {
		for d := -3; d <= 1; d++ {
			c := (first-1+d+n)%n + 1
			tbl[c] |= 1 << spr
		}
	}
	return tbl
}

// runPAL executes one raster cycle of the 6569.
func (v *VIC) runPAL(k CycleKind) {
	v.draw()

	canvas := false
	switch k {
	case Cycle1:
		v.beginScanline()
		v.spriteFetchA(3)
	case Cycle2:
		v.rasterOverflow()
		v.spriteFetchB(3)
	case Cycle3:
		v.spriteFetchA(4)
	case Cycle4:
		v.spriteFetchB(4)
	case Cycle5:
		v.spriteFetchA(5)
	case Cycle6:
		v.spriteFetchB(5)
	case Cycle7:
		v.spriteFetchA(6)
	case Cycle8:
		v.spriteFetchB(6)
	case Cycle9:
		v.spriteFetchA(7)
	case Cycle10:
		v.spriteFetchB(7)
	case Cycle11:
		v.rAccess()
	case Cycle12, Cycle13, Cycle15:
		v.rAccess()
		canvas = true
	case Cycle14:
		v.rAccess()
		v.loadVC()
		canvas = true
	case Cycle16:
		v.gAccess()
		v.turnSpriteDMAOff()
		canvas = true
	case Cycle17:
		v.checkLeft(left40)
		v.gAccess()
		v.sr.CanLoad = true
		canvas = true
	case Cycle18:
		v.checkLeft(left38)
		v.gAccess()
		canvas = true
	case CycleCanvas:
		v.gAccess()
		canvas = true
	case Cycle55:
		v.gAccess()
		v.toggleExpansion()
		v.turnSpriteDMAOn()
	case Cycle56:
		v.checkRight(right38)
		v.turnSpriteDMAOn()
	case Cycle57:
		v.checkRight(right40)
		v.sr.CanLoad = false
	case Cycle58:
		v.turnSpritesOnOrOff()
		v.updateRC()
		v.spriteFetchA(0)
	case Cycle59:
		v.spriteFetchB(0)
	case Cycle60:
		v.spriteFetchA(1)
	case Cycle61:
		v.spriteFetchB(1)
	case Cycle62:
		v.spriteFetchA(2)
	case Cycle63:
		v.spriteFetchB(2)
	default:
		panic(fmt.Sprintf("vic: PAL: no procedure for %s", k))
	}

	v.busCycle(canvas)
	v.endCycle()
}

// runNTSC executes one raster cycle of the 6567. The line is two cycles
// longer than on PAL; sprite fetches start one cycle later.
func (v *VIC) runNTSC(k CycleKind) {
	v.draw()

	canvas := false
	switch k {
	case Cycle1:
		v.beginScanline()
		v.spriteFetchB(3)
	case Cycle2:
		v.rasterOverflow()
		v.spriteFetchA(4)
	case Cycle3:
		v.spriteFetchB(4)
	case Cycle4:
		v.spriteFetchA(5)
	case Cycle5:
		v.spriteFetchB(5)
	case Cycle6:
		v.spriteFetchA(6)
	case Cycle7:
		v.spriteFetchB(6)
	case Cycle8:
		v.spriteFetchA(7)
	case Cycle9:
		v.spriteFetchB(7)
	case Cycle10:
		v.iAccess()
	case Cycle11:
		v.rAccess()
	case Cycle12, Cycle13, Cycle15:
		v.rAccess()
		canvas = true
	case Cycle14:
		v.rAccess()
		v.loadVC()
		canvas = true
	case Cycle16:
		v.gAccess()
		v.turnSpriteDMAOff()
		canvas = true
	case Cycle17:
		v.checkLeft(left40)
		v.gAccess()
		v.sr.CanLoad = true
		canvas = true
	case Cycle18:
		v.checkLeft(left38)
		v.gAccess()
		canvas = true
	case CycleCanvas:
		v.gAccess()
		canvas = true
	case Cycle55:
		v.gAccess()
		v.toggleExpansion()
		v.turnSpriteDMAOn()
	case Cycle56:
		v.checkRight(right38)
		v.turnSpriteDMAOn()
	case Cycle57:
		v.checkRight(right40)
		v.sr.CanLoad = false
	case Cycle58:
		v.turnSpritesOnOrOff()
		v.updateRC()
		v.iAccess()
	case Cycle59:
		v.spriteFetchA(0)
	case Cycle60:
		v.spriteFetchB(0)
	case Cycle61:
		v.spriteFetchA(1)
	case Cycle62:
		v.spriteFetchB(1)
	case Cycle63:
		v.spriteFetchA(2)
	case Cycle64:
		v.spriteFetchB(2)
	case Cycle65:
		v.spriteFetchA(3)
	default:
		panic(fmt.Sprintf("vic: NTSC: no procedure for %s", k))
	}

	v.busCycle(canvas)
	v.endCycle()
}
