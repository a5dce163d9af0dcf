package cpu

// addressing modes
type mode uint8

const (
	imp mode = iota
	acc
	imm
	zp
	zpx
	zpy
	abs
	abx
	aby
	ind
	izx
	izy
	rel
)

// operand size in bytes, opcode excluded.
var modeSize = [...]uint8{
	imp: 0, acc: 0, imm: 1, zp: 1, zpx: 1, zpy: 1,
	abs: 2, abx: 2, aby: 2, ind: 2, izx: 1, izy: 1, rel: 1,
}

type kind uint8

const (
	kImplied kind = iota
	kRead
	kWrite
	kRMW
	kBranch
	kJump
)

type opcode struct {
	name   string
	mode   mode
	cycles uint8
	// extra cycle when the effective address crosses a page.
	extra bool
	kind  kind

	imp func(c *CPU)
	rd  func(c *CPU, val uint8)
	wr  func(c *CPU) uint8
	rmw func(c *CPU, val uint8) uint8
}

func (op *opcode) legal() bool { return op.name != "" }

var ops [256]opcode

func init() {
	initALU()
	initShifts()
	initMisc()
}

func aluOp(name string, base uint8, rd func(*CPU, uint8)) {
	ops[base+0x01] = opcode{name: name, mode: izx, cycles: 6, kind: kRead, rd: rd}
	ops[base+0x05] = opcode{name: name, mode: zp, cycles: 3, kind: kRead, rd: rd}
	ops[base+0x09] = opcode{name: name, mode: imm, cycles: 2, kind: kRead, rd: rd}
	ops[base+0x0D] = opcode{name: name, mode: abs, cycles: 4, kind: kRead, rd: rd}
	ops[base+0x11] = opcode{name: name, mode: izy, cycles: 5, extra: true, kind: kRead, rd: rd}
	ops[base+0x15] = opcode{name: name, mode: zpx, cycles: 4, kind: kRead, rd: rd}
	ops[base+0x19] = opcode{name: name, mode: aby, cycles: 4, extra: true, kind: kRead, rd: rd}
	ops[base+0x1D] = opcode{name: name, mode: abx, cycles: 4, extra: true, kind: kRead, rd: rd}
}

func initALU() {
	aluOp("ORA", 0x00, ORA)
	aluOp("AND", 0x20, AND)
	aluOp("EOR", 0x40, EOR)
	aluOp("ADC", 0x60, ADC)
	aluOp("LDA", 0xA0, LDA)
	aluOp("CMP", 0xC0, CMP)
	aluOp("SBC", 0xE0, SBC)

	sta := func(c *CPU) uint8 { return c.A }
	ops[0x81] = opcode{name: "STA", mode: izx, cycles: 6, kind: kWrite, wr: sta}
	ops[0x85] = opcode{name: "STA", mode: zp, cycles: 3, kind: kWrite, wr: sta}
	ops[0x8D] = opcode{name: "STA", mode: abs, cycles: 4, kind: kWrite, wr: sta}
	ops[0x91] = opcode{name: "STA", mode: izy, cycles: 6, kind: kWrite, wr: sta}
	ops[0x95] = opcode{name: "STA", mode: zpx, cycles: 4, kind: kWrite, wr: sta}
	ops[0x99] = opcode{name: "STA", mode: aby, cycles: 5, kind: kWrite, wr: sta}
	ops[0x9D] = opcode{name: "STA", mode: abx, cycles: 5, kind: kWrite, wr: sta}
}

func initShifts() {
	shift := func(name string, base uint8, f func(*CPU, uint8) uint8, accum bool) {
		ops[base+0x06] = opcode{name: name, mode: zp, cycles: 5, kind: kRMW, rmw: f}
		ops[base+0x0E] = opcode{name: name, mode: abs, cycles: 6, kind: kRMW, rmw: f}
		ops[base+0x16] = opcode{name: name, mode: zpx, cycles: 6, kind: kRMW, rmw: f}
		ops[base+0x1E] = opcode{name: name, mode: abx, cycles: 7, kind: kRMW, rmw: f}
		if accum {
			ops[base+0x0A] = opcode{name: name, mode: acc, cycles: 2, kind: kRMW, rmw: f}
		}
	}
	shift("ASL", 0x00, ASL, true)
	shift("ROL", 0x20, ROL, true)
	shift("LSR", 0x40, LSR, true)
	shift("ROR", 0x60, ROR, true)
	shift("DEC", 0xC0, DEC, false)
	shift("INC", 0xE0, INC, false)
}

func initMisc() {
	implied := func(code uint8, name string, cycles uint8, f func(*CPU)) {
		ops[code] = opcode{name: name, mode: imp, cycles: cycles, kind: kImplied, imp: f}
	}
	read := func(code uint8, name string, m mode, cycles uint8, extra bool, f func(*CPU, uint8)) {
		ops[code] = opcode{name: name, mode: m, cycles: cycles, extra: extra, kind: kRead, rd: f}
	}
	write := func(code uint8, name string, m mode, cycles uint8, f func(*CPU) uint8) {
		ops[code] = opcode{name: name, mode: m, cycles: cycles, kind: kWrite, wr: f}
	}

	implied(0x00, "BRK", 7, BRK)
	implied(0x08, "PHP", 3, PHP)
	implied(0x28, "PLP", 4, PLP)
	implied(0x48, "PHA", 3, PHA)
	implied(0x68, "PLA", 4, PLA)
	implied(0x40, "RTI", 6, RTI)
	implied(0x60, "RTS", 6, RTS)

	for code, name := range map[uint8]string{
		0x10: "BPL", 0x30: "BMI", 0x50: "BVC", 0x70: "BVS",
		0x90: "BCC", 0xB0: "BCS", 0xD0: "BNE", 0xF0: "BEQ",
	} {
		ops[code] = opcode{name: name, mode: rel, cycles: 2, kind: kBranch}
	}

	implied(0x18, "CLC", 2, func(c *CPU) { c.P.set(Carry, false) })
	implied(0x38, "SEC", 2, func(c *CPU) { c.P.set(Carry, true) })
	implied(0x58, "CLI", 2, func(c *CPU) { c.P.set(Interrupt, false) })
	implied(0x78, "SEI", 2, func(c *CPU) { c.P.set(Interrupt, true) })
	implied(0xB8, "CLV", 2, func(c *CPU) { c.P.set(Overflow, false) })
	implied(0xD8, "CLD", 2, func(c *CPU) { c.P.set(Decimal, false) })
	implied(0xF8, "SED", 2, func(c *CPU) { c.P.set(Decimal, true) })

	ops[0x20] = opcode{name: "JSR", mode: abs, cycles: 6, kind: kJump}
	ops[0x4C] = opcode{name: "JMP", mode: abs, cycles: 3, kind: kJump}
	ops[0x6C] = opcode{name: "JMP", mode: ind, cycles: 5, kind: kJump}

	read(0x24, "BIT", zp, 3, false, BIT)
	read(0x2C, "BIT", abs, 4, false, BIT)

	sty := func(c *CPU) uint8 { return c.Y }
	write(0x84, "STY", zp, 3, sty)
	write(0x94, "STY", zpx, 4, sty)
	write(0x8C, "STY", abs, 4, sty)
	stx := func(c *CPU) uint8 { return c.X }
	write(0x86, "STX", zp, 3, stx)
	write(0x96, "STX", zpy, 4, stx)
	write(0x8E, "STX", abs, 4, stx)

	implied(0x88, "DEY", 2, func(c *CPU) { c.Y--; c.P.setNZ(c.Y) })
	implied(0xC8, "INY", 2, func(c *CPU) { c.Y++; c.P.setNZ(c.Y) })
	implied(0xCA, "DEX", 2, func(c *CPU) { c.X--; c.P.setNZ(c.X) })
	implied(0xE8, "INX", 2, func(c *CPU) { c.X++; c.P.setNZ(c.X) })
	implied(0x8A, "TXA", 2, func(c *CPU) { c.A = c.X; c.P.setNZ(c.A) })
	implied(0x98, "TYA", 2, func(c *CPU) { c.A = c.Y; c.P.setNZ(c.A) })
	implied(0xA8, "TAY", 2, func(c *CPU) { c.Y = c.A; c.P.setNZ(c.Y) })
	implied(0xAA, "TAX", 2, func(c *CPU) { c.X = c.A; c.P.setNZ(c.X) })
	implied(0xBA, "TSX", 2, func(c *CPU) { c.X = c.SP; c.P.setNZ(c.X) })
	implied(0x9A, "TXS", 2, func(c *CPU) { c.SP = c.X })
	implied(0xEA, "NOP", 2, func(c *CPU) {})

	ldy := func(c *CPU, v uint8) { c.Y = v; c.P.setNZ(v) }
	read(0xA0, "LDY", imm, 2, false, ldy)
	read(0xA4, "LDY", zp, 3, false, ldy)
	read(0xAC, "LDY", abs, 4, false, ldy)
	read(0xB4, "LDY", zpx, 4, false, ldy)
	read(0xBC, "LDY", abx, 4, true, ldy)
	ldx := func(c *CPU, v uint8) { c.X = v; c.P.setNZ(v) }
	read(0xA2, "LDX", imm, 2, false, ldx)
	read(0xA6, "LDX", zp, 3, false, ldx)
	read(0xAE, "LDX", abs, 4, false, ldx)
	read(0xB6, "LDX", zpy, 4, false, ldx)
	read(0xBE, "LDX", aby, 4, true, ldx)

	cpy := func(c *CPU, v uint8) { c.compare(c.Y, v) }
	read(0xC0, "CPY", imm, 2, false, cpy)
	read(0xC4, "CPY", zp, 3, false, cpy)
	read(0xCC, "CPY", abs, 4, false, cpy)
	cpx := func(c *CPU, v uint8) { c.compare(c.X, v) }
	read(0xE0, "CPX", imm, 2, false, cpx)
	read(0xE4, "CPX", zp, 3, false, cpx)
	read(0xEC, "CPX", abs, 4, false, cpx)
}

// cycleCount returns the number of cycles the instruction at PC takes,
// computed without side effects on the bus.
func (c *CPU) cycleCount(opcode uint8) int {
	op := &ops[opcode]
	if !op.legal() {
		return 2
	}
	n := int(op.cycles)
	switch {
	case op.kind == kBranch:
		if c.branchTaken(opcode) {
			off := int8(c.bus.Peek8(c.PC + 1))
			next := c.PC + 2
			dst := uint16(int32(next) + int32(off))
			n++
			if next&0xFF00 != dst&0xFF00 {
				n++
			}
		}
	case op.extra:
		var base uint16
		var index uint8
		switch op.mode {
		case abx, aby:
			base = uint16(c.bus.Peek8(c.PC+1)) | uint16(c.bus.Peek8(c.PC+2))<<8
			index = c.X
			if op.mode == aby {
				index = c.Y
			}
		case izy:
			ptr := c.bus.Peek8(c.PC + 1)
			base = uint16(c.bus.Peek8(uint16(ptr))) | uint16(c.bus.Peek8(uint16(ptr+1)))<<8
			index = c.Y
		}
		if base&0xFF00 != (base+uint16(index))&0xFF00 {
			n++
		}
	}
	return n
}

func (c *CPU) branchTaken(opcode uint8) bool {
	var flag P
	switch opcode >> 6 {
	case 0:
		flag = Negative
	case 1:
		flag = Overflow
	case 2:
		flag = Carry
	case 3:
		flag = Zero
	}
	return c.P.has(flag) == (opcode&0x20 != 0)
}

// operand fetches the operand bytes and returns the effective address.
func (c *CPU) operand(m mode) uint16 {
	switch m {
	case imm:
		addr := c.PC
		c.PC++
		return addr
	case zp:
		return uint16(c.fetch8())
	case zpx:
		return uint16(c.fetch8() + c.X)
	case zpy:
		return uint16(c.fetch8() + c.Y)
	case abs:
		return c.fetch16()
	case abx:
		return c.fetch16() + uint16(c.X)
	case aby:
		return c.fetch16() + uint16(c.Y)
	case ind:
		ptr := c.fetch16()
		// the high byte is fetched from the same page.
		lo := c.read(ptr)
		hi := c.read(ptr&0xFF00 | uint16(uint8(ptr)+1))
		return uint16(hi)<<8 | uint16(lo)
	case izx:
		ptr := c.fetch8() + c.X
		lo := c.read(uint16(ptr))
		hi := c.read(uint16(ptr + 1))
		return uint16(hi)<<8 | uint16(lo)
	case izy:
		ptr := c.fetch8()
		lo := c.read(uint16(ptr))
		hi := c.read(uint16(ptr + 1))
		return (uint16(hi)<<8 | uint16(lo)) + uint16(c.Y)
	}
	return 0
}

// execute performs the bus accesses and register updates of the
// instruction at PC.
func (c *CPU) execute(opcode uint8) {
	op := &ops[opcode]
	c.PC++
	if !op.legal() {
		c.jam()
		return
	}

	switch op.kind {
	case kImplied:
		op.imp(c)
	case kRead:
		op.rd(c, c.read(c.operand(op.mode)))
	case kWrite:
		c.write(c.operand(op.mode), op.wr(c))
	case kRMW:
		if op.mode == acc {
			c.A = op.rmw(c, c.A)
			return
		}
		addr := c.operand(op.mode)
		val := c.read(addr)
		// the unmodified value is written back first.
		c.write(addr, val)
		c.write(addr, op.rmw(c, val))
	case kBranch:
		off := int8(c.fetch8())
		if c.branchTaken(opcode) {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
	case kJump:
		switch opcode {
		case 0x20: // JSR
			lo := c.fetch8()
			c.push16(c.PC)
			hi := c.read(c.PC)
			c.PC = uint16(hi)<<8 | uint16(lo)
		default:
			c.PC = c.operand(op.mode)
		}
	}
}

func (c *CPU) compare(reg, val uint8) {
	c.P.set(Carry, reg >= val)
	c.P.setNZ(reg - val)
}

/* instructions */

func ORA(c *CPU, val uint8) { c.A |= val; c.P.setNZ(c.A) }
func AND(c *CPU, val uint8) { c.A &= val; c.P.setNZ(c.A) }
func EOR(c *CPU, val uint8) { c.A ^= val; c.P.setNZ(c.A) }
func LDA(c *CPU, val uint8) { c.A = val; c.P.setNZ(c.A) }
func CMP(c *CPU, val uint8) { c.compare(c.A, val) }

func BIT(c *CPU, val uint8) {
	c.P.set(Zero, c.A&val == 0)
	c.P.set(Negative, val&0x80 != 0)
	c.P.set(Overflow, val&0x40 != 0)
}

func ADC(c *CPU, val uint8) {
	carry := uint16(c.P.carry())
	if !c.P.has(Decimal) {
		sum := uint16(c.A) + uint16(val) + carry
		res := uint8(sum)
		c.P.set(Carry, sum > 0xFF)
		c.P.set(Overflow, (c.A^res)&(val^res)&0x80 != 0)
		c.A = res
		c.P.setNZ(res)
		return
	}

	// NMOS decimal mode: N and V come from the intermediate result, Z from
	// the binary sum.
	bin := uint8(uint16(c.A) + uint16(val) + carry)
	lo := uint16(c.A&0x0F) + uint16(val&0x0F) + carry
	if lo > 0x09 {
		lo += 0x06
	}
	tmp := uint16(c.A&0xF0) + uint16(val&0xF0) + lo&0x0F
	if lo > 0x0F {
		tmp += 0x10
	}
	c.P.set(Zero, bin == 0)
	c.P.set(Negative, tmp&0x80 != 0)
	c.P.set(Overflow, (uint16(c.A)^tmp)&0x80 != 0 && (c.A^val)&0x80 == 0)
	if tmp&0x1F0 > 0x90 {
		tmp += 0x60
	}
	c.P.set(Carry, tmp&0xFF0 > 0xF0)
	c.A = uint8(tmp)
}

func SBC(c *CPU, val uint8) {
	borrow := uint32(1 - c.P.carry())
	a, v := uint32(c.A), uint32(val)
	tmp := a - v - borrow

	res := uint8(tmp)
	c.P.set(Carry, tmp < 0x100)
	c.P.set(Overflow, (a^tmp)&(a^v)&0x80 != 0)
	c.P.setNZ(res)
	if !c.P.has(Decimal) {
		c.A = res
		return
	}

	// NMOS decimal mode: flags are those of the binary subtraction.
	lo := a&0x0F - v&0x0F - borrow
	var dec uint32
	if lo&0x10 != 0 {
		dec = (lo-6)&0x0F | (a&0xF0 - v&0xF0 - 0x10)
	} else {
		dec = lo&0x0F | (a&0xF0 - v&0xF0)
	}
	if dec&0x100 != 0 {
		dec -= 0x60
	}
	c.A = uint8(dec)
}

func ASL(c *CPU, val uint8) uint8 {
	c.P.set(Carry, val&0x80 != 0)
	val <<= 1
	c.P.setNZ(val)
	return val
}

func LSR(c *CPU, val uint8) uint8 {
	c.P.set(Carry, val&0x01 != 0)
	val >>= 1
	c.P.setNZ(val)
	return val
}

func ROL(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, val&0x80 != 0)
	val = val<<1 | carry
	c.P.setNZ(val)
	return val
}

func ROR(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, val&0x01 != 0)
	val = val>>1 | carry<<7
	c.P.setNZ(val)
	return val
}

func INC(c *CPU, val uint8) uint8 { val++; c.P.setNZ(val); return val }
func DEC(c *CPU, val uint8) uint8 { val--; c.P.setNZ(val); return val }

func BRK(c *CPU) {
	prev := c.PC - 1
	c.PC++ // padding byte
	c.push16(c.PC)
	c.push8(uint8(c.P | Break | Reserved))
	c.P |= Interrupt
	c.PC = c.read16(IRQVector)
	c.dbg.Interrupt(prev, c.PC, false)
}

func PHP(c *CPU) { c.push8(uint8(c.P | Break | Reserved)) }
func PHA(c *CPU) { c.push8(c.A) }

func PLA(c *CPU) {
	c.A = c.pull8()
	c.P.setNZ(c.A)
}

const pullMask = 0b11001111 // B and U are not real flip-flops

func PLP(c *CPU) {
	c.P = c.P&^pullMask | P(c.pull8())&pullMask
}

func RTI(c *CPU) {
	c.P = c.P&^pullMask | P(c.pull8())&pullMask
	c.PC = c.pull16()
}

func RTS(c *CPU) {
	c.PC = c.pull16() + 1
}
