package cpu

// P is the processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) has(flag P) bool { return p&flag != 0 }

func (p *P) set(flag P, on bool) {
	if on {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p *P) setNZ(val uint8) {
	p.set(Zero, val == 0)
	p.set(Negative, val&0x80 != 0)
}

func (p P) carry() uint8 {
	return uint8(p & Carry)
}
