package hwio

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = (1 << iota)
)

// Mem is a linear memory area that can be mapped into a Table. VSize may be
// larger than len(Data), in which case the area is mirrored.
type Mem struct {
	Name    string
	Data    []byte
	VSize   int
	Flags   MemFlags
	WriteCb func(uint16, uint8) // if set, called instead of writing
}

// BankIO8 returns an adaptor exposing m on a Table. Each access is
// relative to the base address m is mapped at.
func (m *Mem) BankIO8(base uint16) BankIO8 {
	if len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		buf:  m.Data,
		base: base,
		mask: uint16(len(m.Data) - 1),
		wcb:  m.WriteCb,
		ro:   m.Flags&MemFlagReadOnly != 0,
	}
}

type mem struct {
	buf  []byte
	base uint16
	mask uint16
	wcb  func(uint16, uint8)
	ro   bool
}

func (m *mem) Read8(addr uint16) uint8 { return m.buf[(addr-m.base)&m.mask] }
func (m *mem) Peek8(addr uint16) uint8 { return m.buf[(addr-m.base)&m.mask] }

func (m *mem) Write8(addr uint16, val uint8) {
	switch {
	case m.wcb != nil:
		m.wcb(addr, val)
	case !m.ro:
		m.buf[(addr-m.base)&m.mask] = val
	}
}
