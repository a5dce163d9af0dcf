package hwio

import (
	"fmt"

	"c64core/emu/log"
)

type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads without side effects (debugger, tracer).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Table maps every address of a 16-bit bus to a BankIO8. Accesses to
// addresses with no mapping are forwarded to Unmapped when set.
type Table struct {
	Name     string
	Unmapped BankIO8

	entries [0x10000]BankIO8
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	clear(t.entries[:])
}

// MapBank maps a register bank, that is a struct with hwio.Reg8, hwio.Mem
// and hwio.Device fields carrying a "hwio" struct tag. The tag accepts:
//
//	offset=0x12     byte offset within the bank. Fields without an offset are
//	                not part of any bank.
//	bank=N          bank number, default 0. A struct can expose several banks
//	                mapped at different addresses.
//
// MustInitRegs must have been called on the struct before.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.ptr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		begin := addr + reg.offset
		switch r := reg.ptr.(type) {
		case *Mem:
			t.Unmap(begin, begin+uint16(r.VSize-1))
		case *Reg8:
			t.Unmap(begin, begin)
		case *Device:
			t.Unmap(begin, begin+uint16(r.Size-1))
		}
	}
}

func (t *Table) mapRange(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > len(t.entries) {
		panic(fmt.Errorf("hwio: %s: invalid mapping at %04x, size %x", t.Name, addr, size))
	}
	for i := range size {
		t.entries[int(addr)+i] = io
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapRange(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	t.mapRange(addr, io.Size, io)
}

func (t *Table) MapMem(addr uint16, m *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", m.VSize).
		String("area", m.Name).
		String("bus", t.Name).
		End()

	t.mapRange(addr, m.VSize, m.BankIO8(addr))
}

// MapMemorySlice maps buf on the inclusive range [addr, end], mirroring it if
// the range is larger than buf.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlagReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  buf,
		Flags: flags,
		VSize: int(end) - int(addr) + 1,
	})
}

// Unmap removes any mapping on the inclusive range [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	for i := int(begin); i <= int(end); i++ {
		t.entries[i] = nil
	}
}

func (t *Table) Read8(addr uint16) uint8 {
	if io := t.entries[addr]; io != nil {
		return io.Read8(addr)
	}
	if t.Unmapped != nil {
		return t.Unmapped.Read8(addr)
	}
	return 0
}

func (t *Table) Peek8(addr uint16) uint8 {
	if io := t.entries[addr]; io != nil {
		return io.Peek8(addr)
	}
	if t.Unmapped != nil {
		return t.Unmapped.Peek8(addr)
	}
	return 0
}

func (t *Table) Write8(addr uint16, val uint8) {
	if io := t.entries[addr]; io != nil {
		io.Write8(addr, val)
		return
	}
	if t.Unmapped != nil {
		t.Unmapped.Write8(addr, val)
	}
}
