// Package mem implements the C64 address space: 64KiB of RAM, the Basic,
// Kernal and character ROMs, the 1KiB color RAM, the I/O area and the 6510
// processor port selecting which of them the CPU sees.
package mem

import (
	"errors"
	"fmt"

	"c64core/emu/log"
	"c64core/hw/hwio"
	"c64core/hw/snapshot"
)

const (
	BasicSize  = 0x2000
	KernalSize = 0x2000
	CharSize   = 0x1000
)

// ErrMissingROM is returned when a firmware image is absent or has the
// wrong size.
var ErrMissingROM = errors.New("missing firmware image")

// ROMs holds the firmware images.
type ROMs struct {
	Basic  []byte
	Kernal []byte
	Char   []byte
}

// Validate checks that all images are present with their expected size.
func (r ROMs) Validate() error {
	for _, rom := range []struct {
		name string
		data []byte
		size int
	}{
		{"basic", r.Basic, BasicSize},
		{"kernal", r.Kernal, KernalSize},
		{"char", r.Char, CharSize},
	} {
		if len(rom.data) != rom.size {
			return fmt.Errorf("%w: %s: got %d bytes, want %d", ErrMissingROM, rom.name, len(rom.data), rom.size)
		}
	}
	return nil
}

// Chip is a device mapped in the I/O area. Offsets are relative to the
// chip base address; the chip handles its own mirroring.
type Chip interface {
	Read(off uint16) uint8
	Peek(off uint16) uint8
	Write(off uint16, val uint8)
}

// Chips are the devices of the I/O area.
type Chips struct {
	VIC, SID, CIA1, CIA2 Chip
}

// Tape is the datasette side of the processor port.
type Tape interface {
	// SetMotor is called when the motor line changes.
	SetMotor(on bool)
	// Sense reports whether a datasette button is pressed.
	Sense() bool
}

// processor port bits
const (
	portLORAM  = 0x01
	portHIRAM  = 0x02
	portCHAREN = 0x04
	portSense  = 0x10
	portMotor  = 0x20
)

type Memory struct {
	RAM   [0x10000]uint8
	Color [0x400]uint8
	roms  ROMs

	Bus *hwio.Table
	io  ioArea

	// fixed areas
	ram, basic, kernal, char, ramA, ramD, ramE hwio.Mem
	port                                       hwio.Device

	ddr, out uint8
	config   uint8 // LORAM/HIRAM/CHAREN as seen by the PLA
	mapped   bool
	motor    bool

	vicBase uint16
	tape    Tape
}

// New creates the address space. The chips and the firmware images are
// shared, not copied.
func New(roms ROMs, chips Chips, tape Tape) *Memory {
	m := &Memory{
		roms: roms,
		tape: tape,
		Bus:  hwio.NewTable("cpu"),
	}
	m.io.chips = chips
	m.io.mem = m
	hwio.MustInitRegs(&m.io)

	ramWrite := func(addr uint16, val uint8) { m.RAM[addr] = val }
	m.ram = hwio.Mem{Name: "RAM", Data: m.RAM[:], VSize: len(m.RAM)}
	m.ramA = hwio.Mem{Name: "RAM", Data: m.RAM[0xA000:0xC000], VSize: 0x2000}
	m.ramD = hwio.Mem{Name: "RAM", Data: m.RAM[0xD000:0xE000], VSize: 0x1000}
	m.ramE = hwio.Mem{Name: "RAM", Data: m.RAM[0xE000:], VSize: 0x2000}
	m.basic = hwio.Mem{Name: "Basic", Data: roms.Basic, VSize: BasicSize, Flags: hwio.MemFlagReadOnly, WriteCb: ramWrite}
	m.kernal = hwio.Mem{Name: "Kernal", Data: roms.Kernal, VSize: KernalSize, Flags: hwio.MemFlagReadOnly, WriteCb: ramWrite}
	m.char = hwio.Mem{Name: "Char", Data: roms.Char, VSize: CharSize, Flags: hwio.MemFlagReadOnly, WriteCb: ramWrite}
	m.port = hwio.Device{
		Name:    "6510 port",
		Size:    2,
		ReadCb:  m.readPort,
		PeekCb:  m.readPort,
		WriteCb: m.writePort,
	}

	m.Reset()
	return m
}

// Reset sets RAM to its power-on pattern and the processor port to inputs.
func (m *Memory) Reset() {
	for i := range m.RAM {
		if i&0x40 != 0 {
			m.RAM[i] = 0xFF
		} else {
			m.RAM[i] = 0x00
		}
	}
	clear(m.Color[:])
	m.ddr, m.out = 0, 0
	m.motor = false
	m.vicBase = 0
	m.mapped = false

	m.Bus.Reset()
	m.Bus.MapMem(0x0000, &m.ram)
	m.Bus.MapDevice(0x0000, &m.port)
	m.remap()
}

func (m *Memory) Read8(addr uint16) uint8       { return m.Bus.Read8(addr) }
func (m *Memory) Peek8(addr uint16) uint8       { return m.Bus.Peek8(addr) }
func (m *Memory) Write8(addr uint16, val uint8) { m.Bus.Write8(addr, val) }
func (m *Memory) Config() (loram, hiram, charen bool) {
	return m.config&portLORAM != 0, m.config&portHIRAM != 0, m.config&portCHAREN != 0
}

/* processor port */

func (m *Memory) readPort(addr uint16) uint8 {
	if addr == 0 {
		return m.ddr
	}
	ext := uint8(portLORAM | portHIRAM | portCHAREN | portSense)
	if m.tape != nil && m.tape.Sense() {
		ext &^= portSense
	}
	return m.out&m.ddr | ext&^m.ddr
}

func (m *Memory) writePort(addr uint16, val uint8) {
	// The RAM underneath is written too, the VIC sees it.
	m.RAM[addr] = val
	if addr == 0 {
		m.ddr = val
	} else {
		m.out = val
	}
	m.remap()

	motor := m.ddr&portMotor != 0 && m.out&portMotor == 0
	if motor != m.motor {
		m.motor = motor
		log.ModMem.DebugZ("datasette motor").Bool("on", motor).End()
		if m.tape != nil {
			m.tape.SetMotor(motor)
		}
	}
}

// remap updates the memory map after a processor port change. Inputs are
// pulled up.
func (m *Memory) remap() {
	cfg := (m.out | ^m.ddr) & (portLORAM | portHIRAM | portCHAREN)
	if m.mapped && cfg == m.config {
		return
	}
	m.config, m.mapped = cfg, true

	loram, hiram, charen := m.Config()
	log.ModMem.DebugZ("bank switch").
		Bool("loram", loram).
		Bool("hiram", hiram).
		Bool("charen", charen).
		End()

	if loram && hiram {
		m.Bus.MapMem(0xA000, &m.basic)
	} else {
		m.Bus.MapMem(0xA000, &m.ramA)
	}

	switch {
	case !loram && !hiram:
		m.Bus.MapMem(0xD000, &m.ramD)
	case charen:
		m.Bus.MapBank(0xD000, &m.io, 0)
	default:
		m.Bus.MapMem(0xD000, &m.char)
	}

	if hiram {
		m.Bus.MapMem(0xE000, &m.kernal)
	} else {
		m.Bus.MapMem(0xE000, &m.ramE)
	}
}

/* VIC view */

// SetVICBank selects the 16KiB bank the VIC sees. bank is the value of
// CIA2 port A bits 0-1, inverted: bank 0 is $0000-$3FFF.
func (m *Memory) SetVICBank(bank uint8) {
	m.vicBase = uint16(bank&3) << 14
}

func (m *Memory) VICBank() uint8 { return uint8(m.vicBase >> 14) }

// VICRead reads the 14-bit VIC address addr in the current bank. The
// character ROM shows at $1000-$1FFF in banks 0 and 2.
func (m *Memory) VICRead(addr uint16) uint8 {
	addr &= 0x3FFF
	if m.vicBase&0x4000 == 0 && addr&0x3000 == 0x1000 {
		return m.roms.Char[addr&0x0FFF]
	}
	return m.RAM[m.vicBase|addr]
}

// ColorRAM returns the color nibble at offset off.
func (m *Memory) ColorRAM(off uint16) uint8 {
	return m.Color[off&0x3FF] & 0x0F
}

/* snapshot */

func (m *Memory) SaveState(st *snapshot.Mem) {
	st.RAM = m.RAM
	st.Color = m.Color
	st.DDR, st.Port = m.ddr, m.out
	st.Motor = m.motor
	st.VICBank = m.VICBank()
}

func (m *Memory) LoadState(st *snapshot.Mem) {
	m.RAM = st.RAM
	m.Color = st.Color
	m.ddr, m.out = st.DDR, st.Port
	m.motor = st.Motor
	m.SetVICBank(st.VICBank)
	m.mapped = false
	m.remap()
}
