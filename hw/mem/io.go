package mem

import "c64core/hw/hwio"

// ioArea is the $D000-$DFFF I/O area.
type ioArea struct {
	// $D000-$D3FF, 64 registers mirrored
	VIC hwio.Device `hwio:"offset=0x000,size=0x400,rcb,pcb,wcb"`
	// $D400-$D7FF, 32 registers mirrored
	SID hwio.Device `hwio:"offset=0x400,size=0x400,rcb,pcb,wcb"`
	// $D800-$DBFF, 4 bits wide
	COLOR hwio.Device `hwio:"offset=0x800,size=0x400,rcb,pcb,wcb"`
	// $DC00-$DCFF, 16 registers mirrored
	CIA1 hwio.Device `hwio:"offset=0xC00,size=0x100,rcb,pcb,wcb"`
	// $DD00-$DDFF, 16 registers mirrored
	CIA2 hwio.Device `hwio:"offset=0xD00,size=0x100,rcb,pcb,wcb"`
	// $DE00-$DFFF, expansion port I/O1 and I/O2, nothing connected
	EXP hwio.Device `hwio:"offset=0xE00,size=0x200,rcb,pcb"`

	chips Chips
	mem   *Memory
}

func (io *ioArea) ReadVIC(addr uint16) uint8       { return io.chips.VIC.Read(addr & 0x3F) }
func (io *ioArea) PeekVIC(addr uint16) uint8       { return io.chips.VIC.Peek(addr & 0x3F) }
func (io *ioArea) WriteVIC(addr uint16, val uint8) { io.chips.VIC.Write(addr&0x3F, val) }

func (io *ioArea) ReadSID(addr uint16) uint8       { return io.chips.SID.Read(addr & 0x1F) }
func (io *ioArea) PeekSID(addr uint16) uint8       { return io.chips.SID.Peek(addr & 0x1F) }
func (io *ioArea) WriteSID(addr uint16, val uint8) { io.chips.SID.Write(addr&0x1F, val) }

// The upper nibble of color RAM is not connected and reads as set.
func (io *ioArea) ReadCOLOR(addr uint16) uint8 { return io.mem.Color[addr&0x3FF] | 0xF0 }
func (io *ioArea) PeekCOLOR(addr uint16) uint8 { return io.mem.Color[addr&0x3FF] | 0xF0 }
func (io *ioArea) WriteCOLOR(addr uint16, val uint8) {
	io.mem.Color[addr&0x3FF] = val & 0x0F
}

func (io *ioArea) ReadCIA1(addr uint16) uint8       { return io.chips.CIA1.Read(addr & 0x0F) }
func (io *ioArea) PeekCIA1(addr uint16) uint8       { return io.chips.CIA1.Peek(addr & 0x0F) }
func (io *ioArea) WriteCIA1(addr uint16, val uint8) { io.chips.CIA1.Write(addr&0x0F, val) }

func (io *ioArea) ReadCIA2(addr uint16) uint8       { return io.chips.CIA2.Read(addr & 0x0F) }
func (io *ioArea) PeekCIA2(addr uint16) uint8       { return io.chips.CIA2.Peek(addr & 0x0F) }
func (io *ioArea) WriteCIA2(addr uint16, val uint8) { io.chips.CIA2.Write(addr&0x0F, val) }

func (io *ioArea) ReadEXP(addr uint16) uint8 { return 0xFF }
func (io *ioArea) PeekEXP(addr uint16) uint8 { return 0xFF }
