package cpu

import (
	"fmt"
)

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

func (d DisasmOp) String() string {
	return string(d.Bytes())
}

// Size returns the instruction size in bytes.
func (d DisasmOp) Size() int { return len(d.Buf) }

// Disasm disassembles the instruction at pc, reading memory without side
// effects.
func Disasm(bus Bus, pc uint16) DisasmOp {
	opcode := bus.Peek8(pc)
	op := &ops[opcode]
	if !op.legal() {
		return DisasmOp{Opcode: "JAM", Buf: []byte{opcode}, PC: pc}
	}

	n := int(modeSize[op.mode])
	buf := make([]byte, 1+n)
	buf[0] = opcode
	for i := 1; i <= n; i++ {
		buf[i] = bus.Peek8(pc + uint16(i))
	}

	var oper string
	switch op.mode {
	case acc:
		oper = "A"
	case imm:
		oper = fmt.Sprintf("#$%02X", buf[1])
	case zp:
		oper = fmt.Sprintf("$%02X", buf[1])
	case zpx:
		oper = fmt.Sprintf("$%02X,X", buf[1])
	case zpy:
		oper = fmt.Sprintf("$%02X,Y", buf[1])
	case abs:
		oper = formatAddr(uint16(buf[1]) | uint16(buf[2])<<8)
	case abx:
		oper = formatAddr(uint16(buf[1])|uint16(buf[2])<<8) + ",X"
	case aby:
		oper = formatAddr(uint16(buf[1])|uint16(buf[2])<<8) + ",Y"
	case ind:
		oper = "(" + formatAddr(uint16(buf[1])|uint16(buf[2])<<8) + ")"
	case izx:
		oper = fmt.Sprintf("($%02X,X)", buf[1])
	case izy:
		oper = fmt.Sprintf("($%02X),Y", buf[1])
	case rel:
		dst := uint16(int32(pc) + 2 + int32(int8(buf[1])))
		oper = fmt.Sprintf("$%04X", dst)
	}

	return DisasmOp{
		Opcode: op.name,
		Oper:   oper,
		Buf:    buf,
		PC:     pc,
	}
}

var addressLabels = map[uint16]string{
	0xD011: "VicCtrl1_D011",
	0xD012: "VicRaster_D012",
	0xD015: "VicSprEnable_D015",
	0xD016: "VicCtrl2_D016",
	0xD018: "VicMemPtr_D018",
	0xD019: "VicIRR_D019",
	0xD01A: "VicIMR_D01A",
	0xD020: "VicBorder_D020",
	0xD021: "VicBG0_D021",
	0xD400: "SidV1FreqLo_D400",
	0xD418: "SidVolume_D418",
	0xDC00: "Cia1PRA_DC00",
	0xDC01: "Cia1PRB_DC01",
	0xDC0D: "Cia1ICR_DC0D",
	0xDC0E: "Cia1CRA_DC0E",
	0xDC0F: "Cia1CRB_DC0F",
	0xDD00: "Cia2PRA_DD00",
	0xDD0D: "Cia2ICR_DD0D",
	0xFFFA: "NMIVector_FFFA",
	0xFFFC: "ResetVector_FFFC",
	0xFFFE: "IRQVector_FFFE",
}

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}
