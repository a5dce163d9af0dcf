package cpu

import (
	"fmt"
	"io"
)

// Positioner gives the raster position of the machine, shown in the
// execution trace.
type Positioner interface {
	YCounter() uint16
	XCounter() uint16
}

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock int64
}

type tracer struct {
	w   io.Writer
	pos Positioner
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// write the execution trace for the instruction about to run.
func (t *tracer) write(c *CPU, state cpuState) {
	const totalLen = 88
	buf := make([]byte, totalLen)

	dis := Disasm(c.bus, state.PC)
	buf = append(buf[:0], dis.Bytes()...)
	off := min(totalLen, len(buf))
	buf = buf[:max(totalLen, len(buf))]

	for off < 49 {
		buf[off] = ' '
		off++
	}

	regs := [...]struct {
		name byte
		val  uint8
	}{
		{'A', state.A},
		{'X', state.X},
		{'Y', state.Y},
		{'P', uint8(state.P)},
		{'S', state.SP},
	}
	for _, r := range regs {
		buf[off] = r.name
		buf[off+1] = ':'
		hexEncode(buf[off+2:], r.val)
		buf[off+4] = ' '
		off += 5
	}

	if t.pos != nil {
		buf = fmt.Appendf(buf[:off], "VIC:%-3d,%-3d %d\n", t.pos.YCounter(), t.pos.XCounter(), state.Clock)
	} else {
		buf = fmt.Appendf(buf[:off], "%d\n", state.Clock)
	}
	t.w.Write(buf)
}

// Bytes returns the string representation of a DisasmOp, this is optimized
// version, suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], []byte(d.Opcode))
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}
