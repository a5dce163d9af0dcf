package cpu

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
)

// ram is a flat 64KiB address space.
type ram struct {
	mem    [0x10000]uint8
	writes []access
}

type access struct {
	addr uint16
	val  uint8
}

func (r *ram) Read8(addr uint16) uint8 { return r.mem[addr] }
func (r *ram) Peek8(addr uint16) uint8 { return r.mem[addr] }
func (r *ram) Write8(addr uint16, val uint8) {
	r.mem[addr] = val
	r.writes = append(r.writes, access{addr, val})
}

/* cpu specific testing helpers */

func wantMem8(t *testing.T, bus *ram, addr uint16, want uint8) {
	t.Helper()

	if got := bus.mem[addr]; got != want {
		t.Errorf("$%04X = %02X want %02X", addr, got, want)
	}
}

func wantMem(t *testing.T, bus *ram, dl dumpline) {
	t.Helper()

	mem := bus.mem[dl.off : int(dl.off)+len(dl.bytes)]
	if !bytes.Equal(mem, dl.bytes) {
		hd := hex.Dump(mem)
		got := hd[10 : 10+3*len(mem)]
		hd = hex.Dump(dl.bytes)
		want := hd[10 : 10+3*dl.len]
		t.Errorf("mem mismatch at 0x%04x.\ngot: %s\nwant:%s", dl.off, got, want)
	}
}

func runAndCheckState(t *testing.T, cpu *CPU, ncycles int64, states ...any) {
	t.Helper()

	if len(states)%2 != 0 {
		panic("odd number of states")
	}

	checkuint8 := func(name string, got, want uint8) {
		t.Helper()
		if got != want {
			t.Errorf("got %s=$%02X, want $%02X", name, got, want)
		}
	}
	checkflag := func(name string, flag P, want int) {
		t.Helper()
		got := 0
		if cpu.P.has(flag) {
			got = 1
		}
		if got != want {
			t.Errorf("got %s=%d, want %d", name, got, want)
		}
	}

	if testing.Verbose() {
		cpu.SetTraceOutput(tbwriter{t}, nil)
		defer cpu.SetTraceOutput(nil, nil)
	}

	for range ncycles {
		cpu.Tick()
	}

	for i := 0; i < len(states); i += 2 {
		s := states[i].(string)
		switch {
		case s == "A":
			checkuint8("A", cpu.A, uint8(states[i+1].(int)))
		case s == "X":
			checkuint8("X", cpu.X, uint8(states[i+1].(int)))
		case s == "Y":
			checkuint8("Y", cpu.Y, uint8(states[i+1].(int)))
		case s == "SP":
			checkuint8("SP", cpu.SP, uint8(states[i+1].(int)))
		case s == "PC":
			if got, want := cpu.PC, uint16(states[i+1].(int)); got != want {
				t.Errorf("got PC=$%04X, want $%04X", got, want)
			}
		case s == "P":
			if got, want := uint8(cpu.P), uint8(states[i+1].(int)); got != want {
				t.Errorf("got P=$%02X(%s), want $%02X(%s)", got, P(got), want, P(want))
			}
		case len(s) > 1 && s[0] == 'P':
			bit := states[i+1].(int)
			for j := 1; j < len(s); j++ {
				switch s[j] {
				case 'n':
					checkflag("Pn", Negative, bit)
				case 'v':
					checkflag("Pv", Overflow, bit)
				case 'd':
					checkflag("Pd", Decimal, bit)
				case 'i':
					checkflag("Pi", Interrupt, bit)
				case 'z':
					checkflag("Pz", Zero, bit)
				case 'c':
					checkflag("Pc", Carry, bit)
				default:
					panic("unknown P bit: " + string(s[j]))
				}
			}
		case s == "mem":
			bus := cpu.bus.(*ram)
			for _, line := range loadDump(t, states[i+1].(string)) {
				wantMem(t, bus, line)
			}
		default:
			panic("unknown state: " + s)
		}
	}

	if t.Failed() {
		t.FailNow()
	}
}

type dumpline struct {
	off   uint16
	len   uint16 // actual length
	bytes []byte
}

func loadDump(tb testing.TB, dump string) []dumpline {
	tb.Helper()

	var lines []dumpline
	scan := bufio.NewScanner(strings.NewReader(dump))
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		off, octets, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed line: %s", line)
		}

		ioff, err := strconv.ParseUint(strings.TrimSpace(off), 16, 16)
		if err != nil {
			tb.Fatalf("malformed offset %s: %s", off, err)
		}
		var buf []byte
		for _, c := range octets {
			if c != ' ' {
				buf = append(buf, byte(c))
			}
		}
		n, err := hex.Decode(buf, buf)
		if err != nil {
			tb.Fatalf("hex decode: %s", err)
		}
		lines = append(lines, dumpline{off: uint16(ioff), len: uint16(n), bytes: buf[:n]})
	}
	if scan.Err() != nil {
		tb.Fatalf("scan error: %s", scan.Err())
	}

	return lines
}

// loadCPUWith loads a CPU with a memory dump and resets it.
func loadCPUWith(tb testing.TB, dump string) (*CPU, *ram) {
	tb.Helper()

	bus := &ram{}
	for _, line := range loadDump(tb, dump) {
		copy(bus.mem[line.off:], line.bytes)
	}

	cpu := New(bus)
	cpu.Reset()
	return cpu, bus
}

type tbwriter struct {
	testing.TB
}

func (t tbwriter) Write(p []byte) (int, error) {
	t.TB.Helper()
	t.TB.Log(string(bytes.TrimSpace((p))))
	return len(p), nil
}

type recDebugger struct {
	nopDebugger
	jams       []uint16
	interrupts []bool
}

func (d *recDebugger) Jam(pc uint16, _ uint8) { d.jams = append(d.jams, pc) }

func (d *recDebugger) Interrupt(_, _ uint16, nmi bool) {
	d.interrupts = append(d.interrupts, nmi)
}
