package snapshot

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testMachine() *Machine {
	m := &Machine{
		Standard: 1,
		Clock:    123456789,
		Frame:    42,
		Line:     51,
		Cycle:    14,
	}
	m.Scheduler.NextTrigger = 1000
	for i := range m.Scheduler.Trigger {
		m.Scheduler.Trigger[i] = int64(i) * 100
		m.Scheduler.ID[i] = int32(i)
	}
	m.CPU = CPU{A: 1, X: 2, Y: 3, SP: 0xFD, PC: 0xFCE2, P: 0x24, Cycles: 99, Left: -1}
	for i := range m.Mem.RAM {
		m.Mem.RAM[i] = uint8(i * 7)
	}
	m.Mem.Color[0x3FF] = 0x0E
	m.VIC.Regs.SprX[7] = 0x1FF
	m.VIC.Regs.Colors[0] = 6
	m.VIC.Sprites[3].Data = 0xFFFFFF
	m.VIC.Matrix[39] = 0xA0
	m.CIA1.Stages[2].CountA = true
	m.CIA2.TOD.Time = [4]uint8{1, 2, 3, 0x92}
	m.SID.Voices[2].Acc = 0xABCDEF
	m.SID.Output = -1234
	m.Input.Keys[7] = 0x80
	m.Drives[0].Disk = []byte{1, 2, 3}
	m.Drives[1].Serial.Channels[15] = "I0"
	m.Drives[1].Serial.Buf = []byte("$")
	m.Datasette.Head = 77
	return m
}

func TestRoundTrip(t *testing.T) {
	m := testMachine()
	data, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}

	var got Machine
	if err := Decode(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*m, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegrity(t *testing.T) {
	data, err := Encode(testMachine())
	if err != nil {
		t.Fatal(err)
	}
	corrupt := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), data...)
		return f(b)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b }), ErrSnapshotMagic},
		{"short", data[:10], ErrSnapshotMagic},
		{"version", corrupt(func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[4:], Version+1)
			return b
		}), ErrSnapshotVersion},
		{"payload", corrupt(func(b []byte) []byte { b[len(b)-2] ^= 0x01; return b }), ErrSnapshotChecksum},
		{"truncated", data[:len(data)-1], ErrSnapshotChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Machine{Frame: 7}
			err := Decode(tt.data, &m)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() = %v, want %v", err, tt.want)
			}
			if m.Frame != 7 {
				t.Errorf("machine modified by a failed Decode")
			}
		})
	}
}

func TestReadHeader(t *testing.T) {
	data, err := Encode(&Machine{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := ReadHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Version != Version || int(h.Size) != len(data)-headerSize {
		t.Errorf("header = %+v", h)
	}
}
