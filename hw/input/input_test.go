package input

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

type event struct {
	slot    sched.Slot
	trigger int64
	id      sched.EventID
}

type fakeSched struct {
	now    int64
	events map[sched.Slot]event
}

func newFakeSched() *fakeSched { return &fakeSched{events: make(map[sched.Slot]event)} }

func (s *fakeSched) Now() int64 { return s.now }
func (s *fakeSched) ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64) {
	s.events[slot] = event{slot, trigger, id}
}
func (s *fakeSched) Cancel(slot sched.Slot) { delete(s.events, slot) }

type nmiRec struct{ lines []bool }

func (n *nmiRec) SetLine(asserted bool) { n.lines = append(n.lines, asserted) }

const testClockHz = 1000000

func newTestInput(t *testing.T, cfg Config) (*Input, *fakeSched, *nmiRec) {
	t.Helper()
	s := newFakeSched()
	nmi := &nmiRec{}
	return New(cfg, testClockHz, s, nmi), s, nmi
}

func TestKeyboardScan(t *testing.T) {
	in, _, _ := newTestInput(t, Config{})
	in.Keyboard.Press(KeyA)

	pa, pb := in.PortA(), in.PortB()

	tests := []struct {
		cols uint8
		want uint8
	}{
		{0xFF, 0xFF},
		{0xFE, 0xFF},
		{0xFD, 0xFB},
		{0x00, 0xFB},
	}
	for _, tt := range tests {
		pa.Write(tt.cols, 0xFF)
		if got := pb.Read(0x00, 0x00); got != tt.want {
			t.Errorf("columns %02X: port B = %02X, want %02X", tt.cols, got, tt.want)
		}
	}

	// Reverse scan, rows driven from port B.
	pa.Write(0xFF, 0x00)
	pb.Write(0xFB, 0xFF)
	if got := pa.Read(0x00, 0x00); got != 0xFD {
		t.Errorf("reverse scan: port A = %02X, want FD", got)
	}

	in.Keyboard.Release(KeyA)
	if got := pa.Read(0x00, 0x00); got != 0xFF {
		t.Errorf("after release: port A = %02X, want FF", got)
	}
}

func TestJoysticks(t *testing.T) {
	in, _, _ := newTestInput(t, Config{})

	in.Joy[1].Press(JoyFire)
	in.Joy[0].Press(JoyUp)
	in.Joy[0].Press(JoyLeft)

	if got := in.PortA().Read(0x00, 0x00); got != 0xEF {
		t.Errorf("port A = %02X, want EF", got)
	}
	if got := in.PortB().Read(0x00, 0x00); got != 0xFA {
		t.Errorf("port B = %02X, want FA", got)
	}

	// Output pins driven low win.
	if got := in.PortA().Read(0x7F, 0xFF); got != 0x6F {
		t.Errorf("port A = %02X, want 6F", got)
	}
}

func TestAutofire(t *testing.T) {
	in, s, _ := newTestInput(t, Config{AutofireHz: 10})

	in.SetAutofire(1, true)
	ev, ok := s.events[sched.AFI]
	if !ok {
		t.Fatalf("AFI not scheduled")
	}
	if want := int64(testClockHz / 20); ev.trigger != want {
		t.Errorf("AFI trigger = %d, want %d", ev.trigger, want)
	}

	in.Joy[1].Press(JoyFire)
	var got []uint8
	for range 4 {
		got = append(got, in.PortA().Read(0, 0))
		s.now = s.events[sched.AFI].trigger
		in.HandleAutofire(sched.AFIFire, 0)
	}
	if diff := cmp.Diff([]uint8{0xFF, 0xEF, 0xFF, 0xEF}, got); diff != "" {
		t.Errorf("fire line mismatch (-want +got):\n%s", diff)
	}

	in.SetAutofire(1, false)
	if _, ok := s.events[sched.AFI]; ok {
		t.Errorf("AFI still scheduled after disabling autofire")
	}
	if got := in.PortA().Read(0, 0); got != 0xEF {
		t.Errorf("port A = %02X, want EF", got)
	}
}

func TestRestoreKey(t *testing.T) {
	in, _, nmi := newTestInput(t, Config{})
	in.SetRestore(true)
	in.SetRestore(true)
	in.SetRestore(false)
	if diff := cmp.Diff([]bool{true, false}, nmi.lines); diff != "" {
		t.Errorf("NMI line mismatch (-want +got):\n%s", diff)
	}
}

func TestTyper(t *testing.T) {
	in, s, _ := newTestInput(t, Config{TypeDelayMs: 10})

	if err := in.Type("a!"); err != nil {
		t.Fatal(err)
	}
	if err := in.Type("~"); err == nil {
		t.Errorf("Type(~) succeeded, want error")
	}

	type step struct {
		id      sched.EventID
		pressed []Key
	}
	var steps []step
	for in.Typing() {
		ev, ok := s.events[sched.KEY]
		if !ok {
			t.Fatalf("KEY not scheduled while typing")
		}
		delete(s.events, sched.KEY)
		s.now = ev.trigger
		in.HandleTyper(ev.id, 0)

		var pressed []Key
		for k := range Key(64) {
			if in.Keyboard.IsPressed(k) {
				pressed = append(pressed, k)
			}
		}
		steps = append(steps, step{ev.id, pressed})
	}

	want := []step{
		{sched.KEYPress, []Key{KeyA}},
		{sched.KEYRelease, nil},
		{sched.KEYPress, []Key{KeyLShift, Key1}},
		{sched.KEYRelease, nil},
	}
	if diff := cmp.Diff(want, steps, cmp.AllowUnexported(step{})); diff != "" {
		t.Errorf("typing mismatch (-want +got):\n%s", diff)
	}
	if s.now != 1+3*10000 {
		t.Errorf("typing ended at %d, want %d", s.now, 1+3*10000)
	}
}

func TestCodeMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		code *Code // nil for unmarshal errors
	}{
		{"", &Code{}},
		{"key RETURN", &Code{Type: KeyboardCtrl, Key: KeyReturn}},
		{"key W", &Code{Type: KeyboardCtrl, Key: KeyW}},
		{"joy2 fire", &Code{Type: JoystickCtrl, Port: 2, Joy: JoyFire}},
		{"joy1 left", &Code{Type: JoystickCtrl, Port: 1, Joy: JoyLeft}},
		{"restore", &Code{Type: RestoreCtrl}},

		// unmarshal errors
		{"key   ", nil},
		{"key FOO", nil},
		{"joy3 fire", nil},
		{"joy1 jump", nil},
		{"mouse 1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var code Code
			if err := code.UnmarshalText([]byte(tt.text)); err != nil {
				if tt.code != nil {
					t.Fatalf("UnmarshalText(%q) error: %v", tt.text, err)
				}
				return
			}
			if tt.code == nil {
				t.Fatalf("UnmarshalText(%q) succeeded, want error", tt.text)
			}
			if diff := cmp.Diff(*tt.code, code); diff != "" {
				t.Fatalf("UnmarshalText(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}

			text, err := code.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.text, string(text)); diff != "" {
				t.Fatalf("MarshalText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply(t *testing.T) {
	in, _, nmi := newTestInput(t, Config{})
	in.Apply(Code{Type: KeyboardCtrl, Key: KeySpace}, true)
	in.Apply(Code{Type: JoystickCtrl, Port: 2, Joy: JoyDown}, true)
	in.Apply(Code{Type: RestoreCtrl}, true)

	if !in.Keyboard.IsPressed(KeySpace) || !in.Joy[1].IsPressed(JoyDown) || len(nmi.lines) != 1 {
		t.Errorf("inputs not applied")
	}
	in.Apply(Code{Type: KeyboardCtrl, Key: KeySpace}, false)
	if in.Keyboard.IsPressed(KeySpace) {
		t.Errorf("space still pressed")
	}
}

func TestSaveLoadState(t *testing.T) {
	in1, _, _ := newTestInput(t, Config{})
	in1.Keyboard.Press(KeyQ)
	in1.Keyboard.Press(KeyF7)
	in1.Joy[0].Press(JoyRight)
	in1.SetAutofire(1, true)
	in1.PortA().Write(0x7F, 0xFF)

	var st snapshot.Input
	in1.SaveState(&st)

	in2, _, _ := newTestInput(t, Config{})
	in2.LoadState(&st)

	var st2 snapshot.Input
	in2.SaveState(&st2)
	if diff := cmp.Diff(st, st2); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if got := in2.PortB().Read(0, 0); got != 0xBF&0xF7 {
		t.Errorf("port B = %02X, want %02X", got, 0xBF&0xF7)
	}
}
