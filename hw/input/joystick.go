package input

// JoyBit is a joystick line. Lines are active low on the CIA port.
type JoyBit uint8

const (
	JoyUp JoyBit = 1 << iota
	JoyDown
	JoyLeft
	JoyRight
	JoyFire
)

var joyNames = [...]struct {
	name string
	bit  JoyBit
}{
	{"up", JoyUp},
	{"down", JoyDown},
	{"left", JoyLeft},
	{"right", JoyRight},
	{"fire", JoyFire},
}

func (b JoyBit) String() string {
	for _, jn := range joyNames {
		if jn.bit == b {
			return jn.name
		}
	}
	return "?"
}

func joyByName(name string) (JoyBit, bool) {
	for _, jn := range joyNames {
		if jn.name == name {
			return jn.bit, true
		}
	}
	return 0, false
}

// Joystick is a digital joystick in one of the control ports.
type Joystick struct {
	state    uint8 // JoyBit set when active
	autofire bool
}

func (j *Joystick) Press(b JoyBit)   { j.state |= uint8(b) }
func (j *Joystick) Release(b JoyBit) { j.state &^= uint8(b) }

func (j *Joystick) IsPressed(b JoyBit) bool { return j.state&uint8(b) != 0 }

// lines returns the port lines, active low. phase is the autofire output
// level.
func (j *Joystick) lines(phase bool) uint8 {
	st := j.state
	if j.autofire && !phase {
		st &^= uint8(JoyFire)
	}
	return ^st
}
