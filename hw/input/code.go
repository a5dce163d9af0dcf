package input

import (
	"fmt"
	"strings"
)

type ControlType uint8

const (
	ControlNotSet ControlType = iota
	KeyboardCtrl
	JoystickCtrl
	RestoreCtrl
)

func (t ControlType) String() string {
	switch t {
	case KeyboardCtrl:
		return "key"
	case JoystickCtrl:
		return "joy"
	case RestoreCtrl:
		return "restore"
	}
	return "not set"
}

// A Code names a machine input: a key of the matrix, a joystick line of a
// control port or the restore key. Only the fields matching Type are valid.
// Its text form is used in configuration files and scripts:
//
//	key RETURN
//	joy2 fire
//	restore
type Code struct {
	Key  Key
	Port int // 1 or 2
	Joy  JoyBit

	Type ControlType
}

func (c Code) MarshalText() ([]byte, error) {
	s := ""
	switch c.Type {
	case KeyboardCtrl:
		s = fmt.Sprintf("key %s", c.Key)
	case JoystickCtrl:
		s = fmt.Sprintf("joy%d %s", c.Port, c.Joy)
	case RestoreCtrl:
		s = "restore"
	}
	return []byte(s), nil
}

func (c *Code) UnmarshalText(text []byte) error {
	s := string(text)
	*c = Code{}

	switch {
	case s == "":
	case s == "restore":
		c.Type = RestoreCtrl

	case strings.HasPrefix(s, "joy"):
		str := ""
		if _, err := fmt.Sscanf(s, "joy%d %s", &c.Port, &str); err != nil {
			return fmt.Errorf("malformed joy code: %s", s)
		}
		if c.Port != 1 && c.Port != 2 {
			return fmt.Errorf("invalid control port %d", c.Port)
		}
		bit, ok := joyByName(str)
		if !ok {
			return fmt.Errorf("unrecognized joystick line %q", str)
		}
		c.Joy = bit
		c.Type = JoystickCtrl

	case strings.HasPrefix(s, "key"):
		str := ""
		if _, err := fmt.Sscanf(s, "key %s", &str); err != nil {
			return fmt.Errorf("malformed key code: %s", s)
		}
		k, ok := KeyByName(str)
		if !ok {
			return fmt.Errorf("unrecognized key %q", str)
		}
		c.Key = k
		c.Type = KeyboardCtrl

	default:
		return fmt.Errorf("unrecognized input code: %s", s)
	}
	return nil
}

// Apply presses or releases the input named by c.
func (in *Input) Apply(c Code, pressed bool) {
	switch c.Type {
	case KeyboardCtrl:
		if pressed {
			in.Keyboard.Press(c.Key)
		} else {
			in.Keyboard.Release(c.Key)
		}
	case JoystickCtrl:
		j := &in.Joy[c.Port-1]
		if pressed {
			j.Press(c.Joy)
		} else {
			j.Release(c.Joy)
		}
	case RestoreCtrl:
		in.SetRestore(pressed)
	}
}
