package input

import "fmt"

// Key is a key position in the keyboard matrix: the CIA1 port A line
// (column) in bits 3-5, the port B line (row) in bits 0-2.
type Key uint8

func (k Key) Col() uint8 { return uint8(k) >> 3 & 7 }
func (k Key) Row() uint8 { return uint8(k) & 7 }

func key(col, row uint8) Key { return Key(col<<3 | row) }

var (
	KeyDel       = key(0, 0)
	KeyReturn    = key(0, 1)
	KeyCrsrRight = key(0, 2)
	KeyF7        = key(0, 3)
	KeyF1        = key(0, 4)
	KeyF3        = key(0, 5)
	KeyF5        = key(0, 6)
	KeyCrsrDown  = key(0, 7)

	Key3      = key(1, 0)
	KeyW      = key(1, 1)
	KeyA      = key(1, 2)
	Key4      = key(1, 3)
	KeyZ      = key(1, 4)
	KeyS      = key(1, 5)
	KeyE      = key(1, 6)
	KeyLShift = key(1, 7)

	Key5 = key(2, 0)
	KeyR = key(2, 1)
	KeyD = key(2, 2)
	Key6 = key(2, 3)
	KeyC = key(2, 4)
	KeyF = key(2, 5)
	KeyT = key(2, 6)
	KeyX = key(2, 7)

	Key7 = key(3, 0)
	KeyY = key(3, 1)
	KeyG = key(3, 2)
	Key8 = key(3, 3)
	KeyB = key(3, 4)
	KeyH = key(3, 5)
	KeyU = key(3, 6)
	KeyV = key(3, 7)

	Key9 = key(4, 0)
	KeyI = key(4, 1)
	KeyJ = key(4, 2)
	Key0 = key(4, 3)
	KeyM = key(4, 4)
	KeyK = key(4, 5)
	KeyO = key(4, 6)
	KeyN = key(4, 7)

	KeyPlus   = key(5, 0)
	KeyP      = key(5, 1)
	KeyL      = key(5, 2)
	KeyMinus  = key(5, 3)
	KeyPeriod = key(5, 4)
	KeyColon  = key(5, 5)
	KeyAt     = key(5, 6)
	KeyComma  = key(5, 7)

	KeyPound     = key(6, 0)
	KeyAsterisk  = key(6, 1)
	KeySemicolon = key(6, 2)
	KeyHome      = key(6, 3)
	KeyRShift    = key(6, 4)
	KeyEqual     = key(6, 5)
	KeyUpArrow   = key(6, 6)
	KeySlash     = key(6, 7)

	Key1         = key(7, 0)
	KeyLeftArrow = key(7, 1)
	KeyCtrl      = key(7, 2)
	Key2         = key(7, 3)
	KeySpace     = key(7, 4)
	KeyCommodore = key(7, 5)
	KeyQ         = key(7, 6)
	KeyRunStop   = key(7, 7)
)

var keyNames = map[string]Key{
	"DEL": KeyDel, "RETURN": KeyReturn, "CRSR_RIGHT": KeyCrsrRight, "F7": KeyF7,
	"F1": KeyF1, "F3": KeyF3, "F5": KeyF5, "CRSR_DOWN": KeyCrsrDown,
	"3": Key3, "W": KeyW, "A": KeyA, "4": Key4, "Z": KeyZ, "S": KeyS, "E": KeyE, "LSHIFT": KeyLShift,
	"5": Key5, "R": KeyR, "D": KeyD, "6": Key6, "C": KeyC, "F": KeyF, "T": KeyT, "X": KeyX,
	"7": Key7, "Y": KeyY, "G": KeyG, "8": Key8, "B": KeyB, "H": KeyH, "U": KeyU, "V": KeyV,
	"9": Key9, "I": KeyI, "J": KeyJ, "0": Key0, "M": KeyM, "K": KeyK, "O": KeyO, "N": KeyN,
	"PLUS": KeyPlus, "P": KeyP, "L": KeyL, "MINUS": KeyMinus,
	"PERIOD": KeyPeriod, "COLON": KeyColon, "AT": KeyAt, "COMMA": KeyComma,
	"POUND": KeyPound, "ASTERISK": KeyAsterisk, "SEMICOLON": KeySemicolon, "HOME": KeyHome,
	"RSHIFT": KeyRShift, "EQUAL": KeyEqual, "UP_ARROW": KeyUpArrow, "SLASH": KeySlash,
	"1": Key1, "LEFT_ARROW": KeyLeftArrow, "CTRL": KeyCtrl, "2": Key2,
	"SPACE": KeySpace, "COMMODORE": KeyCommodore, "Q": KeyQ, "RUN_STOP": KeyRunStop,
}

var keyByPos [64]string

func init() {
	for name, k := range keyNames {
		keyByPos[k] = name
	}
}

func (k Key) String() string {
	if k >= 64 {
		return fmt.Sprintf("Key(%d)", uint8(k))
	}
	return keyByPos[k]
}

// KeyByName returns the key with the given name, as used in configuration
// files and scripts.
func KeyByName(name string) (Key, bool) {
	k, ok := keyNames[name]
	return k, ok
}

// Keyboard is the 8x8 key matrix read through CIA1.
type Keyboard struct {
	pressed [8]uint8 // per column, bit n set when the key in row n is down
}

func (kb *Keyboard) Press(k Key)   { kb.pressed[k.Col()] |= 1 << k.Row() }
func (kb *Keyboard) Release(k Key) { kb.pressed[k.Col()] &^= 1 << k.Row() }
func (kb *Keyboard) ReleaseAll()   { clear(kb.pressed[:]) }

func (kb *Keyboard) IsPressed(k Key) bool {
	return kb.pressed[k.Col()]&(1<<k.Row()) != 0
}

// rows returns the row lines pulled low when the given columns are driven.
// Both are active low.
func (kb *Keyboard) rows(cols uint8) uint8 {
	var low uint8
	for c := range 8 {
		if cols&(1<<c) == 0 {
			low |= kb.pressed[c]
		}
	}
	return ^low
}

// cols returns the column lines pulled low when the given rows are driven.
func (kb *Keyboard) cols(rows uint8) uint8 {
	var low uint8
	for c := range 8 {
		if kb.pressed[c]&^rows != 0 {
			low |= 1 << c
		}
	}
	return ^low
}
