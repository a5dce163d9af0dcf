package input

import (
	"fmt"

	"c64core/emu/log"
	"c64core/hw/sched"
)

// stroke is a set of keys pressed together.
type stroke []Key

type typer struct {
	queue []stroke
}

func (t *typer) clear() { t.queue = t.queue[:0] }

var shifted = map[rune]Key{
	'!': Key1, '"': Key2, '#': Key3, '$': Key4, '%': Key5,
	'&': Key6, '\'': Key7, '(': Key8, ')': Key9,
	'<': KeyComma, '>': KeyPeriod, '?': KeySlash,
	'[': KeyColon, ']': KeySemicolon,
}

var unshifted = map[rune]Key{
	' ': KeySpace, '\n': KeyReturn,
	',': KeyComma, '.': KeyPeriod, '/': KeySlash,
	':': KeyColon, ';': KeySemicolon, '=': KeyEqual,
	'+': KeyPlus, '-': KeyMinus, '*': KeyAsterisk, '@': KeyAt,
	'0': Key0, '1': Key1, '2': Key2, '3': Key3, '4': Key4,
	'5': Key5, '6': Key6, '7': Key7, '8': Key8, '9': Key9,
}

// strokeFor returns the keys to press for r. Letters are typed unshifted,
// they appear uppercase in the default character set.
func strokeFor(r rune) (stroke, error) {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if r >= 'A' && r <= 'Z' {
		return stroke{keyNames[string(r)]}, nil
	}
	if k, ok := unshifted[r]; ok {
		return stroke{k}, nil
	}
	if k, ok := shifted[r]; ok {
		return stroke{KeyLShift, k}, nil
	}
	return nil, fmt.Errorf("no key for %q", r)
}

// Type queues text to be typed on the keyboard. Each character is held for
// the configured delay and followed by a pause of the same length.
func (in *Input) Type(text string) error {
	var strokes []stroke
	for _, r := range text {
		s, err := strokeFor(r)
		if err != nil {
			return err
		}
		strokes = append(strokes, s)
	}

	idle := len(in.typer.queue) == 0
	in.typer.queue = append(in.typer.queue, strokes...)
	if idle && len(strokes) > 0 {
		in.sched.ScheduleAbs(sched.KEY, in.sched.Now()+1, sched.KEYPress, 0)
	}
	log.ModInput.DebugZ("type").Int("keys", len(strokes)).End()
	return nil
}

// Typing reports whether queued text remains to be typed.
func (in *Input) Typing() bool { return len(in.typer.queue) > 0 }

// HandleTyper services the KEY slot.
func (in *Input) HandleTyper(id sched.EventID, data int64) {
	t := &in.typer
	if len(t.queue) == 0 {
		return
	}

	switch id {
	case sched.KEYPress:
		for _, k := range t.queue[0] {
			in.Keyboard.Press(k)
		}
		in.sched.ScheduleAbs(sched.KEY, in.sched.Now()+in.typeDelay, sched.KEYRelease, 0)
	case sched.KEYRelease:
		for _, k := range t.queue[0] {
			in.Keyboard.Release(k)
		}
		t.queue = t.queue[1:]
		if len(t.queue) > 0 {
			in.sched.ScheduleAbs(sched.KEY, in.sched.Now()+in.typeDelay, sched.KEYPress, 0)
		}
	}
}
