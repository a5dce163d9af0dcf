// Package datasette implements the tape recorder. Tapes are played from TAP
// images: each recorded pulse ends with a falling edge on the CIA1 FLAG pin.
// The motor is switched by the processor port, playback only advances while
// the play key is down and the motor runs.
package datasette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"c64core/emu/log"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

var ErrTapeFormat = errors.New("invalid tape image")

var tapMagic = []byte("C64-TAPE-RAW")

const tapHeaderSize = 20

// Tape holds the pulses of a TAP image.
type Tape struct {
	data    []byte
	version uint8
}

func ParseTAP(data []byte) (*Tape, error) {
	if len(data) < tapHeaderSize || !bytes.Equal(data[:len(tapMagic)], tapMagic) {
		return nil, fmt.Errorf("%w: bad header", ErrTapeFormat)
	}
	version := data[12]
	if version > 1 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrTapeFormat, version)
	}
	size := int(binary.LittleEndian.Uint32(data[16:20]))
	if size > len(data)-tapHeaderSize {
		return nil, fmt.Errorf("%w: truncated, %d bytes of %d", ErrTapeFormat, len(data)-tapHeaderSize, size)
	}
	return &Tape{
		data:    data[tapHeaderSize : tapHeaderSize+size],
		version: version,
	}, nil
}

// Len returns the size of the pulse data.
func (t *Tape) Len() int { return len(t.data) }

// pulse returns the length in cycles of the pulse at pos and the position of
// the next one.
func (t *Tape) pulse(pos int) (int64, int) {
	b := t.data[pos]
	if b != 0 {
		return int64(b) * 8, pos + 1
	}
	if t.version == 0 || pos+3 >= len(t.data) {
		return 256 * 8, pos + 1
	}
	n := int64(t.data[pos+1]) | int64(t.data[pos+2])<<8 | int64(t.data[pos+3])<<16
	return n, pos + 4
}

type Scheduler interface {
	Now() int64
	ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64)
	Cancel(slot sched.Slot)
}

// Flag is the CIA input pulsed at the end of each pulse.
type Flag interface {
	TriggerFlag()
}

type Datasette struct {
	tape    *Tape
	head    int
	playing bool
	motor   bool

	sched Scheduler
	flag  Flag
}

func New(s Scheduler, flag Flag) *Datasette {
	return &Datasette{sched: s, flag: flag}
}

// Reset stops the tape. The tape stays inserted at its position.
func (d *Datasette) Reset() {
	d.playing = false
	d.motor = false
}

func (d *Datasette) Insert(t *Tape) {
	d.Eject()
	d.tape = t
	d.head = 0
	log.ModTape.InfoZ("tape inserted").Int("size", t.Len()).End()
}

func (d *Datasette) Eject() {
	d.Stop()
	d.tape = nil
	d.head = 0
}

func (d *Datasette) HasTape() bool { return d.tape != nil }

// Tape returns the inserted tape, nil if there is none.
func (d *Datasette) Tape() *Tape { return d.tape }

// Head returns the position of the head in the pulse data.
func (d *Datasette) Head() int { return d.head }

func (d *Datasette) Playing() bool { return d.playing }
func (d *Datasette) Motor() bool   { return d.motor }

// Play presses the play key.
func (d *Datasette) Play() {
	if d.tape == nil || d.playing {
		return
	}
	d.playing = true
	d.schedulePulse()
}

// Stop presses the stop key.
func (d *Datasette) Stop() {
	d.playing = false
	d.sched.Cancel(sched.DAT)
}

func (d *Datasette) Rewind() {
	d.Stop()
	d.head = 0
}

// Sense reports the state of the cassette switch: true while a key is down.
func (d *Datasette) Sense() bool { return d.playing }

// SetMotor is called by the processor port. The motor follows on the next
// cycle.
func (d *Datasette) SetMotor(on bool) {
	id := sched.MOTStop
	if on {
		id = sched.MOTStart
	}
	d.sched.ScheduleAbs(sched.MOT, d.sched.Now()+1, id, 0)
}

// HandleMotor services the MOT slot.
func (d *Datasette) HandleMotor(id sched.EventID, data int64) {
	switch id {
	case sched.MOTStart:
		d.motor = true
		d.schedulePulse()
	case sched.MOTStop:
		d.motor = false
		d.sched.Cancel(sched.DAT)
	}
	log.ModTape.DebugZ("motor").Bool("on", d.motor).End()
}

func (d *Datasette) schedulePulse() {
	if !d.motor || !d.playing || d.tape == nil {
		return
	}
	if d.head >= d.tape.Len() {
		log.ModTape.InfoZ("end of tape").End()
		d.Stop()
		return
	}
	n, _ := d.tape.pulse(d.head)
	d.sched.ScheduleAbs(sched.DAT, d.sched.Now()+n, sched.DATPulse, 0)
}

// HandlePulse services the DAT slot.
func (d *Datasette) HandlePulse(id sched.EventID, data int64) {
	if d.tape == nil {
		return
	}
	d.flag.TriggerFlag()
	_, d.head = d.tape.pulse(d.head)
	d.schedulePulse()
}

/* snapshot */

func (d *Datasette) SaveState(st *snapshot.Datasette) {
	st.Head = int64(d.head)
	st.Playing = d.playing
	st.Motor = d.motor
}

func (d *Datasette) LoadState(st *snapshot.Datasette) {
	d.head = int(st.Head)
	d.playing = st.Playing && d.tape != nil
	d.motor = st.Motor
	if d.tape != nil && d.head > d.tape.Len() {
		d.head = d.tape.Len()
	}
}
