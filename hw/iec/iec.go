// Package iec implements the serial bus connecting the C64 to its disk
// drives. The bus has three open-collector lines, ATN, CLK and DATA: a line
// is low as soon as one participant pulls it.
package iec

import (
	"c64core/emu/log"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

// Line is a set of bus lines.
type Line uint8

const (
	ATN Line = 1 << iota
	CLK
	DATA
)

// MaxDevices is the number of drives that can be connected.
const MaxDevices = 2

type Scheduler interface {
	Now() int64
	ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64)
}

// Bus computes the line levels from what each participant pulls. Changes
// become visible one cycle later, when the IEC slot is serviced.
type Bus struct {
	host   Line // pulled by the C64
	device [MaxDevices]Line

	low     Line // lines currently low
	pending bool

	sched Scheduler
	trace bool
}

func New(s Scheduler, trace bool) *Bus {
	return &Bus{sched: s, trace: trace}
}

func (b *Bus) Reset() {
	b.host = 0
	clear(b.device[:])
	b.low = 0
	b.pending = false
}

// High reports whether line l is released by everyone.
func (b *Bus) High(l Line) bool { return b.low&l == 0 }

// Low returns the lines currently pulled low.
func (b *Bus) Low() Line { return b.low }

func (b *Bus) markDirty() {
	if b.pending {
		return
	}
	b.pending = true
	b.sched.ScheduleAbs(sched.IEC, b.sched.Now()+1, sched.IECUpdate, 0)
}

// SetHost sets the lines pulled by the C64.
func (b *Bus) SetHost(pulled Line) {
	if pulled != b.host {
		b.host = pulled
		b.markDirty()
	}
}

// SetDevice sets the lines pulled by device idx.
func (b *Bus) SetDevice(idx int, pulled Line) {
	if pulled != b.device[idx] {
		b.device[idx] = pulled
		b.markDirty()
	}
}

// HandleEvent services the IEC slot.
func (b *Bus) HandleEvent(id sched.EventID, data int64) {
	b.Update()
}

// Update recomputes the line levels.
func (b *Bus) Update() {
	b.pending = false
	low := b.host
	for _, d := range b.device {
		low |= d
	}
	if low == b.low {
		return
	}
	b.low = low
	if b.trace {
		log.ModIEC.DebugZ("bus").
			Bool("atn", b.High(ATN)).
			Bool("clk", b.High(CLK)).
			Bool("data", b.High(DATA)).
			End()
	}
}

/* CIA2 port A */

// CIA2 port A bits. Outputs go through inverters: writing 1 pulls the line.
const (
	paATNOut  = 0x08
	paCLKOut  = 0x10
	paDATAOut = 0x20
	paCLKIn   = 0x40
	paDATAIn  = 0x80
)

// HostPort returns the bus lines pulled for CIA2 port A levels pa.
func HostPort(pa uint8) Line {
	var l Line
	if pa&paATNOut != 0 {
		l |= ATN
	}
	if pa&paCLKOut != 0 {
		l |= CLK
	}
	if pa&paDATAOut != 0 {
		l |= DATA
	}
	return l
}

// HostInputs returns the CIA2 port A input bits 6 and 7 (CLK and DATA in).
func (b *Bus) HostInputs() uint8 {
	var v uint8
	if b.High(CLK) {
		v |= paCLKIn
	}
	if b.High(DATA) {
		v |= paDATAIn
	}
	return v
}

/* snapshot */

func (b *Bus) SaveState(st *snapshot.IEC) {
	st.Host = uint8(b.host)
	for i, d := range b.device {
		st.Device[i] = uint8(d)
	}
	st.Low = uint8(b.low)
	st.Pending = b.pending
}

func (b *Bus) LoadState(st *snapshot.IEC) {
	b.host = Line(st.Host)
	for i := range b.device {
		b.device[i] = Line(st.Device[i])
	}
	b.low = Line(st.Low)
	b.pending = st.Pending
}
