// Package sched implements the event scheduler driving all time-based
// activities of the machine.
//
// Events live in slots. Each slot holds at most one pending event, identified
// by its trigger tick, an event ID and a data payload. Slots are organized in
// three tiers: the primary tier is checked by the dispatch loop on every tick
// (through NextTrigger), the secondary tier is only looked at when its
// aggregate slot SEC is due, and the tertiary tier when TER is due. An
// aggregate trigger is never later than the earliest trigger of its tier.
package sched

import (
	"fmt"
	"math"

	"c64core/emu/log"
	"c64core/hw/snapshot"
)

//go:generate go tool stringer -type=Slot,EventID -output=slot_string.go

// Never is the trigger of an inactive slot.
const Never int64 = math.MaxInt64

type Slot int8

const (
	// Primary slots
	CIA1 Slot = iota
	CIA2
	SEC

	// Secondary slots
	IEC
	DAT
	TER

	// Tertiary slots
	MOT
	DC8
	DC9
	SNP
	RSH
	KEY
	AFI
	ALA
	INS
)

const NumSlots = int(INS) + 1

func (s Slot) isPrimary() bool   { return s >= CIA1 && s <= SEC }
func (s Slot) isSecondary() bool { return s >= IEC && s <= TER }
func (s Slot) isTertiary() bool  { return s >= MOT && s <= INS }

// Schedulable reports whether events can be scheduled on s. The aggregate
// slots SEC and TER are managed by the scheduler itself.
func (s Slot) Schedulable() bool {
	return s >= CIA1 && s <= INS && s != SEC && s != TER
}

type EventID int32

const (
	EventNone EventID = iota

	// CIA1, CIA2
	CIAExecute
	CIAWakeup

	// SEC, TER
	SECTrigger
	TERTrigger

	// IEC
	IECUpdate

	// DAT
	DATPulse

	// MOT
	MOTStart
	MOTStop

	// DC8, DC9
	DCEject
	DCInsert
	DCDone

	// SNP
	SNPTake

	// RSH
	RSHCall

	// KEY
	KEYPress
	KEYRelease

	// AFI
	AFIFire

	// ALA
	ALATrigger

	// INS
	INSRecord
)

// Handler services an event. The slot has already been cleared when the
// handler runs, so the handler may reschedule it.
type Handler func(id EventID, data int64)

// Diagnostics controls scheduler tracing.
type Diagnostics struct {
	TraceEvents bool
}

type Scheduler struct {
	clock *Clock
	diag  Diagnostics

	trigger  [NumSlots]int64
	id       [NumSlots]EventID
	data     [NumSlots]int64
	handlers [NumSlots]Handler

	// NextTrigger is the earliest trigger of the primary tier. The dispatch
	// loop calls ProcessDue as soon as the current tick reaches it.
	NextTrigger int64
}

func New(clock *Clock, diag Diagnostics) *Scheduler {
	s := &Scheduler{clock: clock, diag: diag}
	s.Reset()
	return s
}

// Reset cancels all events.
func (s *Scheduler) Reset() {
	for i := range s.trigger {
		s.trigger[i] = Never
		s.id[i] = EventNone
		s.data[i] = 0
	}
	s.NextTrigger = Never
}

// Register sets the handler servicing events of the given slot.
func (s *Scheduler) Register(slot Slot, h Handler) {
	mustSchedulable(slot)
	s.handlers[slot] = h
}

func mustValid(slot Slot) {
	if slot < 0 || int(slot) >= NumSlots {
		panic(fmt.Sprintf("sched: invalid slot %d", slot))
	}
}

func mustSchedulable(slot Slot) {
	if !slot.Schedulable() {
		panic(fmt.Sprintf("sched: cannot schedule on slot %s", slot))
	}
}

// Now returns the current tick.
func (s *Scheduler) Now() int64 { return s.clock.Now() }

func (s *Scheduler) Trigger(slot Slot) int64 { mustValid(slot); return s.trigger[slot] }
func (s *Scheduler) ID(slot Slot) EventID    { mustValid(slot); return s.id[slot] }
func (s *Scheduler) Data(slot Slot) int64    { mustValid(slot); return s.data[slot] }

// HasEvent reports whether an event is pending in slot.
func (s *Scheduler) HasEvent(slot Slot) bool {
	mustValid(slot)
	return s.id[slot] != EventNone
}

// IsDue reports whether the event in slot is due at tick now.
func (s *Scheduler) IsDue(slot Slot, now int64) bool {
	mustValid(slot)
	return now >= s.trigger[slot]
}

// ScheduleAbs schedules an event in slot at the absolute tick trigger,
// replacing any pending event in that slot.
func (s *Scheduler) ScheduleAbs(slot Slot, trigger int64, id EventID, data int64) {
	mustSchedulable(slot)

	s.trigger[slot] = trigger
	s.id[slot] = id
	s.data[slot] = data

	switch {
	case slot.isTertiary():
		if trigger < s.trigger[TER] {
			s.trigger[TER] = trigger
			s.id[TER] = TERTrigger
		}
		fallthrough
	case slot.isSecondary():
		if trigger < s.trigger[SEC] {
			s.trigger[SEC] = trigger
			s.id[SEC] = SECTrigger
		}
	}
	if trigger < s.NextTrigger {
		s.NextTrigger = trigger
	}
}

// ScheduleRel schedules an event delay ticks from now.
func (s *Scheduler) ScheduleRel(slot Slot, delay int64, id EventID, data int64) {
	s.ScheduleAbs(slot, s.clock.Now()+delay, id, data)
}

// RescheduleAbs moves the pending event in slot to trigger, keeping its ID
// and data.
func (s *Scheduler) RescheduleAbs(slot Slot, trigger int64) {
	mustSchedulable(slot)
	s.ScheduleAbs(slot, trigger, s.id[slot], s.data[slot])
}

// RescheduleRel moves the pending event in slot to delay ticks from now.
func (s *Scheduler) RescheduleRel(slot Slot, delay int64) {
	s.RescheduleAbs(slot, s.clock.Now()+delay)
}

// Cancel clears slot. Parent triggers are left as they are: an aggregate
// that fires early finds nothing due and is recomputed.
func (s *Scheduler) Cancel(slot Slot) {
	mustSchedulable(slot)
	s.trigger[slot] = Never
	s.id[slot] = EventNone
	s.data[slot] = 0
}

// ProcessDue services all events due at tick now, primary slots first, in
// slot declaration order.
func (s *Scheduler) ProcessDue(now int64) {
	for slot := CIA1; slot < SEC; slot++ {
		if now >= s.trigger[slot] {
			s.service(slot, now)
		}
	}

	if now >= s.trigger[SEC] {
		for slot := IEC; slot < TER; slot++ {
			if now >= s.trigger[slot] {
				s.service(slot, now)
			}
		}

		if now >= s.trigger[TER] {
			for slot := MOT; slot <= INS; slot++ {
				if now >= s.trigger[slot] {
					s.service(slot, now)
				}
			}
		}
		s.recomputeTER()
		s.recomputeSEC()
	}

	s.NextTrigger = min(s.trigger[CIA1], s.trigger[CIA2], s.trigger[SEC])
}

func (s *Scheduler) recomputeTER() {
	t := Never
	for slot := MOT; slot <= INS; slot++ {
		t = min(t, s.trigger[slot])
	}
	s.setAggregate(TER, TERTrigger, t)
}

func (s *Scheduler) recomputeSEC() {
	t := min(s.trigger[IEC], s.trigger[DAT], s.trigger[TER])
	s.setAggregate(SEC, SECTrigger, t)
}

func (s *Scheduler) setAggregate(slot Slot, id EventID, t int64) {
	s.trigger[slot] = t
	if t == Never {
		s.id[slot] = EventNone
	} else {
		s.id[slot] = id
	}
}

func (s *Scheduler) service(slot Slot, now int64) {
	id, data := s.id[slot], s.data[slot]
	s.trigger[slot] = Never
	s.id[slot] = EventNone
	s.data[slot] = 0

	if id == EventNone {
		return
	}
	h := s.handlers[slot]
	if h == nil {
		panic(fmt.Sprintf("sched: no handler for slot %s", slot))
	}

	if s.diag.TraceEvents {
		log.ModSched.DebugZ("event").
			Stringer("slot", slot).
			Stringer("id", id).
			Int64("data", data).
			Int64("tick", now).
			End()
	}
	h(id, data)
}

func (s *Scheduler) SaveState(state *snapshot.Scheduler) {
	for i := range NumSlots {
		state.Trigger[i] = s.trigger[i]
		state.ID[i] = int32(s.id[i])
		state.Data[i] = s.data[i]
	}
	state.NextTrigger = s.NextTrigger
}

func (s *Scheduler) LoadState(state *snapshot.Scheduler) {
	for i := range NumSlots {
		s.trigger[i] = state.Trigger[i]
		s.id[i] = EventID(state.ID[i])
		s.data[i] = state.Data[i]
	}
	s.NextTrigger = state.NextTrigger
}
