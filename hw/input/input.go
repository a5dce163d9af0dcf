// Package input implements the devices read through CIA1: the keyboard
// matrix, the two joystick control ports and the restore key, plus the
// autofire and auto-typing helpers driven by the event scheduler.
package input

import (
	"c64core/emu/log"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

type Config struct {
	AutofireHz  float64 `toml:"autofire_hz"`
	Autofire    [2]bool `toml:"autofire"`
	TypeDelayMs int     `toml:"type_delay_ms"`
}

func (cfg *Config) Init() {
	if cfg.AutofireHz <= 0 {
		cfg.AutofireHz = 10
	}
	if cfg.TypeDelayMs <= 0 {
		cfg.TypeDelayMs = 40
	}
}

type Scheduler interface {
	Now() int64
	ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64)
	Cancel(slot sched.Slot)
}

// NMILine is the CPU NMI input the restore key is wired to.
type NMILine interface {
	SetLine(asserted bool)
}

type Input struct {
	Keyboard Keyboard
	Joy      [2]Joystick // control ports 1 and 2

	restore bool
	nmi     NMILine

	sched     Scheduler
	afHalf    int64 // autofire half period, in cycles
	afPhase   bool
	typeDelay int64
	typer     typer

	// levels driven by CIA1 on its ports
	paDriven, pbDriven uint8
}

func New(cfg Config, clockHz int64, s Scheduler, nmi NMILine) *Input {
	cfg.Init()
	in := &Input{
		nmi:       nmi,
		sched:     s,
		afHalf:    max(1, int64(float64(clockHz)/cfg.AutofireHz/2)),
		typeDelay: clockHz * int64(cfg.TypeDelayMs) / 1000,
	}
	in.Reset()
	for i, on := range cfg.Autofire {
		in.SetAutofire(i, on)
	}
	return in
}

// Reset releases all keys. Autofire settings are kept.
func (in *Input) Reset() {
	in.Keyboard.ReleaseAll()
	for i := range in.Joy {
		in.Joy[i].state = 0
	}
	in.restore = false
	in.afPhase = false
	in.paDriven, in.pbDriven = 0xFF, 0xFF
	in.typer.clear()
	if in.Joy[0].autofire || in.Joy[1].autofire {
		in.sched.ScheduleAbs(sched.AFI, in.sched.Now()+in.afHalf, sched.AFIFire, 0)
	}
}

// SetRestore presses or releases the restore key, which pulls NMI.
func (in *Input) SetRestore(pressed bool) {
	if pressed == in.restore {
		return
	}
	in.restore = pressed
	log.ModInput.DebugZ("restore key").Bool("pressed", pressed).End()
	in.nmi.SetLine(pressed)
}

// SetAutofire enables or disables autofire on control port idx (0 or 1).
// While enabled, a held fire button is seen as repeatedly pressed.
func (in *Input) SetAutofire(idx int, on bool) {
	if in.Joy[idx].autofire == on {
		return
	}
	in.Joy[idx].autofire = on
	if in.Joy[0].autofire || in.Joy[1].autofire {
		in.sched.ScheduleAbs(sched.AFI, in.sched.Now()+in.afHalf, sched.AFIFire, 0)
	} else {
		in.sched.Cancel(sched.AFI)
		in.afPhase = false
	}
}

// HandleAutofire services the AFI slot.
func (in *Input) HandleAutofire(id sched.EventID, data int64) {
	in.afPhase = !in.afPhase
	if in.Joy[0].autofire || in.Joy[1].autofire {
		in.sched.ScheduleAbs(sched.AFI, in.sched.Now()+in.afHalf, sched.AFIFire, 0)
	}
}

/* CIA1 ports */

// PortA is the CIA1 port A side: keyboard columns and control port 2.
type PortA Input

// PortB is the CIA1 port B side: keyboard rows and control port 1.
type PortB Input

func (in *Input) PortA() *PortA { return (*PortA)(in) }
func (in *Input) PortB() *PortB { return (*PortB)(in) }

func (p *PortA) Read(out, ddr uint8) uint8 {
	in := (*Input)(p)
	driven := out | ^ddr
	pb := in.pbDriven & in.Joy[0].lines(in.afPhase)
	return driven & in.Keyboard.cols(pb) & in.Joy[1].lines(in.afPhase)
}

func (p *PortA) Write(out, ddr uint8) { p.paDriven = out | ^ddr }

func (p *PortB) Read(out, ddr uint8) uint8 {
	in := (*Input)(p)
	driven := out | ^ddr
	pa := in.paDriven & in.Joy[1].lines(in.afPhase)
	return driven & in.Keyboard.rows(pa) & in.Joy[0].lines(in.afPhase)
}

func (p *PortB) Write(out, ddr uint8) { p.pbDriven = out | ^ddr }

/* snapshot */

func (in *Input) SaveState(st *snapshot.Input) {
	st.Keys = in.Keyboard.pressed
	for i := range in.Joy {
		st.Joy[i] = in.Joy[i].state
		st.Autofire[i] = in.Joy[i].autofire
	}
	st.AutofirePhase = in.afPhase
	st.Restore = in.restore
	st.PA, st.PB = in.paDriven, in.pbDriven
}

func (in *Input) LoadState(st *snapshot.Input) {
	in.Keyboard.pressed = st.Keys
	for i := range in.Joy {
		in.Joy[i].state = st.Joy[i]
		in.Joy[i].autofire = st.Autofire[i]
	}
	in.afPhase = st.AutofirePhase
	in.restore = st.Restore
	in.paDriven, in.pbDriven = st.PA, st.PB
	in.typer.clear()
}
