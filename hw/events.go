package hw

import (
	"c64core/emu/log"
	"c64core/hw/iec"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

func (c *C64) registerHandlers() {
	s := c.Sched
	s.Register(sched.CIA1, c.CIA1.HandleEvent)
	s.Register(sched.CIA2, c.CIA2.HandleEvent)
	s.Register(sched.IEC, c.IEC.HandleEvent)
	s.Register(sched.DAT, c.Datasette.HandlePulse)
	s.Register(sched.MOT, c.Datasette.HandleMotor)
	s.Register(sched.DC8, c.Drives[0].HandleEvent)
	s.Register(sched.DC9, c.Drives[1].HandleEvent)
	s.Register(sched.SNP, c.handleAutoSnapshot)
	s.Register(sched.RSH, c.handleScript)
	s.Register(sched.KEY, c.Input.HandleTyper)
	s.Register(sched.AFI, c.Input.HandleAutofire)
	s.Register(sched.ALA, c.handleAlarm)
	s.Register(sched.INS, c.handleInspect)
}

/* snapshots */

func (c *C64) handleAutoSnapshot(sched.EventID, int64) {
	c.Signal(FlagAutoSnapshot)
	hz := c.cfg.Standard.ClockHz()
	c.Sched.ScheduleRel(sched.SNP, hz*int64(c.cfg.AutoSnapshotSecs), sched.SNPTake, 0)
}

func (c *C64) takeSnapshot(kind NotificationKind) {
	st := &snapshot.Machine{}
	c.SaveState(st)
	idx := 0
	if kind == NotifyUserSnapshot {
		idx = 1
	}
	c.snaps[idx] = st
	log.ModSnap.DebugZ("snapshot taken").Stringer("kind", kind).Int64("clock", st.Clock).End()
	c.notify(Notification{Kind: kind, Snapshot: st})
}

// LastSnapshot returns the last snapshot taken automatically (user false)
// or on request.
func (c *C64) LastSnapshot(user bool) *snapshot.Machine {
	if user {
		return c.snaps[1]
	}
	return c.snaps[0]
}

/* scripts */

// A ScriptHost receives the callbacks scheduled with ScheduleScript.
type ScriptHost interface {
	ScriptCallback(data int64)
}

func (c *C64) SetScriptHost(h ScriptHost) { c.script = h }

// ScheduleScript calls the script host delay ticks from now. Only one
// callback can be pending.
func (c *C64) ScheduleScript(delay, data int64) {
	c.Sched.ScheduleRel(sched.RSH, max(delay, 1), sched.RSHCall, data)
}

func (c *C64) handleScript(_ sched.EventID, data int64) {
	if c.script != nil {
		c.script.ScriptCallback(data)
	}
}

/* alarms */

// SetAlarm posts a NotifyAlarm notification carrying data once the clock
// reaches tick. It replaces any pending alarm.
func (c *C64) SetAlarm(tick, data int64) {
	c.Sched.ScheduleAbs(sched.ALA, max(tick, c.Clock.Now()+1), sched.ALATrigger, data)
}

func (c *C64) CancelAlarm() { c.Sched.Cancel(sched.ALA) }

func (c *C64) handleAlarm(_ sched.EventID, data int64) {
	c.notify(Notification{Kind: NotifyAlarm, Data: data})
}

/* inspection */

// Inspection is a periodic record of the machine state, taken ten times per
// emulated second.
type Inspection struct {
	Clock  int64
	Frame  int64
	Line   int
	Cycle  int
	PC     uint16
	A      uint8
	X      uint8
	Y      uint8
	SP     uint8
	P      uint8
	Stall  uint16
	IRQ    bool
	Asleep [2]bool // CIA1, CIA2
}

func (c *C64) handleInspect(sched.EventID, int64) {
	c.inspect = Inspection{
		Clock:  c.Clock.Now(),
		Frame:  c.Frame,
		Line:   c.line,
		Cycle:  c.cycle,
		PC:     c.CPU.PC,
		A:      c.CPU.A,
		X:      c.CPU.X,
		Y:      c.CPU.Y,
		SP:     c.CPU.SP,
		P:      uint8(c.CPU.P),
		Stall:  c.stall,
		IRQ:    c.VIC.IRQ() || c.CIA1.IRQ(),
		Asleep: [2]bool{c.CIA1.Sleeping(), c.CIA2.Sleeping()},
	}
	c.Sched.ScheduleRel(sched.INS, c.cfg.Standard.ClockHz()/inspectPeriod, sched.INSRecord, 0)
}

// Inspect returns the last inspection record.
func (c *C64) Inspect() Inspection { return c.inspect }

/* drives */

// DiskChanged implements drive.Listener.
func (c *C64) DiskChanged(id int, inserted bool) {
	data := int64(id)
	if !inserted {
		data = -data
	}
	log.ModDrive.InfoZ("disk changed").Int("drive", id).Bool("inserted", inserted).End()
	c.notify(Notification{Kind: NotifyDiskChanged, Data: data})
}

/* CIA2 port A */

// cia2PortA connects CIA2 port A to the VIC bank select (bits 0-1) and the
// serial bus (bits 3-7).
type cia2PortA C64

func (p *cia2PortA) Read(out, ddr uint8) uint8 {
	levels := out | ^ddr
	return levels&0x3F | levels&0xC0&p.IEC.HostInputs()
}

func (p *cia2PortA) Write(out, ddr uint8) {
	levels := out | ^ddr
	p.Mem.SetVICBank(^levels & 3)
	p.IEC.SetHost(iec.HostPort(out & ddr))
}
