// Package hw assembles the C64 chips into a machine and runs it, one master
// clock cycle at a time.
package hw

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"c64core/emu/log"
	"c64core/hw/cia"
	"c64core/hw/cpu"
	"c64core/hw/datasette"
	"c64core/hw/drive"
	"c64core/hw/iec"
	"c64core/hw/input"
	"c64core/hw/mem"
	"c64core/hw/sched"
	"c64core/hw/sid"
	"c64core/hw/snapshot"
	"c64core/hw/vic"
)

// Diagnostics are the tracing and debugging switches of the machine. They
// are passed down to each chip when the machine is built.
type Diagnostics struct {
	TraceEvents  bool `toml:"trace_events"`
	TraceVICIRQ  bool `toml:"trace_vic_irq"`
	TraceVICRegs bool `toml:"trace_vic_regs"`
	NoSprites    bool `toml:"no_sprites"`
	TraceCIARegs bool `toml:"trace_cia_regs"`
	NoCIASleep   bool `toml:"no_cia_sleep"`
	TraceIEC     bool `toml:"trace_iec"`
}

type Config struct {
	Standard   vic.Standard
	ROMs       mem.ROMs
	TODHz      int64 // 0 uses the power line frequency of Standard
	SampleRate int
	Drives     [2]drive.Config
	Input      input.Config

	// AutoSnapshotSecs is the period of automatic snapshots, in seconds of
	// emulated time. 0 disables them.
	AutoSnapshotSecs int

	Diag Diagnostics
}

// State is the power state of the machine.
type State uint8

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", s)
}

var (
	// ErrInvalidState is returned by a power state transition not allowed
	// from the current state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrStandardSwitch is returned when the video standard is changed
	// while the machine is running in the middle of a frame.
	ErrStandardSwitch = errors.New("video standard can only change at a frame boundary")
)

// inspectPeriod is the number of inspection records per second of emulated
// time.
const inspectPeriod = 10

type C64 struct {
	cfg   Config
	state State

	Clock     sched.Clock
	Sched     *sched.Scheduler
	CPU       *cpu.CPU
	Mem       *mem.Memory
	VIC       *vic.VIC
	CIA1      *cia.CIA
	CIA2      *cia.CIA
	SID       *sid.SID
	Input     *input.Input
	IEC       *iec.Bus
	Drives    [2]*drive.Drive
	Datasette *datasette.Datasette

	// Frame is the number of frames completed since power-on.
	Frame int64

	line  int // current scanline
	cycle int // next raster cycle, 1-based
	stall uint16

	view    memView
	mon     monitor
	flags   atomic.Uint32
	ticked  bool // the CPU ran during the last tick
	samples []int16

	notifier Notifier
	script   ScriptHost
	trace    io.Writer
	inspect  Inspection
	snaps    [2]*snapshot.Machine // last automatic and user snapshot
}

// memView gives the CPU and the VIC access to the address space, which is
// created after them.
type memView struct {
	*mem.Memory
}

// New builds a machine. It is powered off until PowerOn is called.
func New(cfg Config) *C64 {
	c := &C64{cfg: cfg}
	c.build()
	return c
}

func (c *C64) build() {
	cfg := &c.cfg
	std := cfg.Standard
	hz := std.ClockHz()
	todHz := cfg.TODHz
	if todHz <= 0 {
		todHz = std.PowerHz()
	}

	c.Sched = sched.New(&c.Clock, sched.Diagnostics{TraceEvents: cfg.Diag.TraceEvents})
	c.CPU = cpu.New(&c.view)
	c.VIC = vic.New(vic.Config{
		Standard: std,
		Diag: vic.Diagnostics{
			TraceIRQ:  cfg.Diag.TraceVICIRQ,
			TraceRegs: cfg.Diag.TraceVICRegs,
			NoSprites: cfg.Diag.NoSprites,
		},
	}, &c.view, c.CPU.IRQLine(cpu.IntVIC), c)

	ciaDiag := cia.Diagnostics{NoSleep: cfg.Diag.NoCIASleep, TraceRegs: cfg.Diag.TraceCIARegs}
	c.CIA1 = cia.New(cia.Config{Name: "CIA1", Slot: sched.CIA1, ClockHz: hz, TODHz: todHz, Diag: ciaDiag},
		c.Sched, c.CPU.IRQLine(cpu.IntCIA))
	c.CIA2 = cia.New(cia.Config{Name: "CIA2", Slot: sched.CIA2, ClockHz: hz, TODHz: todHz, Diag: ciaDiag},
		c.Sched, c.CPU.NMILine(cpu.IntCIA))

	c.SID = sid.New(sid.Config{ClockHz: float64(hz), SampleRate: cfg.SampleRate}, c.Sched)
	c.Datasette = datasette.New(c.Sched, c.CIA1)
	c.Mem = mem.New(cfg.ROMs, mem.Chips{VIC: c.VIC, SID: c.SID, CIA1: c.CIA1, CIA2: c.CIA2}, c.Datasette)
	c.view.Memory = c.Mem

	c.IEC = iec.New(c.Sched, cfg.Diag.TraceIEC)
	for i := range c.Drives {
		c.Drives[i] = drive.New(8+i, cfg.Drives[i], hz, c.IEC, c.Sched, c)
	}
	c.Input = input.New(cfg.Input, hz, c.Sched, c.CPU.NMILine(cpu.IntRestore))

	c.CIA1.SetPorts(c.Input.PortA(), c.Input.PortB())
	c.CIA2.SetPorts((*cia2PortA)(c), nil)

	c.mon.init(c)
	c.CPU.SetDebugger(&c.mon)
	if c.trace != nil {
		c.CPU.SetTraceOutput(c.trace, c.VIC)
	}
	c.registerHandlers()
}

func (c *C64) Config() Config         { return c.cfg }
func (c *C64) State() State           { return c.state }
func (c *C64) Standard() vic.Standard { return c.cfg.Standard }

// Line returns the current scanline.
func (c *C64) Line() int { return c.line }

// Cycle returns the raster cycle (1-based) executed by the next tick.
func (c *C64) Cycle() int { return c.cycle }

// BusStalled reports whether the VIC holds the bus, keeping the CPU off.
func (c *C64) BusStalled() bool { return c.stall != 0 }

// SetBusStall is the BA input of the machine, driven by the VIC.
func (c *C64) SetBusStall(mask uint16) { c.stall = mask }

// Samples returns the audio samples of the last completed frame. The slice
// is reused by the next frame.
func (c *C64) Samples() []int16 { return c.samples }

func (c *C64) SetNotifier(n Notifier) { c.notifier = n }

// SetTraceOutput writes the CPU execution trace to w, nil disables it.
func (c *C64) SetTraceOutput(w io.Writer) {
	c.trace = w
	c.CPU.SetTraceOutput(w, c.VIC)
}

func (c *C64) notify(n Notification) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

// AddLogContext implements log.LogContextAdder.
func (c *C64) AddLogContext(z *log.EntryZ) {
	z.Int64("frame", c.Frame)
	z.Raster("raster", c.line, c.cycle)
}

/* power states */

// PowerOn checks the firmware images, resets the machine to its power-on
// state and starts it.
func (c *C64) PowerOn() error {
	if c.state != Idle {
		return fmt.Errorf("power on: %w: machine is %s", ErrInvalidState, c.state)
	}
	if err := c.cfg.ROMs.Validate(); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	c.powerCycle()
	c.state = Running
	log.ModEmu.InfoZ("power on").Stringer("standard", c.cfg.Standard).End()
	return nil
}

func (c *C64) Pause() error {
	if c.state != Running {
		return fmt.Errorf("pause: %w: machine is %s", ErrInvalidState, c.state)
	}
	c.state = Paused
	return nil
}

func (c *C64) Resume() error {
	if c.state != Paused {
		return fmt.Errorf("resume: %w: machine is %s", ErrInvalidState, c.state)
	}
	c.state = Running
	return nil
}

// Halt powers the machine off. Its state is lost.
func (c *C64) Halt() {
	if c.state == Idle {
		return
	}
	c.powerCycle()
	c.state = Idle
	log.ModEmu.InfoZ("power off").End()
}

// PowerOff is Halt.
func (c *C64) PowerOff() { c.Halt() }

// powerCycle restarts time at tick 0 of frame 0, then hard resets. The clock
// goes back first since the chips schedule their events relative to it.
func (c *C64) powerCycle() {
	c.Clock.Set(0)
	c.Frame = 0
	c.Reset(true)
}

// Reset resets the machine. A soft reset pulls the RESET line and preserves
// memory. A hard reset also restores the power-on memory pattern. Inserted
// media stay in both cases.
func (c *C64) Reset(hard bool) {
	c.Sched.Reset()
	if hard {
		c.Mem.Reset()
	}
	c.Input.Reset()
	c.Datasette.Reset()
	c.IEC.Reset()
	for _, d := range c.Drives {
		d.Reset()
	}
	c.VIC.Reset()
	c.CIA1.Reset()
	c.CIA2.Reset()
	c.SID.Reset()
	c.CPU.Reset()

	c.line, c.cycle = 0, 1
	c.stall = c.VIC.BusStallMask()
	c.flags.Store(0)

	hz := c.cfg.Standard.ClockHz()
	c.Sched.ScheduleRel(sched.INS, hz/inspectPeriod, sched.INSRecord, 0)
	if c.cfg.AutoSnapshotSecs > 0 {
		c.Sched.ScheduleRel(sched.SNP, hz*int64(c.cfg.AutoSnapshotSecs), sched.SNPTake, 0)
	}
	log.ModEmu.DebugZ("reset").Bool("hard", hard).End()
}

// SetStandard switches the video standard. The machine must be off or at a
// frame boundary. A running machine is power cycled; inserted media stay.
func (c *C64) SetStandard(std vic.Standard) error {
	if std == c.cfg.Standard {
		return nil
	}
	if c.state != Idle && (c.line != 0 || c.cycle != 1) {
		return ErrStandardSwitch
	}

	type media struct {
		disk *drive.Disk
		wp   bool
	}
	var disks [2]media
	for i, d := range c.Drives {
		disks[i] = media{d.Disk(), d.WriteProtected()}
		c.cfg.Drives[i].Connected = d.Connected()
	}
	tape := c.Datasette.Tape()

	c.cfg.Standard = std
	c.build()
	if c.state != Idle {
		c.Reset(true)
	}
	for i, m := range disks {
		if m.disk != nil {
			c.Drives[i].InsertDisk(m.disk, m.wp)
		}
	}
	if tape != nil {
		c.Datasette.Insert(tape)
	}
	c.notify(Notification{Kind: NotifyStandard, Data: int64(std)})
	return nil
}
