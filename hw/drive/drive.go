// Package drive implements the floppy drives connected to the serial bus.
//
// A drive runs in its own clock domain: it is handed one C64 cycle at a
// time and converts it to drive cycles (1 MHz). While connected it rotates
// the disk under the head, answers the serial bus as a listener and goes
// through the staged disk change procedure (the disk is pulled out
// half-way, fully ejected, then a new one is half-inserted and fully
// inserted, each step after a delay, so that the light barrier sensing
// write protection sees the same sequence as on real hardware).
package drive

import (
	"c64core/emu/log"
	"c64core/hw/iec"
	"c64core/hw/sched"
	"c64core/hw/snapshot"
)

// ClockHz is the drive CPU clock.
const ClockHz = 1000000

type Config struct {
	Connected     bool `toml:"connected"`
	EjectDelayMs  int  `toml:"eject_delay_ms"`
	SwapDelayMs   int  `toml:"swap_delay_ms"`
	InsertDelayMs int  `toml:"insert_delay_ms"`
}

func (cfg *Config) Init() {
	if cfg.EjectDelayMs <= 0 {
		cfg.EjectDelayMs = 500
	}
	if cfg.SwapDelayMs <= 0 {
		cfg.SwapDelayMs = 500
	}
	if cfg.InsertDelayMs <= 0 {
		cfg.InsertDelayMs = 500
	}
}

type Bus interface {
	High(l iec.Line) bool
	SetDevice(idx int, pulled iec.Line)
}

type Scheduler interface {
	Now() int64
	ScheduleAbs(slot sched.Slot, trigger int64, id sched.EventID, data int64)
	Cancel(slot sched.Slot)
}

// Listener is told about completed disk changes.
type Listener interface {
	DiskChanged(id int, inserted bool)
}

// Insertion is the mechanical state of the disk.
type Insertion uint8

const (
	FullyEjected Insertion = iota
	PartiallyInserted
	FullyInserted
	PartiallyEjected
)

func (i Insertion) String() string {
	switch i {
	case FullyEjected:
		return "ejected"
	case PartiallyInserted:
		return "partially inserted"
	case FullyInserted:
		return "inserted"
	case PartiallyEjected:
		return "partially ejected"
	}
	return "?"
}

// spinDown is the idle time after which the motor stops, in drive cycles.
const spinDown = 2 * ClockHz

type Drive struct {
	ID   int // device number, 8 or 9
	idx  int // bus device index
	slot sched.Slot

	cfg      Config
	bus      Bus
	sched    Scheduler
	listener Listener
	hostHz   int64

	// virtual time
	acc     int64
	Elapsed int64 // drive cycles

	// mechanics
	spinning  bool
	lastUse   int64
	halftrack int
	bitPos    int
	rotAcc    int

	disk       *Disk
	wp         bool
	status     Insertion
	toInsert   *Disk
	toInsertWP bool

	ser serial
}

// New creates drive id (8 or 9). hostHz is the C64 clock frequency.
func New(id int, cfg Config, hostHz int64, bus Bus, s Scheduler, l Listener) *Drive {
	cfg.Init()
	d := &Drive{
		ID:       id,
		cfg:      cfg,
		bus:      bus,
		sched:    s,
		listener: l,
		hostHz:   hostHz,
	}
	switch id {
	case 8:
		d.idx, d.slot = 0, sched.DC8
	case 9:
		d.idx, d.slot = 1, sched.DC9
	default:
		panic("drive: invalid device number")
	}
	d.Reset()
	return d
}

func (d *Drive) Connected() bool { return d.cfg.Connected }

// SetConnected plugs or unplugs the drive. An unplugged drive releases the
// bus.
func (d *Drive) SetConnected(on bool) {
	d.cfg.Connected = on
	if !on {
		d.ser = serial{}
		d.bus.SetDevice(d.idx, 0)
	}
}

// Reset resets the drive electronics. The disk stays in place.
func (d *Drive) Reset() {
	d.acc = 0
	d.Elapsed = 0
	d.spinning = false
	d.halftrack = 2 * 18
	d.bitPos = 0
	d.rotAcc = 0
	d.ser = serial{}
	d.bus.SetDevice(d.idx, 0)
}

// Execute advances the drive by one C64 cycle.
func (d *Drive) Execute() {
	if !d.cfg.Connected {
		return
	}
	d.acc += ClockHz
	for d.acc >= d.hostHz {
		d.acc -= d.hostHz
		d.cycle()
	}
}

func (d *Drive) cycle() {
	d.Elapsed++
	d.ser.step(d)

	if !d.spinning {
		return
	}
	trk := d.halftrack / 2
	d.rotAcc += 16
	for cell := bitCell(trk); d.rotAcc >= cell; d.rotAcc -= cell {
		d.bitPos++
		if d.bitPos >= trackBits(trk) {
			d.bitPos = 0
		}
	}
	if d.Elapsed-d.lastUse >= spinDown {
		d.setMotor(false)
	}
}

func (d *Drive) setMotor(on bool) {
	if on {
		d.lastUse = d.Elapsed
	}
	if on == d.spinning {
		return
	}
	d.spinning = on
	log.ModDrive.DebugZ("motor").Int("drive", d.ID).Bool("on", on).End()
}

func (d *Drive) Spinning() bool { return d.spinning }

// Head returns the head position: track (1-based) and bit offset.
func (d *Drive) Head() (track, bit int) { return d.halftrack / 2, d.bitPos }

// Seek moves the head over track t.
func (d *Drive) Seek(t int) {
	t = min(max(t, 1), NumTracks)
	if d.halftrack/2 != t {
		d.halftrack = 2 * t
		d.bitPos %= trackBits(t)
	}
}

/* disk change */

func (d *Drive) Disk() *Disk          { return d.disk }
func (d *Drive) Insertion() Insertion { return d.status }

// WriteProtected reports the light barrier state: it is blocked by a write
// protected disk or by a disk being inserted or ejected.
func (d *Drive) WriteProtected() bool {
	switch d.status {
	case PartiallyInserted, PartiallyEjected:
		return true
	case FullyInserted:
		return d.wp
	}
	return false
}

// InsertDisk starts the disk change procedure, ejecting the current disk
// first. It is ignored while another disk is waiting to be inserted.
func (d *Drive) InsertDisk(disk *Disk, wp bool) {
	if d.toInsert != nil {
		return
	}
	d.toInsert, d.toInsertWP = disk, wp
	d.scheduleTransition(1)
}

// EjectDisk starts the eject procedure.
func (d *Drive) EjectDisk() {
	if d.status != FullyInserted || d.toInsert != nil {
		return
	}
	d.scheduleTransition(1)
}

func (d *Drive) delay(ms int) int64 { return d.hostHz * int64(ms) / 1000 }

func (d *Drive) scheduleTransition(delay int64) {
	var id sched.EventID
	switch d.status {
	case FullyInserted, PartiallyEjected:
		id = sched.DCEject
	case FullyEjected:
		id = sched.DCInsert
	case PartiallyInserted:
		id = sched.DCDone
	}
	d.sched.ScheduleAbs(d.slot, d.sched.Now()+delay, id, 0)
}

// HandleEvent services the disk change slot of the drive.
func (d *Drive) HandleEvent(id sched.EventID, data int64) {
	prev := d.status
	switch d.status {
	case FullyInserted:
		d.status = PartiallyEjected
		d.disk = nil
		d.scheduleTransition(d.delay(d.cfg.EjectDelayMs))

	case PartiallyEjected:
		d.status = FullyEjected
		if d.listener != nil {
			d.listener.DiskChanged(d.ID, false)
		}
		d.scheduleTransition(d.delay(d.cfg.SwapDelayMs))

	case FullyEjected:
		if d.toInsert == nil {
			return
		}
		d.status = PartiallyInserted
		d.scheduleTransition(d.delay(d.cfg.InsertDelayMs))

	case PartiallyInserted:
		d.status = FullyInserted
		d.disk, d.wp = d.toInsert, d.toInsertWP
		d.toInsert = nil
		if d.listener != nil {
			d.listener.DiskChanged(d.ID, true)
		}
	}
	log.ModDrive.DebugZ("disk change").
		Int("drive", d.ID).
		Stringer("from", prev).
		Stringer("to", d.status).
		End()
}

/* snapshot */

func (d *Drive) SaveState(st *snapshot.Drive) {
	st.Connected = d.cfg.Connected
	st.Acc = d.acc
	st.Elapsed = d.Elapsed
	st.Spinning = d.spinning
	st.LastUse = d.lastUse
	st.Halftrack = uint8(d.halftrack)
	st.BitPos = int32(d.bitPos)
	st.RotAcc = int32(d.rotAcc)
	st.Insertion = uint8(d.status)
	st.WriteProtect = d.wp
	st.Disk = nil
	if d.disk != nil {
		st.Disk = d.disk.Bytes()
	}
	d.ser.save(&st.Serial)
}

func (d *Drive) LoadState(st *snapshot.Drive) error {
	var disk *Disk
	if st.Disk != nil {
		var err error
		if disk, err = ParseD64(st.Disk); err != nil {
			return err
		}
	}
	d.cfg.Connected = st.Connected
	d.acc = st.Acc
	d.Elapsed = st.Elapsed
	d.spinning = st.Spinning
	d.lastUse = st.LastUse
	d.halftrack = int(st.Halftrack)
	d.bitPos = int(st.BitPos)
	d.rotAcc = int(st.RotAcc)
	d.status = Insertion(st.Insertion)
	d.wp = st.WriteProtect
	d.disk = disk
	d.toInsert = nil
	d.ser.load(&st.Serial)
	return nil
}
