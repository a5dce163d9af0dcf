// Package emu runs a C64 in its own goroutine: real-time pacing, run-ahead,
// snapshots, scripting and outputs.
package emu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"c64core/emu/log"
	"c64core/hw"
	"c64core/hw/mem"
	"c64core/hw/snapshot"
	"c64core/hw/vic"
)

// pausePoll is how often a paused emulator checks for control requests.
const pausePoll = 10 * time.Millisecond

// ErrNoSnapshot is returned by Rewind when the requested snapshot has not
// been taken.
var ErrNoSnapshot = errors.New("no such snapshot")

// Emulator owns a C64 and drives it from the goroutine calling Run. Other
// goroutines must bracket any access to the machine between Suspend and
// Resume.
type Emulator struct {
	C64 *hw.C64
	cfg Config

	outs   []Output
	last   Frame // last presented frame
	shadow *hw.C64
	ahead  snapshot.Machine
	ring   snapshotRing
	notes  chan hw.Notification
	script *Script
	pacer  pacer

	mu       sync.Mutex
	cond     *sync.Cond
	suspends int
	parked   bool
	running  bool
	quit     bool

	reset   atomic.Bool
	restart atomic.Bool
	dropped atomic.Int64
}

// Launch builds and powers on the machine. It doesn't start the emulation
// loop, call Run for that.
func Launch(cfg Config, roms mem.ROMs) (*Emulator, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	hwcfg, err := cfg.HWConfig()
	if err != nil {
		return nil, err
	}
	hwcfg.ROMs = roms

	e := &Emulator{
		C64:   hw.New(hwcfg),
		cfg:   cfg,
		ring:  newSnapshotRing(cfg.Emulation.SnapshotRing),
		notes: make(chan hw.Notification, 64),
	}
	e.cond = sync.NewCond(&e.mu)
	e.C64.SetNotifier(e)
	if err := e.C64.PowerOn(); err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	if err := e.buildShadow(); err != nil {
		return nil, err
	}
	e.pacer.warp = cfg.Emulation.Warp
	return e, nil
}

// buildShadow creates the machine used for run-ahead.
func (e *Emulator) buildShadow() error {
	e.shadow = nil
	if e.cfg.Emulation.RunAheadFrames == 0 {
		return nil
	}
	cfg := e.C64.Config()
	cfg.AutoSnapshotSecs = 0
	shadow := hw.New(cfg)
	if err := shadow.PowerOn(); err != nil {
		return fmt.Errorf("run-ahead machine: %w", err)
	}
	e.shadow = shadow
	return nil
}

// AddOutput registers an output receiving every presented frame.
func (e *Emulator) AddOutput(out Output) { e.outs = append(e.outs, out) }

// Notifications returns the channel on which control events are posted.
// Notifications are dropped when the channel is full.
func (e *Emulator) Notifications() <-chan hw.Notification { return e.notes }

// Notify implements hw.Notifier. It runs on the emulation goroutine and
// never blocks.
func (e *Emulator) Notify(n hw.Notification) {
	switch n.Kind {
	case hw.NotifyFrameDone:
		return
	case hw.NotifyAutoSnapshot:
		e.ring.push(n.Snapshot)
	}
	select {
	case e.notes <- n:
	default:
		e.dropped.Add(1)
		log.ModEmu.DebugZ("notification dropped").Stringer("kind", n.Kind).End()
	}
}

/* control */

// Suspend stops the emulation loop at the next instruction boundary and
// waits for it. Calls nest: the loop continues once every Suspend has been
// matched by a Resume.
func (e *Emulator) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.suspends++
	if e.suspends == 1 && e.running {
		e.C64.SignalStop()
	}
	for e.running && !e.parked {
		e.cond.Wait()
	}
}

func (e *Emulator) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspends == 0 {
		panic("emu: Resume without Suspend")
	}
	e.suspends--
	if e.suspends == 0 {
		e.C64.CancelStop()
		e.cond.Broadcast()
	}
}

// Suspended reports the suspension depth.
func (e *Emulator) Suspended() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suspends
}

// SetPause pauses or resumes the machine.
func (e *Emulator) SetPause(pause bool) error {
	e.Suspend()
	defer e.Resume()

	if pause {
		return e.C64.Pause()
	}
	e.pacer.restart()
	return e.C64.Resume()
}

// Reset and Restart request a soft and a hard reset, performed at the end
// of the current frame.
func (e *Emulator) Reset()   { e.reset.Store(true) }
func (e *Emulator) Restart() { e.restart.Store(true) }

// Stop makes Run return.
func (e *Emulator) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.quit = true
	e.C64.SignalStop()
	e.cond.Broadcast()
}

// SetStandard switches the video standard. It is applied at the next frame
// boundary.
func (e *Emulator) SetStandard(std vic.Standard) error {
	e.Suspend()
	defer e.Resume()

	if e.C64.State() != hw.Idle && (e.C64.Line() != 0 || e.C64.Cycle() != 1) {
		e.C64.CancelStop()
		e.C64.ExecuteOneFrame()
	}
	if err := e.C64.SetStandard(std); err != nil {
		return err
	}
	e.cfg.Machine.Standard = std.String()
	return e.buildShadow()
}

// Rewind restores the n-th most recent automatic snapshot, 0 being the
// last one.
func (e *Emulator) Rewind(n int) error {
	e.Suspend()
	defer e.Resume()

	st := e.ring.get(n)
	if st == nil {
		return fmt.Errorf("rewind %d: %w", n, ErrNoSnapshot)
	}
	if err := e.C64.LoadState(st); err != nil {
		return fmt.Errorf("rewind %d: %w", n, err)
	}
	if e.script != nil {
		e.script.rearm()
	}
	e.pacer.restart()
	log.ModEmu.InfoZ("rewind").Int64("clock", st.Clock).End()
	return nil
}

// LastFrame returns a copy of the last presented frame.
func (e *Emulator) LastFrame() Frame {
	e.Suspend()
	defer e.Resume()

	return Frame{
		Video: append([]uint8(nil), e.last.Video...),
		Width: e.last.Width,
		Audio: append([]int16(nil), e.last.Audio...),
	}
}

/* loop */

// Run runs the emulation loop until Stop is called or the machine is
// halted.
func (e *Emulator) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	defer log.AddContext(e.C64)()

	e.pacer.restart()
	for e.wait() {
		e.handleReset()
		switch e.C64.State() {
		case hw.Idle:
			e.Stop()
			continue
		case hw.Paused:
			time.Sleep(pausePoll)
			e.pacer.restart()
			continue
		}
		if e.RunOneFrame() {
			e.pacer.wait(e.C64.Standard())
		}
	}

	e.mu.Lock()
	e.running = false
	e.cond.Broadcast()
	e.mu.Unlock()

	for _, out := range e.outs {
		if err := out.Close(); err != nil {
			log.ModEmu.WarnZ("failed to close output").Error("err", err).End()
		}
	}
	if e.script != nil {
		e.script.Close()
	}
	log.ModEmu.InfoZ("Emulation loop exited").End()
}

// wait parks the loop while it is suspended. It reports whether the loop
// must go on.
func (e *Emulator) wait() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspends > 0 && !e.quit {
		e.parked = true
		e.cond.Broadcast()
		for e.suspends > 0 && !e.quit {
			e.cond.Wait()
		}
		e.parked = false
		e.pacer.restart()
	}
	return !e.quit
}

// RunOneFrame runs the machine up to the next frame boundary and presents
// the frame. It reports whether a frame has been presented.
func (e *Emulator) RunOneFrame() bool {
	switch r := e.C64.ExecuteOneFrame(); r {
	case hw.StopNone:
	case hw.StopRequested, hw.StopCorrupted:
		return false
	default:
		log.ModEmu.InfoZ("emulation paused").Stringer("reason", r).End()
		e.C64.Pause()
		return false
	}

	frame := Frame{
		Video: e.C64.VIC.Frame(),
		Width: vic.FrameWidth(e.C64.Standard()),
		Audio: e.C64.Samples(),
	}
	if e.shadow != nil {
		frame.Video = e.runAhead()
	}
	e.present(frame)
	return true
}

// runAhead clones the machine into the shadow one and runs it ahead. It
// returns the video of the last frame run ahead.
func (e *Emulator) runAhead() []uint8 {
	e.C64.SaveState(&e.ahead)
	if err := e.shadow.LoadState(&e.ahead); err != nil {
		panic(fmt.Sprintf("run-ahead: %v", err))
	}
	for range e.cfg.Emulation.RunAheadFrames {
		e.shadow.ExecuteOneFrame()
	}
	return e.shadow.VIC.Frame()
}

func (e *Emulator) present(frame Frame) {
	e.last = frame
	outs := e.outs[:0]
	for _, out := range e.outs {
		if err := out.EndFrame(frame); err != nil {
			log.ModEmu.WarnZ("output failed, removed").Error("err", err).End()
			out.Close()
			continue
		}
		outs = append(outs, out)
	}
	e.outs = outs
}

func (e *Emulator) handleReset() {
	switch {
	case e.reset.CompareAndSwap(true, false):
		log.ModEmu.InfoZ("Performing soft reset").End()
		e.C64.Reset(false)
	case e.restart.CompareAndSwap(true, false):
		log.ModEmu.InfoZ("Performing hard reset").End()
		e.C64.Reset(true)
	default:
		return
	}
	if e.script != nil {
		e.script.rearm()
	}
}

/* pacing */

// maxLag is how late the loop can get before pacing gives up catching up.
const maxLag = 100 * time.Millisecond

type pacer struct {
	warp bool
	next time.Time
}

func (p *pacer) restart() { p.next = time.Time{} }

// wait sleeps until the next frame is due.
func (p *pacer) wait(std vic.Standard) {
	if p.warp {
		return
	}
	period := time.Duration(std.CyclesPerFrame()) * time.Second / time.Duration(std.ClockHz())

	now := time.Now()
	if p.next.IsZero() || now.Sub(p.next) > maxLag {
		p.next = now
	}
	p.next = p.next.Add(period)
	if d := p.next.Sub(now); d > 0 {
		time.Sleep(d)
	}
}

// SetWarp disables real-time pacing.
func (e *Emulator) SetWarp(warp bool) {
	e.Suspend()
	defer e.Resume()

	e.pacer.warp = warp
	e.pacer.restart()
}

/* snapshot ring */

// snapshotRing keeps the most recent automatic snapshots.
type snapshotRing struct {
	buf  []*snapshot.Machine
	head int // next write position
	n    int
}

func newSnapshotRing(size int) snapshotRing {
	return snapshotRing{buf: make([]*snapshot.Machine, max(size, 1))}
}

func (r *snapshotRing) push(st *snapshot.Machine) {
	r.buf[r.head] = st
	r.head = (r.head + 1) % len(r.buf)
	r.n = min(r.n+1, len(r.buf))
}

// get returns the i-th most recent snapshot, or nil.
func (r *snapshotRing) get(i int) *snapshot.Machine {
	if i < 0 || i >= r.n {
		return nil
	}
	return r.buf[(r.head-1-i+len(r.buf))%len(r.buf)]
}

func (r *snapshotRing) len() int { return r.n }
