package emu

import (
	"fmt"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"c64core/emu/log"
	"c64core/hw"
)

// Script is a Lua script driving the machine. It runs on the emulation
// goroutine: its top-level code when loaded, then the functions it
// registered with c64.after, each at its own clock tick.
//
// Functions available to the script, in the c64 table:
//
//	peek(addr)          read memory without side effects
//	poke(addr, val)     write memory
//	after(ticks, fn)    call fn once ticks clock ticks have elapsed
//	clock()             current clock tick
//	frame()             frames completed since power-on
//	raster()            current scanline and raster cycle
//	regs()              table of the CPU registers
//	type(text)          type text on the keyboard
//	pause()             pause the machine at the next instruction boundary
//	snapshot()          take a snapshot at the next instruction boundary
//	breakpoint(addr)    set a breakpoint
//	alarm(tick, data)   post an alarm notification at the given tick
//	log(msg)            log a message
type Script struct {
	L *lua.LState
	c *hw.C64

	pending []scriptCall // sorted by tick
	fns     map[int64]*lua.LFunction
	nextID  int64
}

type scriptCall struct {
	tick int64
	id   int64
}

// LoadScript runs the Lua file at path against c and installs the script
// as the machine script host. Calls the script registers before a failure
// are dropped.
func LoadScript(c *hw.C64, path string) (*Script, error) {
	s := newScript(c)
	if err := s.L.DoFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	c.SetScriptHost(s)
	log.ModScript.InfoZ("script loaded").String("path", path).Int("pending", len(s.pending)).End()
	return s, nil
}

// RunScript is like LoadScript with the script source in src.
func RunScript(c *hw.C64, src string) (*Script, error) {
	s := newScript(c)
	if err := s.L.DoString(src); err != nil {
		s.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	c.SetScriptHost(s)
	return s, nil
}

func newScript(c *hw.C64) *Script {
	s := &Script{
		L:   lua.NewState(),
		c:   c,
		fns: make(map[int64]*lua.LFunction),
	}
	tbl := s.L.NewTable()
	s.L.SetFuncs(tbl, map[string]lua.LGFunction{
		"peek":       s.peek,
		"poke":       s.poke,
		"after":      s.after,
		"clock":      s.clock,
		"frame":      s.frame,
		"raster":     s.raster,
		"regs":       s.regs,
		"type":       s.typeText,
		"pause":      s.pause,
		"snapshot":   s.snapshot,
		"breakpoint": s.breakpoint,
		"alarm":      s.alarm,
		"log":        s.log,
	})
	s.L.SetGlobal("c64", tbl)
	return s
}

// LoadScript loads a script into the emulator, replacing the current one.
func (e *Emulator) LoadScript(path string) error {
	e.Suspend()
	defer e.Resume()

	s, err := LoadScript(e.C64, path)
	if err != nil {
		return err
	}
	if e.script != nil {
		e.script.Close()
	}
	e.script = s
	return nil
}

func (s *Script) Close() {
	s.L.Close()
}

// Pending returns the number of calls waiting for their tick.
func (s *Script) Pending() int { return len(s.pending) }

// ScriptCallback implements hw.ScriptHost.
func (s *Script) ScriptCallback(int64) {
	now := s.c.Clock.Now()
	for len(s.pending) > 0 && s.pending[0].tick <= now {
		call := s.pending[0]
		s.pending = s.pending[1:]
		fn := s.fns[call.id]
		delete(s.fns, call.id)

		err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		if err != nil {
			log.ModScript.ErrorZ("script call failed").Error("err", err).End()
		}
	}
	s.rearm()
}

// rearm schedules the earliest pending call. Pending calls whose tick has
// passed, after a snapshot load for example, are called on the next tick.
func (s *Script) rearm() {
	if len(s.pending) == 0 {
		return
	}
	next := s.pending[0]
	s.c.ScheduleScript(next.tick-s.c.Clock.Now(), next.id)
}

func (s *Script) peek(L *lua.LState) int {
	addr := L.CheckInt(1)
	L.Push(lua.LNumber(s.c.Mem.Peek8(uint16(addr))))
	return 1
}

func (s *Script) poke(L *lua.LState) int {
	addr, val := L.CheckInt(1), L.CheckInt(2)
	s.c.Mem.Write8(uint16(addr), uint8(val))
	return 0
}

func (s *Script) after(L *lua.LState) int {
	ticks := max(L.CheckInt64(1), 1)
	fn := L.CheckFunction(2)

	s.nextID++
	call := scriptCall{tick: s.c.Clock.Now() + ticks, id: s.nextID}
	s.fns[call.id] = fn
	i, _ := slices.BinarySearchFunc(s.pending, call.tick+1, func(c scriptCall, t int64) int {
		return int(c.tick - t)
	})
	s.pending = slices.Insert(s.pending, i, call)
	if i == 0 {
		s.rearm()
	}
	return 0
}

func (s *Script) clock(L *lua.LState) int {
	L.Push(lua.LNumber(s.c.Clock.Now()))
	return 1
}

func (s *Script) frame(L *lua.LState) int {
	L.Push(lua.LNumber(s.c.Frame))
	return 1
}

func (s *Script) raster(L *lua.LState) int {
	L.Push(lua.LNumber(s.c.Line()))
	L.Push(lua.LNumber(s.c.Cycle()))
	return 2
}

func (s *Script) regs(L *lua.LState) int {
	cpu := s.c.CPU
	tbl := L.NewTable()
	tbl.RawSetString("pc", lua.LNumber(cpu.PC))
	tbl.RawSetString("a", lua.LNumber(cpu.A))
	tbl.RawSetString("x", lua.LNumber(cpu.X))
	tbl.RawSetString("y", lua.LNumber(cpu.Y))
	tbl.RawSetString("sp", lua.LNumber(cpu.SP))
	tbl.RawSetString("p", lua.LNumber(uint8(cpu.P)))
	L.Push(tbl)
	return 1
}

func (s *Script) typeText(L *lua.LState) int {
	if err := s.c.Input.Type(L.CheckString(1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (s *Script) pause(L *lua.LState) int {
	if s.c.State() == hw.Running {
		s.c.Pause()
		s.c.SignalStop()
	}
	return 0
}

func (s *Script) snapshot(L *lua.LState) int {
	s.c.RequestSnapshot()
	return 0
}

func (s *Script) breakpoint(L *lua.LState) int {
	s.c.SetBreakpoint(uint16(L.CheckInt(1)))
	return 0
}

func (s *Script) alarm(L *lua.LState) int {
	s.c.SetAlarm(L.CheckInt64(1), L.OptInt64(2, 0))
	return 0
}

func (s *Script) log(L *lua.LState) int {
	log.ModScript.InfoZ(L.CheckString(1)).End()
	return 0
}
