package hw

import (
	"fmt"

	"c64core/emu/log"
	"c64core/hw/drive"
	"c64core/hw/snapshot"
	"c64core/hw/vic"
)

// SaveState copies the whole machine state into st.
func (c *C64) SaveState(st *snapshot.Machine) {
	st.Standard = uint8(c.cfg.Standard)
	st.Clock = c.Clock.Now()
	st.Frame = c.Frame
	st.Line = int32(c.line)
	st.Cycle = int32(c.cycle)

	// CIAs first: a sleeping chip catches up, which may schedule events.
	c.CIA1.SaveState(&st.CIA1)
	c.CIA2.SaveState(&st.CIA2)
	c.Sched.SaveState(&st.Scheduler)
	c.CPU.SaveState(&st.CPU)
	c.Mem.SaveState(&st.Mem)
	c.VIC.SaveState(&st.VIC)
	c.SID.SaveState(&st.SID)
	c.Input.SaveState(&st.Input)
	c.IEC.SaveState(&st.IEC)
	for i, d := range c.Drives {
		d.SaveState(&st.Drives[i])
	}
	c.Datasette.SaveState(&st.Datasette)
}

// LoadState restores the machine from st. On error the machine is left
// untouched.
func (c *C64) LoadState(st *snapshot.Machine) error {
	if vic.Standard(st.Standard) != c.cfg.Standard {
		return fmt.Errorf("%w: snapshot is %s, machine is %s",
			snapshot.ErrSnapshotStandard, vic.Standard(st.Standard), c.cfg.Standard)
	}
	for i := range st.Drives {
		if disk := st.Drives[i].Disk; disk != nil {
			if _, err := drive.ParseD64(disk); err != nil {
				return fmt.Errorf("drive %d: %w", 8+i, err)
			}
		}
	}

	c.Clock.Set(st.Clock)
	c.Frame = st.Frame
	c.line = int(st.Line)
	c.cycle = int(st.Cycle)

	c.Mem.LoadState(&st.Mem)
	c.VIC.LoadState(&st.VIC)
	c.CIA1.LoadState(&st.CIA1)
	c.CIA2.LoadState(&st.CIA2)
	c.SID.LoadState(&st.SID)
	c.Input.LoadState(&st.Input)
	c.IEC.LoadState(&st.IEC)
	for i, d := range c.Drives {
		if err := d.LoadState(&st.Drives[i]); err != nil {
			panic(err) // the images have been checked above
		}
	}
	c.Datasette.LoadState(&st.Datasette)

	// The chips above drive the CPU lines while loading, the CPU state has
	// the right levels. The scheduler comes last, overriding whatever the
	// chips scheduled.
	c.CPU.LoadState(&st.CPU)
	c.Sched.LoadState(&st.Scheduler)
	c.stall = c.VIC.BusStallMask()
	return nil
}

// SaveSnapshot returns the encoded machine state.
func (c *C64) SaveSnapshot() ([]byte, error) {
	var st snapshot.Machine
	c.SaveState(&st)
	buf, err := snapshot.Encode(&st)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return buf, nil
}

// LoadSnapshot restores a snapshot produced by SaveSnapshot. Integrity
// failures leave the machine untouched.
func (c *C64) LoadSnapshot(data []byte) error {
	var st snapshot.Machine
	if err := snapshot.Decode(data, &st); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := c.LoadState(&st); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	log.ModSnap.InfoZ("snapshot loaded").Int64("clock", st.Clock).Int64("frame", st.Frame).End()
	return nil
}
