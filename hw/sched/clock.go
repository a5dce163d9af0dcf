package sched

// Clock is the virtual master clock: the number of ticks elapsed since
// power-on. It is advanced by the dispatch loop only; other components read
// it through the scheduler.
type Clock struct {
	tick int64
}

func (c *Clock) Now() int64 { return c.tick }

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() { c.tick++ }

// Set rewinds or forwards the clock. Only used on snapshot restore and
// power-on.
func (c *Clock) Set(tick int64) { c.tick = tick }
