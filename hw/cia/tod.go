package cia

// tod is the time-of-day clock. Time is kept in BCD: tenths of seconds,
// seconds, minutes, and hours with bit 7 as the PM flag.
type tod struct {
	time  [4]uint8
	alarm [4]uint8
	latch [4]uint8

	frozen  bool // reads return latch, from an hours read to a tenths read
	stopped bool // from an hours write to a tenths write

	acc    int64 // fractional input pulse accumulator, in cycles*TODHz
	pulses uint8 // input pulses since the last tenth
}

var todMasks = [4]uint8{0x0F, 0x7F, 0x7F, 0x9F}

func (t *tod) reset() {
	*t = tod{}
	t.time[3] = 0x01
	t.stopped = true
}

func (t *tod) read(i int) uint8 {
	if t.frozen {
		return t.latch[i]
	}
	return t.time[i]
}

func bcdInc(v uint8) uint8 {
	if v&0x0F >= 9 {
		return (v & 0xF0) + 0x10
	}
	return v + 1
}

func (t *tod) increment() {
	if t.time[0] < 9 {
		t.time[0]++
		return
	}
	t.time[0] = 0

	if t.time[1] = bcdInc(t.time[1]); t.time[1] != 0x60 {
		return
	}
	t.time[1] = 0

	if t.time[2] = bcdInc(t.time[2]); t.time[2] != 0x60 {
		return
	}
	t.time[2] = 0

	pm := t.time[3] & 0x80
	switch hr := t.time[3] & 0x1F; hr {
	case 0x11:
		t.time[3] = 0x12 | (pm ^ 0x80)
	case 0x12:
		t.time[3] = 0x01 | pm
	default:
		t.time[3] = bcdInc(hr) | pm
	}
}

// AdvanceTOD feeds the time-of-day clock with the given number of master
// clock cycles. The dispatch loop calls it at the end of every scanline.
func (c *CIA) AdvanceTOD(cycles int64) {
	t := &c.tod
	t.acc += cycles * c.cfg.TODHz
	for t.acc >= c.cfg.ClockHz {
		t.acc -= c.cfg.ClockHz
		if t.stopped {
			continue
		}
		t.pulses++
		div := uint8(6)
		if c.cra&craTOD50 != 0 {
			div = 5
		}
		if t.pulses < div {
			continue
		}
		t.pulses = 0
		t.increment()
		c.checkAlarm()
	}
}

func (c *CIA) checkAlarm() {
	if c.tod.time == c.tod.alarm {
		c.raise(icrTOD)
	}
}

func (c *CIA) writeTOD(i int, val uint8) {
	val &= todMasks[i]
	if c.crb&crbAlarm != 0 {
		c.tod.alarm[i] = val
		c.checkAlarm()
		return
	}

	switch i {
	case 0:
		c.tod.stopped = false
	case 3:
		// Writing 12 into the hours register flips AM/PM.
		if val&0x1F == 0x12 {
			val ^= 0x80
		}
		c.tod.stopped = true
		c.tod.pulses = 0
	}
	c.tod.time[i] = val
	c.checkAlarm()
}
