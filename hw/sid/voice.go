package sid

// control register bits
const (
	ctrlGate  = 0x01
	ctrlSync  = 0x02
	ctrlRing  = 0x04
	ctrlTest  = 0x08
	ctrlTri   = 0x10
	ctrlSaw   = 0x20
	ctrlPulse = 0x40
	ctrlNoise = 0x80
)

type envState uint8

const (
	envRelease envState = iota
	envAttack
	envDecaySustain
)

// rate counter periods, in cycles, for each of the 16 ADSR settings.
var ratePeriods = [16]uint16{
	9, 32, 63, 95, 149, 220, 267, 313, 392, 977, 1954, 3126, 3907, 11720, 19532, 31251,
}

type voice struct {
	freq    uint16
	pw      uint16 // 12 bits
	control uint8
	ad, sr  uint8

	acc     uint32 // 24 bits
	shift   uint32 // 23-bit noise LFSR
	msbRise bool   // accumulator MSB rose this cycle, for hard sync

	env       uint8
	state     envState
	rateCnt   uint16
	expCnt    uint8
	expPeriod uint8
	holdZero  bool
	prevBit19 bool
}

func (v *voice) reset() {
	*v = voice{shift: 0x7FFFF8, expPeriod: 1, holdZero: true}
}

func (v *voice) writeControl(val uint8) {
	gateOn := val&ctrlGate != 0 && v.control&ctrlGate == 0
	gateOff := val&ctrlGate == 0 && v.control&ctrlGate != 0
	v.control = val

	if val&ctrlTest != 0 {
		v.acc = 0
		v.shift = 0x7FFFF8
	}

	switch {
	case gateOn:
		v.state = envAttack
		v.holdZero = false
	case gateOff:
		v.state = envRelease
	}
}

// clockOsc advances the oscillator by one cycle.
func (v *voice) clockOsc() {
	v.msbRise = false
	if v.control&ctrlTest != 0 {
		return
	}
	prev := v.acc
	v.acc = (v.acc + uint32(v.freq)) & 0xFFFFFF
	v.msbRise = prev&0x800000 == 0 && v.acc&0x800000 != 0

	bit19 := v.acc&0x080000 != 0
	if bit19 && !v.prevBit19 {
		fb := (v.shift>>22 ^ v.shift>>17) & 1
		v.shift = (v.shift<<1 | fb) & 0x7FFFFF
	}
	v.prevBit19 = bit19
}

// sync resets the accumulator when the sync source MSB rises.
func (v *voice) sync(src *voice) {
	if v.control&ctrlSync != 0 && src.msbRise {
		v.acc = 0
	}
}

// output returns the 12-bit waveform output. ringSrc is the voice
// modulating this one.
func (v *voice) output(ringSrc *voice) uint16 {
	var out uint16 = 0xFFF
	wave := v.control & 0xF0
	if wave == 0 {
		return 0
	}

	if wave&ctrlTri != 0 {
		msb := v.acc & 0x800000
		if v.control&ctrlRing != 0 {
			msb ^= ringSrc.acc & 0x800000
		}
		tri := v.acc
		if msb != 0 {
			tri = ^tri
		}
		out &= uint16(tri>>11) & 0xFFF
	}
	if wave&ctrlSaw != 0 {
		out &= uint16(v.acc >> 12)
	}
	if wave&ctrlPulse != 0 {
		if v.control&ctrlTest == 0 && uint16(v.acc>>12) < v.pw {
			out &= 0
		}
	}
	if wave&ctrlNoise != 0 {
		s := v.shift
		noise := (s>>20&1)<<11 | (s>>18&1)<<10 | (s>>14&1)<<9 | (s>>11&1)<<8 |
			(s>>9&1)<<7 | (s>>5&1)<<6 | (s>>2&1)<<5 | (s&1)<<4
		out &= uint16(noise)
	}
	return out
}

// clockEnv advances the envelope generator by one cycle.
func (v *voice) clockEnv() {
	var rate uint8
	switch v.state {
	case envAttack:
		rate = v.ad >> 4
	case envDecaySustain:
		rate = v.ad & 0x0F
	case envRelease:
		rate = v.sr & 0x0F
	}

	v.rateCnt++
	if v.rateCnt < ratePeriods[rate] {
		return
	}
	v.rateCnt = 0

	if v.state != envAttack {
		v.expCnt++
		if v.expCnt < v.expPeriod {
			return
		}
		v.expCnt = 0
	}

	if v.holdZero {
		return
	}

	switch v.state {
	case envAttack:
		v.env++
		if v.env == 0xFF {
			v.state = envDecaySustain
		}
	case envDecaySustain:
		if v.env != v.sr>>4*0x11 {
			v.env--
		}
	case envRelease:
		v.env--
	}

	switch v.env {
	case 0xFF:
		v.expPeriod = 1
	case 0x5D:
		v.expPeriod = 2
	case 0x36:
		v.expPeriod = 4
	case 0x1A:
		v.expPeriod = 8
	case 0x0E:
		v.expPeriod = 16
	case 0x06:
		v.expPeriod = 30
	case 0x00:
		v.expPeriod = 1
		v.holdZero = true
	}
}
