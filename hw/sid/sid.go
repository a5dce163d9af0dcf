// Package sid implements the SID 6581 register file and a simplified
// three-voice synthesizer. The chip runs lazily: it catches up with the
// machine clock whenever a register is accessed or a frame ends, and feeds
// its output to a band-limited buffer.
package sid

import (
	"github.com/arl/blip"

	"c64core/emu/log"
	"c64core/hw/snapshot"
)

// Clock is the machine cycle counter the chip catches up with.
type Clock interface {
	Now() int64
}

type Config struct {
	ClockHz    float64
	SampleRate int
}

const DefaultSampleRate = 44100

// register offsets
const (
	regFCLo    = 0x15
	regFCHi    = 0x16
	regResFilt = 0x17
	regModeVol = 0x18
	regPotX    = 0x19
	regPotY    = 0x1A
	regOsc3    = 0x1B
	regEnv3    = 0x1C

	voiceOff3 = 0x80 // mode/vol: disconnect voice 3
)

// output is recomputed every outputStep cycles, the blip buffer
// band-limits the resulting steps.
const outputStep = 8

type SID struct {
	voices [3]voice

	fc      uint16
	resFilt uint8
	modeVol uint8

	potX, potY uint8
	bus        uint8 // last value written, read back from write-only registers

	clock      Clock
	last       int64 // cycle the chip has run up to
	frameStart int64

	buf     *blip.Buffer
	prevOut int32
	outbuf  []int16
	rate    int
}

func New(cfg Config, clock Clock) *SID {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	s := &SID{
		clock:  clock,
		buf:    blip.NewBuffer(cfg.SampleRate / 10),
		outbuf: make([]int16, cfg.SampleRate/10*2),
		rate:   cfg.SampleRate,
	}
	s.buf.SetRates(cfg.ClockHz, float64(cfg.SampleRate))
	s.Reset()
	return s
}

func (s *SID) SampleRate() int { return s.rate }

func (s *SID) Reset() {
	for i := range s.voices {
		s.voices[i].reset()
	}
	s.fc, s.resFilt, s.modeVol = 0, 0, 0
	s.bus = 0
	s.potX, s.potY = 0xFF, 0xFF
	s.last = s.clock.Now()
	s.frameStart = s.last
	s.prevOut = 0
	s.buf.Clear()
}

// SetPots sets the paddle values read at POTX and POTY.
func (s *SID) SetPots(x, y uint8) { s.potX, s.potY = x, y }

func (s *SID) Read(off uint16) uint8 {
	s.catchUp()
	return s.Peek(off)
}

func (s *SID) Peek(off uint16) uint8 {
	switch off & 0x1F {
	case regPotX:
		return s.potX
	case regPotY:
		return s.potY
	case regOsc3:
		return uint8(s.voices[2].output(&s.voices[1]) >> 4)
	case regEnv3:
		return s.voices[2].env
	}
	return s.bus
}

func (s *SID) Write(off uint16, val uint8) {
	s.catchUp()
	s.bus = val

	off &= 0x1F
	if off < regFCLo {
		v := &s.voices[off/7]
		switch off % 7 {
		case 0:
			v.freq = v.freq&0xFF00 | uint16(val)
		case 1:
			v.freq = v.freq&0x00FF | uint16(val)<<8
		case 2:
			v.pw = v.pw&0x0F00 | uint16(val)
		case 3:
			v.pw = v.pw&0x00FF | uint16(val&0x0F)<<8
		case 4:
			v.writeControl(val)
		case 5:
			v.ad = val
		case 6:
			v.sr = val
		}
		return
	}

	switch off {
	case regFCLo:
		s.fc = s.fc&0x7F8 | uint16(val&7)
	case regFCHi:
		s.fc = s.fc&7 | uint16(val)<<3
	case regResFilt:
		s.resFilt = val
	case regModeVol:
		s.modeVol = val
	default:
		log.ModSound.DebugZ("write to read-only register").Hex8("off", uint8(off)).Hex8("val", val).End()
	}
}

func (s *SID) catchUp() {
	now := s.clock.Now()
	if now > s.last {
		s.run(now - s.last)
	}
}

// run clocks the chip for n cycles.
func (s *SID) run(n int64) {
	for range n {
		for i := range s.voices {
			s.voices[i].clockOsc()
		}
		for i := range s.voices {
			s.voices[i].sync(&s.voices[(i+2)%3])
			s.voices[i].clockEnv()
		}
		s.last++
		if s.last%outputStep == 0 {
			s.mix()
		}
	}
}

func (s *SID) mix() {
	var sum int32
	for i := range s.voices {
		if i == 2 && s.modeVol&voiceOff3 != 0 {
			continue
		}
		v := &s.voices[i]
		wave := int32(v.output(&s.voices[(i+2)%3])) - 0x800
		sum += wave * int32(v.env)
	}
	out := sum * int32(s.modeVol&0x0F) / 15 >> 6

	if out != s.prevOut {
		s.buf.AddDelta(uint64(s.last-s.frameStart), out-s.prevOut)
		s.prevOut = out
	}
}

// Output returns the current mixed output level.
func (s *SID) Output() int32 { return s.prevOut }

// EndFrame brings the chip up to date and returns the stereo samples
// produced since the previous call. The returned slice is reused.
func (s *SID) EndFrame() []int16 {
	s.catchUp()
	s.buf.EndFrame(int(s.last - s.frameStart))
	s.frameStart = s.last

	n := s.buf.ReadSamples(s.outbuf, len(s.outbuf)/2, blip.Stereo)
	for i := 0; i < n*2; i += 2 {
		s.outbuf[i+1] = s.outbuf[i]
	}
	return s.outbuf[:n*2]
}

/* snapshot */

func (s *SID) SaveState(st *snapshot.SID) {
	s.catchUp()
	for i := range s.voices {
		v := &s.voices[i]
		st.Voices[i] = snapshot.SIDVoice{
			Freq:      v.freq,
			PW:        v.pw,
			Control:   v.control,
			AD:        v.ad,
			SR:        v.sr,
			Acc:       v.acc,
			Shift:     v.shift,
			Env:       v.env,
			EnvState:  uint8(v.state),
			RateCnt:   v.rateCnt,
			ExpCnt:    v.expCnt,
			ExpPeriod: v.expPeriod,
			HoldZero:  v.holdZero,
			PrevBit19: v.prevBit19,
		}
	}
	st.FC = s.fc
	st.ResFilt = s.resFilt
	st.ModeVol = s.modeVol
	st.Bus = s.bus
	st.Last = s.last
	st.Output = s.prevOut
}

func (s *SID) LoadState(st *snapshot.SID) {
	for i := range s.voices {
		sv := &st.Voices[i]
		s.voices[i] = voice{
			freq:      sv.Freq,
			pw:        sv.PW,
			control:   sv.Control,
			ad:        sv.AD,
			sr:        sv.SR,
			acc:       sv.Acc,
			shift:     sv.Shift,
			env:       sv.Env,
			state:     envState(sv.EnvState),
			rateCnt:   sv.RateCnt,
			expCnt:    sv.ExpCnt,
			expPeriod: sv.ExpPeriod,
			holdZero:  sv.HoldZero,
			prevBit19: sv.PrevBit19,
		}
	}
	s.fc = st.FC
	s.resFilt = st.ResFilt
	s.modeVol = st.ModeVol
	s.bus = st.Bus
	s.last = st.Last
	s.frameStart = st.Last
	s.prevOut = st.Output
	s.buf.Clear()
}
