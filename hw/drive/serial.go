package drive

import (
	"c64core/emu/log"
	"c64core/hw/iec"
	"c64core/hw/snapshot"
)

type serState uint8

const (
	serIdle   serState = iota
	serHold            // DATA pulled, waiting for the talker to release CLK
	serReady           // DATA released, waiting for the talker
	serEOIAck          // DATA pulled to acknowledge an end of transmission
	serBits            // receiving a byte
)

// serial bus timings, in drive cycles
const (
	eoiTimeout = 200
	eoiAckLen  = 60
)

// bus commands, sent under ATN
const (
	cmdListen   = 0x20
	cmdUnlisten = 0x3F
	cmdTalk     = 0x40
	cmdUntalk   = 0x5F
	cmdData     = 0x60
	cmdClose    = 0xE0
	cmdOpen     = 0xF0
)

// serial is the listener side of the serial bus protocol.
type serial struct {
	state  serState
	pulled iec.Line
	atnLow bool
	clkLow bool
	since  int64

	bits uint8
	n    uint8
	eoi  bool

	underATN  bool
	listening bool
	talking   bool
	opening   bool
	secondary uint8
	buf       []byte

	channels [16]string // names of open channels
	command  string     // last command received on channel 15
}

func (s *serial) pull(d *Drive, l iec.Line) {
	s.pulled |= l
	d.bus.SetDevice(d.idx, s.pulled)
}

func (s *serial) release(d *Drive, l iec.Line) {
	s.pulled &^= l
	d.bus.SetDevice(d.idx, s.pulled)
}

func (s *serial) step(d *Drive) {
	atnLow := !d.bus.High(iec.ATN)
	clkLow := !d.bus.High(iec.CLK)
	now := d.Elapsed

	switch {
	case atnLow && !s.atnLow:
		// Every device answers ATN by pulling DATA.
		s.underATN = true
		s.state = serHold
		s.pull(d, iec.DATA)
	case !atnLow && s.atnLow:
		s.underATN = false
		if !s.listening {
			if s.talking {
				log.ModDrive.WarnZ("talker role not supported").Int("drive", d.ID).End()
				s.talking = false
			}
			s.state = serIdle
			s.release(d, iec.DATA|iec.CLK)
		}
	}
	s.atnLow = atnLow

	switch s.state {
	case serHold:
		if !clkLow {
			s.release(d, iec.DATA)
			s.state = serReady
			s.since = now
			s.eoi = false
		}
	case serReady:
		switch {
		case clkLow:
			s.state = serBits
			s.bits, s.n = 0, 0
		case !s.eoi && now-s.since >= eoiTimeout:
			s.eoi = true
			s.pull(d, iec.DATA)
			s.state = serEOIAck
			s.since = now
		}
	case serEOIAck:
		if now-s.since >= eoiAckLen {
			s.release(d, iec.DATA)
			s.state = serReady
		}
	case serBits:
		switch {
		case !clkLow && s.clkLow && s.n < 8:
			// Bits are valid on the CLK rising edge, LSB first.
			if d.bus.High(iec.DATA) {
				s.bits |= 1 << s.n
			}
			s.n++
		case clkLow && !s.clkLow && s.n == 8:
			s.pull(d, iec.DATA)
			s.state = serHold
			s.received(d, s.bits)
		}
	}
	s.clkLow = clkLow
}

func (s *serial) received(d *Drive, b uint8) {
	if !s.underATN {
		if s.listening {
			s.buf = append(s.buf, b)
		}
		return
	}

	switch {
	case b == cmdUnlisten:
		if s.listening {
			s.endListen(d)
		}
		s.listening = false
	case b == cmdUntalk:
		s.talking = false
	case b&0xE0 == cmdListen:
		s.listening = int(b&0x1F) == d.ID
		s.opening = false
		s.buf = s.buf[:0]
	case b&0xE0 == cmdTalk:
		s.talking = int(b&0x1F) == d.ID
	case b&0xF0 == cmdData:
		s.secondary = b & 0x0F
	case b&0xF0 == cmdClose:
		if s.listening {
			s.channels[b&0x0F] = ""
			log.ModDrive.DebugZ("close").Int("drive", d.ID).Int("channel", int(b&0x0F)).End()
		}
	case b&0xF0 == cmdOpen:
		if s.listening {
			s.secondary = b & 0x0F
			s.opening = true
		}
	}
}

func (s *serial) endListen(d *Drive) {
	data := string(s.buf)
	s.buf = s.buf[:0]
	switch {
	case s.opening:
		s.channels[s.secondary] = data
		log.ModDrive.DebugZ("open").
			Int("drive", d.ID).
			Int("channel", int(s.secondary)).
			String("name", data).
			End()
		if s.secondary != 15 {
			d.setMotor(true)
		}
	case s.secondary == 15:
		s.command = data
		log.ModDrive.DebugZ("command").Int("drive", d.ID).String("cmd", data).End()
	}
	s.opening = false
}

// Channel returns the name channel ch was opened with.
func (d *Drive) Channel(ch int) string { return d.ser.channels[ch&15] }

// Command returns the last command sent to the command channel.
func (d *Drive) Command() string { return d.ser.command }

// BusLines returns the lines the drive pulls.
func (d *Drive) BusLines() iec.Line { return d.ser.pulled }

func (s *serial) save(st *snapshot.DriveSerial) {
	st.State = uint8(s.state)
	st.Pulled = uint8(s.pulled)
	st.ATNLow, st.CLKLow = s.atnLow, s.clkLow
	st.Since = s.since
	st.Bits, st.N, st.EOI = s.bits, s.n, s.eoi
	st.UnderATN = s.underATN
	st.Listening, st.Talking, st.Opening = s.listening, s.talking, s.opening
	st.Secondary = s.secondary
	st.Buf = append([]byte(nil), s.buf...)
	st.Channels = s.channels
	st.Command = s.command
}

func (s *serial) load(st *snapshot.DriveSerial) {
	s.state = serState(st.State)
	s.pulled = iec.Line(st.Pulled)
	s.atnLow, s.clkLow = st.ATNLow, st.CLKLow
	s.since = st.Since
	s.bits, s.n, s.eoi = st.Bits, st.N, st.EOI
	s.underATN = st.UnderATN
	s.listening, s.talking, s.opening = st.Listening, st.Talking, st.Opening
	s.secondary = st.Secondary
	s.buf = append(s.buf[:0], st.Buf...)
	s.channels = st.Channels
	s.command = st.Command
}
