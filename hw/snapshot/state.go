package snapshot

// Scheduler holds the event slots, indexed by sched.Slot.
type Scheduler struct {
	Trigger     [NumSlots]int64
	ID          [NumSlots]int32
	Data        [NumSlots]int64
	NextTrigger int64
}

// NumSlots is the number of scheduler slots.
const NumSlots = 15

// CIAStage is one stage of a CIA delay pipeline.
type CIAStage struct {
	CountA bool
	CountB bool
	LoadA  bool
	LoadB  bool
	SetIRQ bool
	PB6Low bool
	PB7Low bool
	SerInt bool
}

type TOD struct {
	Time    [4]uint8 // tenths, seconds, minutes, hours
	Alarm   [4]uint8
	Latch   [4]uint8
	Frozen  bool
	Stopped bool
	Acc     int64
	Pulses  uint8
}

type CIA struct {
	PRA, PRB   uint8
	DDRA, DDRB uint8

	CounterA, CounterB uint16
	LatchA, LatchB     uint16

	CRA, CRB uint8
	IMR, ICR uint8
	IRQ      bool

	Stages [4]CIAStage // stage 0 first
	Feed   CIAStage

	PBToggle uint8
	PBPulse  uint8

	SDR        uint8
	SerShift   uint8
	SerCounter uint8
	SerLoaded  bool

	TOD TOD

	LastExec int64
	Sleeping bool
}

type VICRegs struct {
	SprX       [8]uint16
	SprY       [8]uint8
	Ctrl1      uint8
	Ctrl2      uint8
	MemPtr     uint8
	RasterCmp  uint16
	SprEnable  uint8
	SprExpandY uint8
	SprExpandX uint8
	SprPrio    uint8
	SprMC      uint8
	Colors     [15]uint8
}

type VICSprite struct {
	Ptr     uint16
	MC      uint8
	MCBase  uint8
	Data    uint32
	Chunks  [3]uint8
	ExpFlop bool
	MCFlop  bool
	ColBits uint8
	Left    uint8
}

type VICShifter struct {
	Data      uint8
	Chr       uint8
	Col       uint8
	CanLoad   bool
	MCFlop    bool
	ColorBits uint8
}

type VICGData struct {
	Data uint8
	Chr  uint8
	Col  uint8
}

type VICStage struct {
	UpdateIRQ       bool
	SetDisplayState bool
	ClearSprSprColl bool
	ClearSprBgColl  bool
}

type VIC struct {
	Regs VICRegs

	XCounter    uint16
	YCounter    uint16
	IRR         uint8
	IMR         uint8
	IRQ         bool
	RasterMatch bool

	VC           uint16
	VCBase       uint16
	RC           uint8
	VMLI         uint8
	DisplayState bool
	BadLine      bool
	DEN30        bool
	Refresh      uint8

	MainFF     bool
	VerticalFF bool

	BusStall   uint16
	BALowSince int64
	Cycles     int64

	Matrix    [40]uint8
	ColorLine [40]uint8
	GPipe     [2]VICGData
	Shifter   VICShifter

	Sprites       [8]VICSprite
	SpriteDMA     uint8
	SpriteDisplay uint8
	ExpansionFF   uint8
	SpriteActive  uint8
	SpriteArmed   uint8
	SprSprColl    uint8
	SprBgColl     uint8

	LPLine      bool
	LPTriggered bool
	LPX         uint8
	LPY         uint8

	Pending VICStage
}

type CPU struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8
	Cycles      int64

	IRQLines uint8
	NMILines uint8
	NMIEdge  bool

	State   uint8
	Opcode  uint8
	Left    int32
	IRQPoll bool
	NMIPoll bool
	Jammed  bool
}

type Mem struct {
	RAM     [0x10000]uint8
	Color   [0x400]uint8
	DDR     uint8
	Port    uint8
	Motor   bool
	VICBank uint8
}

type SIDVoice struct {
	Freq      uint16
	PW        uint16
	Control   uint8
	AD, SR    uint8
	Acc       uint32
	Shift     uint32
	Env       uint8
	EnvState  uint8
	RateCnt   uint16
	ExpCnt    uint8
	ExpPeriod uint8
	HoldZero  bool
	PrevBit19 bool
}

type SID struct {
	Voices  [3]SIDVoice
	FC      uint16
	ResFilt uint8
	ModeVol uint8
	Bus     uint8
	Last    int64
	Output  int32
}

type Input struct {
	Keys          [8]uint8
	Joy           [2]uint8
	Autofire      [2]bool
	AutofirePhase bool
	Restore       bool
	PA, PB        uint8
}

type IEC struct {
	Host    uint8
	Device  [2]uint8
	Low     uint8
	Pending bool
}

type DriveSerial struct {
	State     uint8
	Pulled    uint8
	ATNLow    bool
	CLKLow    bool
	Since     int64
	Bits      uint8
	N         uint8
	EOI       bool
	UnderATN  bool
	Listening bool
	Talking   bool
	Opening   bool
	Secondary uint8
	Buf       []byte
	Channels  [16]string
	Command   string
}

type Drive struct {
	Connected    bool
	Acc          int64
	Elapsed      int64
	Spinning     bool
	LastUse      int64
	Halftrack    uint8
	BitPos       int32
	RotAcc       int32
	Insertion    uint8
	WriteProtect bool
	Disk         []byte // D64 image, nil without disk

	Serial DriveSerial
}

type Datasette struct {
	Head    int64
	Playing bool
	Motor   bool
}
