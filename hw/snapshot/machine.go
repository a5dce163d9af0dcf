package snapshot

// Machine is the whole machine state.
type Machine struct {
	Standard uint8
	Clock    int64
	Frame    int64
	Line     int32 // current scanline
	Cycle    int32 // next raster cycle, 1-based

	Scheduler Scheduler
	CPU       CPU
	Mem       Mem
	VIC       VIC
	CIA1      CIA
	CIA2      CIA
	SID       SID
	Input     Input
	IEC       IEC
	Drives    [2]Drive
	Datasette Datasette
}
