package drive

import (
	"errors"
	"fmt"
	"strings"
)

const (
	NumTracks   = 35
	SectorSize  = 256
	numSectors  = 683
	D64Size     = numSectors * SectorSize
	d64SizeErrs = D64Size + numSectors // with error info bytes
)

var ErrDiskFormat = errors.New("invalid disk image")

// sectorsPerTrack returns the number of sectors on track t (1-based).
func sectorsPerTrack(t int) int {
	switch {
	case t <= 17:
		return 21
	case t <= 24:
		return 19
	case t <= 30:
		return 18
	}
	return 17
}

// speedZone returns the density zone of track t, 3 being the outermost
// (fastest) zone.
func speedZone(t int) int {
	switch {
	case t <= 17:
		return 3
	case t <= 24:
		return 2
	case t <= 30:
		return 1
	}
	return 0
}

// Disk is a single sided 35 tracks floppy disk, as stored in D64 images.
type Disk struct {
	tracks [NumTracks][]byte
}

// ParseD64 decodes a D64 image. Trailing error info bytes are ignored.
func ParseD64(data []byte) (*Disk, error) {
	if len(data) != D64Size && len(data) != d64SizeErrs {
		return nil, fmt.Errorf("%w: %d bytes", ErrDiskFormat, len(data))
	}
	d := &Disk{}
	off := 0
	for t := range NumTracks {
		n := sectorsPerTrack(t+1) * SectorSize
		d.tracks[t] = append([]byte(nil), data[off:off+n]...)
		off += n
	}
	return d, nil
}

// Bytes returns the D64 image of the disk.
func (d *Disk) Bytes() []byte {
	buf := make([]byte, 0, D64Size)
	for _, trk := range d.tracks {
		buf = append(buf, trk...)
	}
	return buf
}

// Sector returns sector s of track t (1-based). The returned slice aliases
// the disk contents.
func (d *Disk) Sector(t, s int) ([]byte, error) {
	if t < 1 || t > NumTracks || s < 0 || s >= sectorsPerTrack(t) {
		return nil, fmt.Errorf("illegal track or sector %d/%d", t, s)
	}
	off := s * SectorSize
	return d.tracks[t-1][off : off+SectorSize], nil
}

// Name returns the disk name stored in the BAM, in PETSCII with shifted
// spaces removed.
func (d *Disk) Name() string {
	bam, _ := d.Sector(18, 0)
	name := string(bam[0x90:0xA0])
	return strings.TrimRight(name, "\xa0")
}

// trackBits returns the number of bit cells on track t.
func trackBits(t int) int {
	return [4]int{50000, 53333, 57143, 61538}[speedZone(t)]
}

// bitCell returns the duration of a bit cell on track t, in 1/16 µs.
func bitCell(t int) int {
	return [4]int{64, 60, 56, 52}[speedZone(t)]
}
