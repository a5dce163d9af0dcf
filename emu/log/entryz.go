package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a log entry built field by field without allocations. A nil
// *EntryZ is valid and discards everything, which is what a disabled module
// returns.
type EntryZ struct {
	lvl   Level
	msg   string
	mod   Module
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) add(f ZField) *EntryZ {
	if z == nil || z.zfidx == maxZFields {
		return z
	}
	z.zfbuf[z.zfidx] = f
	z.zfidx++
	return z
}

func (z *EntryZ) Bool(key string, v bool) *EntryZ {
	return z.add(ZField{Type: FieldTypeBool, Key: key, Boolean: v})
}

func (z *EntryZ) String(key string, v string) *EntryZ {
	return z.add(ZField{Type: FieldTypeString, Key: key, String: v})
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(v)})
}

func (z *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(v)})
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	return z.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (z *EntryZ) Int64(key string, v int64) *EntryZ {
	return z.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (z *EntryZ) Uint(key string, v uint64) *EntryZ {
	return z.add(ZField{Type: FieldTypeUint, Key: key, Integer: v})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	return z.add(ZField{Type: FieldTypeError, Key: key, Error: err})
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	return z.add(ZField{Type: FieldTypeDuration, Key: key, Duration: d})
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	return z.add(ZField{Type: FieldTypeStringer, Key: key, Interface: s})
}

// Raster adds a raster beam position, scanline and 1-based raster cycle.
func (z *EntryZ) Raster(key string, line, cycle int) *EntryZ {
	return z.add(ZField{Type: FieldTypeRaster, Key: key, Integer: uint64(line)<<32 | uint64(uint32(cycle))})
}

// End emits the entry and returns it to the pool.
func (z *EntryZ) End() {
	if z == nil {
		return
	}
	addContexts(z)

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	e := logrus.StandardLogger().WithFields(fields)

	switch z.lvl {
	case DebugLevel:
		e.Debug(z.msg)
	case InfoLevel:
		e.Info(z.msg)
	case WarnLevel:
		e.Warn(z.msg)
	case ErrorLevel:
		e.Error(z.msg)
	case FatalLevel:
		e.Fatal(z.msg)
	case PanicLevel:
		e.Panic(z.msg)
	}

	clear(z.zfbuf[:z.zfidx])
	entryPool.Put(z)
}
