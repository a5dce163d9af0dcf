package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	ptr    any
	offset uint16
}

type regTag struct {
	bank     int
	offset   int // -1 if absent
	size     int
	vsize    int
	reset    uint8
	rwmask   uint8
	hasMask  bool
	flags    RWFlags
	rcb, wcb string
	pcb      string
}

func parseTag(field string, tag string) (regTag, error) {
	rt := regTag{offset: -1}
	for _, opt := range strings.Split(tag, ",") {
		key, val, hasVal := strings.Cut(strings.TrimSpace(opt), "=")
		num := func() (int, error) {
			n, err := strconv.ParseInt(val, 0, 32)
			if err != nil {
				return 0, fmt.Errorf("hwio: field %s: invalid %s: %w", field, key, err)
			}
			return int(n), nil
		}
		cbName := func(prefix string) string {
			if hasVal {
				return val
			}
			return prefix + strings.ToUpper(field)
		}

		var err error
		switch key {
		case "":
		case "bank":
			rt.bank, err = num()
		case "offset":
			rt.offset, err = num()
		case "size":
			rt.size, err = num()
		case "vsize":
			rt.vsize, err = num()
		case "reset":
			var n int
			n, err = num()
			rt.reset = uint8(n)
		case "rwmask":
			var n int
			n, err = num()
			rt.rwmask, rt.hasMask = uint8(n), true
		case "readonly":
			rt.flags |= ReadOnlyFlag
		case "writeonly":
			rt.flags |= WriteOnlyFlag
		case "rcb":
			rt.rcb = cbName("Read")
		case "wcb":
			rt.wcb = cbName("Write")
		case "pcb":
			rt.pcb = cbName("Peek")
		default:
			return rt, fmt.Errorf("hwio: field %s: unknown tag option %q", field, key)
		}
		if err != nil {
			return rt, err
		}
	}
	return rt, nil
}

func method[F any](bank reflect.Value, name string) F {
	m := bank.MethodByName(name)
	if !m.IsValid() {
		panic(fmt.Errorf("hwio: missing callback method %s on %s", name, bank.Type()))
	}
	f, ok := m.Interface().(F)
	if !ok {
		var zero F
		panic(fmt.Errorf("hwio: callback %s has type %s, want %T", name, m.Type(), zero))
	}
	return f
}

// MustInitRegs initializes all hwio fields of the struct pointed by bank
// according to their tag: reset values, masks, flags, memory buffers and
// callbacks. Callbacks are methods of bank named Read<FIELD>, Write<FIELD>
// and Peek<FIELD> (field name uppercased) unless named explicitly, like in
// "rcb=ReadStatus".
func MustInitRegs(bank any) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("hwio: MustInitRegs: want pointer to struct, got %T", bank))
	}
	s := v.Elem()
	for i := range s.NumField() {
		sf := s.Type().Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(sf.Name, tag)
		if err != nil {
			panic(err)
		}

		switch r := s.Field(i).Addr().Interface().(type) {
		case *Reg8:
			r.Name = sf.Name
			r.Value = rt.reset
			r.Flags = rt.flags
			if rt.hasMask {
				r.RoMask = ^rt.rwmask
			}
			if rt.rcb != "" {
				r.ReadCb = method[func(uint8) uint8](v, rt.rcb)
			}
			if rt.pcb != "" {
				r.PeekCb = method[func(uint8) uint8](v, rt.pcb)
			}
			if rt.wcb != "" {
				r.WriteCb = method[func(uint8, uint8)](v, rt.wcb)
			}
		case *Mem:
			r.Name = sf.Name
			if r.Data == nil {
				r.Data = make([]byte, rt.size)
			}
			r.VSize = rt.vsize
			if r.VSize == 0 {
				r.VSize = len(r.Data)
			}
			if rt.flags&ReadOnlyFlag != 0 {
				r.Flags |= MemFlagReadOnly
			}
			if rt.wcb != "" {
				r.WriteCb = method[func(uint16, uint8)](v, rt.wcb)
			}
		case *Device:
			r.Name = sf.Name
			r.Size = rt.size
			r.Flags = rt.flags
			if rt.rcb != "" {
				r.ReadCb = method[func(uint16) uint8](v, rt.rcb)
			}
			if rt.pcb != "" {
				r.PeekCb = method[func(uint16) uint8](v, rt.pcb)
			}
			if rt.wcb != "" {
				r.WriteCb = method[func(uint16, uint8)](v, rt.wcb)
			}
		default:
			panic(fmt.Errorf("hwio: field %s: unsupported type %s", sf.Name, sf.Type))
		}
	}
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: want pointer to struct, got %T", bank)
	}
	s := v.Elem()

	var regs []bankReg
	for i := range s.NumField() {
		sf := s.Type().Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(sf.Name, tag)
		if err != nil {
			return nil, err
		}
		if rt.offset < 0 || rt.bank != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			ptr:    s.Field(i).Addr().Interface(),
			offset: uint16(rt.offset),
		})
	}
	return regs, nil
}
