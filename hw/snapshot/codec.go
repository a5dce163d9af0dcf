package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"reflect"

	"github.com/go-faster/jx"
)

// Snapshot layout: a fixed header followed by the JSON encoded Machine.
//
//	0  magic "C64S"
//	4  version, uint16 LE
//	6  reserved
//	8  CRC32 (IEEE) of the payload, uint32 LE
//	12 payload size, uint32 LE
const (
	Magic      = "C64S"
	Version    = 1
	headerSize = 16
)

var (
	ErrSnapshotMagic    = errors.New("not a snapshot")
	ErrSnapshotVersion  = errors.New("unsupported snapshot version")
	ErrSnapshotChecksum = errors.New("snapshot checksum mismatch")
	ErrSnapshotStandard = errors.New("snapshot video standard mismatch")
)

type Header struct {
	Version uint16
	CRC     uint32
	Size    uint32
}

// ReadHeader checks the snapshot header and the payload integrity.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < headerSize || string(data[:4]) != Magic {
		return h, ErrSnapshotMagic
	}
	h.Version = binary.LittleEndian.Uint16(data[4:])
	h.CRC = binary.LittleEndian.Uint32(data[8:])
	h.Size = binary.LittleEndian.Uint32(data[12:])
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d, want %d", ErrSnapshotVersion, h.Version, Version)
	}
	if int(h.Size) != len(data)-headerSize {
		return h, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrSnapshotChecksum, len(data)-headerSize, h.Size)
	}
	if crc := crc32.ChecksumIEEE(data[headerSize:]); crc != h.CRC {
		return h, fmt.Errorf("%w: %08x, want %08x", ErrSnapshotChecksum, crc, h.CRC)
	}
	return h, nil
}

// Encode serializes m.
func Encode(m *Machine) ([]byte, error) {
	var e jx.Encoder
	if err := encodeValue(&e, reflect.ValueOf(m).Elem()); err != nil {
		return nil, err
	}
	payload := e.Bytes()

	buf := make([]byte, headerSize, headerSize+len(payload))
	copy(buf, Magic)
	binary.LittleEndian.PutUint16(buf[4:], Version)
	binary.LittleEndian.PutUint32(buf[8:], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(payload)))
	return append(buf, payload...), nil
}

// Decode deserializes data into m. m is left untouched on error.
func Decode(data []byte, m *Machine) error {
	if _, err := ReadHeader(data); err != nil {
		return err
	}
	var tmp Machine
	if err := decodeValue(jx.DecodeBytes(data[headerSize:]), reflect.ValueOf(&tmp).Elem()); err != nil {
		return fmt.Errorf("snapshot payload: %w", err)
	}
	*m = tmp
	return nil
}

var byteType = reflect.TypeFor[byte]()

func encodeValue(e *jx.Encoder, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		e.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.Int64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.UInt64(v.Uint())
	case reflect.String:
		e.Str(v.String())

	case reflect.Slice:
		if v.IsNil() {
			e.Null()
			return nil
		}
		if v.Type().Elem() == byteType {
			e.Base64(v.Bytes())
			return nil
		}
		return encodeList(e, v)

	case reflect.Array:
		if v.Type().Elem() == byteType {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			e.Base64(b)
			return nil
		}
		return encodeList(e, v)

	case reflect.Struct:
		e.ObjStart()
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			e.FieldStart(f.Name)
			if err := encodeValue(e, v.Field(i)); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		e.ObjEnd()

	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

func encodeList(e *jx.Encoder, v reflect.Value) error {
	e.ArrStart()
	for i := range v.Len() {
		if err := encodeValue(e, v.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	e.ArrEnd()
	return nil
}

func decodeValue(d *jx.Decoder, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := d.Bool()
		if err != nil {
			return err
		}
		v.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.Int64()
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := d.UInt64()
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetUint(n)

	case reflect.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		v.SetString(s)

	case reflect.Slice:
		if d.Next() == jx.Null {
			v.SetZero()
			return d.Null()
		}
		if v.Type().Elem() == byteType {
			b, err := d.Base64()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		v.SetZero()
		return d.Arr(func(d *jx.Decoder) error {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := decodeValue(d, elem); err != nil {
				return err
			}
			v.Set(reflect.Append(v, elem))
			return nil
		})

	case reflect.Array:
		if v.Type().Elem() == byteType {
			b, err := d.Base64()
			if err != nil {
				return err
			}
			if len(b) != v.Len() {
				return fmt.Errorf("got %d bytes, want %d", len(b), v.Len())
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		i := 0
		err := d.Arr(func(d *jx.Decoder) error {
			if i >= v.Len() {
				return fmt.Errorf("more than %d elements", v.Len())
			}
			if err := decodeValue(d, v.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
			i++
			return nil
		})
		if err == nil && i != v.Len() {
			err = fmt.Errorf("got %d elements, want %d", i, v.Len())
		}
		return err

	case reflect.Struct:
		return d.Obj(func(d *jx.Decoder, key string) error {
			f, ok := v.Type().FieldByName(key)
			if !ok || !f.IsExported() {
				return d.Skip()
			}
			if err := decodeValue(d, v.FieldByIndex(f.Index)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			return nil
		})

	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
