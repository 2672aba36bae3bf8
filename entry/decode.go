package entry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unsafe"
)

var (
	// ErrTruncated reports a record that ends inside a field.
	ErrTruncated = errors.New("entry: truncated record")
	// ErrCorrupt reports a record with an impossible tag or header.
	ErrCorrupt = errors.New("entry: corrupt record")
)

// Value is one decoded argument. Bytes of deep-copied arguments are views into
// the record and are only valid until its buffer is released.
type Value struct {
	kind Kind
	bits uint64
	data []byte
}

func (v Value) Kind() Kind {
	return v.kind
}

// Int returns signed kinds as int64; other kinds are reinterpreted.
func (v Value) Int() int64 {
	return int64(v.bits)
}

// Uint returns unsigned kinds and pointers as uint64.
func (v Value) Uint() uint64 {
	return v.bits
}

func (v Value) Float() float64 {
	if v.kind == KindFloat32 {
		return float64(math.Float32frombits(uint32(v.bits)))
	}
	return math.Float64frombits(v.bits)
}

func (v Value) Bool() bool {
	return v.bits != 0
}

// Pointer returns the logged address of a KindPtr value.
func (v Value) Pointer() uintptr {
	return uintptr(v.bits)
}

// Bytes returns the payload of KindBytes, KindString and KindLit values.
func (v Value) Bytes() []byte {
	return v.data
}

// Text returns the payload as a string copy.
func (v Value) Text() string {
	return string(v.data)
}

// AppendText appends the plain text rendering of v to dst.
func (v Value) AppendText(dst []byte) []byte {
	switch k := v.kind; {
	case k.signed():
		return strconv.AppendInt(dst, v.Int(), 10)
	case k.unsigned():
		return strconv.AppendUint(dst, v.bits, 10)
	case k == KindFloat32:
		return strconv.AppendFloat(dst, v.Float(), 'g', -1, 32)
	case k == KindFloat64:
		return strconv.AppendFloat(dst, v.Float(), 'g', -1, 64)
	case k == KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case k == KindPtr:
		dst = append(dst, "0x"...)
		return strconv.AppendUint(dst, v.bits, 16)
	case k == KindLit, k == KindString:
		return append(dst, v.data...)
	case k == KindBytes:
		const hexDigits = "0123456789abcdef"
		for _, c := range v.data {
			dst = append(dst, hexDigits[c>>4], hexDigits[c&0x0f])
		}
		return dst
	}
	return append(dst, "%!(BADKIND)"...)
}

// Reader walks the arguments of one record, front to back, once.
type Reader struct {
	buf  []byte
	pos  int
	left int
	err  error
}

// Decode parses the header of buf and returns a reader over its arguments.
func Decode(buf []byte) (Header, Reader, error) {
	var h Header
	if len(buf) < 1 {
		return h, Reader{}, fmt.Errorf("%w: empty buffer", ErrTruncated)
	}
	h.Severity = Severity(buf[0] & countMask)
	if !h.Severity.Loggable() || buf[0]&0xc8 != 0 {
		return h, Reader{}, fmt.Errorf("%w: bad severity tag 0x%02x", ErrCorrupt, buf[0])
	}
	idLen := int(buf[0]>>4) + 1
	if len(buf) < 1+idLen+8+1 {
		return h, Reader{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, 1+idLen+8+1, len(buf))
	}
	pos := 1
	h.Template = uint32(getUint(buf[pos:], idLen))
	pos += idLen
	h.Time = int64(getUint(buf[pos:], 8))
	pos += 8
	argc := int(buf[pos])
	pos++
	return h, Reader{buf: buf, pos: pos, left: argc}, nil
}

// Len returns the number of arguments not yet read.
func (r *Reader) Len() int {
	return r.left
}

// Err returns the first decoding error met by Next.
func (r *Reader) Err() error {
	return r.err
}

// Next decodes the following argument. It returns false when all arguments
// were read or the record is malformed; Err tells the two apart.
func (r *Reader) Next() (Value, bool) {
	if r.left == 0 || r.err != nil {
		return Value{}, false
	}
	if r.pos >= len(r.buf) {
		return r.fail(ErrTruncated, "missing tag")
	}
	tag := r.buf[r.pos]
	k := Kind(tag >> 4)
	n := int(tag&countMask) + 1
	r.pos++

	var v Value
	v.kind = k
	switch {
	case k.signed():
		m, ok := r.uint(n)
		if !ok {
			return r.fail(ErrTruncated, "integer payload")
		}
		if tag&negativeFlag != 0 {
			v.bits = uint64(^int64(m))
		} else {
			v.bits = m
		}
	case k.unsigned(), k == KindPtr:
		if tag&negativeFlag != 0 {
			return r.fail(ErrCorrupt, "sign flag on unsigned value")
		}
		m, ok := r.uint(n)
		if !ok {
			return r.fail(ErrTruncated, "integer payload")
		}
		v.bits = m
	case k == KindFloat32:
		m, ok := r.uint(4)
		if !ok {
			return r.fail(ErrTruncated, "float32 payload")
		}
		v.bits = m
	case k == KindFloat64:
		m, ok := r.uint(8)
		if !ok {
			return r.fail(ErrTruncated, "float64 payload")
		}
		v.bits = m
	case k == KindBool:
		v.bits = uint64(tag & 1)
	case k == KindLit:
		p, ok := r.uint(pointerSize)
		if !ok {
			return r.fail(ErrTruncated, "literal address")
		}
		size, ok := r.uint(n)
		if !ok {
			return r.fail(ErrTruncated, "literal length")
		}
		if size > 0 {
			v.data = unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), int(size))
		}
	case k == KindBytes, k == KindString:
		size, ok := r.uint(n)
		if !ok {
			return r.fail(ErrTruncated, "length prefix")
		}
		if size > uint64(len(r.buf)-r.pos) {
			return r.fail(ErrTruncated, "byte payload")
		}
		end := r.pos + int(size)
		v.data = r.buf[r.pos:end:end]
		r.pos = end
	default:
		return r.fail(ErrCorrupt, fmt.Sprintf("unknown kind %d", k))
	}
	r.left--
	return v, true
}

func (r *Reader) uint(n int) (uint64, bool) {
	if n > 8 || r.pos+n > len(r.buf) {
		return 0, false
	}
	v := getUint(r.buf[r.pos:], n)
	r.pos += n
	return v, true
}

func (r *Reader) fail(cause error, what string) (Value, bool) {
	r.err = fmt.Errorf("%w: %s at offset %d", cause, what, r.pos)
	return Value{}, false
}

func getUint(src []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}
