package entry

import (
	"math"
	"unsafe"
)

// Kind is the argument variant stored in the high nibble of an argument tag.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindPtr
	KindLit
	KindBytes
	KindString
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBool:    "bool",
	KindPtr:     "ptr",
	KindLit:     "lit",
	KindBytes:   "bytes",
	KindString:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// width is the natural payload size used in fixed-width mode.
func (k Kind) width() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindPtr:
		return 8
	}
	return 0
}

func (k Kind) signed() bool {
	return k >= KindInt8 && k <= KindInt64
}

func (k Kind) unsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// Arg is one log call argument. Constructing an Arg never copies memory; the
// deep-copy variants copy when the entry is encoded, which the frontend only
// does after the severity gate let the call through.
type Arg struct {
	kind Kind
	bits uint64
	ref  unsafe.Pointer
	n    int
}

// Kind returns the argument variant.
func (a Arg) Kind() Kind {
	return a.kind
}

func Int(v int) Arg     { return Arg{kind: KindInt64, bits: uint64(int64(v))} }
func Int8(v int8) Arg   { return Arg{kind: KindInt8, bits: uint64(int64(v))} }
func Int16(v int16) Arg { return Arg{kind: KindInt16, bits: uint64(int64(v))} }
func Int32(v int32) Arg { return Arg{kind: KindInt32, bits: uint64(int64(v))} }
func Int64(v int64) Arg { return Arg{kind: KindInt64, bits: uint64(v)} }

func Uint(v uint) Arg     { return Arg{kind: KindUint64, bits: uint64(v)} }
func Uint8(v uint8) Arg   { return Arg{kind: KindUint8, bits: uint64(v)} }
func Uint16(v uint16) Arg { return Arg{kind: KindUint16, bits: uint64(v)} }
func Uint32(v uint32) Arg { return Arg{kind: KindUint32, bits: uint64(v)} }
func Uint64(v uint64) Arg { return Arg{kind: KindUint64, bits: v} }

func Float32(v float32) Arg { return Arg{kind: KindFloat32, bits: uint64(math.Float32bits(v))} }
func Float64(v float64) Arg { return Arg{kind: KindFloat64, bits: math.Float64bits(v)} }

func Bool(v bool) Arg {
	if v {
		return Arg{kind: KindBool, bits: 1}
	}
	return Arg{kind: KindBool}
}

// Ptr logs the address p points to. The pointer is never dereferenced.
func Ptr(p unsafe.Pointer) Arg {
	return Arg{kind: KindPtr, bits: uint64(uintptr(p))}
}

// Lit references s without copying it. Only the data address and length are
// encoded, so s must stay reachable for the rest of the program: string
// constants and literals qualify, strings built at run time do not and must
// go through Str.
func Lit(s string) Arg {
	return Arg{kind: KindLit, bits: uint64(uintptr(unsafe.Pointer(unsafe.StringData(s)))), n: len(s)}
}

// Bytes copies b into the entry when it is encoded.
func Bytes(b []byte) Arg {
	return Arg{kind: KindBytes, ref: unsafe.Pointer(unsafe.SliceData(b)), n: len(b)}
}

// Str copies s into the entry when it is encoded.
func Str(s string) Arg {
	return Arg{kind: KindString, ref: unsafe.Pointer(unsafe.StringData(s)), n: len(s)}
}

// CStr copies the NUL-terminated text at the start of b, or all of b when it
// holds no NUL byte.
func CStr(b []byte) Arg {
	n := len(b)
	for i, c := range b {
		if c == 0 {
			n = i
			break
		}
	}
	return Arg{kind: KindString, ref: unsafe.Pointer(unsafe.SliceData(b)), n: n}
}

// payload returns the deep-copy source bytes of a Bytes or Str argument.
func (a Arg) payload() []byte {
	if a.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(a.ref), a.n)
}
