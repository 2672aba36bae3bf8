// Package entry implements the binary record a log call is turned into on the
// producer side and read back from on the worker.
//
// A record is a header (severity, template id, timestamp, argument count)
// followed by one tagged payload per argument. Integers are written with the
// fewest bytes that hold their magnitude unless fixed-width mode is selected;
// in both modes the tag carries the byte count, so Decode needs no mode.
package entry

import (
	"fmt"
	"math/bits"
)

// MaxArgs is the largest argument count a record can carry.
const MaxArgs = 255

const (
	headerFixed  = 1 + 8 + 1 // sevTag, timestamp, argc
	negativeFlag = 0x08
	countMask    = 0x07
	fixedLenSize = 4
	pointerSize  = 8
)

// Header is the per-entry metadata in front of the arguments.
type Header struct {
	Severity Severity
	Template uint32
	Time     int64 // unix nanoseconds
}

// Size returns the exact number of bytes Encode writes for h and args.
func Size(h Header, args []Arg, fixed bool) int {
	n := headerFixed + uintBytes(uint64(h.Template), 4, fixed)
	for i := range args {
		n += 1 + argSize(&args[i], fixed)
	}
	return n
}

func argSize(a *Arg, fixed bool) int {
	switch k := a.kind; {
	case k.signed():
		return uintBytes(magnitude(int64(a.bits)), k.width(), fixed)
	case k.unsigned():
		return uintBytes(a.bits, k.width(), fixed)
	case k == KindFloat32:
		return 4
	case k == KindFloat64:
		return 8
	case k == KindBool:
		return 0
	case k == KindPtr:
		return uintBytes(a.bits, pointerSize, fixed)
	case k == KindLit:
		return pointerSize + lenBytes(a.n, fixed)
	case k == KindBytes, k == KindString:
		return lenBytes(a.n, fixed) + a.n
	}
	panic(fmt.Sprintf("entry: argument of unknown kind %d", a.kind))
}

// Encode serializes h and args into dst and returns the number of bytes
// written. dst must hold at least Size(h, args, fixed) bytes; a shorter buffer
// is a programming error and panics.
func Encode(dst []byte, h Header, args []Arg, fixed bool) int {
	if len(args) > MaxArgs {
		panic(fmt.Sprintf("entry: %d arguments exceed the limit of %d", len(args), MaxArgs))
	}
	if need := Size(h, args, fixed); len(dst) < need {
		panic(fmt.Sprintf("entry: destination holds %d bytes, record needs %d", len(dst), need))
	}

	idLen := uintBytes(uint64(h.Template), 4, fixed)
	dst[0] = byte(h.Severity)&countMask | byte(idLen-1)<<4
	pos := 1
	pos += putUint(dst[pos:], uint64(h.Template), idLen)
	pos += putUint(dst[pos:], uint64(h.Time), 8)
	dst[pos] = byte(len(args))
	pos++

	for i := range args {
		pos += encodeArg(dst[pos:], &args[i], fixed)
	}
	return pos
}

func encodeArg(dst []byte, a *Arg, fixed bool) int {
	k := a.kind
	tag := byte(k) << 4
	switch {
	case k.signed():
		v := int64(a.bits)
		m := magnitude(v)
		if v < 0 {
			tag |= negativeFlag
		}
		n := uintBytes(m, k.width(), fixed)
		dst[0] = tag | byte(n-1)
		return 1 + putUint(dst[1:], m, n)
	case k.unsigned(), k == KindPtr:
		w := k.width()
		n := uintBytes(a.bits, w, fixed)
		dst[0] = tag | byte(n-1)
		return 1 + putUint(dst[1:], a.bits, n)
	case k == KindFloat32:
		dst[0] = tag
		return 1 + putUint(dst[1:], a.bits, 4)
	case k == KindFloat64:
		dst[0] = tag
		return 1 + putUint(dst[1:], a.bits, 8)
	case k == KindBool:
		dst[0] = tag | byte(a.bits&1)
		return 1
	case k == KindLit:
		n := lenBytes(a.n, fixed)
		dst[0] = tag | byte(n-1)
		pos := 1 + putUint(dst[1:], a.bits, pointerSize)
		return pos + putUint(dst[pos:], uint64(a.n), n)
	case k == KindBytes, k == KindString:
		n := lenBytes(a.n, fixed)
		dst[0] = tag | byte(n-1)
		pos := 1 + putUint(dst[1:], uint64(a.n), n)
		return pos + copy(dst[pos:pos+a.n], a.payload())
	}
	panic(fmt.Sprintf("entry: argument of unknown kind %d", k))
}

// magnitude maps a signed value to the non-negative number stored on the wire:
// v itself, or its one's complement when negative.
func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(^v)
	}
	return uint64(v)
}

// uintBytes is the payload size of v: width in fixed mode, otherwise the
// fewest bytes holding v, never less than one.
func uintBytes(v uint64, width int, fixed bool) int {
	if fixed {
		return width
	}
	n := (bits.Len64(v) + 7) / 8
	if n == 0 {
		return 1
	}
	return n
}

func lenBytes(n int, fixed bool) int {
	v := uintBytes(uint64(n), fixedLenSize, false)
	if fixed && v < fixedLenSize {
		return fixedLenSize
	}
	return v
}

func putUint(dst []byte, v uint64, n int) int {
	_ = dst[n-1]
	for i := 0; i < n; i++ {
		dst[i] = byte(v >> (8 * i))
	}
	return n
}
