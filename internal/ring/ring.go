// Package ring implements the bounded lock-free multi-producer/multi-consumer
// array queue shared by the memory pool free list and the transfer channel.
//
// Every cell carries a sequence word. A producer claims position p by a CAS on
// the enqueue counter, writes the value and publishes it by storing p+1 into
// the cell sequence. A consumer claims position p by a CAS on the dequeue
// counter once the cell sequence equals p+1, reads the value and hands the cell
// back to producers by storing p+capacity. All atomics are sync/atomic
// operations, which are sequentially consistent, so the sequence store is the
// release point and the sequence load on the other side is the acquire point.
//
// The successful CAS on the enqueue counter is the one global ordering point:
// values are popped in exactly the order their pushes won that CAS.
package ring

import (
	"runtime"
	"sync/atomic"
)

// closedBit is kept in the enqueue counter so that closing and claiming a
// position are decided by the same CAS.
const closedBit = uint64(1) << 63

// Result reports the outcome of a push.
type Result uint8

const (
	Pushed Result = iota
	Full
	Closed
)

type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// Ring is a fixed capacity queue. The zero value is not usable, call New.
type Ring[T any] struct {
	mask  uint64
	cells []cell[T]
	_     [56]byte
	enq   atomic.Uint64
	_     [56]byte
	deq   atomic.Uint64
	_     [56]byte
}

// New creates a ring holding at least capacity values; capacity is rounded up
// to the next power of two and is at least 2.
func New[T any](capacity int) *Ring[T] {
	n := RoundUp(capacity)
	r := &Ring[T]{
		mask:  uint64(n - 1),
		cells: make([]cell[T], n),
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// RoundUp returns the power of two a ring of the requested capacity uses.
func RoundUp(capacity int) int {
	n := 2
	for n < capacity {
		n <<= 1
	}
	return n
}

// Cap returns the number of cells.
func (r *Ring[T]) Cap() int {
	return len(r.cells)
}

// TryPush enqueues v without blocking.
func (r *Ring[T]) TryPush(v T) Result {
	pos := r.enq.Load()
	for {
		if pos&closedBit != 0 {
			return Closed
		}
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch dif := int64(seq) - int64(pos); {
		case dif == 0:
			if r.enq.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)
				return Pushed
			}
			pos = r.enq.Load()
		case dif < 0:
			return Full
		default:
			pos = r.enq.Load()
		}
	}
}

// TryPop dequeues the oldest published value. It returns false when the ring
// is empty or when the oldest claimed cell has not been published yet.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	pos := r.deq.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch dif := int64(seq) - int64(pos+1); {
		case dif == 0:
			if r.deq.CompareAndSwap(pos, pos+1) {
				v := c.val
				c.val = zero
				c.seq.Store(pos + r.mask + 1)
				return v, true
			}
			pos = r.deq.Load()
		case dif < 0:
			return zero, false
		default:
			pos = r.deq.Load()
		}
	}
}

// Pending returns the number of claimed positions not yet popped, including
// cells whose producer has not finished publishing.
func (r *Ring[T]) Pending() int {
	return int((r.enq.Load() &^ closedBit) - r.deq.Load())
}

// Close makes every later push fail with Closed. Positions claimed before
// Close are still published and can be popped.
func (r *Ring[T]) Close() {
	for {
		pos := r.enq.Load()
		if pos&closedBit != 0 {
			return
		}
		if r.enq.CompareAndSwap(pos, pos|closedBit) {
			return
		}
		runtime.Gosched()
	}
}

// IsClosed reports whether Close was called.
func (r *Ring[T]) IsClosed() bool {
	return r.enq.Load()&closedBit != 0
}
