// Package pool supplies the byte buffers log entries are encoded into.
//
// Buffers come from one pre-allocated arena split into equal slots. The free
// slot indices sit in a lock-free ring, so Acquire and Release never take a
// lock. Entries larger than a slot, or arriving while every slot is in use,
// fall back to heap memory when the overflow policy allows it.
package pool

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/moneytech/mini-async-log/internal/ring"
)

// ErrInvalidConfig reports an unusable supplier configuration.
var ErrInvalidConfig = errors.New("pool: invalid configuration")

// OverflowPolicy decides what happens when the pool cannot serve a request.
type OverflowPolicy uint8

const (
	// OverflowForbid fails the acquisition.
	OverflowForbid OverflowPolicy = iota
	// OverflowHeap allocates a dedicated buffer from the Go heap.
	OverflowHeap
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowForbid:
		return "forbid"
	case OverflowHeap:
		return "heap"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy converts "forbid" or "heap".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forbid":
		return OverflowForbid, nil
	case "heap":
		return OverflowHeap, nil
	default:
		return OverflowForbid, fmt.Errorf("%w: overflow policy '%s' (use heap or forbid)", ErrInvalidConfig, s)
	}
}

// Config sizes the pool.
type Config struct {
	SlotCount int
	SlotSize  int
	Overflow  OverflowPolicy
	// MaxOverflowBytes caps heap memory held by outstanding overflow buffers;
	// zero means no cap.
	MaxOverflowBytes int64
}

// Buffer is one acquired entry buffer. Data is exactly the requested size.
type Buffer struct {
	Data []byte
	slot int32
}

// Pooled reports whether the buffer lives in the arena.
func (b Buffer) Pooled() bool {
	return b.slot >= 0
}

// Stats is a snapshot of supplier counters.
type Stats struct {
	PooledAcquired   uint64
	OverflowAcquired uint64
	Failures         uint64
	OverflowBytes    int64
	SlotsInUse       int64
}

// Supplier hands out and reclaims entry buffers.
type Supplier struct {
	cfg   Config
	arena []byte
	free  *ring.Ring[int32]

	inUse         atomic.Int64
	overflowBytes atomic.Int64
	pooled        atomic.Uint64
	overflowed    atomic.Uint64
	failures      atomic.Uint64
}

// New allocates the arena. A zero SlotCount gives a pool-less supplier that
// serves everything through the overflow path.
func New(cfg Config) (*Supplier, error) {
	if cfg.SlotCount < 0 || cfg.SlotSize < 0 || cfg.MaxOverflowBytes < 0 {
		return nil, fmt.Errorf("%w: negative size", ErrInvalidConfig)
	}
	if cfg.SlotCount > 0 && cfg.SlotSize == 0 {
		return nil, fmt.Errorf("%w: slot size must be positive when slots are configured", ErrInvalidConfig)
	}
	if cfg.SlotCount == 0 && cfg.Overflow == OverflowForbid {
		return nil, fmt.Errorf("%w: no slots and overflow forbidden", ErrInvalidConfig)
	}
	if int64(cfg.SlotCount) > int64(^uint32(0)>>1) {
		return nil, fmt.Errorf("%w: %d slots exceed the index range", ErrInvalidConfig, cfg.SlotCount)
	}

	s := &Supplier{cfg: cfg}
	if cfg.SlotCount > 0 {
		s.arena = make([]byte, cfg.SlotCount*cfg.SlotSize)
		s.free = ring.New[int32](cfg.SlotCount)
		for i := 0; i < cfg.SlotCount; i++ {
			s.free.TryPush(int32(i))
		}
	}
	return s, nil
}

// SlotSize returns the largest request the arena can serve.
func (s *Supplier) SlotSize() int {
	return s.cfg.SlotSize
}

// Acquire returns a buffer of exactly size bytes, or false when neither the
// pool nor the overflow policy can provide one.
func (s *Supplier) Acquire(size int) (Buffer, bool) {
	if size <= s.cfg.SlotSize && s.free != nil {
		if idx, ok := s.free.TryPop(); ok {
			off := int(idx) * s.cfg.SlotSize
			s.inUse.Add(1)
			s.pooled.Add(1)
			return Buffer{Data: s.arena[off : off+size : off+s.cfg.SlotSize], slot: idx}, true
		}
	}
	return s.acquireOverflow(size)
}

func (s *Supplier) acquireOverflow(size int) (Buffer, bool) {
	if s.cfg.Overflow != OverflowHeap {
		s.failures.Add(1)
		return Buffer{}, false
	}
	if limit := s.cfg.MaxOverflowBytes; limit > 0 {
		if s.overflowBytes.Add(int64(size)) > limit {
			s.overflowBytes.Add(-int64(size))
			s.failures.Add(1)
			return Buffer{}, false
		}
	} else {
		s.overflowBytes.Add(int64(size))
	}
	s.overflowed.Add(1)
	return Buffer{Data: make([]byte, size), slot: -1}, true
}

// Release returns b to the supplier. b must not be used afterwards.
func (s *Supplier) Release(b Buffer) {
	if b.Data == nil && b.slot == 0 {
		return
	}
	if b.slot < 0 {
		s.overflowBytes.Add(-int64(len(b.Data)))
		return
	}
	s.inUse.Add(-1)
	if s.free.TryPush(b.slot) != ring.Pushed {
		// More releases than acquisitions: the free ring holds every slot.
		panic(fmt.Sprintf("pool: slot %d released twice", b.slot))
	}
}

// Stats returns the current counters.
func (s *Supplier) Stats() Stats {
	return Stats{
		PooledAcquired:   s.pooled.Load(),
		OverflowAcquired: s.overflowed.Load(),
		Failures:         s.failures.Load(),
		OverflowBytes:    s.overflowBytes.Load(),
		SlotsInUse:       s.inUse.Load(),
	}
}
