// Package queue implements the transfer channel between logging goroutines and
// the single worker that writes their entries.
//
// Submissions go through a lock-free ring; the order in which producers win
// the ring's enqueue CAS is the order the worker consumes entries in. Only
// synchronous submitters facing a full channel touch the mutex, and the worker
// takes it only while such waiters exist.
package queue

import (
	"sync"
	"sync/atomic"

	"github.com/moneytech/mini-async-log/internal/ring"
	"github.com/moneytech/mini-async-log/pool"
)

// Status is the outcome of a submission.
type Status uint8

const (
	Submitted Status = iota
	// Full is returned by TrySubmit when no cell is free.
	Full
	// Interrupted is returned by Submit once Interrupt was called.
	Interrupted
	// Closed is returned after Close; the channel takes no new entries.
	Closed
)

func (s Status) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Full:
		return "full"
	case Interrupted:
		return "interrupted"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel is a multi-producer single-consumer queue of encoded entries.
type Channel struct {
	ring *ring.Ring[pool.Buffer]

	interrupted atomic.Bool

	mu      sync.Mutex
	space   *sync.Cond
	waiters atomic.Int32

	sleeping atomic.Bool
	wake     chan struct{}
}

// New creates a channel holding at least capacity entries.
func New(capacity int) *Channel {
	c := &Channel{
		ring: ring.New[pool.Buffer](capacity),
		wake: make(chan struct{}, 1),
	}
	c.space = sync.NewCond(&c.mu)
	return c
}

// Cap returns the number of cells, capacity rounded up to a power of two.
func (c *Channel) Cap() int {
	return c.ring.Cap()
}

// Len returns the number of entries claimed but not consumed yet.
func (c *Channel) Len() int {
	return c.ring.Pending()
}

// TrySubmit enqueues b without blocking.
func (c *Channel) TrySubmit(b pool.Buffer) Status {
	switch c.ring.TryPush(b) {
	case ring.Pushed:
		c.notify()
		return Submitted
	case ring.Closed:
		return Closed
	default:
		return Full
	}
}

// Submit enqueues b, waiting for a free cell while the channel is full. It
// returns Interrupted as soon as Interrupt is called, including for callers
// already waiting.
func (c *Channel) Submit(b pool.Buffer) Status {
	for {
		if c.interrupted.Load() {
			return Interrupted
		}
		switch c.ring.TryPush(b) {
		case ring.Pushed:
			c.notify()
			return Submitted
		case ring.Closed:
			return Closed
		}

		c.mu.Lock()
		c.waiters.Add(1)
		// Re-check after registering: a consumer that popped before seeing the
		// waiter count left a free cell behind.
		if c.interrupted.Load() {
			c.waiters.Add(-1)
			c.mu.Unlock()
			return Interrupted
		}
		switch c.ring.TryPush(b) {
		case ring.Pushed:
			c.waiters.Add(-1)
			c.mu.Unlock()
			c.notify()
			return Submitted
		case ring.Closed:
			c.waiters.Add(-1)
			c.mu.Unlock()
			return Closed
		}
		c.space.Wait()
		c.waiters.Add(-1)
		c.mu.Unlock()
	}
}

// Consume returns the oldest published entry. It must only be called from
// the consumer goroutine.
func (c *Channel) Consume() (pool.Buffer, bool) {
	b, ok := c.ring.TryPop()
	if ok && c.waiters.Load() > 0 {
		c.broadcast()
	}
	return b, ok
}

// Interrupt permanently fails every blocked and future Submit. Non-blocking
// submissions are unaffected.
func (c *Channel) Interrupt() {
	if c.interrupted.Swap(true) {
		return
	}
	c.broadcast()
}

// IsInterrupted reports whether Interrupt was called.
func (c *Channel) IsInterrupted() bool {
	return c.interrupted.Load()
}

// Close stops accepting entries. Entries already claimed are still delivered.
func (c *Channel) Close() {
	c.ring.Close()
	c.broadcast()
	c.Unpark()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// IsClosed reports whether Close was called.
func (c *Channel) IsClosed() bool {
	return c.ring.IsClosed()
}

// Drained reports that the channel is closed and every claimed entry was
// consumed.
func (c *Channel) Drained() bool {
	return c.ring.IsClosed() && c.ring.Pending() == 0
}

// Park announces that the consumer is about to sleep. It returns false when
// work arrived in the meantime, in which case the consumer must not wait.
// After a true return the consumer waits on Ready.
func (c *Channel) Park() bool {
	c.sleeping.Store(true)
	if c.ring.Pending() > 0 || c.ring.IsClosed() {
		c.sleeping.Store(false)
		return false
	}
	return true
}

// Ready is signalled when a producer publishes to a parked consumer.
func (c *Channel) Ready() <-chan struct{} {
	return c.wake
}

// Unpark clears the sleeping flag after the consumer woke for any reason.
func (c *Channel) Unpark() {
	c.sleeping.Store(false)
}

func (c *Channel) notify() {
	if c.sleeping.Load() && c.sleeping.CompareAndSwap(true, false) {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

func (c *Channel) broadcast() {
	c.mu.Lock()
	c.space.Broadcast()
	c.mu.Unlock()
}
