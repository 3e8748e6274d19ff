// Package evring is a fixed-capacity ring of sensor slot ids shared between
// one producer running in interrupt context and one consumer in normal
// context. Neither side blocks or allocates after New.
//
// Pushing into a full ring evicts the oldest entry (overwrite, not
// backpressure). The consumer index is therefore advanced by both sides and
// is moved with compare-and-swap; the producer index is only ever written by
// the producer.
package evring

import "sync/atomic"

type Ring struct {
	buf  []atomic.Uint32
	mask uint32
	rd   atomic.Uint32 // tail: oldest entry (monotonic)
	wr   atomic.Uint32 // head: next write (monotonic)

	drops atomic.Uint32 // entries evicted by overwrite
}

func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("evring: size must be power of two >= 2")
	}
	return &Ring{
		buf:  make([]atomic.Uint32, size),
		mask: uint32(size - 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of queued entries.
func (r *Ring) Len() int {
	wr := r.wr.Load()
	rd := r.rd.Load()
	return int(wr - rd)
}

// Full reports head == tail with at least one entry outstanding.
func (r *Ring) Full() bool { return uint32(r.Len()) == r.size() }

func (r *Ring) Empty() bool { return r.Len() == 0 }

// Drops returns how many entries were evicted by overwrite.
func (r *Ring) Drops() uint32 { return r.drops.Load() }

// Producer side. Safe to call from interrupt context; must not be called
// concurrently with itself.

// Push appends id. If the ring was full, the oldest entry is evicted and
// returned with evicted == true so the caller can re-arm whatever state
// tracked it.
func (r *Ring) Push(id uint8) (old uint8, evicted bool) {
	wr := r.wr.Load()
	for {
		rd := r.rd.Load()
		if wr-rd < r.size() {
			break
		}
		v := r.buf[rd&r.mask].Load()
		if r.rd.CompareAndSwap(rd, rd+1) {
			r.drops.Add(1)
			old, evicted = uint8(v), true
			break
		}
		// consumer popped concurrently; space is available now
	}
	r.buf[wr&r.mask].Store(uint32(id))
	r.wr.Store(wr + 1) // release
	return old, evicted
}

// Consumer side.

// Pop removes the oldest entry. On an empty ring it returns ok == false and
// leaves the ring untouched.
func (r *Ring) Pop() (id uint8, ok bool) {
	for {
		rd := r.rd.Load()
		wr := r.wr.Load() // acquire
		if wr == rd {
			return 0, false
		}
		v := r.buf[rd&r.mask].Load()
		if r.rd.CompareAndSwap(rd, rd+1) {
			return uint8(v), true
		}
		// producer evicted this entry under us; retry from the new tail
	}
}

// Watermarks exposes the raw tail and head counters.
func (r *Ring) Watermarks() (rd, wr uint32) {
	return r.rd.Load(), r.wr.Load()
}
