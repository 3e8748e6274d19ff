// Package registry is the fixed-capacity sensor table and the trigger
// evaluator. Slots are allocated once and never removed.
//
// Normal context owns registration and stamping. The interrupt bridge reads
// published slots concurrently, so the published count, last-fire stamps and
// pending flags are atomics; descriptors themselves are immutable once
// published.
package registry

import (
	"sync/atomic"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

// MaxCapacity is bounded by the width of types.SlotID.
const MaxCapacity = 256

type slot struct {
	desc     types.Descriptor
	lastFire atomic.Uint32 // types.Ticks
	pending  atomic.Bool   // queued by the ISR, not yet dispatched
}

type Registry struct {
	slots []slot
	n     atomic.Uint32 // slots[:n] are published
	cad   cadence
}

func New(capacity int) *Registry {
	if capacity <= 0 || capacity > MaxCapacity {
		panic("registry: capacity must be in 1..256")
	}
	return &Registry{slots: make([]slot, capacity)}
}

func (r *Registry) Cap() int { return len(r.slots) }
func (r *Registry) Len() int { return int(r.n.Load()) }

// Add publishes d in the next free slot. Mode rules are checked by the caller
// (see Check); Add only enforces capacity and the wake callback.
func (r *Registry) Add(d types.Descriptor) (types.SlotID, error) {
	if d.Wake == nil {
		return 0, errcode.MissingWakeCallback
	}
	n := r.n.Load()
	if int(n) >= len(r.slots) {
		return 0, errcode.CapacityExceeded
	}
	s := &r.slots[n]
	s.desc = d
	s.lastFire.Store(0)
	s.pending.Store(false)
	r.n.Store(n + 1) // publish
	return types.SlotID(n), nil
}

// Descriptor returns the immutable descriptor in slot id.
func (r *Registry) Descriptor(id types.SlotID) *types.Descriptor { return &r.slots[id].desc }

func (r *Registry) LastFire(id types.SlotID) types.Ticks {
	return types.Ticks(r.slots[id].lastFire.Load())
}

// Stamp records a completed wake/sleep pair. Normal context only.
func (r *Registry) Stamp(id types.SlotID, now types.Ticks) {
	r.slots[id].lastFire.Store(uint32(now))
}

// MarkPending claims the slot for one queued event; false means an event for
// it is already outstanding.
func (r *Registry) MarkPending(id types.SlotID) bool {
	return r.slots[id].pending.CompareAndSwap(false, true)
}

func (r *Registry) ClearPending(id types.SlotID) { r.slots[id].pending.Store(false) }

func (r *Registry) Pending(id types.SlotID) bool { return r.slots[id].pending.Load() }

// Each visits published slots in registration order.
func (r *Registry) Each(fn func(id types.SlotID, d *types.Descriptor)) {
	n := r.Len()
	for i := 0; i < n; i++ {
		fn(types.SlotID(i), &r.slots[i].desc)
	}
}
