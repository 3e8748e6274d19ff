// Package irqbridge moves trigger detections out of interrupt context.
//
// OnExpiry runs on every timer expiry. It evaluates timed triggers only,
// enqueues the slot ids that are due and returns; it never calls a sensor
// callback and never allocates. Level and threshold triggers are left to the
// polled path because pin sampling is not interrupt safe on every part.
package irqbridge

import (
	"sync/atomic"

	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/internal/registry"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/types"
	"lowpower-go/x/evring"
	"lowpower-go/x/timex"
)

type Bridge struct {
	reg   *registry.Registry
	q     *evring.Ring
	clock platform.Clock

	busy  atomic.Bool   // set for the duration of an evaluation pass
	skips atomic.Uint32 // expiries that found a pass already running
}

func New(reg *registry.Registry, q *evring.Ring, clock platform.Clock) *Bridge {
	return &Bridge{reg: reg, q: q, clock: clock}
}

// Busy reports an evaluation pass in progress. Normal context must not enter
// sleep while it is set.
func (b *Bridge) Busy() bool { return b.busy.Load() }

func (b *Bridge) Skips() uint32 { return b.skips.Load() }

// OnExpiry is the interrupt-context handler.
func (b *Bridge) OnExpiry() {
	if !b.busy.CompareAndSwap(false, true) {
		b.skips.Add(1)
		return
	}
	now := b.clock.Now()
	n := b.reg.Len()

	switch b.reg.Mode() {
	case types.ModeSingleInterval:
		if timex.Due(now, b.reg.SharedLast(), b.reg.SharedInterval()) {
			for i := 0; i < n; i++ {
				b.enqueue(types.SlotID(i))
			}
		}
	default:
		for i := 0; i < n; i++ {
			id := types.SlotID(i)
			d := b.reg.Descriptor(id)
			if !d.Trigger.IsTimed() {
				continue
			}
			if registry.ShouldFire(d.Trigger, b.reg.LastFire(id), now, registry.Sample{}) {
				b.enqueue(id)
			}
		}
	}
	b.busy.Store(false)
}

// enqueue keeps at most one outstanding event per slot. An entry evicted by
// overwrite releases its slot so the next expiry can queue it again.
func (b *Bridge) enqueue(id types.SlotID) {
	if !b.reg.MarkPending(id) {
		return
	}
	if old, evicted := b.q.Push(uint8(id)); evicted {
		b.reg.ClearPending(types.SlotID(old))
	}
}

// -----------------------------------------------------------------------------
// Process-wide handle
// -----------------------------------------------------------------------------

// The timer vector carries no context, so exactly one bridge may be
// installed at a time. Install it before arming the timer and Uninstall it
// after disarming.
var active atomic.Pointer[Bridge]

// Install makes b the target of Vector. It fails with errcode.Busy if
// another bridge is installed.
func Install(b *Bridge) error {
	if b == nil {
		return errcode.InvalidParams
	}
	if !active.CompareAndSwap(nil, b) {
		return errcode.Busy
	}
	return nil
}

// Uninstall releases the handle if b holds it.
func Uninstall(b *Bridge) { active.CompareAndSwap(b, nil) }

// Installed reports whether any bridge currently holds the handle.
func Installed() bool { return active.Load() != nil }

// Vector is the function handed to the timer as its interrupt handler.
func Vector() {
	if b := active.Load(); b != nil {
		b.OnExpiry()
	}
}
