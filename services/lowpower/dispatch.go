package lowpower

import (
	"lowpower-go/types"
	"lowpower-go/x/logx"
)

// drainAndDispatch turns every queued slot id into a wake/sleep pair. It is
// the only consumer of the event ring.
func (e *Engine) drainAndDispatch(now types.Ticks) {
	for {
		v, ok := e.q.Pop()
		if !ok {
			return
		}
		id := types.SlotID(v)
		if int(id) >= e.reg.Len() {
			continue
		}
		e.fire(id, now)
	}
}

// drainRequests empties the ring in single-interval mode, where any entry
// means the interrupt side saw the shared interval expire. Each popped slot is
// released at once: the caller may decide the batch is not due yet, and a
// request queued after the batch stamps is rejected by the due check.
func (e *Engine) drainRequests() bool {
	requested := false
	for {
		v, ok := e.q.Pop()
		if !ok {
			return requested
		}
		if id := types.SlotID(v); int(id) < e.reg.Cap() {
			e.reg.ClearPending(id)
		}
		requested = true
	}
}

// flushQueue drops queued events and releases every slot.
func (e *Engine) flushQueue() {
	for {
		if _, ok := e.q.Pop(); !ok {
			break
		}
	}
	n := e.reg.Len()
	for i := 0; i < n; i++ {
		e.reg.ClearPending(types.SlotID(i))
	}
}

// fire runs one descriptor's wake then sleep, back to back.
func (e *Engine) fire(id types.SlotID, now types.Ticks) {
	d := e.reg.Descriptor(id)
	d.Wake()
	if d.Sleep != nil {
		d.Sleep()
	}
	e.reg.Stamp(id, now)
	e.reg.ClearPending(id)
	e.fired++
	logx.Debugf("fired %q at %d", d.Name, uint32(now))
}

// fireAll is the single-interval batch: every wake in registration order,
// then every sleep in registration order.
func (e *Engine) fireAll(now types.Ticks) {
	n := e.reg.Len()
	for i := 0; i < n; i++ {
		e.reg.Descriptor(types.SlotID(i)).Wake()
	}
	for i := 0; i < n; i++ {
		if s := e.reg.Descriptor(types.SlotID(i)).Sleep; s != nil {
			s()
		}
	}
	for i := 0; i < n; i++ {
		e.reg.Stamp(types.SlotID(i), now)
	}
	e.reg.StampShared(now)
	for i := 0; i < n; i++ {
		e.reg.ClearPending(types.SlotID(i))
	}
	e.fired += uint32(n)
	logx.Debugf("batch of %d at %d", n, uint32(now))
}
