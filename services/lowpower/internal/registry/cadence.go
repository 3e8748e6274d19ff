package registry

import (
	"sync/atomic"

	"lowpower-go/types"
)

// cadence is the scheduling state the interrupt bridge needs besides the
// slots: the operating mode and the shared single-interval bookkeeping.
// Written from normal context only.
type cadence struct {
	mode     atomic.Uint32 // types.Mode
	interval atomic.Uint32 // shared interval, single-interval mode
	last     atomic.Uint32 // shared last-fire stamp
}

func (r *Registry) Mode() types.Mode { return types.Mode(r.cad.mode.Load()) }

// SetCadence switches the mode and shared interval together.
func (r *Registry) SetCadence(m types.Mode, shared types.Ticks) {
	r.cad.interval.Store(uint32(shared))
	r.cad.mode.Store(uint32(m))
}

func (r *Registry) SharedInterval() types.Ticks { return types.Ticks(r.cad.interval.Load()) }

func (r *Registry) SetSharedInterval(iv types.Ticks) { r.cad.interval.Store(uint32(iv)) }

func (r *Registry) SharedLast() types.Ticks { return types.Ticks(r.cad.last.Load()) }

func (r *Registry) StampShared(now types.Ticks) { r.cad.last.Store(uint32(now)) }
