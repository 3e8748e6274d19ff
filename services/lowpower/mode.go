package lowpower

import (
	"lowpower-go/errcode"
	"lowpower-go/types"
	"lowpower-go/x/logx"
	"lowpower-go/x/timex"
)

// SetMode switches between per-sensor and single-interval scheduling. Every
// registered descriptor is validated against the target first; on rejection
// nothing changes.
func (e *Engine) SetMode(target types.Mode) error {
	const op = "set_mode"
	if !e.initialised {
		return errcode.Wrap(errcode.NotReady, op, nil)
	}
	if target != types.ModePerSensor && target != types.ModeSingleInterval {
		return errcode.Wrap(errcode.InvalidMode, op, nil)
	}
	cur := e.reg.Mode()
	if cur == target {
		return nil
	}
	shared, err := e.reg.CheckMode(target, 0)
	if err != nil {
		logx.Warnf("mode %s -> %s rejected: %v", cur, target, err)
		return &errcode.E{C: errcode.ModeConflict, Op: op, Msg: target.String(), Err: err}
	}

	if target == types.ModeSingleInterval {
		if shared == 0 {
			shared = e.cfg.SharedInterval
		}
		e.reg.StampShared(e.latestFire())
	}
	e.reg.SetCadence(target, shared)
	e.flushQueue()
	logx.Infof("mode %s -> %s (interval %dms)", cur, target, uint32(shared))
	return nil
}

// latestFire is the most recent per-slot stamp, so a switch into single
// interval continues the cadence instead of firing at once.
func (e *Engine) latestFire() types.Ticks {
	now := e.plat.Clock.Now()
	n := e.reg.Len()
	best := types.Ticks(0)
	bestAge := noDeadline
	for i := 0; i < n; i++ {
		lf := e.reg.LastFire(types.SlotID(i))
		if age := timex.Elapsed(now, lf); age <= bestAge {
			best, bestAge = lf, age
		}
	}
	return best
}
