package lowpower

import (
	"math"

	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/internal/registry"
	"lowpower-go/types"
	"lowpower-go/x/logx"
	"lowpower-go/x/timex"
)

const noDeadline = types.Ticks(math.MaxUint32)

// Tick drives one scheduling pass (evaluate or drain, dispatch, compute the
// next wake), publishes state and sleeps.
func (e *Engine) Tick() error {
	next, err := e.Step()
	if err != nil {
		return err
	}
	e.power.EnterSleep(timex.Duration(next))
	return nil
}

// Step is Tick without the sleep. It returns how long the node may sleep.
func (e *Engine) Step() (types.Ticks, error) {
	if !e.initialised {
		return 0, errcode.Wrap(errcode.NotReady, "tick", nil)
	}
	now := e.plat.Clock.Now()

	var next types.Ticks
	switch {
	case e.reg.Len() == 0:
		e.flushQueue()
		next = e.cfg.PollInterval
	case e.reg.Mode() == types.ModeSingleInterval:
		next = e.passSingle(now)
	default:
		next = e.passPerSensor(now)
	}
	e.lastSleep = next
	e.publishState()
	return next, nil
}

// passPerSensor fires every descriptor whose trigger holds and returns the
// time until the nearest deadline.
func (e *Engine) passPerSensor(now types.Ticks) types.Ticks {
	if e.armed {
		e.drainAndDispatch(now)
	}
	next := noDeadline
	n := e.reg.Len()
	for i := 0; i < n; i++ {
		id := types.SlotID(i)
		d := e.reg.Descriptor(id)

		if d.Trigger.IsTimed() {
			if !e.armed && registry.ShouldFire(d.Trigger, e.reg.LastFire(id), now, registry.Sample{}) {
				e.fire(id, now)
			}
			if rem := timex.Remaining(now, e.reg.LastFire(id), d.Trigger.Interval); rem < next {
				next = rem
			}
			continue
		}

		s, err := e.sample(d)
		if err != nil {
			e.lastErr = err
			logx.Warnf("sensor %q: %v", d.Name, err)
		} else if registry.ShouldFire(d.Trigger, 0, now, s) {
			e.fire(id, now)
		}
		if e.cfg.PollInterval < next {
			next = e.cfg.PollInterval
		}
	}
	// With the timer armed a due-but-unqueued descriptor is picked up on the
	// next expiry; do not spin waiting for it.
	if e.armed && next == 0 {
		next = timex.FromDuration(e.cfg.TimerPeriod)
	}
	return next
}

// passSingle runs the shared batch when due and returns the time until the
// next one.
func (e *Engine) passSingle(now types.Ticks) types.Ticks {
	iv := e.reg.SharedInterval()
	due := timex.Due(now, e.reg.SharedLast(), iv)
	if e.armed {
		requested := e.drainRequests()
		due = due && requested
	}
	if due {
		e.fireAll(now)
		return iv
	}
	rem := timex.Remaining(now, e.reg.SharedLast(), iv)
	if e.armed && rem == 0 {
		rem = timex.FromDuration(e.cfg.TimerPeriod)
	}
	return rem
}

func (e *Engine) sample(d *types.Descriptor) (registry.Sample, error) {
	switch d.Trigger.Kind {
	case types.TriggerDigital:
		lvl, err := e.plat.Pins.ReadDigital(d.Pin)
		return registry.Sample{Level: lvl}, err
	case types.TriggerAnalog:
		v, err := e.plat.Pins.ReadAnalog(d.Pin)
		return registry.Sample{Value: v}, err
	}
	return registry.Sample{}, nil
}
