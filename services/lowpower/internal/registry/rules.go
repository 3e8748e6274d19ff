package registry

import (
	"lowpower-go/errcode"
	"lowpower-go/types"
)

// Check validates d against the rules of mode. shared is the current shared
// interval (0 = not yet fixed) and only matters in single-interval mode.
func Check(d types.Descriptor, mode types.Mode, shared types.Ticks) error {
	if d.Wake == nil {
		return errcode.MissingWakeCallback
	}
	switch d.Trigger.Kind {
	case types.TriggerInterval, types.TriggerDigital, types.TriggerAnalog:
	default:
		return errcode.InvalidParams
	}
	if !d.Trigger.IsTimed() {
		return nil
	}
	iv := d.Trigger.Interval
	switch mode {
	case types.ModePerSensor:
		if iv == 0 {
			return errcode.InvalidInterval
		}
	case types.ModeSingleInterval:
		if iv != 0 && shared != 0 && iv != shared {
			return errcode.IntervalMismatch
		}
	default:
		return errcode.InvalidMode
	}
	return nil
}

// CheckMode validates every published descriptor against target. For
// single-interval mode it also returns the shared interval the descriptors
// agree on (0 if none carries one, in which case fallback is used).
func (r *Registry) CheckMode(target types.Mode, fallback types.Ticks) (types.Ticks, error) {
	shared := types.Ticks(0)
	if target == types.ModeSingleInterval {
		shared = fallback
	}
	var err error
	r.Each(func(_ types.SlotID, d *types.Descriptor) {
		if err != nil {
			return
		}
		if err = Check(*d, target, shared); err != nil {
			return
		}
		if target == types.ModeSingleInterval && shared == 0 && d.Trigger.IsTimed() {
			shared = d.Trigger.Interval
		}
	})
	if err != nil {
		return 0, err
	}
	return shared, nil
}
