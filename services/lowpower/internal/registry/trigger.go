package registry

import (
	"lowpower-go/types"
	"lowpower-go/x/timex"
)

// Sample is the pin reading taken for a level or threshold trigger. Timed
// triggers ignore it.
type Sample struct {
	Level bool
	Value uint16
}

// ShouldFire is the trigger evaluator. It is read-only; the timed case is
// safe to call from interrupt context.
func ShouldFire(t types.Trigger, last, now types.Ticks, s Sample) bool {
	switch t.Kind {
	case types.TriggerInterval:
		return timex.Due(now, last, t.Interval)
	case types.TriggerDigital:
		return s.Level == t.Level
	case types.TriggerAnalog:
		return s.Value >= t.Threshold
	default:
		return false
	}
}
