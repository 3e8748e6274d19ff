// Package platform defines the narrow contracts the scheduler calls into and
// the implementations for host and RP2 builds. Nothing here knows about
// sensors or scheduling.
package platform

import (
	"time"

	"lowpower-go/types"
)

// Clock is monotonic and wraps silently.
type Clock interface {
	Now() types.Ticks
}

// Pins takes synchronous samples. Implementations need not be interrupt safe.
type Pins interface {
	ReadDigital(pin int) (bool, error)
	ReadAnalog(pin int) (uint16, error)
}

// EdgeWatcher is implemented by Pins that can end a light sleep early when a
// watched digital input changes. The edge only wakes the node; the trigger
// is still evaluated by sampling.
type EdgeWatcher interface {
	WatchEdges(pin int) error
}

// Sleeper is the low-power primitive. A deep sleep may never return on parts
// that reset on wake; a light sleep may return early on an external wake
// source.
type Sleeper interface {
	Sleep(d time.Duration, depth types.SleepDepth) error
	Supports(depth types.SleepDepth) bool
}

// Radio is best effort; the scheduler never aborts on its errors.
type Radio interface {
	Disable() error
	Enable() error
}

type TimerHandle uint32

// Timer programs the single periodic source driving the interrupt bridge.
// isr runs in interrupt context: it must not block.
type Timer interface {
	Arm(period time.Duration, isr func()) (TimerHandle, error)
	Disarm(h TimerHandle) error
}

// Platform bundles the collaborators. Pins, Radio and Timer may be nil:
// level/threshold triggers then fail registration, the radio is never
// touched, and scheduling stays on the polled path.
type Platform struct {
	Clock   Clock
	Pins    Pins
	Sleeper Sleeper
	Radio   Radio
	Timer   Timer
}
