// Package power sequences every sleep: radio off, platform sleep, radio on.
// Radio failures are recorded and logged but never stop the sleep or the
// re-enable attempt that follows it.
package power

import (
	"runtime"
	"time"

	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/types"
	"lowpower-go/x/logx"
)

// Faults is the observable record of non-fatal peripheral failures.
type Faults struct {
	DisableFailures uint32
	EnableFailures  uint32
	SleepFailures   uint32
	LastErr         error
}

// Total counts radio toggle failures.
func (f Faults) Total() uint32 { return f.DisableFailures + f.EnableFailures }

type Controller struct {
	sleeper platform.Sleeper
	radio   platform.Radio
	guard   func() bool // interrupt evaluation in progress

	required  bool
	depth     types.SleepDepth
	spinLimit int

	connected bool
	faults    Faults
	sleeps    uint32
}

// New builds a controller. guard may be nil when no interrupt path exists.
func New(s platform.Sleeper, r platform.Radio, guard func() bool) *Controller {
	return &Controller{sleeper: s, radio: r, guard: guard}
}

// Configure fixes the radio requirement and sleep depth. If the sleeper
// cannot do the requested depth the other one is used; the effective depth
// is returned.
func (c *Controller) Configure(radioRequired bool, depth types.SleepDepth, spinLimit int) (types.SleepDepth, error) {
	if c.sleeper == nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "power_configure", nil)
	}
	if radioRequired && c.radio == nil {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "power_configure", Msg: "radio required but none supplied"}
	}
	if !c.sleeper.Supports(depth) {
		alt := types.SleepDeep
		if depth == types.SleepDeep {
			alt = types.SleepLight
		}
		if !c.sleeper.Supports(alt) {
			return 0, errcode.Wrap(errcode.Unsupported, "power_configure", nil)
		}
		logx.Warnf("%s sleep unsupported, falling back to %s", depth, alt)
		depth = alt
	}
	c.required = radioRequired
	c.depth = depth
	c.spinLimit = spinLimit
	return depth, nil
}

// BringUp enables the radio once at start-up. Failure is recorded only.
func (c *Controller) BringUp() {
	if c.required {
		c.radioOn()
	}
}

// EnterSleep sleeps for d with the radio bracketed around it. A zero or
// negative duration returns at once without touching anything.
func (c *Controller) EnterSleep(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	c.waitGuard()

	if c.required {
		c.radioOff()
	}
	if err := c.sleeper.Sleep(d, c.depth); err != nil {
		c.faults.SleepFailures++
		c.faults.LastErr = err
		logx.Errorf("sleep %dms failed: %v", int64(d/time.Millisecond), err)
	}
	c.sleeps++
	if c.required {
		c.radioOn()
	}
	return true
}

// waitGuard yields until the interrupt bridge finishes its pass. A guard that
// never clears is a liveness bug: with a spin limit set it is fatal.
func (c *Controller) waitGuard() {
	if c.guard == nil {
		return
	}
	for spins := 0; c.guard(); spins++ {
		if c.spinLimit > 0 && spins >= c.spinLimit {
			panic("power: interrupt guard stuck")
		}
		runtime.Gosched()
	}
}

func (c *Controller) radioOff() {
	if err := c.radio.Disable(); err != nil {
		c.faults.DisableFailures++
		c.faults.LastErr = errcode.Wrap(errcode.RadioFault, "radio_disable", err)
		logx.Warnf("radio_disable failed: %v", err)
		return
	}
	c.connected = false
}

func (c *Controller) radioOn() {
	if err := c.radio.Enable(); err != nil {
		c.faults.EnableFailures++
		c.faults.LastErr = errcode.Wrap(errcode.RadioFault, "radio_enable", err)
		c.connected = false
		logx.Warnf("radio_enable failed: %v", err)
		return
	}
	c.connected = true
}

func (c *Controller) Faults() Faults          { return c.faults }
func (c *Controller) Connected() bool         { return c.connected }
func (c *Controller) RadioRequired() bool     { return c.required }
func (c *Controller) Depth() types.SleepDepth { return c.depth }
func (c *Controller) Sleeps() uint32          { return c.sleeps }
