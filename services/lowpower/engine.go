// Package lowpower schedules sensor wake/sleep callbacks on a
// power-constrained node and sleeps between activations.
//
// All Engine methods run in normal context (one goroutine). The only state
// shared with interrupt context lives in the registry atomics and the event
// ring, and is touched there by the interrupt bridge alone.
package lowpower

import (
	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/internal/irqbridge"
	"lowpower-go/services/lowpower/internal/power"
	"lowpower-go/services/lowpower/internal/registry"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/types"
	"lowpower-go/x/evring"
	"lowpower-go/x/logx"
	"lowpower-go/x/timex"
)

var topicState = bus.T("lowpower", "state")

type Engine struct {
	cfg  Config
	plat platform.Platform
	conn *bus.Connection // optional state publication

	reg    *registry.Registry
	q      *evring.Ring
	bridge *irqbridge.Bridge
	power  *power.Controller

	initialised bool
	armed       bool
	timer       platform.TimerHandle

	fired     uint32
	lastSleep types.Ticks
	lastErr   error
}

// New allocates all fixed storage up front; nothing allocates per tick.
func New(cfg Config, plat platform.Platform) *Engine {
	cfg = cfg.withDefaults()
	reg := registry.New(cfg.Capacity)
	q := evring.New(cfg.QueueSize)
	e := &Engine{
		cfg:  cfg,
		plat: plat,
		reg:  reg,
		q:    q,
	}
	if plat.Clock != nil {
		e.bridge = irqbridge.New(reg, q, plat.Clock)
	}
	var guard func() bool
	if e.bridge != nil {
		guard = e.bridge.Busy
	}
	e.power = power.New(plat.Sleeper, plat.Radio, guard)
	return e
}

// Attach publishes a retained types.SchedulerState on lowpower/state after
// every tick.
func (e *Engine) Attach(conn *bus.Connection) { e.conn = conn }

// Initialize fixes the operating mode, radio requirement and sleep depth.
// It may be called once. Radio bring-up and timer arming failures are
// recorded and logged; the engine then runs without them.
func (e *Engine) Initialize(mode types.Mode, radioRequired bool, depth types.SleepDepth) error {
	const op = "initialize"
	if e.initialised {
		return errcode.Wrap(errcode.Busy, op, nil)
	}
	if e.plat.Clock == nil || e.plat.Sleeper == nil {
		return &errcode.E{C: errcode.InvalidParams, Op: op, Msg: "clock and sleeper are required"}
	}
	if mode != types.ModePerSensor && mode != types.ModeSingleInterval {
		return errcode.Wrap(errcode.InvalidMode, op, nil)
	}
	eff, err := e.power.Configure(radioRequired, depth, e.cfg.GuardSpinLimit)
	if err != nil {
		return err
	}

	shared := types.Ticks(0)
	if mode == types.ModeSingleInterval {
		shared = e.cfg.SharedInterval
	}
	e.reg.SetCadence(mode, shared)

	if e.cfg.Interrupts {
		e.armTimer()
	}
	e.power.BringUp()
	e.initialised = true
	logx.Infof("lowpower initialised: mode=%s radio=%t sleep=%s interrupts=%t", mode, radioRequired, eff, e.armed)
	return nil
}

// armTimer installs the bridge behind the process-wide vector and arms the
// timer. Any failure leaves the engine on the polled path.
func (e *Engine) armTimer() {
	if e.plat.Timer == nil {
		logx.Warnf("interrupts requested but no timer; polling")
		return
	}
	if err := irqbridge.Install(e.bridge); err != nil {
		e.lastErr = errcode.Wrap(errcode.TimerFault, "timer_arm", err)
		logx.Warnf("interrupt handle in use: %v; polling", err)
		return
	}
	h, err := e.plat.Timer.Arm(e.cfg.TimerPeriod, irqbridge.Vector)
	if err != nil {
		irqbridge.Uninstall(e.bridge)
		e.lastErr = errcode.Wrap(errcode.TimerFault, "timer_arm", err)
		logx.Warnf("timer_arm failed: %v; polling", err)
		return
	}
	e.timer = h
	e.armed = true
}

// Close disarms the timer and releases the interrupt handle.
func (e *Engine) Close() error {
	if !e.armed {
		return nil
	}
	e.armed = false
	err := e.plat.Timer.Disarm(e.timer)
	irqbridge.Uninstall(e.bridge)
	if err != nil {
		err = errcode.Wrap(errcode.TimerFault, "timer_disarm", err)
		e.lastErr = err
	}
	return err
}

// RegisterSensor validates d against the current mode and stores it.
// Nothing changes on rejection.
func (e *Engine) RegisterSensor(d types.Descriptor) (types.SlotID, error) {
	const op = "register_sensor"
	if !e.initialised {
		return 0, errcode.Wrap(errcode.NotReady, op, nil)
	}
	if e.reg.Len() >= e.reg.Cap() {
		return 0, errcode.Wrap(errcode.CapacityExceeded, op, nil)
	}
	mode := e.reg.Mode()
	if err := registry.Check(d, mode, e.reg.SharedInterval()); err != nil {
		logx.Warnf("sensor %q rejected: %v", d.Name, err)
		return 0, errcode.Wrap(errcode.Of(err), op, nil)
	}
	if !d.Trigger.IsTimed() && e.plat.Pins == nil {
		return 0, &errcode.E{C: errcode.Unsupported, Op: op, Msg: "no pin sampler for " + d.Trigger.Kind.String() + " trigger"}
	}
	id, err := e.reg.Add(d)
	if err != nil {
		return 0, errcode.Wrap(errcode.Of(err), op, nil)
	}
	if mode == types.ModeSingleInterval && e.reg.SharedInterval() == 0 && d.Trigger.IsTimed() {
		e.reg.SetSharedInterval(d.Trigger.Interval)
	}
	if d.Trigger.Kind == types.TriggerDigital {
		if w, ok := e.plat.Pins.(platform.EdgeWatcher); ok {
			if err := w.WatchEdges(d.Pin); err != nil {
				logx.Warnf("sensor %q: pin %d edges not watched: %v", d.Name, d.Pin, err)
			}
		}
	}
	logx.Infof("sensor %q registered in slot %d (%s)", d.Name, id, d.Trigger.Kind)
	return id, nil
}

// ---- Read-only accessors ----

func (e *Engine) Mode() types.Mode             { return e.reg.Mode() }
func (e *Engine) SensorCount() int             { return e.reg.Len() }
func (e *Engine) Capacity() int                { return e.reg.Cap() }
func (e *Engine) RadioRequired() bool          { return e.power.RadioRequired() }
func (e *Engine) RadioConnected() bool         { return e.power.Connected() }
func (e *Engine) RadioFaults() power.Faults    { return e.power.Faults() }
func (e *Engine) InterruptDriven() bool        { return e.armed }
func (e *Engine) SleepDepth() types.SleepDepth { return e.power.Depth() }

// SharedInterval is the single-interval cadence (0 in per-sensor mode).
func (e *Engine) SharedInterval() types.Ticks { return e.reg.SharedInterval() }

// LastFire returns the last completed wake/sleep stamp for slot id.
func (e *Engine) LastFire(id types.SlotID) types.Ticks { return e.reg.LastFire(id) }

// State snapshots the scheduler for publication.
func (e *Engine) State() types.SchedulerState {
	f := e.power.Faults()
	rd, wr := e.q.Watermarks()
	st := types.SchedulerState{
		Mode:           e.reg.Mode().String(),
		Sensors:        e.reg.Len(),
		RadioRequired:  e.power.RadioRequired(),
		RadioConnected: e.power.Connected(),
		RadioFailures:  f.Total(),
		SleptMs:        uint32(e.lastSleep),
		Sleeps:         e.power.Sleeps(),
		Fired:          e.fired,
		QueueDepth:     wr - rd,
		QueueDrops:     e.q.Drops(),
		Interrupts:     e.armed,
		TsMs:           timex.NowMs(),
	}
	if e.bridge != nil {
		st.ISRSkips = e.bridge.Skips()
	}
	switch {
	case f.LastErr != nil:
		st.LastError = f.LastErr.Error()
	case e.lastErr != nil:
		st.LastError = e.lastErr.Error()
	}
	return st
}

func (e *Engine) publishState() {
	if e.conn == nil {
		return
	}
	e.conn.Publish(&bus.Message{Topic: topicState, Payload: e.State(), Retained: true})
}
