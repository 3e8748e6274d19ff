package lowpower

import (
	"time"

	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/internal/registry"
	"lowpower-go/types"
	"lowpower-go/x/mathx"
)

// Config centralises capacities and timings. Zero values take defaults.
type Config struct {
	Capacity       int           // sensor slots
	QueueSize      int           // event ring size, power of two >= Capacity
	SharedInterval types.Ticks   // single-interval cadence until a sensor fixes one
	PollInterval   types.Ticks   // level/threshold sampling cadence, idle sleep
	TimerPeriod    time.Duration // interrupt timer period
	Interrupts     bool          // detect timed triggers from the timer interrupt
	GuardSpinLimit int           // 0 = wait forever for the interrupt guard
}

const (
	defaultCapacity = 8
	defaultPoll     = types.Ticks(1000)
	defaultTimer    = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	c.Capacity = mathx.Min(c.Capacity, registry.MaxCapacity)
	if c.QueueSize < c.Capacity {
		c.QueueSize = c.Capacity
	}
	c.QueueSize = mathx.CeilPow2(mathx.Max(c.QueueSize, 2))
	if c.PollInterval == 0 {
		c.PollInterval = defaultPoll
	}
	if c.TimerPeriod <= 0 {
		c.TimerPeriod = defaultTimer
	}
	return c
}

// Settings is what Initialize takes, decoded from a LowPowerConfig document.
type Settings struct {
	Mode          types.Mode
	RadioRequired bool
	Depth         types.SleepDepth
}

// FromDocument decodes the JSON configuration document.
func FromDocument(doc types.LowPowerConfig) (Config, Settings, error) {
	var st Settings
	mode, ok := types.ParseMode(doc.Mode)
	if !ok {
		return Config{}, st, &errcode.E{C: errcode.InvalidMode, Op: "config", Msg: doc.Mode}
	}
	depth := types.SleepLight
	if doc.SleepDepth != "" {
		if depth, ok = types.ParseSleepDepth(doc.SleepDepth); !ok {
			return Config{}, st, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "sleep_depth " + doc.SleepDepth}
		}
	}
	st = Settings{Mode: mode, RadioRequired: doc.RadioRequired, Depth: depth}
	cfg := Config{
		Capacity:       doc.Capacity,
		QueueSize:      doc.QueueSize,
		SharedInterval: types.Ticks(doc.IntervalMs),
		PollInterval:   types.Ticks(doc.PollMs),
		TimerPeriod:    time.Duration(doc.TimerMs) * time.Millisecond,
		Interrupts:     doc.Interrupts,
		GuardSpinLimit: doc.GuardSpinLimit,
	}
	return cfg, st, nil
}
