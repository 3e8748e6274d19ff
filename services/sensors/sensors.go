// Package sensors turns configured measurement sources into scheduler
// descriptors. Wake starts a measurement, Sleep collects it and publishes
// the reading retained on sensors/<name>/value.
package sensors

import (
	"maps"
	"slices"

	"tinygo.org/x/drivers"

	"lowpower-go/bus"
	"lowpower-go/drivers/aht20"
	"lowpower-go/errcode"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/types"
	"lowpower-go/x/logx"
	"lowpower-go/x/timex"
)

// Sensor is a two-phase measurement source.
type Sensor interface {
	Begin() error
	Finish() (types.EnvReading, error)
}

// ValueTopic is where a sensor's readings are published.
func ValueTopic(name string) bus.Topic { return bus.T("sensors", name, "value") }

// -----------------------------------------------------------------------------
// AHT20
// -----------------------------------------------------------------------------

type AHT20 struct {
	dev *aht20.Device
}

func NewAHT20(i2c drivers.I2C) *AHT20 {
	return &AHT20{dev: aht20.New(i2c, aht20.Config{})}
}

func (a *AHT20) Begin() error { return a.dev.Trigger() }

func (a *AHT20) Finish() (types.EnvReading, error) {
	var s aht20.Sample
	if err := a.dev.Await(&s); err != nil {
		return types.EnvReading{}, err
	}
	return types.EnvReading{Sensor: "aht20", DeciC: s.DeciCelsius(), RHx100: s.RHx100(), TsMs: timex.NowMs()}, nil
}

// -----------------------------------------------------------------------------
// Descriptors
// -----------------------------------------------------------------------------

// Publisher builds descriptors whose callbacks report on conn.
type Publisher struct {
	conn *bus.Connection
}

func NewPublisher(conn *bus.Connection) *Publisher { return &Publisher{conn: conn} }

// Descriptor pairs s with trig. A failed Begin skips the matching Finish.
func (p *Publisher) Descriptor(name string, s Sensor, trig types.Trigger) types.Descriptor {
	started := false
	return types.Descriptor{
		Name:    name,
		Trigger: trig,
		Wake: func() {
			if err := s.Begin(); err != nil {
				logx.Warnf("sensor %s: begin: %v", name, err)
				started = false
				return
			}
			started = true
		},
		Sleep: func() {
			if !started {
				return
			}
			started = false
			r, err := s.Finish()
			if err != nil {
				logx.Warnf("sensor %s: finish: %v", name, err)
				return
			}
			p.conn.Publish(&bus.Message{Topic: ValueTopic(name), Payload: r, Retained: true})
		},
	}
}

// PinDescriptor reports the pin state that satisfied a level or threshold
// trigger.
func (p *Publisher) PinDescriptor(name string, pins platform.Pins, pin int, trig types.Trigger) types.Descriptor {
	var r types.LevelReading
	return types.Descriptor{
		Name:    name,
		Trigger: trig,
		Pin:     pin,
		Wake: func() {
			r = types.LevelReading{Sensor: name, Pin: pin, TsMs: timex.NowMs()}
			var err error
			if trig.Kind == types.TriggerAnalog {
				r.Value, err = pins.ReadAnalog(pin)
			} else {
				r.Level, err = pins.ReadDigital(pin)
			}
			if err != nil {
				logx.Warnf("sensor %s: pin %d: %v", name, pin, err)
			}
		},
		Sleep: func() {
			p.conn.Publish(&bus.Message{Topic: ValueTopic(name), Payload: r, Retained: true})
		},
	}
}

// Env supplies what Build needs from the board.
type Env struct {
	Pins platform.Pins
	// I2C opens the named bus; nil when the board has none.
	I2C func(bus string, sda, scl int) (drivers.I2C, error)
	// Sim builds a simulated source for kind "sim"; nil outside simulation.
	Sim func(name string) Sensor
}

// Build returns one descriptor per configured sensor, in name order.
func (p *Publisher) Build(cfgs map[string]types.SensorConfig, env Env) ([]types.Descriptor, error) {
	out := make([]types.Descriptor, 0, len(cfgs))
	for _, name := range slices.Sorted(maps.Keys(cfgs)) {
		sc := cfgs[name]
		switch sc.Kind {
		case "aht20":
			if env.I2C == nil {
				return nil, &errcode.E{C: errcode.Unsupported, Op: "sensors", Msg: name + ": no i2c"}
			}
			i2c, err := env.I2C(sc.Bus, sc.SDA, sc.SCL)
			if err != nil {
				return nil, &errcode.E{C: errcode.Of(err), Op: "sensors", Msg: name, Err: err}
			}
			out = append(out, p.Descriptor(name, NewAHT20(i2c), types.Every(types.Ticks(sc.IntervalMs))))
		case "sim":
			if env.Sim == nil {
				return nil, &errcode.E{C: errcode.Unsupported, Op: "sensors", Msg: name + ": simulation only"}
			}
			out = append(out, p.Descriptor(name, env.Sim(name), types.Every(types.Ticks(sc.IntervalMs))))
		case "level", "threshold":
			if env.Pins == nil {
				return nil, &errcode.E{C: errcode.Unsupported, Op: "sensors", Msg: name + ": no pins"}
			}
			trig := types.OnLevel(sc.Level)
			if sc.Kind == "threshold" {
				trig = types.AtOrAbove(sc.Threshold)
			}
			out = append(out, p.PinDescriptor(name, env.Pins, sc.Pin, trig))
		default:
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "sensors", Msg: name + ": unknown kind " + sc.Kind}
		}
	}
	return out, nil
}
