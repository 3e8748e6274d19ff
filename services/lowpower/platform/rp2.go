//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

// ----------------------------- Pins (RP2) ------------------------------------

// rp2Pins configures a pin on first use and keeps it in that role.
type rp2Pins struct {
	digital map[int]machine.Pin
	analog  map[int]machine.ADC
	wake    chan struct{}
	drops   atomic.Uint32 // edges lost while a wake was already pending
}

func newRP2Pins(wake chan struct{}) *rp2Pins {
	machine.InitADC()
	return &rp2Pins{digital: map[int]machine.Pin{}, analog: map[int]machine.ADC{}, wake: wake}
}

func (p *rp2Pins) input(pin int) (machine.Pin, error) {
	// Constrain to RP2 user GPIOs (GP0..GP28).
	if pin < 0 || pin > 28 {
		return 0, errcode.InvalidParams
	}
	mp, ok := p.digital[pin]
	if !ok {
		mp = machine.Pin(pin)
		mp.Configure(machine.PinConfig{Mode: machine.PinInput})
		p.digital[pin] = mp
	}
	return mp, nil
}

func (p *rp2Pins) ReadDigital(pin int) (bool, error) {
	mp, err := p.input(pin)
	if err != nil {
		return false, err
	}
	return mp.Get(), nil
}

// WatchEdges wakes the sleeper on either edge. The handler runs in
// interrupt context: a non-blocking send, nothing else.
func (p *rp2Pins) WatchEdges(pin int) error {
	mp, err := p.input(pin)
	if err != nil {
		return err
	}
	return mp.SetInterrupt(machine.PinRising|machine.PinFalling, func(machine.Pin) {
		select {
		case p.wake <- struct{}{}:
		default:
			p.drops.Add(1)
		}
	})
}

func (p *rp2Pins) ReadAnalog(pin int) (uint16, error) {
	// ADC0..ADC3 live on GP26..GP29.
	if pin < 26 || pin > 29 {
		return 0, errcode.InvalidParams
	}
	a, ok := p.analog[pin]
	if !ok {
		a = machine.ADC{Pin: machine.Pin(pin)}
		a.Configure(machine.ADCConfig{})
		p.analog[pin] = a
	}
	return a.Get(), nil
}

// ----------------------------- Sleep (RP2) -----------------------------------

// rp2Sleeper relies on the TinyGo scheduler idling the core (WFE) while
// blocked. DORMANT mode is not exposed by machine, so deep sleep is reported
// unsupported and the scheduler falls back to light. A watched pin edge ends
// the sleep early.
type rp2Sleeper struct {
	wake chan struct{}
}

func (rp2Sleeper) Supports(d types.SleepDepth) bool { return d == types.SleepLight }

// Wake ends a sleep in progress (or the next one).
func (s rp2Sleeper) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s rp2Sleeper) Sleep(d time.Duration, _ types.SleepDepth) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.wake:
	}
	return nil
}

// RP2 returns the on-chip platform. Radio is left nil for the caller.
func RP2() Platform {
	wake := make(chan struct{}, 1)
	return Platform{
		Clock:   NewMonoClock(),
		Pins:    newRP2Pins(wake),
		Sleeper: rp2Sleeper{wake: wake},
		Timer:   NewTickerTimer(),
	}
}

// ----------------------------- I2C (RP2) -------------------------------------

// OpenI2C configures i2c0 or i2c1 on the given pins at 400kHz.
func OpenI2C(name string, sda, scl int) (drivers.I2C, error) {
	var hw *machine.I2C
	switch name {
	case "i2c0", "":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "unknown bus " + name}
	}
	sdaPin, sclPin := machine.Pin(sda), machine.Pin(scl)
	sdaPin.Configure(machine.PinConfig{Mode: machine.PinI2C})
	sclPin.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{SDA: sdaPin, SCL: sclPin, Frequency: 400 * machine.KHz}); err != nil {
		return nil, errcode.Wrap(errcode.Error, "i2c", err)
	}
	return hw, nil
}
