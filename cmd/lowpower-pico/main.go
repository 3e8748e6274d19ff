//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"

	"lowpower-go/bus"
	"lowpower-go/services/config"
	"lowpower-go/services/lowpower"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/services/radio/uartmodem"
	"lowpower-go/services/sensors"
	"lowpower-go/types"
	"lowpower-go/x/logx"
)

const device = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	logx.Infof("boot %s", device)

	doc, err := config.LowPower(device)
	if err != nil {
		halt(err)
	}
	cfg, st, err := lowpower.FromDocument(doc)
	if err != nil {
		halt(err)
	}

	plat := platform.RP2()
	if st.RadioRequired {
		modem, err := uartmodem.Open(doc.Radio)
		if err != nil {
			logx.Warnf("modem unavailable, running without radio: %v", err)
			st.RadioRequired = false
		} else {
			plat.Radio = modem
		}
	}

	eng := lowpower.New(cfg, plat)
	if err := eng.Initialize(st.Mode, st.RadioRequired, st.Depth); err != nil {
		halt(err)
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, device)
	b := bus.NewBus(8)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	sc, err := config.Sensors(device)
	if err != nil {
		halt(err)
	}
	pub := sensors.NewPublisher(b.NewConnection("sensors"))
	ds, err := pub.Build(sc, sensors.Env{Pins: plat.Pins, I2C: platform.OpenI2C})
	if err != nil {
		halt(err)
	}
	for _, d := range ds {
		if _, err := eng.RegisterSensor(d); err != nil {
			logx.Errorf("sensor %s: %v", d.Name, err)
		}
	}

	go console(b.NewConnection("console"))
	if err := lowpower.NewService(eng).Start(ctx, b.NewConnection("lowpower")); err != nil {
		halt(err)
	}
	select {}
}

// console echoes readings on the USB serial port.
func console(conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("sensors", "+", "value"))
	for m := range sub.Channel() {
		switch r := m.Payload.(type) {
		case types.EnvReading:
			logx.Infof("%s: %d.%d C %d.%02d %%RH", r.Sensor, r.DeciC/10, abs16(r.DeciC%10), r.RHx100/100, r.RHx100%100)
		case types.LevelReading:
			logx.Infof("%s: pin %d level=%t value=%d", r.Sensor, r.Pin, r.Level, r.Value)
		}
	}
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

func halt(err error) {
	for {
		logx.Errorf("fatal: %v", err)
		time.Sleep(5 * time.Second)
	}
}
