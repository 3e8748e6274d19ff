//go:build !(rp2040 || rp2350)

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	cobra "github.com/spf13/cobra"

	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/services/config"
	"lowpower-go/services/lowpower"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/services/radio/mqttlink"
	"lowpower-go/services/sensors"
	"lowpower-go/types"
	"lowpower-go/x/logx"
)

type simOptions struct {
	device  string
	listen  string
	broker  string
	noRadio bool
	seed    int64
}

func newSimCmd() *cobra.Command {
	var o simOptions
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run the scheduler on the host with simulated sensors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return runSim(ctx, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.device, "device", "sim", "embedded config to load")
	f.StringVar(&o.listen, "listen", "127.0.0.1:8080", "HTTP status address (empty disables)")
	f.StringVar(&o.broker, "broker", "", "MQTT broker URL, overrides config and LOWPOWER_BROKER")
	f.BoolVar(&o.noRadio, "no-radio", false, "run without the MQTT radio")
	f.Int64Var(&o.seed, "seed", time.Now().UnixNano(), "simulated sensor seed")
	return cmd
}

// radioFromEnv overlays credentials from the environment (or .env).
func radioFromEnv(rc types.RadioConfig, brokerFlag string) types.RadioConfig {
	if v := os.Getenv("LOWPOWER_BROKER"); v != "" {
		rc.Broker = v
	}
	if brokerFlag != "" {
		rc.Broker = brokerFlag
	}
	if v := os.Getenv("LOWPOWER_MQTT_USERNAME"); v != "" {
		rc.Username = v
	}
	if v := os.Getenv("LOWPOWER_MQTT_PASSWORD"); v != "" {
		rc.Password = v
	}
	if v := os.Getenv("LOWPOWER_WIFI_SSID"); v != "" {
		rc.SSID = v
	}
	if v := os.Getenv("LOWPOWER_WIFI_PASSWORD"); v != "" {
		rc.Password = v
	}
	return rc
}

func runSim(ctx context.Context, o simOptions) error {
	doc, err := config.LowPower(o.device)
	if err != nil {
		return err
	}
	doc.Radio = radioFromEnv(doc.Radio, o.broker)
	if o.noRadio {
		doc.RadioRequired = false
	}
	cfg, st, err := lowpower.FromDocument(doc)
	if err != nil {
		return err
	}

	b := bus.NewBus(16)
	pins := platform.NewHostPins(29)
	plat := platform.Host(pins)
	sleeper := plat.Sleeper.(*platform.HostSleeper)

	if st.RadioRequired {
		link, err := mqttlink.New(doc.Radio)
		if err != nil {
			return err
		}
		plat.Radio = link
		go link.Forward(ctx, b.NewConnection("uplink"), topicReadings, topicState)
	}

	eng := lowpower.New(cfg, plat)
	if err := eng.Initialize(st.Mode, st.RadioRequired, st.Depth); err != nil {
		return err
	}

	ctx = context.WithValue(ctx, config.CtxDeviceKey, o.device)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	sc, err := config.Sensors(o.device)
	if err != nil {
		return err
	}
	seed := o.seed
	ds, err := sensors.NewPublisher(b.NewConnection("sensors")).Build(sc, sensors.Env{
		Pins: pins,
		Sim: func(string) sensors.Sensor {
			seed++
			return sensors.NewSim(seed)
		},
	})
	if err != nil {
		return err
	}
	for _, d := range ds {
		if _, err := eng.RegisterSensor(d); err != nil {
			return err
		}
	}

	cache := newStatusCache()
	go cache.run(ctx, b.NewConnection("status"))

	if err := lowpower.NewService(eng).Start(ctx, b.NewConnection("lowpower")); err != nil {
		return err
	}

	if o.listen == "" {
		<-ctx.Done()
		return nil
	}
	srv := &http.Server{
		Addr:              o.listen,
		Handler:           newRouter(&api{cache: cache, pins: pins, conn: b.NewConnection("http"), wake: sleeper.Wake}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sleeper.Wake()
		shut, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shut)
	}()
	logx.Infof("status on http://%s/status", o.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errcode.Wrap(errcode.Error, "http", err)
	}
	return nil
}
