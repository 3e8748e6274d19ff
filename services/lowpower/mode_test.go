package lowpower

import (
	"errors"
	"testing"
	"time"

	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/types"
)

func TestSetModeUnchangedIsNoop(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{}, types.ModePerSensor, false)
	if err := e.SetMode(types.ModePerSensor); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
}

func TestSetModeRejectsConflictingIntervals(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{}, types.ModePerSensor, false)
	mustRegister(t, e, sensor(r.log, "a", types.Every(1000)))
	mustRegister(t, e, sensor(r.log, "b", types.Every(3000)))

	err := e.SetMode(types.ModeSingleInterval)
	if !errors.Is(err, errcode.ModeConflict) || !errors.Is(err, errcode.IntervalMismatch) {
		t.Fatalf("err = %v, want mode conflict caused by interval mismatch", err)
	}
	if e.Mode() != types.ModePerSensor || e.SharedInterval() != 0 {
		t.Fatalf("state changed on rejection: mode=%s shared=%d", e.Mode(), e.SharedInterval())
	}
}

func TestSetModeRejectsZeroIntervalForPerSensor(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{SharedInterval: 500}, types.ModeSingleInterval, false)
	mustRegister(t, e, sensor(r.log, "a", types.Every(0)))

	if err := e.SetMode(types.ModePerSensor); !errors.Is(err, errcode.InvalidInterval) {
		t.Fatalf("err = %v, want invalid interval", err)
	}
	if e.Mode() != types.ModeSingleInterval || e.SharedInterval() != 500 {
		t.Fatalf("state changed on rejection: mode=%s shared=%d", e.Mode(), e.SharedInterval())
	}
}

func TestSetModeIntoSingleContinuesCadence(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{}, types.ModePerSensor, false)
	mustRegister(t, e, sensor(r.log, "a", types.Every(1000)))
	mustRegister(t, e, sensor(r.log, "b", types.Every(1000)))
	step(t, e, r, 5000)
	r.log.calls = nil

	if err := e.SetMode(types.ModeSingleInterval); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if e.SharedInterval() != 1000 {
		t.Fatalf("shared = %d, want 1000", e.SharedInterval())
	}
	if next := step(t, e, r, 5400); next != 600 || len(r.log.calls) != 0 {
		t.Fatalf("next=%d calls=%v", next, r.log.calls)
	}
	step(t, e, r, 6000)
	if count(r.log.calls, "a.wake") != 1 || count(r.log.calls, "b.wake") != 1 {
		t.Fatalf("calls = %v", r.log.calls)
	}
}

func TestSetModeInvalid(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{}, types.ModePerSensor, false)
	if err := e.SetMode(types.Mode(9)); !errors.Is(err, errcode.InvalidMode) {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceAppliesModeFromConfig(t *testing.T) {
	r := newRig()
	e := newEngine(t, r, Config{}, types.ModePerSensor, false)
	mustRegister(t, e, sensor(r.log, "a", types.Every(1000)))

	b := bus.NewBus(4)
	conn := b.NewConnection("test")
	results := conn.Subscribe(bus.T("lowpower", "mode", "result"))
	s := NewService(e)

	s.applyConfig(conn, b.NewMessage(bus.T("config", "lowpower"), map[string]any{"mode": "single_interval"}, false))
	res := waitResult(t, results)
	if !res.OK || e.Mode() != types.ModeSingleInterval {
		t.Fatalf("result = %+v mode = %s", res, e.Mode())
	}

	s.applyConfig(conn, b.NewMessage(bus.T("config", "lowpower"), types.LowPowerConfig{Mode: "sideways"}, false))
	if res := waitResult(t, results); res.OK || res.Error == "" {
		t.Fatalf("result = %+v, want failure", res)
	}

	// Messages without a mode are ignored.
	s.applyConfig(conn, b.NewMessage(bus.T("config", "lowpower"), map[string]any{"poll_ms": 5.0}, false))
	select {
	case m := <-results.Channel():
		t.Fatalf("unexpected result %+v", m.Payload)
	default:
	}
}

func waitResult(t *testing.T, sub *bus.Subscription) types.ModeResult {
	t.Helper()
	select {
	case m := <-sub.Channel():
		res, ok := m.Payload.(types.ModeResult)
		if !ok {
			t.Fatalf("payload %T", m.Payload)
		}
		return res
	case <-time.After(time.Second):
		t.Fatal("no mode result")
	}
	return types.ModeResult{}
}

func TestFromDocument(t *testing.T) {
	cfg, st, err := FromDocument(types.LowPowerConfig{
		Mode: "single_interval", RadioRequired: true, SleepDepth: "deep",
		Capacity: 5, IntervalMs: 60000, TimerMs: 20, Interrupts: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode != types.ModeSingleInterval || !st.RadioRequired || st.Depth != types.SleepDeep {
		t.Fatalf("settings = %+v", st)
	}
	cfg = cfg.withDefaults()
	if cfg.Capacity != 5 || cfg.QueueSize != 8 || cfg.SharedInterval != 60000 || cfg.TimerPeriod != 20*time.Millisecond || cfg.PollInterval != defaultPoll {
		t.Fatalf("config = %+v", cfg)
	}

	if _, _, err := FromDocument(types.LowPowerConfig{Mode: "both"}); !errors.Is(err, errcode.InvalidMode) {
		t.Fatalf("bad mode: %v", err)
	}
	if _, _, err := FromDocument(types.LowPowerConfig{Mode: "per_sensor", SleepDepth: "hibernate"}); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("bad depth: %v", err)
	}
}
