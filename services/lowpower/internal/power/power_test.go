package power

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

// recorder captures the order of collaborator calls.
type recorder struct{ calls []string }

type fakeSleeper struct {
	rec      *recorder
	supports map[types.SleepDepth]bool
	slept    []time.Duration
	depths   []types.SleepDepth
}

func (s *fakeSleeper) Supports(d types.SleepDepth) bool {
	if s.supports == nil {
		return true
	}
	return s.supports[d]
}

func (s *fakeSleeper) Sleep(d time.Duration, depth types.SleepDepth) error {
	s.rec.calls = append(s.rec.calls, "sleep")
	s.slept = append(s.slept, d)
	s.depths = append(s.depths, depth)
	return nil
}

type fakeRadio struct {
	rec        *recorder
	disableErr error
	enableErr  error
}

func (r *fakeRadio) Disable() error {
	r.rec.calls = append(r.rec.calls, "radio_off")
	return r.disableErr
}

func (r *fakeRadio) Enable() error {
	r.rec.calls = append(r.rec.calls, "radio_on")
	return r.enableErr
}

func TestEnterSleepZeroIsNoop(t *testing.T) {
	rec := &recorder{}
	c := New(&fakeSleeper{rec: rec}, &fakeRadio{rec: rec}, nil)
	if _, err := c.Configure(true, types.SleepLight, 0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if c.EnterSleep(0) || c.EnterSleep(-time.Second) {
		t.Fatal("EnterSleep reported sleeping for a non-positive duration")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("collaborators touched: %v", rec.calls)
	}
}

func TestEnterSleepBracketsRadio(t *testing.T) {
	rec := &recorder{}
	s := &fakeSleeper{rec: rec}
	c := New(s, &fakeRadio{rec: rec}, nil)
	c.Configure(true, types.SleepDeep, 0)

	if !c.EnterSleep(1500 * time.Millisecond) {
		t.Fatal("EnterSleep did not sleep")
	}
	want := []string{"radio_off", "sleep", "radio_on"}
	if len(rec.calls) != 3 || rec.calls[0] != want[0] || rec.calls[1] != want[1] || rec.calls[2] != want[2] {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if s.slept[0] != 1500*time.Millisecond || s.depths[0] != types.SleepDeep {
		t.Fatalf("slept %v at %v", s.slept[0], s.depths[0])
	}
	if !c.Connected() {
		t.Fatal("radio should be connected after a clean wake")
	}
}

func TestRadioFailuresDoNotAbortSleep(t *testing.T) {
	rec := &recorder{}
	r := &fakeRadio{rec: rec, disableErr: errors.New("stuck"), enableErr: errors.New("no ap")}
	c := New(&fakeSleeper{rec: rec}, r, nil)
	c.Configure(true, types.SleepLight, 0)

	c.EnterSleep(time.Second)
	if len(rec.calls) != 3 || rec.calls[1] != "sleep" || rec.calls[2] != "radio_on" {
		t.Fatalf("calls = %v", rec.calls)
	}
	f := c.Faults()
	if f.DisableFailures != 1 || f.EnableFailures != 1 || f.Total() != 2 {
		t.Fatalf("faults = %+v", f)
	}
	if errcode.Of(f.LastErr) != errcode.RadioFault {
		t.Fatalf("last error code = %q", errcode.Of(f.LastErr))
	}
	if c.Connected() {
		t.Fatal("failed enable must leave the radio disconnected")
	}
}

func TestRadioUntouchedWhenNotRequired(t *testing.T) {
	rec := &recorder{}
	c := New(&fakeSleeper{rec: rec}, &fakeRadio{rec: rec}, nil)
	c.Configure(false, types.SleepLight, 0)
	c.BringUp()
	c.EnterSleep(time.Millisecond)
	if len(rec.calls) != 1 || rec.calls[0] != "sleep" {
		t.Fatalf("calls = %v", rec.calls)
	}
}

func TestConfigureFallsBackDepth(t *testing.T) {
	rec := &recorder{}
	s := &fakeSleeper{rec: rec, supports: map[types.SleepDepth]bool{types.SleepDeep: true}}
	c := New(s, nil, nil)
	got, err := c.Configure(false, types.SleepLight, 0)
	if err != nil || got != types.SleepDeep {
		t.Fatalf("Configure = (%v, %v), want deep", got, err)
	}

	none := &fakeSleeper{rec: rec, supports: map[types.SleepDepth]bool{}}
	if _, err := New(none, nil, nil).Configure(false, types.SleepLight, 0); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("err = %v, want unsupported", err)
	}
	if _, err := New(s, nil, nil).Configure(true, types.SleepDeep, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("radio required without radio: err = %v", err)
	}
}

func TestEnterSleepWaitsForGuard(t *testing.T) {
	rec := &recorder{}
	var polls atomic.Int32
	guard := func() bool { return polls.Add(1) < 5 } // busy for four polls
	c := New(&fakeSleeper{rec: rec}, nil, guard)
	c.Configure(false, types.SleepLight, 0)
	c.EnterSleep(time.Millisecond)
	if polls.Load() != 5 || len(rec.calls) != 1 {
		t.Fatalf("polls=%d calls=%v", polls.Load(), rec.calls)
	}
}

func TestStuckGuardIsFatal(t *testing.T) {
	rec := &recorder{}
	c := New(&fakeSleeper{rec: rec}, nil, func() bool { return true })
	c.Configure(false, types.SleepLight, 100)
	defer func() {
		if recover() == nil {
			t.Fatal("stuck guard should panic once the spin limit is hit")
		}
		if len(rec.calls) != 0 {
			t.Fatal("slept despite the guard")
		}
	}()
	c.EnterSleep(time.Millisecond)
}
