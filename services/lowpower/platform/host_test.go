//go:build !(rp2040 || rp2350)

package platform

import (
	"sync/atomic"
	"testing"
	"time"

	"lowpower-go/types"
)

func TestHostPinsBounds(t *testing.T) {
	p := NewHostPins(3)
	p.SetLevel(2, true)
	p.SetAnalog(3, 900)

	if lvl, err := p.ReadDigital(2); err != nil || !lvl {
		t.Fatalf("ReadDigital(2) = %t, %v", lvl, err)
	}
	if v, err := p.ReadAnalog(3); err != nil || v != 900 {
		t.Fatalf("ReadAnalog(3) = %d, %v", v, err)
	}
	if lvl, _ := p.ReadDigital(1); lvl {
		t.Fatal("unset pin reads high")
	}
	if _, err := p.ReadDigital(4); err == nil {
		t.Fatal("out-of-range pin accepted")
	}
	if _, err := p.ReadAnalog(-1); err == nil {
		t.Fatal("negative pin accepted")
	}
}

func TestHostSleeperWakeEndsLightSleep(t *testing.T) {
	s := NewHostSleeper()
	s.Wake()
	start := time.Now()
	if err := s.Sleep(5*time.Second, types.SleepLight); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("light sleep ignored the wake source")
	}
}

func TestHostSleeperDeepIgnoresWake(t *testing.T) {
	s := NewHostSleeper()
	s.Wake()
	start := time.Now()
	s.Sleep(30*time.Millisecond, types.SleepDeep)
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("deep sleep returned early")
	}
}

func TestTickerTimerArmDisarm(t *testing.T) {
	tm := NewTickerTimer()
	if _, err := tm.Arm(0, func() {}); err == nil {
		t.Fatal("zero period accepted")
	}

	var hits atomic.Int32
	h, err := tm.Arm(5*time.Millisecond, func() { hits.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for hits.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if hits.Load() < 2 {
		t.Fatalf("isr ran %d times", hits.Load())
	}
	if err := tm.Disarm(h); err != nil {
		t.Fatal(err)
	}
	if err := tm.Disarm(h); err == nil {
		t.Fatal("double disarm accepted")
	}
}

func TestMonoClockAdvances(t *testing.T) {
	c := NewMonoClock()
	a := c.Now()
	time.Sleep(5 * time.Millisecond)
	if b := c.Now(); b-a < 4 {
		t.Fatalf("clock advanced %dms", b-a)
	}
}

func TestWatchedEdgeWakesSleeper(t *testing.T) {
	pins := NewHostPins(8)
	p := Host(pins)
	if err := pins.WatchEdges(9); err == nil {
		t.Fatal("out-of-range pin watched")
	}
	if err := pins.WatchEdges(4); err != nil {
		t.Fatal(err)
	}

	pins.SetLevel(5, true) // unwatched, no wake
	pins.SetLevel(4, true)
	pins.SetLevel(4, true) // no change, no second edge

	start := time.Now()
	p.Sleeper.Sleep(5*time.Second, types.SleepLight)
	if time.Since(start) > time.Second {
		t.Fatal("edge on a watched pin did not end the sleep")
	}
	start = time.Now()
	p.Sleeper.Sleep(30*time.Millisecond, types.SleepLight)
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("repeated level raised a second edge")
	}
}
