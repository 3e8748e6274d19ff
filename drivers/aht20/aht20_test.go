package aht20

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"lowpower-go/errcode"
)

var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C scripts an AHT20: a trigger makes the device busy for convert.
type fakeI2C struct {
	mu         sync.Mutex
	calib      bool
	busyUntil  time.Time
	convert    time.Duration
	hraw, traw uint32
	inits      int
	txErr      error
}

func newFake() *fakeI2C {
	// 25.0°C, 55.0 %RH
	return &fakeI2C{calib: true, hraw: 576_717, traw: 393_216, convert: 20 * time.Millisecond}
}


func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return f.txErr
	}
	status := func() byte {
		var s byte
		if f.calib {
			s |= statusCalibrated
		}
		if time.Now().Before(f.busyUntil) {
			s |= statusBusy
		}
		return s
	}
	switch {
	case len(w) == 1 && w[0] == cmdStatus && len(r) == 1:
		r[0] = status()
	case len(w) == 3 && w[0] == cmdInitialize:
		f.inits++
		f.calib = true
	case len(w) == 3 && w[0] == cmdTrigger:
		f.busyUntil = time.Now().Add(f.convert)
	case len(w) == 0 && len(r) == 7:
		r[0] = status()
		h, t := f.hraw, f.traw
		r[1] = byte(h >> 12)
		r[2] = byte(h >> 4)
		r[3] = byte((h&0xF)<<4 | (t>>16)&0x0F)
		r[4] = byte(t >> 8)
		r[5] = byte(t)
		r[6] = 0
	}
	return nil
}

func TestReadConverts(t *testing.T) {
	d := New(newFake(), Config{PollInterval: 2 * time.Millisecond})
	var s Sample
	if err := d.Read(&s); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := s.DeciCelsius(); got != 250 {
		t.Fatalf("DeciCelsius = %d, want 250", got)
	}
	if got := s.RHx100(); got != 5500 {
		t.Fatalf("RHx100 = %d, want 5500", got)
	}
	if d.Last() != s {
		t.Fatal("Last does not match the collected sample")
	}
}

func TestCollectBeforeConversionIsNotReady(t *testing.T) {
	f := newFake()
	f.convert = time.Hour
	d := New(f, Config{})
	if err := d.Trigger(); err != nil {
		t.Fatal(err)
	}
	if err := d.Collect(nil); !errors.Is(err, errcode.Busy) {
		t.Fatalf("Collect = %v, want not ready", err)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	f := newFake()
	f.convert = time.Hour
	d := New(f, Config{PollInterval: time.Millisecond, Timeout: 10 * time.Millisecond})
	if err := d.Read(nil); !errors.Is(err, errcode.Timeout) {
		t.Fatalf("Read = %v, want timeout", err)
	}
}

func TestConfigureInitialisesUncalibrated(t *testing.T) {
	f := newFake()
	f.calib = false
	d := New(f, Config{})
	if err := d.Trigger(); err != nil {
		t.Fatal(err)
	}
	if f.inits != 1 {
		t.Fatalf("init commands = %d, want 1", f.inits)
	}
	if err := d.Trigger(); err != nil || f.inits != 1 {
		t.Fatalf("re-initialised on second trigger (inits=%d err=%v)", f.inits, err)
	}
}

func TestBusErrorPassesThrough(t *testing.T) {
	f := newFake()
	boom := errors.New("nack")
	f.txErr = boom
	d := New(f, Config{})
	if err := d.Collect(nil); !errors.Is(err, boom) {
		t.Fatalf("Collect = %v", err)
	}
}

func TestConversionsClampAndRound(t *testing.T) {
	cases := []struct {
		s     Sample
		deciC int16
		rh    uint16
	}{
		{Sample{RawTemp: 0, RawHumidity: 0}, -500, 0},
		{Sample{RawTemp: fullScale - 1, RawHumidity: fullScale - 1}, 1500, 10000},
		{Sample{RawTemp: 262_144}, 0, 0}, // exactly 0.0°C
	}
	for _, c := range cases {
		if got := c.s.DeciCelsius(); got != c.deciC {
			t.Errorf("DeciCelsius(%d) = %d, want %d", c.s.RawTemp, got, c.deciC)
		}
		if got := c.s.RHx100(); got != c.rh {
			t.Errorf("RHx100(%d) = %d, want %d", c.s.RawHumidity, got, c.rh)
		}
	}
}
