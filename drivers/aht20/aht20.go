// Package aht20 drives the AHT20 temperature/humidity sensor with a
// two-phase measurement:
//
//	d.Trigger()        // start a conversion (one bus write)
//	err := d.Await(&s) // poll until the sample is ready or the timeout passes
//
// The split lets a scheduler start conversions on several sensors before
// collecting any of them. Conversions are fixed-point throughout.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package aht20

import (
	"time"

	"tinygo.org/x/drivers"

	"lowpower-go/errcode"
)

const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	fullScale = 1 << 20
)

var (
	ErrTimeout  = &errcode.E{C: errcode.Timeout, Op: "aht20"}
	ErrNotReady = &errcode.E{C: errcode.Busy, Op: "aht20", Msg: "conversion in progress"}
)

// Config is optional; zero fields take defaults.
type Config struct {
	Address      uint16        // default 0x38
	PollInterval time.Duration // between readiness checks, default 15ms
	Timeout      time.Duration // bound on Await, default 250ms
}

type Device struct {
	bus drivers.I2C
	cfg Config
	buf [7]byte

	configured bool
	last       Sample
}

// New only records the bus; the device is not touched until Configure.
func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	return &Device{bus: bus, cfg: cfg}
}

// Configure loads the calibration if the device reports it missing.
func (d *Device) Configure() error {
	st, err := d.Status()
	if err == nil && st&statusCalibrated != 0 {
		d.configured = true
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return errcode.Wrap(errcode.Error, "aht20_init", err)
	}
	time.Sleep(10 * time.Millisecond)
	d.configured = true
	return nil
}

// Reset issues a soft reset. Allow ~20ms before the next command.
func (d *Device) Reset() error {
	d.configured = false
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) Status() (byte, error) {
	var b [1]byte
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Trigger starts a conversion without waiting for it.
func (d *Device) Trigger() error {
	if !d.configured {
		if err := d.Configure(); err != nil {
			return err
		}
	}
	return d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads one sample. ErrNotReady means the conversion is still
// running; bus errors are returned as-is.
func (d *Device) Collect(out *Sample) error {
	b := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, b); err != nil {
		return err
	}
	if b[0]&statusCalibrated == 0 || b[0]&statusBusy != 0 {
		return ErrNotReady
	}
	s := Sample{
		RawHumidity: uint32(b[1])<<12 | uint32(b[2])<<4 | uint32(b[3])>>4,
		RawTemp:     uint32(b[3]&0x0F)<<16 | uint32(b[4])<<8 | uint32(b[5]),
	}
	d.last = s
	if out != nil {
		*out = s
	}
	return nil
}

// Await polls Collect until a sample is ready or the timeout passes.
func (d *Device) Await(out *Sample) error {
	deadline := time.Now().Add(d.cfg.Timeout)
	for {
		err := d.Collect(out)
		if err != ErrNotReady {
			return err
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// Read is Trigger followed by Await.
func (d *Device) Read(out *Sample) error {
	if err := d.Trigger(); err != nil {
		return err
	}
	return d.Await(out)
}

// Last returns the most recent collected sample.
func (d *Device) Last() Sample { return d.last }

// Sample holds the 20-bit raw readings.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// DeciCelsius returns tenths of °C, rounded half away from zero.
func (s Sample) DeciCelsius() int16 {
	v := int64(s.RawTemp)*2000 - 500*fullScale
	if v >= 0 {
		v += fullScale / 2
	} else {
		v -= fullScale / 2
	}
	return int16(v / fullScale)
}

// RHx100 returns hundredths of %RH, rounded and clamped to 0..10000.
func (s Sample) RHx100() uint16 {
	v := (uint64(s.RawHumidity)*10000 + fullScale/2) / fullScale
	if v > 10000 {
		v = 10000
	}
	return uint16(v)
}
