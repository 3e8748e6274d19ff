//go:build !(rp2040 || rp2350)

package platform

import (
	"sync"
	"time"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

// ----------------------------- Pins (host) -----------------------------------

// HostPins holds settable levels and analog values for simulation and tests.
// Unknown pins read as low / zero.
type HostPins struct {
	mu      sync.RWMutex
	levels  map[int]bool
	samples map[int]uint16
	watched map[int]bool
	onEdge  func()
	max     int
}

// NewHostPins accepts pins 0..maxPin.
func NewHostPins(maxPin int) *HostPins {
	return &HostPins{levels: map[int]bool{}, samples: map[int]uint16{}, watched: map[int]bool{}, max: maxPin}
}

// SetLevel drives a simulated input. A change on a watched pin raises an
// edge.
func (p *HostPins) SetLevel(pin int, level bool) {
	p.mu.Lock()
	edge := p.watched[pin] && p.levels[pin] != level
	p.levels[pin] = level
	fn := p.onEdge
	p.mu.Unlock()
	if edge && fn != nil {
		fn()
	}
}

func (p *HostPins) WatchEdges(pin int) error {
	if pin < 0 || pin > p.max {
		return errcode.InvalidParams
	}
	p.mu.Lock()
	p.watched[pin] = true
	p.mu.Unlock()
	return nil
}

// Watched reports whether edges on pin are being watched.
func (p *HostPins) Watched(pin int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.watched[pin]
}

// OnEdge installs the edge callback, normally the sleeper's Wake.
func (p *HostPins) OnEdge(fn func()) {
	p.mu.Lock()
	p.onEdge = fn
	p.mu.Unlock()
}

func (p *HostPins) SetAnalog(pin int, v uint16) {
	p.mu.Lock()
	p.samples[pin] = v
	p.mu.Unlock()
}

func (p *HostPins) ReadDigital(pin int) (bool, error) {
	if pin < 0 || pin > p.max {
		return false, errcode.InvalidParams
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.levels[pin], nil
}

func (p *HostPins) ReadAnalog(pin int) (uint16, error) {
	if pin < 0 || pin > p.max {
		return 0, errcode.InvalidParams
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.samples[pin], nil
}

// ----------------------------- Sleep (host) ----------------------------------

// HostSleeper blocks the calling goroutine. A light sleep returns early when
// Wake is called, standing in for an external wake source.
type HostSleeper struct {
	wake chan struct{}
}

func NewHostSleeper() *HostSleeper { return &HostSleeper{wake: make(chan struct{}, 1)} }

func (s *HostSleeper) Supports(types.SleepDepth) bool { return true }

func (s *HostSleeper) Sleep(d time.Duration, depth types.SleepDepth) error {
	t := time.NewTimer(d)
	defer t.Stop()
	if depth == types.SleepDeep {
		<-t.C
		return nil
	}
	select {
	case <-t.C:
	case <-s.wake:
	}
	return nil
}

// Wake ends a light sleep in progress (or the next one).
func (s *HostSleeper) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Host returns a platform backed by the wall clock, settable pins and a
// goroutine timer. Radio is left nil for the caller to supply.
func Host(pins *HostPins) Platform {
	s := NewHostSleeper()
	pins.OnEdge(s.Wake)
	return Platform{
		Clock:   NewMonoClock(),
		Pins:    pins,
		Sleeper: s,
		Timer:   NewTickerTimer(),
	}
}
