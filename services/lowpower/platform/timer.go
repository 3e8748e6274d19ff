package platform

import (
	"sync"
	"time"

	"lowpower-go/errcode"
)

// TickerTimer drives isr from a goroutine per armed handle. TinyGo exposes no
// portable alarm-interrupt API, so on RP2 this is the same goroutine ticker;
// the handler still only ever sees the interrupt-context contract.
type TickerTimer struct {
	mu   sync.Mutex
	next TimerHandle
	live map[TimerHandle]chan struct{}
}

func NewTickerTimer() *TickerTimer {
	return &TickerTimer{live: map[TimerHandle]chan struct{}{}}
}

func (t *TickerTimer) Arm(period time.Duration, isr func()) (TimerHandle, error) {
	if period <= 0 || isr == nil {
		return 0, errcode.InvalidParams
	}
	t.mu.Lock()
	t.next++
	h := t.next
	stop := make(chan struct{})
	t.live[h] = stop
	t.mu.Unlock()

	go func() {
		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				isr()
			}
		}
	}()
	return h, nil
}

func (t *TickerTimer) Disarm(h TimerHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stop, ok := t.live[h]
	if !ok {
		return errcode.InvalidParams
	}
	close(stop)
	delete(t.live, h)
	return nil
}
