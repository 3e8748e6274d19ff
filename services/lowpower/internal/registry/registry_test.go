package registry

import (
	"sync"
	"testing"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

func nop() {}

func TestAddAssignsSequentialSlots(t *testing.T) {
	r := New(4)
	for want := 0; want < 3; want++ {
		id, err := r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(1000)})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if int(id) != want {
			t.Fatalf("slot = %d, want %d", id, want)
		}
	}
	if r.Len() != 3 || r.Cap() != 4 {
		t.Fatalf("len/cap = %d/%d", r.Len(), r.Cap())
	}
}

func TestAddRejectsAtCapacityWithoutMutation(t *testing.T) {
	r := New(2)
	r.Add(types.Descriptor{Wake: nop})
	r.Add(types.Descriptor{Wake: nop})
	_, err := r.Add(types.Descriptor{Wake: nop})
	if errcode.Of(err) != errcode.CapacityExceeded {
		t.Fatalf("err = %v, want capacity_exceeded", err)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d after rejection", r.Len())
	}
}

func TestAddRejectsMissingWake(t *testing.T) {
	r := New(2)
	if _, err := r.Add(types.Descriptor{Sleep: nop}); err != errcode.MissingWakeCallback {
		t.Fatalf("err = %v", err)
	}
	if r.Len() != 0 {
		t.Fatal("registry mutated on rejection")
	}
}

func TestNewPanicsOnBadCapacity(t *testing.T) {
	for _, c := range []int{0, -1, MaxCapacity + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", c)
				}
			}()
			New(c)
		}()
	}
}

func TestCheckRules(t *testing.T) {
	cases := []struct {
		name   string
		d      types.Descriptor
		mode   types.Mode
		shared types.Ticks
		want   errcode.Code
	}{
		{"per-sensor ok", types.Descriptor{Wake: nop, Trigger: types.Every(500)}, types.ModePerSensor, 0, errcode.OK},
		{"per-sensor zero interval", types.Descriptor{Wake: nop, Trigger: types.Every(0)}, types.ModePerSensor, 0, errcode.InvalidInterval},
		{"per-sensor digital no interval", types.Descriptor{Wake: nop, Trigger: types.OnLevel(true)}, types.ModePerSensor, 0, errcode.OK},
		{"single unset interval", types.Descriptor{Wake: nop, Trigger: types.Every(0)}, types.ModeSingleInterval, 5000, errcode.OK},
		{"single equal interval", types.Descriptor{Wake: nop, Trigger: types.Every(5000)}, types.ModeSingleInterval, 5000, errcode.OK},
		{"single first interval", types.Descriptor{Wake: nop, Trigger: types.Every(7000)}, types.ModeSingleInterval, 0, errcode.OK},
		{"single mismatch", types.Descriptor{Wake: nop, Trigger: types.Every(7000)}, types.ModeSingleInterval, 5000, errcode.IntervalMismatch},
		{"missing wake", types.Descriptor{Trigger: types.Every(10)}, types.ModePerSensor, 0, errcode.MissingWakeCallback},
		{"bad kind", types.Descriptor{Wake: nop, Trigger: types.Trigger{Kind: 9}}, types.ModePerSensor, 0, errcode.InvalidParams},
		{"bad mode", types.Descriptor{Wake: nop, Trigger: types.Every(10)}, types.Mode(7), 0, errcode.InvalidMode},
	}
	for _, c := range cases {
		if got := errcode.Of(Check(c.d, c.mode, c.shared)); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestCheckModeDerivesSharedInterval(t *testing.T) {
	r := New(4)
	r.Add(types.Descriptor{Wake: nop, Trigger: types.OnLevel(true)})
	r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(3000)})
	r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(3000)})

	shared, err := r.CheckMode(types.ModeSingleInterval, 0)
	if err != nil || shared != 3000 {
		t.Fatalf("CheckMode = (%d, %v), want (3000, nil)", shared, err)
	}

	r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(1000)})
	if _, err := r.CheckMode(types.ModeSingleInterval, 0); err != errcode.IntervalMismatch {
		t.Fatalf("err = %v, want interval_mismatch", err)
	}
	if _, err := r.CheckMode(types.ModePerSensor, 0); err != nil {
		t.Fatalf("per-sensor should accept distinct intervals: %v", err)
	}
}

func TestCheckModeRejectsZeroIntervalForPerSensor(t *testing.T) {
	r := New(2)
	r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(0)})
	if _, err := r.CheckMode(types.ModePerSensor, 0); err != errcode.InvalidInterval {
		t.Fatalf("err = %v, want invalid_interval", err)
	}
}

func TestPendingClaimIsExclusive(t *testing.T) {
	r := New(1)
	id, _ := r.Add(types.Descriptor{Wake: nop})
	if !r.MarkPending(id) {
		t.Fatal("first claim should succeed")
	}
	if r.MarkPending(id) {
		t.Fatal("second claim should fail while pending")
	}
	r.ClearPending(id)
	if r.Pending(id) || !r.MarkPending(id) {
		t.Fatal("claim after clear should succeed")
	}
}

// Readers iterate while the owner publishes; run with -race.
func TestConcurrentReadDuringAdd(t *testing.T) {
	r := New(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Each(func(id types.SlotID, d *types.Descriptor) {
				_ = d.Trigger.Interval
				_ = r.LastFire(id)
			})
		}
	}()
	for i := 0; i < 64; i++ {
		r.Add(types.Descriptor{Wake: nop, Trigger: types.Every(types.Ticks(i + 1))})
	}
	wg.Wait()
}
