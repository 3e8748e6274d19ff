package types

// Ticks is the monotonic millisecond counter used by the scheduler.
// It wraps silently; always compare with x/timex helpers.
type Ticks uint32

// SlotID is the fixed index of a registered sensor.
type SlotID uint8

// ------------------------
// Triggers
// ------------------------

type TriggerKind uint8

const (
	TriggerInterval TriggerKind = iota // fire when the interval has elapsed
	TriggerDigital                     // fire while the pin reads Level
	TriggerAnalog                      // fire while the sample is >= Threshold
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerInterval:
		return "interval"
	case TriggerDigital:
		return "digital"
	case TriggerAnalog:
		return "analog"
	default:
		return "unknown"
	}
}

// Trigger is a tagged variant. Only the field selected by Kind is meaningful.
type Trigger struct {
	Kind      TriggerKind
	Interval  Ticks  // TriggerInterval
	Level     bool   // TriggerDigital
	Threshold uint16 // TriggerAnalog
}

// Every returns a time-interval trigger.
func Every(interval Ticks) Trigger { return Trigger{Kind: TriggerInterval, Interval: interval} }

// OnLevel returns a digital-level trigger.
func OnLevel(level bool) Trigger { return Trigger{Kind: TriggerDigital, Level: level} }

// AtOrAbove returns an analog-threshold trigger.
func AtOrAbove(threshold uint16) Trigger { return Trigger{Kind: TriggerAnalog, Threshold: threshold} }

// IsTimed reports whether the trigger is driven by elapsed time.
func (t Trigger) IsTimed() bool { return t.Kind == TriggerInterval }

// ------------------------
// Sensor descriptor
// ------------------------

// Descriptor is supplied once at registration and never changes afterwards.
type Descriptor struct {
	Name    string // for logs and state documents only
	Wake    func() // required
	Sleep   func() // optional, runs right after Wake
	Trigger Trigger
	Pin     int // TriggerDigital / TriggerAnalog only
}

// SensorConfig is one entry of the "sensors" config section, keyed by name.
type SensorConfig struct {
	Kind       string `json:"kind"` // "aht20" | "sim" | "level" | "threshold"
	IntervalMs uint32 `json:"interval_ms,omitempty"`
	Bus        string `json:"bus,omitempty"` // "i2c0" | "i2c1"
	SDA        int    `json:"sda,omitempty"`
	SCL        int    `json:"scl,omitempty"`
	Pin        int    `json:"pin,omitempty"`
	Level      bool   `json:"level,omitempty"`
	Threshold  uint16 `json:"threshold,omitempty"`
}
