package types

import "strings"

// ------------------------
// Operating mode
// ------------------------

type Mode uint8

const (
	ModePerSensor Mode = iota
	ModeSingleInterval
)

func (m Mode) String() string {
	switch m {
	case ModePerSensor:
		return "per_sensor"
	case ModeSingleInterval:
		return "single_interval"
	default:
		return "unknown"
	}
}

// ParseMode accepts the JSON spelling ("per_sensor", "single_interval").
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_sensor", "persensor":
		return ModePerSensor, true
	case "single_interval", "singleinterval", "single":
		return ModeSingleInterval, true
	}
	return 0, false
}

// ------------------------
// Sleep depth
// ------------------------

type SleepDepth uint8

const (
	SleepLight SleepDepth = iota // may return early on an external wake source
	SleepDeep
)

func (d SleepDepth) String() string {
	if d == SleepDeep {
		return "deep"
	}
	return "light"
}

func ParseSleepDepth(s string) (SleepDepth, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return SleepLight, true
	case "deep":
		return SleepDeep, true
	}
	return 0, false
}

// ------------------------
// Configuration documents
// ------------------------

// LowPowerConfig is supplied on topic "config/lowpower" or embedded per device.
type LowPowerConfig struct {
	Mode           string      `json:"mode"`        // "per_sensor" | "single_interval"
	RadioRequired  bool        `json:"radio_required"`
	SleepDepth     string      `json:"sleep_depth"` // "light" | "deep"
	Capacity       int         `json:"capacity,omitempty"`
	QueueSize      int         `json:"queue_size,omitempty"`
	IntervalMs     uint32      `json:"interval_ms,omitempty"` // shared interval (single_interval)
	PollMs         uint32      `json:"poll_ms,omitempty"`     // level/threshold polling cadence
	TimerMs        uint32      `json:"timer_ms,omitempty"`    // interrupt timer period
	Interrupts     bool        `json:"interrupts,omitempty"`
	GuardSpinLimit int         `json:"guard_spin_limit,omitempty"`
	Radio          RadioConfig `json:"radio,omitempty"`
}

// RadioConfig carries whatever the selected radio collaborator needs.
type RadioConfig struct {
	SSID             string `json:"ssid,omitempty"`
	Password         string `json:"password,omitempty"`
	Broker           string `json:"broker,omitempty"` // e.g. "tcp://10.0.0.2:1883"
	ClientID         string `json:"client_id,omitempty"`
	Username         string `json:"username,omitempty"`
	ConnectTimeoutMs uint32 `json:"connect_timeout_ms,omitempty"`
	UART             string `json:"uart,omitempty"` // "uart0" | "uart1"
	Baud             uint32 `json:"baud,omitempty"`
	TXPin            int    `json:"tx_pin,omitempty"`
	RXPin            int    `json:"rx_pin,omitempty"`
}

// ------------------------
// Retained state: lowpower/state
// ------------------------

type SchedulerState struct {
	Mode           string `json:"mode"`
	Sensors        int    `json:"sensors"`
	RadioRequired  bool   `json:"radio_required"`
	RadioConnected bool   `json:"radio_connected"`
	RadioFailures  uint32 `json:"radio_failures"`
	LastError      string `json:"last_error,omitempty"`
	SleptMs        uint32 `json:"slept_ms"`
	Sleeps         uint32 `json:"sleeps"`
	Fired          uint32 `json:"fired"`
	QueueDepth     uint32 `json:"queue_depth"`
	QueueDrops     uint32 `json:"queue_drops"`
	ISRSkips       uint32 `json:"isr_skips"`
	Interrupts     bool   `json:"interrupts"`
	TsMs           int64  `json:"ts_ms"`
}

// ModeResult answers a mode change requested on config/lowpower.
type ModeResult struct {
	Mode  string `json:"mode"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TsMs  int64  `json:"ts_ms"`
}
