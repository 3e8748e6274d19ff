package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Pico W with an AHT20 on i2c0 and a door contact on GP15. The SIM7600
// modem on uart1 is switched to flight mode around each sleep.
const cfgPico = `{
  "lowpower": {
    "mode": "per_sensor",
    "radio_required": true,
    "sleep_depth": "light",
    "capacity": 8,
    "poll_ms": 500,
    "timer_ms": 100,
    "interrupts": true,
    "radio": {"uart": "uart1", "baud": 115200, "tx_pin": 4, "rx_pin": 5}
  },
  "sensors": {
    "aht20": {"kind": "aht20", "interval_ms": 60000, "bus": "i2c0", "sda": 0, "scl": 1},
    "door": {"kind": "level", "pin": 15, "level": true}
  }
}`

// Host simulation. Credentials come from the environment (see cmd/lpctl).
const cfgSim = `{
  "lowpower": {
    "mode": "per_sensor",
    "radio_required": true,
    "sleep_depth": "light",
    "interval_ms": 5000,
    "poll_ms": 1000,
    "interrupts": true,
    "radio": {"broker": "tcp://127.0.0.1:1883", "client_id": "lowpower-sim", "connect_timeout_ms": 3000}
  },
  "sensors": {
    "sim": {"kind": "sim", "interval_ms": 5000},
    "door": {"kind": "level", "pin": 3, "level": true}
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
