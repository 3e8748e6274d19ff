package types

// ------------------------
// Sensor readings: sensors/<name>/value
// ------------------------

// EnvReading is what an environmental sensor publishes after each wake.
type EnvReading struct {
	Sensor string `json:"sensor"` // "aht20", "sim", ...
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
	// Hundredths of %RH (0..10000 for 0..100.00%).
	RHx100 uint16 `json:"rh_x100"`
	TsMs   int64  `json:"ts_ms"`
}

// LevelReading is published for level and threshold triggered descriptors.
type LevelReading struct {
	Sensor string `json:"sensor"`
	Pin    int    `json:"pin"`
	Level  bool   `json:"level,omitempty"`
	Value  uint16 `json:"value,omitempty"`
	TsMs   int64  `json:"ts_ms"`
}
