package config

import (
	"context"
	"encoding/json"

	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/types"
	"lowpower-go/x/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	lowPowerKey  = "lowpower"
	sensorsKey   = "sensors"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

func sections(device string) (map[string]json.RawMessage, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no embedded config for device " + device}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "config", err)
	}
	return m, nil
}

// decodeSection returns the typed payload for known sections and a generic
// JSON value for the rest.
func decodeSection(key string, raw json.RawMessage) (any, error) {
	switch key {
	case lowPowerKey:
		var lp types.LowPowerConfig
		err := json.Unmarshal(raw, &lp)
		return lp, err
	case sensorsKey:
		var sc map[string]types.SensorConfig
		err := json.Unmarshal(raw, &sc)
		return sc, err
	}
	var v any
	err := json.Unmarshal(raw, &v)
	return v, err
}

// LowPower returns the scheduler section of a device's embedded config.
func LowPower(device string) (types.LowPowerConfig, error) {
	m, err := sections(device)
	if err != nil {
		return types.LowPowerConfig{}, err
	}
	raw, ok := m[lowPowerKey]
	if !ok {
		return types.LowPowerConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no lowpower section for " + device}
	}
	v, err := decodeSection(lowPowerKey, raw)
	if err != nil {
		return types.LowPowerConfig{}, errcode.Wrap(errcode.InvalidParams, "config", err)
	}
	return v.(types.LowPowerConfig), nil
}

// Sensors returns the sensor section of a device's embedded config. A device
// without one has no sensors.
func Sensors(device string) (map[string]types.SensorConfig, error) {
	m, err := sections(device)
	if err != nil {
		return nil, err
	}
	raw, ok := m[sensorsKey]
	if !ok {
		return nil, nil
	}
	v, err := decodeSection(sensorsKey, raw)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "config", err)
	}
	return v.(map[string]types.SensorConfig), nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes each top-level section of the device config as a
// retained message on config/<section>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.Wrap(errcode.InvalidParams, "config", nil)
	}
	m, err := sections(device)
	if err != nil {
		return err
	}
	for k, raw := range m {
		v, err := decodeSection(k, raw)
		if err != nil {
			logx.Warnf("config section %q: %v", k, err)
			continue
		}
		conn.Publish(&bus.Message{Topic: bus.T(configPrefix, k), Payload: v, Retained: true})
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logx.Errorf("config: %v", err)
		}
	}()
}
