package lowpower

import (
	"context"

	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/types"
	"lowpower-go/x/logx"
	"lowpower-go/x/timex"
)

var (
	topicConfigLowPower = bus.T("config", "lowpower")
	topicModeResult     = bus.T("lowpower", "mode", "result")
)

// Service runs the engine's tick loop and applies mode changes received on
// config/lowpower between ticks. The engine is only touched from the loop.
// When the sleeper can be woken, a config message or cancellation ends a
// light sleep early; otherwise both wait for the current sleep to finish.
type Service struct {
	eng *Engine
}

// waker is implemented by sleepers whose light sleep can be cut short.
type waker interface{ Wake() }

func NewService(eng *Engine) *Service { return &Service{eng: eng} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigLowPower)
	defer conn.Unsubscribe(cfgSub)
	defer s.eng.Close()

	for {
		select {
		case <-ctx.Done():
			logx.Infof("lowpower service stopping")
			return
		case msg := <-cfgSub.Channel():
			s.applyConfig(conn, msg)
		default:
			if err := s.eng.Tick(); err != nil {
				logx.Errorf("tick: %v", err)
				return
			}
		}
	}
}

// applyConfig handles a runtime configuration message. Only the mode is
// mutable after Initialize.
func (s *Service) applyConfig(conn *bus.Connection, msg *bus.Message) {
	name, ok := modeField(msg.Payload)
	if !ok {
		return
	}
	res := types.ModeResult{Mode: name, TsMs: timex.NowMs()}
	mode, ok := types.ParseMode(name)
	var err error
	if !ok {
		err = &errcode.E{C: errcode.InvalidMode, Op: "set_mode", Msg: name}
	} else {
		err = s.eng.SetMode(mode)
	}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.OK = true
	}
	conn.Publish(&bus.Message{Topic: topicModeResult, Payload: res})
}

func modeField(p any) (string, bool) {
	switch v := p.(type) {
	case types.LowPowerConfig:
		return v.Mode, v.Mode != ""
	case *types.LowPowerConfig:
		return v.Mode, v != nil && v.Mode != ""
	case map[string]any:
		m, ok := v["mode"].(string)
		return m, ok
	}
	return "", false
}

// Start the low-power service. The engine must already be initialised.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if !s.eng.initialised {
		return errcode.Wrap(errcode.NotReady, "start", nil)
	}
	s.eng.Attach(conn)
	if w, ok := s.eng.plat.Sleeper.(waker); ok {
		go wakeOnConfig(ctx, conn.Subscribe(topicConfigLowPower), conn, w)
	}
	go s.serviceLoop(ctx, conn)
	return nil
}

// wakeOnConfig ends the current sleep whenever the loop has something to
// handle. It holds its own subscription, so the loop still sees every message.
func wakeOnConfig(ctx context.Context, sub *bus.Subscription, conn *bus.Connection, w waker) {
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			w.Wake()
			return
		case _, ok := <-sub.Channel():
			if !ok {
				return
			}
			w.Wake()
		}
	}
}
