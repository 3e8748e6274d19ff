//go:build !(rp2040 || rp2350)

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"lowpower-go/bus"
	"lowpower-go/services/lowpower/platform"
	"lowpower-go/types"
	"lowpower-go/x/strconvx"
)

var (
	topicState      = bus.T("lowpower", "state")
	topicReadings   = bus.T("sensors", "+", "value")
	topicModeResult = bus.T("lowpower", "mode", "result")
	topicConfigLP   = bus.T("config", "lowpower")
)

// statusCache keeps the latest scheduler state and sensor readings seen on
// the bus for the HTTP API.
type statusCache struct {
	mu       sync.RWMutex
	state    types.SchedulerState
	readings map[string]any
}

func newStatusCache() *statusCache { return &statusCache{readings: map[string]any{}} }

func (c *statusCache) run(ctx context.Context, conn *bus.Connection) {
	st := conn.Subscribe(topicState)
	rd := conn.Subscribe(topicReadings)
	defer conn.Unsubscribe(st)
	defer conn.Unsubscribe(rd)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-st.Channel():
			if s, ok := m.Payload.(types.SchedulerState); ok {
				c.mu.Lock()
				c.state = s
				c.mu.Unlock()
			}
		case m := <-rd.Channel():
			if name, ok := m.Topic[1].(string); ok {
				c.mu.Lock()
				c.readings[name] = m.Payload
				c.mu.Unlock()
			}
		}
	}
}

type api struct {
	cache *statusCache
	pins  *platform.HostPins
	conn  *bus.Connection
	wake  func() // cuts a light sleep short so requests apply promptly
}

func newRouter(a *api) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", a.getStatus).Methods("GET")
	r.HandleFunc("/sensors", a.getSensors).Methods("GET")
	r.HandleFunc("/pins/{pin:[0-9]+}", a.setPin).Methods("POST")
	r.HandleFunc("/mode", a.setMode).Methods("POST")
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *api) getStatus(w http.ResponseWriter, _ *http.Request) {
	a.cache.mu.RLock()
	defer a.cache.mu.RUnlock()
	writeJSON(w, http.StatusOK, a.cache.state)
}

func (a *api) getSensors(w http.ResponseWriter, _ *http.Request) {
	a.cache.mu.RLock()
	defer a.cache.mu.RUnlock()
	writeJSON(w, http.StatusOK, a.cache.readings)
}

// setPin drives a simulated input: {"level": true} or {"value": 812}.
func (a *api) setPin(w http.ResponseWriter, r *http.Request) {
	pin, _ := strconvx.Atoi(mux.Vars(r)["pin"])
	var body struct {
		Level *bool   `json:"level"`
		Value *uint16 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || (body.Level == nil && body.Value == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "want level or value"})
		return
	}
	if body.Level != nil {
		a.pins.SetLevel(pin, *body.Level)
	}
	if body.Value != nil {
		a.pins.SetAnalog(pin, *body.Value)
	}
	w.WriteHeader(http.StatusNoContent)
}

// setMode forwards {"mode": "..."} to the scheduler and waits for its answer.
func (a *api) setMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Mode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "want mode"})
		return
	}
	sub := a.conn.Subscribe(topicModeResult)
	defer a.conn.Unsubscribe(sub)
	a.conn.Publish(&bus.Message{Topic: topicConfigLP, Payload: map[string]any{"mode": body.Mode}})
	if a.wake != nil {
		a.wake()
	}

	select {
	case m := <-sub.Channel():
		res, _ := m.Payload.(types.ModeResult)
		code := http.StatusOK
		if !res.OK {
			code = http.StatusConflict
		}
		writeJSON(w, code, res)
	case <-time.After(30 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "scheduler did not answer"})
	case <-r.Context().Done():
	}
}
